package server

import (
	"context"
	"testing"
	"time"

	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/config"
	"github.com/acedema/acedema-back/internal/server/notify"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDSN = config.MemoryDSN
	c.HTTPAddr = "127.0.0.1:0"
	c.LogLevel = "error"
	c.ShutdownTimeout = time.Second
	return c
}

func TestNewApp_MemoryStore(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	assert.IsType(t, &repomanager.MemoryRepositoryManager{}, app.repomanager)
	assert.NotNil(t, app.server)
	assert.NotNil(t, app.limiter)
	app.limiter.Stop()
}

func TestNewApp_UnknownHashScheme(t *testing.T) {
	c := memoryConfig()
	c.HashScheme = "md5"

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
}

func TestNewApp_UnknownMailSender(t *testing.T) {
	c := memoryConfig()
	c.MailSender = "pigeon"

	_, err := NewApp(context.Background(), c)
	require.ErrorContains(t, err, `unknown mail sender "pigeon"`)
}

func TestNewTransport_Log(t *testing.T) {
	tr, err := newTransport(context.Background(), memoryConfig(), logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &notify.LogTransport{}, tr)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), memoryConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
