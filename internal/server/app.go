// Package server wires the API process together: configuration, the person
// directory, credential hashing, tokens, outgoing mail, metrics and the HTTP
// server. It also handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/acedema/acedema-back/internal/logging"
	"github.com/acedema/acedema-back/internal/server/auth"
	"github.com/acedema/acedema-back/internal/server/authz"
	"github.com/acedema/acedema-back/internal/server/config"
	"github.com/acedema/acedema-back/internal/server/credentials"
	"github.com/acedema/acedema-back/internal/server/httpapi"
	"github.com/acedema/acedema-back/internal/server/metrics"
	"github.com/acedema/acedema-back/internal/server/notify"
	"github.com/acedema/acedema-back/internal/server/repositories/repomanager"
	"github.com/acedema/acedema-back/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const rateLimitCleanupInterval = 5 * time.Minute

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	limiter     *httpapi.RateLimiter
	server      *httpapi.Server
}

// NewApp builds every dependency from c. Storage is opened (and migrated when
// configured) here so that a bad DSN fails start-up instead of the first request.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := openRepositories(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	hasher, err := credentials.New(c.HashScheme)
	if err != nil {
		rm.Close()
		return nil, err
	}

	tokens := auth.NewTokenService(auth.TokenConfig{
		SecretKey:       []byte(c.SecretKey),
		Issuer:          c.TokenIssuer,
		Audience:        c.TokenAudience,
		SessionValidity: c.SessionTokenValidityDuration,
		ResetValidity:   c.ResetTokenValidityDuration,
	})

	transport, err := newTransport(ctx, c, logger)
	if err != nil {
		rm.Close()
		return nil, fmt.Errorf("mail transport: %w", err)
	}
	mailer := notify.NewMailer(c.MailFrom, transport)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	authService := services.NewAuthService(rm, hasher, credentials.NewPasswordGenerator(), tokens, mailer, logger,
		services.AuthPolicy{
			OpenRegistration:   c.OpenRegistration,
			RevealUnknownEmail: c.RevealUnknownEmail,
			ResetLinkHost:      c.ResetLinkHost,
			AdminRoleID:        c.AdminRoleID,
		},
		services.WithRecorder(collector),
	)
	profileService := services.NewProfileService(rm, logger, c.AdminRoleID)

	limiter := httpapi.NewRateLimiter(c.RateLimitPerMinute, c.RateLimitBurst, rateLimitCleanupInterval)

	router := httpapi.NewRouter(&httpapi.RouterDeps{
		Auth:               authService,
		Profiles:           profileService,
		Gate:               authz.NewGate(tokens, rm),
		AdminRoleID:        c.AdminRoleID,
		Logger:             logger,
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		RateLimiter:        limiter,
		Health:             rm.Ping,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
	})

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		limiter:     limiter,
		server:      httpapi.NewServer(c.HTTPAddr, router, logger, c.ShutdownTimeout),
	}, nil
}

func openRepositories(ctx context.Context, c *config.Config, l logging.Logger) (repomanager.RepositoryManager, error) {
	if c.UsesMemoryStore() {
		l.Warn(ctx, "using in-memory person directory, data is lost on exit")
		return repomanager.NewMemoryRepositoryManager(), nil
	}

	rm, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.RunMigrations {
		if err := rm.RunMigrations(ctx); err != nil {
			rm.Close()
			return nil, err
		}
		l.Info(ctx, "migrations applied")
	}
	return rm, nil
}

func newTransport(ctx context.Context, c *config.Config, l logging.Logger) (notify.Transport, error) {
	switch c.MailSender {
	case config.MailSenderS3:
		return notify.NewS3Outbox(ctx, notify.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		})
	case config.MailSenderLog:
		return notify.NewLogTransport(l), nil
	default:
		return nil, fmt.Errorf("unknown mail sender %q", c.MailSender)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then releases the
// database pool and the rate limiter.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "addr", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.limiter.Stop()
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "close repositories", "error", err)
	}
	app.logger.Info(context.Background(), "app stopped")
}
