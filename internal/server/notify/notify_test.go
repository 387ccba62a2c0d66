package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/acedema/acedema-back/internal/common"
	"github.com/acedema/acedema-back/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	sent []*Message
	err  error
}

func (r *recordingTransport) Deliver(_ context.Context, m *Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func TestComposer_TemporaryCredential(t *testing.T) {
	c := NewComposer("no-reply@acedema.com")

	m, err := c.TemporaryCredential("Ana <b>Pérez</b>", "ana@x.com", "Ab3$xYz9!qW2")
	require.NoError(t, err)

	assert.Equal(t, "ana@x.com", m.To)
	assert.Equal(t, "no-reply@acedema.com", m.From)
	assert.Equal(t, SubjectTemporaryCredential, m.Subject)
	assert.Contains(t, m.HTML, "ana@x.com")
	assert.Contains(t, m.HTML, "Ab3$xYz9!qW2")
	assert.Contains(t, m.HTML, "Ana &lt;b&gt;Pérez&lt;/b&gt;")
	assert.NotEmpty(t, m.ID)
}

func TestComposer_ResetLink(t *testing.T) {
	c := NewComposer("no-reply@acedema.com")
	link := "https://acedema.com/restablecer?token=aaa.bbb.ccc"

	m, err := c.ResetLink("ana@x.com", link)
	require.NoError(t, err)

	assert.Equal(t, SubjectResetLink, m.Subject)
	assert.Contains(t, m.HTML, `href="`+link+`"`)
}

func TestMessage_Bytes(t *testing.T) {
	m := newMessage("from@acedema.com", "to@x.com", SubjectResetLink, "<p>hola</p>")
	raw := string(m.Bytes())

	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "<p>hola</p>", body)
	assert.Contains(t, head, "From: from@acedema.com\r\n")
	assert.Contains(t, head, "To: to@x.com\r\n")
	assert.Contains(t, head, "Content-Type: text/html; charset=UTF-8")
	// non-ASCII subject is Q-encoded
	assert.Contains(t, head, "Subject: =?utf-8?q?")
	assert.NotContains(t, head, "Recuperación")
}

func TestMailer_Delivers(t *testing.T) {
	tr := &recordingTransport{}
	m := NewMailer("no-reply@acedema.com", tr)
	ctx := context.Background()

	require.NoError(t, m.SendTemporaryCredential(ctx, "Ana", "ana@x.com", "secret123456"))
	require.NoError(t, m.SendResetLink(ctx, "ana@x.com", "https://h/restablecer?token=t"))

	require.Len(t, tr.sent, 2)
	assert.Equal(t, SubjectTemporaryCredential, tr.sent[0].Subject)
	assert.Equal(t, SubjectResetLink, tr.sent[1].Subject)
}

func TestMailer_TransportFailureIsNotificationError(t *testing.T) {
	tr := &recordingTransport{err: errors.New("smtp down")}
	m := NewMailer("no-reply@acedema.com", tr)

	err := m.SendResetLink(context.Background(), "ana@x.com", "https://h/restablecer?token=t")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotification)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestLogTransport_DoesNotLogBody(t *testing.T) {
	var buf bytes.Buffer
	l := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	tr := NewLogTransport(l)

	msg, err := NewComposer("f@x.com").TemporaryCredential("Ana", "ana@x.com", "TopSecret123")
	require.NoError(t, err)
	require.NoError(t, tr.Deliver(context.Background(), msg))

	out := buf.String()
	assert.Contains(t, out, "mail queued")
	assert.Contains(t, out, "ana@x.com")
	assert.NotContains(t, out, "TopSecret123")
}
