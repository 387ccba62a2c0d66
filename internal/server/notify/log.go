package notify

import (
	"context"

	"github.com/acedema/acedema-back/internal/logging"
)

// LogTransport only records that a message would have been sent. The body is
// never logged since it may carry a temporary password or a reset token.
type LogTransport struct {
	logger logging.Logger
}

func NewLogTransport(l logging.Logger) *LogTransport {
	return &LogTransport{logger: l}
}

func (t *LogTransport) Deliver(ctx context.Context, m *Message) error {
	t.logger.Info(ctx, "mail queued", "id", m.ID, "to", m.To, "subject", m.Subject)
	return nil
}
