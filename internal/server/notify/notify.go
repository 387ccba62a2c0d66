// Package notify composes the outgoing emails of the credential lifecycle and
// hands them to a Transport for delivery.
package notify

import (
	"context"
	"fmt"

	"github.com/acedema/acedema-back/internal/common"
)

// Sender is what the authentication service needs from the mail layer.
type Sender interface {
	SendTemporaryCredential(ctx context.Context, fullName, email, plaintext string) error
	SendResetLink(ctx context.Context, email, link string) error
}

// Transport delivers a fully composed message.
type Transport interface {
	Deliver(ctx context.Context, m *Message) error
}

// Mailer renders messages with a Composer and delivers them through a
// Transport. Delivery failures are wrapped with common.ErrNotification.
type Mailer struct {
	composer  *Composer
	transport Transport
}

func NewMailer(from string, t Transport) *Mailer {
	return &Mailer{composer: NewComposer(from), transport: t}
}

func (m *Mailer) SendTemporaryCredential(ctx context.Context, fullName, email, plaintext string) error {
	msg, err := m.composer.TemporaryCredential(fullName, email, plaintext)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotification, err)
	}
	return m.deliver(ctx, msg)
}

func (m *Mailer) SendResetLink(ctx context.Context, email, link string) error {
	msg, err := m.composer.ResetLink(email, link)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotification, err)
	}
	return m.deliver(ctx, msg)
}

func (m *Mailer) deliver(ctx context.Context, msg *Message) error {
	if err := m.transport.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotification, err)
	}
	return nil
}
