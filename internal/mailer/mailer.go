// Package mailer delivers forwarded messages over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/scidsg/hushline/internal/model"
)

const dialTimeout = 15 * time.Second

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender sends mail through a given SMTP relay.
type Sender interface {
	Send(ctx context.Context, settings model.SMTPSettings, msg Message) error
	// Verify connects and authenticates without sending anything.
	Verify(ctx context.Context, settings model.SMTPSettings) error
}

// SMTPSender is the go-mail backed Sender.
type SMTPSender struct{}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

func (s *SMTPSender) Send(ctx context.Context, settings model.SMTPSettings, msg Message) error {
	m, err := newMsg(settings, msg)
	if err != nil {
		return err
	}
	client, err := newClient(settings)
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send via %s: %w", settings.Addr(), err)
	}
	return nil
}

func (s *SMTPSender) Verify(ctx context.Context, settings model.SMTPSettings) error {
	client, err := newClient(settings)
	if err != nil {
		return err
	}
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", settings.Addr(), err)
	}
	if err := client.Close(); err != nil {
		return fmt.Errorf("close connection to %s: %w", settings.Addr(), err)
	}
	return nil
}

func newClient(settings model.SMTPSettings) (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(settings.Port),
		mail.WithTimeout(dialTimeout),
	}

	switch settings.Encryption {
	case model.SMTPEncryptionSSL:
		opts = append(opts, mail.WithSSL())
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}

	if settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
		)
	}

	client, err := mail.NewClient(settings.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

func newMsg(settings model.SMTPSettings, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(settings.Sender); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", settings.Sender, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
