package core

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/scidsg/hushline/internal/mailer"
	"github.com/scidsg/hushline/internal/model"
	"github.com/scidsg/hushline/internal/pgp"
)

// ForwardSubject is the subject line of every forwarded message.
const ForwardSubject = "New Hush Line Message Received"

var forwardedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hushline_forwarded_messages_total",
		Help: "Total number of messages relayed to users' email by result",
	},
	[]string{"result"},
)

// ForwardingService relays received messages to the user's email address.
type ForwardingService struct {
	sender      mailer.Sender
	defaultSMTP model.SMTPSettings
}

func NewForwardingService(sender mailer.Sender, defaultSMTP model.SMTPSettings) *ForwardingService {
	return &ForwardingService{sender: sender, defaultSMTP: defaultSMTP}
}

// Forward sends body to the user's forwarding address, PGP-encrypted. It
// reports false without error when forwarding does not apply to the user.
func (s *ForwardingService) Forward(ctx context.Context, user *model.User, body string) (bool, error) {
	fwd := user.EmailForwarding
	if !fwd.Enabled || fwd.EmailAddress == "" || !user.HasPGPKey() {
		forwardedTotal.WithLabelValues("skipped").Inc()
		return false, nil
	}

	settings := s.defaultSMTP
	if fwd.CustomSMTP {
		settings = fwd.SMTP
	}
	if !settings.Complete() {
		forwardedTotal.WithLabelValues("failed").Inc()
		return false, ErrNoSMTPConfigured
	}

	encrypted, err := pgp.Encrypt(body, user.PGPKey)
	if err != nil {
		forwardedTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	logger := zerolog.Ctx(ctx).With().Str("user_id", user.ID).Str("smtp_server", settings.Addr()).Bool("custom_smtp", fwd.CustomSMTP).Logger()
	logger.Debug().Msg("forwarding message")

	err = s.sender.Send(ctx, settings, mailer.Message{
		To:      fwd.EmailAddress,
		Subject: ForwardSubject,
		Body:    encrypted,
	})
	if err != nil {
		forwardedTotal.WithLabelValues("failed").Inc()
		return false, fmt.Errorf("forward message: %w", err)
	}

	forwardedTotal.WithLabelValues("sent").Inc()
	logger.Info().Msg("message forwarded")
	return true, nil
}
