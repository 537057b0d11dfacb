package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/scidsg/hushline/internal/mailer"
	"github.com/scidsg/hushline/internal/model"
	"github.com/scidsg/hushline/internal/pgp"
	"github.com/scidsg/hushline/internal/proton"
)

// MaxPGPKeyLength bounds the pasted key text.
const MaxPGPKeyLength = 100000

// KeyLookup finds a published public key by email address.
type KeyLookup interface {
	Lookup(ctx context.Context, email string) (string, error)
}

// ForwardingInput is the submitted email forwarding form.
type ForwardingInput struct {
	ForwardingEnabled bool   `form:"forwarding_enabled"`
	EmailAddress      string `form:"email_address" validate:"omitempty,max=255,email"`
	CustomSMTP        bool   `form:"custom_smtp_settings"`
	SMTPSender        string `form:"smtp_sender" validate:"omitempty,max=255,email"`
	SMTPUsername      string `form:"smtp_username" validate:"max=255"`
	SMTPServer        string `form:"smtp_server" validate:"omitempty,max=255,hostname_rfc1123|ip"`
	SMTPPort          string `form:"smtp_port"`
	SMTPEncryption    string `form:"smtp_encryption" validate:"omitempty,oneof=SSL StartTLS"`
	SMTPPassword      string `form:"smtp_password" validate:"max=255"`
}

// SettingsView is what the Email & Encryption page renders.
type SettingsView struct {
	User            *model.User
	HasPGPKey       bool
	PGPKey          string
	PGPFingerprint  string
	PGPEmail        string
	Forwarding      ForwardingInput
	HasSMTPPassword bool
}

type EncryptionSettingsService struct {
	users  *UserService
	sender mailer.Sender
	keys   KeyLookup
}

func NewEncryptionSettingsService(users *UserService, sender mailer.Sender, keys KeyLookup) *EncryptionSettingsService {
	return &EncryptionSettingsService{users: users, sender: sender, keys: keys}
}

// View loads the current settings. The stored SMTP password is never
// returned, only whether one exists.
func (s *EncryptionSettingsService) View(ctx context.Context, userID string) (*SettingsView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	fwd := user.EmailForwarding
	v := &SettingsView{
		User:      user,
		HasPGPKey: user.HasPGPKey(),
		PGPKey:    user.PGPKey,
		Forwarding: ForwardingInput{
			ForwardingEnabled: fwd.Enabled,
			EmailAddress:      fwd.EmailAddress,
			CustomSMTP:        fwd.CustomSMTP,
			SMTPSender:        fwd.SMTP.Sender,
			SMTPUsername:      fwd.SMTP.Username,
			SMTPServer:        fwd.SMTP.Server,
			SMTPEncryption:    string(fwd.SMTP.Encryption),
		},
		HasSMTPPassword: fwd.SMTP.Password != "",
	}
	if fwd.SMTP.Port > 0 {
		v.Forwarding.SMTPPort = strconv.Itoa(fwd.SMTP.Port)
	}

	if v.HasPGPKey {
		if key, err := pgp.ParsePublicKey(user.PGPKey); err == nil {
			v.PGPFingerprint = key.Fingerprint()
			v.PGPEmail = key.PrimaryEmail()
		}
	}
	return v, nil
}

// UpdatePGPKey validates and stores an armored public key. Blank input
// removes the key and disables forwarding.
func (s *EncryptionSettingsService) UpdatePGPKey(ctx context.Context, userID, armored string) error {
	armored = strings.TrimSpace(armored)
	if len(armored) > MaxPGPKeyLength {
		return FieldErrors{"pgp_key": {fmt.Sprintf("Field cannot be longer than %d characters.", MaxPGPKeyLength)}}
	}

	if armored == "" {
		if err := s.users.UpdatePGPKey(ctx, userID, ""); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Str("user_id", userID).Msg("pgp key removed, forwarding disabled")
		return nil
	}

	return s.storeKey(ctx, userID, armored)
}

// ImportProtonKey looks up the key published for a Proton Mail address and
// stores it.
func (s *EncryptionSettingsService) ImportProtonKey(ctx context.Context, userID, email string) error {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,max=255,email"); err != nil {
		msg := msgInvalidEmail
		if email == "" {
			msg = msgRequired
		}
		return FieldErrors{"proton_email": {msg}}
	}

	armored, err := s.keys.Lookup(ctx, email)
	if err != nil {
		if errors.Is(err, proton.ErrKeyNotFound) {
			return ErrProtonKeyNotFound
		}
		return fmt.Errorf("proton key lookup: %w", err)
	}

	return s.storeKey(ctx, userID, armored)
}

func (s *EncryptionSettingsService) storeKey(ctx context.Context, userID, armored string) error {
	key, err := pgp.ParsePublicKey(armored)
	if err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("user_id", userID).Msg("rejected pgp key")
		return fmt.Errorf("%w: %v", ErrInvalidPGPKey, err)
	}

	if err := s.users.UpdatePGPKey(ctx, userID, key.Armored()); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", userID).Str("fingerprint", key.Fingerprint()).Msg("pgp key updated")
	return nil
}

// UpdateEmailForwarding validates and stores the forwarding form. Custom SMTP
// settings are verified against the server before anything is saved.
func (s *EncryptionSettingsService) UpdateEmailForwarding(ctx context.Context, userID string, in ForwardingInput) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	fwd := user.EmailForwarding
	if !in.ForwardingEnabled {
		fwd.Enabled = false
		return s.users.UpdateEmailForwarding(ctx, userID, fwd)
	}

	if !user.HasPGPKey() {
		return ErrPGPKeyRequired
	}

	in = trimInput(in)
	errs := validateStruct(in)
	if in.EmailAddress == "" {
		errs.Add("email_address", msgRequired)
	}

	smtp := fwd.SMTP
	if in.CustomSMTP {
		smtp = s.customSMTP(in, fwd.SMTP, errs)
	}
	if len(errs) > 0 {
		return errs
	}

	if in.CustomSMTP {
		if err := s.sender.Verify(ctx, smtp); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("user_id", userID).Str("smtp_server", smtp.Addr()).Msg("smtp verification failed")
			return fmt.Errorf("%w: %v", ErrSMTPVerification, err)
		}
	}

	fwd = model.EmailForwarding{
		Enabled:      true,
		EmailAddress: in.EmailAddress,
		CustomSMTP:   in.CustomSMTP,
		SMTP:         smtp,
	}
	if err := s.users.UpdateEmailForwarding(ctx, userID, fwd); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", userID).Bool("custom_smtp", fwd.CustomSMTP).Msg("email forwarding updated")
	return nil
}

// customSMTP checks the custom SMTP group and builds the settings from it. A
// blank password keeps the stored one.
func (s *EncryptionSettingsService) customSMTP(in ForwardingInput, current model.SMTPSettings, errs FieldErrors) model.SMTPSettings {
	required := map[string]string{
		"smtp_sender":     in.SMTPSender,
		"smtp_username":   in.SMTPUsername,
		"smtp_server":     in.SMTPServer,
		"smtp_port":       in.SMTPPort,
		"smtp_encryption": in.SMTPEncryption,
	}
	for _, field := range []string{"smtp_sender", "smtp_username", "smtp_server", "smtp_port", "smtp_encryption"} {
		if required[field] == "" && len(errs.Get(field)) == 0 {
			errs.Add(field, msgRequired)
		}
	}

	var port int
	if in.SMTPPort != "" {
		p, err := strconv.Atoi(in.SMTPPort)
		if err != nil || p < 1 || p > 65535 {
			errs.Add("smtp_port", msgInvalidPort)
		}
		port = p
	}

	// Blank and unknown values were reported above.
	encryption, err := model.ParseSMTPEncryption(in.SMTPEncryption)
	if err != nil {
		encryption = model.DefaultSMTPEncryption
	}

	password := in.SMTPPassword
	if password == "" {
		password = current.Password
	}
	if password == "" {
		errs.Add("smtp_password", msgRequired)
	}

	return model.SMTPSettings{
		Sender:     in.SMTPSender,
		Username:   in.SMTPUsername,
		Server:     in.SMTPServer,
		Port:       port,
		Encryption: encryption,
		Password:   password,
	}
}

func trimInput(in ForwardingInput) ForwardingInput {
	in.EmailAddress = strings.TrimSpace(in.EmailAddress)
	in.SMTPSender = strings.TrimSpace(in.SMTPSender)
	in.SMTPUsername = strings.TrimSpace(in.SMTPUsername)
	in.SMTPServer = strings.TrimSpace(in.SMTPServer)
	in.SMTPPort = strings.TrimSpace(in.SMTPPort)
	return in
}
