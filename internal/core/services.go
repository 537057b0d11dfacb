package core

import (
	"time"

	"github.com/scidsg/hushline/internal/crypto"
	"github.com/scidsg/hushline/internal/mailer"
	"github.com/scidsg/hushline/internal/model"
)

type Services struct {
	User       *UserService
	Auth       *AuthService
	Settings   *EncryptionSettingsService
	Forwarding *ForwardingService
	Message    *MessageService
}

// Deps are the collaborators the services are built from.
type Deps struct {
	DB          DB
	Cipher      *crypto.FieldCipher
	Sender      mailer.Sender
	Keys        KeyLookup
	SecretKey   string
	SessionTTL  time.Duration
	DefaultSMTP model.SMTPSettings
}

func NewServices(d Deps) *Services {
	users := NewUserService(d.DB, d.Cipher)
	forwarding := NewForwardingService(d.Sender, d.DefaultSMTP)
	return &Services{
		User:       users,
		Auth:       NewAuthService(users, d.SecretKey, d.SessionTTL),
		Settings:   NewEncryptionSettingsService(users, d.Sender, d.Keys),
		Forwarding: forwarding,
		Message:    NewMessageService(d.DB, users, forwarding, d.Cipher),
	}
}
