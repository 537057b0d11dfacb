package model

import "fmt"

type SMTPEncryption string

const (
	SMTPEncryptionSSL      SMTPEncryption = "SSL"
	SMTPEncryptionStartTLS SMTPEncryption = "StartTLS"
)

// DefaultSMTPEncryption is used when no encryption mode was chosen.
const DefaultSMTPEncryption = SMTPEncryptionStartTLS

// SMTPEncryptions lists the accepted modes in display order.
var SMTPEncryptions = []SMTPEncryption{SMTPEncryptionStartTLS, SMTPEncryptionSSL}

func ParseSMTPEncryption(s string) (SMTPEncryption, error) {
	switch SMTPEncryption(s) {
	case SMTPEncryptionSSL:
		return SMTPEncryptionSSL, nil
	case SMTPEncryptionStartTLS:
		return SMTPEncryptionStartTLS, nil
	case "":
		return DefaultSMTPEncryption, nil
	}
	return "", fmt.Errorf("unknown smtp encryption %q", s)
}

type SMTPSettings struct {
	Sender     string         `json:"sender"`
	Username   string         `json:"username"`
	Server     string         `json:"server"`
	Port       int            `json:"port"`
	Encryption SMTPEncryption `json:"encryption"`
	Password   string         `json:"-"`
}

// Complete reports whether the settings carry everything needed to send.
// Credentials are optional, a relay may accept unauthenticated mail.
func (s SMTPSettings) Complete() bool {
	return s.Sender != "" && s.Server != "" && s.Port > 0
}

// Addr returns host:port for logging.
func (s SMTPSettings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Server, s.Port)
}
