package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scidsg/hushline/internal/model"
)

type Config struct {
	DatabaseURL       string
	SecretKey         string
	EncryptionKey     string
	HTTPListenAddr    string
	MetricsListenAddr string
	LogLevel          string
	ServiceName       string
	TLSCertFile       string
	TLSKeyFile        string
	CookieSecure      bool
	SessionTTL        time.Duration
	RunMigrations     bool

	ProtonKeyServerURL string

	NotificationsAddress string
	SMTPServer           string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	SMTPEncryption       model.SMTPEncryption
}

// Load reads configuration from the environment. When CONFIG_FILE names a
// YAML file of KEY: value pairs, those values act as defaults that the
// environment overrides.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	get := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := file[key]; ok && v != "" {
			return v
		}
		return fallback
	}

	ttl, err := time.ParseDuration(get("SESSION_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	smtpPort, err := strconv.Atoi(get("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("parse SMTP_PORT: %w", err)
	}
	smtpEncryption, err := model.ParseSMTPEncryption(get("SMTP_ENCRYPTION", ""))
	if err != nil {
		return nil, fmt.Errorf("parse SMTP_ENCRYPTION: %w", err)
	}

	cfg := &Config{
		DatabaseURL:       get("DATABASE_URL", ""),
		SecretKey:         get("SECRET_KEY", ""),
		EncryptionKey:     get("ENCRYPTION_KEY", ""),
		HTTPListenAddr:    get("HTTP_LISTEN_ADDR", ":8080"),
		MetricsListenAddr: get("METRICS_LISTEN_ADDR", ""),
		LogLevel:          get("LOG_LEVEL", "info"),
		ServiceName:       get("SERVICE_NAME", "hushline"),
		TLSCertFile:       get("TLS_CERT_FILE", ""),
		TLSKeyFile:        get("TLS_KEY_FILE", ""),
		CookieSecure:      get("SESSION_COOKIE_SECURE", "true") == "true",
		SessionTTL:        ttl,
		RunMigrations:     get("RUN_MIGRATIONS", "") == "true",

		ProtonKeyServerURL: strings.TrimRight(get("PROTON_KEY_SERVER_URL", "https://mail-api.proton.me"), "/"),

		NotificationsAddress: get("NOTIFICATIONS_ADDRESS", ""),
		SMTPServer:           get("SMTP_SERVER", ""),
		SMTPPort:             smtpPort,
		SMTPUsername:         get("SMTP_USERNAME", ""),
		SMTPPassword:         get("SMTP_PASSWORD", ""),
		SMTPEncryption:       smtpEncryption,
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.EncryptionKey == "" {
		missing = append(missing, "ENCRYPTION_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	if len(c.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 bytes")
	}
	if _, err := c.EncryptionKeyBytes(); err != nil {
		return err
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// EncryptionKeyBytes decodes ENCRYPTION_KEY, which must hold 32 bytes.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// DefaultSMTP returns the service-wide relay used when a user has not
// configured their own SMTP server.
func (c *Config) DefaultSMTP() model.SMTPSettings {
	return model.SMTPSettings{
		Sender:     c.NotificationsAddress,
		Username:   c.SMTPUsername,
		Server:     c.SMTPServer,
		Port:       c.SMTPPort,
		Encryption: c.SMTPEncryption,
		Password:   c.SMTPPassword,
	}
}

func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return values, nil
}
