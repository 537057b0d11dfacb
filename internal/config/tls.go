package config

import (
	"crypto/tls"
	"fmt"
)

// ServerTLS builds a *tls.Config for the HTTP listener.
// Returns nil, nil if no cert/key is configured (plaintext mode, e.g. behind a proxy).
func (c *Config) ServerTLS() (*tls.Config, error) {
	if c.TLSCertFile == "" && c.TLSKeyFile == "" {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load server cert: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
