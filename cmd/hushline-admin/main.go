package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scidsg/hushline/internal/config"
	"github.com/scidsg/hushline/internal/crypto"
)

var rootCmd = &cobra.Command{
	Use:           "hushline-admin",
	Short:         "Administer a Hush Line deployment",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadDatabaseConfig loads config for commands that only need the database.
func loadDatabaseConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

// fieldCipher builds the column cipher from ENCRYPTION_KEY, the same way the
// server does.
func fieldCipher(cfg *config.Config) (*crypto.FieldCipher, error) {
	if cfg.EncryptionKey == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, err
	}
	return crypto.NewFieldCipher(key)
}
