package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/scidsg/hushline/internal/core"
	"github.com/scidsg/hushline/internal/crypto"
	"github.com/scidsg/hushline/internal/db"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var (
	createUsername    string
	createPassword    string
	createDisplayName string
)

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long: `Create a user with a primary username and password.

Example:
  hushline-admin user create --username newsroom --password 'correct horse battery staple'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(createPassword) < 18 {
			return fmt.Errorf("password must be at least 18 characters")
		}
		if len(createUsername) < 4 || len(createUsername) > 25 {
			return fmt.Errorf("username must be between 4 and 25 characters")
		}

		cfg, err := loadDatabaseConfig()
		if err != nil {
			return err
		}
		cipher, err := fieldCipher(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		hash, err := crypto.HashPassword(createPassword)
		if err != nil {
			return err
		}

		users := core.NewUserService(pool, cipher)
		user, err := users.Create(ctx, createUsername, hash)
		if err != nil {
			return err
		}
		if createDisplayName != "" {
			if err := users.UpdateDisplayName(ctx, user.ID, createDisplayName); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User created.\n\n")
		fmt.Fprintf(out, "  Username: %s\n", user.PrimaryUsername)
		fmt.Fprintf(out, "  ID:       %s\n", user.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&createUsername, "username", "", "Primary username (required)")
	userCreateCmd.Flags().StringVar(&createPassword, "password", "", "Password, at least 18 characters (required)")
	userCreateCmd.Flags().StringVar(&createDisplayName, "display-name", "", "Display name shown to people sending messages")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
