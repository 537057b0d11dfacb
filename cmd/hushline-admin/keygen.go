package main

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scidsg/hushline/internal/crypto"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a field encryption key",
	Long: `Generate a Base64-encoded 256 bit key for ENCRYPTION_KEY.

The key encrypts PGP keys, forwarding addresses, SMTP settings and messages
at rest. Losing it makes that data unreadable.

Example:
  export ENCRYPTION_KEY="$(hushline-admin keygen)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(key))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}
