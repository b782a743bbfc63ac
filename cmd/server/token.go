package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neurondb/NeuronFlow/internal/auth"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue credentials for the API",
}

var tokenJWTCmd = &cobra.Command{
	Use:   "jwt",
	Short: "Sign a JWT with the configured secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		m, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		token, err := m.GenerateToken(tokenSubject)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var tokenAPIKeyCmd = &cobra.Command{
	Use:   "api-key",
	Short: "Generate an API key and the bcrypt hash to add to auth.api_key_hashes",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, hash, err := auth.GenerateAPIKey()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "key:  %s\n", key)
		fmt.Fprintf(out, "hash: %s\n", hash)
		return nil
	},
}

func init() {
	tokenJWTCmd.Flags().StringVar(&tokenSubject, "subject", "operator", "Token subject")
	tokenCmd.AddCommand(tokenJWTCmd)
	tokenCmd.AddCommand(tokenAPIKeyCmd)
}
