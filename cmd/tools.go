package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"biliticket/connhub/internal/config"
	"biliticket/connhub/pkg/crypto"
	jwtpkg "biliticket/connhub/pkg/jwt"
)

var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Mint an access token for a user (development)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		m, err := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)
		if err != nil {
			return err
		}
		tok, err := m.GenerateAccessToken(args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

var saltCmd = &cobra.Command{
	Use:   "salt",
	Short: "Print a random salt for encryption.salt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		salt, err := crypto.GenerateSalt()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), salt)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd, saltCmd)
}
