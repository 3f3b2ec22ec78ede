package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IBM07/HireWire/internal/config"
	"github.com/IBM07/HireWire/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an admin JWT for the admin endpoints",
	RunE:  runToken,
}

var (
	tokenSubject string
	tokenHours   int
)

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Token subject, e.g. the operator's name")
	tokenCmd.Flags().IntVar(&tokenHours, "hours", 0, "Token lifetime in hours (default from config)")
	_ = tokenCmd.MarkFlagRequired("subject")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AdminEnabled() {
		return fmt.Errorf("JWT secret is required (set JWT_SECRET or auth.jwt_secret)")
	}

	hours := cfg.Auth.TokenHours
	if tokenHours > 0 {
		hours = tokenHours
	}
	jwtCfg, err := config.NewJWTConfig(cfg.Auth.JWTSecret, hours)
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtCfg).GenerateAdminToken(tokenSubject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
