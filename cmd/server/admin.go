package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"civictrack/internal/auth/credentials"
	"civictrack/internal/logger"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create or promote an ADMIN account",
	Long: `Creates an ADMIN account with the given password. An existing account
with the same email is promoted to ADMIN and its password replaced.

Defaults come from ADMIN_EMAIL and ADMIN_PASSWORD.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email := firstNonEmpty(adminEmail, cfg.AdminEmail)
		password := firstNonEmpty(adminPassword, cfg.AdminPassword)
		if email == "" || password == "" {
			return errors.New("--email and --password are required")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		database, err := openMigrated(ctx)
		if err != nil {
			return err
		}
		defer database.Close()

		id, err := credentials.NewService(database).EnsureAdmin(ctx, email, password, adminName)
		if err != nil {
			return err
		}

		logger.Info("admin account ready", map[string]any{"user_id": id, "email": email})
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email address")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password (min 8 characters)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "", "Display name, e.g. \"Jane Doe\"")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
