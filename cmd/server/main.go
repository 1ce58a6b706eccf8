package main

import (
	"os"

	"github.com/spf13/cobra"

	"civictrack/internal/config"
	"civictrack/internal/logger"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "civictrack",
	Short: "CivicTrack authentication and session server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger.Init(cfg.Env)
	},
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
