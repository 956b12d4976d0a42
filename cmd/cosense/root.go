package main

import (
	"fmt"
	"os"

	"go-cosense/internal/config"
	"go-cosense/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	log logger.Logger

	hostFlag     string
	sidFlag      string
	logLevelFlag string
	attemptsFlag int
)

var rootCmd = &cobra.Command{
	Use:          "cosense",
	Short:        "Read and edit Cosense pages from the command line",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if hostFlag != "" {
			loaded.Server.Host = hostFlag
		}
		if sidFlag != "" {
			loaded.Session.SID = sidFlag
		}
		if logLevelFlag != "" {
			loaded.Log.Level = logLevelFlag
		}
		if cmd.Flags().Changed("max-attempts") {
			loaded.Push.MaxAttempts = attemptsFlag
		}
		cfg = loaded
		log = logger.New(cfg.Log, os.Stderr)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Cosense host URL (overrides server.host)")
	rootCmd.PersistentFlags().StringVar(&sidFlag, "sid", "", "connect.sid session cookie (overrides session.sid)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().IntVar(&attemptsFlag, "max-attempts", 0, "Commit attempts before giving up, 0 for no limit")
}
