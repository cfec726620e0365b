// Package cmd defines and implements the CLI commands for the harvester
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/filmbuzz/harvester/internal/config"
	"github.com/filmbuzz/harvester/internal/logging"
	"github.com/filmbuzz/harvester/internal/metrics"
)

var cfgFile string

// newRootCmd creates and configures the root command. Configuration and the
// logger are built in PersistentPreRunE so every subcommand sees the same
// initialized state.
func newRootCmd() *cobra.Command {
	var cfg config.Config

	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Multi-source comment harvester for film buzz analysis.",
		Long: `harvester pulls public discussion data about film titles from four
sources (YouTube, Reddit, the Nitter mirror network, and Letterboxd) and
normalizes everything into one dated JSON artifact per run, ready for the
downstream sentiment pipeline.`,

		SilenceUsage: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = loaded

			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			if cfg.Metrics.ListenAddr != "" {
				metrics.Serve(cfg.Metrics.ListenAddr, logger.Named("metrics"))
			}
			return nil
		},

		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zap.L().Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is harvester.yaml next to the binary)")

	cmd.AddCommand(
		newYouTubeCmd(&cfg),
		newRedditCmd(&cfg),
		newNitterCmd(&cfg),
		newLetterboxdCmd(&cfg),
	)
	return cmd
}

// Execute is the main entry point.
func Execute() {
	// API keys commonly live in a .env next to the binary; absence is fine.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "harvester: %v\n", err)
		os.Exit(1)
	}
}
