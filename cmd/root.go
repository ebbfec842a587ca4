package cmd

import (
	"fmt"
	"os"

	"github.com/slotcarhq/auctionhouse/internal/config"
	"github.com/slotcarhq/auctionhouse/internal/logger"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"

	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "auctionhouse",
	Short:         "Live auction bidding and settlement for slot-car stock",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger.Setup(cfg.Log.Level, cfg.Log.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the TOML config file")
	rootCmd.Version = fmt.Sprintf("%s (%s)", version, commit)
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
