package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/slotcarhq/auctionhouse/internal/gateways/database"
	"github.com/slotcarhq/auctionhouse/internal/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the auction tables and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DB.Driver == "memory" {
			return fmt.Errorf("migrate needs a postgres database, driver is %q", cfg.DB.Driver)
		}

		ctx := cmd.Context()
		start := time.Now()

		db, err := database.New(ctx, cfg.DB)
		if err != nil {
			logger.LogError("Failed to connect to database", err)
			return err
		}
		defer db.Close()

		if err := db.InitializeSchema(ctx); err != nil {
			logger.LogError("Migration failed", err)
			return err
		}

		logger.LogSystem("Migration completed",
			slog.String("database", cfg.DB.Database),
			logger.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
