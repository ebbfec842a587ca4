package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/slotcarhq/auctionhouse/backend"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/logger"
	"github.com/slotcarhq/auctionhouse/internal/obs"
	"github.com/spf13/cobra"
)

var noScheduler bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the lifecycle scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		ctx, stop := context.WithCancel(cmd.Context())
		defer stop()

		startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		shutdownTracer, err := obs.InitTracer(startCtx, cfg.Tracing, version)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}

		svc, err := buildServices(startCtx, cfg)
		if err != nil {
			return err
		}
		defer svc.close()

		var scheduler *auctions.Scheduler
		if !noScheduler {
			scheduler = auctions.NewScheduler(svc.sweeper, cfg.Auction.SweepInterval.Duration)
			scheduler.Start()
		}

		app := backend.NewApp(ctx, svc.web, backend.Options{
			AllowedOrigins: cfg.Web.AllowedOrigins,
			BidsPerMinute:  cfg.Web.BidsPerMinute,
		})

		address := cfg.Web.Addr()
		logger.LogSystem("Starting auction server",
			slog.String("address", address),
			slog.String("version", version),
			slog.String("db_driver", cfg.DB.Driver))

		s := make(chan os.Signal, 1)
		signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)

		listenErr := make(chan error, 1)
		go func() {
			listenErr <- app.Listen(address)
		}()

		select {
		case <-s:
		case err := <-listenErr:
			if err != nil {
				logger.LogError("Failed to start server", err)
			}
		}
		logger.LogSystem("Shutting down auction server...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.LogError("Server shutdown error", err)
		}
		if scheduler != nil {
			scheduler.Shutdown()
		}
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.LogError("Tracer shutdown error", err)
		}

		logger.LogSystem("Auction server shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve the API without running lifecycle sweeps (use the cron endpoint instead)")
	rootCmd.AddCommand(serveCmd)
}
