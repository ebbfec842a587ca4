package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/slotcarhq/auctionhouse/backend/handlers"
	"github.com/slotcarhq/auctionhouse/internal/auth"
	"github.com/slotcarhq/auctionhouse/internal/config"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/repositories"
	"github.com/slotcarhq/auctionhouse/internal/gateways/events"
	"github.com/slotcarhq/auctionhouse/internal/gateways/media"
	"github.com/slotcarhq/auctionhouse/internal/gateways/memory"
	"github.com/slotcarhq/auctionhouse/internal/gateways/payments/payfast"
	"github.com/slotcarhq/auctionhouse/internal/gateways/payments/stripe"
	"github.com/slotcarhq/auctionhouse/internal/logger"
)

type stores struct {
	auctions      auctions.Repository
	categories    auctions.CategoryRepository
	watchlist     auctions.WatchlistRepository
	bidders       bidders.Repository
	notifications notifications.Repository
	payments      settlement.PaymentRepository
	pinger        handlers.Pinger
}

// services is everything the serve and sweep commands share. close releases
// connections in reverse order of creation.
type services struct {
	web     *handlers.WebApp
	sweeper *auctions.Sweeper
	closers []func()
}

func (s *services) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.DB.Driver == "memory" {
		store := memory.New()
		slog.Warn("Using in-memory storage, data is lost on exit",
			slog.String("type", "db"))
		return &stores{
			auctions:      store,
			categories:    store,
			watchlist:     store,
			bidders:       store,
			notifications: store,
			payments:      store,
			pinger:        store,
		}, func() {}, nil
	}

	db, err := database.New(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	bunDB := db.BunDB()
	return &stores{
		auctions:      repositories.NewAuctionRepository(bunDB),
		categories:    repositories.NewCategoryRepository(bunDB),
		watchlist:     repositories.NewWatchlistRepository(bunDB),
		bidders:       repositories.NewBidderRepository(bunDB),
		notifications: repositories.NewNotificationRepository(bunDB),
		payments:      repositories.NewPaymentRepository(bunDB),
		pinger:        db,
	}, db.Close, nil
}

// openPublisher connects every configured push transport. An unreachable
// transport is logged and skipped so bidding keeps working without it.
func openPublisher(ctx context.Context, cfg *config.Config) (auctions.Publisher, []func()) {
	var (
		publishers []auctions.Publisher
		closers    []func()
	)
	if cfg.Redis.Addr != "" {
		p, err := events.NewRedisPublisher(ctx, cfg.Redis)
		if err != nil {
			logger.LogError("Redis publisher disabled", err)
		} else {
			publishers = append(publishers, p)
			closers = append(closers, func() { _ = p.Close() })
		}
	}
	if cfg.RabbitMQ.URL != "" {
		p, err := events.NewRabbitPublisher(cfg.RabbitMQ)
		if err != nil {
			logger.LogError("RabbitMQ publisher disabled", err)
		} else {
			publishers = append(publishers, p)
			closers = append(closers, func() { _ = p.Close() })
		}
	}
	return events.Combine(publishers...), closers
}

func buildServices(ctx context.Context, cfg *config.Config) (*services, error) {
	svc := &services{}

	st, closeStores, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, closeStores)

	publisher, closers := openPublisher(ctx, cfg)
	svc.closers = append(svc.closers, closers...)

	auctionOpts := cfg.AuctionOptions()
	manager := auctions.NewManager(st.auctions, st.categories, st.watchlist, publisher, auctionOpts)
	svc.sweeper = auctions.NewSweeper(st.auctions, publisher, auctionOpts)

	var gateways settlement.Gateways
	if cfg.Stripe.Enabled() {
		gateways.Stripe = stripe.New(cfg.StripeGateway())
	}
	if cfg.PayFast.Enabled() {
		gateways.PayFast = payfast.New(cfg.PayFastGateway())
	}
	coordinator := settlement.NewCoordinator(st.auctions, st.payments, gateways, publisher, cfg.SettlementOptions())

	bidderService, err := bidders.NewService(st.bidders, cfg.Auction.BidderCacheSize)
	if err != nil {
		svc.close()
		return nil, err
	}

	var images handlers.ImageStore
	if cfg.Spaces.Enabled() {
		spaces, err := media.NewSpaces(ctx, cfg.Spaces)
		if err != nil {
			svc.close()
			return nil, fmt.Errorf("failed to configure image storage: %w", err)
		}
		images = spaces
	}

	svc.web = &handlers.WebApp{
		Auctions:      manager,
		Sweeper:       svc.sweeper,
		Settlement:    coordinator,
		Notifications: notifications.NewService(st.notifications),
		Bidders:       bidderService,
		Tokens:        auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.BidderTTL.Duration),
		Sessions:      auth.NewSessions(cfg.Auth.SessionKey),
		Images:        images,
		DB:            st.pinger,
		CronSecret:    cfg.Auth.CronSecret,
		Version:       version,
	}
	return svc, nil
}
