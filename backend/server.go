// Package backend assembles the Fiber application serving the auction API.
package backend

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/slotcarhq/auctionhouse/backend/handlers"
	"github.com/slotcarhq/auctionhouse/backend/middleware"
)

const (
	defaultBidsPerMinute = 30
	bodyLimit            = 32 << 20
)

type Options struct {
	AllowedOrigins []string
	// BidsPerMinute caps bid submissions per bidder.
	BidsPerMinute int
}

// NewApp builds the HTTP application. ctx bounds background housekeeping
// such as rate limiter cleanup.
func NewApp(ctx context.Context, webApp *handlers.WebApp, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "auctionhouse",
		ErrorHandler: middleware.CustomErrorHandler,
		BodyLimit:    bodyLimit,
	})

	app.Use(recover.New())
	app.Use(middleware.SecurityHeaders())
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	if len(opts.AllowedOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     strings.Join(opts.AllowedOrigins, ","),
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept,Authorization,Stripe-Signature",
			AllowCredentials: true,
		}))
	}
	app.Use(middleware.LoggingMiddleware())

	bidsPerMinute := opts.BidsPerMinute
	if bidsPerMinute <= 0 {
		bidsPerMinute = defaultBidsPerMinute
	}
	limiter := middleware.NewRateLimiter(bidsPerMinute, time.Minute)
	go limiter.Cleanup(ctx)

	setupRoutes(app, webApp, limiter)
	return app
}

func setupRoutes(app *fiber.App, webApp *handlers.WebApp, limiter *middleware.RateLimiter) {
	app.Get("/health", handlers.HealthCheck(webApp))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	bidder := middleware.BidderRequired(webApp)
	optional := middleware.OptionalBidder(webApp)

	// static segments are registered ahead of /:idOrSlug
	auctions := app.Group("/auctions")
	auctions.Get("/", handlers.ListAuctions(webApp))
	auctions.Get("/categories", handlers.ListCategories(webApp))
	auctions.Get("/my-bids", bidder, handlers.MyBids(webApp))
	auctions.Get("/watchlist", bidder, handlers.Watchlist(webApp))
	auctions.Get("/notifications", bidder, handlers.ListNotifications(webApp))
	auctions.Put("/notifications", bidder, handlers.MarkNotificationsRead(webApp))
	auctions.Post("/payment", bidder, handlers.CreatePayment(webApp))
	auctions.Post("/payment/webhook", handlers.StripeWebhook(webApp))
	auctions.Post("/payment/notify", handlers.PayFastNotify(webApp))
	auctions.Post("/cron", middleware.CronRequired(webApp.CronSecret), handlers.RunSweep(webApp))

	auctions.Get("/:id/bids", optional, handlers.ListBids(webApp))
	auctions.Post("/:id/bids", bidder, middleware.BidRateLimit(limiter), handlers.PlaceBid(webApp))
	auctions.Post("/:id/watch", bidder, handlers.Watch(webApp))
	auctions.Get("/:idOrSlug", optional, handlers.GetAuction(webApp))

	admin := app.Group("/admin", middleware.AdminRequired(webApp))
	admin.Get("/auctions", handlers.AdminListAuctions(webApp))
	admin.Post("/auctions", middleware.AuditLogMiddleware("auction.create"), handlers.AdminCreateAuction(webApp))
	admin.Get("/auctions/:id", handlers.AdminGetAuction(webApp))
	admin.Put("/auctions/:id", middleware.AuditLogMiddleware("auction.update"), handlers.AdminUpdateAuction(webApp))
	admin.Delete("/auctions/:id", middleware.AuditLogMiddleware("auction.delete"), handlers.AdminDeleteAuction(webApp))
	admin.Post("/auctions/:id/publish", middleware.AuditLogMiddleware("auction.publish"), handlers.AdminPublishAuction(webApp))
	admin.Post("/auctions/:id/unpublish", middleware.AuditLogMiddleware("auction.unpublish"), handlers.AdminUnpublishAuction(webApp))
	admin.Post("/auctions/:id/cancel", middleware.AuditLogMiddleware("auction.cancel"), handlers.AdminCancelAuction(webApp))
	admin.Post("/auctions/:id/feature", middleware.AuditLogMiddleware("auction.feature"), handlers.AdminFeatureAuction(webApp))
	admin.Post("/auctions/:id/images", middleware.AuditLogMiddleware("auction.images"), handlers.AdminUploadImages(webApp))

	admin.Get("/categories", handlers.AdminListCategories(webApp))
	admin.Post("/categories", middleware.AuditLogMiddleware("category.create"), handlers.AdminCreateCategory(webApp))
	admin.Put("/categories/:id", middleware.AuditLogMiddleware("category.update"), handlers.AdminUpdateCategory(webApp))
	admin.Delete("/categories/:id", middleware.AuditLogMiddleware("category.delete"), handlers.AdminDeleteCategory(webApp))

	admin.Get("/stats", handlers.AdminStats(webApp))
	admin.Post("/bidders/:id/ban", middleware.AuditLogMiddleware("bidder.ban"), handlers.AdminBanBidder(webApp))
	admin.Delete("/bidders/:id/ban", middleware.AuditLogMiddleware("bidder.unban"), handlers.AdminUnbanBidder(webApp))
	admin.Get("/payments/callbacks", handlers.AdminPaymentCallbacks(webApp))
}
