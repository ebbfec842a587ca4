package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	webmodels "github.com/slotcarhq/auctionhouse/backend/models"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/auth"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
)

const healthTimeout = 3 * time.Second

// ImageStore uploads auction photos and returns their public URL.
type ImageStore interface {
	UploadImage(ctx context.Context, auctionID int64, data []byte) (string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// WebApp holds every dependency the HTTP handlers need.
type WebApp struct {
	Auctions      *auctions.Manager
	Sweeper       *auctions.Sweeper
	Settlement    *settlement.Coordinator
	Notifications *notifications.Service
	Bidders       *bidders.Service
	Tokens        *auth.Tokens
	Sessions      *auth.Sessions
	// Images is nil when object storage is not configured.
	Images     ImageStore
	DB         Pinger
	CronSecret string
	Version    string
}

func HealthCheck(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), healthTimeout)
		defer cancel()

		if err := w.DB.Ping(ctx); err != nil {
			return utils.SendJSON(c, fiber.StatusServiceUnavailable, webmodels.HealthResponse{
				Status:  "unhealthy",
				Version: w.Version,
				Error:   err.Error(),
			})
		}
		return c.JSON(webmodels.HealthResponse{Status: "healthy", Version: w.Version})
	}
}
