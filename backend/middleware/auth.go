package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/slotcarhq/auctionhouse/backend/handlers"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/auth"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const adminLocal = "admin"

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// resolveBidder reads the bidder token from the session cookie or the
// Authorization header and loads the matching profile.
func resolveBidder(webApp *handlers.WebApp, c *fiber.Ctx) (*models.Bidder, error) {
	token := c.Cookies(auth.BidderCookieName)
	if token == "" {
		token = bearerToken(c)
	}
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	identity, err := webApp.Tokens.ParseBidder(token)
	if err != nil {
		return nil, err
	}
	return webApp.Bidders.EnsureProfile(c.Context(), identity)
}

// BidderRequired rejects requests without a valid bidder token.
func BidderRequired(webApp *handlers.WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, err := resolveBidder(webApp, c)
		if err != nil {
			slog.Debug("Bidder auth failed",
				slog.String("type", "http"),
				slog.String("path", c.Path()),
				slog.String("error", err.Error()))
			return utils.SendDomainError(c, err)
		}
		utils.SetBidder(c, bidder)
		return c.Next()
	}
}

// OptionalBidder attaches the bidder when a valid token is present.
func OptionalBidder(webApp *handlers.WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if bidder, err := resolveBidder(webApp, c); err == nil {
			utils.SetBidder(c, bidder)
		}
		return c.Next()
	}
}

// AdminRequired accepts only a signed admin session cookie with is_admin set.
func AdminRequired(webApp *handlers.WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		value := c.Cookies(auth.AdminCookieName)
		if value == "" {
			return utils.SendUnauthorized(c, "Authentication required")
		}
		session, err := webApp.Sessions.Verify(value)
		if err != nil {
			slog.Warn("Admin session rejected",
				slog.String("type", "http"),
				slog.String("ip", utils.GetIPAddress(c)),
				slog.String("error", err.Error()))
			return utils.SendUnauthorized(c, "Invalid session")
		}
		if !session.IsAdmin {
			slog.Warn("Admin required: session lacks admin privileges",
				slog.String("type", "http"),
				slog.String("subject", session.Subject))
			return utils.SendForbidden(c, "Admin access required")
		}
		c.Locals(adminLocal, session.Subject)
		return c.Next()
	}
}

// CronRequired guards the sweep trigger with the shared cron secret. An empty
// secret locks the endpoint entirely.
func CronRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if secret == "" || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			slog.Warn("Cron request rejected",
				slog.String("type", "http"),
				slog.String("ip", utils.GetIPAddress(c)))
			return utils.SendUnauthorized(c, "Invalid cron secret")
		}
		return c.Next()
	}
}
