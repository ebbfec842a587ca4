package handlers

import (
	"github.com/gofiber/fiber/v2"
	webmodels "github.com/slotcarhq/auctionhouse/backend/models"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
)

func MyBids(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		rows, err := w.Auctions.MyBids(c.Context(), bidder.ID)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(rows)
	}
}

func Watchlist(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		items, err := w.Auctions.Watchlist(c.Context(), bidder.ID)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(items)
	}
}

func ListNotifications(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		feed, err := w.Notifications.List(c.Context(), bidder.ID,
			c.QueryBool("unread", false),
			c.QueryInt("limit", notifications.DefaultListLimit))
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(feed)
	}
}

func MarkNotificationsRead(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		var req webmodels.MarkReadRequest
		if err := utils.ParseBody(c, &req); err != nil {
			return utils.SendDomainError(c, err)
		}

		var (
			unread int
			err    error
		)
		switch {
		case req.All:
			unread, err = w.Notifications.MarkAllRead(c.Context(), bidder.ID)
		case req.ID > 0:
			unread, err = w.Notifications.MarkRead(c.Context(), bidder.ID, req.ID)
		default:
			err = domain.ErrInvalidRequest.WithMessage("id or all is required")
		}
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(webmodels.UnreadResponse{UnreadCount: unread})
	}
}
