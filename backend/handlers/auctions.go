package handlers

import (
	"github.com/gofiber/fiber/v2"
	webmodels "github.com/slotcarhq/auctionhouse/backend/models"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/domain"
)

func ListAuctions(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := utils.ParseFilter(c)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		page, err := w.Auctions.List(c.Context(), filter)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(page)
	}
}

func ListCategories(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categories, err := w.Auctions.Categories(c.Context())
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(categories)
	}
}

// GetAuction accepts either the numeric id or the slug.
func GetAuction(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		auction, err := w.Auctions.Get(ctx, c.Params("idOrSlug"), true)
		if err != nil {
			return utils.SendDomainError(c, err)
		}

		detail := webmodels.AuctionDetail{PublicAuction: w.Auctions.View(auction)}
		if bidderID := utils.BidderID(c); bidderID != 0 {
			if detail.Watching, err = w.Auctions.IsWatching(ctx, bidderID, auction.ID); err != nil {
				return utils.SendDomainError(c, err)
			}
		}
		return c.JSON(detail)
	}
}

func ListBids(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		bids, err := w.Auctions.Bids(c.Context(), auctionID, utils.BidderID(c))
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(bids)
	}
}

func PlaceBid(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		var req webmodels.BidRequest
		if err := utils.ParseBody(c, &req); err != nil {
			return utils.SendDomainError(c, err)
		}

		result, err := w.Auctions.PlaceBid(c.Context(), auctionID, bidder.ID, req.Amount)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return utils.SendCreated(c, result)
	}
}

func Watch(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		req := webmodels.WatchRequest{Action: webmodels.WatchActionWatch}
		if len(c.Body()) > 0 {
			if err := utils.ParseBody(c, &req); err != nil {
				return utils.SendDomainError(c, err)
			}
		}
		if req.Action != webmodels.WatchActionWatch && req.Action != webmodels.WatchActionUnwatch {
			return utils.SendDomainError(c, domain.ErrInvalidRequest.WithMessage("action must be watch or unwatch"))
		}

		watching, err := w.Auctions.SetWatching(c.Context(), bidder.ID, auctionID, req.Action == webmodels.WatchActionWatch)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(webmodels.WatchResponse{Watching: watching})
	}
}
