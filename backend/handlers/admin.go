package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	webmodels "github.com/slotcarhq/auctionhouse/backend/models"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const maxImagesPerUpload = 10

func AdminListAuctions(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, err := utils.ParseFilter(c)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		page, err := w.Auctions.AdminList(c.Context(), filter)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(page)
	}
}

func AdminGetAuction(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auction, err := w.Auctions.Get(c.Context(), c.Params("id"), false)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(w.Auctions.AdminView(auction))
	}
}

func AdminCreateAuction(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in auctions.AuctionInput
		if err := utils.ParseBody(c, &in); err != nil {
			return utils.SendDomainError(c, err)
		}
		auction, err := w.Auctions.Create(c.Context(), in)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return utils.SendCreated(c, w.Auctions.AdminView(auction))
	}
}

func AdminUpdateAuction(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		var in auctions.AuctionInput
		if err := utils.ParseBody(c, &in); err != nil {
			return utils.SendDomainError(c, err)
		}
		auction, err := w.Auctions.Update(c.Context(), auctionID, in)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(w.Auctions.AdminView(auction))
	}
}

func AdminDeleteAuction(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		if err := w.Auctions.Delete(c.Context(), auctionID); err != nil {
			return utils.SendDomainError(c, err)
		}
		return utils.SendNoContent(c)
	}
}

type transitionFunc func(*WebApp, *fiber.Ctx, int64) (*models.Auction, error)

func adminTransition(w *WebApp, apply transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		auction, err := apply(w, c, auctionID)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(w.Auctions.AdminView(auction))
	}
}

func AdminPublishAuction(w *WebApp) fiber.Handler {
	return adminTransition(w, func(w *WebApp, c *fiber.Ctx, id int64) (*models.Auction, error) {
		return w.Auctions.Publish(c.Context(), id)
	})
}

func AdminUnpublishAuction(w *WebApp) fiber.Handler {
	return adminTransition(w, func(w *WebApp, c *fiber.Ctx, id int64) (*models.Auction, error) {
		return w.Auctions.Unpublish(c.Context(), id)
	})
}

func AdminCancelAuction(w *WebApp) fiber.Handler {
	return adminTransition(w, func(w *WebApp, c *fiber.Ctx, id int64) (*models.Auction, error) {
		return w.Auctions.Cancel(c.Context(), id)
	})
}

func AdminFeatureAuction(w *WebApp) fiber.Handler {
	return adminTransition(w, func(w *WebApp, c *fiber.Ctx, id int64) (*models.Auction, error) {
		req := webmodels.FeatureRequest{Featured: true}
		if len(c.Body()) > 0 {
			if err := utils.ParseBody(c, &req); err != nil {
				return nil, err
			}
		}
		return w.Auctions.SetFeatured(c.Context(), id, req.Featured)
	})
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// AdminUploadImages stores every file in the "images" form field and appends
// the resulting URLs to the auction.
func AdminUploadImages(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if w.Images == nil {
			return utils.SendError(c, fiber.StatusServiceUnavailable, "STORAGE_DISABLED", "image storage is not configured", nil)
		}
		auctionID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		form, err := c.MultipartForm()
		if err != nil {
			return utils.SendDomainError(c, domain.ErrInvalidRequest.WithMessage("invalid multipart form"))
		}
		files := form.File["images"]
		if len(files) == 0 || len(files) > maxImagesPerUpload {
			return utils.SendDomainError(c, domain.ErrInvalidRequest.WithMessage("between 1 and %d images are required", maxImagesPerUpload))
		}

		ctx := c.Context()
		if _, err := w.Auctions.Get(ctx, c.Params("id"), false); err != nil {
			return utils.SendDomainError(c, err)
		}

		urls := make([]string, 0, len(files))
		for _, file := range files {
			data, err := readUpload(file)
			if err != nil {
				return utils.SendDomainError(c, err)
			}
			u, err := w.Images.UploadImage(ctx, auctionID, data)
			if err != nil {
				return utils.SendDomainError(c, err)
			}
			urls = append(urls, u)
		}

		auction, err := w.Auctions.AddImages(ctx, auctionID, urls...)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		slog.Info("Auction images uploaded",
			slog.String("type", "http"),
			slog.Int64("auction_id", auctionID),
			slog.Int("count", len(urls)))
		return utils.SendCreated(c, webmodels.UploadResponse{
			Auction:  w.Auctions.AdminView(auction),
			Uploaded: urls,
		})
	}
}

func AdminListCategories(w *WebApp) fiber.Handler {
	return ListCategories(w)
}

func AdminCreateCategory(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in auctions.CategoryInput
		if err := utils.ParseBody(c, &in); err != nil {
			return utils.SendDomainError(c, err)
		}
		category, err := w.Auctions.CreateCategory(c.Context(), in)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return utils.SendCreated(c, auctions.NewCategoryView(category))
	}
}

func AdminUpdateCategory(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		var in auctions.CategoryInput
		if err := utils.ParseBody(c, &in); err != nil {
			return utils.SendDomainError(c, err)
		}
		category, err := w.Auctions.UpdateCategory(c.Context(), categoryID, in)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(auctions.NewCategoryView(category))
	}
}

func AdminDeleteCategory(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		if err := w.Auctions.DeleteCategory(c.Context(), categoryID); err != nil {
			return utils.SendDomainError(c, err)
		}
		return utils.SendNoContent(c)
	}
}

func AdminStats(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := w.Auctions.Stats(c.Context())
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(stats)
	}
}

func setBanned(w *WebApp, banned bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidderID, err := utils.ParseID(c, "id")
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		bidder, err := w.Bidders.SetBanned(c.Context(), bidderID, banned)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(bidder)
	}
}

func AdminBanBidder(w *WebApp) fiber.Handler {
	return setBanned(w, true)
}

func AdminUnbanBidder(w *WebApp) fiber.Handler {
	return setBanned(w, false)
}

// AdminPaymentCallbacks lists the reconciliation queue. Without ?outcome=
// only unmatched and failed deliveries are returned.
func AdminPaymentCallbacks(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		outcome := models.CallbackOutcome(c.Query("outcome"))
		items, err := w.Settlement.Callbacks(c.Context(), outcome, c.QueryInt("limit", 0))
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(items)
	}
}
