package utils

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const bidderLocal = "bidder"

func SetBidder(c *fiber.Ctx, bidder *models.Bidder) {
	c.Locals(bidderLocal, bidder)
}

// CurrentBidder returns the bidder resolved by the auth middleware.
func CurrentBidder(c *fiber.Ctx) (*models.Bidder, bool) {
	bidder, ok := c.Locals(bidderLocal).(*models.Bidder)
	return bidder, ok && bidder != nil
}

// BidderID is zero for anonymous requests.
func BidderID(c *fiber.Ctx) int64 {
	if bidder, ok := CurrentBidder(c); ok {
		return bidder.ID
	}
	return 0
}

func ParseID(c *fiber.Ctx, param string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidRequest.WithMessage("invalid %s", param)
	}
	return id, nil
}

func ParseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return domain.ErrInvalidRequest.WithMessage("malformed request body")
	}
	return nil
}

func queryDecimal(c *fiber.Ctx, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return nil, domain.ErrInvalidRequest.WithMessage("invalid %s", key)
	}
	return &d, nil
}

// ParseFilter reads the catalogue query string. Paging defaults are applied
// later by auctions.NormalizeFilter.
func ParseFilter(c *fiber.Ctx) (auctions.Filter, error) {
	f := auctions.Filter{
		CategorySlug: strings.ToLower(strings.TrimSpace(c.Query("category"))),
		Brand:        strings.TrimSpace(c.Query("brand")),
		Condition:    models.Condition(strings.ToLower(c.Query("condition"))),
		Search:       c.Query("search"),
		Sort:         auctions.SortOrder(c.Query("sort")),
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", auctions.DefaultPageSize),
	}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Statuses = append(f.Statuses, models.AuctionStatus(strings.ToLower(s)))
			}
		}
	}
	var err error
	if f.MinPrice, err = queryDecimal(c, "minPrice"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "maxPrice"); err != nil {
		return f, err
	}
	return f, nil
}
