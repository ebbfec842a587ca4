package auctions

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type CategoryView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	SortOrder   int    `json:"sortOrder"`
}

func NewCategoryView(c *models.Category) *CategoryView {
	if c == nil {
		return nil
	}
	return &CategoryView{ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description, SortOrder: c.SortOrder}
}

// PublicAuction is what bidders see. The reserve price is reduced to a flag.
type PublicAuction struct {
	ID               int64                `json:"id"`
	Title            string               `json:"title"`
	Slug             string               `json:"slug"`
	Description      string               `json:"description"`
	Category         *CategoryView        `json:"category,omitempty"`
	Brand            string               `json:"brand"`
	Scale            string               `json:"scale"`
	Condition        models.Condition     `json:"condition"`
	Images           []string             `json:"images"`
	StartingPrice    decimal.Decimal      `json:"startingPrice"`
	CurrentPrice     decimal.Decimal      `json:"currentPrice"`
	BidIncrement     decimal.Decimal      `json:"bidIncrement"`
	MinimumBid       decimal.Decimal      `json:"minimumBid"`
	BidCount         int                  `json:"bidCount"`
	HasReserve       bool                 `json:"hasReserve"`
	ReserveMet       bool                 `json:"reserveMet"`
	Status           models.AuctionStatus `json:"status"`
	StartsAt         time.Time            `json:"startsAt"`
	EndsAt           time.Time            `json:"endsAt"`
	OriginalEndTime  time.Time            `json:"originalEndTime"`
	AntiSnipeSeconds int                  `json:"antiSnipeSeconds"`
	Featured         bool                 `json:"featured"`
	ServerTime       time.Time            `json:"serverTime"`
}

func NewPublicAuction(a *models.Auction, now time.Time) *PublicAuction {
	images := a.Images
	if images == nil {
		images = []string{}
	}
	return &PublicAuction{
		ID:               a.ID,
		Title:            a.Title,
		Slug:             a.Slug,
		Description:      a.Description,
		Category:         NewCategoryView(a.Category),
		Brand:            a.Brand,
		Scale:            a.Scale,
		Condition:        a.Condition,
		Images:           images,
		StartingPrice:    a.StartingPrice,
		CurrentPrice:     a.CurrentPrice,
		BidIncrement:     a.BidIncrement,
		MinimumBid:       a.MinimumBid(),
		BidCount:         a.BidCount,
		HasReserve:       a.ReservePrice != nil,
		ReserveMet:       a.ReserveMet(),
		Status:           a.Status,
		StartsAt:         a.StartsAt,
		EndsAt:           a.EndsAt,
		OriginalEndTime:  a.OriginalEndTime,
		AntiSnipeSeconds: a.AntiSnipeSeconds,
		Featured:         a.Featured,
		ServerTime:       now,
	}
}

type AdminAuction struct {
	PublicAuction
	CategoryID     *int64           `json:"categoryId"`
	ReservePrice   *decimal.Decimal `json:"reservePrice"`
	WinnerID       *int64           `json:"winnerId"`
	WinnerNotified bool             `json:"winnerNotified"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

func NewAdminAuction(a *models.Auction, now time.Time) *AdminAuction {
	return &AdminAuction{
		PublicAuction:  *NewPublicAuction(a, now),
		CategoryID:     a.CategoryID,
		ReservePrice:   a.ReservePrice,
		WinnerID:       a.WinnerID,
		WinnerNotified: a.WinnerNotified,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type PublicBid struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Bidder    string          `json:"bidder"`
	IsWinning bool            `json:"isWinning"`
	IsYou     bool            `json:"isYou"`
	CreatedAt time.Time       `json:"createdAt"`
}

func NewPublicBid(b *models.Bid, viewerID int64) *PublicBid {
	name := ""
	if b.Bidder != nil {
		name = b.Bidder.DisplayName
	}
	return &PublicBid{
		ID:        b.ID,
		Amount:    b.Amount,
		Bidder:    MaskName(name),
		IsWinning: b.IsWinning,
		IsYou:     viewerID != 0 && b.BidderID == viewerID,
		CreatedAt: b.CreatedAt,
	}
}

// MyBid is one row of a bidder's own bidding history.
type MyBid struct {
	Auction    *PublicAuction  `json:"auction"`
	HighestBid decimal.Decimal `json:"highestBid"`
	BidCount   int             `json:"bidCount"`
	IsWinning  bool            `json:"isWinning"`
	Won        bool            `json:"won"`
	LastBidAt  time.Time       `json:"lastBidAt"`
}

// MaskName keeps the first and last rune: "Jamie" becomes "J***e".
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	switch {
	case n == 0:
		return "Anonymous"
	case n <= 2:
		return strings.Repeat("*", n)
	}
	runes := []rune(name)
	return string(runes[0]) + "***" + string(runes[n-1])
}
