package auctions

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type SortOrder string

const (
	SortEndingSoon  SortOrder = "ending_soon"
	SortNewlyListed SortOrder = "newly_listed"
	SortPriceLow    SortOrder = "price_low"
	SortPriceHigh   SortOrder = "price_high"
	SortMostBids    SortOrder = "most_bids"
)

func (s SortOrder) Valid() bool {
	switch s {
	case SortEndingSoon, SortNewlyListed, SortPriceLow, SortPriceHigh, SortMostBids:
		return true
	}
	return false
}

type Filter struct {
	CategorySlug string
	Brand        string
	Condition    models.Condition
	Statuses     []models.AuctionStatus
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Search       string
	Sort         SortOrder
	Page         int
	Limit        int
}

// Offset is the number of rows before the requested page. It is zero for
// pages below one and never overflows.
func (f Filter) Offset() int {
	if f.Page < 1 || f.Limit < 1 {
		return 0
	}
	if f.Page-1 > (math.MaxInt-f.Limit)/f.Limit {
		return math.MaxInt - f.Limit
	}
	return (f.Page - 1) * f.Limit
}

// Tx is a unit of work bound to one auction row. Implementations hold the
// auction's lock for the lifetime of the callback passed to WithAuction and
// discard every change made through Tx when the callback returns an error.
type Tx interface {
	// Auction returns the locked row. Mutations are persisted by SaveAuction.
	Auction() *models.Auction
	SaveAuction(ctx context.Context) error

	Bidder(ctx context.Context, bidderID int64) (*models.Bidder, error)
	WinningBid(ctx context.Context) (*models.Bid, error)
	InsertBid(ctx context.Context, bid *models.Bid) error
	DemoteBid(ctx context.Context, bid *models.Bid) error
	BidderIDs(ctx context.Context) ([]int64, error)
	Watchers(ctx context.Context) ([]int64, error)

	Payments(ctx context.Context) ([]*models.AuctionPayment, error)
	SavePayment(ctx context.Context, payment *models.AuctionPayment) error

	Notify(ctx context.Context, notification *models.Notification) error
}

type Repository interface {
	WithAuction(ctx context.Context, auctionID int64, fn func(ctx context.Context, tx Tx) error) error

	Create(ctx context.Context, auction *models.Auction) error
	Delete(ctx context.Context, auctionID int64) error
	GetByID(ctx context.Context, auctionID int64) (*models.Auction, error)
	GetBySlug(ctx context.Context, slug string) (*models.Auction, error)
	List(ctx context.Context, filter Filter) ([]*models.Auction, int, error)

	ListBids(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error)
	ListBidderBids(ctx context.Context, bidderID int64) ([]*models.BidderBid, error)

	DueForActivation(ctx context.Context, now time.Time) ([]int64, error)
	DueForClose(ctx context.Context, now time.Time) ([]int64, error)
	EndingSoon(ctx context.Context, now time.Time, window time.Duration) ([]int64, error)
	AwaitingPayment(ctx context.Context, endedBefore time.Time) ([]int64, error)

	Stats(ctx context.Context) (*models.AuctionStats, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, categoryID int64) error
	GetCategory(ctx context.Context, categoryID int64) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type WatchlistRepository interface {
	Watch(ctx context.Context, bidderID, auctionID int64) error
	Unwatch(ctx context.Context, bidderID, auctionID int64) error
	IsWatching(ctx context.Context, bidderID, auctionID int64) (bool, error)
	ListWatchlist(ctx context.Context, bidderID int64) ([]*models.Auction, error)
}
