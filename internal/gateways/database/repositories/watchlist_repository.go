package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

var _ auctions.WatchlistRepository = (*WatchlistRepository)(nil)

type WatchlistRepository struct {
	db *bun.DB
}

func NewWatchlistRepository(db *bun.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Watch is idempotent.
func (r *WatchlistRepository) Watch(ctx context.Context, bidderID, auctionID int64) error {
	exists, err := r.db.NewSelect().
		Model((*models.Auction)(nil)).
		Where("a.id = ?", auctionID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check auction: %w", err)
	}
	if !exists {
		return domain.ErrAuctionNotFound
	}

	item := &models.WatchlistItem{
		BidderID:  bidderID,
		AuctionID: auctionID,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.NewInsert().
		Model(item).
		On("CONFLICT (bidder_id, auction_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch auction: %w", err)
	}
	return nil
}

func (r *WatchlistRepository) Unwatch(ctx context.Context, bidderID, auctionID int64) error {
	_, err := r.db.NewDelete().
		Model((*models.WatchlistItem)(nil)).
		Where("bidder_id = ? AND auction_id = ?", bidderID, auctionID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to unwatch auction: %w", err)
	}
	return nil
}

func (r *WatchlistRepository) IsWatching(ctx context.Context, bidderID, auctionID int64) (bool, error) {
	return r.db.NewSelect().
		Model((*models.WatchlistItem)(nil)).
		Where("w.bidder_id = ? AND w.auction_id = ?", bidderID, auctionID).
		Exists(ctx)
}

func (r *WatchlistRepository) ListWatchlist(ctx context.Context, bidderID int64) ([]*models.Auction, error) {
	var items []*models.Auction
	err := r.db.NewSelect().
		Model(&items).
		Relation("Category").
		Join("JOIN watchlist_items AS w ON w.auction_id = a.id").
		Where("w.bidder_id = ?", bidderID).
		Order("a.ends_at ASC", "a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	return items, nil
}
