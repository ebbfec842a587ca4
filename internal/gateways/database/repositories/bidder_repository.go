package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

var _ bidders.Repository = (*BidderRepository)(nil)

type BidderRepository struct {
	db *bun.DB
}

func NewBidderRepository(db *bun.DB) *BidderRepository {
	return &BidderRepository{db: db}
}

func (r *BidderRepository) GetBidder(ctx context.Context, bidderID int64) (*models.Bidder, error) {
	b := new(models.Bidder)
	if err := r.db.NewSelect().Model(b).Where("bd.id = ?", bidderID).Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrBidderNotFound)
	}
	return b, nil
}

func (r *BidderRepository) GetBidderByExternalRef(ctx context.Context, externalRef string) (*models.Bidder, error) {
	b := new(models.Bidder)
	if err := r.db.NewSelect().Model(b).Where("bd.external_ref = ?", externalRef).Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrBidderNotFound)
	}
	return b, nil
}

// UpsertBidder never touches is_banned.
func (r *BidderRepository) UpsertBidder(ctx context.Context, bidder *models.Bidder) error {
	now := time.Now().UTC()
	bidder.CreatedAt = now
	bidder.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(bidder).
		On("CONFLICT (external_ref) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("email = EXCLUDED.email").
		Set("phone = EXCLUDED.phone").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert bidder: %w", err)
	}
	return nil
}

func (r *BidderRepository) SetBanned(ctx context.Context, bidderID int64, banned bool) error {
	res, err := r.db.NewUpdate().
		Model((*models.Bidder)(nil)).
		Set("is_banned = ?", banned).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", bidderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update bidder: %w", err)
	}
	return affected(res, domain.ErrBidderNotFound)
}
