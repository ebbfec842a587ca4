package bidders

import (
	"context"

	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type Repository interface {
	GetBidder(ctx context.Context, bidderID int64) (*models.Bidder, error)
	GetBidderByExternalRef(ctx context.Context, externalRef string) (*models.Bidder, error)
	// UpsertBidder inserts the profile or refreshes contact fields of the
	// existing one with the same external ref, filling in ID either way.
	UpsertBidder(ctx context.Context, bidder *models.Bidder) error
	SetBanned(ctx context.Context, bidderID int64, banned bool) error
}
