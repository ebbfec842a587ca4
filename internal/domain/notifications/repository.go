package notifications

import (
	"context"

	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

// Repository reads and updates notifications. Inserts happen inside auction
// units of work, see auctions.Tx.Notify.
type Repository interface {
	ListByBidder(ctx context.Context, bidderID int64, unreadOnly bool, limit int) ([]*models.Notification, error)
	CountUnread(ctx context.Context, bidderID int64) (int, error)
	MarkRead(ctx context.Context, bidderID, notificationID int64) (bool, error)
	MarkAllRead(ctx context.Context, bidderID int64) (int, error)
}
