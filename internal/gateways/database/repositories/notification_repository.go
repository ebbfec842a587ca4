package repositories

import (
	"context"
	"fmt"

	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

var _ notifications.Repository = (*NotificationRepository)(nil)

type NotificationRepository struct {
	db *bun.DB
}

func NewNotificationRepository(db *bun.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) ListByBidder(ctx context.Context, bidderID int64, unreadOnly bool, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	q := r.db.NewSelect().
		Model(&out).
		Where("n.bidder_id = ?", bidderID).
		Order("n.created_at DESC", "n.id DESC")
	if unreadOnly {
		q = q.Where("NOT n.read")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, bidderID int64) (int, error) {
	return r.db.NewSelect().
		Model((*models.Notification)(nil)).
		Where("n.bidder_id = ?", bidderID).
		Where("NOT n.read").
		Count(ctx)
}

func (r *NotificationRepository) MarkRead(ctx context.Context, bidderID, notificationID int64) (bool, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("read = TRUE").
		Where("id = ? AND bidder_id = ?", notificationID, bidderID).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, bidderID int64) (int, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("read = TRUE").
		Where("bidder_id = ? AND NOT read", bidderID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
