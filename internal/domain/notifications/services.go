package notifications

import (
	"context"
	"fmt"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

type Service struct {
	repository Repository
}

func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// Feed is what a polling client receives: newest first plus the exact unread count.
type Feed struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int                    `json:"unreadCount"`
}

func (s *Service) List(ctx context.Context, bidderID int64, unreadOnly bool, limit int) (*Feed, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	items, err := s.repository.ListByBidder(ctx, bidderID, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []*models.Notification{}
	}

	unread, err := s.repository.CountUnread(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return &Feed{Notifications: items, UnreadCount: unread}, nil
}

func (s *Service) UnreadCount(ctx context.Context, bidderID int64) (int, error) {
	n, err := s.repository.CountUnread(ctx, bidderID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead flags one notification as read and returns the remaining unread count.
func (s *Service) MarkRead(ctx context.Context, bidderID, notificationID int64) (int, error) {
	found, err := s.repository.MarkRead(ctx, bidderID, notificationID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !found {
		return 0, domain.ErrNotificationNotFound
	}
	return s.UnreadCount(ctx, bidderID)
}

func (s *Service) MarkAllRead(ctx context.Context, bidderID int64) (int, error) {
	if _, err := s.repository.MarkAllRead(ctx, bidderID); err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return s.UnreadCount(ctx, bidderID)
}
