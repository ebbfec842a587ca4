package memory

import (
	"context"
	"sort"

	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func (s *Store) ListByBidder(_ context.Context, bidderID int64, unreadOnly bool, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Notification
	for _, n := range s.notifications {
		if n.BidderID != bidderID || (unreadOnly && n.Read) {
			continue
		}
		nc := *n
		out = append(out, &nc)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) CountUnread(_ context.Context, bidderID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, n := range s.notifications {
		if n.BidderID == bidderID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkRead(_ context.Context, bidderID, notificationID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == notificationID && n.BidderID == bidderID {
			n.Read = true
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) MarkAllRead(_ context.Context, bidderID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, n := range s.notifications {
		if n.BidderID == bidderID && !n.Read {
			n.Read = true
			changed++
		}
	}
	return changed, nil
}
