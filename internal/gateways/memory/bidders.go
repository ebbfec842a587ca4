package memory

import (
	"context"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func (s *Store) GetBidder(_ context.Context, bidderID int64) (*models.Bidder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bidders[bidderID]
	if !ok {
		return nil, domain.ErrBidderNotFound
	}
	bc := *b
	return &bc, nil
}

func (s *Store) GetBidderByExternalRef(_ context.Context, externalRef string) (*models.Bidder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bidders {
		if b.ExternalRef == externalRef {
			bc := *b
			return &bc, nil
		}
	}
	return nil, domain.ErrBidderNotFound
}

func (s *Store) UpsertBidder(_ context.Context, bidder *models.Bidder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	for _, b := range s.bidders {
		if b.ExternalRef != bidder.ExternalRef {
			continue
		}
		b.DisplayName = bidder.DisplayName
		b.Email = bidder.Email
		b.Phone = bidder.Phone
		b.UpdatedAt = now
		*bidder = *b
		return nil
	}

	bidder.ID = s.bidderSeq.Add(1)
	bidder.CreatedAt = now
	bidder.UpdatedAt = now
	bc := *bidder
	s.bidders[bidder.ID] = &bc
	return nil
}

func (s *Store) SetBanned(_ context.Context, bidderID int64, banned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bidders[bidderID]
	if !ok {
		return domain.ErrBidderNotFound
	}
	b.IsBanned = banned
	b.UpdatedAt = s.now().UTC()
	return nil
}
