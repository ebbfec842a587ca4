package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func (s *Store) GetPaymentByReference(_ context.Context, reference uuid.UUID) (*models.AuctionPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.payments {
		if p.Reference == reference {
			return p.Clone(), nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (s *Store) GetPaymentBySession(_ context.Context, provider models.PaymentProvider, sessionID string) (*models.AuctionPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sessionID == "" {
		return nil, domain.ErrPaymentNotFound
	}
	for _, p := range s.payments {
		if p.Provider == provider && p.ProviderSessionID == sessionID {
			return p.Clone(), nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (s *Store) RecordCallback(_ context.Context, cb *models.PaymentCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb.ID == uuid.Nil {
		cb.ID = uuid.New()
	}
	if cb.CreatedAt.IsZero() {
		cb.CreatedAt = s.now().UTC()
	}
	c := *cb
	s.callbacks = append(s.callbacks, &c)
	return nil
}

func (s *Store) ListCallbacks(_ context.Context, outcome models.CallbackOutcome, limit int) ([]*models.PaymentCallback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.PaymentCallback
	for i := len(s.callbacks) - 1; i >= 0; i-- {
		cb := s.callbacks[i]
		if outcome == "" && !cb.Outcome.NeedsReconciliation() {
			continue
		}
		if outcome != "" && cb.Outcome != outcome {
			continue
		}
		c := *cb
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
