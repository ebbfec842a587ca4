package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/uptrace/bun"
)

var _ settlement.PaymentRepository = (*PaymentRepository)(nil)

type PaymentRepository struct {
	db *bun.DB
}

func NewPaymentRepository(db *bun.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) GetPaymentByReference(ctx context.Context, reference uuid.UUID) (*models.AuctionPayment, error) {
	p := new(models.AuctionPayment)
	if err := r.db.NewSelect().Model(p).Where("ap.reference = ?", reference).Scan(ctx); err != nil {
		return nil, translate(err, domain.ErrPaymentNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) GetPaymentBySession(ctx context.Context, provider models.PaymentProvider, sessionID string) (*models.AuctionPayment, error) {
	if sessionID == "" {
		return nil, domain.ErrPaymentNotFound
	}
	p := new(models.AuctionPayment)
	err := r.db.NewSelect().
		Model(p).
		Where("ap.provider = ?", provider).
		Where("ap.provider_session_id = ?", sessionID).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, domain.ErrPaymentNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) RecordCallback(ctx context.Context, cb *models.PaymentCallback) error {
	if cb.ID == uuid.Nil {
		cb.ID = uuid.New()
	}
	if cb.CreatedAt.IsZero() {
		cb.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NewInsert().Model(cb).Exec(ctx); err != nil {
		return fmt.Errorf("failed to record payment callback: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListCallbacks(ctx context.Context, outcome models.CallbackOutcome, limit int) ([]*models.PaymentCallback, error) {
	var out []*models.PaymentCallback
	q := r.db.NewSelect().
		Model(&out).
		Order("pc.created_at DESC")
	if outcome == "" {
		q = q.Where("pc.outcome IN (?)", bun.In([]models.CallbackOutcome{models.CallbackUnmatched, models.CallbackFailed}))
	} else {
		q = q.Where("pc.outcome = ?", outcome)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list payment callbacks: %w", err)
	}
	return out, nil
}
