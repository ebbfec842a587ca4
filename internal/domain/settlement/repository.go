package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

// PaymentRepository resolves payments outside the auction lock. Payment rows
// are only ever written through auctions.Tx.SavePayment.
type PaymentRepository interface {
	GetPaymentByReference(ctx context.Context, reference uuid.UUID) (*models.AuctionPayment, error)
	GetPaymentBySession(ctx context.Context, provider models.PaymentProvider, sessionID string) (*models.AuctionPayment, error)
	RecordCallback(ctx context.Context, callback *models.PaymentCallback) error
	// ListCallbacks returns callbacks newest first. An empty outcome lists the
	// ones needing reconciliation.
	ListCallbacks(ctx context.Context, outcome models.CallbackOutcome, limit int) ([]*models.PaymentCallback, error)
}
