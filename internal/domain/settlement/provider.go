package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type CheckoutRequest struct {
	Reference    uuid.UUID
	AuctionID    int64
	AuctionTitle string
	Amount       decimal.Decimal
	Currency     string
	BidderName   string
	BidderEmail  string
}

type CheckoutSession struct {
	SessionID string
	URL       string
}

// CheckoutProvider opens a hosted checkout for one payment attempt.
type CheckoutProvider interface {
	Name() models.PaymentProvider
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}

type CallbackKind string

const (
	CallbackCompleted CallbackKind = "completed"
	CallbackFailed    CallbackKind = "failed"
	CallbackOther     CallbackKind = "other"
	// CallbackMalformed is a correctly signed payload that cannot be read.
	// Redelivery will not fix it, so it is acknowledged and recorded as failed.
	CallbackMalformed CallbackKind = "malformed"
)

// Confirmation is a provider notification whose signature has been verified.
// At least one of SessionID and Reference identifies the payment.
type Confirmation struct {
	Provider          models.PaymentProvider
	Kind              CallbackKind
	EventID           string
	EventType         string
	SessionID         string
	Reference         string
	ProviderPaymentID string
	// Amount is nil when the provider did not report one.
	Amount  *decimal.Decimal
	Payload string
	// Problem says why a CallbackMalformed payload could not be read.
	Problem string
}

type StripeGateway interface {
	CheckoutProvider
	// VerifyWebhook checks the Stripe-Signature header against payload.
	VerifyWebhook(payload []byte, signature string) (*Confirmation, error)
}

type PayFastGateway interface {
	CheckoutProvider
	// VerifyNotify checks the signature of a raw ITN form body.
	VerifyNotify(body []byte) (*Confirmation, error)
}
