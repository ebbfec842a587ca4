package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSucceeded  PaymentStatus = "succeeded"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Open reports whether the payment row can still be reused for a new checkout attempt.
func (s PaymentStatus) Open() bool {
	return s == PaymentStatusPending || s == PaymentStatusProcessing
}

type PaymentProvider string

const (
	ProviderStripe  PaymentProvider = "stripe"
	ProviderPayFast PaymentProvider = "payfast"
)

type AuctionPayment struct {
	bun.BaseModel `bun:"table:auction_payments,alias:ap"`

	ID                int64           `bun:"id,pk,autoincrement"`
	AuctionID         int64           `bun:"auction_id,notnull"`
	BidderID          int64           `bun:"bidder_id,notnull"`
	Amount            decimal.Decimal `bun:"amount,type:numeric(12,2),notnull"`
	Currency          string          `bun:"currency,notnull"`
	Provider          PaymentProvider `bun:"provider,notnull"`
	Reference         uuid.UUID       `bun:"reference,type:uuid,notnull,unique"`
	ProviderSessionID string          `bun:"provider_session_id,notnull,default:''"`
	ProviderPaymentID string          `bun:"provider_payment_id,notnull,default:''"`
	CheckoutURL       string          `bun:"checkout_url,notnull,default:''"`
	Status            PaymentStatus   `bun:"status,notnull"`
	PaidAt            *time.Time      `bun:"paid_at"`
	CreatedAt         time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

func (p *AuctionPayment) Clone() *AuctionPayment {
	c := *p
	if p.PaidAt != nil {
		t := *p.PaidAt
		c.PaidAt = &t
	}
	return &c
}

type CallbackOutcome string

const (
	CallbackApplied   CallbackOutcome = "applied"
	CallbackDuplicate CallbackOutcome = "duplicate"
	CallbackIgnored   CallbackOutcome = "ignored"
	CallbackUnmatched CallbackOutcome = "unmatched"
	CallbackFailed    CallbackOutcome = "failed"
)

// NeedsReconciliation reports whether an operator has to look at the callback.
func (o CallbackOutcome) NeedsReconciliation() bool {
	return o == CallbackUnmatched || o == CallbackFailed
}

// PaymentCallback is the audit trail of every verified provider notification.
type PaymentCallback struct {
	bun.BaseModel `bun:"table:payment_callbacks,alias:pc"`

	ID             uuid.UUID       `bun:"id,pk,type:uuid" json:"id"`
	Provider       PaymentProvider `bun:"provider,notnull" json:"provider"`
	EventID        string          `bun:"event_id,notnull,default:''" json:"eventId"`
	EventType      string          `bun:"event_type,notnull,default:''" json:"eventType"`
	Reference      string          `bun:"reference,notnull,default:''" json:"reference"`
	Payload        string          `bun:"payload,type:text,notnull,default:''" json:"-"`
	SignatureValid bool            `bun:"signature_valid,notnull" json:"signatureValid"`
	Outcome        CallbackOutcome `bun:"outcome,notnull" json:"outcome"`
	Error          string          `bun:"error,notnull,default:''" json:"error,omitempty"`
	CreatedAt      time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
