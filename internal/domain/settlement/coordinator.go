package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/slotcarhq/auctionhouse/internal/domain/settlement")

const (
	DefaultProviderTimeout = 15 * time.Second
	DefaultCallbackLimit   = 100
)

type Options struct {
	DefaultProvider models.PaymentProvider
	ProviderTimeout time.Duration
	Currency        string
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DefaultProvider == "" {
		o.DefaultProvider = models.ProviderStripe
	}
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = DefaultProviderTimeout
	}
	if o.Currency == "" {
		o.Currency = auctions.DefaultCurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Gateways holds the configured provider adapters. Either may be nil.
type Gateways struct {
	Stripe  StripeGateway
	PayFast PayFastGateway
}

type Session struct {
	PaymentID int64                  `json:"paymentId"`
	Reference uuid.UUID              `json:"reference"`
	Provider  models.PaymentProvider `json:"provider"`
	URL       string                 `json:"url"`
}

// Result describes what a provider callback did.
type Result struct {
	Outcome   models.CallbackOutcome
	PaymentID int64
	AuctionID int64
	Detail    string
}

// Coordinator turns an ended auction into a paid one. Every state change
// runs under the auction's lock; provider calls never do.
type Coordinator struct {
	auctions  auctions.Repository
	payments  PaymentRepository
	gateways  Gateways
	publisher auctions.Publisher
	opts      Options
}

func NewCoordinator(repo auctions.Repository, payments PaymentRepository, gateways Gateways, publisher auctions.Publisher, opts Options) *Coordinator {
	return &Coordinator{
		auctions:  repo,
		payments:  payments,
		gateways:  gateways,
		publisher: publisher,
		opts:      opts.withDefaults(),
	}
}

func (c *Coordinator) now() time.Time {
	return c.opts.Now().UTC()
}

func (c *Coordinator) provider(name models.PaymentProvider) (CheckoutProvider, error) {
	switch name {
	case models.ProviderStripe:
		if c.gateways.Stripe != nil {
			return c.gateways.Stripe, nil
		}
	case models.ProviderPayFast:
		if c.gateways.PayFast != nil {
			return c.gateways.PayFast, nil
		}
	default:
		return nil, domain.ErrInvalidRequest.WithMessage("unknown payment provider %q", name)
	}
	return nil, domain.ErrInvalidRequest.WithMessage("payment provider %q is not configured", name)
}

// CreatePaymentSession returns a checkout URL for the auction's winner.
// Repeated calls reuse the open payment row and, for the same provider,
// the existing checkout.
func (c *Coordinator) CreatePaymentSession(ctx context.Context, auctionID, bidderID int64, providerName models.PaymentProvider) (*Session, error) {
	if providerName == "" {
		providerName = c.opts.DefaultProvider
	}
	ctx, span := tracer.Start(ctx, "settlement.CreatePaymentSession", trace.WithAttributes(
		attribute.Int64("auction.id", auctionID),
		attribute.String("payment.provider", string(providerName)),
	))
	defer span.End()

	gateway, err := c.provider(providerName)
	if err != nil {
		return nil, err
	}

	var (
		payment *models.AuctionPayment
		req     CheckoutRequest
		reused  bool
	)
	err = c.auctions.WithAuction(ctx, auctionID, func(ctx context.Context, tx auctions.Tx) error {
		a := tx.Auction()
		switch {
		case a.Status == models.AuctionStatusSold:
			return domain.ErrAlreadyPaid
		case a.Status != models.AuctionStatusEnded:
			return domain.ErrAuctionClosed.WithMessage("auction is %s and not awaiting payment", a.Status)
		case a.WinnerID == nil || *a.WinnerID != bidderID:
			return domain.ErrNotWinner
		}

		existing, err := tx.Payments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}
		var open *models.AuctionPayment
		for _, p := range existing {
			if p.Status == models.PaymentStatusSucceeded {
				return domain.ErrAlreadyPaid
			}
			if p.Status.Open() && p.BidderID == bidderID {
				open = p
			}
		}

		now := c.now()
		if open != nil && open.Provider == providerName && open.Status == models.PaymentStatusProcessing && open.CheckoutURL != "" {
			payment, reused = open, true
			return nil
		}
		if open != nil && open.Provider != providerName {
			open.Status = models.PaymentStatusFailed
			open.UpdatedAt = now
			if err := tx.SavePayment(ctx, open); err != nil {
				return fmt.Errorf("failed to retire payment %d: %w", open.ID, err)
			}
			open = nil
		}
		if open == nil {
			open = &models.AuctionPayment{
				AuctionID: a.ID,
				BidderID:  bidderID,
				Amount:    a.CurrentPrice,
				Currency:  c.opts.Currency,
				Provider:  providerName,
				Reference: uuid.New(),
				Status:    models.PaymentStatusPending,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.SavePayment(ctx, open); err != nil {
				return fmt.Errorf("failed to create payment: %w", err)
			}
		}

		bidder, err := tx.Bidder(ctx, bidderID)
		if err != nil {
			return err
		}
		payment = open.Clone()
		req = CheckoutRequest{
			Reference:    open.Reference,
			AuctionID:    a.ID,
			AuctionTitle: a.Title,
			Amount:       open.Amount,
			Currency:     open.Currency,
			BidderName:   bidder.DisplayName,
			BidderEmail:  bidder.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if reused {
		metrics.CheckoutSessions.WithLabelValues(string(providerName), "reused").Inc()
		return &Session{PaymentID: payment.ID, Reference: payment.Reference, Provider: providerName, URL: payment.CheckoutURL}, nil
	}

	pctx, cancel := context.WithTimeout(ctx, c.opts.ProviderTimeout)
	session, err := gateway.CreateSession(pctx, req)
	cancel()
	if err != nil {
		metrics.CheckoutSessions.WithLabelValues(string(providerName), "error").Inc()
		span.RecordError(err)
		slog.Error("Failed to create checkout session",
			slog.String("type", "pay"),
			slog.String("provider", string(providerName)),
			slog.Int64("auction_id", auctionID),
			slog.Int64("payment_id", payment.ID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create %s checkout session: %w", providerName, err)
	}

	err = c.auctions.WithAuction(ctx, auctionID, func(ctx context.Context, tx auctions.Tx) error {
		existing, err := tx.Payments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}
		for _, p := range existing {
			if p.ID != payment.ID {
				continue
			}
			if !p.Status.Open() {
				return domain.ErrAlreadyPaid.WithMessage("payment %d is already %s", p.ID, p.Status)
			}
			p.ProviderSessionID = session.SessionID
			p.CheckoutURL = session.URL
			p.Status = models.PaymentStatusProcessing
			p.UpdatedAt = c.now()
			return tx.SavePayment(ctx, p)
		}
		return domain.ErrPaymentNotFound
	})
	if err != nil {
		return nil, err
	}

	metrics.CheckoutSessions.WithLabelValues(string(providerName), "created").Inc()
	slog.Info("Checkout session created",
		slog.String("type", "pay"),
		slog.String("provider", string(providerName)),
		slog.Int64("auction_id", auctionID),
		slog.Int64("payment_id", payment.ID),
		slog.String("reference", payment.Reference.String()))
	return &Session{PaymentID: payment.ID, Reference: payment.Reference, Provider: providerName, URL: session.URL}, nil
}

func (c *Coordinator) resolve(ctx context.Context, conf *Confirmation) (*models.AuctionPayment, error) {
	if conf.SessionID != "" {
		p, err := c.payments.GetPaymentBySession(ctx, conf.Provider, conf.SessionID)
		if err == nil {
			return p, nil
		}
		if !domain.IsNotFound(err) {
			return nil, err
		}
	}
	if conf.Reference != "" {
		ref, err := uuid.Parse(conf.Reference)
		if err != nil {
			return nil, domain.ErrPaymentNotFound.WithMessage("malformed payment reference %q", conf.Reference)
		}
		return c.payments.GetPaymentByReference(ctx, ref)
	}
	return nil, domain.ErrPaymentNotFound
}

// ConfirmSettlement is the single transition behind both provider callbacks.
// Redelivery of an applied confirmation is a no-op.
func (c *Coordinator) ConfirmSettlement(ctx context.Context, conf *Confirmation) (*Result, error) {
	ctx, span := tracer.Start(ctx, "settlement.ConfirmSettlement", trace.WithAttributes(
		attribute.String("payment.provider", string(conf.Provider)),
		attribute.String("payment.reference", conf.Reference),
	))
	defer span.End()

	payment, err := c.resolve(ctx, conf)
	if err != nil {
		if domain.IsNotFound(err) {
			return &Result{Outcome: models.CallbackUnmatched, Detail: err.Error()}, nil
		}
		return nil, fmt.Errorf("failed to resolve payment: %w", err)
	}

	result := &Result{PaymentID: payment.ID, AuctionID: payment.AuctionID}
	var sold *models.Auction
	err = c.auctions.WithAuction(ctx, payment.AuctionID, func(ctx context.Context, tx auctions.Tx) error {
		a := tx.Auction()
		existing, err := tx.Payments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}

		var target *models.AuctionPayment
		for _, p := range existing {
			if p.ID == payment.ID {
				target = p
			} else if p.Status == models.PaymentStatusSucceeded {
				result.Outcome = models.CallbackDuplicate
				result.Detail = fmt.Sprintf("auction already settled by payment %d", p.ID)
				return nil
			}
		}
		switch {
		case target == nil:
			result.Outcome = models.CallbackUnmatched
			result.Detail = "payment disappeared"
			return nil
		case target.Status == models.PaymentStatusSucceeded:
			result.Outcome = models.CallbackDuplicate
			return nil
		case a.Status != models.AuctionStatusEnded:
			result.Outcome = models.CallbackFailed
			result.Detail = fmt.Sprintf("auction is %s", a.Status)
			return nil
		case a.WinnerID == nil || *a.WinnerID != target.BidderID:
			result.Outcome = models.CallbackFailed
			result.Detail = "payment is not from the winning bidder"
			return nil
		case conf.Amount != nil && !conf.Amount.Equal(target.Amount):
			result.Outcome = models.CallbackUnmatched
			result.Detail = fmt.Sprintf("paid %s but %s is due", conf.Amount.StringFixed(2), target.Amount.StringFixed(2))
			return nil
		}

		now := c.now()
		target.Status = models.PaymentStatusSucceeded
		target.PaidAt = &now
		target.UpdatedAt = now
		if conf.ProviderPaymentID != "" {
			target.ProviderPaymentID = conf.ProviderPaymentID
		}
		if err := tx.SavePayment(ctx, target); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		a.Status = models.AuctionStatusSold
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return fmt.Errorf("failed to save auction: %w", err)
		}
		if err := tx.Notify(ctx, notifications.PaymentReceived(target.BidderID, a, target.Amount, c.opts.Currency, now)); err != nil {
			return fmt.Errorf("failed to notify winner: %w", err)
		}

		result.Outcome = models.CallbackApplied
		sold = a.Clone()
		return nil
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return &Result{Outcome: models.CallbackDuplicate, PaymentID: payment.ID, AuctionID: payment.AuctionID, Detail: err.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	if sold != nil {
		metrics.LifecycleTransitions.WithLabelValues(string(models.AuctionStatusSold)).Inc()
		auctions.Publish(ctx, c.publisher, auctions.NewEvent(auctions.EventAuctionSold, sold, c.now()))
		slog.Info("Auction settled",
			slog.String("type", "pay"),
			slog.Int64("auction_id", sold.ID),
			slog.Int64("payment_id", payment.ID),
			slog.String("amount", payment.Amount.StringFixed(2)))
	}
	return result, nil
}

// FailSettlement marks an open payment failed. Settled payments are left alone.
func (c *Coordinator) FailSettlement(ctx context.Context, conf *Confirmation) (*Result, error) {
	payment, err := c.resolve(ctx, conf)
	if err != nil {
		if domain.IsNotFound(err) {
			return &Result{Outcome: models.CallbackUnmatched, Detail: err.Error()}, nil
		}
		return nil, fmt.Errorf("failed to resolve payment: %w", err)
	}

	result := &Result{Outcome: models.CallbackIgnored, PaymentID: payment.ID, AuctionID: payment.AuctionID}
	err = c.auctions.WithAuction(ctx, payment.AuctionID, func(ctx context.Context, tx auctions.Tx) error {
		existing, err := tx.Payments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list payments: %w", err)
		}
		for _, p := range existing {
			if p.ID != payment.ID || !p.Status.Open() {
				continue
			}
			p.Status = models.PaymentStatusFailed
			p.UpdatedAt = c.now()
			if err := tx.SavePayment(ctx, p); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
			result.Outcome = models.CallbackApplied
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HandleStripeWebhook verifies and applies a Stripe event. Only a bad
// signature is returned to the caller; processing errors are logged and
// recorded for reconciliation.
func (c *Coordinator) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if c.gateways.Stripe == nil {
		return domain.ErrInvalidRequest.WithMessage("stripe is not configured")
	}
	conf, err := c.gateways.Stripe.VerifyWebhook(payload, signature)
	if err != nil {
		slog.Warn("Rejected Stripe webhook",
			slog.String("type", "pay"),
			slog.String("error", err.Error()))
		return err
	}
	c.apply(ctx, conf)
	return nil
}

// HandlePayFastNotify verifies and applies a PayFast ITN from its raw
// form body. The body is kept as posted since the signature covers the
// fields in that order.
func (c *Coordinator) HandlePayFastNotify(ctx context.Context, body []byte) error {
	if c.gateways.PayFast == nil {
		return domain.ErrInvalidRequest.WithMessage("payfast is not configured")
	}
	conf, err := c.gateways.PayFast.VerifyNotify(body)
	if err != nil {
		slog.Warn("Rejected PayFast notification",
			slog.String("type", "pay"),
			slog.String("error", err.Error()))
		return err
	}
	c.apply(ctx, conf)
	return nil
}

func (c *Coordinator) apply(ctx context.Context, conf *Confirmation) {
	var (
		result *Result
		err    error
	)
	switch conf.Kind {
	case CallbackCompleted:
		result, err = c.ConfirmSettlement(ctx, conf)
	case CallbackFailed:
		result, err = c.FailSettlement(ctx, conf)
	case CallbackMalformed:
		result = &Result{Outcome: models.CallbackFailed, Detail: conf.Problem}
	default:
		result = &Result{Outcome: models.CallbackIgnored}
	}

	record := &models.PaymentCallback{
		Provider:       conf.Provider,
		EventID:        conf.EventID,
		EventType:      conf.EventType,
		Reference:      conf.Reference,
		Payload:        conf.Payload,
		SignatureValid: true,
		CreatedAt:      c.now(),
	}
	if record.Reference == "" {
		record.Reference = conf.SessionID
	}
	if err != nil {
		record.Outcome = models.CallbackFailed
		record.Error = err.Error()
		slog.Error("Failed to process payment callback",
			slog.String("type", "pay"),
			slog.String("provider", string(conf.Provider)),
			slog.String("event_id", conf.EventID),
			slog.String("error", err.Error()))
	} else {
		record.Outcome = result.Outcome
		record.Error = result.Detail
		if result.Outcome.NeedsReconciliation() {
			slog.Warn("Payment callback needs reconciliation",
				slog.String("type", "pay"),
				slog.String("provider", string(conf.Provider)),
				slog.String("event_id", conf.EventID),
				slog.String("outcome", string(result.Outcome)),
				slog.String("detail", result.Detail))
		}
	}
	metrics.Settlements.WithLabelValues(string(conf.Provider), string(record.Outcome)).Inc()

	if err := c.payments.RecordCallback(ctx, record); err != nil {
		slog.Error("Failed to record payment callback",
			slog.String("type", "pay"),
			slog.String("provider", string(conf.Provider)),
			slog.String("event_id", conf.EventID),
			slog.String("error", err.Error()))
	}
}

// Callbacks lists recorded callbacks for the reconciliation queue.
func (c *Coordinator) Callbacks(ctx context.Context, outcome models.CallbackOutcome, limit int) ([]*models.PaymentCallback, error) {
	if limit <= 0 || limit > DefaultCallbackLimit {
		limit = DefaultCallbackLimit
	}
	items, err := c.payments.ListCallbacks(ctx, outcome, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment callbacks: %w", err)
	}
	return items, nil
}
