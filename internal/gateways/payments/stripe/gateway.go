// Package stripe adapts Stripe Checkout to the settlement coordinator.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

var _ settlement.StripeGateway = (*Gateway)(nil)

const (
	eventCompleted           = "checkout.session.completed"
	eventAsyncSucceeded      = "checkout.session.async_payment_succeeded"
	eventExpired             = "checkout.session.expired"
	eventAsyncFailed         = "checkout.session.async_payment_failed"
	defaultTimeout           = 15 * time.Second
	defaultWebhookTolerance  = 5 * time.Minute
	auctionPlaceholder       = "{auction_id}"
	checkoutSessionPaidState = "paid"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	// SuccessURL and CancelURL may contain {auction_id}.
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
	// APIURL overrides the Stripe endpoint, for tests.
	APIURL string
}

type Gateway struct {
	sessions      *session.Client
	webhookSecret string
	successURL    string
	cancelURL     string
}

func New(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backendConfig := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripego.Int64(1),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelError},
	}
	if cfg.APIURL != "" {
		backendConfig.URL = stripego.String(cfg.APIURL)
	}
	return &Gateway{
		sessions: &session.Client{
			B:   stripego.GetBackendWithConfig(stripego.APIBackend, backendConfig),
			Key: cfg.SecretKey,
		},
		webhookSecret: cfg.WebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
	}
}

func (g *Gateway) Name() models.PaymentProvider {
	return models.ProviderStripe
}

// CreateSession opens a one-line-item payment session. The payment
// reference travels as client_reference_id and comes back on the webhook.
func (g *Gateway) CreateSession(ctx context.Context, req settlement.CheckoutRequest) (*settlement.CheckoutSession, error) {
	auctionID := strconv.FormatInt(req.AuctionID, 10)
	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(stripego.CheckoutSessionModePayment)),
		ClientReferenceID: stripego.String(req.Reference.String()),
		SuccessURL:        stripego.String(strings.ReplaceAll(g.successURL, auctionPlaceholder, auctionID)),
		CancelURL:         stripego.String(strings.ReplaceAll(g.cancelURL, auctionPlaceholder, auctionID)),
		LineItems: []*stripego.CheckoutSessionLineItemParams{
			{
				Quantity: stripego.Int64(1),
				PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripego.String(strings.ToLower(req.Currency)),
					UnitAmount: stripego.Int64(req.Amount.Shift(2).IntPart()),
					ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripego.String(req.AuctionTitle),
					},
				},
			},
		},
	}
	if req.BidderEmail != "" {
		params.CustomerEmail = stripego.String(req.BidderEmail)
	}
	params.Context = ctx
	params.AddMetadata("auction_id", auctionID)
	params.AddMetadata("payment_reference", req.Reference.String())
	params.SetIdempotencyKey("checkout-" + req.Reference.String())

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	return &settlement.CheckoutSession{SessionID: s.ID, URL: s.URL}, nil
}

// VerifyWebhook checks the Stripe-Signature header and maps checkout
// session events onto a Confirmation.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (*settlement.Confirmation, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                defaultWebhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, domain.ErrInvalidSignature.Wrap(err)
	}

	conf := &settlement.Confirmation{
		Provider:  models.ProviderStripe,
		Kind:      settlement.CallbackOther,
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   string(payload),
	}

	eventType := string(event.Type)
	if !strings.HasPrefix(eventType, "checkout.session.") || event.Data == nil {
		return conf, nil
	}

	var cs stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		conf.Kind = settlement.CallbackMalformed
		conf.Problem = fmt.Sprintf("malformed checkout session: %v", err)
		return conf, nil
	}
	conf.SessionID = cs.ID
	conf.Reference = cs.ClientReferenceID
	if conf.Reference == "" {
		conf.Reference = cs.Metadata["payment_reference"]
	}
	if cs.PaymentIntent != nil {
		conf.ProviderPaymentID = cs.PaymentIntent.ID
	}
	if cs.AmountTotal > 0 {
		amount := decimal.New(cs.AmountTotal, -2)
		conf.Amount = &amount
	}

	switch eventType {
	case eventCompleted:
		if string(cs.PaymentStatus) == checkoutSessionPaidState {
			conf.Kind = settlement.CallbackCompleted
		}
	case eventAsyncSucceeded:
		conf.Kind = settlement.CallbackCompleted
	case eventExpired, eventAsyncFailed:
		conf.Kind = settlement.CallbackFailed
	}
	return conf, nil
}
