// Package payfast builds signed PayFast checkout redirects and verifies
// Instant Transaction Notifications (ITN).
package payfast

import (
	"context"
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

var _ settlement.PayFastGateway = (*Gateway)(nil)

const (
	LiveProcessURL    = "https://www.payfast.co.za/eng/process"
	SandboxProcessURL = "https://sandbox.payfast.co.za/eng/process"

	statusComplete = "COMPLETE"
)

type Config struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	Sandbox     bool
	// ReturnURL and CancelURL may contain {auction_id}.
	ReturnURL string
	CancelURL string
	NotifyURL string
}

type Gateway struct {
	cfg        Config
	processURL string
}

func New(cfg Config) *Gateway {
	processURL := LiveProcessURL
	if cfg.Sandbox {
		processURL = SandboxProcessURL
	}
	return &Gateway{cfg: cfg, processURL: processURL}
}

func (g *Gateway) Name() models.PaymentProvider {
	return models.ProviderPayFast
}

type field struct {
	key   string
	value string
}

// encode joins fields the way PayFast signs them. Checkout redirects drop
// blank fields and trim values; ITN bodies are signed verbatim, blanks
// included.
func encode(fields []field, passphrase string, verbatim bool) string {
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		value := f.value
		if !verbatim {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
		}
		parts = append(parts, f.key+"="+url.QueryEscape(value))
	}
	if passphrase != "" {
		parts = append(parts, "passphrase="+url.QueryEscape(strings.TrimSpace(passphrase)))
	}
	return strings.Join(parts, "&")
}

func digest(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// signature is the lowercase MD5 PayFast expects over fields in order.
func signature(fields []field, passphrase string, verbatim bool) string {
	return digest(encode(fields, passphrase, verbatim))
}

// SignForm signs form the way VerifyNotify checks form.Encode(): every
// field except signature, sorted by key, blanks included.
func SignForm(form url.Values, passphrase string) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		if k != "signature" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]field, 0, len(keys))
	for _, k := range keys {
		for _, v := range form[k] {
			fields = append(fields, field{k, v})
		}
	}
	return signature(fields, passphrase, true)
}

// parseNotify splits an ITN body into its fields in posted order.
func parseNotify(body []byte) ([]field, url.Values, error) {
	var fields []field
	form := url.Values{}
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, nil, err
		}
		value, err := url.QueryUnescape(v)
		if err != nil {
			return nil, nil, err
		}
		fields = append(fields, field{key, value})
		form.Add(key, value)
	}
	return fields, form, nil
}

// CreateSession returns a signed redirect to the PayFast process page. PayFast
// has no session object so the payment reference doubles as the session id.
func (g *Gateway) CreateSession(_ context.Context, req settlement.CheckoutRequest) (*settlement.CheckoutSession, error) {
	if g.cfg.MerchantID == "" || g.cfg.MerchantKey == "" {
		return nil, domain.ErrInvalidRequest.WithMessage("payfast merchant credentials are not configured")
	}
	auctionID := strconv.FormatInt(req.AuctionID, 10)
	first, last := splitName(req.BidderName)

	fields := []field{
		{"merchant_id", g.cfg.MerchantID},
		{"merchant_key", g.cfg.MerchantKey},
		{"return_url", strings.ReplaceAll(g.cfg.ReturnURL, "{auction_id}", auctionID)},
		{"cancel_url", strings.ReplaceAll(g.cfg.CancelURL, "{auction_id}", auctionID)},
		{"notify_url", g.cfg.NotifyURL},
		{"name_first", first},
		{"name_last", last},
		{"email_address", req.BidderEmail},
		{"m_payment_id", req.Reference.String()},
		{"amount", req.Amount.StringFixed(2)},
		{"item_name", truncate(req.AuctionTitle, 100)},
		{"custom_int1", auctionID},
	}
	query := encode(fields, "", false)
	sig := signature(fields, g.cfg.Passphrase, false)

	return &settlement.CheckoutSession{
		SessionID: req.Reference.String(),
		URL:       g.processURL + "?" + query + "&signature=" + sig,
	}, nil
}

// VerifyNotify checks the ITN signature over the fields as posted, then the
// merchant, then maps the payment status. Only COMPLETE settles; a signed
// body with an unreadable amount comes back as CallbackMalformed.
func (g *Gateway) VerifyNotify(body []byte) (*settlement.Confirmation, error) {
	fields, form, err := parseNotify(body)
	if err != nil {
		return nil, domain.ErrInvalidRequest.WithMessage("malformed notification body")
	}
	signed := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key != "signature" {
			signed = append(signed, f)
		}
	}

	got := strings.ToLower(form.Get("signature"))
	want := signature(signed, g.cfg.Passphrase, true)
	if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		return nil, domain.ErrInvalidSignature
	}
	if g.cfg.MerchantID != "" && form.Get("merchant_id") != g.cfg.MerchantID {
		return nil, domain.ErrInvalidSignature.WithMessage("notification is for merchant %q", form.Get("merchant_id"))
	}

	status := strings.ToUpper(form.Get("payment_status"))
	conf := &settlement.Confirmation{
		Provider:          models.ProviderPayFast,
		Kind:              settlement.CallbackOther,
		EventID:           form.Get("pf_payment_id"),
		EventType:         status,
		SessionID:         form.Get("m_payment_id"),
		Reference:         form.Get("m_payment_id"),
		ProviderPaymentID: form.Get("pf_payment_id"),
		Payload:           string(body),
	}
	if status == statusComplete {
		conf.Kind = settlement.CallbackCompleted
	}
	if gross := form.Get("amount_gross"); gross != "" {
		amount, err := decimal.NewFromString(gross)
		if err != nil {
			conf.Kind = settlement.CallbackMalformed
			conf.Problem = fmt.Sprintf("malformed amount_gross %q", gross)
			return conf, nil
		}
		conf.Amount = &amount
	}
	return conf, nil
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, " "); i > 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
