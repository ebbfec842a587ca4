package backend_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/backend"
	"github.com/slotcarhq/auctionhouse/backend/handlers"
	"github.com/slotcarhq/auctionhouse/internal/auth"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/gateways/events"
	"github.com/slotcarhq/auctionhouse/internal/gateways/memory"
	"github.com/slotcarhq/auctionhouse/internal/gateways/payments/payfast"
	"github.com/slotcarhq/auctionhouse/internal/gateways/payments/stripe"
)

const (
	cronSecret     = "cron-secret"
	jwtSecret      = "jwt-secret"
	sessionKey     = "session-key"
	webhookSecret  = "whsec_test"
	passphrase     = "jt7NOE43FZPn"
	merchantID     = "10000100"
	bidderCookie   = auth.BidderCookieName
	adminCookie    = auth.AdminCookieName
	jsonContent    = "application/json"
	formURLEncoded = "application/x-www-form-urlencoded"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	ctx      context.Context
	clock    *fakeClock
	store    *memory.Store
	manager  *auctions.Manager
	tokens   *auth.Tokens
	sessions *auth.Sessions
	app      *fiber.App
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	store := memory.New().WithClock(clock.Now)
	opts := auctions.Options{Now: clock.Now}
	manager := auctions.NewManager(store, store, store, events.Nop{}, opts)
	coordinator := settlement.NewCoordinator(store, store, settlement.Gateways{
		Stripe:  stripe.New(stripe.Config{SecretKey: "sk_test", WebhookSecret: webhookSecret}),
		PayFast: payfast.New(payfast.Config{MerchantID: merchantID, MerchantKey: "46f0cd694581a", Passphrase: passphrase}),
	}, events.Nop{}, settlement.Options{Now: clock.Now})
	bidderService, err := bidders.NewService(store, 16)
	assert.NoError(t, err)

	e := &env{
		ctx:      ctx,
		clock:    clock,
		store:    store,
		manager:  manager,
		tokens:   auth.NewTokens(jwtSecret, time.Hour),
		sessions: auth.NewSessions(sessionKey),
	}
	e.app = backend.NewApp(ctx, &handlers.WebApp{
		Auctions:      manager,
		Sweeper:       auctions.NewSweeper(store, events.Nop{}, opts),
		Settlement:    coordinator,
		Notifications: notifications.NewService(store),
		Bidders:       bidderService,
		Tokens:        e.tokens,
		Sessions:      e.sessions,
		DB:            store,
		CronSecret:    cronSecret,
		Version:       "test",
	}, backend.Options{BidsPerMinute: 100})
	return e
}

func (e *env) token(t *testing.T, name string) string {
	t.Helper()
	token, err := e.tokens.IssueBidder(bidders.Identity{
		ExternalRef: "cust-" + name,
		DisplayName: name,
		Email:       name + "@example.com",
	})
	assert.NoError(t, err)
	return token
}

func (e *env) adminCookie(t *testing.T) string {
	t.Helper()
	value, err := e.sessions.Sign(e.sessions.NewAdmin("ops", time.Hour))
	assert.NoError(t, err)
	return adminCookie + "=" + value
}

func (e *env) auction(t *testing.T, title string, mutate ...func(*auctions.AuctionInput)) *models.Auction {
	t.Helper()
	now := e.clock.Now()
	in := auctions.AuctionInput{
		Title:         title,
		Brand:         "Scalextric",
		Scale:         "1:32",
		Condition:     models.ConditionMint,
		StartingPrice: decimal.RequireFromString("100"),
		BidIncrement:  decimal.RequireFromString("10"),
		StartsAt:      now.Add(-time.Hour),
		EndsAt:        now.Add(time.Hour),
	}
	for _, fn := range mutate {
		fn(&in)
	}
	a, err := e.manager.Create(e.ctx, in)
	assert.NoError(t, err)
	return a
}

func (e *env) live(t *testing.T, title string, mutate ...func(*auctions.AuctionInput)) *models.Auction {
	t.Helper()
	a := e.auction(t, title, mutate...)
	a, err := e.manager.Publish(e.ctx, a.ID)
	assert.NoError(t, err)
	return a
}

type request struct {
	method      string
	path        string
	body        string
	contentType string
	headers     map[string]string
}

func (e *env) do(t *testing.T, r request) (int, []byte) {
	t.Helper()
	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	req := httptest.NewRequest(r.method, r.path, body)
	if r.body != "" {
		contentType := r.contentType
		if contentType == "" {
			contentType = jsonContent
		}
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	return resp.StatusCode, raw
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	assert.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func Test_Health(t *testing.T) {
	e := newEnv(t)
	status, raw := e.do(t, request{method: http.MethodGet, path: "/health"})
	check.Equal(t, http.StatusOK, status)
	body := decode[map[string]string](t, raw)
	check.Equal(t, "healthy", body["status"])
	check.Equal(t, "test", body["version"])
}

func Test_UnknownRoute(t *testing.T) {
	e := newEnv(t)
	status, raw := e.do(t, request{method: http.MethodGet, path: "/nope"})
	check.Equal(t, http.StatusNotFound, status)
	env := decode[errorEnvelope](t, raw)
	check.False(t, env.Success)
	check.Equal(t, "NOT_FOUND", env.Error.Code)
}

func Test_PublicCatalog(t *testing.T) {
	e := newEnv(t)
	draft := e.auction(t, "Draft Porsche 917")
	live := e.live(t, "Ferrari 312 T4", func(in *auctions.AuctionInput) {
		reserve := decimal.RequireFromString("500")
		in.ReservePrice = &reserve
	})

	status, raw := e.do(t, request{method: http.MethodGet, path: "/auctions"})
	check.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Auctions []map[string]any `json:"auctions"`
		Total    int              `json:"total"`
		Page     int              `json:"page"`
	}](t, raw)
	check.Equal(t, 1, page.Total)
	check.Equal(t, 1, page.Page)
	check.Equal(t, live.Slug, fmt.Sprint(page.Auctions[0]["slug"]))
	check.False(t, strings.Contains(string(raw), "reservePrice"))

	status, raw = e.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/auctions/%d", draft.ID)})
	check.Equal(t, http.StatusNotFound, status)
	check.Equal(t, "AUCTION_NOT_FOUND", decode[errorEnvelope](t, raw).Error.Code)

	status, raw = e.do(t, request{method: http.MethodGet, path: "/auctions/" + live.Slug})
	check.Equal(t, http.StatusOK, status)
	detail := decode[map[string]any](t, raw)
	check.Equal(t, "true", fmt.Sprint(detail["hasReserve"]))
	check.Equal(t, "false", fmt.Sprint(detail["reserveMet"]))
	check.Equal(t, "false", fmt.Sprint(detail["watching"]))
	_, hasReserve := detail["reservePrice"]
	check.False(t, hasReserve)

	status, raw = e.do(t, request{method: http.MethodGet, path: "/auctions?sort=cheapest"})
	check.Equal(t, http.StatusBadRequest, status)
	check.Equal(t, "INVALID_REQUEST", decode[errorEnvelope](t, raw).Error.Code)

	status, raw = e.do(t, request{method: http.MethodGet, path: "/auctions?page=9223372036854775807"})
	assert.Equal(t, http.StatusOK, status)
	check.Equal(t, 0, len(decode[auctions.Page](t, raw).Auctions))
}

func Test_PlaceBid(t *testing.T) {
	e := newEnv(t)
	a := e.live(t, "Lancia Stratos")
	path := fmt.Sprintf("/auctions/%d/bids", a.ID)

	t.Run("requires a bidder", func(t *testing.T) {
		status, raw := e.do(t, request{method: http.MethodPost, path: path, body: `{"amount":"110"}`})
		check.Equal(t, http.StatusUnauthorized, status)
		env := decode[errorEnvelope](t, raw)
		check.False(t, env.Success)
		check.Equal(t, "UNAUTHORIZED", env.Error.Code)
	})

	t.Run("rejects a forged token", func(t *testing.T) {
		forged, err := auth.NewTokens("other-secret", time.Hour).IssueBidder(bidders.Identity{ExternalRef: "cust-x"})
		assert.NoError(t, err)
		status, _ := e.do(t, request{method: http.MethodPost, path: path, body: `{"amount":"110"}`, headers: bearer(forged)})
		check.Equal(t, http.StatusUnauthorized, status)
	})

	alice := e.token(t, "Alice")
	bob := e.token(t, "Bob")

	t.Run("accepts the minimum bid", func(t *testing.T) {
		status, raw := e.do(t, request{method: http.MethodPost, path: path, body: `{"amount":110}`, headers: bearer(alice)})
		check.Equal(t, http.StatusCreated, status)
		body := decode[map[string]any](t, raw)
		check.Equal(t, "110", fmt.Sprint(body["newPrice"]))
		check.Equal(t, "1", fmt.Sprint(body["bidCount"]))
	})

	t.Run("leader cannot outbid themselves", func(t *testing.T) {
		status, raw := e.do(t, request{method: http.MethodPost, path: path, body: `{"amount":"130"}`, headers: bearer(alice)})
		check.Equal(t, http.StatusConflict, status)
		check.Equal(t, "ALREADY_HIGHEST_BIDDER", decode[errorEnvelope](t, raw).Error.Code)
	})

	t.Run("rejects a bid below the increment", func(t *testing.T) {
		status, raw := e.do(t, request{
			method:  http.MethodPost,
			path:    path,
			body:    `{"amount":"115"}`,
			headers: map[string]string{"Cookie": bidderCookie + "=" + bob},
		})
		check.Equal(t, http.StatusBadRequest, status)
		check.Equal(t, "INVALID_BID", decode[errorEnvelope](t, raw).Error.Code)
	})

	t.Run("outbids via cookie", func(t *testing.T) {
		status, _ := e.do(t, request{
			method:  http.MethodPost,
			path:    path,
			body:    `{"amount":"120"}`,
			headers: map[string]string{"Cookie": bidderCookie + "=" + bob},
		})
		check.Equal(t, http.StatusCreated, status)
	})

	t.Run("bids are listed highest first and masked", func(t *testing.T) {
		status, raw := e.do(t, request{method: http.MethodGet, path: path, headers: bearer(bob)})
		check.Equal(t, http.StatusOK, status)
		bids := decode[[]map[string]any](t, raw)
		assert.Equal(t, 2, len(bids))
		check.Equal(t, "120", fmt.Sprint(bids[0]["amount"]))
		check.Equal(t, "true", fmt.Sprint(bids[0]["isYou"]))
		check.Equal(t, "A***e", fmt.Sprint(bids[1]["bidder"]))
		check.False(t, strings.Contains(string(raw), "Alice"))
	})

	t.Run("outbid bidder sees one unread notification", func(t *testing.T) {
		status, raw := e.do(t, request{method: http.MethodGet, path: "/auctions/notifications", headers: bearer(alice)})
		check.Equal(t, http.StatusOK, status)
		feed := decode[struct {
			Notifications []map[string]any `json:"notifications"`
			UnreadCount   int              `json:"unreadCount"`
		}](t, raw)
		check.Equal(t, 1, feed.UnreadCount)
		assert.Equal(t, 1, len(feed.Notifications))
		check.Equal(t, string(models.NotificationOutbid), fmt.Sprint(feed.Notifications[0]["type"]))

		status, raw = e.do(t, request{method: http.MethodPut, path: "/auctions/notifications", body: `{"all":true}`, headers: bearer(alice)})
		check.Equal(t, http.StatusOK, status)
		check.Equal(t, 0, decode[map[string]int](t, raw)["unreadCount"])
	})

	t.Run("my bids lists the auction once", func(t *testing.T) {
		status, raw := e.do(t, request{method: http.MethodGet, path: "/auctions/my-bids", headers: bearer(alice)})
		check.Equal(t, http.StatusOK, status)
		rows := decode[[]map[string]any](t, raw)
		assert.Equal(t, 1, len(rows))
		check.Equal(t, "false", fmt.Sprint(rows[0]["isWinning"]))
	})
}

func Test_Watchlist(t *testing.T) {
	e := newEnv(t)
	a := e.live(t, "Ford GT40")
	token := e.token(t, "Casey")

	status, raw := e.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/auctions/%d/watch", a.ID), body: `{"action":"watch"}`, headers: bearer(token)})
	check.Equal(t, http.StatusOK, status)
	check.True(t, decode[map[string]bool](t, raw)["watching"])

	status, raw = e.do(t, request{method: http.MethodGet, path: "/auctions/" + a.Slug, headers: bearer(token)})
	check.Equal(t, http.StatusOK, status)
	check.Equal(t, "true", fmt.Sprint(decode[map[string]any](t, raw)["watching"]))

	status, raw = e.do(t, request{method: http.MethodGet, path: "/auctions/watchlist", headers: bearer(token)})
	check.Equal(t, http.StatusOK, status)
	check.Equal(t, 1, len(decode[[]map[string]any](t, raw)))

	status, _ = e.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/auctions/%d/watch", a.ID), body: `{"action":"stare"}`, headers: bearer(token)})
	check.Equal(t, http.StatusBadRequest, status)

	status, raw = e.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/auctions/%d/watch", a.ID), body: `{"action":"unwatch"}`, headers: bearer(token)})
	check.Equal(t, http.StatusOK, status)
	check.False(t, decode[map[string]bool](t, raw)["watching"])
}

func Test_Cron(t *testing.T) {
	e := newEnv(t)
	now := e.clock.Now()
	a := e.live(t, "McLaren M23", func(in *auctions.AuctionInput) {
		in.StartsAt = now.Add(time.Minute)
		in.EndsAt = now.Add(time.Hour)
	})
	check.Equal(t, models.AuctionStatusScheduled, a.Status)
	e.clock.Advance(2 * time.Minute)

	status, raw := e.do(t, request{method: http.MethodPost, path: "/auctions/cron"})
	check.Equal(t, http.StatusUnauthorized, status)
	check.Equal(t, "UNAUTHORIZED", decode[errorEnvelope](t, raw).Error.Code)

	status, _ = e.do(t, request{method: http.MethodPost, path: "/auctions/cron", headers: bearer("guess")})
	check.Equal(t, http.StatusUnauthorized, status)

	got, err := e.store.GetByID(e.ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionStatusScheduled, got.Status)

	status, raw = e.do(t, request{method: http.MethodPost, path: "/auctions/cron", headers: bearer(cronSecret)})
	check.Equal(t, http.StatusOK, status)
	check.Equal(t, 1, decode[auctions.SweepReport](t, raw).Activated)

	got, err = e.store.GetByID(e.ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionStatusActive, got.Status)
}

func Test_StripeWebhook(t *testing.T) {
	e := newEnv(t)
	payload := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`

	status, raw := e.do(t, request{
		method:  http.MethodPost,
		path:    "/auctions/payment/webhook",
		body:    payload,
		headers: map[string]string{"Stripe-Signature": "t=1,v1=deadbeef"},
	})
	check.Equal(t, http.StatusBadRequest, status)
	check.Equal(t, "INVALID_SIGNATURE", decode[errorEnvelope](t, raw).Error.Code)

	callbacks, err := e.store.ListCallbacks(e.ctx, "", 0)
	assert.NoError(t, err)
	check.Equal(t, 0, len(callbacks))
}

func Test_PayFastNotify(t *testing.T) {
	e := newEnv(t)
	form := url.Values{
		"merchant_id":    {merchantID},
		"m_payment_id":   {uuid.NewString()},
		"pf_payment_id":  {"1089250"},
		"payment_status": {"CANCELLED"},
		"amount_gross":   {"150.00"},
	}
	form.Set("signature", payfast.SignForm(form, passphrase))

	status, raw := e.do(t, request{method: http.MethodPost, path: "/auctions/payment/notify", body: form.Encode(), contentType: formURLEncoded})
	check.Equal(t, http.StatusOK, status)
	check.Equal(t, "OK", string(raw))

	form.Set("signature", "0123456789abcdef0123456789abcdef")
	status, raw = e.do(t, request{method: http.MethodPost, path: "/auctions/payment/notify", body: form.Encode(), contentType: formURLEncoded})
	check.Equal(t, http.StatusBadRequest, status)
	check.Equal(t, "INVALID_SIGNATURE", decode[errorEnvelope](t, raw).Error.Code)
}

func Test_CreatePayment(t *testing.T) {
	e := newEnv(t)
	a := e.live(t, "Brabham BT46")
	token := e.token(t, "Dana")

	status, raw := e.do(t, request{method: http.MethodPost, path: "/auctions/payment", body: `{}`, headers: bearer(token)})
	check.Equal(t, http.StatusBadRequest, status)
	check.Equal(t, "INVALID_REQUEST", decode[errorEnvelope](t, raw).Error.Code)

	status, raw = e.do(t, request{method: http.MethodPost, path: "/auctions/payment", body: fmt.Sprintf(`{"auctionId":%d}`, a.ID), headers: bearer(token)})
	check.Equal(t, http.StatusConflict, status)
	check.Equal(t, "AUCTION_CLOSED", decode[errorEnvelope](t, raw).Error.Code)

	status, raw = e.do(t, request{method: http.MethodPost, path: "/auctions/payment", body: fmt.Sprintf(`{"auctionId":%d,"provider":"paypal"}`, a.ID), headers: bearer(token)})
	check.Equal(t, http.StatusBadRequest, status)
	check.Equal(t, "INVALID_REQUEST", decode[errorEnvelope](t, raw).Error.Code)
}

func Test_Admin(t *testing.T) {
	e := newEnv(t)
	cookie := map[string]string{"Cookie": e.adminCookie(t)}

	status, _ := e.do(t, request{method: http.MethodGet, path: "/admin/auctions"})
	check.Equal(t, http.StatusUnauthorized, status)

	status, _ = e.do(t, request{method: http.MethodGet, path: "/admin/auctions", headers: map[string]string{"Cookie": adminCookie + "=tampered"}})
	check.Equal(t, http.StatusUnauthorized, status)

	now := e.clock.Now()
	create := fmt.Sprintf(`{
		"title": "Porsche 956 Rothmans",
		"condition": "excellent",
		"startingPrice": "200",
		"reservePrice": "350",
		"bidIncrement": "25",
		"startsAt": %q,
		"endsAt": %q
	}`, now.Add(-time.Minute).Format(time.RFC3339), now.Add(24*time.Hour).Format(time.RFC3339))
	status, raw := e.do(t, request{method: http.MethodPost, path: "/admin/auctions", body: create, headers: cookie})
	check.Equal(t, http.StatusCreated, status)
	created := decode[map[string]any](t, raw)
	check.Equal(t, "draft", fmt.Sprint(created["status"]))
	check.Equal(t, "350", fmt.Sprint(created["reservePrice"]))
	check.Equal(t, "porsche-956-rothmans", fmt.Sprint(created["slug"]))
	id := fmt.Sprint(created["id"])

	status, raw = e.do(t, request{method: http.MethodGet, path: "/admin/auctions", headers: cookie})
	check.Equal(t, http.StatusOK, status)
	page := decode[struct {
		Total int `json:"total"`
	}](t, raw)
	check.Equal(t, 1, page.Total)

	status, raw = e.do(t, request{method: http.MethodPost, path: "/admin/auctions/" + id + "/publish", headers: cookie})
	check.Equal(t, http.StatusOK, status)
	check.Equal(t, "active", fmt.Sprint(decode[map[string]any](t, raw)["status"]))

	status, raw = e.do(t, request{method: http.MethodDelete, path: "/admin/auctions/" + id, headers: cookie})
	check.Equal(t, http.StatusConflict, status)
	check.Equal(t, "INVALID_TRANSITION", decode[errorEnvelope](t, raw).Error.Code)

	status, raw = e.do(t, request{method: http.MethodPost, path: "/admin/categories", body: `{"name":"Formula 1"}`, headers: cookie})
	check.Equal(t, http.StatusCreated, status)
	check.Equal(t, "formula-1", fmt.Sprint(decode[map[string]any](t, raw)["slug"]))

	status, raw = e.do(t, request{method: http.MethodGet, path: "/admin/stats", headers: cookie})
	check.Equal(t, http.StatusOK, status)
	stats := decode[map[string]any](t, raw)
	check.Equal(t, "1", fmt.Sprint(stats["totalAuctions"]))
	check.Equal(t, "1", fmt.Sprint(stats["activeAuctions"]))

	status, raw = e.do(t, request{method: http.MethodPost, path: "/admin/auctions/" + id + "/images", headers: cookie})
	check.Equal(t, http.StatusServiceUnavailable, status)
	check.Equal(t, "STORAGE_DISABLED", decode[errorEnvelope](t, raw).Error.Code)
}

func Test_Admin_BanBlocksBidding(t *testing.T) {
	e := newEnv(t)
	cookie := map[string]string{"Cookie": e.adminCookie(t)}
	a := e.live(t, "Tyrrell P34")
	token := e.token(t, "Eden")

	// the profile is created on first authenticated request
	status, _ := e.do(t, request{method: http.MethodGet, path: "/auctions/my-bids", headers: bearer(token)})
	check.Equal(t, http.StatusOK, status)
	profile, err := e.store.GetBidderByExternalRef(e.ctx, "cust-Eden")
	assert.NoError(t, err)

	status, raw := e.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/admin/bidders/%d/ban", profile.ID), headers: cookie})
	check.Equal(t, http.StatusOK, status)
	check.True(t, decode[map[string]any](t, raw)["isBanned"] == true)

	bids := fmt.Sprintf("/auctions/%d/bids", a.ID)
	status, raw = e.do(t, request{method: http.MethodPost, path: bids, body: `{"amount":"110"}`, headers: bearer(token)})
	check.Equal(t, http.StatusForbidden, status)
	check.Equal(t, "BIDDER_BANNED", decode[errorEnvelope](t, raw).Error.Code)

	status, _ = e.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("/admin/bidders/%d/ban", profile.ID), headers: cookie})
	check.Equal(t, http.StatusOK, status)

	status, _ = e.do(t, request{method: http.MethodPost, path: bids, body: `{"amount":"110"}`, headers: bearer(token)})
	check.Equal(t, http.StatusCreated, status)
}
