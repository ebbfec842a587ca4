package auctions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/gateways/memory"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

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

type recorder struct {
	mu     sync.Mutex
	events []auctions.Event
}

func (r *recorder) Publish(_ context.Context, e auctions.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []auctions.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auctions.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	ctx     context.Context
	clock   *fakeClock
	store   *memory.Store
	events  *recorder
	manager *auctions.Manager
	sweeper *auctions.Sweeper
}

func newHarness(t *testing.T, opts auctions.Options) *harness {
	t.Helper()
	clock := &fakeClock{now: epoch}
	store := memory.New().WithClock(clock.Now)
	events := &recorder{}
	opts.Now = clock.Now
	return &harness{
		ctx:     context.Background(),
		clock:   clock,
		store:   store,
		events:  events,
		manager: auctions.NewManager(store, store, store, events, opts),
		sweeper: auctions.NewSweeper(store, events, opts),
	}
}

func (h *harness) bidder(t *testing.T, name string) *models.Bidder {
	t.Helper()
	b := &models.Bidder{ExternalRef: "cust-" + name, DisplayName: name, Email: name + "@example.com"}
	assert.NoError(t, h.store.UpsertBidder(h.ctx, b))
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func input(title string, start, end time.Time) auctions.AuctionInput {
	return auctions.AuctionInput{
		Title:         title,
		Brand:         "Scalextric",
		Scale:         "1:32",
		Condition:     models.ConditionMint,
		StartingPrice: dec("100"),
		BidIncrement:  dec("10"),
		StartsAt:      start,
		EndsAt:        end,
	}
}

// live creates and publishes an auction that started an hour ago and ends in endsIn.
func (h *harness) live(t *testing.T, title string, endsIn time.Duration, mutate ...func(*auctions.AuctionInput)) *models.Auction {
	t.Helper()
	now := h.clock.Now()
	in := input(title, now.Add(-time.Hour), now.Add(endsIn))
	for _, fn := range mutate {
		fn(&in)
	}
	a, err := h.manager.Create(h.ctx, in)
	assert.NoError(t, err)
	a, err = h.manager.Publish(h.ctx, a.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.AuctionStatusActive, a.Status)
	return a
}

func (h *harness) get(t *testing.T, id int64) *models.Auction {
	t.Helper()
	a, err := h.store.GetByID(h.ctx, id)
	assert.NoError(t, err)
	return a
}

func (h *harness) notificationsFor(t *testing.T, bidderID int64) []*models.Notification {
	t.Helper()
	items, err := h.store.ListByBidder(h.ctx, bidderID, false, 0)
	assert.NoError(t, err)
	return items
}
