package auctions_test

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func Test_Create_Validation(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	now := h.clock.Now()

	t.Run("collects every failure", func(t *testing.T) {
		in := input("", now.Add(time.Hour), now)
		in.Condition = "battered"
		_, err := h.manager.Create(h.ctx, in)
		assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
		check.True(t, strings.Contains(err.Error(), "title is required"))
		check.True(t, strings.Contains(err.Error(), "condition is invalid"))
		check.True(t, strings.Contains(err.Error(), "endsAt must be after startsAt"))
	})

	t.Run("reserve below starting price", func(t *testing.T) {
		in := input("Ferrari 156", now, now.Add(time.Hour))
		low := dec("50")
		in.ReservePrice = &low
		_, err := h.manager.Create(h.ctx, in)
		check.True(t, errors.Is(err, domain.ErrInvalidRequest))
	})

	t.Run("defaults", func(t *testing.T) {
		a, err := h.manager.Create(h.ctx, input("Ferrari 156 Sharknose!", now, now.Add(time.Hour)))
		assert.NoError(t, err)
		check.Equal(t, models.AuctionStatusDraft, a.Status)
		check.Equal(t, "ferrari-156-sharknose", a.Slug)
		check.Equal(t, auctions.DefaultAntiSnipeSeconds, a.AntiSnipeSeconds)
		check.True(t, a.OriginalEndTime.Equal(a.EndsAt))
		check.True(t, a.CurrentPrice.Equal(a.StartingPrice))
	})

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := h.manager.Create(h.ctx, input("Ferrari 156 sharknose", now, now.Add(time.Hour)))
		check.True(t, errors.Is(err, domain.ErrSlugTaken))
	})

	t.Run("unknown category", func(t *testing.T) {
		in := input("Ferrari 158", now, now.Add(time.Hour))
		missing := int64(99)
		in.CategoryID = &missing
		_, err := h.manager.Create(h.ctx, in)
		check.True(t, errors.Is(err, domain.ErrCategoryNotFound))
	})

	t.Run("title without ascii gets a generated slug", func(t *testing.T) {
		first, err := h.manager.Create(h.ctx, input("ブガッティ", now, now.Add(time.Hour)))
		assert.NoError(t, err)
		check.True(t, strings.HasPrefix(first.Slug, "auction-"))
		check.True(t, len(first.Slug) > len("auction-"))

		second, err := h.manager.Create(h.ctx, input("ブガッティ", now, now.Add(time.Hour)))
		assert.NoError(t, err)
		check.NotEqual(t, first.Slug, second.Slug)

		updated, err := h.manager.Update(h.ctx, first.ID, input("ブガッティ タイプ35", now, now.Add(2*time.Hour)))
		assert.NoError(t, err)
		check.Equal(t, first.Slug, updated.Slug)
	})

	t.Run("category name without ascii gets a generated slug", func(t *testing.T) {
		c, err := h.manager.CreateCategory(h.ctx, auctions.CategoryInput{Name: "ル・マン"})
		assert.NoError(t, err)
		check.True(t, strings.HasPrefix(c.Slug, "category-"))

		renamed, err := h.manager.UpdateCategory(h.ctx, c.ID, auctions.CategoryInput{Name: "ル・マン24時間"})
		assert.NoError(t, err)
		check.Equal(t, c.Slug, renamed.Slug)
	})
}

func Test_StatusTransitions(t *testing.T) {
	t.Run("publish, unpublish and edit", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		now := h.clock.Now()
		a, err := h.manager.Create(h.ctx, input("Williams FW07", now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.NoError(t, err)

		a, err = h.manager.Publish(h.ctx, a.ID)
		assert.NoError(t, err)
		check.Equal(t, models.AuctionStatusScheduled, a.Status)

		_, err = h.manager.Publish(h.ctx, a.ID)
		check.True(t, errors.Is(err, domain.ErrInvalidTransition))

		a, err = h.manager.Unpublish(h.ctx, a.ID)
		assert.NoError(t, err)
		check.Equal(t, models.AuctionStatusDraft, a.Status)

		in := input("Williams FW07B", now.Add(time.Hour), now.Add(3*time.Hour))
		a, err = h.manager.Update(h.ctx, a.ID, in)
		assert.NoError(t, err)
		check.Equal(t, "williams-fw07b", a.Slug)
		check.True(t, a.EndsAt.Equal(now.Add(3*time.Hour)))
	})

	t.Run("publish with a past end", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		now := h.clock.Now()
		a, err := h.manager.Create(h.ctx, input("Williams FW08", now.Add(-2*time.Hour), now.Add(-time.Hour)))
		assert.NoError(t, err)

		_, err = h.manager.Publish(h.ctx, a.ID)
		check.True(t, errors.Is(err, domain.ErrInvalidRequest))
		check.Equal(t, models.AuctionStatusDraft, h.get(t, a.ID).Status)
	})

	t.Run("active auctions cannot be edited", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		a := h.live(t, "Williams FW11", time.Hour)
		_, err := h.manager.Update(h.ctx, a.ID, input("changed", h.clock.Now(), h.clock.Now().Add(time.Hour)))
		check.True(t, errors.Is(err, domain.ErrInvalidTransition))
	})

	t.Run("cancel without bids", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		a := h.live(t, "Shadow DN5", time.Hour)
		a, err := h.manager.Cancel(h.ctx, a.ID)
		assert.NoError(t, err)
		check.Equal(t, models.AuctionStatusCancelled, a.Status)

		_, err = h.manager.Cancel(h.ctx, a.ID)
		check.True(t, errors.Is(err, domain.ErrInvalidTransition))
		check.Equal(t, auctions.EventAuctionCancelled, h.events.types()[len(h.events.types())-1])
	})

	t.Run("cancel with bids", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Shadow DN5", time.Hour)
		_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		assert.NoError(t, err)

		_, err = h.manager.Cancel(h.ctx, a.ID)
		check.True(t, errors.Is(err, domain.ErrCancelNotAllowed))
		check.Equal(t, models.AuctionStatusActive, h.get(t, a.ID).Status)
	})

	t.Run("delete only drafts", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		a := h.live(t, "Hesketh 308", time.Hour)
		check.True(t, errors.Is(h.manager.Delete(h.ctx, a.ID), domain.ErrInvalidTransition))

		now := h.clock.Now()
		draft, err := h.manager.Create(h.ctx, input("Hesketh 308B", now, now.Add(time.Hour)))
		assert.NoError(t, err)
		assert.NoError(t, h.manager.Delete(h.ctx, draft.ID))
		_, err = h.store.GetByID(h.ctx, draft.ID)
		check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
	})
}

func Test_Catalog(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	alice := h.bidder(t, "Alice")
	bob := h.bidder(t, "Bob")

	cat, err := h.manager.CreateCategory(h.ctx, auctions.CategoryInput{Name: "Formula 1"})
	assert.NoError(t, err)
	check.Equal(t, "formula-1", cat.Slug)

	f1 := h.live(t, "Ferrari 312T", 2*time.Hour, func(in *auctions.AuctionInput) {
		in.CategoryID = &cat.ID
		reserve := dec("1000")
		in.ReservePrice = &reserve
	})
	gt := h.live(t, "Ford GT40 Mk II", time.Hour, func(in *auctions.AuctionInput) {
		in.Brand = "Carrera"
	})
	now := h.clock.Now()
	draft, err := h.manager.Create(h.ctx, input("Secret prototype", now, now.Add(time.Hour)))
	assert.NoError(t, err)

	_, err = h.manager.PlaceBid(h.ctx, f1.ID, alice.ID, dec("110"))
	assert.NoError(t, err)
	_, err = h.manager.PlaceBid(h.ctx, f1.ID, bob.ID, dec("150"))
	assert.NoError(t, err)

	t.Run("public list hides drafts and sorts by ending soon", func(t *testing.T) {
		page, err := h.manager.List(h.ctx, auctions.Filter{})
		assert.NoError(t, err)
		check.Equal(t, 2, page.Total)
		assert.Equal(t, 2, len(page.Auctions))
		check.Equal(t, gt.ID, page.Auctions[0].ID)
		check.Equal(t, f1.ID, page.Auctions[1].ID)
		check.Equal(t, 1, page.TotalPages)
	})

	t.Run("filters", func(t *testing.T) {
		page, err := h.manager.List(h.ctx, auctions.Filter{CategorySlug: "formula-1"})
		assert.NoError(t, err)
		check.Equal(t, 1, page.Total)

		page, err = h.manager.List(h.ctx, auctions.Filter{Brand: "carrera"})
		assert.NoError(t, err)
		check.Equal(t, 1, page.Total)

		floor := dec("120")
		page, err = h.manager.List(h.ctx, auctions.Filter{MinPrice: &floor})
		assert.NoError(t, err)
		check.Equal(t, 1, page.Total)

		page, err = h.manager.List(h.ctx, auctions.Filter{Sort: auctions.SortMostBids})
		assert.NoError(t, err)
		check.Equal(t, f1.ID, page.Auctions[0].ID)

		page, err = h.manager.List(h.ctx, auctions.Filter{Search: "gt40"})
		assert.NoError(t, err)
		assert.Equal(t, 1, page.Total)
		check.Equal(t, gt.ID, page.Auctions[0].ID)
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		_, err := h.manager.List(h.ctx, auctions.Filter{Sort: "cheapest"})
		check.True(t, errors.Is(err, domain.ErrInvalidRequest))
		_, err = h.manager.List(h.ctx, auctions.Filter{Statuses: []models.AuctionStatus{models.AuctionStatusDraft}})
		check.True(t, errors.Is(err, domain.ErrInvalidRequest))
		lo, hi := dec("10"), dec("5")
		_, err = h.manager.List(h.ctx, auctions.Filter{MinPrice: &lo, MaxPrice: &hi})
		check.True(t, errors.Is(err, domain.ErrInvalidRequest))
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		page, err := h.manager.List(h.ctx, auctions.Filter{Page: math.MaxInt64})
		assert.NoError(t, err)
		check.Equal(t, 2, page.Total)
		check.Equal(t, 0, len(page.Auctions))
		check.Equal(t, auctions.MaxPage(auctions.DefaultPageSize), page.Page)

		admin, err := h.manager.AdminList(h.ctx, auctions.Filter{Page: math.MaxInt64, Limit: 7})
		assert.NoError(t, err)
		check.Equal(t, 0, len(admin.Auctions))
	})

	t.Run("offset never overflows", func(t *testing.T) {
		check.Equal(t, 0, auctions.Filter{Page: 0, Limit: 20}.Offset())
		check.Equal(t, 40, auctions.Filter{Page: 3, Limit: 20}.Offset())
		check.True(t, auctions.Filter{Page: math.MaxInt64, Limit: 20}.Offset() > 0)
	})

	t.Run("get by id or slug", func(t *testing.T) {
		a, err := h.manager.Get(h.ctx, f1.Slug, true)
		assert.NoError(t, err)
		check.Equal(t, f1.ID, a.ID)
		check.Equal(t, "Formula 1", a.Category.Name)

		_, err = h.manager.Get(h.ctx, "999", true)
		check.True(t, errors.Is(err, domain.ErrAuctionNotFound))

		_, err = h.manager.Get(h.ctx, draft.Slug, true)
		check.True(t, errors.Is(err, domain.ErrAuctionNotFound))

		a, err = h.manager.Get(h.ctx, draft.Slug, false)
		assert.NoError(t, err)
		check.Equal(t, draft.ID, a.ID)
	})

	t.Run("public view never carries the reserve", func(t *testing.T) {
		a, err := h.manager.Get(h.ctx, f1.Slug, true)
		assert.NoError(t, err)
		view := h.manager.View(a)
		check.True(t, view.HasReserve)
		check.False(t, view.ReserveMet)
		check.Equal(t, "160", view.MinimumBid.String())

		body, err := json.Marshal(view)
		assert.NoError(t, err)
		check.False(t, strings.Contains(string(body), "reserve\""))
		check.False(t, strings.Contains(string(body), "1000"))
		check.False(t, strings.Contains(string(body), "reservePrice"))

		admin, err := json.Marshal(h.manager.AdminView(a))
		assert.NoError(t, err)
		check.True(t, strings.Contains(string(admin), "reservePrice"))
	})

	t.Run("bids are masked and highest first", func(t *testing.T) {
		bids, err := h.manager.Bids(h.ctx, f1.ID, alice.ID)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(bids))
		check.Equal(t, "150", bids[0].Amount.String())
		check.Equal(t, "B***b", bids[0].Bidder)
		check.False(t, bids[0].IsYou)
		check.True(t, bids[1].IsYou)
		check.Equal(t, "A***e", bids[1].Bidder)
	})

	t.Run("my bids", func(t *testing.T) {
		mine, err := h.manager.MyBids(h.ctx, alice.ID)
		assert.NoError(t, err)
		assert.Equal(t, 1, len(mine))
		check.Equal(t, f1.ID, mine[0].Auction.ID)
		check.False(t, mine[0].IsWinning)
		check.Equal(t, "110", mine[0].HighestBid.String())
	})

	t.Run("watchlist is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			watching, err := h.manager.SetWatching(h.ctx, alice.ID, gt.ID, true)
			assert.NoError(t, err)
			check.True(t, watching)
		}
		items, err := h.manager.Watchlist(h.ctx, alice.ID)
		assert.NoError(t, err)
		check.Equal(t, 1, len(items))

		for i := 0; i < 2; i++ {
			watching, err := h.manager.SetWatching(h.ctx, alice.ID, gt.ID, false)
			assert.NoError(t, err)
			check.False(t, watching)
		}
		ok, err := h.manager.IsWatching(h.ctx, alice.ID, gt.ID)
		assert.NoError(t, err)
		check.False(t, ok)

		_, err = h.manager.SetWatching(h.ctx, alice.ID, draft.ID, true)
		check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
	})

	t.Run("stats", func(t *testing.T) {
		stats, err := h.manager.Stats(h.ctx)
		assert.NoError(t, err)
		check.Equal(t, 3, stats.TotalAuctions)
		check.Equal(t, 2, stats.ActiveAuctions)
		check.Equal(t, 2, stats.TotalBids)
		check.True(t, stats.TotalRevenue.IsZero())
	})
}

func Test_Slugify(t *testing.T) {
	tests := map[string]string{
		"Ferrari 312T":           "ferrari-312t",
		"  --Ford GT40 Mk. II--": "ford-gt40-mk-ii",
		"1:32 Scale!!":           "1-32-scale",
		"":                       "",
	}
	for in, want := range tests {
		check.Equal(t, want, auctions.Slugify(in))
	}
}

func Test_MaskName(t *testing.T) {
	tests := map[string]string{
		"Jamie": "J***e",
		"Bob":   "B***b",
		"Al":    "**",
		"":      "Anonymous",
		"Zoë":   "Z***ë",
	}
	for in, want := range tests {
		check.Equal(t, want, auctions.MaskName(in))
	}
}
