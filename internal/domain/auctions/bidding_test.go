package auctions_test

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func Test_PlaceBid_Validation(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{name: "below starting price plus increment", amount: "105", wantErr: domain.ErrInvalidBid},
		{name: "equal to starting price", amount: "100", wantErr: domain.ErrInvalidBid},
		{name: "negative", amount: "-5", wantErr: domain.ErrInvalidBid},
		{name: "zero", amount: "0", wantErr: domain.ErrInvalidBid},
		{name: "sub-cent precision", amount: "110.001", wantErr: domain.ErrInvalidBid},
		{name: "exact minimum", amount: "110"},
		{name: "above minimum with cents", amount: "123.45"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, auctions.Options{})
			bidder := h.bidder(t, "Jamie")
			a := h.live(t, "Ferrari 312", time.Hour)

			result, err := h.manager.PlaceBid(h.ctx, a.ID, bidder.ID, dec(tt.amount))
			if tt.wantErr != nil {
				check.True(t, errors.Is(err, tt.wantErr))
				check.Nil(t, result)

				after := h.get(t, a.ID)
				check.Equal(t, 0, after.BidCount)
				check.Equal(t, "100", after.CurrentPrice.String())
				return
			}

			assert.NoError(t, err)
			check.Equal(t, dec(tt.amount).String(), result.NewPrice.String())
			check.Equal(t, 1, result.BidCount)
			check.False(t, result.Extended)
		})
	}
}

func Test_PlaceBid_MinimumMessage(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	bidder := h.bidder(t, "Jamie")
	a := h.live(t, "Ferrari 312", time.Hour)

	_, err := h.manager.PlaceBid(h.ctx, a.ID, bidder.ID, dec("101"))
	var de *domain.Error
	assert.True(t, errors.As(err, &de))
	check.Equal(t, "INVALID_BID", de.Code)
	check.Equal(t, "bid must be at least 110.00", de.Message)
}

func Test_PlaceBid_Outbid(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	alice := h.bidder(t, "Alice")
	bob := h.bidder(t, "Bob")
	a := h.live(t, "Porsche 917", time.Hour)

	_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
	assert.NoError(t, err)
	check.Equal(t, 0, len(h.notificationsFor(t, alice.ID)))

	result, err := h.manager.PlaceBid(h.ctx, a.ID, bob.ID, dec("120"))
	assert.NoError(t, err)
	check.Equal(t, "120", result.NewPrice.String())
	check.Equal(t, 2, result.BidCount)

	notes := h.notificationsFor(t, alice.ID)
	assert.Equal(t, 1, len(notes))
	check.Equal(t, models.NotificationOutbid, notes[0].Type)
	check.Equal(t, a.ID, *notes[0].AuctionID)
	check.Equal(t, 0, len(h.notificationsFor(t, bob.ID)))

	bids, err := h.store.ListBids(h.ctx, a.ID, 0)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(bids))
	check.Equal(t, bob.ID, bids[0].BidderID)
	check.True(t, bids[0].IsWinning)
	check.False(t, bids[1].IsWinning)

	check.Equal(t, []auctions.EventType{auctions.EventAuctionActivated, auctions.EventBidPlaced, auctions.EventBidPlaced}, h.events.types())
}

func Test_PlaceBid_Rejections(t *testing.T) {
	t.Run("current leader re-bids", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Lola T70", time.Hour)

		_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		assert.NoError(t, err)
		_, err = h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("150"))
		check.True(t, errors.Is(err, domain.ErrAlreadyHighestBidder))
		check.Equal(t, domain.KindConflict, domain.KindOf(err))
		check.Equal(t, 1, h.get(t, a.ID).BidCount)
	})

	t.Run("banned bidder", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Lola T70", time.Hour)
		assert.NoError(t, h.store.SetBanned(h.ctx, alice.ID, true))

		_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		check.True(t, errors.Is(err, domain.ErrBidderBanned))
		check.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("unknown auction", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")

		_, err := h.manager.PlaceBid(h.ctx, 404, alice.ID, dec("110"))
		check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
	})

	t.Run("past ends_at before any sweep", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Lola T70", time.Minute)
		h.clock.Advance(time.Minute)

		_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		check.True(t, errors.Is(err, domain.ErrAuctionClosed))
		check.Equal(t, models.AuctionStatusActive, h.get(t, a.ID).Status)
	})

	t.Run("scheduled auction", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		now := h.clock.Now()
		a, err := h.manager.Create(h.ctx, input("Chaparral 2J", now.Add(time.Hour), now.Add(2*time.Hour)))
		assert.NoError(t, err)
		_, err = h.manager.Publish(h.ctx, a.ID)
		assert.NoError(t, err)

		_, err = h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		check.True(t, errors.Is(err, domain.ErrAuctionClosed))
	})
}

func Test_PlaceBid_AntiSnipe(t *testing.T) {
	t.Run("bid inside the window extends", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Ford GT40", time.Minute)

		result, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		assert.NoError(t, err)
		check.True(t, result.Extended)
		check.True(t, result.EndsAt.Equal(h.clock.Now().Add(auctions.DefaultAntiSnipeSeconds*time.Second)))

		after := h.get(t, a.ID)
		check.True(t, after.EndsAt.Equal(result.EndsAt))
		check.True(t, after.OriginalEndTime.Equal(a.OriginalEndTime))
	})

	t.Run("bid outside the window keeps the deadline", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Ford GT40", time.Hour)

		result, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		assert.NoError(t, err)
		check.False(t, result.Extended)
		check.True(t, result.EndsAt.Equal(a.EndsAt))
	})

	t.Run("each late bid resets the window up to the cap", func(t *testing.T) {
		h := newHarness(t, auctions.Options{AntiSnipeCap: 3 * time.Minute})
		alice := h.bidder(t, "Alice")
		bob := h.bidder(t, "Bob")
		a := h.live(t, "Ford GT40", 30*time.Second)
		ceiling := a.OriginalEndTime.Add(3 * time.Minute)

		bidders := []int64{alice.ID, bob.ID}
		amount := dec("110")
		for i := 0; i < 10; i++ {
			result, err := h.manager.PlaceBid(h.ctx, a.ID, bidders[i%2], amount)
			assert.NoError(t, err)
			check.False(t, result.EndsAt.After(ceiling))
			amount = amount.Add(dec("10"))
			h.clock.Advance(60 * time.Second)
			if !h.clock.Now().Before(result.EndsAt) {
				break
			}
		}
		check.True(t, h.get(t, a.ID).EndsAt.Equal(ceiling))
	})

	t.Run("zero anti-snipe never extends", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		alice := h.bidder(t, "Alice")
		a := h.live(t, "Ford GT40", 10*time.Second, func(in *auctions.AuctionInput) {
			zero := 0
			in.AntiSnipeSeconds = &zero
		})

		result, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
		assert.NoError(t, err)
		check.False(t, result.Extended)
	})
}

func Test_ExtendDeadline(t *testing.T) {
	now := epoch
	tests := []struct {
		name     string
		endsAt   time.Time
		original time.Time
		limit    time.Duration
		want     time.Time
		extended bool
	}{
		{name: "outside window", endsAt: now.Add(5 * time.Minute), original: now.Add(5 * time.Minute), want: now.Add(5 * time.Minute)},
		{name: "exactly at window edge", endsAt: now.Add(2 * time.Minute), original: now.Add(2 * time.Minute), want: now.Add(2 * time.Minute)},
		{name: "inside window", endsAt: now.Add(30 * time.Second), original: now.Add(30 * time.Second), want: now.Add(2 * time.Minute), extended: true},
		{name: "capped", endsAt: now.Add(30 * time.Second), original: now.Add(-time.Minute), limit: 2 * time.Minute, want: now.Add(time.Minute), extended: true},
		{name: "cap already reached", endsAt: now.Add(30 * time.Second), original: now.Add(-90 * time.Second), limit: 2 * time.Minute, want: now.Add(30 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.Auction{EndsAt: tt.endsAt, OriginalEndTime: tt.original, AntiSnipeSeconds: 120}
			extended := auctions.ExtendDeadline(a, now, tt.limit)
			check.Equal(t, tt.extended, extended)
			check.True(t, a.EndsAt.Equal(tt.want))
		})
	}
}

func Test_PlaceBid_Concurrent(t *testing.T) {
	t.Run("same amount from many bidders", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		a := h.live(t, "McLaren M8", time.Hour)

		const n = 25
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = h.bidder(t, "bidder"+string(rune('A'+i))).ID
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
			tooLow   int
		)
		for _, id := range ids {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.manager.PlaceBid(h.ctx, a.ID, id, dec("110"))
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					accepted++
				case errors.Is(err, domain.ErrInvalidBid):
					tooLow++
				}
			}()
		}
		wg.Wait()

		check.Equal(t, 1, accepted)
		check.Equal(t, n-1, tooLow)
		check.Equal(t, 1, h.get(t, a.ID).BidCount)
	})

	t.Run("rising amounts keep the ledger consistent", func(t *testing.T) {
		h := newHarness(t, auctions.Options{})
		a := h.live(t, "McLaren M8", time.Hour)

		const n = 40
		var (
			wg  sync.WaitGroup
			top int64
		)
		for i := 0; i < n; i++ {
			bidder := h.bidder(t, "racer"+strconv.Itoa(i))
			amount := dec("110").Add(decimal.NewFromInt(int64(i * 10)))
			if i == n-1 {
				top = bidder.ID
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = h.manager.PlaceBid(h.ctx, a.ID, bidder.ID, amount)
			}()
		}
		wg.Wait()

		// 500 always clears the minimum, so it must end up leading.
		after := h.get(t, a.ID)
		check.True(t, after.CurrentPrice.Equal(dec("500")))
		bids, err := h.store.ListBids(h.ctx, a.ID, 0)
		assert.NoError(t, err)
		check.Equal(t, after.BidCount, len(bids))
		assert.True(t, len(bids) > 0)
		check.True(t, bids[0].IsWinning)
		check.True(t, bids[0].Amount.Equal(dec("500")))
		check.Equal(t, top, bids[0].BidderID)

		winning := 0
		for i, b := range bids {
			if b.IsWinning {
				winning++
				check.Equal(t, 0, i)
				check.True(t, b.Amount.Equal(after.CurrentPrice))
			}
			if i > 0 {
				check.True(t, bids[i-1].Amount.GreaterThan(b.Amount))
			}
		}
		check.Equal(t, 1, winning)
	})
}
