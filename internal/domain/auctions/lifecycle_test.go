package auctions_test

import (
	"sync"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func Test_Sweep_Activation(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	now := h.clock.Now()
	a, err := h.manager.Create(h.ctx, input("Brabham BT46", now.Add(10*time.Minute), now.Add(2*time.Hour)))
	assert.NoError(t, err)
	a, err = h.manager.Publish(h.ctx, a.ID)
	assert.NoError(t, err)
	check.Equal(t, models.AuctionStatusScheduled, a.Status)

	report, err := h.sweeper.Run(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 0, report.Activated)

	h.clock.Advance(10 * time.Minute)
	report, err = h.sweeper.Run(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, report.Activated)
	check.Equal(t, models.AuctionStatusActive, h.get(t, a.ID).Status)

	report, err = h.sweeper.Run(h.ctx)
	assert.NoError(t, err)
	check.False(t, report.Changed())
}

func Test_Sweep_Close(t *testing.T) {
	tests := []struct {
		name       string
		reserve    string
		bids       []string
		wantStatus models.AuctionStatus
		wantWinner bool
	}{
		{name: "no bids", wantStatus: models.AuctionStatusUnsold},
		{name: "bids without reserve", bids: []string{"110", "120"}, wantStatus: models.AuctionStatusEnded, wantWinner: true},
		{name: "reserve met", reserve: "120", bids: []string{"110", "120"}, wantStatus: models.AuctionStatusEnded, wantWinner: true},
		{name: "reserve not met", reserve: "500", bids: []string{"110", "120"}, wantStatus: models.AuctionStatusUnsold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, auctions.Options{})
			alice := h.bidder(t, "Alice")
			bob := h.bidder(t, "Bob")
			a := h.live(t, "Tyrrell P34", time.Hour, func(in *auctions.AuctionInput) {
				if tt.reserve != "" {
					r := dec(tt.reserve)
					in.ReservePrice = &r
				}
			})

			bidders := []int64{alice.ID, bob.ID}
			var last int64
			for i, amount := range tt.bids {
				last = bidders[i%2]
				_, err := h.manager.PlaceBid(h.ctx, a.ID, last, dec(amount))
				assert.NoError(t, err)
			}

			h.clock.Advance(time.Hour)
			report, err := h.sweeper.Run(h.ctx)
			assert.NoError(t, err)
			check.Equal(t, 0, report.Failures)

			closed := h.get(t, a.ID)
			check.Equal(t, tt.wantStatus, closed.Status)
			if !tt.wantWinner {
				check.Nil(t, closed.WinnerID)
				check.Equal(t, 1, report.Unsold)
				return
			}

			check.Equal(t, 1, report.Ended)
			assert.NotNil(t, closed.WinnerID)
			check.Equal(t, last, *closed.WinnerID)
			check.True(t, closed.WinnerNotified)

			var winnerNotes int
			for _, n := range h.notificationsFor(t, last) {
				if n.Type == models.NotificationWinner {
					winnerNotes++
				}
			}
			check.Equal(t, 1, winnerNotes)
		})
	}
}

func Test_Sweep_Idempotent(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	alice := h.bidder(t, "Alice")
	a := h.live(t, "Lotus 49", time.Hour)
	_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
	assert.NoError(t, err)

	h.clock.Advance(2 * time.Hour)
	first, err := h.sweeper.Run(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, first.Ended)
	closed := h.get(t, a.ID)

	second, err := h.sweeper.Run(h.ctx)
	assert.NoError(t, err)
	check.False(t, second.Changed())

	again := h.get(t, a.ID)
	check.Equal(t, closed.Status, again.Status)
	check.True(t, closed.UpdatedAt.Equal(again.UpdatedAt))
	check.Equal(t, 1, len(h.notificationsFor(t, alice.ID)))
}

func Test_Sweep_ConcurrentRuns(t *testing.T) {
	h := newHarness(t, auctions.Options{SweepConcurrency: 3})
	bidder := h.bidder(t, "Alice")
	var ids []int64
	for i := 0; i < 12; i++ {
		a := h.live(t, "Scalextric lot "+string(rune('A'+i)), time.Hour)
		_, err := h.manager.PlaceBid(h.ctx, a.ID, bidder.ID, dec("110"))
		assert.NoError(t, err)
		ids = append(ids, a.ID)
	}
	h.clock.Advance(time.Hour)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ended int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report, err := h.sweeper.CloseDue(h.ctx)
			if err != nil {
				return
			}
			mu.Lock()
			ended += report.Ended
			mu.Unlock()
		}()
	}
	wg.Wait()

	check.Equal(t, len(ids), ended)
	var winnerNotes int
	for _, n := range h.notificationsFor(t, bidder.ID) {
		if n.Type == models.NotificationWinner {
			winnerNotes++
		}
	}
	check.Equal(t, len(ids), winnerNotes)
}

func Test_Sweep_BidAfterClose(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	alice := h.bidder(t, "Alice")
	bob := h.bidder(t, "Bob")
	a := h.live(t, "March 711", time.Hour)
	_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
	assert.NoError(t, err)

	h.clock.Advance(time.Hour)
	_, err = h.sweeper.CloseDue(h.ctx)
	assert.NoError(t, err)

	_, err = h.manager.PlaceBid(h.ctx, a.ID, bob.ID, dec("500"))
	check.Error(t, err)

	closed := h.get(t, a.ID)
	check.Equal(t, models.AuctionStatusEnded, closed.Status)
	check.Equal(t, alice.ID, *closed.WinnerID)
	check.True(t, closed.CurrentPrice.Equal(decimal.NewFromInt(110)))
}

func Test_Sweep_EndingSoon(t *testing.T) {
	h := newHarness(t, auctions.Options{EndingSoonWindow: 15 * time.Minute})
	alice := h.bidder(t, "Alice")
	bob := h.bidder(t, "Bob")
	carol := h.bidder(t, "Carol")
	a := h.live(t, "Matra MS80", time.Hour)

	_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
	assert.NoError(t, err)
	_, err = h.manager.SetWatching(h.ctx, alice.ID, a.ID, true)
	assert.NoError(t, err)
	_, err = h.manager.SetWatching(h.ctx, carol.ID, a.ID, true)
	assert.NoError(t, err)

	report, err := h.sweeper.NotifyEndingSoon(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 0, report.EndingSoon)

	h.clock.Advance(50 * time.Minute)
	report, err = h.sweeper.NotifyEndingSoon(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 2, report.EndingSoon)
	check.True(t, h.get(t, a.ID).EndingNotified)

	report, err = h.sweeper.NotifyEndingSoon(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 0, report.EndingSoon)

	ending := func(bidderID int64) int {
		var count int
		for _, n := range h.notificationsFor(t, bidderID) {
			if n.Type == models.NotificationAuctionEnding {
				count++
			}
		}
		return count
	}
	check.Equal(t, 1, ending(alice.ID))
	check.Equal(t, 0, ending(bob.ID))
	check.Equal(t, 1, ending(carol.ID))
}

func Test_Sweep_PaymentReminder(t *testing.T) {
	h := newHarness(t, auctions.Options{PaymentReminderAfter: 24 * time.Hour})
	alice := h.bidder(t, "Alice")
	a := h.live(t, "Cooper T53", time.Hour)
	_, err := h.manager.PlaceBid(h.ctx, a.ID, alice.ID, dec("110"))
	assert.NoError(t, err)

	h.clock.Advance(time.Hour)
	_, err = h.sweeper.Run(h.ctx)
	assert.NoError(t, err)

	h.clock.Advance(23 * time.Hour)
	report, err := h.sweeper.RemindUnpaid(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 0, report.PaymentReminders)

	h.clock.Advance(2 * time.Hour)
	report, err = h.sweeper.RemindUnpaid(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 1, report.PaymentReminders)

	report, err = h.sweeper.RemindUnpaid(h.ctx)
	assert.NoError(t, err)
	check.Equal(t, 0, report.PaymentReminders)
	check.True(t, h.get(t, a.ID).PaymentReminded)
}

func Test_Scheduler_StartShutdown(t *testing.T) {
	h := newHarness(t, auctions.Options{})
	now := h.clock.Now()
	a, err := h.manager.Create(h.ctx, input("Eagle T1G", now.Add(time.Minute), now.Add(time.Hour)))
	assert.NoError(t, err)
	_, err = h.manager.Publish(h.ctx, a.ID)
	assert.NoError(t, err)
	h.clock.Advance(time.Minute)

	scheduler := auctions.NewScheduler(h.sweeper, time.Hour)
	scheduler.Start()
	scheduler.Shutdown()
	scheduler.Shutdown()
	check.Equal(t, models.AuctionStatusActive, h.get(t, a.ID).Status)

	auctions.NewScheduler(h.sweeper, 0).Shutdown()
}
