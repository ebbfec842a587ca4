package auctions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const perAuctionTimeout = 30 * time.Second

type SweepReport struct {
	Activated        int       `json:"activated"`
	Ended            int       `json:"ended"`
	Unsold           int       `json:"unsold"`
	EndingSoon       int       `json:"endingSoon"`
	PaymentReminders int       `json:"paymentReminders"`
	Failures         int       `json:"failures"`
	StartedAt        time.Time `json:"startedAt"`
	Took             string    `json:"took"`
}

// Changed reports whether the sweep touched any auction.
func (r *SweepReport) Changed() bool {
	return r.Activated+r.Ended+r.Unsold+r.EndingSoon+r.PaymentReminders > 0
}

// Sweeper drives the time-based transitions of the auction state machine.
// Every step re-checks its precondition under the auction lock, so sweeps are
// idempotent and safe to run concurrently with each other and with bidding.
type Sweeper struct {
	repo      Repository
	publisher Publisher
	opts      Options
}

func NewSweeper(repo Repository, publisher Publisher, opts Options) *Sweeper {
	return &Sweeper{repo: repo, publisher: publisher, opts: opts.withDefaults()}
}

func (s *Sweeper) now() time.Time {
	return s.opts.Now().UTC()
}

// Run performs activation, closure, ending-soon and payment reminder sweeps.
func (s *Sweeper) Run(ctx context.Context) (*SweepReport, error) {
	ctx, span := tracer.Start(ctx, "auctions.Sweep")
	defer span.End()

	start := time.Now()
	report := &SweepReport{StartedAt: s.now()}

	steps := []struct {
		name string
		run  func(context.Context, *SweepReport) error
	}{
		{"activate", s.activateDue},
		{"close", s.closeDue},
		{"ending_soon", s.notifyEndingSoon},
		{"payment_reminder", s.remindUnpaid},
	}
	for _, step := range steps {
		if err := step.run(ctx, report); err != nil {
			return report, fmt.Errorf("failed to run %s sweep: %w", step.name, err)
		}
	}

	took := time.Since(start)
	report.Took = took.String()
	metrics.SweepDuration.Observe(took.Seconds())
	span.SetAttributes(
		attribute.Int("sweep.activated", report.Activated),
		attribute.Int("sweep.ended", report.Ended),
		attribute.Int("sweep.unsold", report.Unsold),
		attribute.Int("sweep.failures", report.Failures),
	)

	level := slog.LevelDebug
	if report.Changed() || report.Failures > 0 {
		level = slog.LevelInfo
	}
	slog.Log(ctx, level, "Lifecycle sweep completed",
		slog.String("type", "sweep"),
		slog.Int("activated", report.Activated),
		slog.Int("ended", report.Ended),
		slog.Int("unsold", report.Unsold),
		slog.Int("ending_soon", report.EndingSoon),
		slog.Int("payment_reminders", report.PaymentReminders),
		slog.Int("failures", report.Failures),
		slog.Duration("took", took))
	return report, nil
}

func (s *Sweeper) CloseDue(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: s.now()}
	return report, s.closeDue(ctx, report)
}

func (s *Sweeper) NotifyEndingSoon(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: s.now()}
	return report, s.notifyEndingSoon(ctx, report)
}

func (s *Sweeper) RemindUnpaid(ctx context.Context) (*SweepReport, error) {
	report := &SweepReport{StartedAt: s.now()}
	return report, s.remindUnpaid(ctx, report)
}

func (s *Sweeper) activateDue(ctx context.Context, report *SweepReport) error {
	ids, err := s.repo.DueForActivation(ctx, s.now())
	if err != nil {
		return err
	}

	s.forEach(ctx, "activate", ids, report, func(ctx context.Context, tx Tx) (committed, error) {
		now := s.now()
		a := tx.Auction()
		if a.Status != models.AuctionStatusScheduled || now.Before(a.StartsAt) {
			return nil, nil
		}
		a.Status = models.AuctionStatusActive
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return nil, err
		}

		event := NewEvent(EventAuctionActivated, a, now)
		return func(ctx context.Context, r *SweepReport) {
			metrics.LifecycleTransitions.WithLabelValues(string(models.AuctionStatusActive)).Inc()
			r.Activated++
			Publish(ctx, s.publisher, event)
		}, nil
	})
	return nil
}

func (s *Sweeper) closeDue(ctx context.Context, report *SweepReport) error {
	ids, err := s.repo.DueForClose(ctx, s.now())
	if err != nil {
		return err
	}

	s.forEach(ctx, "close", ids, report, func(ctx context.Context, tx Tx) (committed, error) {
		now := s.now()
		a := tx.Auction()
		if a.Status != models.AuctionStatusActive || now.Before(a.EndsAt) {
			return nil, nil
		}

		a.Status = models.AuctionStatusUnsold
		if a.BidCount > 0 && a.ReserveMet() {
			winning, err := tx.WinningBid(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get winning bid: %w", err)
			}
			if winning != nil {
				winnerID := winning.BidderID
				a.Status = models.AuctionStatusEnded
				a.WinnerID = &winnerID
				if err := tx.Notify(ctx, notifications.Winner(winnerID, a, s.opts.Currency, now)); err != nil {
					return nil, fmt.Errorf("failed to notify winner: %w", err)
				}
				a.WinnerNotified = true
			}
		}
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return nil, err
		}

		event := NewEvent(EventAuctionClosed, a, now)
		finalPrice := a.CurrentPrice.StringFixed(2)
		return func(ctx context.Context, r *SweepReport) {
			metrics.LifecycleTransitions.WithLabelValues(string(event.Status)).Inc()
			if event.Status == models.AuctionStatusEnded {
				r.Ended++
			} else {
				r.Unsold++
			}
			slog.Info("Auction closed",
				slog.String("type", "sweep"),
				slog.Int64("auction_id", event.AuctionID),
				slog.String("status", string(event.Status)),
				slog.Int("bid_count", event.BidCount),
				slog.String("final_price", finalPrice))
			Publish(ctx, s.publisher, event)
		}, nil
	})
	return nil
}

func (s *Sweeper) notifyEndingSoon(ctx context.Context, report *SweepReport) error {
	ids, err := s.repo.EndingSoon(ctx, s.now(), s.opts.EndingSoonWindow)
	if err != nil {
		return err
	}

	s.forEach(ctx, "ending_soon", ids, report, func(ctx context.Context, tx Tx) (committed, error) {
		now := s.now()
		a := tx.Auction()
		if a.Status != models.AuctionStatusActive || a.EndingNotified ||
			!a.EndsAt.After(now) || a.EndsAt.Sub(now) > s.opts.EndingSoonWindow {
			return nil, nil
		}

		watchers, err := tx.Watchers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list watchers: %w", err)
		}
		bidders, err := tx.BidderIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list bidders: %w", err)
		}

		sent := 0
		for _, id := range uniqueIDs(watchers, bidders) {
			if err := tx.Notify(ctx, notifications.EndingSoon(id, a, s.opts.Currency, now)); err != nil {
				return nil, fmt.Errorf("failed to notify bidder %d: %w", id, err)
			}
			sent++
		}
		a.EndingNotified = true
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return nil, err
		}

		return func(_ context.Context, r *SweepReport) {
			r.EndingSoon += sent
		}, nil
	})
	return nil
}

func (s *Sweeper) remindUnpaid(ctx context.Context, report *SweepReport) error {
	ids, err := s.repo.AwaitingPayment(ctx, s.now().Add(-s.opts.PaymentReminderAfter))
	if err != nil {
		return err
	}

	s.forEach(ctx, "payment_reminder", ids, report, func(ctx context.Context, tx Tx) (committed, error) {
		now := s.now()
		a := tx.Auction()
		if a.Status != models.AuctionStatusEnded || a.WinnerID == nil || a.PaymentReminded ||
			now.Sub(a.EndsAt) < s.opts.PaymentReminderAfter {
			return nil, nil
		}

		payments, err := tx.Payments(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list payments: %w", err)
		}
		for _, p := range payments {
			if p.Status == models.PaymentStatusSucceeded {
				return nil, nil
			}
		}

		if err := tx.Notify(ctx, notifications.PaymentReminder(*a.WinnerID, a, s.opts.Currency, now)); err != nil {
			return nil, fmt.Errorf("failed to notify winner: %w", err)
		}
		a.PaymentReminded = true
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return nil, err
		}

		return func(_ context.Context, r *SweepReport) {
			r.PaymentReminders++
		}, nil
	})
	return nil
}

// committed runs once the step's transaction has been applied.
type committed func(ctx context.Context, r *SweepReport)

// forEach runs step under each auction's lock with bounded parallelism. A
// failing auction is logged and counted; the others still run.
func (s *Sweeper) forEach(ctx context.Context, name string, ids []int64, report *SweepReport, step func(ctx context.Context, tx Tx) (committed, error)) {
	if len(ids) == 0 {
		return
	}

	sem := semaphore.NewWeighted(int64(s.opts.SweepConcurrency))
	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	for _, id := range ids {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)

			actx, cancel := context.WithTimeout(gctx, perAuctionTimeout)
			defer cancel()

			var done committed
			err := s.repo.WithAuction(actx, id, func(ctx context.Context, tx Tx) error {
				var err error
				done, err = step(ctx, tx)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Lifecycle step failed",
					slog.String("type", "sweep"),
					slog.String("step", name),
					slog.Int64("auction_id", id),
					slog.String("error", err.Error()))
				report.Failures++
				return nil
			}
			if done != nil {
				done(gctx, report)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func uniqueIDs(lists ...[]int64) []int64 {
	seen := make(map[int64]struct{})
	var out []int64
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
