package auctions

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultSweepInterval = time.Minute

// Scheduler runs the lifecycle sweep on a fixed interval
type Scheduler struct {
	sweeper  *Sweeper
	interval time.Duration
	timeout  time.Duration
	shutdown chan struct{}
	done     chan struct{}
	once     sync.Once
	started  atomic.Bool
}

func NewScheduler(sweeper *Sweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
		timeout:  2 * time.Minute,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per tick until Shutdown.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.sweep()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.shutdown:
				return
			}
		}
	}()

	slog.Info("Auction scheduler started",
		slog.String("type", "sweep"),
		slog.Duration("interval", s.interval))
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.sweeper.Run(ctx); err != nil {
		slog.Error("Failed to run lifecycle sweep",
			slog.String("type", "sweep"),
			slog.String("error", err.Error()))
	}
}

// Shutdown stops the ticker and waits for an in-flight sweep to finish.
func (s *Scheduler) Shutdown() {
	s.once.Do(func() {
		close(s.shutdown)
	})
	if !s.started.Load() {
		return
	}
	<-s.done
	slog.Info("Auction scheduler shutdown completed", slog.String("type", "sweep"))
}
