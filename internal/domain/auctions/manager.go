package auctions

import (
	"time"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/slotcarhq/auctionhouse/internal/domain/auctions")

const (
	DefaultAntiSnipeSeconds = 120
	DefaultSweepConcurrency = 8
	DefaultCurrency         = "ZAR"
	MaxBidsListed           = 50
)

type Options struct {
	// AntiSnipeCap bounds how far past original_end_time extensions may push
	// an auction. Zero leaves extensions unbounded.
	AntiSnipeCap         time.Duration
	DefaultAntiSnipe     int
	EndingSoonWindow     time.Duration
	PaymentReminderAfter time.Duration
	SweepConcurrency     int
	Currency             string
	Now                  func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DefaultAntiSnipe <= 0 {
		o.DefaultAntiSnipe = DefaultAntiSnipeSeconds
	}
	if o.EndingSoonWindow <= 0 {
		o.EndingSoonWindow = 15 * time.Minute
	}
	if o.PaymentReminderAfter <= 0 {
		o.PaymentReminderAfter = 24 * time.Hour
	}
	if o.SweepConcurrency <= 0 {
		o.SweepConcurrency = DefaultSweepConcurrency
	}
	if o.Currency == "" {
		o.Currency = DefaultCurrency
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Manager owns bid placement and the operator-facing auction operations.
type Manager struct {
	repo       Repository
	categories CategoryRepository
	watchlist  WatchlistRepository
	publisher  Publisher
	opts       Options
}

func NewManager(repo Repository, categories CategoryRepository, watchlist WatchlistRepository, publisher Publisher, opts Options) *Manager {
	return &Manager{
		repo:       repo,
		categories: categories,
		watchlist:  watchlist,
		publisher:  publisher,
		opts:       opts.withDefaults(),
	}
}

func (m *Manager) now() time.Time {
	return m.opts.Now().UTC()
}
