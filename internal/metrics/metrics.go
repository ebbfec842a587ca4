package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BidsPlaced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_bids_total",
			Help: "Bid attempts by result",
		},
		[]string{"result"},
	)
	AntiSnipeExtensions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auction_anti_snipe_extensions_total",
			Help: "Bids that pushed an auction's end time back",
		},
	)
	LifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_lifecycle_transitions_total",
			Help: "Status transitions applied by the lifecycle sweep",
		},
		[]string{"to"},
	)
	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auction_sweep_duration_seconds",
			Help:    "Wall time of a full lifecycle sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
	Settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_settlement_callbacks_total",
			Help: "Payment provider callbacks by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)
	CheckoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_checkout_sessions_total",
			Help: "Checkout sessions requested by provider and result",
		},
		[]string{"provider", "result"},
	)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auction_http_requests_total",
			Help: "HTTP requests by route and status class",
		},
		[]string{"method", "route", "status"},
	)
)

