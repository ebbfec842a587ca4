package auctions

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

type EventType string

const (
	EventBidPlaced        EventType = "bid.placed"
	EventAuctionActivated EventType = "auction.activated"
	EventAuctionClosed    EventType = "auction.closed"
	EventAuctionSold      EventType = "auction.sold"
	EventAuctionCancelled EventType = "auction.cancelled"
)

// Event is the public snapshot of an auction after a state change. It never
// carries the reserve price.
type Event struct {
	Type         EventType            `json:"type"`
	AuctionID    int64                `json:"auctionId"`
	Status       models.AuctionStatus `json:"status"`
	CurrentPrice decimal.Decimal      `json:"currentPrice"`
	BidCount     int                  `json:"bidCount"`
	EndsAt       time.Time            `json:"endsAt"`
	ReserveMet   bool                 `json:"reserveMet"`
	OccurredAt   time.Time            `json:"occurredAt"`
}

func NewEvent(t EventType, a *models.Auction, at time.Time) Event {
	return Event{
		Type:         t,
		AuctionID:    a.ID,
		Status:       a.Status,
		CurrentPrice: a.CurrentPrice,
		BidCount:     a.BidCount,
		EndsAt:       a.EndsAt,
		ReserveMet:   a.ReserveMet(),
		OccurredAt:   at,
	}
}

// Publisher fans auction updates out to push subscribers. Delivery is best
// effort; polling clients remain the source of truth.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Publish sends event through p and logs failures instead of returning them.
func Publish(ctx context.Context, p Publisher, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.Warn("Failed to publish auction event",
			slog.String("event", string(event.Type)),
			slog.Int64("auction_id", event.AuctionID),
			slog.String("error", err.Error()))
	}
}

