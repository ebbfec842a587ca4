package events

import (
	"context"
	"errors"

	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
)

var (
	_ auctions.Publisher = Nop{}
	_ auctions.Publisher = Multi(nil)
)

// Nop drops every event. Used when no push transport is configured.
type Nop struct{}

func (Nop) Publish(context.Context, auctions.Event) error { return nil }

// Multi publishes to every publisher and joins their errors. A failing
// publisher does not stop the rest.
type Multi []auctions.Publisher

func (m Multi) Publish(ctx context.Context, event auctions.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Combine returns Nop for no publishers, the publisher itself for one and
// Multi otherwise.
func Combine(publishers ...auctions.Publisher) auctions.Publisher {
	switch len(publishers) {
	case 0:
		return Nop{}
	case 1:
		return publishers[0]
	}
	return Multi(publishers)
}
