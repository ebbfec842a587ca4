package auctions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type BidResult struct {
	BidID    int64           `json:"bidId"`
	NewPrice decimal.Decimal `json:"newPrice"`
	BidCount int             `json:"bidCount"`
	EndsAt   time.Time       `json:"endsAt"`
	Extended bool            `json:"extended"`
}

// PlaceBid validates and commits a bid as one unit under the auction's lock:
// the previous winning bid is demoted, the new bid inserted, price, count and
// deadline updated and the outbid bidder notified, or nothing happens at all.
func (m *Manager) PlaceBid(ctx context.Context, auctionID, bidderID int64, amount decimal.Decimal) (*BidResult, error) {
	ctx, span := tracer.Start(ctx, "auctions.PlaceBid", trace.WithAttributes(
		attribute.Int64("auction.id", auctionID),
		attribute.Int64("bidder.id", bidderID),
		attribute.String("bid.amount", amount.String()),
	))
	defer span.End()

	result, snapshot, err := m.placeBid(ctx, auctionID, bidderID, amount)
	metrics.BidsPlaced.WithLabelValues(bidLabel(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if domain.KindOf(err) == domain.KindInternal {
			slog.Error("Failed to place bid",
				slog.Int64("auction_id", auctionID),
				slog.Int64("bidder_id", bidderID),
				slog.String("error", err.Error()))
		}
		return nil, err
	}

	if result.Extended {
		metrics.AntiSnipeExtensions.Inc()
	}
	slog.Info("Bid placed",
		slog.Int64("auction_id", auctionID),
		slog.Int64("bidder_id", bidderID),
		slog.Int64("bid_id", result.BidID),
		slog.String("amount", amount.StringFixed(2)),
		slog.Int("bid_count", result.BidCount),
		slog.Bool("extended", result.Extended))

	Publish(ctx, m.publisher, NewEvent(EventBidPlaced, snapshot, m.now()))
	return result, nil
}

func (m *Manager) placeBid(ctx context.Context, auctionID, bidderID int64, amount decimal.Decimal) (*BidResult, *models.Auction, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, nil, domain.ErrInvalidBid.WithMessage("bid amount must be a positive value with at most two decimals")
	}

	var (
		result   *BidResult
		snapshot *models.Auction
	)
	err := m.repo.WithAuction(ctx, auctionID, func(ctx context.Context, tx Tx) error {
		now := m.now()
		a := tx.Auction()

		if !a.AcceptingBids(now) {
			return domain.ErrAuctionClosed
		}

		bidder, err := tx.Bidder(ctx, bidderID)
		if err != nil {
			return err
		}
		if bidder.IsBanned {
			return domain.ErrBidderBanned
		}

		minimum := a.MinimumBid()
		if amount.LessThan(minimum) {
			return domain.ErrInvalidBid.WithMessage("bid must be at least %s", minimum.StringFixed(2))
		}

		previous, err := tx.WinningBid(ctx)
		if err != nil {
			return fmt.Errorf("failed to get winning bid: %w", err)
		}
		if previous != nil && previous.BidderID == bidderID {
			return domain.ErrAlreadyHighestBidder
		}
		if previous != nil {
			if err := tx.DemoteBid(ctx, previous); err != nil {
				return fmt.Errorf("failed to demote previous bid: %w", err)
			}
		}

		bid := &models.Bid{
			AuctionID: a.ID,
			BidderID:  bidderID,
			Amount:    amount,
			IsWinning: true,
			CreatedAt: now,
		}
		if err := tx.InsertBid(ctx, bid); err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		a.CurrentPrice = amount
		a.BidCount++
		extended := extendDeadline(a, now, m.opts.AntiSnipeCap)
		a.UpdatedAt = now
		if err := tx.SaveAuction(ctx); err != nil {
			return fmt.Errorf("failed to update auction: %w", err)
		}

		if previous != nil {
			if err := tx.Notify(ctx, notifications.Outbid(previous.BidderID, a, amount, m.opts.Currency, now)); err != nil {
				return fmt.Errorf("failed to notify outbid bidder: %w", err)
			}
		}

		result = &BidResult{
			BidID:    bid.ID,
			NewPrice: a.CurrentPrice,
			BidCount: a.BidCount,
			EndsAt:   a.EndsAt,
			Extended: extended,
		}
		snapshot = a.Clone()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return result, snapshot, nil
}

// extendDeadline applies the anti-snipe rule: a bid landing within the
// trailing window moves ends_at to now + window. The deadline never moves
// earlier, and with a non-zero limit it never passes original_end_time + limit.
func extendDeadline(a *models.Auction, now time.Time, limit time.Duration) bool {
	if a.AntiSnipeSeconds <= 0 {
		return false
	}
	window := time.Duration(a.AntiSnipeSeconds) * time.Second
	if a.EndsAt.Sub(now) > window {
		return false
	}

	next := now.Add(window)
	if limit > 0 {
		if ceiling := a.OriginalEndTime.Add(limit); next.After(ceiling) {
			next = ceiling
		}
	}
	if !next.After(a.EndsAt) {
		return false
	}
	a.EndsAt = next
	return true
}

func bidLabel(err error) string {
	if err == nil {
		return "accepted"
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "error"
}
