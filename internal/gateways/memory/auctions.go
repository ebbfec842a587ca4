package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func (s *Store) Create(_ context.Context, a *models.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.auctions {
		if other.Slug == a.Slug {
			return domain.ErrSlugTaken
		}
	}
	now := s.now().UTC()
	a.ID = s.auctionSeq.Add(1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.auctions[a.ID] = a.Clone()
	return nil
}

// Delete takes the auction lock first so an open unit of work cannot write
// the row back after it is gone.
func (s *Store) Delete(ctx context.Context, auctionID int64) error {
	unlock, err := s.lock(ctx, auctionID)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if a.Status != models.AuctionStatusDraft || a.BidCount > 0 || len(s.bids[auctionID]) > 0 {
		return domain.ErrInvalidTransition.WithMessage("only drafts without bids can be deleted")
	}
	delete(s.auctions, auctionID)
	for k := range s.watchlist {
		if k.auctionID == auctionID {
			delete(s.watchlist, k)
		}
	}
	return nil
}

// view returns a detached copy with its category attached. Callers hold s.mu.
func (s *Store) view(a *models.Auction) *models.Auction {
	c := a.Clone()
	if a.CategoryID != nil {
		if cat, ok := s.categories[*a.CategoryID]; ok {
			cc := *cat
			c.Category = &cc
		}
	}
	return c
}

func (s *Store) GetByID(_ context.Context, auctionID int64) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return s.view(a), nil
}

func (s *Store) GetBySlug(_ context.Context, slug string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.auctions {
		if a.Slug == slug {
			return s.view(a), nil
		}
	}
	return nil, domain.ErrAuctionNotFound
}

func (s *Store) List(_ context.Context, f auctions.Filter) ([]*models.Auction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var categoryID int64
	if f.CategorySlug != "" {
		for _, c := range s.categories {
			if c.Slug == f.CategorySlug {
				categoryID = c.ID
			}
		}
		if categoryID == 0 {
			return []*models.Auction{}, 0, nil
		}
	}

	var matched []*models.Auction
	for _, a := range s.auctions {
		if matchesFilter(a, f, categoryID) {
			matched = append(matched, a)
		}
	}
	matched = auctions.MatchSearch(matched, f.Search)
	sortAuctions(matched, f.Sort)

	total := len(matched)
	out := make([]*models.Auction, 0, f.Limit)
	for i := f.Offset(); i < total && len(out) < f.Limit; i++ {
		out = append(out, s.view(matched[i]))
	}
	return out, total, nil
}

func matchesFilter(a *models.Auction, f auctions.Filter, categoryID int64) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if a.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if categoryID != 0 && (a.CategoryID == nil || *a.CategoryID != categoryID) {
		return false
	}
	if f.Brand != "" && !strings.EqualFold(a.Brand, f.Brand) {
		return false
	}
	if f.Condition != "" && a.Condition != f.Condition {
		return false
	}
	if f.MinPrice != nil && a.CurrentPrice.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && a.CurrentPrice.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func sortAuctions(items []*models.Auction, order auctions.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch order {
		case auctions.SortNewlyListed:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		case auctions.SortPriceLow:
			if !a.CurrentPrice.Equal(b.CurrentPrice) {
				return a.CurrentPrice.LessThan(b.CurrentPrice)
			}
		case auctions.SortPriceHigh:
			if !a.CurrentPrice.Equal(b.CurrentPrice) {
				return a.CurrentPrice.GreaterThan(b.CurrentPrice)
			}
		case auctions.SortMostBids:
			if a.BidCount != b.BidCount {
				return a.BidCount > b.BidCount
			}
		default:
			if !a.EndsAt.Equal(b.EndsAt) {
				return a.EndsAt.Before(b.EndsAt)
			}
		}
		return a.ID < b.ID
	})
}

func (s *Store) ListBids(_ context.Context, auctionID int64, limit int) ([]*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bids := make([]*models.Bid, 0, len(s.bids[auctionID]))
	for _, b := range s.bids[auctionID] {
		c := *b
		if bidder, ok := s.bidders[b.BidderID]; ok {
			bc := *bidder
			c.Bidder = &bc
		}
		bids = append(bids, &c)
	}
	sort.SliceStable(bids, func(i, j int) bool {
		if !bids[i].Amount.Equal(bids[j].Amount) {
			return bids[i].Amount.GreaterThan(bids[j].Amount)
		}
		return bids[i].ID > bids[j].ID
	})
	if limit > 0 && len(bids) > limit {
		bids = bids[:limit]
	}
	return bids, nil
}

func (s *Store) ListBidderBids(_ context.Context, bidderID int64) ([]*models.BidderBid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BidderBid
	for auctionID, bids := range s.bids {
		var row *models.BidderBid
		for _, b := range bids {
			if b.BidderID != bidderID {
				continue
			}
			if row == nil {
				row = &models.BidderBid{AuctionID: auctionID, HighestBid: b.Amount}
			}
			row.BidCount++
			if b.Amount.GreaterThan(row.HighestBid) {
				row.HighestBid = b.Amount
			}
			if b.IsWinning {
				row.IsWinning = true
			}
			if b.CreatedAt.After(row.LastBidAt) {
				row.LastBidAt = b.CreatedAt
			}
		}
		if row == nil {
			continue
		}
		if a, ok := s.auctions[auctionID]; ok {
			row.Auction = s.view(a)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastBidAt.Equal(out[j].LastBidAt) {
			return out[i].LastBidAt.After(out[j].LastBidAt)
		}
		return out[i].AuctionID > out[j].AuctionID
	})
	return out, nil
}

func (s *Store) selectIDs(match func(a *models.Auction) bool) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for id, a := range s.auctions {
		if match(a) {
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}

func (s *Store) DueForActivation(_ context.Context, now time.Time) ([]int64, error) {
	return s.selectIDs(func(a *models.Auction) bool {
		return a.Status == models.AuctionStatusScheduled && !a.StartsAt.After(now)
	}), nil
}

func (s *Store) DueForClose(_ context.Context, now time.Time) ([]int64, error) {
	return s.selectIDs(func(a *models.Auction) bool {
		return a.Status == models.AuctionStatusActive && !a.EndsAt.After(now)
	}), nil
}

func (s *Store) EndingSoon(_ context.Context, now time.Time, window time.Duration) ([]int64, error) {
	deadline := now.Add(window)
	return s.selectIDs(func(a *models.Auction) bool {
		return a.Status == models.AuctionStatusActive && !a.EndingNotified &&
			a.EndsAt.After(now) && !a.EndsAt.After(deadline)
	}), nil
}

func (s *Store) AwaitingPayment(_ context.Context, endedBefore time.Time) ([]int64, error) {
	return s.selectIDs(func(a *models.Auction) bool {
		return a.Status == models.AuctionStatusEnded && a.WinnerID != nil && !a.PaymentReminded &&
			!a.EndsAt.After(endedBefore)
	}), nil
}

func (s *Store) Stats(context.Context) (*models.AuctionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.AuctionStats{TotalAuctions: len(s.auctions), TotalRevenue: decimal.Zero}
	for _, a := range s.auctions {
		if a.Status == models.AuctionStatusActive {
			stats.ActiveAuctions++
		}
	}
	for _, bids := range s.bids {
		stats.TotalBids += len(bids)
	}
	for _, p := range s.payments {
		if p.Status == models.PaymentStatusSucceeded {
			stats.TotalRevenue = stats.TotalRevenue.Add(p.Amount)
		}
	}
	return stats, nil
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortPayments(items []*models.AuctionPayment) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
