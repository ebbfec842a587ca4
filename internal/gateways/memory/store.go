// Package memory keeps every repository in process memory. It backs the
// tests and the `driver = "memory"` demo mode and mirrors the constraints the
// Postgres schema enforces.
package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/domain/bidders"
	"github.com/slotcarhq/auctionhouse/internal/domain/notifications"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

var (
	_ auctions.Repository          = (*Store)(nil)
	_ auctions.CategoryRepository  = (*Store)(nil)
	_ auctions.WatchlistRepository = (*Store)(nil)
	_ bidders.Repository           = (*Store)(nil)
	_ notifications.Repository     = (*Store)(nil)
	_ settlement.PaymentRepository = (*Store)(nil)
)

type watchKey struct {
	bidderID  int64
	auctionID int64
}

type Store struct {
	mu sync.RWMutex

	auctions      map[int64]*models.Auction
	categories    map[int64]*models.Category
	bidders       map[int64]*models.Bidder
	bids          map[int64][]*models.Bid
	watchlist     map[watchKey]time.Time
	payments      map[int64]*models.AuctionPayment
	notifications []*models.Notification
	callbacks     []*models.PaymentCallback

	// one buffered channel per auction, used as a context-aware mutex
	locks sync.Map

	auctionSeq      atomic.Int64
	categorySeq     atomic.Int64
	bidderSeq       atomic.Int64
	bidSeq          atomic.Int64
	paymentSeq      atomic.Int64
	notificationSeq atomic.Int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		auctions:   make(map[int64]*models.Auction),
		categories: make(map[int64]*models.Category),
		bidders:    make(map[int64]*models.Bidder),
		bids:       make(map[int64][]*models.Bid),
		watchlist:  make(map[watchKey]time.Time),
		payments:   make(map[int64]*models.AuctionPayment),
		now:        time.Now,
	}
}

// WithClock sets the clock used for row timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) lock(ctx context.Context, auctionID int64) (func(), error) {
	v, _ := s.locks.LoadOrStore(auctionID, make(chan struct{}, 1))
	ch := v.(chan struct{})
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// WithAuction serialises fn with every other unit of work on the same
// auction. Writes are staged on the tx and applied only when fn succeeds.
func (s *Store) WithAuction(ctx context.Context, auctionID int64, fn func(ctx context.Context, tx auctions.Tx) error) error {
	unlock, err := s.lock(ctx, auctionID)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.RLock()
	a, ok := s.auctions[auctionID]
	var snapshot *models.Auction
	if ok {
		snapshot = a.Clone()
	}
	s.mu.RUnlock()
	if !ok {
		return domain.ErrAuctionNotFound
	}

	tx := &storeTx{
		store:    s,
		auction:  snapshot,
		demoted:  make(map[int64]bool),
		payments: make(map[int64]*models.AuctionPayment),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *storeTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := tx.auction.ID
	if tx.saved {
		for _, other := range s.auctions {
			if other.ID != id && other.Slug == tx.auction.Slug {
				return domain.ErrSlugTaken
			}
		}
	}

	winning := 0
	for _, b := range s.bids[id] {
		if b.IsWinning && !tx.demoted[b.ID] {
			winning++
		}
	}
	for _, b := range tx.bids {
		if b.IsWinning {
			winning++
		}
	}
	if winning > 1 {
		return domain.ErrDuplicate.WithMessage("auction %d would have %d winning bids", id, winning)
	}

	succeeded := 0
	for pid, p := range s.payments {
		if staged, ok := tx.payments[pid]; ok {
			p = staged
		}
		if p.AuctionID == id && p.Status == models.PaymentStatusSucceeded {
			succeeded++
		}
	}
	for pid, p := range tx.payments {
		if _, ok := s.payments[pid]; !ok && p.Status == models.PaymentStatusSucceeded {
			succeeded++
		}
	}
	if succeeded > 1 {
		return domain.ErrDuplicate.WithMessage("auction %d already has a succeeded payment", id)
	}

	if tx.saved {
		s.auctions[id] = tx.auction.Clone()
	}
	for _, b := range s.bids[id] {
		if tx.demoted[b.ID] {
			b.IsWinning = false
		}
	}
	s.bids[id] = append(s.bids[id], tx.bids...)
	for pid, p := range tx.payments {
		s.payments[pid] = p
	}
	s.notifications = append(s.notifications, tx.notifications...)
	return nil
}

type storeTx struct {
	store *Store

	auction       *models.Auction
	saved         bool
	bids          []*models.Bid
	demoted       map[int64]bool
	payments      map[int64]*models.AuctionPayment
	notifications []*models.Notification
}

func (t *storeTx) Auction() *models.Auction {
	return t.auction
}

func (t *storeTx) SaveAuction(context.Context) error {
	t.saved = true
	return nil
}

func (t *storeTx) Bidder(ctx context.Context, bidderID int64) (*models.Bidder, error) {
	return t.store.GetBidder(ctx, bidderID)
}

func (t *storeTx) WinningBid(context.Context) (*models.Bid, error) {
	for i := len(t.bids) - 1; i >= 0; i-- {
		if t.bids[i].IsWinning {
			b := *t.bids[i]
			return &b, nil
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, b := range t.store.bids[t.auction.ID] {
		if b.IsWinning && !t.demoted[b.ID] {
			c := *b
			c.Bidder = nil
			return &c, nil
		}
	}
	return nil, nil
}

func (t *storeTx) InsertBid(_ context.Context, bid *models.Bid) error {
	bid.ID = t.store.bidSeq.Add(1)
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = t.store.now().UTC()
	}
	b := *bid
	b.Bidder = nil
	t.bids = append(t.bids, &b)
	return nil
}

func (t *storeTx) DemoteBid(_ context.Context, bid *models.Bid) error {
	bid.IsWinning = false
	for _, b := range t.bids {
		if b.ID == bid.ID {
			b.IsWinning = false
			return nil
		}
	}
	t.demoted[bid.ID] = true
	return nil
}

func (t *storeTx) BidderIDs(context.Context) ([]int64, error) {
	seen := make(map[int64]bool)
	var ids []int64

	t.store.mu.RLock()
	committed := t.store.bids[t.auction.ID]
	t.store.mu.RUnlock()

	for _, list := range [][]*models.Bid{committed, t.bids} {
		for _, b := range list {
			if !seen[b.BidderID] {
				seen[b.BidderID] = true
				ids = append(ids, b.BidderID)
			}
		}
	}
	return ids, nil
}

func (t *storeTx) Watchers(context.Context) ([]int64, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var ids []int64
	for k := range t.store.watchlist {
		if k.auctionID == t.auction.ID {
			ids = append(ids, k.bidderID)
		}
	}
	sortIDs(ids)
	return ids, nil
}

func (t *storeTx) Payments(context.Context) ([]*models.AuctionPayment, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	var out []*models.AuctionPayment
	for id, p := range t.store.payments {
		if staged, ok := t.payments[id]; ok {
			p = staged
		}
		if p.AuctionID == t.auction.ID {
			out = append(out, p.Clone())
		}
	}
	for id, p := range t.payments {
		if _, ok := t.store.payments[id]; !ok && p.AuctionID == t.auction.ID {
			out = append(out, p.Clone())
		}
	}
	sortPayments(out)
	return out, nil
}

func (t *storeTx) SavePayment(_ context.Context, payment *models.AuctionPayment) error {
	if payment.AuctionID != t.auction.ID {
		return domain.ErrInvalidRequest.WithMessage("payment belongs to auction %d", payment.AuctionID)
	}
	now := t.store.now().UTC()
	if payment.ID == 0 {
		payment.ID = t.store.paymentSeq.Add(1)
		payment.CreatedAt = now
	}
	payment.UpdatedAt = now
	t.payments[payment.ID] = payment.Clone()
	return nil
}

func (t *storeTx) Notify(_ context.Context, n *models.Notification) error {
	n.ID = t.store.notificationSeq.Add(1)
	if n.CreatedAt.IsZero() {
		n.CreatedAt = t.store.now().UTC()
	}
	c := *n
	t.notifications = append(t.notifications, &c)
	return nil
}
