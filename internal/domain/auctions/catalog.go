package auctions

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Auctions   []*PublicAuction `json:"auctions"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// MaxPage is the largest page whose offset fits in an int.
func MaxPage(limit int) int {
	return (math.MaxInt-limit)/limit + 1
}

// NormalizeFilter applies paging defaults and rejects values outside the
// public contract. Drafts are never listed publicly.
func NormalizeFilter(f Filter, public bool) (Filter, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if maxPage := MaxPage(f.Limit); f.Page > maxPage {
		f.Page = maxPage
	}
	if f.Sort == "" {
		f.Sort = SortEndingSoon
	}
	if !f.Sort.Valid() {
		return f, domain.ErrInvalidRequest.WithMessage("unknown sort %q", f.Sort)
	}
	if f.Condition != "" && !f.Condition.Valid() {
		return f, domain.ErrInvalidRequest.WithMessage("unknown condition %q", f.Condition)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return f, domain.ErrInvalidRequest.WithMessage("minPrice must not exceed maxPrice")
	}
	if len(f.Statuses) == 0 && public {
		f.Statuses = []models.AuctionStatus{models.AuctionStatusActive}
	}
	for _, s := range f.Statuses {
		if !s.Valid() || (public && s == models.AuctionStatusDraft) {
			return f, domain.ErrInvalidRequest.WithMessage("unknown status %q", s)
		}
	}
	f.Search = strings.TrimSpace(f.Search)
	return f, nil
}

func (m *Manager) List(ctx context.Context, f Filter) (*Page, error) {
	f, err := NormalizeFilter(f, true)
	if err != nil {
		return nil, err
	}

	items, total, err := m.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}

	now := m.now()
	page := &Page{
		Auctions:   make([]*PublicAuction, 0, len(items)),
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}
	for _, a := range items {
		page.Auctions = append(page.Auctions, NewPublicAuction(a, now))
	}
	return page, nil
}

type AdminPage struct {
	Auctions   []*AdminAuction `json:"auctions"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

// AdminList lists auctions in every status, drafts included, unless the
// filter narrows it.
func (m *Manager) AdminList(ctx context.Context, f Filter) (*AdminPage, error) {
	f, err := NormalizeFilter(f, false)
	if err != nil {
		return nil, err
	}

	items, total, err := m.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}

	now := m.now()
	page := &AdminPage{
		Auctions:   make([]*AdminAuction, 0, len(items)),
		Total:      total,
		Page:       f.Page,
		Limit:      f.Limit,
		TotalPages: (total + f.Limit - 1) / f.Limit,
	}
	for _, a := range items {
		page.Auctions = append(page.Auctions, NewAdminAuction(a, now))
	}
	return page, nil
}

// Get resolves a numeric id or a slug. Drafts are hidden from the public.
func (m *Manager) Get(ctx context.Context, idOrSlug string, public bool) (*models.Auction, error) {
	var (
		a   *models.Auction
		err error
	)
	if id, convErr := strconv.ParseInt(idOrSlug, 10, 64); convErr == nil && id > 0 {
		a, err = m.repo.GetByID(ctx, id)
	} else {
		a, err = m.repo.GetBySlug(ctx, strings.ToLower(idOrSlug))
	}
	if err != nil {
		return nil, err
	}
	if public && a.Status == models.AuctionStatusDraft {
		return nil, domain.ErrAuctionNotFound
	}
	return a, nil
}

func (m *Manager) View(a *models.Auction) *PublicAuction {
	return NewPublicAuction(a, m.now())
}

func (m *Manager) AdminView(a *models.Auction) *AdminAuction {
	return NewAdminAuction(a, m.now())
}

// Bids lists an auction's bids highest first, capped at MaxBidsListed.
func (m *Manager) Bids(ctx context.Context, auctionID, viewerID int64) ([]*PublicBid, error) {
	a, err := m.repo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if a.Status == models.AuctionStatusDraft {
		return nil, domain.ErrAuctionNotFound
	}

	bids, err := m.repo.ListBids(ctx, auctionID, MaxBidsListed)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	out := make([]*PublicBid, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewPublicBid(b, viewerID))
	}
	return out, nil
}

func (m *Manager) MyBids(ctx context.Context, bidderID int64) ([]*MyBid, error) {
	rows, err := m.repo.ListBidderBids(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bidder bids: %w", err)
	}

	now := m.now()
	out := make([]*MyBid, 0, len(rows))
	for _, row := range rows {
		if row.Auction == nil {
			continue
		}
		won := row.Auction.WinnerID != nil && *row.Auction.WinnerID == bidderID
		out = append(out, &MyBid{
			Auction:    NewPublicAuction(row.Auction, now),
			HighestBid: row.HighestBid,
			BidCount:   row.BidCount,
			IsWinning:  row.IsWinning,
			Won:        won,
			LastBidAt:  row.LastBidAt,
		})
	}
	return out, nil
}

// SetWatching adds or removes an auction from a bidder's watchlist. Both
// directions are idempotent.
func (m *Manager) SetWatching(ctx context.Context, bidderID, auctionID int64, watch bool) (bool, error) {
	a, err := m.repo.GetByID(ctx, auctionID)
	if err != nil {
		return false, err
	}
	if a.Status == models.AuctionStatusDraft {
		return false, domain.ErrAuctionNotFound
	}

	if watch {
		err = m.watchlist.Watch(ctx, bidderID, auctionID)
	} else {
		err = m.watchlist.Unwatch(ctx, bidderID, auctionID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update watchlist: %w", err)
	}
	return watch, nil
}

func (m *Manager) IsWatching(ctx context.Context, bidderID, auctionID int64) (bool, error) {
	return m.watchlist.IsWatching(ctx, bidderID, auctionID)
}

func (m *Manager) Watchlist(ctx context.Context, bidderID int64) ([]*PublicAuction, error) {
	items, err := m.watchlist.ListWatchlist(ctx, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchlist: %w", err)
	}
	now := m.now()
	out := make([]*PublicAuction, 0, len(items))
	for _, a := range items {
		out = append(out, NewPublicAuction(a, now))
	}
	return out, nil
}

func (m *Manager) Categories(ctx context.Context) ([]*CategoryView, error) {
	items, err := m.categories.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]*CategoryView, 0, len(items))
	for _, c := range items {
		out = append(out, NewCategoryView(c))
	}
	return out, nil
}
