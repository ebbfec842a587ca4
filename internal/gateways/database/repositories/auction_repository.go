package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/domain"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// maxSearchCandidates bounds how many filtered rows are pulled into memory
// for fuzzy matching.
const maxSearchCandidates = 1000

var _ auctions.Repository = (*AuctionRepository)(nil)

type AuctionRepository struct {
	db *bun.DB
}

func NewAuctionRepository(db *bun.DB) *AuctionRepository {
	return &AuctionRepository{db: db}
}

// WithAuction runs fn in a transaction holding a row lock on the auction.
func (r *AuctionRepository) WithAuction(ctx context.Context, auctionID int64, fn func(ctx context.Context, tx auctions.Tx) error) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		auction := new(models.Auction)
		err := tx.NewSelect().
			Model(auction).
			Where("a.id = ?", auctionID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return translate(err, domain.ErrAuctionNotFound)
		}
		return fn(ctx, &auctionTx{tx: tx, auction: auction})
	})
}

func (r *AuctionRepository) Create(ctx context.Context, auction *models.Auction) error {
	now := time.Now().UTC()
	if auction.CreatedAt.IsZero() {
		auction.CreatedAt = now
	}
	auction.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(auction).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create auction: %w", translate(err, nil))
	}
	return nil
}

func (r *AuctionRepository) Delete(ctx context.Context, auctionID int64) error {
	return r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		auction := new(models.Auction)
		err := tx.NewSelect().
			Model(auction).
			Where("a.id = ?", auctionID).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return translate(err, domain.ErrAuctionNotFound)
		}
		if auction.Status != models.AuctionStatusDraft || auction.BidCount > 0 {
			return domain.ErrInvalidTransition.WithMessage("only drafts without bids can be deleted")
		}
		if _, err := tx.NewDelete().Model(auction).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete auction: %w", err)
		}
		return nil
	})
}

func (r *AuctionRepository) GetByID(ctx context.Context, auctionID int64) (*models.Auction, error) {
	auction := new(models.Auction)
	err := r.db.NewSelect().
		Model(auction).
		Relation("Category").
		Where("a.id = ?", auctionID).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, domain.ErrAuctionNotFound)
	}
	return auction, nil
}

func (r *AuctionRepository) GetBySlug(ctx context.Context, slug string) (*models.Auction, error) {
	auction := new(models.Auction)
	err := r.db.NewSelect().
		Model(auction).
		Relation("Category").
		Where("a.slug = ?", slug).
		Scan(ctx)
	if err != nil {
		return nil, translate(err, domain.ErrAuctionNotFound)
	}
	return auction, nil
}

func applyFilter(q *bun.SelectQuery, f auctions.Filter) *bun.SelectQuery {
	if len(f.Statuses) > 0 {
		q = q.Where("a.status IN (?)", bun.In(f.Statuses))
	}
	if f.CategorySlug != "" {
		q = q.Where("a.category_id = (SELECT id FROM auction_categories WHERE slug = ?)", f.CategorySlug)
	}
	if f.Brand != "" {
		q = q.Where("lower(a.brand) = lower(?)", f.Brand)
	}
	if f.Condition != "" {
		q = q.Where("a.condition = ?", f.Condition)
	}
	if f.MinPrice != nil {
		q = q.Where("a.current_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("a.current_price <= ?", *f.MaxPrice)
	}
	return q
}

func applySort(q *bun.SelectQuery, order auctions.SortOrder) *bun.SelectQuery {
	switch order {
	case auctions.SortNewlyListed:
		q = q.Order("a.created_at DESC")
	case auctions.SortPriceLow:
		q = q.Order("a.current_price ASC")
	case auctions.SortPriceHigh:
		q = q.Order("a.current_price DESC")
	case auctions.SortMostBids:
		q = q.Order("a.bid_count DESC")
	default:
		q = q.Order("a.ends_at ASC")
	}
	return q.Order("a.id ASC")
}

// List filters and pages in SQL. A search term pulls the filtered rows and
// matches them in process, since ranking is fuzzy rather than substring.
func (r *AuctionRepository) List(ctx context.Context, f auctions.Filter) ([]*models.Auction, int, error) {
	var items []*models.Auction
	q := r.db.NewSelect().Model(&items).Relation("Category")
	q = applySort(applyFilter(q, f), f.Sort)

	if f.Search == "" {
		total, err := q.Limit(f.Limit).Offset(f.Offset()).ScanAndCount(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list auctions: %w", err)
		}
		return items, total, nil
	}

	if err := q.Limit(maxSearchCandidates).Scan(ctx); err != nil {
		return nil, 0, fmt.Errorf("failed to list auctions: %w", err)
	}
	matched := auctions.MatchSearch(items, f.Search)
	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func (r *AuctionRepository) ListBids(ctx context.Context, auctionID int64, limit int) ([]*models.Bid, error) {
	var bids []*models.Bid
	q := r.db.NewSelect().
		Model(&bids).
		Relation("Bidder").
		Where("b.auction_id = ?", auctionID).
		Order("b.amount DESC", "b.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}
	return bids, nil
}

func (r *AuctionRepository) ListBidderBids(ctx context.Context, bidderID int64) ([]*models.BidderBid, error) {
	var rows []*models.BidderBid
	err := r.db.NewSelect().
		TableExpr("bids AS b").
		ColumnExpr("b.auction_id").
		ColumnExpr("MAX(b.amount) AS highest_bid").
		ColumnExpr("COUNT(*) AS bid_count").
		ColumnExpr("BOOL_OR(b.is_winning) AS is_winning").
		ColumnExpr("MAX(b.created_at) AS last_bid_at").
		Where("b.bidder_id = ?", bidderID).
		Group("b.auction_id").
		OrderExpr("last_bid_at DESC, b.auction_id DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to list bidder bids: %w", err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.AuctionID)
	}
	var items []*models.Auction
	err = r.db.NewSelect().
		Model(&items).
		Relation("Category").
		Where("a.id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load auctions for bidder bids: %w", err)
	}
	byID := make(map[int64]*models.Auction, len(items))
	for _, a := range items {
		byID[a.ID] = a
	}
	for _, row := range rows {
		row.Auction = byID[row.AuctionID]
	}
	return rows, nil
}

func (r *AuctionRepository) selectIDs(ctx context.Context, build func(q *bun.SelectQuery) *bun.SelectQuery) ([]int64, error) {
	var ids []int64
	q := r.db.NewSelect().
		Model((*models.Auction)(nil)).
		Column("a.id").
		Order("a.id ASC")
	if err := build(q).Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to select auction ids: %w", err)
	}
	return ids, nil
}

func (r *AuctionRepository) DueForActivation(ctx context.Context, now time.Time) ([]int64, error) {
	return r.selectIDs(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("a.status = ?", models.AuctionStatusScheduled).
			Where("a.starts_at <= ?", now)
	})
}

func (r *AuctionRepository) DueForClose(ctx context.Context, now time.Time) ([]int64, error) {
	return r.selectIDs(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("a.status = ?", models.AuctionStatusActive).
			Where("a.ends_at <= ?", now)
	})
}

func (r *AuctionRepository) EndingSoon(ctx context.Context, now time.Time, window time.Duration) ([]int64, error) {
	return r.selectIDs(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("a.status = ?", models.AuctionStatusActive).
			Where("NOT a.ending_soon_notified").
			Where("a.ends_at > ?", now).
			Where("a.ends_at <= ?", now.Add(window))
	})
}

func (r *AuctionRepository) AwaitingPayment(ctx context.Context, endedBefore time.Time) ([]int64, error) {
	return r.selectIDs(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("a.status = ?", models.AuctionStatusEnded).
			Where("a.winner_id IS NOT NULL").
			Where("NOT a.payment_reminder_sent").
			Where("a.ends_at <= ?", endedBefore)
	})
}

// Stats runs its four aggregates concurrently.
func (r *AuctionRepository) Stats(ctx context.Context) (*models.AuctionStats, error) {
	stats := &models.AuctionStats{TotalRevenue: decimal.Zero}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := r.db.NewSelect().Model((*models.Auction)(nil)).Count(ctx)
		stats.TotalAuctions = n
		return err
	})
	g.Go(func() error {
		n, err := r.db.NewSelect().Model((*models.Auction)(nil)).
			Where("a.status = ?", models.AuctionStatusActive).
			Count(ctx)
		stats.ActiveAuctions = n
		return err
	})
	g.Go(func() error {
		n, err := r.db.NewSelect().Model((*models.Bid)(nil)).Count(ctx)
		stats.TotalBids = n
		return err
	})
	g.Go(func() error {
		var revenue decimal.NullDecimal
		err := r.db.NewSelect().
			Model((*models.AuctionPayment)(nil)).
			ColumnExpr("SUM(ap.amount)").
			Where("ap.status = ?", models.PaymentStatusSucceeded).
			Scan(ctx, &revenue)
		if revenue.Valid {
			stats.TotalRevenue = revenue.Decimal
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute auction stats: %w", err)
	}
	return stats, nil
}

// auctionTx implements auctions.Tx on a bun transaction.
type auctionTx struct {
	tx      bun.Tx
	auction *models.Auction
}

func (t *auctionTx) Auction() *models.Auction {
	return t.auction
}

func (t *auctionTx) SaveAuction(ctx context.Context) error {
	_, err := t.tx.NewUpdate().
		Model(t.auction).
		ExcludeColumn("id", "created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save auction: %w", translate(err, nil))
	}
	return nil
}

func (t *auctionTx) Bidder(ctx context.Context, bidderID int64) (*models.Bidder, error) {
	bidder := new(models.Bidder)
	err := t.tx.NewSelect().Model(bidder).Where("bd.id = ?", bidderID).Scan(ctx)
	if err != nil {
		return nil, translate(err, domain.ErrBidderNotFound)
	}
	return bidder, nil
}

func (t *auctionTx) WinningBid(ctx context.Context) (*models.Bid, error) {
	bid := new(models.Bid)
	err := t.tx.NewSelect().
		Model(bid).
		Where("b.auction_id = ?", t.auction.ID).
		Where("b.is_winning").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get winning bid: %w", err)
	}
	return bid, nil
}

func (t *auctionTx) InsertBid(ctx context.Context, bid *models.Bid) error {
	if bid.CreatedAt.IsZero() {
		bid.CreatedAt = time.Now().UTC()
	}
	if _, err := t.tx.NewInsert().Model(bid).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert bid: %w", translate(err, nil))
	}
	return nil
}

func (t *auctionTx) DemoteBid(ctx context.Context, bid *models.Bid) error {
	bid.IsWinning = false
	_, err := t.tx.NewUpdate().
		Model((*models.Bid)(nil)).
		Set("is_winning = FALSE").
		Where("id = ?", bid.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to demote bid: %w", err)
	}
	return nil
}

func (t *auctionTx) BidderIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := t.tx.NewSelect().
		Model((*models.Bid)(nil)).
		Column("b.bidder_id").
		Where("b.auction_id = ?", t.auction.ID).
		Group("b.bidder_id").
		OrderExpr("MIN(b.id)").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list bidders: %w", err)
	}
	return ids, nil
}

func (t *auctionTx) Watchers(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := t.tx.NewSelect().
		Model((*models.WatchlistItem)(nil)).
		Column("w.bidder_id").
		Where("w.auction_id = ?", t.auction.ID).
		Order("w.bidder_id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list watchers: %w", err)
	}
	return ids, nil
}

func (t *auctionTx) Payments(ctx context.Context) ([]*models.AuctionPayment, error) {
	var payments []*models.AuctionPayment
	err := t.tx.NewSelect().
		Model(&payments).
		Where("ap.auction_id = ?", t.auction.ID).
		Order("ap.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (t *auctionTx) SavePayment(ctx context.Context, payment *models.AuctionPayment) error {
	if payment.AuctionID != t.auction.ID {
		return domain.ErrInvalidRequest.WithMessage("payment belongs to auction %d", payment.AuctionID)
	}
	now := time.Now().UTC()
	payment.UpdatedAt = now

	var err error
	if payment.ID == 0 {
		if payment.CreatedAt.IsZero() {
			payment.CreatedAt = now
		}
		_, err = t.tx.NewInsert().Model(payment).Exec(ctx)
	} else {
		_, err = t.tx.NewUpdate().
			Model(payment).
			ExcludeColumn("id", "created_at").
			WherePK().
			Exec(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to save payment: %w", translate(err, nil))
	}
	return nil
}

func (t *auctionTx) Notify(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := t.tx.NewInsert().Model(n).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
