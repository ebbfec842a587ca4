package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type AuctionStatus string

const (
	AuctionStatusDraft     AuctionStatus = "draft"
	AuctionStatusScheduled AuctionStatus = "scheduled"
	AuctionStatusActive    AuctionStatus = "active"
	AuctionStatusEnded     AuctionStatus = "ended"
	AuctionStatusSold      AuctionStatus = "sold"
	AuctionStatusCancelled AuctionStatus = "cancelled"
	AuctionStatusUnsold    AuctionStatus = "unsold"
)

var auctionTransitions = map[AuctionStatus][]AuctionStatus{
	AuctionStatusDraft:     {AuctionStatusScheduled, AuctionStatusActive, AuctionStatusCancelled},
	AuctionStatusScheduled: {AuctionStatusActive, AuctionStatusDraft, AuctionStatusCancelled},
	AuctionStatusActive:    {AuctionStatusEnded, AuctionStatusUnsold, AuctionStatusCancelled},
	AuctionStatusEnded:     {AuctionStatusSold},
}

// CanTransition reports whether the state machine allows moving from s to next.
// Terminal states (sold, cancelled, unsold) allow nothing.
func (s AuctionStatus) CanTransition(next AuctionStatus) bool {
	for _, allowed := range auctionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AuctionStatus) IsTerminal() bool {
	switch s {
	case AuctionStatusSold, AuctionStatusCancelled, AuctionStatusUnsold:
		return true
	}
	return false
}

func (s AuctionStatus) Valid() bool {
	switch s {
	case AuctionStatusDraft, AuctionStatusScheduled, AuctionStatusActive, AuctionStatusEnded,
		AuctionStatusSold, AuctionStatusCancelled, AuctionStatusUnsold:
		return true
	}
	return false
}

type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionMint      Condition = "mint"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionParts     Condition = "parts"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionMint, ConditionExcellent, ConditionGood, ConditionFair, ConditionParts:
		return true
	}
	return false
}

type Auction struct {
	bun.BaseModel `bun:"table:auctions,alias:a"`

	ID               int64            `bun:"id,pk,autoincrement"`
	Title            string           `bun:"title,notnull"`
	Slug             string           `bun:"slug,notnull,unique"`
	Description      string           `bun:"description,notnull,default:''"`
	CategoryID       *int64           `bun:"category_id"`
	Brand            string           `bun:"brand,notnull,default:''"`
	Scale            string           `bun:"scale,notnull,default:''"`
	Condition        Condition        `bun:"condition,notnull"`
	Images           []string         `bun:"images,array"`
	StartingPrice    decimal.Decimal  `bun:"starting_price,type:numeric(12,2),notnull"`
	ReservePrice     *decimal.Decimal `bun:"reserve_price,type:numeric(12,2)"`
	CurrentPrice     decimal.Decimal  `bun:"current_price,type:numeric(12,2),notnull"`
	BidIncrement     decimal.Decimal  `bun:"bid_increment,type:numeric(12,2),notnull"`
	BidCount         int              `bun:"bid_count,notnull,default:0"`
	Status           AuctionStatus    `bun:"status,notnull"`
	StartsAt         time.Time        `bun:"starts_at,notnull"`
	EndsAt           time.Time        `bun:"ends_at,notnull"`
	OriginalEndTime  time.Time        `bun:"original_end_time,notnull"`
	AntiSnipeSeconds int              `bun:"anti_snipe_seconds,notnull,default:0"`
	WinnerID         *int64           `bun:"winner_id"`
	WinnerNotified   bool             `bun:"winner_notified,notnull,default:false"`
	EndingNotified   bool             `bun:"ending_soon_notified,notnull,default:false"`
	PaymentReminded  bool             `bun:"payment_reminder_sent,notnull,default:false"`
	Featured         bool             `bun:"featured,notnull,default:false"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Category *Category `bun:"rel:belongs-to,join:category_id=id"`
}

// MinimumBid is the lowest amount the next bid may carry.
func (a *Auction) MinimumBid() decimal.Decimal {
	return a.CurrentPrice.Add(a.BidIncrement)
}

// ReserveMet reports whether the current price satisfies the hidden reserve.
func (a *Auction) ReserveMet() bool {
	if a.ReservePrice == nil {
		return true
	}
	return a.BidCount > 0 && a.CurrentPrice.GreaterThanOrEqual(*a.ReservePrice)
}

// AcceptingBids reports whether now falls inside [starts_at, ends_at) of an active auction.
func (a *Auction) AcceptingBids(now time.Time) bool {
	return a.Status == AuctionStatusActive && !now.Before(a.StartsAt) && now.Before(a.EndsAt)
}

func (a *Auction) Clone() *Auction {
	c := *a
	c.Images = append([]string(nil), a.Images...)
	if a.ReservePrice != nil {
		r := *a.ReservePrice
		c.ReservePrice = &r
	}
	if a.CategoryID != nil {
		id := *a.CategoryID
		c.CategoryID = &id
	}
	if a.WinnerID != nil {
		id := *a.WinnerID
		c.WinnerID = &id
	}
	c.Category = nil
	return &c
}

type AuctionStats struct {
	TotalAuctions  int             `json:"totalAuctions"`
	ActiveAuctions int             `json:"activeAuctions"`
	TotalBids      int             `json:"totalBids"`
	TotalRevenue   decimal.Decimal `json:"totalRevenue"`
}
