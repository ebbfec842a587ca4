package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Bid rows are append-only; IsWinning is the only column ever updated.
type Bid struct {
	bun.BaseModel `bun:"table:bids,alias:b"`

	ID        int64           `bun:"id,pk,autoincrement"`
	AuctionID int64           `bun:"auction_id,notnull"`
	BidderID  int64           `bun:"bidder_id,notnull"`
	Amount    decimal.Decimal `bun:"amount,type:numeric(12,2),notnull"`
	IsWinning bool            `bun:"is_winning,notnull,default:false"`
	CreatedAt time.Time       `bun:"created_at,notnull,default:current_timestamp"`

	Bidder *Bidder `bun:"rel:belongs-to,join:bidder_id=id"`
}

// BidderBid summarises one bidder's participation in an auction.
type BidderBid struct {
	AuctionID  int64           `bun:"auction_id"`
	HighestBid decimal.Decimal `bun:"highest_bid"`
	BidCount   int             `bun:"bid_count"`
	IsWinning  bool            `bun:"is_winning"`
	LastBidAt  time.Time       `bun:"last_bid_at"`
	Auction    *Auction        `bun:"-"`
}

type Bidder struct {
	bun.BaseModel `bun:"table:bidders,alias:bd"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	ExternalRef string    `bun:"external_ref,notnull,unique" json:"externalRef"`
	DisplayName string    `bun:"display_name,notnull,default:''" json:"displayName"`
	Email       string    `bun:"email,notnull,default:''" json:"email"`
	Phone       string    `bun:"phone,notnull,default:''" json:"phone"`
	IsBanned    bool      `bun:"is_banned,notnull,default:false" json:"isBanned"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}

type WatchlistItem struct {
	bun.BaseModel `bun:"table:watchlist_items,alias:w"`

	BidderID  int64     `bun:"bidder_id,pk"`
	AuctionID int64     `bun:"auction_id,pk"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

type Category struct {
	bun.BaseModel `bun:"table:auction_categories,alias:ac"`

	ID          int64     `bun:"id,pk,autoincrement"`
	Name        string    `bun:"name,notnull"`
	Slug        string    `bun:"slug,notnull,unique"`
	Description string    `bun:"description,notnull,default:''"`
	SortOrder   int       `bun:"sort_order,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
