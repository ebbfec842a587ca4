package models

import (
	"time"

	"github.com/uptrace/bun"
)

type NotificationType string

const (
	NotificationOutbid          NotificationType = "outbid"
	NotificationWinner          NotificationType = "winner"
	NotificationAuctionEnding   NotificationType = "auction_ending"
	NotificationPaymentReminder NotificationType = "payment_reminder"
	NotificationPaymentReceived NotificationType = "payment_received"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int64            `bun:"id,pk,autoincrement" json:"id"`
	BidderID  int64            `bun:"bidder_id,notnull" json:"bidderId"`
	AuctionID *int64           `bun:"auction_id" json:"auctionId,omitempty"`
	Type      NotificationType `bun:"type,notnull" json:"type"`
	Title     string           `bun:"title,notnull" json:"title"`
	Message   string           `bun:"message,notnull" json:"message"`
	Read      bool             `bun:"read,notnull,default:false" json:"read"`
	CreatedAt time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
}
