package models

import (
	"github.com/shopspring/decimal"
	dbmodels "github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

// BidRequest accepts the amount as a JSON number or string.
type BidRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type WatchRequest struct {
	Action string `json:"action"`
}

const (
	WatchActionWatch   = "watch"
	WatchActionUnwatch = "unwatch"
)

// MarkReadRequest marks one notification when ID is set, or every unread
// notification when All is true.
type MarkReadRequest struct {
	ID  int64 `json:"id"`
	All bool  `json:"all"`
}

type PaymentRequest struct {
	AuctionID int64                    `json:"auctionId"`
	Provider  dbmodels.PaymentProvider `json:"provider"`
}

type FeatureRequest struct {
	Featured bool `json:"featured"`
}
