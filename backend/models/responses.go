package models

import "github.com/slotcarhq/auctionhouse/internal/domain/auctions"

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Error   string `json:"error,omitempty"`
}

type WatchResponse struct {
	Watching bool `json:"watching"`
}

type UnreadResponse struct {
	UnreadCount int `json:"unreadCount"`
}

type PaymentResponse struct {
	URL       string `json:"url"`
	PaymentID int64  `json:"paymentId"`
	Provider  string `json:"provider"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

// AuctionDetail is a public auction plus the viewer's watch state.
type AuctionDetail struct {
	*auctions.PublicAuction
	Watching bool `json:"watching"`
}

type UploadResponse struct {
	Auction  *auctions.AdminAuction `json:"auction"`
	Uploaded []string               `json:"uploaded"`
}
