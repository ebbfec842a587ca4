package notifications

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

func FormatPrice(amount decimal.Decimal, currency string) string {
	return fmt.Sprintf("%s %s", currency, amount.StringFixed(2))
}

func newNotification(bidderID int64, a *models.Auction, t models.NotificationType, title, message string, at time.Time) *models.Notification {
	auctionID := a.ID
	return &models.Notification{
		BidderID:  bidderID,
		AuctionID: &auctionID,
		Type:      t,
		Title:     title,
		Message:   message,
		CreatedAt: at,
	}
}

// Outbid tells the previous leader that someone bid newPrice.
func Outbid(bidderID int64, a *models.Auction, newPrice decimal.Decimal, currency string, at time.Time) *models.Notification {
	return newNotification(bidderID, a, models.NotificationOutbid,
		"You've been outbid",
		fmt.Sprintf("Someone bid %s on %q. Bid at least %s to take the lead again.",
			FormatPrice(newPrice, currency), a.Title, FormatPrice(newPrice.Add(a.BidIncrement), currency)),
		at)
}

func Winner(bidderID int64, a *models.Auction, currency string, at time.Time) *models.Notification {
	return newNotification(bidderID, a, models.NotificationWinner,
		"You won!",
		fmt.Sprintf("You won %q for %s. Complete your payment to secure the item.",
			a.Title, FormatPrice(a.CurrentPrice, currency)),
		at)
}

func EndingSoon(bidderID int64, a *models.Auction, currency string, at time.Time) *models.Notification {
	remaining := a.EndsAt.Sub(at).Round(time.Minute)
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return newNotification(bidderID, a, models.NotificationAuctionEnding,
		"Auction ending soon",
		fmt.Sprintf("%q ends in about %s. Current price is %s.",
			a.Title, remaining, FormatPrice(a.CurrentPrice, currency)),
		at)
}

func PaymentReminder(bidderID int64, a *models.Auction, currency string, at time.Time) *models.Notification {
	return newNotification(bidderID, a, models.NotificationPaymentReminder,
		"Payment reminder",
		fmt.Sprintf("Your payment of %s for %q is still outstanding.",
			FormatPrice(a.CurrentPrice, currency), a.Title),
		at)
}

func PaymentReceived(bidderID int64, a *models.Auction, amount decimal.Decimal, currency string, at time.Time) *models.Notification {
	return newNotification(bidderID, a, models.NotificationPaymentReceived,
		"Payment received",
		fmt.Sprintf("We received %s for %q. Thank you!", FormatPrice(amount, currency), a.Title),
		at)
}
