package handlers

import (
	"github.com/gofiber/fiber/v2"
	webmodels "github.com/slotcarhq/auctionhouse/backend/models"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/domain"
)

const stripeSignatureHeader = "Stripe-Signature"

func CreatePayment(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bidder, ok := utils.CurrentBidder(c)
		if !ok {
			return utils.SendDomainError(c, domain.ErrUnauthenticated)
		}
		var req webmodels.PaymentRequest
		if err := utils.ParseBody(c, &req); err != nil {
			return utils.SendDomainError(c, err)
		}
		if req.AuctionID <= 0 {
			return utils.SendDomainError(c, domain.ErrInvalidRequest.WithMessage("auctionId is required"))
		}

		session, err := w.Settlement.CreatePaymentSession(c.Context(), req.AuctionID, bidder.ID, req.Provider)
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(webmodels.PaymentResponse{
			URL:       session.URL,
			PaymentID: session.PaymentID,
			Provider:  string(session.Provider),
		})
	}
}

// StripeWebhook answers 200 for every verified event, applied or not. Only a
// bad signature is rejected so Stripe stops retrying everything else.
func StripeWebhook(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := append([]byte(nil), c.Body()...)
		if err := w.Settlement.HandleStripeWebhook(c.Context(), payload, c.Get(stripeSignatureHeader)); err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(webmodels.WebhookResponse{Received: true})
	}
}

// PayFastNotify handles the ITN post. PayFast expects a bare 200.
func PayFastNotify(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := append([]byte(nil), c.Body()...)
		if err := w.Settlement.HandlePayFastNotify(c.Context(), body); err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.SendString("OK")
	}
}
