package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/slotcarhq/auctionhouse/backend/utils"
)

// RunSweep runs one full lifecycle sweep on behalf of an external scheduler.
func RunSweep(w *WebApp) fiber.Handler {
	return func(c *fiber.Ctx) error {
		report, err := w.Sweeper.Run(c.Context())
		if err != nil {
			return utils.SendDomainError(c, err)
		}
		return c.JSON(report)
	}
}
