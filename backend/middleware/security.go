package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/slotcarhq/auctionhouse/backend/utils"
)

// CustomErrorHandler renders errors that escape the handlers, mostly fiber's
// own 404 and 405, in the JSON error envelope.
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "INTERNAL_ERROR"
		switch fe.Code {
		case fiber.StatusNotFound:
			code = "NOT_FOUND"
		case fiber.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		case fiber.StatusRequestEntityTooLarge:
			code = "PAYLOAD_TOO_LARGE"
		default:
			if fe.Code < 500 {
				code = "BAD_REQUEST"
			}
		}
		return utils.SendError(c, fe.Code, code, fe.Message, nil)
	}
	return utils.SendDomainError(c, err)
}

func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		return c.Next()
	}
}
