package middleware

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/slotcarhq/auctionhouse/backend/utils"
	"github.com/slotcarhq/auctionhouse/internal/metrics"
)

// LoggingMiddleware logs every request and counts it by route template.
func LoggingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app error handler write the response before we read the status
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		statusCode := c.Response().StatusCode()
		logLevel := slog.LevelInfo
		if statusCode >= 400 && statusCode < 500 {
			logLevel = slog.LevelWarn
		} else if statusCode >= 500 {
			logLevel = slog.LevelError
		}

		route := c.Route().Path
		metrics.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(statusCode)).Inc()

		attrs := []any{
			slog.String("type", "http"),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", statusCode),
			slog.Duration("duration", time.Since(start)),
			slog.String("ip", utils.GetIPAddress(c)),
		}
		if bidderID := utils.BidderID(c); bidderID != 0 {
			attrs = append(attrs, slog.Int64("bidder_id", bidderID))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Log(c.Context(), logLevel, "HTTP request processed", attrs...)
		return nil
	}
}

// AuditLogMiddleware records administrative actions after they complete.
func AuditLogMiddleware(action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		statusCode := c.Response().StatusCode()
		subject, _ := c.Locals(adminLocal).(string)
		slog.Info("Admin action completed",
			slog.String("type", "http"),
			slog.String("action", action),
			slog.String("path", c.Path()),
			slog.String("admin", subject),
			slog.Bool("success", err == nil && statusCode < 300),
			slog.Int("status", statusCode))
		return err
	}
}
