package logger

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

var _ bun.QueryHook = (*QueryHook)(nil)

// QueryHook logs bun queries. Failures are always logged; successful queries
// only at debug level or when slower than Slow.
type QueryHook struct {
	Slow time.Duration
}

func NewQueryHook(slow time.Duration) *QueryHook {
	return &QueryHook{Slow: slow}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)
	attrs := []slog.Attr{
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", took),
	}

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		slog.LogAttrs(ctx, slog.LevelError, "Query failed", append(attrs, slog.String("error", event.Err.Error()))...)
	case h.Slow > 0 && took >= h.Slow:
		slog.LogAttrs(ctx, slog.LevelWarn, "Slow query", attrs...)
	default:
		slog.LogAttrs(ctx, slog.LevelDebug, "Query executed", attrs...)
	}
}
