package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/logger"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
	defaultSlowQuery     = 250 * time.Millisecond
)

type Config struct {
	Driver       string `toml:"driver"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	SSLMode      string `toml:"ssl_mode"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
	// SlowQueryMillis logs successful queries slower than this at WARN.
	SlowQueryMillis int `toml:"slow_query_ms"`
}

func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {sslMode}, "connect_timeout": {"5"}}.Encode(),
	}
	return u.String()
}

// DB pairs a pgx pool for health checks and raw DDL with a bun handle for
// the repositories.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	var pool *pgxpool.Pool
	for i := 0; i < defaultMaxRetries; i++ {
		pool, err = connect(ctx, poolConfig)
		if err == nil {
			break
		}
		slog.Warn("Database not reachable, retrying",
			slog.String("type", "db"),
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(defaultRetryInterval):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN()),
		pgdriver.WithTimeout(defaultConnTimeout),
	))
	if cfg.PoolSize > 0 {
		sqldb.SetMaxOpenConns(cfg.PoolSize)
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	slow := defaultSlowQuery
	if cfg.SlowQueryMillis > 0 {
		slow = time.Duration(cfg.SlowQueryMillis) * time.Millisecond
	}
	bunDB.AddQueryHook(logger.NewQueryHook(slow))

	return &DB{pool: pool, bunDB: bunDB}, nil
}

func connect(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.String("query", sql),
			logger.Since(start),
			slog.String("error", err.Error()))
		return result, err
	}
	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.String("query", sql),
		logger.Since(start),
		slog.Int64("affected_rows", result.RowsAffected()))
	return result, nil
}

type table struct {
	model       any
	foreignKeys []string
}

// tables are listed in dependency order.
var tables = []table{
	{model: (*models.Category)(nil)},
	{model: (*models.Bidder)(nil)},
	{model: (*models.Auction)(nil), foreignKeys: []string{
		`("category_id") REFERENCES "auction_categories" ("id") ON DELETE SET NULL`,
		`("winner_id") REFERENCES "bidders" ("id")`,
	}},
	{model: (*models.Bid)(nil), foreignKeys: []string{
		`("auction_id") REFERENCES "auctions" ("id") ON DELETE CASCADE`,
		`("bidder_id") REFERENCES "bidders" ("id")`,
	}},
	{model: (*models.WatchlistItem)(nil), foreignKeys: []string{
		`("auction_id") REFERENCES "auctions" ("id") ON DELETE CASCADE`,
		`("bidder_id") REFERENCES "bidders" ("id") ON DELETE CASCADE`,
	}},
	{model: (*models.AuctionPayment)(nil), foreignKeys: []string{
		`("auction_id") REFERENCES "auctions" ("id")`,
		`("bidder_id") REFERENCES "bidders" ("id")`,
	}},
	{model: (*models.Notification)(nil), foreignKeys: []string{
		`("bidder_id") REFERENCES "bidders" ("id") ON DELETE CASCADE`,
		`("auction_id") REFERENCES "auctions" ("id") ON DELETE SET NULL`,
	}},
	{model: (*models.PaymentCallback)(nil)},
}

type check struct {
	table string
	name  string
	expr  string
}

// checks back the price and schedule invariants the domain layer enforces.
var checks = []check{
	{table: "auctions", name: "ck_auctions_price_floor", expr: "current_price >= starting_price"},
	{table: "auctions", name: "ck_auctions_schedule", expr: "ends_at >= starts_at"},
	{table: "auctions", name: "ck_auctions_original_end", expr: "ends_at >= original_end_time"},
}

// statement adds the constraint unless one with the same name exists.
func (c check) statement() string {
	return fmt.Sprintf(`DO $$ BEGIN
	ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);
EXCEPTION WHEN duplicate_object THEN NULL;
END $$;`, c.table, c.name, c.expr)
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_auctions_status_ends_at ON auctions(status, ends_at);",
	"CREATE INDEX IF NOT EXISTS idx_auctions_scheduled ON auctions(starts_at) WHERE status = 'scheduled';",
	"CREATE INDEX IF NOT EXISTS idx_auctions_category ON auctions(category_id);",
	"CREATE INDEX IF NOT EXISTS idx_bids_auction_amount ON bids(auction_id, amount DESC, id DESC);",
	"CREATE INDEX IF NOT EXISTS idx_bids_bidder ON bids(bidder_id);",
	"CREATE UNIQUE INDEX IF NOT EXISTS uq_bids_one_winning ON bids(auction_id) WHERE is_winning;",
	"CREATE INDEX IF NOT EXISTS idx_watchlist_auction ON watchlist_items(auction_id);",
	"CREATE INDEX IF NOT EXISTS idx_payments_auction ON auction_payments(auction_id);",
	"CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_one_succeeded ON auction_payments(auction_id) WHERE status = 'succeeded';",
	"CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_session ON auction_payments(provider, provider_session_id) WHERE provider_session_id <> '';",
	"CREATE INDEX IF NOT EXISTS idx_notifications_bidder ON notifications(bidder_id, created_at DESC, id DESC);",
	"CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications(bidder_id) WHERE NOT read;",
	"CREATE INDEX IF NOT EXISTS idx_payment_callbacks_outcome ON payment_callbacks(outcome, created_at DESC);",
}

// InitializeSchema creates every table and index. It is safe to run repeatedly.
func (db *DB) InitializeSchema(ctx context.Context) error {
	for _, t := range tables {
		q := db.bunDB.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, c := range checks {
		if _, err := db.ExecWithLog(ctx, c.statement()); err != nil {
			return fmt.Errorf("failed to add constraint %s: %w", c.name, err)
		}
	}
	for _, idx := range indexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	slog.Info("Database schema ready",
		slog.String("type", "db"),
		slog.Int("tables", len(tables)),
		slog.Int("checks", len(checks)),
		slog.Int("indexes", len(indexes)))
	return nil
}
