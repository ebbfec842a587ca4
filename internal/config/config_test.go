package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
)

const sample = `
[log]
level = "debug"

[web]
port = 9090
base_url = "https://shop.example.com/"

[db]
host = "db.internal"
database = "auctions"
user = "app"

[auction]
sweep_interval = "30s"
anti_snipe_seconds = 90
anti_snipe_max_extension = "30m"
currency = "zar"

[payments]
default_provider = "payfast"

[payfast]
merchant_id = "10000100"
merchant_key = "46f0cd694581a"
sandbox = true

[auth]
jwt_secret = "from-file"
session_key = "cookie-key"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_Load(t *testing.T) {
	t.Setenv("AUCTION_CRON_SECRET", "cron-from-env")
	t.Setenv("AUCTION_JWT_SECRET", "jwt-from-env")
	t.Setenv("AUCTION_DB_PASSWORD", "pw")

	cfg, err := Load(writeConfig(t, sample))
	assert.NoError(t, err)
	assert.NoError(t, cfg.Validate())

	check.Equal(t, "debug", cfg.Log.Level)
	check.Equal(t, "0.0.0.0:9090", cfg.Web.Addr())
	check.Equal(t, 5432, cfg.DB.Port)
	check.Equal(t, "pw", cfg.DB.Password)
	check.Equal(t, "cron-from-env", cfg.Auth.CronSecret)
	check.Equal(t, "jwt-from-env", cfg.Auth.JWTSecret)
	check.Equal(t, 30*time.Second, cfg.Auction.SweepInterval.Duration)

	opts := cfg.AuctionOptions()
	check.Equal(t, 30*time.Minute, opts.AntiSnipeCap)
	check.Equal(t, 90, opts.DefaultAntiSnipe)
	check.Equal(t, "ZAR", opts.Currency)
	check.Equal(t, 15*time.Minute, opts.EndingSoonWindow)

	check.Equal(t, models.ProviderPayFast, cfg.SettlementOptions().DefaultProvider)
	check.Equal(t, "https://shop.example.com/auctions/payment/notify", cfg.PayFastGateway().NotifyURL)
}

func Test_Default_SweepsEveryMinute(t *testing.T) {
	check.Equal(t, time.Minute, auctions.DefaultSweepInterval)
	check.Equal(t, time.Minute, Default().Auction.SweepInterval.Duration)

	cfg, err := Load(writeConfig(t, "[log]\nlevel = \"info\"\n"))
	assert.NoError(t, err)
	check.Equal(t, time.Minute, cfg.Auction.SweepInterval.Duration)
}

func Test_Load_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	check.Error(t, err)

	_, err = Load(writeConfig(t, "[auction]\nsweep_interval = \"soon\"\n"))
	check.Error(t, err)

	_, err = Load(writeConfig(t, "[nope]\nkey = 1\n"))
	check.Error(t, err)
}

func Test_Validate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.NotNil(t, err)
	for _, want := range []string{"cron_secret", "jwt_secret", "session_key"} {
		check.True(t, strings.Contains(err.Error(), want))
	}

	cfg.Auth = AuthConfig{JWTSecret: "j", SessionKey: "s", CronSecret: "c"}
	check.NoError(t, cfg.Validate())

	cfg.Stripe.SecretKey = "sk_test"
	check.Error(t, cfg.Validate())
	cfg.Stripe.WebhookSecret = "whsec"
	check.NoError(t, cfg.Validate())

	cfg.Payments.DefaultProvider = "paypal"
	check.Error(t, cfg.Validate())
}
