package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/slotcarhq/auctionhouse/internal/domain/auctions"
	"github.com/slotcarhq/auctionhouse/internal/domain/settlement"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database"
	"github.com/slotcarhq/auctionhouse/internal/gateways/database/models"
	"github.com/slotcarhq/auctionhouse/internal/gateways/events"
	"github.com/slotcarhq/auctionhouse/internal/gateways/media"
	"github.com/slotcarhq/auctionhouse/internal/gateways/payments/payfast"
	"github.com/slotcarhq/auctionhouse/internal/gateways/payments/stripe"
	"github.com/slotcarhq/auctionhouse/internal/obs"
)

const EnvPrefix = "AUCTION"

// Duration decodes TOML strings such as "30s" or "15m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Log      LogConfig             `toml:"log"`
	Web      WebConfig             `toml:"web"`
	DB       database.Config       `toml:"db"`
	Auction  AuctionConfig         `toml:"auction"`
	Payments PaymentsConfig        `toml:"payments"`
	Stripe   StripeConfig          `toml:"stripe"`
	PayFast  PayFastConfig         `toml:"payfast"`
	Auth     AuthConfig            `toml:"auth"`
	Redis    events.RedisConfig    `toml:"redis"`
	RabbitMQ events.RabbitMQConfig `toml:"rabbitmq"`
	Spaces   media.Config          `toml:"spaces"`
	Tracing  obs.Config            `toml:"tracing"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type WebConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	BaseURL        string   `toml:"base_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
	// BidsPerMinute limits bid submissions per bidder. Zero disables the limiter.
	BidsPerMinute int `toml:"bids_per_minute"`
}

func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}

type AuctionConfig struct {
	SweepInterval        Duration `toml:"sweep_interval"`
	SweepConcurrency     int      `toml:"sweep_concurrency"`
	EndingSoonWindow     Duration `toml:"ending_soon_window"`
	PaymentReminderAfter Duration `toml:"payment_reminder_after"`
	AntiSnipeSeconds     int      `toml:"anti_snipe_seconds"`
	AntiSnipeMaxExtend   Duration `toml:"anti_snipe_max_extension"`
	Currency             string   `toml:"currency"`
	BidderCacheSize      int      `toml:"bidder_cache_size"`
}

type PaymentsConfig struct {
	DefaultProvider string   `toml:"default_provider"`
	ProviderTimeout Duration `toml:"provider_timeout"`
}

type StripeConfig struct {
	SecretKey     string   `toml:"secret_key"`
	WebhookSecret string   `toml:"webhook_secret"`
	SuccessURL    string   `toml:"success_url"`
	CancelURL     string   `toml:"cancel_url"`
	Timeout       Duration `toml:"timeout"`
}

func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

type PayFastConfig struct {
	MerchantID  string `toml:"merchant_id"`
	MerchantKey string `toml:"merchant_key"`
	Passphrase  string `toml:"passphrase"`
	Sandbox     bool   `toml:"sandbox"`
	ReturnURL   string `toml:"return_url"`
	CancelURL   string `toml:"cancel_url"`
	NotifyURL   string `toml:"notify_url"`
}

func (p PayFastConfig) Enabled() bool {
	return p.MerchantID != ""
}

type AuthConfig struct {
	JWTSecret  string   `toml:"jwt_secret"`
	SessionKey string   `toml:"session_key"`
	CronSecret string   `toml:"cron_secret"`
	BidderTTL  Duration `toml:"bidder_token_ttl"`
	AdminTTL   Duration `toml:"admin_session_ttl"`
}

// secrets are overlaid from AUCTION_* variables on top of the file.
type secrets struct {
	DBPassword          string `envconfig:"DB_PASSWORD"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`
	PayFastPassphrase   string `envconfig:"PAYFAST_PASSPHRASE"`
	CronSecret          string `envconfig:"CRON_SECRET"`
	JWTSecret           string `envconfig:"JWT_SECRET"`
	SessionKey          string `envconfig:"SESSION_KEY"`
	RedisPassword       string `envconfig:"REDIS_PASSWORD"`
	RabbitMQURL         string `envconfig:"RABBITMQ_URL"`
	SpacesKey           string `envconfig:"SPACES_KEY"`
	SpacesSecret        string `envconfig:"SPACES_SECRET"`
}

func Default() Config {
	return Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Web: WebConfig{Host: "0.0.0.0", Port: 8080, BaseURL: "http://localhost:8080", BidsPerMinute: 30},
		DB: database.Config{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "auctionhouse",
			Database: "auctionhouse",
			SSLMode:  "disable",
			PoolSize: 20,
		},
		Auction: AuctionConfig{
			SweepInterval:        Duration{auctions.DefaultSweepInterval},
			SweepConcurrency:     auctions.DefaultSweepConcurrency,
			EndingSoonWindow:     Duration{15 * time.Minute},
			PaymentReminderAfter: Duration{24 * time.Hour},
			AntiSnipeSeconds:     auctions.DefaultAntiSnipeSeconds,
			Currency:             auctions.DefaultCurrency,
		},
		Payments: PaymentsConfig{
			DefaultProvider: string(models.ProviderStripe),
			ProviderTimeout: Duration{settlement.DefaultProviderTimeout},
		},
		Stripe:   StripeConfig{Timeout: Duration{settlement.DefaultProviderTimeout}},
		RabbitMQ: events.RabbitMQConfig{Exchange: events.DefaultExchange},
	}
}

// Load reads the TOML file at path over Default and applies environment
// secrets. A missing file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyEnv() error {
	var s secrets
	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	overlay(&c.DB.Password, s.DBPassword)
	overlay(&c.Stripe.SecretKey, s.StripeSecretKey)
	overlay(&c.Stripe.WebhookSecret, s.StripeWebhookSecret)
	overlay(&c.PayFast.Passphrase, s.PayFastPassphrase)
	overlay(&c.Auth.CronSecret, s.CronSecret)
	overlay(&c.Auth.JWTSecret, s.JWTSecret)
	overlay(&c.Auth.SessionKey, s.SessionKey)
	overlay(&c.Redis.Password, s.RedisPassword)
	overlay(&c.RabbitMQ.URL, s.RabbitMQURL)
	overlay(&c.Spaces.Key, s.SpacesKey)
	overlay(&c.Spaces.Secret, s.SpacesSecret)
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.DB.Driver != "memory" && (c.DB.Host == "" || c.DB.Database == "") {
		errs = append(errs, errors.New("db host and database are required"))
	}
	if c.Auth.CronSecret == "" {
		errs = append(errs, errors.New("auth.cron_secret is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Auth.SessionKey == "" {
		errs = append(errs, errors.New("auth.session_key is required"))
	}
	switch models.PaymentProvider(c.Payments.DefaultProvider) {
	case models.ProviderStripe:
		if !c.Stripe.Enabled() && c.PayFast.Enabled() {
			errs = append(errs, errors.New("payments.default_provider is stripe but stripe is not configured"))
		}
	case models.ProviderPayFast:
		if !c.PayFast.Enabled() {
			errs = append(errs, errors.New("payments.default_provider is payfast but payfast is not configured"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown payments.default_provider %q", c.Payments.DefaultProvider))
	}
	if c.Stripe.Enabled() && c.Stripe.WebhookSecret == "" {
		errs = append(errs, errors.New("stripe.webhook_secret is required when stripe is enabled"))
	}
	if c.Auction.Currency != "" && len(c.Auction.Currency) != 3 {
		errs = append(errs, fmt.Errorf("auction.currency %q is not an ISO code", c.Auction.Currency))
	}
	return errors.Join(errs...)
}

func (c *Config) AuctionOptions() auctions.Options {
	return auctions.Options{
		AntiSnipeCap:         c.Auction.AntiSnipeMaxExtend.Duration,
		DefaultAntiSnipe:     c.Auction.AntiSnipeSeconds,
		EndingSoonWindow:     c.Auction.EndingSoonWindow.Duration,
		PaymentReminderAfter: c.Auction.PaymentReminderAfter.Duration,
		SweepConcurrency:     c.Auction.SweepConcurrency,
		Currency:             strings.ToUpper(c.Auction.Currency),
	}
}

func (c *Config) SettlementOptions() settlement.Options {
	return settlement.Options{
		DefaultProvider: models.PaymentProvider(c.Payments.DefaultProvider),
		ProviderTimeout: c.Payments.ProviderTimeout.Duration,
		Currency:        strings.ToUpper(c.Auction.Currency),
	}
}

func (c *Config) StripeGateway() stripe.Config {
	return stripe.Config{
		SecretKey:     c.Stripe.SecretKey,
		WebhookSecret: c.Stripe.WebhookSecret,
		SuccessURL:    c.Stripe.SuccessURL,
		CancelURL:     c.Stripe.CancelURL,
		Timeout:       c.Stripe.Timeout.Duration,
	}
}

func (c *Config) PayFastGateway() payfast.Config {
	notify := c.PayFast.NotifyURL
	if notify == "" {
		notify = strings.TrimRight(c.Web.BaseURL, "/") + "/auctions/payment/notify"
	}
	return payfast.Config{
		MerchantID:  c.PayFast.MerchantID,
		MerchantKey: c.PayFast.MerchantKey,
		Passphrase:  c.PayFast.Passphrase,
		Sandbox:     c.PayFast.Sandbox,
		ReturnURL:   c.PayFast.ReturnURL,
		CancelURL:   c.PayFast.CancelURL,
		NotifyURL:   notify,
	}
}
