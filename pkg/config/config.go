package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/prairiemarket/storefront-backend/pkg/enums"
)

type Config struct {
	App       AppConfig
	USPS      USPSConfig
	Shipping  ShippingConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.USPS.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Shipping.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRAIRIEMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"PRAIRIEMARKET_APP_PORT" default:"9000"`
	LogLevel     string `envconfig:"PRAIRIEMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRAIRIEMARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// USPSConfig carries the carrier credentials and environment selection.
// The carrier clients receive these values explicitly; they never read env
// on their own.
type USPSConfig struct {
	ClientID     string        `envconfig:"PRAIRIEMARKET_USPS_CLIENT_ID" required:"true"`
	ClientSecret string        `envconfig:"PRAIRIEMARKET_USPS_CLIENT_SECRET" required:"true"`
	Environment  string        `envconfig:"PRAIRIEMARKET_USPS_ENVIRONMENT" default:"testing"`
	CallTimeout  time.Duration `envconfig:"PRAIRIEMARKET_USPS_CALL_TIMEOUT" default:"10s"`
}

func (u USPSConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(u.Environment)) {
	case USPSEnvProduction, USPSEnvTesting:
		return nil
	default:
		return fmt.Errorf("usps environment must be %q or %q", USPSEnvProduction, USPSEnvTesting)
	}
}

// IsProduction reports whether the production carrier base URL should be used.
func (u USPSConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(u.Environment), USPSEnvProduction)
}

type ShippingConfig struct {
	OriginZIP         string        `envconfig:"PRAIRIEMARKET_WAREHOUSE_ZIP" default:"66217"`
	DefaultMailClass  string        `envconfig:"PRAIRIEMARKET_DEFAULT_MAIL_CLASS" default:"USPS_GROUND_ADVANTAGE"`
	IncludeFirstClass bool          `envconfig:"PRAIRIEMARKET_SHIPPING_INCLUDE_FIRST_CLASS" default:"false"`
	CacheTTL          time.Duration `envconfig:"PRAIRIEMARKET_SHIPPING_CACHE_TTL" default:"5m"`
}

func (s ShippingConfig) validate() error {
	if _, err := enums.ParseMailClass(s.DefaultMailClass); err != nil {
		return fmt.Errorf("default mail class: %w", err)
	}
	return nil
}

// FallbackMailClasses returns the mail classes tried during per-class fallback.
func (s ShippingConfig) FallbackMailClasses() []enums.MailClass {
	classes := []enums.MailClass{
		enums.MailClassPriority,
		enums.MailClassPriorityExpress,
		enums.MailClassGroundAdvantage,
	}
	if s.IncludeFirstClass {
		classes = append(classes, enums.MailClassFirstClass)
	}
	return classes
}

// RateLimitConfig holds the fixed-window throttling policies per traffic
// surface. Defaults are the strict production values; permissive deployments
// override them through environment, never through code branches.
type RateLimitConfig struct {
	Enabled bool `envconfig:"PRAIRIEMARKET_RATE_LIMIT_ENABLED" default:"true"`

	AuthWindow time.Duration `envconfig:"PRAIRIEMARKET_RATE_LIMIT_AUTH_WINDOW" default:"15m"`
	AuthMax    int           `envconfig:"PRAIRIEMARKET_RATE_LIMIT_AUTH_MAX" default:"5"`

	ReviewWindow time.Duration `envconfig:"PRAIRIEMARKET_RATE_LIMIT_REVIEW_WINDOW" default:"1h"`
	ReviewMax    int           `envconfig:"PRAIRIEMARKET_RATE_LIMIT_REVIEW_MAX" default:"3"`

	RatesWindow time.Duration `envconfig:"PRAIRIEMARKET_RATE_LIMIT_RATES_WINDOW" default:"1m"`
	RatesMax    int           `envconfig:"PRAIRIEMARKET_RATE_LIMIT_RATES_MAX" default:"30"`

	APIWindow time.Duration `envconfig:"PRAIRIEMARKET_RATE_LIMIT_API_WINDOW" default:"1m"`
	APIMax    int           `envconfig:"PRAIRIEMARKET_RATE_LIMIT_API_MAX" default:"100"`

	SweepInterval time.Duration `envconfig:"PRAIRIEMARKET_RATE_LIMIT_SWEEP_INTERVAL" default:"5m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRAIRIEMARKET_REDIS_URL"`
	Address      string        `envconfig:"PRAIRIEMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"PRAIRIEMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRAIRIEMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRAIRIEMARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRAIRIEMARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRAIRIEMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRAIRIEMARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRAIRIEMARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether a Redis backend was supplied. When absent the
// API falls back to the in-process rate limit store.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}
