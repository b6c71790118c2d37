package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Simplici0/pricebook/internal/pricing"
)

const (
	defaultDBDriver = "sqlite"
	defaultDBDSN    = "./dev.db"
	defaultPort     = "8080"
	defaultEnv      = "dev"

	defaultMarginPercent = 30.0
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	Port           string
	DBDriver       string
	DBDSN          string
	AdminEmail     string
	AdminPassword  string
	SessionSecret  string
	SessionTTL     time.Duration
	LogLevel       string
	MetricsEnabled bool

	// Pricing defaults applied when the settings singleton is first seeded.
	Pricing PricingDefaults
}

// PricingDefaults seeds the pricing settings and the fallback payment policy.
type PricingDefaults struct {
	PaymentFlatFee      float64
	PaymentFeeRate      float64
	RoundingIncrement   float64
	FixedCosts          float64
	ProfitMarginPercent float64
}

// Policy returns the fallback payment policy built from the defaults.
func (p PricingDefaults) Policy() pricing.Policy {
	return pricing.Policy{
		PaymentFlatFee:    p.PaymentFlatFee,
		PaymentFeeRate:    p.PaymentFeeRate,
		RoundingIncrement: p.RoundingIncrement,
	}
}

// Inputs returns the calculator defaults seeded into the pricing settings.
func (p PricingDefaults) Inputs() pricing.CostInputs {
	return pricing.CostInputs{
		FixedCosts:          p.FixedCosts,
		ProfitMarginPercent: p.ProfitMarginPercent,
		MarketingMode:       pricing.MarketingFixed,
	}
}

// IsDev reports whether the app runs in local development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == defaultEnv
}

// Load reads .env (if present) and the process environment and returns a populated Config.
func Load() Config {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit dotenv path. Variables already present in the
// environment win over the file.
func LoadFrom(dotenvPath string) Config {
	if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read dotenv file", "path", dotenvPath, "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	policy := pricing.DefaultPolicy()
	v.SetDefault("app_env", defaultEnv)
	v.SetDefault("port", defaultPort)
	v.SetDefault("db_driver", defaultDBDriver)
	v.SetDefault("db_dsn", defaultDBDSN)
	v.SetDefault("session_ttl", 7*24*time.Hour)
	v.SetDefault("log_level", "INFO")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("payment_flat_fee", policy.PaymentFlatFee)
	v.SetDefault("payment_fee_rate", policy.PaymentFeeRate)
	v.SetDefault("rounding_increment", policy.RoundingIncrement)
	v.SetDefault("default_fixed_costs", pricing.DefaultFixedCosts)
	v.SetDefault("default_margin_percent", defaultMarginPercent)

	cfg := Config{
		Env:            v.GetString("app_env"),
		Port:           v.GetString("port"),
		DBDriver:       v.GetString("db_driver"),
		DBDSN:          v.GetString("db_dsn"),
		AdminEmail:     v.GetString("admin_email"),
		AdminPassword:  v.GetString("admin_password"),
		SessionSecret:  v.GetString("session_secret"),
		SessionTTL:     v.GetDuration("session_ttl"),
		LogLevel:       v.GetString("log_level"),
		MetricsEnabled: v.GetBool("metrics_enabled"),
		Pricing: PricingDefaults{
			PaymentFlatFee:      v.GetFloat64("payment_flat_fee"),
			PaymentFeeRate:      v.GetFloat64("payment_fee_rate"),
			RoundingIncrement:   v.GetFloat64("rounding_increment"),
			FixedCosts:          v.GetFloat64("default_fixed_costs"),
			ProfitMarginPercent: v.GetFloat64("default_margin_percent"),
		},
	}

	if cfg.AdminEmail == "" {
		slog.Warn("ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		slog.Warn("ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET is not set")
	}
	if err := cfg.Pricing.Policy().Validate(); err != nil {
		slog.Warn("invalid payment defaults, falling back to built-in policy", "error", err)
		cfg.Pricing.PaymentFlatFee = policy.PaymentFlatFee
		cfg.Pricing.PaymentFeeRate = policy.PaymentFeeRate
		cfg.Pricing.RoundingIncrement = policy.RoundingIncrement
	}
	if err := cfg.Pricing.Inputs().Validate(); err != nil {
		slog.Warn("invalid cost defaults, falling back to built-in defaults", "error", err)
		cfg.Pricing.FixedCosts = pricing.DefaultFixedCosts
		cfg.Pricing.ProfitMarginPercent = defaultMarginPercent
	}

	return cfg
}
