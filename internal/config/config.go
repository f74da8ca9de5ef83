// README: Config loader: optional config.yaml, KHADAMAT_* env overrides, defaults for every key.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"khadamat/internal/types"
)

type PricingConfig struct {
	NightStartHour         int     `mapstructure:"night_start_hour"`
	NightEndHour           int     `mapstructure:"night_end_hour"`
	SingleNightRate        float64 `mapstructure:"single_night_rate"`
	DoubleNightRate        float64 `mapstructure:"double_night_rate"`
	CommissionRate         float64 `mapstructure:"commission_rate"`
	DefaultFreeRadiusKm    float64 `mapstructure:"default_free_radius_km"`
	DefaultPricePerExtraKm float64 `mapstructure:"default_price_per_extra_km"`
	Currency               string  `mapstructure:"currency"`
}

type SearchConfig struct {
	DefaultRadiusKm    float64 `mapstructure:"default_radius_km"`
	MaxAlternatives    int     `mapstructure:"max_alternatives"`
	DiagnosticsEnabled bool    `mapstructure:"diagnostics_enabled"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type Config struct {
	Env  string `mapstructure:"env"`
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"redis"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Maps struct {
		APIKey string `mapstructure:"api_key"`
		Region string `mapstructure:"region"`
	} `mapstructure:"maps"`
	Admin struct {
		// Token guards the rate publishing routes; empty disables them.
		Token string `mapstructure:"token"`
	} `mapstructure:"admin"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.region", "ma")
	v.SetDefault("admin.token", "")

	v.SetDefault("pricing.night_start_hour", 22)
	v.SetDefault("pricing.night_end_hour", 6)
	v.SetDefault("pricing.single_night_rate", 50.0)
	v.SetDefault("pricing.double_night_rate", 100.0)
	v.SetDefault("pricing.commission_rate", 0.20)
	v.SetDefault("pricing.default_free_radius_km", 10.0)
	v.SetDefault("pricing.default_price_per_extra_km", 5.0)
	v.SetDefault("pricing.currency", types.DefaultCurrency)

	v.SetDefault("search.default_radius_km", 20.0)
	v.SetDefault("search.max_alternatives", 5)
	v.SetDefault("search.diagnostics_enabled", false)

	v.SetDefault("ratelimit.requests_per_minute", 600)
	v.SetDefault("ratelimit.burst", 60)
}

// Load reads config.yaml from the working directory or ./config when present;
// KHADAMAT_PRICING_COMMISSION_RATE style variables override file values.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("KHADAMAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects configurations the engine must refuse to start with.
func (c Config) Validate() error {
	if err := c.Pricing.Validate(); err != nil {
		return err
	}
	if c.Search.DefaultRadiusKm <= 0 {
		return fmt.Errorf("config: search.default_radius_km must be > 0, got %v", c.Search.DefaultRadiusKm)
	}
	if c.Search.MaxAlternatives < 0 {
		return fmt.Errorf("config: search.max_alternatives must be >= 0, got %d", c.Search.MaxAlternatives)
	}
	if c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: ratelimit values must be > 0")
	}
	return nil
}

func (p PricingConfig) Validate() error {
	if p.NightStartHour < 0 || p.NightStartHour > 23 {
		return fmt.Errorf("config: pricing.night_start_hour out of range: %d", p.NightStartHour)
	}
	if p.NightEndHour < 0 || p.NightEndHour > 23 {
		return fmt.Errorf("config: pricing.night_end_hour out of range: %d", p.NightEndHour)
	}
	if p.NightStartHour == p.NightEndHour {
		return errors.New("config: night window start and end hours must differ")
	}
	if p.SingleNightRate < 0 {
		return fmt.Errorf("config: pricing.single_night_rate must be >= 0, got %v", p.SingleNightRate)
	}
	if p.DoubleNightRate < p.SingleNightRate {
		return fmt.Errorf("config: pricing.double_night_rate (%v) is lower than single_night_rate (%v)",
			p.DoubleNightRate, p.SingleNightRate)
	}
	if p.CommissionRate < 0 || p.CommissionRate > 1 {
		return fmt.Errorf("config: pricing.commission_rate must be within [0,1], got %v", p.CommissionRate)
	}
	if p.DefaultFreeRadiusKm < 0 || p.DefaultPricePerExtraKm < 0 {
		return errors.New("config: pricing distance defaults must be >= 0")
	}
	if p.Currency == "" {
		return errors.New("config: pricing.currency is required")
	}
	return nil
}
