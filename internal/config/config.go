// Package config loads application configuration from file and environment.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the full application configuration.
type Config struct {
	App struct {
		Env      string `mapstructure:"env"`
		Timezone string `mapstructure:"timezone"`
	} `mapstructure:"app"`

	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"postgres"`

	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`

	// FX configures the central-bank exchange rate feed.
	FX struct {
		URL string `mapstructure:"url"`
		// Timeout bounds the feed request; the call is cancellable.
		Timeout time.Duration `mapstructure:"timeout"`
		// InsecureSkipTLS disables certificate verification (per-install opt-in).
		InsecureSkipTLS bool `mapstructure:"insecure_skip_tls"`
	} `mapstructure:"fx"`

	SMTP struct {
		Enabled    bool     `mapstructure:"enabled"`
		Host       string   `mapstructure:"host"`
		Port       int      `mapstructure:"port"`
		Username   string   `mapstructure:"username"`
		Password   string   `mapstructure:"password"`
		From       string   `mapstructure:"from"`
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"smtp"`

	Warehouse struct {
		// CostingPolicy selects how receipts update purchase price:
		// "last" (overwrite with latest unit price) or "weighted-average".
		CostingPolicy string `mapstructure:"costing_policy"`
	} `mapstructure:"warehouse"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// Load reads configuration from the given file, with WORKSHOP_* env overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("WORKSHOP")
	v.AutomaticEnv()

	v.SetDefault("app.env", "production")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("fx.timeout", 10*time.Second)
	v.SetDefault("warehouse.costing_policy", "last")

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
