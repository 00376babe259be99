package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. WEAVER_MAX_DEPTH
const EnvPrefix = "WEAVER"

// Config holds all runtime configuration parameters
type Config struct {
	MaxDepth          int    `mapstructure:"max_depth" validate:"gte=0"`
	ConcurrentWorkers int    `mapstructure:"concurrent_workers" validate:"gte=1"`
	DownloadDelayMs   int    `mapstructure:"download_delay_ms" validate:"gte=0"`
	RequestTimeoutMs  int    `mapstructure:"request_timeout_ms" validate:"gte=1000"`
	UserAgent         string `mapstructure:"user_agent" validate:"required"`
	DBPath            string `mapstructure:"db_path" validate:"required"`
	MetricsPath       string `mapstructure:"metrics_path"`
	GraphPath         string `mapstructure:"graph_path"`
	LogLevel          string `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error"`
}

// DownloadDelay is the minimum time between two dispatched fetches
func (c *Config) DownloadDelay() time.Duration {
	return time.Duration(c.DownloadDelayMs) * time.Millisecond
}

// RequestTimeout bounds a single fetch
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

// Default returns the configuration used when no file or environment overrides exist
func Default() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		// Defaults are static and always valid
		panic(err)
	}
	return cfg
}

// LoadConfig reads configuration from an optional file (JSON, YAML or TOML by extension)
// plus WEAVER_* environment variables, then validates it
func LoadConfig(path string) (*Config, error) {
	return Load(viper.New(), path)
}

// Load fills cfg from the given viper instance, which may already have flags bound
func Load(v *viper.Viper, path string) (*Config, error) {
	applyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(v *viper.Viper) {
	v.SetDefault("max_depth", 3)
	v.SetDefault("concurrent_workers", 4)
	v.SetDefault("download_delay_ms", 1000)
	v.SetDefault("request_timeout_ms", 10000)
	v.SetDefault("user_agent", "Mozilla/5.0")
	v.SetDefault("db_path", "crawler.db")
	v.SetDefault("metrics_path", "metrics.json")
	v.SetDefault("graph_path", "")
	v.SetDefault("log_level", "info")
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return validator.New().Struct(cfg)
}
