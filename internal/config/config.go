// Package config loads application configuration from file and environment.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Net     NetConfig     `yaml:"net" mapstructure:"net"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Browser BrowserConfig `yaml:"browser" mapstructure:"browser"`
	Batch   BatchConfig   `yaml:"batch" mapstructure:"batch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the result sink database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// NetConfig configures outbound network access.
type NetConfig struct {
	Proxies      []string `yaml:"proxies" mapstructure:"proxies"`
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PerHostRPS   float64  `yaml:"per_host_rps" mapstructure:"per_host_rps"`
	Burst        int      `yaml:"burst" mapstructure:"burst"`
	MaxBodyBytes int64    `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ExtractConfig tunes the anchor-window scanners shared by the platform
// strategies. Window sizes and the staleness horizon are field-adjusted
// heuristics, so they live here rather than in code.
type ExtractConfig struct {
	WindowBefore int `yaml:"window_before" mapstructure:"window_before"`
	WindowAfter  int `yaml:"window_after" mapstructure:"window_after"`
	HorizonDays  int `yaml:"horizon_days" mapstructure:"horizon_days"`
	PostLimit    int `yaml:"post_limit" mapstructure:"post_limit"`
}

// Horizon returns the staleness horizon as a duration.
func (c ExtractConfig) Horizon() time.Duration {
	return time.Duration(c.HorizonDays) * 24 * time.Hour
}

// RetryConfig configures the cascade's single-retry-on-throttle rule.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"`
	BackoffSecs int `yaml:"backoff_secs" mapstructure:"backoff_secs"`
}

// BreakerConfig configures the per-strategy circuit breaker. A zero
// threshold disables it.
type BreakerConfig struct {
	Threshold    int `yaml:"threshold" mapstructure:"threshold"`
	WindowMins   int `yaml:"window_mins" mapstructure:"window_mins"`
	CooldownMins int `yaml:"cooldown_mins" mapstructure:"cooldown_mins"`
}

// BrowserConfig configures the headless-browser fallback renderer.
type BrowserConfig struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentTargets int `yaml:"max_concurrent_targets" mapstructure:"max_concurrent_targets"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SOCIALINTEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "social-intel.db")
	v.SetDefault("net.timeout_secs", 20)
	v.SetDefault("net.per_host_rps", 1.0)
	v.SetDefault("net.burst", 2)
	v.SetDefault("net.max_body_bytes", 2<<20)
	v.SetDefault("extract.window_before", 500)
	v.SetDefault("extract.window_after", 2000)
	v.SetDefault("extract.horizon_days", 365)
	v.SetDefault("extract.post_limit", 12)
	v.SetDefault("retry.max_attempts", 2)
	v.SetDefault("retry.backoff_secs", 2)
	v.SetDefault("breaker.threshold", 0)
	v.SetDefault("breaker.window_mins", 10)
	v.SetDefault("breaker.cooldown_mins", 5)
	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.timeout_secs", 45)
	v.SetDefault("batch.max_concurrent_targets", 3)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
