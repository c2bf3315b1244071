package config

import (
	"fmt"
	"time"

	"hrty-backend/common/config"

	"github.com/kelseyhightower/envconfig"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Database config.DatabaseConfig `envconfig:"DB"`
	Redis    config.RedisConfig    `envconfig:"REDIS"`
	MQTT     config.MQTTConfig     `envconfig:"MQTT"`

	HTTP struct {
		Addr            string        `default:":8080"`
		ReadTimeout     time.Duration `split_words:"true" default:"10s"`
		WriteTimeout    time.Duration `split_words:"true" default:"15s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
	} `envconfig:"HTTP"`

	Alert struct {
		// Redis status/alert cache
		Cache struct {
			KeyPrefix string        `split_words:"true" default:"hrty:patient:"`
			TTL       time.Duration `default:"5m"`
		}

		// per patient-day evaluation lock
		Lock struct {
			KeyPrefix     string        `split_words:"true" default:"hrty:lock:"`
			TTL           time.Duration `default:"10s"`
			WaitTimeout   time.Duration `split_words:"true" default:"3s"`
			RetryInterval time.Duration `split_words:"true" default:"50ms"`
		}

		Stream struct {
			Name   string `default:"hrty:alerts"`
			MaxLen int64  `split_words:"true" default:"10000"`
		}

		// care-team webhook; disabled when URL is empty
		Webhook struct {
			URL        string
			Timeout    time.Duration `default:"5s"`
			RetryCount int           `split_words:"true" default:"2"`
		}

		ThresholdFile      string `split_words:"true"`
		ThresholdCacheSize int    `split_words:"true" default:"1024"`

		// how long another instance's profile change may go unseen
		ThresholdCacheTTL time.Duration `split_words:"true" default:"30s"`
		// Timezone decides which calendar day a reading belongs to.
		Timezone string `default:"UTC"`
	} `envconfig:"ALERT"`

	Log struct {
		Level  string `default:"info"`
		Format string `default:"json"`
	} `envconfig:"LOG"`

	location *time.Location
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Alert.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ALERT_TIMEZONE %q: %w", cfg.Alert.Timezone, err)
	}
	cfg.location = loc

	if cfg.Alert.Lock.TTL <= 0 {
		return nil, fmt.Errorf("ALERT_LOCK_TTL must be positive")
	}
	if cfg.Alert.ThresholdCacheSize <= 0 {
		return nil, fmt.Errorf("ALERT_THRESHOLD_CACHE_SIZE must be positive")
	}
	if cfg.Alert.ThresholdCacheTTL <= 0 {
		return nil, fmt.Errorf("ALERT_THRESHOLD_CACHE_TTL must be positive")
	}
	return cfg, nil
}

// Location returns the timezone calendar days are computed in.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
