package config

import (
	"fmt"
	"net/url"
)

// DatabaseConfig holds Postgres connection settings.
// Keys resolve as DB_HOST, DB_PORT ... when embedded under `envconfig:"DB"`.
type DatabaseConfig struct {
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	User     string `default:"postgres"`
	Password string `default:"postgres"`
	Name     string `default:"hrty"`
	SSLMode  string `default:"disable"`
	MaxConns int    `split_words:"true" default:"10"`
	MaxIdle  int    `split_words:"true" default:"5"`
}

// GetDSN returns a lib/pq keyword/value connection string.
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// GetURL returns the same connection as a postgres:// URL, with the password redacted.
// Used for logging only.
func (c *DatabaseConfig) GetURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, "xxxxx"),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.Redacted()
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `default:"localhost:6379"`
	Password string
	DB       int `default:"0"`
}

// MQTTConfig holds broker settings for the device reading subscription.
type MQTTConfig struct {
	Enabled  bool   `default:"false"`
	Broker   string `default:"tcp://localhost:1883"`
	ClientID string `split_words:"true" default:"hrty-backend"`
	Username string
	Password string
	QoS      byte   `default:"1"`
	Topic    string `default:"hrty/+/readings"`
}
