package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "hrty", cfg.Database.Name)
	assert.Equal(t, 10, cfg.Database.MaxConns)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "hrty/+/readings", cfg.MQTT.Topic)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)

	assert.Equal(t, "hrty:patient:", cfg.Alert.Cache.KeyPrefix)
	assert.Equal(t, 5*time.Minute, cfg.Alert.Cache.TTL)
	assert.Equal(t, "hrty:lock:", cfg.Alert.Lock.KeyPrefix)
	assert.Equal(t, 10*time.Second, cfg.Alert.Lock.TTL)
	assert.Equal(t, 3*time.Second, cfg.Alert.Lock.WaitTimeout)
	assert.Equal(t, "hrty:alerts", cfg.Alert.Stream.Name)
	assert.Equal(t, int64(10000), cfg.Alert.Stream.MaxLen)
	assert.Empty(t, cfg.Alert.Webhook.URL)
	assert.Equal(t, 1024, cfg.Alert.ThresholdCacheSize)
	assert.Equal(t, 30*time.Second, cfg.Alert.ThresholdCacheTTL)
	assert.Equal(t, time.UTC, cfg.Location())

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_NAME", "test-db")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("REDIS_ADDR", "test-redis:6380")
	t.Setenv("MQTT_ENABLED", "true")
	t.Setenv("MQTT_CLIENT_ID", "hrty-test")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("ALERT_LOCK_WAIT_TIMEOUT", "500ms")
	t.Setenv("ALERT_WEBHOOK_URL", "https://care.example.com/hooks/hrty")
	t.Setenv("ALERT_THRESHOLD_FILE", "/etc/hrty/thresholds.yaml")
	t.Setenv("ALERT_TIMEZONE", "America/Chicago")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, "test-db", cfg.Database.Name)
	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, "test-redis:6380", cfg.Redis.Addr)
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "hrty-test", cfg.MQTT.ClientID)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Alert.Lock.WaitTimeout)
	assert.Equal(t, "https://care.example.com/hooks/hrty", cfg.Alert.Webhook.URL)
	assert.Equal(t, "/etc/hrty/thresholds.yaml", cfg.Alert.ThresholdFile)
	assert.Equal(t, "America/Chicago", cfg.Location().String())
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidTimezone(t *testing.T) {
	t.Setenv("ALERT_TIMEZONE", "Mars/Olympus")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_TIMEZONE")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("ALERT_LOCK_TTL", "soon")

	_, err := Load()
	assert.Error(t, err)
}
