package consumer

import (
	"time"

	"hrty-backend/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Alert.Cache.KeyPrefix = "hrty:patient:"
	cfg.Alert.Cache.TTL = time.Minute
	cfg.Alert.Lock.KeyPrefix = "hrty:lock:"
	cfg.Alert.Lock.TTL = 5 * time.Second
	cfg.Alert.Lock.WaitTimeout = 200 * time.Millisecond
	cfg.Alert.Lock.RetryInterval = 10 * time.Millisecond
	cfg.MQTT.Topic = "hrty/+/readings"
	cfg.MQTT.QoS = 1
	return cfg
}
