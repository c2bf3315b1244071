package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrty-backend/internal/config"
	"hrty-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheManager caches per-patient read models in Redis. Everything it holds can be
// rebuilt from Postgres, so a miss or an error is never fatal to callers.
type CacheManager struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewCacheManager creates the cache manager.
func NewCacheManager(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *CacheManager {
	return &CacheManager{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (c *CacheManager) alertsKey(patientID string) string {
	return fmt.Sprintf("%s%s:alerts", c.config.Alert.Cache.KeyPrefix, patientID)
}

// summariesKey is a hash of day -> summary. A day's summary depends on earlier
// days' weights, so the whole hash is dropped together.
func (c *CacheManager) summariesKey(patientID string) string {
	return fmt.Sprintf("%s%s:summaries", c.config.Alert.Cache.KeyPrefix, patientID)
}

// SetActiveAlerts replaces the cached active alerts of a patient.
func (c *CacheManager) SetActiveAlerts(ctx context.Context, patientID string, alerts []models.AlertEvent) error {
	if alerts == nil {
		alerts = []models.AlertEvent{}
	}
	jsonData, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	key := c.alertsKey(patientID)
	if err := c.redisClient.Set(ctx, key, jsonData, c.config.Alert.Cache.TTL).Err(); err != nil {
		return fmt.Errorf("failed to set alert cache: %w", err)
	}

	c.logger.Debug("Updated alert cache",
		zap.String("patient_id", patientID),
		zap.String("key", key),
		zap.Int("alert_count", len(alerts)),
	)
	return nil
}

// GetActiveAlerts returns the cached active alerts; found is false on a miss.
func (c *CacheManager) GetActiveAlerts(ctx context.Context, patientID string) ([]models.AlertEvent, bool, error) {
	var alerts []models.AlertEvent
	found, err := c.get(ctx, c.alertsKey(patientID), &alerts)
	if err != nil || !found {
		return nil, found, err
	}
	return alerts, true, nil
}

// SetSummary caches the rendered day summary.
func (c *CacheManager) SetSummary(ctx context.Context, patientID string, day time.Time, summary interface{}) error {
	jsonData, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	key := c.summariesKey(patientID)
	pipe := c.redisClient.TxPipeline()
	pipe.HSet(ctx, key, models.FormatDay(day), jsonData)
	pipe.Expire(ctx, key, c.config.Alert.Cache.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set summary cache: %w", err)
	}
	return nil
}

// GetSummary decodes a cached day summary into dest; found is false on a miss.
func (c *CacheManager) GetSummary(ctx context.Context, patientID string, day time.Time, dest interface{}) (bool, error) {
	key := c.summariesKey(patientID)
	val, err := c.redisClient.HGet(ctx, key, models.FormatDay(day)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get summary cache: %w", err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache %s: %w", key, err)
	}
	return true, nil
}

// Invalidate drops the cached alerts and every cached summary of the patient.
func (c *CacheManager) Invalidate(ctx context.Context, patientID string) error {
	if err := c.redisClient.Del(ctx, c.alertsKey(patientID), c.summariesKey(patientID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (c *CacheManager) get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.redisClient.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache: %w", err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache %s: %w", key, err)
	}
	return true, nil
}
