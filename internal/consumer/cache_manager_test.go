package consumer

import (
	"context"
	"testing"
	"time"

	"hrty-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *CacheManager) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	return mr, NewCacheManager(testConfig(), redisClient, zap.NewNop())
}

func TestCacheManager_ActiveAlerts(t *testing.T) {
	mr, cache := setupTestRedis(t)
	ctx := context.Background()

	_, found, err := cache.GetActiveAlerts(ctx, "patient-1")
	require.NoError(t, err)
	assert.False(t, found)

	alerts := []models.AlertEvent{{
		EventID:     "evt-1",
		PatientID:   "patient-1",
		Category:    models.CategoryLowMAP,
		Severity:    models.StatusCaution,
		AlertStatus: models.AlertStatusActive,
		TriggerData: []byte(`{"mean_arterial_pressure":63}`),
	}}
	require.NoError(t, cache.SetActiveAlerts(ctx, "patient-1", alerts))
	assert.Equal(t, time.Minute, mr.TTL("hrty:patient:patient-1:alerts"))

	got, found, err := cache.GetActiveAlerts(ctx, "patient-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, models.CategoryLowMAP, got[0].Category)
	assert.Equal(t, models.StatusCaution, got[0].Severity)
}

func TestCacheManager_EmptyAlertsAreCached(t *testing.T) {
	_, cache := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.SetActiveAlerts(ctx, "patient-1", nil))

	got, found, err := cache.GetActiveAlerts(ctx, "patient-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, got)
}

func TestCacheManager_SummaryAndInvalidate(t *testing.T) {
	mr, cache := setupTestRedis(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	nextDay := day.AddDate(0, 0, 1)

	type summary struct {
		Overall string `json:"overall"`
	}
	require.NoError(t, cache.SetSummary(ctx, "patient-1", day, summary{Overall: "caution"}))
	require.NoError(t, cache.SetSummary(ctx, "patient-1", nextDay, summary{Overall: "normal"}))
	require.NoError(t, cache.SetActiveAlerts(ctx, "patient-1", nil))
	assert.True(t, mr.Exists("hrty:patient:patient-1:summaries"))
	assert.Equal(t, time.Minute, mr.TTL("hrty:patient:patient-1:summaries"))

	var got summary
	found, err := cache.GetSummary(ctx, "patient-1", day, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "caution", got.Overall)

	found, err = cache.GetSummary(ctx, "patient-1", nextDay, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "normal", got.Overall)

	// one write invalidates every day of the patient
	require.NoError(t, cache.Invalidate(ctx, "patient-1"))
	for _, d := range []time.Time{day, nextDay} {
		found, err = cache.GetSummary(ctx, "patient-1", d, &got)
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.False(t, mr.Exists("hrty:patient:patient-1:alerts"))
	assert.False(t, mr.Exists("hrty:patient:patient-1:summaries"))
}

func TestCacheManager_CorruptEntry(t *testing.T) {
	mr, cache := setupTestRedis(t)
	require.NoError(t, mr.Set("hrty:patient:patient-1:alerts", "not json"))

	_, _, err := cache.GetActiveAlerts(context.Background(), "patient-1")
	assert.Error(t, err)
}
