package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"hrty-backend/internal/models"
	"hrty-backend/internal/thresholds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestThresholdProvider_DefaultsAndCaching(t *testing.T) {
	profiles := newMemoryProfiles()
	p, err := NewThresholdProvider(thresholds.Default(), profiles, 4, time.Minute, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	set, err := p.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, thresholds.Default(), set)

	_, err = p.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, profiles.gets)
}

func TestThresholdProvider_StoredOverride(t *testing.T) {
	profiles := newMemoryProfiles()
	profiles.profiles["p1"] = []byte(`{"weight_change":{"gain_24h":3,"gain_7d":6}}`)
	profiles.profiles["p2"] = []byte(`{"weight_change":{"gain_24h":8,"gain_7d":6}}`)
	p, err := NewThresholdProvider(thresholds.Default(), profiles, 4, time.Minute, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	set, err := p.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, set.WeightChange.Gain24h)
	assert.Equal(t, thresholds.Default().HeartRate, set.HeartRate)

	// a stored profile that no longer validates falls back to the base table
	set, err = p.ForPatient(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, thresholds.Default(), set)
}

func TestThresholdProvider_StoreError(t *testing.T) {
	profiles := newMemoryProfiles()
	profiles.failGet = errors.New("connection refused")
	p, err := NewThresholdProvider(thresholds.Default(), profiles, 4, time.Minute, zap.NewNop())
	require.NoError(t, err)

	_, err = p.ForPatient(context.Background(), "p1")
	assert.ErrorContains(t, err, "connection refused")
}

func TestThresholdProvider_SetProfile(t *testing.T) {
	profiles := newMemoryProfiles()
	p, err := NewThresholdProvider(thresholds.Default(), profiles, 4, time.Minute, zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = p.ForPatient(ctx, "p1")
	require.NoError(t, err)

	set, err := p.SetProfile(ctx, "p1", []byte(`{"oxygen_saturation":{"critical_low":85,"normal_low":90,"low_only":true}}`))
	require.NoError(t, err)
	assert.Equal(t, 90.0, set.OxygenSaturation.NormalLow)

	cached, err := p.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, set, cached)

	_, err = p.SetProfile(ctx, "p1", []byte(`{not json`))
	assert.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = p.SetProfile(ctx, "", []byte(`{}`))
	assert.Error(t, err)
}

func TestThresholdProvider_WithoutProfiles(t *testing.T) {
	base := thresholds.Default()
	p, err := NewThresholdProvider(base, nil, 4, time.Minute, zap.NewNop())
	require.NoError(t, err)

	set, err := p.ForPatient(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, base, set)

	_, err = NewThresholdProvider(thresholds.Set{}, nil, 4, time.Minute, zap.NewNop())
	assert.Error(t, err)
	_, err = NewThresholdProvider(base, nil, 0, time.Minute, zap.NewNop())
	assert.Error(t, err)
	_, err = NewThresholdProvider(base, nil, 4, 0, zap.NewNop())
	assert.Error(t, err)
}

func TestThresholdProvider_SharedStoreAcrossInstances(t *testing.T) {
	profiles := newMemoryProfiles()
	ctx := context.Background()
	clock := time.Date(2024, 3, 8, 9, 0, 0, 0, time.UTC)

	instanceA, err := NewThresholdProvider(thresholds.Default(), profiles, 4, 30*time.Second, zap.NewNop())
	require.NoError(t, err)
	instanceB, err := NewThresholdProvider(thresholds.Default(), profiles, 4, 30*time.Second, zap.NewNop())
	require.NoError(t, err)
	instanceA.now = func() time.Time { return clock }
	instanceB.now = func() time.Time { return clock }

	set, err := instanceB.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, thresholds.Default(), set)

	updated, err := instanceA.SetProfile(ctx, "p1", []byte(`{"weight_change":{"gain_24h":3,"gain_7d":6}}`))
	require.NoError(t, err)

	// B still serves its cached table until the entry expires
	set, err = instanceB.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, thresholds.Default(), set)

	clock = clock.Add(30 * time.Second)
	set, err = instanceB.ForPatient(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, updated, set)
	assert.Equal(t, 3.0, set.WeightChange.Gain24h)
}
