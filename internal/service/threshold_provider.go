package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hrty-backend/internal/models"
	"hrty-backend/internal/repository"
	"hrty-backend/internal/thresholds"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// ThresholdProvider resolves the threshold table of a patient: the stored clinician
// override applied over the deployment table. Resolved tables are kept in an LRU for
// cacheTTL, so a profile written through another instance is picked up once the local
// entry expires.
type ThresholdProvider struct {
	base     thresholds.Set
	profiles ThresholdProfileStore
	cache    *lru.Cache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

type cachedSet struct {
	set       thresholds.Set
	expiresAt time.Time
}

// NewThresholdProvider creates a provider. profiles may be nil, in which case every
// patient gets base.
func NewThresholdProvider(base thresholds.Set, profiles ThresholdProfileStore, cacheSize int, cacheTTL time.Duration, logger *zap.Logger) (*ThresholdProvider, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid base thresholds: %w", err)
	}
	if cacheTTL <= 0 {
		return nil, fmt.Errorf("threshold cache TTL must be positive")
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create threshold cache: %w", err)
	}
	return &ThresholdProvider{
		base:     base,
		profiles: profiles,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (p *ThresholdProvider) cached(patientID string) (thresholds.Set, bool) {
	v, ok := p.cache.Get(patientID)
	if !ok {
		return thresholds.Set{}, false
	}
	entry := v.(cachedSet)
	if !p.now().Before(entry.expiresAt) {
		p.cache.Remove(patientID)
		return thresholds.Set{}, false
	}
	return entry.set, true
}

func (p *ThresholdProvider) store(patientID string, set thresholds.Set) {
	p.cache.Add(patientID, cachedSet{set: set, expiresAt: p.now().Add(p.cacheTTL)})
}

// Base returns the deployment table.
func (p *ThresholdProvider) Base() thresholds.Set {
	return p.base
}

// ForPatient returns the table to evaluate patientID with. A stored profile that no
// longer validates is ignored and the deployment table stays in force.
func (p *ThresholdProvider) ForPatient(ctx context.Context, patientID string) (thresholds.Set, error) {
	if set, ok := p.cached(patientID); ok {
		return set, nil
	}
	if p.profiles == nil {
		return p.base, nil
	}

	raw, err := p.profiles.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.store(patientID, p.base)
			return p.base, nil
		}
		return thresholds.Set{}, fmt.Errorf("failed to load threshold profile: %w", err)
	}

	set, err := thresholds.ParseJSON(p.base, raw)
	if err != nil {
		p.logger.Warn("Ignoring invalid threshold profile",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		set = p.base
	}
	p.store(patientID, set)
	return set, nil
}

// SetProfile validates and stores a clinician override, returning the resolved table.
func (p *ThresholdProvider) SetProfile(ctx context.Context, patientID string, profile json.RawMessage) (thresholds.Set, error) {
	if patientID == "" {
		return thresholds.Set{}, fmt.Errorf("patient_id is required")
	}
	if p.profiles == nil {
		return thresholds.Set{}, fmt.Errorf("threshold profiles are not configured")
	}

	set, err := thresholds.ParseJSON(p.base, profile)
	if err != nil {
		return thresholds.Set{}, &models.ValidationError{Field: "thresholds", Reason: err.Error()}
	}
	if err := p.profiles.Upsert(ctx, patientID, profile); err != nil {
		return thresholds.Set{}, err
	}
	p.store(patientID, set)

	p.logger.Info("Threshold profile updated", zap.String("patient_id", patientID))
	return set, nil
}
