package consumer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hrty-backend/internal/config"
	"hrty-backend/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrLockNotAcquired is returned when the lock is still held after the wait timeout.
var ErrLockNotAcquired = errors.New("evaluation lock not acquired")

// releaseScript deletes the key only if it still holds our token, so an expired
// lease never frees a lock another holder has since taken.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// EvaluationLock serializes read-evaluate-persist per patient and day across instances.
type EvaluationLock struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger
}

// NewEvaluationLock creates the lock.
func NewEvaluationLock(
	cfg *config.Config,
	redisClient *redis.Client,
	logger *zap.Logger,
) *EvaluationLock {
	return &EvaluationLock{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
	}
}

// GetLockKey builds the key of one patient-day.
func (l *EvaluationLock) GetLockKey(patientID string, day time.Time) string {
	return fmt.Sprintf("%s%s:%s", l.config.Alert.Lock.KeyPrefix, patientID, models.FormatDay(day))
}

// TryAcquire makes one attempt. It returns the lease token, or "" when the lock is held.
func (l *EvaluationLock) TryAcquire(ctx context.Context, key string) (string, error) {
	token := uuid.New().String()
	ok, err := l.redisClient.SetNX(ctx, key, token, l.config.Alert.Lock.TTL).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release frees the lock if token still owns it.
func (l *EvaluationLock) Release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.redisClient, []string{key}, token).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n == 0 {
		l.logger.Warn("Lock expired before release", zap.String("key", key))
	}
	return nil
}

// WithLock runs fn while holding the patient-day lock, retrying acquisition until the
// configured wait timeout.
func (l *EvaluationLock) WithLock(ctx context.Context, patientID string, day time.Time, fn func(ctx context.Context) error) error {
	key := l.GetLockKey(patientID, day)
	waitCtx, cancel := context.WithTimeout(ctx, l.config.Alert.Lock.WaitTimeout)
	defer cancel()

	interval := l.config.Alert.Lock.RetryInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}

	var token string
	for {
		var err error
		token, err = l.TryAcquire(waitCtx, key)
		if err != nil && waitCtx.Err() == nil {
			return err
		}
		if token != "" {
			break
		}
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		case <-time.After(interval):
		}
	}

	defer func() {
		// release even if the caller's context was cancelled mid-evaluation
		if err := l.Release(context.Background(), key, token); err != nil {
			l.logger.Error("Failed to release evaluation lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn(ctx)
}
