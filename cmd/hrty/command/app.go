package command

import (
	"context"
	"database/sql"
	"fmt"

	commondb "hrty-backend/common/database"
	commonlogger "hrty-backend/common/logger"
	commonredis "hrty-backend/common/redis"
	"hrty-backend/internal/config"
	"hrty-backend/internal/consumer"
	"hrty-backend/internal/notify"
	"hrty-backend/internal/repository"
	"hrty-backend/internal/service"
	"hrty-backend/internal/thresholds"

	"go.uber.org/zap"
)

// app holds the process-wide dependencies shared by the commands.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *sql.DB
	redisClient *commonredis.Client
	cache       *consumer.CacheManager
	service     *service.CheckinService
}

// newApp loads the configuration and opens Postgres. withService also connects Redis
// and builds the check-in service.
func newApp(ctx context.Context, withService bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := commonlogger.NewLogger(cfg.Log.Level, cfg.Log.Format, "hrty")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := commondb.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to Postgres", zap.String("url", cfg.Database.GetURL()))

	a := &app{cfg: cfg, logger: logger, db: db}
	if !withService {
		return a, nil
	}

	a.redisClient = commonredis.NewRedisClient(&cfg.Redis)
	if err := commonredis.Ping(ctx, a.redisClient); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	base := thresholds.Default()
	if cfg.Alert.ThresholdFile != "" {
		if base, err = thresholds.LoadFile(cfg.Alert.ThresholdFile); err != nil {
			a.close()
			return nil, err
		}
		logger.Info("Loaded threshold table", zap.String("file", cfg.Alert.ThresholdFile))
	}

	provider, err := service.NewThresholdProvider(base,
		repository.NewThresholdProfileRepository(db, logger),
		cfg.Alert.ThresholdCacheSize, cfg.Alert.ThresholdCacheTTL, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	a.cache = consumer.NewCacheManager(cfg, a.redisClient, logger)
	dispatcher := notify.NewDispatcher(
		notify.NewStreamPublisher(cfg, a.redisClient, logger),
		notify.NewWebhookClient(cfg, logger),
		logger,
	)

	a.service = service.NewCheckinService(
		repository.NewDailyEntryRepository(db, logger),
		repository.NewSymptomRepository(db, logger),
		repository.NewDiureticDoseRepository(db, logger),
		repository.NewAlertEventRepository(db, logger),
		provider,
		consumer.NewEvaluationLock(cfg, a.redisClient, logger),
		a.cache,
		dispatcher,
		cfg.Location(),
		logger,
	)
	return a, nil
}

func (a *app) close() {
	if a.redisClient != nil {
		if err := commonredis.Close(a.redisClient); err != nil {
			a.logger.Warn("Failed to close redis", zap.Error(err))
		}
	}
	if err := commondb.Close(a.db); err != nil {
		a.logger.Warn("Failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}
