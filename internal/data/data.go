package data

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lk2023060901/property-research-backend/internal/conf"
	"github.com/lk2023060901/property-research-backend/internal/pkg/database"
	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/pkg/redis"
	wsdata "github.com/lk2023060901/property-research-backend/internal/websearch/data"
)

// Data holds the shared storage clients. Redis is nil when disabled.
type Data struct {
	DB    *database.DB
	Redis *redis.Client
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	db, err := database.New(&config.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := db.AutoMigrate(&wsdata.SearchPatternPO{}); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	var redisClient *redis.Client
	if config.Redis.Enabled {
		redisClient, err = redis.New(&config.Redis.Config, log)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	} else {
		log.Info("redis disabled, search results are cached in memory only")
	}

	d := &Data{
		DB:    db,
		Redis: redisClient,
	}

	cleanup := func() {
		log.Info("cleaning up data resources")

		if err := db.Close(); err != nil {
			log.Warn("failed to close database", zap.Error(err))
		}

		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis", zap.Error(err))
			}
		}
	}

	return d, cleanup, nil
}

// HealthChecks lists the probes served by /health
func (d *Data) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": d.DB.HealthCheck,
	}
	if d.Redis != nil {
		checks["redis"] = d.Redis.HealthCheck
	}
	return checks
}
