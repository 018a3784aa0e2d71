package server

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/api"
	"github.com/pageza/dishcraft/backend/internal/database"
	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/metrics"
	"github.com/pageza/dishcraft/backend/internal/middleware"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/storage"
)

// NewFromConfig connects every collaborator described by cfg and returns a
// ready server. Optional collaborators (model key, S3, Redis, JWT secret)
// degrade to their fallbacks when missing or unreachable.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	logger = logging.OrNop(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var closers []func() error

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, sqlDB.Close)
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	resolverOpts := []service.ResolverOption{service.WithResolverMetrics(m)}
	if cfg.Storage.Enabled() {
		s3cfg, err := config.NewS3Config(ctx, cfg.Storage)
		if err != nil {
			logger.Warn("S3 unavailable, images will not be uploaded", zap.Error(err))
		} else {
			resolverOpts = append(resolverOpts, service.WithUploader(storage.NewS3ImageStoreFromConfig(s3cfg)))
		}
	}
	resolver := service.NewImageResolver(cfg.Image, logger, resolverOpts...)

	var fetcher service.TextFetcher
	if cfg.Model.APIKey != "" {
		gateway, err := service.NewModelGateway(ctx, cfg.Model, logger, service.WithGatewayMetrics(m))
		if err != nil {
			return nil, err
		}
		fetcher = gateway
	} else {
		logger.Warn("no model API key configured, serving mock dishes")
	}

	generation := service.NewGenerationService(fetcher, resolver, service.GenerationOptions{
		Batch:  cfg.Image.Batch,
		Strict: cfg.Model.Strict,
	}, logger, m)

	limitCfg := middleware.RateLimitConfig{
		Window:    time.Minute,
		Limit:     cfg.RateLimit.PerMinute,
		Burst:     cfg.RateLimit.Burst,
		KeyPrefix: "rate_limit:generate",
	}
	var limiter middleware.Limiter = middleware.NewLocalRateLimiter(limitCfg)
	if cfg.Redis.URL != "" {
		rc, err := database.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, using in-process rate limiting", zap.Error(err))
		} else {
			limiter = middleware.NewRateLimiter(rc, limitCfg)
			closers = append(closers, rc.Close)
		}
	}

	deps := api.Dependencies{
		Generation: generation,
		Recipes:    service.NewRecipeService(db, service.HashEmbedder{}),
		Limiter:    limiter,
		Gatherer:   reg,
		Ping:       pinger(db),
		Logger:     logger,
	}
	if cfg.Auth.JWTSecret != "" {
		deps.Tokens = service.NewTokenService(cfg.Auth.JWTSecret)
	}

	srv := New(cfg, logger, m, deps)
	srv.closers = closers
	return srv, nil
}

func pinger(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return database.HealthCheck(ctx, db)
	}
}
