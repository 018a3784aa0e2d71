package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/database"
	"github.com/pageza/dishcraft/backend/internal/logging"
)

func main() {
	timeout := flag.Duration("timeout", time.Minute, "Give up if the database is not reachable in time")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	logger.Info("applying migrations", zap.String("driver", cfg.Database.Driver))
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}
	logger.Info("all migrations applied successfully")
}
