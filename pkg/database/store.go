package database

import (
	"context"
	"fmt"

	"go-pos-ws/internal/config"
	"go-pos-ws/internal/repository"
	"go-pos-ws/internal/repository/memory"

	"go.uber.org/zap"
)

// OpenStore returns the configured store, migrated and seeded.
func OpenStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (repository.Store, error) {
	if cfg.Driver == "memory" {
		store, err := memory.New()
		if err != nil {
			return nil, err
		}
		log.Warn("using in-memory store, data is lost on exit")
		if err := SeedMemory(ctx, store, log); err != nil {
			return nil, err
		}
		return store, nil
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DSN(), log); err != nil {
			return nil, err
		}
	}

	db, err := ConnectDB(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := Seed(ctx, db, log); err != nil {
		return nil, fmt.Errorf("seed defaults: %w", err)
	}
	return repository.NewGormStore(db)
}

func migrateUp(dsn string, log *zap.Logger) error {
	m, err := NewMigrator(dsn, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
