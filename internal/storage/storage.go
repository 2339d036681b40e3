package storage

import (
	"context"
	"fmt"

	"library-backend/internal/config"
	"library-backend/internal/logger"
	"library-backend/internal/repository"
	"library-backend/internal/repository/memory"
	"library-backend/internal/repository/postgres"
)

// Open returns the store selected by cfg.Database.Driver. The memory store
// serialises all work in one process and is meant for local runs and tests.
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory store, data is lost on exit")
		return memory.NewStore(), nil
	case "postgres", "pgx":
		logger.Info("Connecting to database...",
			"driver", cfg.Database.Driver,
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Database,
			"user", cfg.Database.User)
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connection established")
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}
