package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/config"
	"github.com/BuzzLyutic/task-cli/internal/repo"
)

// DefaultBackend builds a FileBackend or, for postgres storage, connects a
// pool and makes sure the tasks table exists.
func DefaultBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Backend, func(), error) {
	switch cfg.Storage {
	case config.StorageFile:
		return repo.NewFileBackend(cfg.StorageFile, logger), func() {}, nil

	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		logger.Debug("connected to database")

		backend := repo.NewPostgresBackend(pool, logger)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return backend, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}
