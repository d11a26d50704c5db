// Package storage builds the configured LinkRepository backend.
package storage

import (
	"context"
	"fmt"

	"shortlink/internal/config"
	"shortlink/internal/repository"
	"shortlink/internal/repository/postgres"
	redisrepo "shortlink/internal/repository/redis"
	"shortlink/internal/repository/sqlite"
)

// Open connects to the backend named by cfg.Store.Driver. The returned
// repository owns the connection pool; Close releases it.
func Open(ctx context.Context, cfg *config.Config) (repository.LinkRepository, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := postgres.InitDB(
			ctx,
			cfg.Database.DatabaseDSN(),
			cfg.Database.MaxOpenConns,
			cfg.Database.MinConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			return nil, err
		}
		return postgres.NewLinkRepository(pool), nil

	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		return sqlite.NewLinkRepository(db), nil

	case config.DriverRedis:
		client, err := redisrepo.InitRedis(
			cfg.Redis.RedisAddr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
		)
		if err != nil {
			return nil, err
		}
		return redisrepo.NewLinkRepository(client, cfg.Redis.KeyPrefix), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// OpenAndMigrate opens the backend and ensures its schema exists
func OpenAndMigrate(ctx context.Context, cfg *config.Config) (repository.LinkRepository, error) {
	repo, err := Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, fmt.Errorf("failed to migrate %s store: %w", cfg.Store.Driver, err)
	}

	return repo, nil
}
