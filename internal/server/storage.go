package server

import (
	"context"
	"fmt"
	"log/slog"

	"planet-service/internal/planet"
	serverHandlers "planet-service/internal/server/handlers"
	"planet-service/internal/shared/config"
	"planet-service/internal/shared/database"
	"planet-service/internal/shared/errors"
	"planet-service/internal/shared/redis"
)

// Storage is the planet store selected by STORAGE_DRIVER together with the
// connection behind it.
type Storage struct {
	Store  planet.Store
	Pinger serverHandlers.Pinger
	Driver string
	close  func() error
}

func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	logger = logger.With("component", "storage", "driver", cfg.Storage.Driver)

	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, errors.WrapExternal("postgres unavailable", err)
		}

		if err := db.RunMigrations(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		return &Storage{
			Store:  planet.NewRepository(db, logger),
			Pinger: db,
			Driver: cfg.Storage.Driver,
			close:  db.Close,
		}, nil

	case config.StorageDriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, errors.WrapExternal("redis unavailable", err)
		}

		return &Storage{
			Store:  planet.NewRedisStore(client.Client, cfg.Redis.KeyPrefix, logger),
			Pinger: client,
			Driver: cfg.Storage.Driver,
			close:  client.Close,
		}, nil

	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		return &Storage{
			Store:  planet.NewMemoryStore(),
			Driver: cfg.Storage.Driver,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
	}
}
