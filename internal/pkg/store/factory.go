package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"foodpics/internal/pkg/config"
	"foodpics/internal/pkg/logger"
)

// Builds the backend selected by STORE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	logger.Log.Info("Opening dedup store", zap.String("backend", cfg.StoreBackend))

	switch cfg.StoreBackend {
	case config.BackendRedisSet, config.BackendRedisKeyed:
		client, err := NewRedisClient(ctx, RedisOptions{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		if cfg.StoreBackend == config.BackendRedisSet {
			return NewRedisSetStore(client), nil
		}
		return NewRedisKeyedStore(client, cfg.MaxStoredEntries), nil
	case config.BackendFirestore:
		return NewFirestoreStore(ctx, cfg.FirestoreProjectID, cfg.FirestoreCollection, cfg.MaxStoredEntries)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath, cfg.MaxStoredEntries)
	case config.BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
