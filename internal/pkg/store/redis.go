package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
)

type RedisOptions struct {
	Host     string
	Port     string
	Username string
	Password string
	DB       int
}

// Connects to redis and verifies the connection with a PING.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Username: opts.Username,
		Password: opts.Password, // "" if no auth
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Log.Error("Failed to connect to Redis", zap.Error(err))
		_ = rdb.Close()
		return nil, unavailable("connect", err)
	}

	logger.Log.Info("Connected to Redis successfully",
		zap.String("host", opts.Host),
		zap.String("port", opts.Port),
	)
	return rdb, nil
}
