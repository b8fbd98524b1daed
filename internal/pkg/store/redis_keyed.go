package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

const scanBatch = 100

// Keeps one key per entry, "<author>/<id>", each with its own expiry.
type RedisKeyedStore struct {
	client     *redis.Client
	keys       KeyParser
	maxEntries int
}

// Creates a new key-per-entry store. maxEntries bounds how many keys a single
// author scan may return.
func NewRedisKeyedStore(client *redis.Client, maxEntries int) *RedisKeyedStore {
	return &RedisKeyedStore{client: client, maxEntries: maxEntries}
}

func (s *RedisKeyedStore) ExistsExact(ctx context.Context, author, id string) (bool, error) {
	defer observe("exists", time.Now())
	key, err := s.keys.Key(author, id)
	if err != nil {
		// Such a key can never have been written.
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

func (s *RedisKeyedStore) EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error) {
	defer observe("entries", time.Now())
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var keys []string
	iter := s.client.Scan(ctx, 0, s.keys.AuthorPattern(author), scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if s.maxEntries > 0 && len(keys) >= s.maxEntries {
			logger.Log.Warn("Author scan truncated",
				zap.String("author", author),
				zap.Int("max_entries", s.maxEntries))
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("entries", err)
	}
	if len(keys) == 0 {
		return []models.StoredEntry{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("entries", err)
	}
	raws := make([]string, 0, len(values))
	for _, value := range values {
		// Keys that expired between SCAN and MGET come back nil.
		if raw, ok := value.(string); ok {
			raws = append(raws, raw)
		}
	}
	return decodeAll(author, raws), nil
}

func (s *RedisKeyedStore) Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error {
	defer observe("put", time.Now())
	key, err := s.keys.Key(author, id)
	if err != nil {
		return err
	}
	raw, err := entry.Encode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *RedisKeyedStore) Close() error {
	return s.client.Close()
}
