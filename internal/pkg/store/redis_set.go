package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
)

const authorSetPrefix = "foodpics:author:"

// Keeps every entry of an author as a JSON member of one redis SET. Each
// member carries its own expiry; the key TTL, refreshed on every write, only
// bounds the set as a whole.
type RedisSetStore struct {
	client *redis.Client
	now    func() time.Time
}

// Member layout: the stored entry plus an expiry in unix seconds. Members
// written without one (earlier generations) live as long as the key.
type setMember struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Img     string `json:"img"`
	Title   string `json:"title"`
	Posted  string `json:"posted"`
	Found   string `json:"found"`
	Expires int64  `json:"expires,omitempty"`
}

// Creates a new set-per-author store on an existing client.
func NewRedisSetStore(client *redis.Client) *RedisSetStore {
	return &RedisSetStore{client: client, now: time.Now}
}

func (s *RedisSetStore) ExistsExact(ctx context.Context, author, id string) (bool, error) {
	entries, err := s.members(ctx, "exists", author)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *RedisSetStore) EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error) {
	return s.members(ctx, "entries", author)
}

func (s *RedisSetStore) Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error {
	defer observe("put", time.Now())
	if _, err := (KeyParser{}).Key(author, id); err != nil {
		return err
	}

	member := setMember{
		ID:     entry.ID,
		Author: entry.Author,
		Img:    entry.Img,
		Title:  entry.Title,
		Posted: entry.Posted,
		Found:  entry.Found,
	}
	if ttl > 0 {
		member.Expires = s.now().Add(ttl).Unix()
	}
	raw, err := json.Marshal(member)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := authorSetPrefix + author
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, key, string(raw))
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return unavailable("put", err)
	}
	return nil
}

func (s *RedisSetStore) Close() error {
	return s.client.Close()
}

// Reads the live members of an author's set and removes the expired ones.
func (s *RedisSetStore) members(ctx context.Context, op, author string) ([]models.StoredEntry, error) {
	defer observe(op, time.Now())
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	key := authorSetPrefix + author
	raws, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, unavailable(op, err)
	}

	now := s.now().Unix()
	live := make([]string, 0, len(raws))
	var expired []interface{}
	for _, raw := range raws {
		var member struct {
			Expires int64 `json:"expires"`
		}
		// Undecodable members are left for decodeAll to report.
		if json.Unmarshal([]byte(raw), &member) == nil && member.Expires > 0 && member.Expires <= now {
			expired = append(expired, raw)
			continue
		}
		live = append(live, raw)
	}

	if len(expired) > 0 {
		removed, err := s.client.SRem(ctx, key, expired...).Result()
		if err != nil {
			logger.Log.Warn("Failed to prune expired entries",
				zap.String("author", author),
				zap.Error(err))
		}
		metrics.EntriesExpired.Add(float64(removed))
	}
	return decodeAll(author, live), nil
}
