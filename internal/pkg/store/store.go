package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
)

var (
	// Returned (wrapped) whenever the backing store cannot be reached or
	// answers with an error. Callers must not treat it as "not a duplicate".
	ErrUnavailable = errors.New("dedup store unavailable")
	ErrInvalidKey  = errors.New("invalid store key")
)

// Persistence for previously posted entries, partitioned by author.
type Store interface {
	// Reports whether an entry with exactly this author and id is stored.
	ExistsExact(ctx context.Context, author, id string) (bool, error)
	// Returns every live entry stored for the author, or an empty slice.
	EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error)
	// Writes or overwrites the entry. Backends without expiry ignore ttl.
	Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error
	Close() error
}

// Implemented by backends that keep expired rows around until asked to drop them.
type Cleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Per-call timeout applied to every backend round trip.
const opTimeout = 5 * time.Second

func unavailable(op string, err error) error {
	metrics.StoreErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// Records how long a store operation took. Use as
// defer observe("put", time.Now()).
func observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// Decodes raw JSON members, skipping any that are corrupt.
func decodeAll(author string, raws []string) []models.StoredEntry {
	entries := make([]models.StoredEntry, 0, len(raws))
	for _, raw := range raws {
		entry, err := models.DecodeEntry(raw)
		if err != nil {
			logger.Log.Warn("Skipping undecodable stored entry",
				zap.String("author", author),
				zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
