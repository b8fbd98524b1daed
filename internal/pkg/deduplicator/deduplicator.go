package deduplicator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
	"foodpics/internal/pkg/store"
)

const (
	DefaultThreshold   = 65
	DefaultMatchWindow = 24 * time.Hour
	DefaultRetention   = 7 * 24 * time.Hour
)

var ErrInvalidRecord = errors.New("post must have an id and an author to be recorded")

// Decides whether a candidate was already posted and records posts that go
// out. Holds no state of its own; everything lives in the store.
type Engine struct {
	store         store.Store
	fingerprinter models.Fingerprinter
	threshold     int
	window        time.Duration
	retention     time.Duration
}

type Option func(*Engine)

// Minimum title similarity (0-100) for a fuzzy match.
func WithThreshold(threshold int) Option {
	return func(e *Engine) { e.threshold = threshold }
}

// Maximum distance between discovery times for a fuzzy match.
func WithMatchWindow(window time.Duration) Option {
	return func(e *Engine) { e.window = window }
}

// How long recorded posts are kept by backends that support expiry.
func WithRetention(retention time.Duration) Option {
	return func(e *Engine) { e.retention = retention }
}

// Creates a new Engine over the given store. fingerprinter may be nil, in
// which case matching relies on ids, titles and times only.
func New(s store.Store, fingerprinter models.Fingerprinter, opts ...Option) *Engine {
	engine := &Engine{
		store:         s,
		fingerprinter: fingerprinter,
		threshold:     DefaultThreshold,
		window:        DefaultMatchWindow,
		retention:     DefaultRetention,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Reports whether the candidate was already posted: first by exact
// (author, id), then by fuzzy comparison against every entry of the author.
// Store failures are returned, never reported as "not a duplicate".
func (e *Engine) IsDuplicate(ctx context.Context, candidate *models.Post) (bool, error) {
	metrics.CandidatesScanned.Inc()

	exists, err := e.store.ExistsExact(ctx, candidate.Author, candidate.ID)
	if err != nil {
		return false, err
	}
	if exists {
		metrics.DuplicatesDetected.WithLabelValues("exact").Inc()
		logger.Log.Debug("Exact duplicate",
			zap.String("author", candidate.Author),
			zap.String("post_id", candidate.ID))
		return true, nil
	}

	entries, err := e.store.EntriesFor(ctx, candidate.Author)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, nil
	}

	// Only compute the fingerprint once there is something to compare with.
	candidate.Fingerprint(ctx, e.fingerprinter)
	for _, entry := range entries {
		previous := models.FromStoredEntry(entry)
		if e.FuzzyMatch(candidate, previous) {
			metrics.DuplicatesDetected.WithLabelValues("fuzzy").Inc()
			logger.Log.Debug("Fuzzy duplicate",
				zap.String("author", candidate.Author),
				zap.String("post_id", candidate.ID),
				zap.String("matched_id", previous.ID))
			return true, nil
		}
	}
	return false, nil
}

// Reports whether two posts show the same dish. Equal image fingerprints win
// outright; otherwise both titles must be present and similar enough, and both
// posts must have been found within the match window of each other.
func (e *Engine) FuzzyMatch(a, b *models.Post) bool {
	fa, fb := a.CachedFingerprint(), b.CachedFingerprint()
	if fa != nil && fb != nil && *fa == *fb {
		return true
	}
	if a.Title == "" || b.Title == "" {
		return false
	}
	if TokenSetRatio(a.Title, b.Title) < e.threshold {
		return false
	}
	if a.FoundAt.IsZero() || b.FoundAt.IsZero() {
		return false
	}
	delta := a.FoundAt.Sub(b.FoundAt)
	if delta < 0 {
		delta = -delta
	}
	return delta < e.window
}

// Stores the post so later runs treat it as already posted.
func (e *Engine) Record(ctx context.Context, post *models.Post) error {
	if post == nil || post.ID == "" || post.Author == "" {
		return ErrInvalidRecord
	}
	entry := post.ToStoredEntry(ctx, e.fingerprinter)
	if err := e.store.Put(ctx, post.Author, post.ID, entry, e.retention); err != nil {
		return err
	}
	logger.Log.Info("Recorded post",
		zap.String("author", post.Author),
		zap.String("post_id", post.ID))
	return nil
}
