package selector

import (
	"context"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"foodpics/internal/pkg/feed"
	"foodpics/internal/pkg/filter"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
)

type DuplicateFunc func(ctx context.Context, candidate *models.Post) (bool, error)
type RecordFunc func(ctx context.Context, post *models.Post) error

// Picks the post to publish from a ranked candidate list.
type Selector struct {
	isDuplicate DuplicateFunc
	record      RecordFunc
	filters     []filter.Filter
	now         func() time.Time
	intn        func(n int) int
}

type Option func(*Selector)

// Drops candidates the filters reject before any duplicate check.
func WithFilters(filters ...filter.Filter) Option {
	return func(s *Selector) { s.filters = append(s.filters, filters...) }
}

// Replaces the source of randomness used by the all-duplicates fallback.
func WithIntn(intn func(n int) int) Option {
	return func(s *Selector) { s.intn = intn }
}

func WithClock(now func() time.Time) Option {
	return func(s *Selector) { s.now = now }
}

// Creates a new Selector.
func New(isDuplicate DuplicateFunc, record RecordFunc, opts ...Option) *Selector {
	s := &Selector{
		isDuplicate: isDuplicate,
		record:      record,
		now:         time.Now,
		intn:        rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Walks the candidates in order and returns the first one that is not a
// duplicate, after recording it. When every candidate is a duplicate, one is
// chosen uniformly at random and returned without being recorded. Returns nil
// for an empty list. Store failures abort the walk.
func (s *Selector) Select(ctx context.Context, candidates []*models.Post) (*models.Post, error) {
	for _, candidate := range candidates {
		duplicate, err := s.isDuplicate(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if duplicate {
			continue
		}
		if err := s.record(ctx, candidate); err != nil {
			return nil, err
		}
		logger.Log.Info("Selected new post",
			zap.String("post_id", candidate.ID),
			zap.String("author", candidate.Author))
		return candidate, nil
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	pick := candidates[s.intn(len(candidates))]
	metrics.RandomFallbacks.Inc()
	logger.Log.Info("Every candidate was already posted, picking one at random",
		zap.Int("candidates", len(candidates)),
		zap.String("post_id", pick.ID))
	return pick, nil
}

// Reads limit candidates from the source once and selects among them. A feed
// failure is logged and yields no candidate.
func (s *Selector) SelectFromFeed(ctx context.Context, source feed.Source, limit int) (*models.Post, error) {
	submissions, err := source.Hot(ctx, limit)
	if err != nil {
		metrics.FeedErrors.Inc()
		logger.Log.Error("Failed to read feed", zap.Error(err))
		return nil, nil
	}

	now := s.now()
	candidates := make([]*models.Post, 0, len(submissions))
	for _, submission := range submissions {
		candidates = append(candidates, models.FromSubmission(submission, now))
	}
	candidates = filter.Apply(candidates, append([]filter.Filter{filter.Identity{}}, s.filters...)...)

	if len(candidates) == 0 {
		logger.Log.Warn("No submissions found for the configured subreddits")
	}
	return s.Select(ctx, candidates)
}
