package cycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"foodpics/internal/pkg/feed"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
	"foodpics/internal/pkg/notifier"
	"foodpics/internal/pkg/selector"
	"foodpics/internal/pkg/store"
)

// Run outcomes, also used as metric labels.
const (
	OutcomePosted        = "posted"
	OutcomeNoCandidate   = "no_candidate"
	OutcomeStoreError    = "store_error"
	OutcomeDeliveryError = "delivery_error"
)

type Result struct {
	RunID    string
	Outcome  string
	Post     *models.Post
	Duration time.Duration
}

// One end-to-end run: read the feed, pick a post, deliver it.
type Runner struct {
	selector *selector.Selector
	source   feed.Source
	notifier notifier.Notifier
	limit    int
	// Optional; backends that keep expired rows are cleaned after each run.
	cleaner store.Cleaner
}

// Creates a new Runner. cleaner may be nil.
func NewRunner(sel *selector.Selector, source feed.Source, n notifier.Notifier, limit int, cleaner store.Cleaner) *Runner {
	return &Runner{
		selector: sel,
		source:   source,
		notifier: n,
		limit:    limit,
		cleaner:  cleaner,
	}
}

// Runs one cycle. Only a store failure is returned as an error; a missing
// candidate or a failed delivery is reported through the result.
func (r *Runner) RunCycle(ctx context.Context) (Result, error) {
	result := Result{RunID: uuid.NewString()}
	start := time.Now()
	log := logger.Log.With(zap.String("run_id", result.RunID))

	defer func() {
		result.Duration = time.Since(start)
		metrics.Runs.WithLabelValues(result.Outcome).Inc()
		log.Info("Run finished",
			zap.String("outcome", result.Outcome),
			zap.Duration("duration", result.Duration))
	}()

	log.Info("Finding Reddit submission")
	post, err := r.selector.SelectFromFeed(ctx, r.source, r.limit)
	if err != nil {
		result.Outcome = OutcomeStoreError
		log.Error("Dedup store unavailable, not posting", zap.Error(err))
		return result, err
	}
	r.cleanup(ctx, log)

	if post == nil {
		result.Outcome = OutcomeNoCandidate
		log.Warn("No Reddit submission found. Check the configured subreddits or clear the dedup store.")
		return result, nil
	}
	result.Post = post

	if err := r.notifier.Notify(ctx, post.ToPayload()); err != nil {
		result.Outcome = OutcomeDeliveryError
		metrics.Deliveries.WithLabelValues("error").Inc()
		log.Error("Failed to deliver post", zap.String("post_id", post.ID), zap.Error(err))
		return result, nil
	}
	metrics.Deliveries.WithLabelValues("ok").Inc()
	result.Outcome = OutcomePosted
	return result, nil
}

func (r *Runner) cleanup(ctx context.Context, log *zap.Logger) {
	if r.cleaner == nil {
		return
	}
	removed, err := r.cleaner.DeleteExpired(ctx)
	if err != nil {
		log.Warn("Failed to remove expired entries", zap.Error(err))
		return
	}
	if removed > 0 {
		log.Info("Removed expired entries", zap.Int64("count", removed))
	}
}
