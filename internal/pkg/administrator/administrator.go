package administrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"foodpics/internal/pkg/config"
	"foodpics/internal/pkg/cycle"
	"foodpics/internal/pkg/deduplicator"
	"foodpics/internal/pkg/feed"
	"foodpics/internal/pkg/filter"
	"foodpics/internal/pkg/fingerprint"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/notifier"
	"foodpics/internal/pkg/queue"
	"foodpics/internal/pkg/scheduler"
	"foodpics/internal/pkg/selector"
	"foodpics/internal/pkg/store"
	"foodpics/internal/pkg/worker"
)

// Administrator interface
type Administrator interface {
	EnqueueRun(trigger string) error
	RunOnce(ctx context.Context) (cycle.Result, error)
	Start(ctx context.Context)
	StartService(ctx context.Context, port string) error
	Stop()
	QueueDepth() int
	LastRun() *cycle.Result
	Schedule() string
	NextRun() time.Time
	StartTime() time.Time
}

// Implementation of the Administrator interface
type administrator struct {
	store     store.Store
	runner    *cycle.Runner
	queue     *queue.Queue
	worker    *worker.Worker
	scheduler *scheduler.Scheduler
	schedule  string
	startTime time.Time
}

// Creates a new Administrator, opening every collaborator the config names.
// Any failure here is a configuration or connectivity problem and must stop
// the process before the first run.
func New(ctx context.Context, cfg *config.Config) (Administrator, error) {
	dedupStore, err := store.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open dedup store: %w", err)
	}

	provider, err := fingerprint.NewProvider(cfg.FingerprintTimeout, cfg.FingerprintCacheSize,
		fingerprint.WithUserAgent(cfg.RedditUserAgent))
	if err != nil {
		dedupStore.Close()
		return nil, err
	}

	outbound, err := notifier.New(cfg)
	if err != nil {
		dedupStore.Close()
		return nil, err
	}

	source := feed.NewReddit(feed.RedditConfig{
		ClientID:     cfg.RedditClientID,
		ClientSecret: cfg.RedditClientSecret,
		UserAgent:    cfg.RedditUserAgent,
		Subreddits:   cfg.Subreddits,
	})

	engine := deduplicator.New(dedupStore, provider,
		deduplicator.WithThreshold(cfg.FuzzyThreshold),
		deduplicator.WithMatchWindow(cfg.MatchWindow),
		deduplicator.WithRetention(cfg.RetentionWindow),
	)
	sel := selector.New(engine.IsDuplicate, engine.Record,
		selector.WithFilters(filter.FromConfig(cfg.BlockedPhrases, cfg.TitleLanguages)...))

	cleaner, _ := dedupStore.(store.Cleaner)
	runner := cycle.NewRunner(sel, source, outbound, cfg.Limit, cleaner)

	runQueue, err := queue.CreateQueue(cfg.QueueCapacity)
	if err != nil {
		dedupStore.Close()
		return nil, err
	}
	sched, err := scheduler.New(cfg.Schedule, runQueue)
	if err != nil {
		dedupStore.Close()
		return nil, err
	}

	logger.Log.Info("Administrator ready",
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("notifier", cfg.Notifier),
		zap.String("subreddits", cfg.Subreddits),
		zap.String("schedule", cfg.Schedule))

	return &administrator{
		store:     dedupStore,
		runner:    runner,
		queue:     runQueue,
		worker:    worker.NewWorker(runQueue, runner),
		scheduler: sched,
		schedule:  cfg.Schedule,
		startTime: time.Now(),
	}, nil
}

func (admin *administrator) EnqueueRun(trigger string) error {
	return admin.queue.Insert(queue.Job{Trigger: trigger, EnqueuedAt: time.Now()})
}

// Runs a single cycle inline, bypassing the queue.
func (admin *administrator) RunOnce(ctx context.Context) (cycle.Result, error) {
	return admin.runner.RunCycle(ctx)
}

// Starts the worker and the scheduler; both stop when ctx is done.
func (admin *administrator) Start(ctx context.Context) {
	admin.worker.Start(ctx)
	admin.scheduler.Start(ctx)
}

// Starts the HTTP service at the given port and blocks until ctx is done.
func (admin *administrator) StartService(ctx context.Context, port string) error {
	logger.Log.Info("Starting HTTP service", zap.String("port", port))
	return serveHTTP(ctx, admin, admin.queue, port)
}

// Waits for the in-flight run to finish, then closes the store. The context
// passed to Start must already be cancelled.
func (admin *administrator) Stop() {
	logger.Log.Info("Beginning shutdown sequence")
	admin.worker.Wait()
	if err := admin.store.Close(); err != nil {
		logger.Log.Warn("Failed to close dedup store", zap.Error(err))
	}
	logger.Log.Info("Administrator stopped gracefully")
}

// Returns the current queue depth for health checks
func (admin *administrator) QueueDepth() int {
	return admin.queue.Length()
}

func (admin *administrator) LastRun() *cycle.Result {
	return admin.worker.LastRun()
}

func (admin *administrator) Schedule() string {
	return admin.schedule
}

func (admin *administrator) NextRun() time.Time {
	return admin.scheduler.Next()
}

// Returns when the service was started for health checks
func (admin *administrator) StartTime() time.Time {
	return admin.startTime
}
