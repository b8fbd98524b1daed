package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"foodpics/internal/pkg/cycle"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/queue"
)

// How long the worker sleeps when the queue is empty.
const pollInterval = 200 * time.Millisecond

// Runs one cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (cycle.Result, error)
}

// Drains the job queue with a single goroutine so runs never overlap.
type Worker struct {
	queue  *queue.Queue
	runner CycleRunner
	wg     sync.WaitGroup

	mu      sync.Mutex
	lastRun *cycle.Result
}

// Creates a new worker for the queue.
func NewWorker(q *queue.Queue, runner CycleRunner) *Worker {
	return &Worker{queue: q, runner: runner}
}

// Launches the worker goroutine
func (w *Worker) Start(ctx context.Context) {
	logger.Log.Info("Starting worker")
	w.wg.Add(1)
	go w.run(ctx)
}

// Blocks until the worker has finished
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Returns the result of the most recent run, or nil before the first one.
func (w *Worker) LastRun() *cycle.Result {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lastRun == nil {
		return nil
	}
	result := *w.lastRun
	return &result
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Worker received stop signal")
			return
		default:
			job, err := w.queue.Remove()
			if err != nil {
				// If queue is empty, wait a bit before trying again
				select {
				case <-ctx.Done():
				case <-time.After(pollInterval):
				}
				continue
			}
			w.process(ctx, job)
		}
	}
}

func (w *Worker) process(ctx context.Context, job queue.Job) {
	logger.Log.Info("Starting run",
		zap.String("trigger", job.Trigger),
		zap.Duration("queued_for", time.Since(job.EnqueuedAt)))

	result, err := w.runner.RunCycle(ctx)
	if err != nil {
		logger.Log.Error("Run aborted",
			zap.String("run_id", result.RunID),
			zap.String("trigger", job.Trigger),
			zap.Error(err))
	}

	w.mu.Lock()
	w.lastRun = &result
	w.mu.Unlock()
}
