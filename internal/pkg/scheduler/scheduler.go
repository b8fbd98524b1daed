package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/queue"
)

// Enqueues a run on a cron schedule. The scheduler never runs a cycle itself,
// so a slow run cannot overlap the next one.
type Scheduler struct {
	cron  *cron.Cron
	queue *queue.Queue
	now   func() time.Time
}

// Creates a new Scheduler for a standard five-field cron spec evaluated in UTC.
func New(spec string, q *queue.Queue) (*Scheduler, error) {
	s := &Scheduler{
		cron:  cron.New(cron.WithLocation(time.UTC)),
		queue: q,
		now:   time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.Trigger); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// Enqueues one scheduled run. A full queue drops the tick.
func (s *Scheduler) Trigger() {
	err := s.queue.Insert(queue.Job{Trigger: queue.TriggerSchedule, EnqueuedAt: s.now()})
	if err != nil {
		logger.Log.Warn("Skipping scheduled run", zap.Error(err))
		return
	}
	logger.Log.Debug("Scheduled run enqueued")
}

// Starts ticking and stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	logger.Log.Info("Scheduler started", zap.Time("next_run", s.Next()))
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		logger.Log.Info("Scheduler stopped")
	}()
}

// Returns the next time a run will be enqueued.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
