package queue

import (
	"errors"
	"sync"
	"time"

	"foodpics/internal/pkg/metrics"
)

var (
	ErrQueueFull  = errors.New("queue is full")
	ErrQueueEmpty = errors.New("queue is empty")
)

// Where a run request came from.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// A pending run request.
type Job struct {
	Trigger    string
	EnqueuedAt time.Time
}

// Bounded first in, first out queue of run requests.
type Queue struct {
	mu       sync.Mutex
	capacity int
	q        []Job
}

// Creates an empty queue with a specified capacity
func CreateQueue(capacity int) (*Queue, error) {
	if capacity <= 0 {
		return nil, errors.New("capacity should be greater than 0")
	}
	return &Queue{
		capacity: capacity,
		q:        make([]Job, 0, capacity),
	}, nil
}

// Inserts a job into the queue
func (q *Queue) Insert(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.q) < q.capacity {
		q.q = append(q.q, job)
		metrics.QueueDepth.Set(float64(len(q.q)))
		return nil
	}
	return ErrQueueFull
}

// Removes the oldest job from the queue
func (q *Queue) Remove() (Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.q) > 0 {
		job := q.q[0]
		q.q = q.q[1:]
		metrics.QueueDepth.Set(float64(len(q.q)))
		return job, nil
	}
	return Job{}, ErrQueueEmpty
}

// Returns the number of jobs in the queue
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.q)
}

// Returns true if the queue is empty
func (q *Queue) IsEmpty() bool {
	return q.Length() == 0
}
