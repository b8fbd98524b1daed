package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/queue"
)

func init() {
	logger.Log = zap.NewNop()
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	q, err := queue.CreateQueue(1)
	require.NoError(t, err)

	_, err = New("every hour please", q)
	assert.Error(t, err)
}

func TestTriggerEnqueuesScheduledRun(t *testing.T) {
	q, err := queue.CreateQueue(1)
	require.NoError(t, err)
	s, err := New("0 * * * *", q)
	require.NoError(t, err)

	s.Trigger()
	s.Trigger() // queue full, dropped

	assert.Equal(t, 1, q.Length())
	job, err := q.Remove()
	require.NoError(t, err)
	assert.Equal(t, queue.TriggerSchedule, job.Trigger)
}
