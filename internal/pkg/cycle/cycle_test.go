package cycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodpics/internal/pkg/deduplicator"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
	"foodpics/internal/pkg/selector"
	"foodpics/internal/pkg/store"
)

func init() {
	logger.Log = zap.NewNop()
}

type staticSource struct {
	submissions []models.Submission
	err         error
}

func (s staticSource) Hot(ctx context.Context, limit int) ([]models.Submission, error) {
	return s.submissions, s.err
}

type recordingNotifier struct {
	payloads []models.Payload
	err      error
}

func (n *recordingNotifier) Notify(ctx context.Context, payload models.Payload) error {
	n.payloads = append(n.payloads, payload)
	return n.err
}

type failingStore struct{}

func (failingStore) ExistsExact(ctx context.Context, author, id string) (bool, error) {
	return false, store.ErrUnavailable
}

func (failingStore) EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error) {
	return nil, store.ErrUnavailable
}

func (failingStore) Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error {
	return store.ErrUnavailable
}

func (failingStore) Close() error { return nil }

func newRunner(s store.Store, source staticSource, n *recordingNotifier) *Runner {
	engine := deduplicator.New(s, nil)
	sel := selector.New(engine.IsDuplicate, engine.Record)
	cleaner, _ := s.(store.Cleaner)
	return NewRunner(sel, source, n, 24, cleaner)
}

var tacos = models.Submission{
	ID:        "abc",
	Author:    "someone",
	Title:     "Homemade beef tacos.",
	URL:       "https://i.redd.it/abc.jpg?width=640",
	Permalink: "/r/food/comments/abc/tacos/",
}

func TestRunCyclePosts(t *testing.T) {
	n := &recordingNotifier{}
	runner := newRunner(store.NewMemoryStore(), staticSource{submissions: []models.Submission{tacos}}, n)

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomePosted, result.Outcome)
	assert.NotEmpty(t, result.RunID)
	require.Len(t, n.payloads, 1)
	assert.Equal(t, "Homemade beef tacos.", n.payloads[0].Title)
	assert.Equal(t, "https://www.reddit.com/r/food/comments/abc/tacos/", n.payloads[0].Description)
	require.NotNil(t, n.payloads[0].Image)
	assert.Equal(t, "https://i.redd.it/abc.jpg", n.payloads[0].Image.URL)
}

func TestRunCycleWithoutCandidates(t *testing.T) {
	n := &recordingNotifier{}
	runner := newRunner(store.NewMemoryStore(), staticSource{err: errors.New("feed down")}, n)

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoCandidate, result.Outcome)
	assert.Empty(t, n.payloads)
}

func TestRunCycleStoreUnavailable(t *testing.T) {
	n := &recordingNotifier{}
	runner := newRunner(failingStore{}, staticSource{submissions: []models.Submission{tacos}}, n)

	result, err := runner.RunCycle(context.Background())
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, OutcomeStoreError, result.Outcome)
	assert.Empty(t, n.payloads, "nothing is posted when the store is down")
}

func TestRunCycleDeliveryFailure(t *testing.T) {
	n := &recordingNotifier{err: errors.New("webhook 500")}
	s := store.NewMemoryStore()
	runner := newRunner(s, staticSource{submissions: []models.Submission{tacos}}, n)

	result, err := runner.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeliveryError, result.Outcome)

	// The post stays recorded even though delivery failed.
	exists, err := s.ExistsExact(context.Background(), "someone", "abc")
	require.NoError(t, err)
	assert.True(t, exists)
}
