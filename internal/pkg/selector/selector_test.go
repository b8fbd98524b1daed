package selector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"foodpics/internal/pkg/deduplicator"
	"foodpics/internal/pkg/filter"
	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
	"foodpics/internal/pkg/store"
)

func init() {
	logger.Log = zap.NewNop()
}

type countingSource struct {
	submissions []models.Submission
	err         error
	calls       int
	limits      []int
}

func (c *countingSource) Hot(ctx context.Context, limit int) ([]models.Submission, error) {
	c.calls++
	c.limits = append(c.limits, limit)
	return c.submissions, c.err
}

func submissions(n int) []models.Submission {
	out := make([]models.Submission, n)
	for i := range out {
		out[i] = models.Submission{
			ID:     fmt.Sprintf("id%d", i),
			Author: fmt.Sprintf("author%d", i),
			Title:  fmt.Sprintf("dish number %d", i),
		}
	}
	return out
}

func alwaysDuplicate(ctx context.Context, candidate *models.Post) (bool, error) { return true, nil }
func neverDuplicate(ctx context.Context, candidate *models.Post) (bool, error) { return false, nil }
func noRecord(ctx context.Context, post *models.Post) error { return nil }

func TestSelectReturnsFirstNewCandidate(t *testing.T) {
	var recorded []string
	isDuplicate := func(ctx context.Context, c *models.Post) (bool, error) { return c.ID == "a", nil }
	record := func(ctx context.Context, p *models.Post) error {
		recorded = append(recorded, p.ID)
		return nil
	}
	s := New(isDuplicate, record)

	picked, err := s.Select(context.Background(), []*models.Post{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, "b", picked.ID)
	assert.Equal(t, []string{"b"}, recorded)
}

func TestSelectEmpty(t *testing.T) {
	s := New(neverDuplicate, noRecord)
	picked, err := s.Select(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, picked)
}

func TestSelectFallsBackToRandomDuplicate(t *testing.T) {
	recordCalls := 0
	record := func(ctx context.Context, p *models.Post) error {
		recordCalls++
		return nil
	}
	s := New(alwaysDuplicate, record, WithIntn(func(n int) int { return n - 1 }))

	picked, err := s.Select(context.Background(), []*models.Post{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, "b", picked.ID)
	assert.Equal(t, 0, recordCalls, "fallback picks are not recorded")
}

func TestSelectAbortsOnStoreError(t *testing.T) {
	isDuplicate := func(ctx context.Context, c *models.Post) (bool, error) { return false, store.ErrUnavailable }
	s := New(isDuplicate, noRecord)

	picked, err := s.Select(context.Background(), []*models.Post{{ID: "a"}})
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, picked)

	record := func(ctx context.Context, p *models.Post) error { return store.ErrUnavailable }
	s = New(neverDuplicate, record)
	_, err = s.Select(context.Background(), []*models.Post{{ID: "a"}})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestSelectFromFeedAllDuplicates(t *testing.T) {
	source := &countingSource{submissions: submissions(24)}
	s := New(alwaysDuplicate, noRecord)

	picked, err := s.SelectFromFeed(context.Background(), source, 24)
	require.NoError(t, err)
	require.NotNil(t, picked)

	ids := make(map[string]bool)
	for _, sub := range source.submissions {
		ids[sub.ID] = true
	}
	assert.True(t, ids[picked.ID], "pick must come from the feed")
	assert.Equal(t, 1, source.calls, "feed is queried exactly once")
	assert.Equal(t, []int{24}, source.limits)
}

func TestSelectFromFeedError(t *testing.T) {
	source := &countingSource{err: errors.New("503")}
	s := New(neverDuplicate, noRecord)

	picked, err := s.SelectFromFeed(context.Background(), source, 24)
	assert.NoError(t, err)
	assert.Nil(t, picked)
}

func TestSelectFromFeedAppliesFilters(t *testing.T) {
	subs := submissions(2)
	subs[0].Title = "SPONSORED tacos"
	source := &countingSource{submissions: subs}
	s := New(neverDuplicate, noRecord, WithFilters(filter.NewBlocklist([]string{"sponsored"})))

	picked, err := s.SelectFromFeed(context.Background(), source, 24)
	require.NoError(t, err)
	assert.Equal(t, "id1", picked.ID)
}

func TestSelectFromFeedSkipsCandidatesWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	engine := deduplicator.New(store.NewMemoryStore(), nil)
	s := New(engine.IsDuplicate, engine.Record)

	source := &countingSource{submissions: []models.Submission{
		{ID: "abc", Title: "Homemade beef tacos."},
		{Author: "someone", Title: "Ramen"},
		{ID: "ghi", Author: "other", Title: "Pizza"},
	}}

	picked, err := s.SelectFromFeed(ctx, source, 24)
	require.NoError(t, err)
	require.NotNil(t, picked)
	assert.Equal(t, "ghi", picked.ID)

	source.submissions = source.submissions[:2]
	picked, err = s.SelectFromFeed(ctx, source, 24)
	assert.NoError(t, err)
	assert.Nil(t, picked)
}

func TestSelectFromFeedWithEngine(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2022, 8, 21, 1, 0, 0, 0, time.UTC)
	memory := store.NewMemoryStore()
	engine := deduplicator.New(memory, nil)
	s := New(engine.IsDuplicate, engine.Record, WithClock(func() time.Time { return now }))

	source := &countingSource{submissions: []models.Submission{
		{ID: "abc", Author: "someone", Title: "Homemade beef tacos."},
		{ID: "def", Author: "someone", Title: "[homemade] Beef tacos."},
		{ID: "ghi", Author: "other", Title: "Ramen"},
	}}

	first, err := s.SelectFromFeed(ctx, source, 24)
	require.NoError(t, err)
	assert.Equal(t, "abc", first.ID)

	// abc is now an exact duplicate and def a fuzzy one.
	second, err := s.SelectFromFeed(ctx, source, 24)
	require.NoError(t, err)
	assert.Equal(t, "ghi", second.ID)

	entries, err := memory.EntriesFor(ctx, "someone")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
