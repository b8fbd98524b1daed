package filter

import (
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
)

// Decides whether a candidate is worth considering at all, before any
// duplicate check.
type Filter interface {
	Name() string
	Allow(post *models.Post) bool
}

// Returns the posts every filter allows, keeping feed order.
func Apply(posts []*models.Post, filters ...Filter) []*models.Post {
	if len(filters) == 0 {
		return posts
	}
	kept := make([]*models.Post, 0, len(posts))
	for _, post := range posts {
		if allowed(post, filters) {
			kept = append(kept, post)
		}
	}
	return kept
}

func allowed(post *models.Post, filters []Filter) bool {
	for _, f := range filters {
		if !f.Allow(post) {
			metrics.CandidatesFiltered.WithLabelValues(f.Name()).Inc()
			logger.Log.Debug("Candidate filtered",
				zap.String("filter", f.Name()),
				zap.String("post_id", post.ID),
				zap.String("title", post.Title))
			return false
		}
	}
	return true
}

// Builds the configured filters, leaving out those with nothing to check.
func FromConfig(blockedPhrases, titleLanguages []string) []Filter {
	var filters []Filter
	if blocklist := NewBlocklist(blockedPhrases); blocklist.matcher != nil {
		filters = append(filters, blocklist)
	}
	if language := NewLanguage(titleLanguages); language != nil {
		filters = append(filters, language)
	}
	return filters
}
