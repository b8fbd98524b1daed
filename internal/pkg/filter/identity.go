package filter

import "foodpics/internal/pkg/models"

// Rejects candidates that cannot be recorded because they lack an id or an
// author. Always applied to feed candidates.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Allow(post *models.Post) bool {
	return post.ID != "" && post.Author != ""
}
