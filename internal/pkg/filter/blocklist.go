package filter

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
	"foodpics/internal/pkg/models"
)

// Drops posts whose title contains any blocked phrase, case-insensitively.
type Blocklist struct {
	matcher *ahocorasick.Matcher
	phrases []string
}

// Creates a new Blocklist. Blank phrases are ignored; with none left every
// post is allowed.
func NewBlocklist(phrases []string) *Blocklist {
	var patterns []string
	for _, phrase := range phrases {
		if p := strings.ToLower(strings.TrimSpace(phrase)); p != "" {
			patterns = append(patterns, p)
		}
	}

	logger.Log.Info("Initializing title blocklist", zap.Int("phrase_count", len(patterns)))

	b := &Blocklist{phrases: patterns}
	if len(patterns) > 0 {
		b.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return b
}

func (b *Blocklist) Name() string { return "blocklist" }

func (b *Blocklist) Allow(post *models.Post) bool {
	return len(b.Matches(post.Title)) == 0
}

// Returns the blocked phrases found in text.
func (b *Blocklist) Matches(text string) []string {
	if b.matcher == nil || text == "" {
		return nil
	}
	hits := b.matcher.Match([]byte(strings.ToLower(text)))
	matched := make([]string, 0, len(hits))
	for _, hit := range hits {
		matched = append(matched, b.phrases[hit])
	}
	return matched
}
