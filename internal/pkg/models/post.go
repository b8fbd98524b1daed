package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"foodpics/internal/pkg/logger"
)

const (
	// Links to multi-image posts start with this prefix instead of pointing
	// at an image.
	GalleryURLPrefix = "https://www.reddit.com/gallery/"
	// Direct image host for gallery items.
	galleryImageURL = "https://i.redd.it/%s.jpg"
	redditBaseURL   = "https://www.reddit.com"

	// Discord rejects embed titles longer than this.
	MaxTitleLength = 256
	ellipsis       = "..."
)

// Computes the content fingerprint of the image behind a URL.
type Fingerprinter interface {
	Compute(ctx context.Context, url string) (uint64, error)
}

// Normalized candidate submission. Absent optional values use the zero value:
// an empty Title or ImageURL, a zero CreatedAt or FoundAt, a nil fingerprint.
type Post struct {
	ID        string
	Author    string
	Title     string
	ImageURL  string
	PostURL   string
	CreatedAt time.Time
	FoundAt   time.Time

	fingerprint   *uint64
	fingerprinted bool
}

// Maps a raw feed item to a Post observed at now.
func FromSubmission(sub Submission, now time.Time) *Post {
	post := &Post{
		ID:       sub.ID,
		Author:   sub.Author,
		Title:    sub.Title,
		ImageURL: DeriveImageURL(sub),
		FoundAt:  now.UTC(),
	}
	if sub.Permalink != "" {
		post.PostURL = redditBaseURL + sub.Permalink
	}
	if sub.CreatedUTC > 0 {
		post.CreatedAt = time.Unix(int64(sub.CreatedUTC), 0).UTC()
	}
	return post
}

// Resolves the image to show for a submission. Gallery links are replaced by
// the first gallery item in lexicographic id order so the choice is stable
// across runs; query strings are stripped so the same image always yields the
// same URL. Returns "" when there is nothing to show.
func DeriveImageURL(sub Submission) string {
	url := sub.URL
	if url == "" {
		return ""
	}

	if strings.HasPrefix(url, GalleryURLPrefix) {
		if len(sub.MediaMetadata) == 0 {
			return ""
		}
		ids := make([]string, 0, len(sub.MediaMetadata))
		for id := range sub.MediaMetadata {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		url = fmt.Sprintf(galleryImageURL, ids[0])
	}

	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		url = url[:idx]
	}
	return url
}

// Returns the image fingerprint, computing it on first use. Returns nil when
// the post has no image or the provider failed; a failure is remembered so the
// image is not downloaded again for this record.
func (p *Post) Fingerprint(ctx context.Context, fingerprinter Fingerprinter) *uint64 {
	if !p.fingerprinted {
		p.fingerprinted = true
		if p.ImageURL != "" && fingerprinter != nil {
			value, err := fingerprinter.Compute(ctx, p.ImageURL)
			if err != nil {
				logger.Log.Warn("Fingerprint unavailable, falling back to title matching",
					zap.String("post_id", p.ID),
					zap.String("image_url", p.ImageURL),
					zap.Error(err))
			} else {
				p.fingerprint = &value
			}
		}
	}
	return p.CachedFingerprint()
}

// Returns the fingerprint if it is already known, without computing it.
func (p *Post) CachedFingerprint() *uint64 {
	if p.fingerprint == nil {
		return nil
	}
	value := *p.fingerprint
	return &value
}

// Sets a known fingerprint, e.g. one read back from the store.
func (p *Post) SetFingerprint(value uint64) {
	p.fingerprint = &value
	p.fingerprinted = true
}

// Converts the post into its durable form, computing the fingerprint if needed.
func (p *Post) ToStoredEntry(ctx context.Context, fingerprinter Fingerprinter) StoredEntry {
	return StoredEntry{
		ID:     p.ID,
		Author: p.Author,
		Img:    FormatFingerprint(p.Fingerprint(ctx, fingerprinter)),
		Title:  p.Title,
		Posted: FormatTimestamp(p.CreatedAt),
		Found:  FormatTimestamp(p.FoundAt),
	}
}

// Rebuilds a post from a stored entry. Values that cannot be parsed are
// treated as absent.
func FromStoredEntry(entry StoredEntry) *Post {
	post := &Post{
		ID:            entry.ID,
		Author:        entry.Author,
		Title:         entry.Title,
		CreatedAt:     ParseTimestamp(entry.Posted),
		FoundAt:       ParseTimestamp(entry.Found),
		fingerprinted: true,
	}
	if value, ok := ParseFingerprint(entry.Img); ok {
		post.fingerprint = &value
	}
	return post
}

// Shortens a title to fit an embed: titles over MaxTitleLength characters are
// cut to 253 characters plus "...". Shorter titles, and the empty title, are
// returned unchanged.
func RenderTitle(title string) string {
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	runes := []rune(title)
	return string(runes[:MaxTitleLength-len(ellipsis)]) + ellipsis
}

// Produces the webhook payload for this post.
func (p *Post) ToPayload() Payload {
	payload := Payload{
		Title:       RenderTitle(p.Title),
		Description: p.PostURL,
		Color:       AccentColor,
	}
	if p.ImageURL != "" {
		payload.Image = &PayloadImage{URL: p.ImageURL}
	}
	return payload
}

func (p *Post) String() string {
	return p.Title + " : " + p.PostURL
}
