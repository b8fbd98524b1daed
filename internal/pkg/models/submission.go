package models

import "encoding/json"

// Raw feed item as returned by the Reddit listing API ("t3" things).
// Only the fields needed to build a Post are decoded.
type Submission struct {
	ID         string  `json:"id"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	URL        string  `json:"url,omitempty"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc,omitempty"`
	// Gallery posts carry one entry per image, keyed by media id. The values
	// are never inspected.
	MediaMetadata map[string]json.RawMessage `json:"media_metadata,omitempty"`
}
