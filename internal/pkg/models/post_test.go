package models

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)

type stubFingerprinter struct {
	value uint64
	err   error
	calls int
}

func (s *stubFingerprinter) Compute(ctx context.Context, url string) (uint64, error) {
	s.calls++
	return s.value, s.err
}

func TestRenderTitleLeavesShortTitles(t *testing.T) {
	assert.Equal(t, "something short", RenderTitle("something short"))
	assert.Equal(t, "", RenderTitle(""))
	exact := strings.Repeat("a", MaxTitleLength)
	assert.Equal(t, exact, RenderTitle(exact))
}

func TestRenderTitleTruncatesLongTitles(t *testing.T) {
	truncated := strings.Repeat("a", 253)
	title := truncated + "aaaaa"

	actual := RenderTitle(title)
	assert.Equal(t, truncated+"...", actual)
	assert.Len(t, []rune(actual), MaxTitleLength)
}

func TestRenderTitleIsIdempotent(t *testing.T) {
	for _, title := range []string{"", "short", strings.Repeat("é", 300), strings.Repeat("b", 257)} {
		once := RenderTitle(title)
		assert.Equal(t, once, RenderTitle(once))
		assert.LessOrEqual(t, len([]rune(once)), MaxTitleLength)
	}
}

func TestFromSubmission(t *testing.T) {
	sub := Submission{
		ID:         "foo",
		Author:     "someone",
		URL:        "bar",
		Permalink:  "/r/food/comments/foo/baz",
		Title:      "something",
		CreatedUTC: float64(testDate.Unix()),
	}

	post := FromSubmission(sub, testDate)
	require.NotNil(t, post)
	assert.Equal(t, "foo", post.ID)
	assert.Equal(t, "someone", post.Author)
	assert.Equal(t, "bar", post.ImageURL)
	assert.Equal(t, "something", post.Title)
	assert.Equal(t, "https://www.reddit.com/r/food/comments/foo/baz", post.PostURL)
	assert.True(t, post.CreatedAt.Equal(testDate))
	assert.True(t, post.FoundAt.Equal(testDate))
}

func TestFromSubmissionWithoutCreatedTime(t *testing.T) {
	post := FromSubmission(Submission{ID: "foo", Author: "someone"}, testDate)
	assert.True(t, post.CreatedAt.IsZero())
}

func TestDeriveImageURLFromGallery(t *testing.T) {
	sub := Submission{
		ID:  "foo",
		URL: "https://www.reddit.com/gallery/bar",
		MediaMetadata: map[string]json.RawMessage{
			"foo1": json.RawMessage(`1`),
			"bar2": json.RawMessage(`3`),
		},
	}
	assert.Equal(t, "https://i.redd.it/bar2.jpg", DeriveImageURL(sub))
}

func TestDeriveImageURL(t *testing.T) {
	cases := []struct {
		name     string
		sub      Submission
		expected string
	}{
		{"no url", Submission{ID: "foo"}, ""},
		{"plain url is untouched", Submission{URL: "bar"}, "bar"},
		{
			"query parameters are stripped",
			Submission{URL: "https://preview.redd.it/chun02can1f81.png?width=640&format=png&auto=webp&s=e05f245a349e5971ced5ed125327bb69fa0a4ccc"},
			"https://preview.redd.it/chun02can1f81.png",
		},
		{"gallery with empty metadata", Submission{URL: "https://www.reddit.com/gallery/bar", MediaMetadata: map[string]json.RawMessage{}}, ""},
		{"gallery without metadata", Submission{URL: "https://www.reddit.com/gallery/bar"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveImageURL(tc.sub))
		})
	}
}

func TestPayloadOmitsImageIfNotProvided(t *testing.T) {
	post := &Post{ID: "1", Title: "2", PostURL: "3"}
	payload := post.ToPayload()
	assert.Equal(t, "2", payload.Title)
	assert.Equal(t, "3", payload.Description)
	assert.Equal(t, AccentColor, payload.Color)
	assert.Nil(t, payload.Image)
}

func TestPayloadTruncatesTitle(t *testing.T) {
	truncated := strings.Repeat("a", 253)
	title := truncated + "aaaaa"
	post := &Post{ID: "1", Title: title, PostURL: "2", ImageURL: "3"}

	payload := post.ToPayload()
	assert.Equal(t, title, post.Title)
	assert.Equal(t, truncated+"...", payload.Title)
	assert.Equal(t, "2", payload.Description)
	require.NotNil(t, payload.Image)
	assert.Equal(t, "3", payload.Image.URL)
}

func TestFingerprintIsComputedOnce(t *testing.T) {
	provider := &stubFingerprinter{value: 42}
	post := &Post{ID: "1", ImageURL: "https://i.redd.it/x.jpg"}

	first := post.Fingerprint(context.Background(), provider)
	second := post.Fingerprint(context.Background(), provider)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, uint64(42), *first)
	assert.Equal(t, *first, *second)
	assert.Equal(t, 1, provider.calls)
}

func TestFingerprintWithoutImageIsAbsent(t *testing.T) {
	provider := &stubFingerprinter{value: 42}
	post := &Post{ID: "1"}

	assert.Nil(t, post.Fingerprint(context.Background(), provider))
	assert.Equal(t, 0, provider.calls)
}

func TestFingerprintErrorIsTreatedAsAbsent(t *testing.T) {
	provider := &stubFingerprinter{err: errors.New("decode failed")}
	post := &Post{ID: "1", ImageURL: "https://i.redd.it/x.jpg"}

	assert.Nil(t, post.Fingerprint(context.Background(), provider))
	assert.Nil(t, post.Fingerprint(context.Background(), provider))
	assert.Equal(t, 1, provider.calls)
}

func TestToStoredEntry(t *testing.T) {
	now := time.Date(2022, 8, 21, 1, 30, 45, 0, time.UTC)
	post := &Post{ID: "1", Author: "someone", Title: "hello", CreatedAt: now, FoundAt: now}
	post.SetFingerprint(123)

	entry := post.ToStoredEntry(context.Background(), nil)
	assert.Equal(t, "1", entry.ID)
	assert.Equal(t, "someone", entry.Author)
	assert.Equal(t, "123", entry.Img)
	assert.Equal(t, "hello", entry.Title)
	assert.Equal(t, "21/08/22 01:30", entry.Posted)
	assert.Equal(t, "21/08/22 01:30", entry.Found)
}

func TestStoredEntryRoundTrip(t *testing.T) {
	now := time.Date(2022, 8, 21, 1, 30, 0, 0, time.UTC)
	post := &Post{ID: "abc", Author: "someone", Title: "Homemade beef tacos.", FoundAt: now}
	post.SetFingerprint(18446744073709551615)

	raw, err := post.ToStoredEntry(context.Background(), nil).Encode()
	require.NoError(t, err)
	entry, err := DecodeEntry(raw)
	require.NoError(t, err)
	rebuilt := FromStoredEntry(entry)

	assert.Equal(t, post.ID, rebuilt.ID)
	assert.Equal(t, post.Author, rebuilt.Author)
	assert.Equal(t, post.Title, rebuilt.Title)
	assert.Equal(t, FormatFingerprint(post.CachedFingerprint()), FormatFingerprint(rebuilt.CachedFingerprint()))
	assert.True(t, rebuilt.FoundAt.Equal(now))
	assert.True(t, rebuilt.CreatedAt.IsZero())
}

func TestDecodeLegacyEntry(t *testing.T) {
	entry, err := DecodeEntry(`{"id": "bar", "hash": 1, "title": "tacos", "date": "21/08/22 01:00"}`)
	require.NoError(t, err)
	assert.Equal(t, "bar", entry.ID)
	assert.Equal(t, "1", entry.Img)
	assert.Equal(t, "21/08/22 01:00", entry.Found)

	post := FromStoredEntry(entry)
	require.NotNil(t, post.CachedFingerprint())
	assert.Equal(t, uint64(1), *post.CachedFingerprint())
}

func TestParseFingerprint(t *testing.T) {
	value, ok := ParseFingerprint("-1")
	assert.True(t, ok)
	assert.Equal(t, uint64(18446744073709551615), value)

	for _, absent := range []string{"", "None", "not-a-number"} {
		_, ok := ParseFingerprint(absent)
		assert.False(t, ok, absent)
	}
}

func TestParseTimestampRejectsGarbage(t *testing.T) {
	assert.True(t, ParseTimestamp("yesterday").IsZero())
	assert.True(t, ParseTimestamp("").IsZero())
	assert.Equal(t, "", FormatTimestamp(time.Time{}))
}
