package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Timestamps are persisted with minute granularity as DD/MM/YY HH:MM (UTC).
const TimestampLayout = "02/01/06 15:04"

// Durable form of a Post. Every field is a string so the same record can be a
// JSON blob in redis, a Firestore document or a SQL row.
type StoredEntry struct {
	ID     string `json:"id" firestore:"id"`
	Author string `json:"author" firestore:"author"`
	// Image fingerprint as a decimal string, "" when the post had no image.
	Img    string `json:"img" firestore:"img"`
	Title  string `json:"title" firestore:"title"`
	Posted string `json:"posted" firestore:"posted"`
	Found  string `json:"found" firestore:"found"`
}

// Accepts entries written by earlier generations, which used "hash" for the
// fingerprint and "date" for the timestamp.
func (e *StoredEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     string          `json:"id"`
		Author string          `json:"author"`
		Img    json.RawMessage `json:"img"`
		Hash   json.RawMessage `json:"hash"`
		Title  string          `json:"title"`
		Posted string          `json:"posted"`
		Found  string          `json:"found"`
		Date   string          `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = StoredEntry{
		ID:     raw.ID,
		Author: raw.Author,
		Img:    scalarString(raw.Img),
		Title:  raw.Title,
		Posted: raw.Posted,
		Found:  raw.Found,
	}
	if e.Img == "" {
		e.Img = scalarString(raw.Hash)
	}
	if e.Found == "" {
		e.Found = raw.Date
	}
	return nil
}

func (e StoredEntry) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func DecodeEntry(raw string) (StoredEntry, error) {
	var entry StoredEntry
	err := json.Unmarshal([]byte(raw), &entry)
	return entry, err
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}

// Returns the zero time for empty or malformed input.
func ParseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(TimestampLayout, value, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

func FormatFingerprint(value *uint64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatUint(*value, 10)
}

// Parses a stored fingerprint. Negative values (written by the signed hash of
// an earlier generation) keep their bit pattern.
func ParseFingerprint(value string) (uint64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == "None" {
		return 0, false
	}
	if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
		return parsed, true
	}
	if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
		return uint64(parsed), true
	}
	return 0, false
}

// JSON numbers and strings both decode to their literal text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
