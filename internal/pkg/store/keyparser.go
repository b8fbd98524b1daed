package store

import (
	"fmt"
	"strings"
)

const keyDelimiter = "/"

// Builds and splits "<author>/<id>" keys.
type KeyParser struct{}

func (KeyParser) Key(author, id string) (string, error) {
	if author == "" || id == "" {
		return "", fmt.Errorf("%w: author and id are required", ErrInvalidKey)
	}
	if strings.Contains(author, keyDelimiter) || strings.Contains(id, keyDelimiter) {
		return "", fmt.Errorf("%w: %q/%q contains %q", ErrInvalidKey, author, id, keyDelimiter)
	}
	return author + keyDelimiter + id, nil
}

func (KeyParser) Parse(key string) (author, id string, err error) {
	parts := strings.Split(key, keyDelimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return parts[0], parts[1], nil
}

// SCAN pattern matching every key of one author. Glob metacharacters in the
// author are escaped so they match literally.
func (KeyParser) AuthorPattern(author string) string {
	var b strings.Builder
	for _, r := range author {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteString(keyDelimiter)
	b.WriteByte('*')
	return b.String()
}
