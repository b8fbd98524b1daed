package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"foodpics/internal/pkg/metrics"
	"foodpics/internal/pkg/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	author     TEXT NOT NULL,
	id         TEXT NOT NULL,
	img        TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	posted     TEXT NOT NULL DEFAULT '',
	found      TEXT NOT NULL DEFAULT '',
	expires_at INTEGER,
	PRIMARY KEY (author, id)
)`

// Keeps entries in a SQLite table. Expired rows are invisible to reads and
// removed by DeleteExpired.
type SQLiteStore struct {
	db         *sql.DB
	maxEntries int
	now        func() time.Time
}

// Opens (and if needed creates) the database at path. ":memory:" gives a
// private in-memory database.
func NewSQLiteStore(ctx context.Context, path string, maxEntries int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("connect", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, unavailable("connect", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, unavailable("migrate", err)
	}
	return &SQLiteStore{db: db, maxEntries: maxEntries, now: time.Now}, nil
}

func (s *SQLiteStore) ExistsExact(ctx context.Context, author, id string) (bool, error) {
	defer observe("exists", time.Now())
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entries
		WHERE author = ? AND id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		author, id, s.now().Unix(),
	).Scan(&n)
	if err != nil {
		return false, unavailable("exists", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) EntriesFor(ctx context.Context, author string) ([]models.StoredEntry, error) {
	defer observe("entries", time.Now())
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	limit := s.maxEntries
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, author, img, title, posted, found
		FROM entries
		WHERE author = ? AND (expires_at IS NULL OR expires_at > ?)
		LIMIT ?`,
		author, s.now().Unix(), limit,
	)
	if err != nil {
		return nil, unavailable("entries", err)
	}
	defer rows.Close()

	entries := []models.StoredEntry{}
	for rows.Next() {
		var e models.StoredEntry
		if err := rows.Scan(&e.ID, &e.Author, &e.Img, &e.Title, &e.Posted, &e.Found); err != nil {
			return nil, unavailable("entries", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("entries", err)
	}
	return entries, nil
}

func (s *SQLiteStore) Put(ctx context.Context, author, id string, entry models.StoredEntry, ttl time.Duration) error {
	defer observe("put", time.Now())
	if _, err := (KeyParser{}).Key(author, id); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).Unix(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (author, id, img, title, posted, found, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (author, id) DO UPDATE SET
			img = excluded.img,
			title = excluded.title,
			posted = excluded.posted,
			found = excluded.found,
			expires_at = excluded.expires_at`,
		author, id, entry.Img, entry.Title, entry.Posted, entry.Found, expiresAt,
	)
	if err != nil {
		return unavailable("put", err)
	}
	return nil
}

// Removes rows whose retention has elapsed and returns how many were dropped.
func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().Unix(),
	)
	if err != nil {
		return 0, unavailable("cleanup", err)
	}
	deleted, _ := res.RowsAffected()
	metrics.EntriesExpired.Add(float64(deleted))
	return deleted, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
