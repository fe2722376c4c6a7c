// Package store provides a small SQLite-backed cache for API
// responses, so repeated CI runs do not burn through rate limits.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Cache is a persistent URL-keyed response cache.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	// SQLite does not support concurrent writes.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS responses (
			url        TEXT PRIMARY KEY,
			body       BLOB NOT NULL,
			fetched_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the cached body for url if it was stored within maxAge.
func (c *Cache) Get(url string, maxAge time.Duration) ([]byte, bool) {
	var body []byte
	var fetchedAt int64

	row := c.db.QueryRow(`SELECT body, fetched_at FROM responses WHERE url = ?`, url)
	if err := row.Scan(&body, &fetchedAt); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			// Treat storage errors as a miss; the caller refetches.
			return nil, false
		}
		return nil, false
	}

	if time.Since(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, false
	}
	return body, true
}

// Put stores a response body for url, replacing any previous entry.
func (c *Cache) Put(url string, body []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO responses (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("caching response for %s: %w", url, err)
	}
	return nil
}

// Prune deletes entries at least maxAge old.
func (c *Cache) Prune(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge).Unix()
	if _, err := c.db.Exec(`DELETE FROM responses WHERE fetched_at <= ?`, cutoff); err != nil {
		return fmt.Errorf("pruning cache: %w", err)
	}
	return nil
}
