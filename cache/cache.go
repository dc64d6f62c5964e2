// Package cache remembers which releases and posts earlier runs already
// reported, so the report can flag what is genuinely new.
package cache

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Item kinds stored in the seen table.
const (
	KindRelease = "release"
	KindPost    = "post"
)

// Cache is a SQLite-backed store of already-reported items.
type Cache struct {
	db *sql.DB
}

// Stats contains cache statistics.
type Stats struct {
	Entries     int
	OldestEntry time.Time
}

// New initializes the cache database at the given path, creating the
// directory and schema when missing.
func New(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// NewFromDB wraps an existing database connection, initializing the schema.
func NewFromDB(db *sql.DB) (*Cache, error) {
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

// Seen reports whether the item was already reported with the same marker.
// A release re-tagged to a new version counts as unseen again. Read errors
// are logged and treated as a miss.
func (c *Cache) Seen(kind, key, marker string) bool {
	var stored string
	err := c.db.QueryRow(
		"SELECT marker FROM seen_items WHERE kind = ? AND key = ?",
		kind, key,
	).Scan(&stored)

	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		slog.Warn("seen cache read error", "error", err, "kind", kind, "key", key)
		return false
	}

	return stored == marker
}

// Mark records the item as reported with the given marker.
func (c *Cache) Mark(kind, key, marker string) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO seen_items (kind, key, marker, first_seen_at)
		VALUES (?, ?, ?, ?)
	`, kind, key, marker, time.Now().Unix())

	if err != nil {
		slog.Warn("seen cache write error", "error", err, "kind", kind, "key", key)
		return err
	}

	return nil
}

// Clear removes all entries.
func (c *Cache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM seen_items"); err != nil {
		return fmt.Errorf("failed to clear seen cache: %w", err)
	}
	return nil
}

// Stats returns entry count and the oldest first-seen time.
func (c *Cache) Stats() (Stats, error) {
	var stats Stats

	if err := c.db.QueryRow("SELECT COUNT(*) FROM seen_items").Scan(&stats.Entries); err != nil {
		return stats, fmt.Errorf("failed to count seen cache entries: %w", err)
	}

	var oldest sql.NullInt64
	if err := c.db.QueryRow("SELECT MIN(first_seen_at) FROM seen_items").Scan(&oldest); err != nil {
		return stats, fmt.Errorf("failed to read oldest seen cache entry: %w", err)
	}
	if oldest.Valid {
		stats.OldestEntry = time.Unix(oldest.Int64, 0)
	}

	return stats, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
