// Package cache stores rendered document HTML in SQLite, keyed by the render cache key.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is a persistent map from render keys to HTML. A Cache is safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at path. Use ":memory:" for a private in-memory cache.
func Open(path string) (*Cache, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	// A single connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS renders (
		key        TEXT PRIMARY KEY,
		html       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_renders_created_at ON renders(created_at)`,
}

// migrate applies pending migrations, tracking the schema version in PRAGMA user_version.
func migrate(db *sql.DB) error {
	var current int
	if err := db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("cache: reading schema version: %w", err)
	}
	for i, stmt := range migrations {
		version := i + 1
		if version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("cache: migration %d: begin: %w", version, err)
		}
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("cache: migration %d: %w", version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
			tx.Rollback()
			return fmt.Errorf("cache: migration %d: setting version: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("cache: migration %d: commit: %w", version, err)
		}
	}
	return nil
}

// Get returns the HTML stored under key.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	var html string
	err := c.db.QueryRowContext(ctx, `SELECT html FROM renders WHERE key = ?`, key).Scan(&html)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("reading cache: %w", err)
	}
	return html, true, nil
}

// Put stores html under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key, html string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO renders (key, html, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET html = excluded.html, created_at = excluded.created_at`,
		key, html, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	return nil
}

// Prune deletes entries created before cutoff and returns the number deleted.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM renders WHERE created_at < ?`, cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("pruning cache: %w", err)
	}
	return res.RowsAffected()
}

// Len returns the number of entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM renders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}
