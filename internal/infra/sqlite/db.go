// Package sqlite provides SQLite-based durable local storage for Momentum.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Key-value store for serialized progress snapshots.
		// Keys are namespaced per user: "progress:<user_id>".
		`CREATE TABLE IF NOT EXISTS progress (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Attempt log for the reconciliation outbox, so sync failures
		// are observable instead of silently dropped.
		`CREATE TABLE IF NOT EXISTS sync_log (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			attempt    INTEGER NOT NULL,
			ok         BOOLEAN NOT NULL,
			error      TEXT,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_log_created ON sync_log(created_at)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Progress Key-Value ─────────────────────────────────────────────────────

// SetProgress stores a serialized snapshot under a key.
func (d *DB) SetProgress(key, value string) error {
	_, err := d.db.Exec(
		`INSERT INTO progress (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value,
	)
	return err
}

// GetProgress retrieves a snapshot by key. Returns "" if not found.
func (d *DB) GetProgress(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM progress WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// DeleteProgress removes a snapshot key. Deleting a missing key is a no-op.
func (d *DB) DeleteProgress(key string) error {
	_, err := d.db.Exec(`DELETE FROM progress WHERE key = ?`, key)
	return err
}

// ─── Sync Log ───────────────────────────────────────────────────────────────

// SyncLogEntry records one reconciliation push attempt.
type SyncLogEntry struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Attempt   int       `json:"attempt"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// InsertSyncLog appends a push attempt record.
func (d *DB) InsertSyncLog(e SyncLogEntry) error {
	_, err := d.db.Exec(
		`INSERT INTO sync_log (id, kind, attempt, ok, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Kind, e.Attempt, e.OK, e.Error, e.CreatedAt.Unix(),
	)
	return err
}

// RecentSyncLog returns the most recent push attempts, newest first.
func (d *DB) RecentSyncLog(limit int) ([]SyncLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.db.Query(
		`SELECT id, kind, attempt, ok, error, created_at
		 FROM sync_log ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []SyncLogEntry
	for rows.Next() {
		var e SyncLogEntry
		var errMsg sql.NullString
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Kind, &e.Attempt, &e.OK, &errMsg, &createdAt); err != nil {
			return nil, err
		}
		e.Error = errMsg.String
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
