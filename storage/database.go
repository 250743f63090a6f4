package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDBFileName is the SQLite filename under the server data dir.
const DefaultDBFileName = "messages.db"

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS messages (
  seq           INTEGER PRIMARY KEY AUTOINCREMENT,
  message_id    TEXT NOT NULL UNIQUE,
  content       TEXT NOT NULL,
  is_palindrome INTEGER NOT NULL DEFAULT 0,
  created_at    TEXT NOT NULL
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_messages_created_at
ON messages (created_at);
`,
}

// Store persists messages for the reference server.
//
// The WAL is truncated when the store opens and again when it closes, so a
// server that shuts down cleanly leaves a single database file behind.
type Store struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) messages.db under dataDir and returns the file path.
func Open(dataDir string) (*Store, string, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("create storage directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DefaultDBFileName)
	store, err := OpenPath(dbPath)
	if err != nil {
		return nil, "", err
	}
	return store, dbPath, nil
}

// OpenPath opens SQLite at an explicit path and brings the schema up to date.
func OpenPath(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", filepath.ToSlash(dbPath))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	for _, step := range []func() error{db.Ping, store.requireWAL, store.applyMigrations, store.Checkpoint} {
		if err := step(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return store, nil
}

// Checkpoint folds the WAL back into the database file and truncates it.
func (s *Store) Checkpoint() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("wal checkpoint: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database. Later calls are no-ops.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}

	checkpointErr := s.Checkpoint()
	closeErr := s.db.Close()
	s.db = nil
	if closeErr != nil {
		return fmt.Errorf("close sqlite database: %w", closeErr)
	}
	return checkpointErr
}

func (s *Store) requireWAL() error {
	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		return fmt.Errorf("read journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		return fmt.Errorf("unexpected journal mode %q, want wal", mode)
	}
	return nil
}

// applyMigrations runs every migration past PRAGMA user_version in one transaction.
func (s *Store) applyMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= len(migrations) {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range migrations[version:] {
		next := version + i + 1
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", next, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d;", next)); err != nil {
			return fmt.Errorf("set schema version %d: %w", next, err)
		}
	}
	return tx.Commit()
}
