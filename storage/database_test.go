package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenCreatesDatabaseAndAppliesMigrations(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested")
	store, dbPath, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	if dbPath != filepath.Join(dataDir, DefaultDBFileName) {
		t.Fatalf("unexpected db path: got %q", dbPath)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database file not created: %v", err)
	}

	var version int
	if err := store.db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected schema version %d, got %d", len(migrations), version)
	}

	var journalMode string
	if err := store.db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Fatalf("expected journal_mode wal, got %q", journalMode)
	}

	var count int
	if err := store.db.QueryRow(
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name = 'messages'",
	).Scan(&count); err != nil {
		t.Fatalf("check messages table: %v", err)
	}
	if count != 1 {
		t.Fatal("expected messages table to exist")
	}
}

func TestReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	dataDir := t.TempDir()
	store, _, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	created, err := store.CreateMessage("persist me")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, _, err := Open(dataDir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetMessage(created.MessageID)
	if err != nil {
		t.Fatalf("GetMessage after reopen: %v", err)
	}
	if got.Content != "persist me" {
		t.Fatalf("unexpected content after reopen: %q", got.Content)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	store, _, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestCloseTruncatesWAL(t *testing.T) {
	dataDir := t.TempDir()
	store, dbPath, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	for _, text := range []string{"one", "two", "three"} {
		if _, err := store.CreateMessage(text); err != nil {
			t.Fatalf("CreateMessage(%q) failed: %v", text, err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	info, err := os.Stat(dbPath + "-wal")
	if err == nil && info.Size() != 0 {
		t.Fatalf("expected empty or removed WAL after close, got %d bytes", info.Size())
	}
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("stat WAL: %v", err)
	}
}
