package dedup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.db")
	now := time.Now().UTC()

	store := NewSQLiteStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Expected load of missing database to succeed, got: %v", err)
	}
	store.MarkSeen("url:example.com/one", now)
	store.MarkSeen("content:abcdef", now)
	if err := store.Flush(); err != nil {
		t.Fatalf("Expected flush to succeed, got: %v", err)
	}
	store.Close()

	reloaded := NewSQLiteStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Expected reload to succeed, got: %v", err)
	}
	defer reloaded.Close()

	if reloaded.Len() != 2 {
		t.Fatalf("Expected 2 entries after reload, got %d", reloaded.Len())
	}
	if !reloaded.Contains("url:example.com/one") || !reloaded.Contains("content:abcdef") {
		t.Error("Expected fingerprints present after round trip")
	}
}

func TestSQLiteStoreFlushReflectsEviction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.db")
	now := time.Now().UTC()

	store := NewSQLiteStore(path)
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	store.MarkSeen("old", now.Add(-10*24*time.Hour))
	store.MarkSeen("recent", now)
	if err := store.Flush(); err != nil {
		t.Fatal(err)
	}
	store.Close()

	second := NewSQLiteStore(path)
	if err := second.Load(); err != nil {
		t.Fatal(err)
	}
	if evicted := second.EvictOlderThan(7 * 24 * time.Hour); evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", evicted)
	}
	if err := second.Flush(); err != nil {
		t.Fatal(err)
	}
	second.Close()

	third := NewSQLiteStore(path)
	if err := third.Load(); err != nil {
		t.Fatal(err)
	}
	defer third.Close()
	if third.Contains("old") {
		t.Error("Expected evicted entry gone after flush")
	}
	if !third.Contains("recent") {
		t.Error("Expected recent entry kept")
	}
}

func TestSQLiteStoreCorruptDatabaseFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.db")
	if err := os.WriteFile(path, []byte("this is not a sqlite database"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewSQLiteStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Expected corrupt database to fall back to empty, got: %v", err)
	}
	defer store.Close()

	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d entries", store.Len())
	}

	// The corrupt file was set aside, not destroyed
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("Expected corrupt database set aside: %v", err)
	}

	store.MarkSeen("fresh", time.Now().UTC())
	if err := store.Flush(); err != nil {
		t.Fatalf("Expected flush after reinitialization to succeed, got: %v", err)
	}
}

func TestSQLiteStoreFlushBeforeLoad(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "posted.db"))
	if err := store.Flush(); err == nil {
		t.Error("Expected flush before load to fail")
	}
}
