package dedup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.txt")
	now := time.Now().UTC()

	store := NewFileStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Expected load of missing file to succeed, got: %v", err)
	}
	store.MarkSeen("url:example.com/one", now)
	store.MarkSeen("url:example.com/two", now)
	if err := store.Flush(); err != nil {
		t.Fatalf("Expected flush to succeed, got: %v", err)
	}

	reloaded := NewFileStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Expected reload to succeed, got: %v", err)
	}
	if reloaded.Len() != 2 {
		t.Fatalf("Expected 2 entries after reload, got %d", reloaded.Len())
	}
	if !reloaded.Contains("url:example.com/one") {
		t.Error("Expected fingerprint present after round trip")
	}
	if !reloaded.Contains("url:example.com/two") {
		t.Error("Expected fingerprint present after round trip")
	}
	if reloaded.Contains("url:example.com/three") {
		t.Error("Expected unknown fingerprint absent")
	}
}

func TestFileStoreMarkSeenIdempotent(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "posted.txt"))

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.MarkSeen("fp", first)
	store.MarkSeen("fp", first.Add(24*time.Hour))

	if store.Len() != 1 {
		t.Fatalf("Expected 1 entry, got %d", store.Len())
	}
	if store.seen["fp"] != first {
		t.Error("Expected re-marking to keep the original timestamp")
	}
}

func TestFileStoreSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.txt")
	content := "url:example.com/good\t2024-01-01T00:00:00Z\n" +
		"no tab separator here\n" +
		"url:example.com/badtime\tnot-a-timestamp\n" +
		"url:example.com/also-good\t2024-01-02T00:00:00Z\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Expected malformed lines to be skipped, got: %v", err)
	}
	if store.Len() != 2 {
		t.Errorf("Expected 2 valid entries, got %d", store.Len())
	}
	if !store.Contains("url:example.com/good") || !store.Contains("url:example.com/also-good") {
		t.Error("Expected valid entries kept")
	}
}

func TestFileStoreCorruptFileFallsBackToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.txt")
	if err := os.WriteFile(path, []byte("\x00\xff garbage \xfe\x01 with no structure"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("Expected corrupt store to fall back to empty, got: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Expected empty store, got %d entries", store.Len())
	}

	// The run proceeds and a later flush rewrites the store cleanly
	store.MarkSeen("url:example.com/fresh", time.Now().UTC())
	if err := store.Flush(); err != nil {
		t.Fatalf("Expected flush over corrupt file to succeed, got: %v", err)
	}

	reloaded := NewFileStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatal(err)
	}
	if !reloaded.Contains("url:example.com/fresh") {
		t.Error("Expected fresh entry after rewrite")
	}
}

func TestFileStoreFlushLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posted.txt")

	store := NewFileStore(path)
	store.MarkSeen("fp", time.Now().UTC())
	if err := store.Flush(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("Expected no temp files left behind, found %s", entry.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the store file, found %d entries", len(entries))
	}
}

func TestFileStoreFlushPreservesPriorEntriesAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "posted.txt")

	first := NewFileStore(path)
	if err := first.Load(); err != nil {
		t.Fatal(err)
	}
	first.MarkSeen("run-one", time.Now().UTC())
	if err := first.Flush(); err != nil {
		t.Fatal(err)
	}

	second := NewFileStore(path)
	if err := second.Load(); err != nil {
		t.Fatal(err)
	}
	second.MarkSeen("run-two", time.Now().UTC())
	if err := second.Flush(); err != nil {
		t.Fatal(err)
	}

	third := NewFileStore(path)
	if err := third.Load(); err != nil {
		t.Fatal(err)
	}
	if !third.Contains("run-one") || !third.Contains("run-two") {
		t.Error("Expected entries from both runs after sequential flushes")
	}
}

func TestFileStoreEvictOlderThan(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "posted.txt"))
	now := time.Now().UTC()

	store.MarkSeen("old", now.Add(-10*24*time.Hour))
	store.MarkSeen("recent", now.Add(-time.Hour))

	evicted := store.EvictOlderThan(7 * 24 * time.Hour)
	if evicted != 1 {
		t.Errorf("Expected 1 eviction, got %d", evicted)
	}
	if store.Contains("old") {
		t.Error("Expected old entry evicted")
	}
	if !store.Contains("recent") {
		t.Error("Expected recent entry kept")
	}
}

func TestFileStoreEvictDisabled(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "posted.txt"))
	store.MarkSeen("ancient", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))

	if evicted := store.EvictOlderThan(0); evicted != 0 {
		t.Errorf("Expected zero horizon to disable eviction, evicted %d", evicted)
	}
	if !store.Contains("ancient") {
		t.Error("Expected entry kept when eviction disabled")
	}
}
