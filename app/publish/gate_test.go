package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lmokto/newsherald/app/dedup"
	"github.com/lmokto/newsherald/app/feed"
)

// fakePublisher records calls and fails on demand
type fakePublisher struct {
	calls []Post
	fail  error
}

func (p *fakePublisher) Publish(ctx context.Context, post Post) (string, error) {
	p.calls = append(p.calls, post)
	if p.fail != nil {
		return "", p.fail
	}
	return fmt.Sprintf("t3_%d", len(p.calls)), nil
}

func newTestGate(store dedup.Store, publisher Publisher) *Gate {
	return NewGate(store, publisher, NewFormatter(""), feed.StrategyURL, 5*time.Minute, 5*time.Second)
}

func loadedFileStore(t *testing.T) *dedup.FileStore {
	t.Helper()
	store := dedup.NewFileStore(filepath.Join(t.TempDir(), "posted.txt"))
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestGatePublishesNewItem(t *testing.T) {
	store := loadedFileStore(t)
	publisher := &fakePublisher{}
	gate := newTestGate(store, publisher)

	item := feed.Item{Source: "Feed", Title: "Story", Link: "https://example.com/story"}
	outcome := gate.Process(context.Background(), item)

	if outcome.Status != StatusPublished {
		t.Fatalf("Expected published, got %s (err: %v)", outcome.Status, outcome.Err)
	}
	if outcome.PostID != "t3_1" {
		t.Errorf("Expected post ID 't3_1', got '%s'", outcome.PostID)
	}
	if !store.Contains(outcome.Fingerprint) {
		t.Error("Expected fingerprint marked seen after successful publish")
	}
	if len(publisher.calls) != 1 {
		t.Errorf("Expected 1 publish call, got %d", len(publisher.calls))
	}
}

func TestGateSkipsDuplicate(t *testing.T) {
	store := loadedFileStore(t)
	publisher := &fakePublisher{}
	gate := newTestGate(store, publisher)

	item := feed.Item{Source: "Feed", Title: "Story", Link: "https://example.com/story"}

	first := gate.Process(context.Background(), item)
	if first.Status != StatusPublished {
		t.Fatalf("Expected first pass published, got %s", first.Status)
	}

	second := gate.Process(context.Background(), item)
	if second.Status != StatusSkippedDuplicate {
		t.Fatalf("Expected duplicate skip, got %s", second.Status)
	}
	if len(publisher.calls) != 1 {
		t.Errorf("Expected duplicate to never reach the publisher, got %d calls", len(publisher.calls))
	}
}

func TestGateDuplicateAcrossWhitespaceVariants(t *testing.T) {
	store := loadedFileStore(t)
	publisher := &fakePublisher{}
	gate := newTestGate(store, publisher)

	first := feed.Item{Source: "Feed", Title: "Story", Link: "https://example.com/story", Body: "text here"}
	second := feed.Item{Source: "Feed", Title: "Story", Link: "https://example.com/story/", Body: "text   here"}

	if outcome := gate.Process(context.Background(), first); outcome.Status != StatusPublished {
		t.Fatalf("Expected first variant published, got %s", outcome.Status)
	}
	if outcome := gate.Process(context.Background(), second); outcome.Status != StatusSkippedDuplicate {
		t.Fatalf("Expected second variant skipped as duplicate, got %s", outcome.Status)
	}
}

func TestGateFailureDoesNotMarkSeen(t *testing.T) {
	store := loadedFileStore(t)
	failing := &fakePublisher{fail: &Error{Kind: KindTransient, Err: fmt.Errorf("connection reset")}}
	gate := newTestGate(store, failing)

	item := feed.Item{Source: "Feed", Title: "Story", Link: "https://example.com/story"}

	outcome := gate.Process(context.Background(), item)
	if outcome.Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", outcome.Status)
	}
	if store.Contains(outcome.Fingerprint) {
		t.Error("Expected failed item NOT marked seen")
	}

	// Same item with a working publisher now goes through
	working := &fakePublisher{}
	retryGate := newTestGate(store, working)
	retry := retryGate.Process(context.Background(), item)
	if retry.Status != StatusPublished {
		t.Fatalf("Expected retry to publish, got %s", retry.Status)
	}
}

func TestGateUnfingerprintableSkipped(t *testing.T) {
	store := loadedFileStore(t)
	publisher := &fakePublisher{}
	gate := newTestGate(store, publisher)

	outcome := gate.Process(context.Background(), feed.Item{Source: "Feed"})
	if outcome.Status != StatusSkippedInvalid {
		t.Fatalf("Expected invalid skip, got %s", outcome.Status)
	}
	if len(publisher.calls) != 0 {
		t.Error("Expected unfingerprintable item never published")
	}
}

func TestGateRateLimitedFailureReported(t *testing.T) {
	store := loadedFileStore(t)
	limited := &fakePublisher{fail: &Error{Kind: KindRateLimited, Err: fmt.Errorf("slow down")}}
	gate := newTestGate(store, limited)

	outcome := gate.Process(context.Background(), feed.Item{Source: "Feed", Title: "Story", Link: "https://example.com/x"})
	if outcome.Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", outcome.Status)
	}
	if KindOf(outcome.Err) != KindRateLimited {
		t.Errorf("Expected rate-limited kind surfaced, got %s", KindOf(outcome.Err))
	}
}
