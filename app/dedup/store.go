// Package dedup implements the durable set of fingerprints already
// published. A run loads the store once at start, mutates it in memory, and
// flushes it once at the end; only items whose publish succeeded are marked
// seen, so failed items are naturally retried on the next run.
package dedup

import (
	"time"
)

// Store is a durable fingerprint set. Implementations are not safe for
// concurrent use; a run owns its store exclusively.
type Store interface {
	// Load reconstructs state from durable storage. A missing store is a
	// valid first run. A corrupt store falls back to empty with a warning
	// rather than failing the run; only real I/O failures are errors.
	Load() error

	// Contains reports whether the fingerprint was seen on a previous run
	// or marked during this one.
	Contains(fp string) bool

	// MarkSeen records a fingerprint in memory. Idempotent; re-marking an
	// existing fingerprint keeps its original timestamp.
	MarkSeen(fp string, seenAt time.Time)

	// Flush persists the current in-memory state. Atomic with respect to
	// crashes: a partial write never corrupts previously committed entries.
	Flush() error

	// EvictOlderThan drops entries first seen before now minus horizon and
	// returns how many were dropped. A non-positive horizon is a no-op.
	EvictOlderThan(horizon time.Duration) int

	// Len returns the number of fingerprints currently held in memory.
	Len() int
}
