package pipeline

import (
	"time"

	"github.com/lmokto/newsherald/app/publish"
)

// SourceFailure records a source that could not be fetched this run
type SourceFailure struct {
	Source string
	Err    error
}

// PublishFailure records an item whose publish call failed. The item was
// not marked seen and will be retried on the next run.
type PublishFailure struct {
	Source string
	Title  string
	Kind   publish.ErrorKind
	Err    error
}

// Summary is the outcome of one complete run. Produced once per run, never
// persisted.
type Summary struct {
	RunID     string
	Bot       string
	StartedAt time.Time
	Duration  time.Duration

	Fetched    int
	Invalid    int
	Filtered   int
	Duplicates int
	Published  int
	Failed     int

	StoreEntries   int
	EvictedEntries int

	SourceFailures  []SourceFailure
	PublishFailures []PublishFailure
}

// Attempted returns how many items made it past normalization and filtering
// into the publish gate
func (s *Summary) Attempted() int {
	return s.Duplicates + s.Published + s.Failed
}
