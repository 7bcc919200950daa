package feed

import (
	"time"
)

// RawItem is an unprocessed fetch result. Any field except Source may be
// absent; the normalizer decides what survives. Discarded after
// normalization.
type RawItem struct {
	Source    string
	Title     string
	Link      string
	Summary   string
	Published string
}

// Item is the canonical unit flowing through the pipeline. At least one of
// Link and Body is present once an item has passed normalization.
type Item struct {
	Source      string
	Title       string
	Link        string
	Body        string
	Truncated   bool
	PublishedAt *time.Time

	IsFiltered   bool
	FilterReason string
}
