package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/lmokto/newsherald/app/dedup"
	"github.com/lmokto/newsherald/app/feed"
)

// Status is the terminal state of one item's trip through the gate
type Status string

const (
	StatusSkippedInvalid   Status = "skipped_invalid"
	StatusSkippedDuplicate Status = "skipped_duplicate"
	StatusPublished        Status = "published"
	StatusFailed           Status = "failed"
)

// Outcome reports what happened to a single item
type Outcome struct {
	Status      Status
	Fingerprint string
	PostID      string
	Err         error
}

// Gate decides per item whether to publish: it fingerprints the item,
// consults the dedup store, invokes the publisher, and records the outcome.
// An item is only marked seen after its publish succeeded, so failed items
// are retried on the next run.
type Gate struct {
	store          dedup.Store
	publisher      Publisher
	formatter      *Formatter
	strategy       feed.Strategy
	granularity    time.Duration
	publishTimeout time.Duration
}

func NewGate(store dedup.Store, publisher Publisher, formatter *Formatter,
	strategy feed.Strategy, granularity, publishTimeout time.Duration) *Gate {
	return &Gate{
		store:          store,
		publisher:      publisher,
		formatter:      formatter,
		strategy:       strategy,
		granularity:    granularity,
		publishTimeout: publishTimeout,
	}
}

// Process runs one item through the gate. It never returns an error; every
// failure mode is an Outcome so one bad item cannot abort the run.
func (g *Gate) Process(ctx context.Context, item feed.Item) Outcome {
	fp, err := feed.BuildFingerprint(item, g.strategy, g.granularity)
	if err != nil {
		slog.Warn("Item unfingerprintable, skipping", "source", item.Source, "title", item.Title)
		return Outcome{Status: StatusSkippedInvalid, Err: err}
	}

	if g.store.Contains(fp) {
		slog.Debug("Duplicate item, skipping", "source", item.Source, "title", item.Title)
		return Outcome{Status: StatusSkippedDuplicate, Fingerprint: fp}
	}

	post := g.formatter.Run(item)

	publishCtx, cancel := context.WithTimeout(ctx, g.publishTimeout)
	defer cancel()

	postID, err := g.publisher.Publish(publishCtx, post)
	if err != nil {
		slog.Warn("Publish failed, item stays unseen",
			"source", item.Source, "title", item.Title, "kind", string(KindOf(err)), "error", err)
		return Outcome{Status: StatusFailed, Fingerprint: fp, Err: err}
	}

	g.store.MarkSeen(fp, time.Now().UTC())
	slog.Info("Published", "source", item.Source, "title", item.Title, "post_id", postID)

	return Outcome{Status: StatusPublished, Fingerprint: fp, PostID: postID}
}
