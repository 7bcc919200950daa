// Package pipeline orchestrates one end-to-end run: fetch every configured
// source, normalize and filter the raw items, pass survivors through the
// publish gate in deterministic order, and flush the dedup store exactly
// once at the end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lmokto/newsherald/app/config"
	"github.com/lmokto/newsherald/app/dedup"
	"github.com/lmokto/newsherald/app/feed"
	"github.com/lmokto/newsherald/app/publish"
)

// ErrNoSourceFetched is returned when every configured source failed; the
// run still flushed whatever it had, but the invoker should exit non-zero.
var ErrNoSourceFetched = errors.New("no source could be fetched")

// Runner executes the pipeline for one bot variant. All collaborators are
// passed in at construction; a Runner holds no ambient state between runs.
type Runner struct {
	botConfig  *config.BotConfig
	fetchers   []feed.Fetcher
	normalizer *feed.Normalizer
	filterer   *feed.Filterer
	extractor  *feed.ExcerptExtractor // nil when content extraction is off
	store      dedup.Store
	gate       *publish.Gate
}

func NewRunner(botConfig *config.BotConfig, fetchers []feed.Fetcher, normalizer *feed.Normalizer,
	filterer *feed.Filterer, extractor *feed.ExcerptExtractor, store dedup.Store, gate *publish.Gate) *Runner {
	return &Runner{
		botConfig:  botConfig,
		fetchers:   fetchers,
		normalizer: normalizer,
		filterer:   filterer,
		extractor:  extractor,
		store:      store,
		gate:       gate,
	}
}

// Run performs one complete fetch, dedup, publish, persist cycle. The
// returned summary is always non-nil; a non-nil error means the run failed
// at the store level or fetched nothing, and the process should exit
// non-zero.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:     uuid.NewString(),
		Bot:       r.botConfig.Bot.Name,
		StartedAt: time.Now().UTC(),
	}
	defer func() {
		summary.Duration = time.Since(summary.StartedAt)
	}()

	slog.Info("Run starting", "run_id", summary.RunID, "bot", summary.Bot, "sources", len(r.fetchers))

	if err := r.store.Load(); err != nil {
		return summary, fmt.Errorf("failed to load dedup store: %w", err)
	}

	if horizon := r.botConfig.Settings.GetDedupHorizon(); horizon > 0 {
		summary.EvictedEntries = r.store.EvictOlderThan(horizon)
		if summary.EvictedEntries > 0 {
			slog.Info("Evicted stale dedup entries", "run_id", summary.RunID,
				"evicted", summary.EvictedEntries, "horizon", horizon.String())
		}
	}

	// Phase 1: fetch. A failing source is skipped for this run and never
	// aborts the others.
	rawBySource := make([][]feed.RawItem, 0, len(r.fetchers))
	for _, fetcher := range r.fetchers {
		raw, err := fetcher.Fetch(ctx)
		if err != nil {
			slog.Warn("Source fetch failed, skipping for this run",
				"run_id", summary.RunID, "source", fetcher.Name(), "error", err)
			summary.SourceFailures = append(summary.SourceFailures, SourceFailure{Source: fetcher.Name(), Err: err})
			continue
		}
		slog.Debug("Source fetched", "run_id", summary.RunID, "source", fetcher.Name(), "items", len(raw))
		summary.Fetched += len(raw)
		rawBySource = append(rawBySource, raw)
	}

	// Phase 2: normalize, preserving source order then fetch order.
	var items []feed.Item
	for _, raw := range rawBySource {
		for _, rawItem := range raw {
			item, err := r.normalizer.Run(rawItem)
			if err != nil {
				slog.Warn("Invalid item, skipping", "run_id", summary.RunID,
					"source", rawItem.Source, "title", rawItem.Title, "error", err)
				summary.Invalid++
				continue
			}
			items = append(items, item)
		}
	}

	// Phase 3: keyword filters.
	candidates := make([]feed.Item, 0, len(items))
	for _, item := range r.filterer.Run(items, r.botConfig.Filters) {
		if item.IsFiltered {
			slog.Debug("Item filtered", "run_id", summary.RunID,
				"source", item.Source, "title", item.Title, "reason", item.FilterReason)
			summary.Filtered++
			continue
		}
		candidates = append(candidates, item)
	}

	// Phase 4: publish gate, in order.
	for _, item := range candidates {
		if r.extractor != nil && item.Link != "" && item.Body == "" {
			if excerpt, err := r.extractor.Run(ctx, item.Link); err == nil {
				item = r.normalizer.Rebody(item, excerpt)
			} else {
				slog.Debug("Excerpt extraction failed, keeping item as-is",
					"run_id", summary.RunID, "link", item.Link, "error", err)
			}
		}

		outcome := r.gate.Process(ctx, item)
		switch outcome.Status {
		case publish.StatusSkippedInvalid:
			summary.Invalid++
		case publish.StatusSkippedDuplicate:
			summary.Duplicates++
		case publish.StatusPublished:
			summary.Published++
		case publish.StatusFailed:
			summary.Failed++
			summary.PublishFailures = append(summary.PublishFailures, PublishFailure{
				Source: item.Source,
				Title:  item.Title,
				Kind:   publish.KindOf(outcome.Err),
				Err:    outcome.Err,
			})
		}
	}

	// Phase 5: single flush. A crash before this point loses only this
	// run's progress, never prior state.
	if err := r.store.Flush(); err != nil {
		return summary, fmt.Errorf("failed to flush dedup store: %w", err)
	}
	summary.StoreEntries = r.store.Len()

	slog.Info("Run complete",
		"run_id", summary.RunID,
		"bot", summary.Bot,
		"duration", time.Since(summary.StartedAt).String(),
		"fetched", summary.Fetched,
		"invalid", summary.Invalid,
		"filtered", summary.Filtered,
		"duplicates", summary.Duplicates,
		"published", summary.Published,
		"failed", summary.Failed,
		"source_failures", len(summary.SourceFailures),
		"store_entries", summary.StoreEntries)

	if len(r.fetchers) > 0 && len(summary.SourceFailures) == len(r.fetchers) {
		return summary, ErrNoSourceFetched
	}

	return summary, nil
}
