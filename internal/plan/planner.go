// Package plan decides, per channel and per run, how much of the remote
// listing to fetch: full or incremental mode, the safe time boundary, cache
// deduplication, and the per-run item cap that guards the remote quota.
package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nucleus/yt-ingest/internal/cache"
)

// Mode selects between a complete re-listing and a boundary-scoped query.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// DefaultMaxItemsPerRun caps how many new items a single channel may
// materialize in one run. A high-volume channel must not be able to exhaust
// the run's remote-call budget.
const DefaultMaxItemsPerRun = 500

// FetchPlan is the per-channel, per-run decision. Boundary is nil in full
// mode; in incremental mode it is the publishedAfter argument for the remote
// listing query.
type FetchPlan struct {
	Mode     Mode
	Boundary *time.Time
	Cap      int
}

// Planner derives fetch plans and commits fetch outcomes back to the cache.
type Planner struct {
	store  cache.Store
	buffer time.Duration
	cap    int
	log    zerolog.Logger
}

// NewPlanner creates a planner over the given cache store. A zero buffer or
// cap falls back to the defaults.
func NewPlanner(store cache.Store, buffer time.Duration, maxItems int, log zerolog.Logger) *Planner {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItemsPerRun
	}
	return &Planner{store: store, buffer: buffer, cap: maxItems, log: log}
}

// Plan loads the channel's cache entry and decides the fetch mode. An absent
// (or corrupt, or explicitly reset) entry forces full mode; otherwise the
// plan is incremental with the safe boundary applied.
//
// The returned entry is the planner's read/write-through view for this run;
// it is nil when the channel has never been fetched.
func (p *Planner) Plan(ctx context.Context, channelID string) (*FetchPlan, *cache.Entry, error) {
	entry, err := p.store.Load(ctx, channelID)
	if err != nil {
		return nil, nil, fmt.Errorf("plan channel %s: %w", channelID, err)
	}

	if entry == nil || entry.LastFetchTime == nil {
		p.log.Debug().Str("channel_id", channelID).Msg("no usable cache entry, planning full fetch")
		return &FetchPlan{Mode: ModeFull, Cap: p.cap}, entry, nil
	}

	boundary, err := SafeBoundary(*entry.LastFetchTime, p.buffer)
	if err != nil {
		return nil, nil, fmt.Errorf("plan channel %s: %w", channelID, err)
	}
	p.log.Debug().
		Str("channel_id", channelID).
		Time("boundary", boundary).
		Msg("planning incremental fetch")
	return &FetchPlan{Mode: ModeIncremental, Boundary: &boundary, Cap: p.cap}, entry, nil
}

// Dedupe drops candidate ids already present in the channel's known set,
// preserving the remote ordering of the survivors. It is idempotent: running
// it twice over the same candidates and known set yields the same survivors.
// Duplicate drops and the detail calls they avoid are recorded in stats.
func Dedupe(candidates []string, entry *cache.Entry, stats *RunStats) []string {
	if entry == nil || len(entry.KnownItemIDs) == 0 {
		return candidates
	}
	survivors := make([]string, 0, len(candidates))
	dropped := 0
	for _, id := range candidates {
		if entry.Knows(id) {
			dropped++
			continue
		}
		survivors = append(survivors, id)
	}
	if stats != nil {
		stats.ItemsSkippedDuplicate += dropped
		stats.EstimatedCallsSaved += callsSaved(dropped)
	}
	return survivors
}

// Cap truncates the survivors to the plan's item cap, keeping the head of
// the list. The remote listing is requested newest-first, so the cap keeps
// the most recent items and the excess is re-listed on a later run.
func (fp *FetchPlan) CapCandidates(ids []string, stats *RunStats) []string {
	limit := fp.Cap
	if limit <= 0 {
		limit = DefaultMaxItemsPerRun
	}
	if len(ids) <= limit {
		return ids
	}
	if stats != nil {
		stats.ItemsCapped += len(ids) - limit
	}
	return ids[:limit]
}

// Commit persists the channel's advanced cache state at the end of a fetch
// cycle. Only ids whose detail retrieval was confirmed are merged into the
// known set. The fetch checkpoint advances to runStart only when the channel
// completed cleanly; on partial detail failure the old checkpoint stands so
// the failed ids are re-listed (and deduped) next run.
func (p *Planner) Commit(ctx context.Context, channelID string, entry *cache.Entry, detailedIDs []string, runStart time.Time, complete bool) error {
	if entry == nil {
		entry = cache.NewEntry(channelID)
	}
	entry.MergeIDs(detailedIDs)
	if complete {
		checkpoint := runStart.UTC()
		entry.LastFetchTime = &checkpoint
	}
	entry.UpdatedAt = time.Now().UTC()

	if err := p.store.Save(ctx, entry); err != nil {
		return fmt.Errorf("commit channel %s: %w", channelID, err)
	}
	return nil
}

// Reset deletes the channel's cache entry, forcing the next plan into full
// mode. This is the operator-facing full-refresh operation.
func (p *Planner) Reset(ctx context.Context, channelID string) error {
	return p.store.Reset(ctx, channelID)
}
