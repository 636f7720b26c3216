// Package run drives one harvest over the channel roster: per-channel plan,
// list, dedupe, cap, detail fetch, cache commit, then the file/upload sink.
// Channel failures are isolated; a quota refusal stops all further remote
// calls while keeping the progress already earned.
package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nucleus/yt-ingest/internal/channels"
	"github.com/nucleus/yt-ingest/internal/connector/youtube"
	"github.com/nucleus/yt-ingest/internal/plan"
	"github.com/nucleus/yt-ingest/internal/sink"
)

// API is the remote collaborator surface the orchestrator needs. The youtube
// client satisfies it; tests substitute a fake.
type API interface {
	GetChannelStats(ctx context.Context, channelID string) (*youtube.ChannelStats, error)
	ListVideoIDs(ctx context.Context, channelID string, publishedAfter *time.Time, ceiling int) ([]string, error)
	GetVideoDetails(ctx context.Context, ids []string) ([]youtube.VideoDetail, error)
}

// Config configures one orchestrator.
type Config struct {
	// OutputDir is where the timestamped CSV/Parquet files land before upload.
	OutputDir string

	// WriteParquet additionally renders video details as Parquet.
	WriteParquet bool
}

// Orchestrator executes harvest runs. Uploader may be nil, in which case
// output files stay local only.
type Orchestrator struct {
	api      API
	planner  *plan.Planner
	uploader *sink.Uploader
	cfg      Config
	log      zerolog.Logger
}

// New creates an orchestrator.
func New(api API, planner *plan.Planner, uploader *sink.Uploader, cfg Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{api: api, planner: planner, uploader: uploader, cfg: cfg, log: log}
}

// Execute runs one harvest over the roster and returns the run report. The
// error return covers sink failures only; per-channel remote failures are
// recorded in the report and never abort the run.
func (o *Orchestrator) Execute(ctx context.Context, roster []channels.Channel) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := o.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Int("channels", len(roster)).Msg("starting harvest run")

	var allStats []youtube.ChannelStats
	var allDetails []youtube.VideoDetail

	for _, ch := range roster {
		if report.QuotaExhausted {
			report.Channels = append(report.Channels, ChannelResult{
				ChannelID:   ch.ID,
				ChannelName: ch.Name,
				Skipped:     true,
			})
			log.Warn().Str("channel_id", ch.ID).Msg("quota exhausted, skipping channel")
			continue
		}

		result := o.harvestChannel(ctx, log, ch, report.StartedAt, &allStats, &allDetails)
		report.Channels = append(report.Channels, result)
		report.Stats.Merge(result.Stats)
		if result.QuotaHit {
			report.QuotaExhausted = true
		}
	}

	if err := o.flush(ctx, log, report, allStats, allDetails); err != nil {
		return report, err
	}

	log.Info().
		Int("items_fetched", report.Stats.ItemsFetched).
		Int("items_skipped_duplicate", report.Stats.ItemsSkippedDuplicate).
		Int("items_capped", report.Stats.ItemsCapped).
		Int("estimated_calls_saved", report.Stats.EstimatedCallsSaved).
		Bool("quota_exhausted", report.QuotaExhausted).
		Msg("harvest run finished")
	return report, nil
}

// harvestChannel runs the full fetch cycle for one channel. Every failure is
// folded into the returned result instead of propagating, so one broken
// channel cannot take the rest of the roster down with it.
func (o *Orchestrator) harvestChannel(ctx context.Context, log zerolog.Logger, ch channels.Channel, runStart time.Time, allStats *[]youtube.ChannelStats, allDetails *[]youtube.VideoDetail) ChannelResult {
	result := ChannelResult{ChannelID: ch.ID, ChannelName: ch.Name}
	clog := log.With().Str("channel_id", ch.ID).Logger()

	stats, err := o.api.GetChannelStats(ctx, ch.ID)
	if err != nil {
		return o.fail(clog, result, "channel stats fetch failed", err)
	}
	if stats.ChannelName == "" {
		stats.ChannelName = ch.Name
	}
	*allStats = append(*allStats, *stats)

	fp, entry, err := o.planner.Plan(ctx, ch.ID)
	if err != nil {
		return o.fail(clog, result, "fetch planning failed", err)
	}
	result.Mode = fp.Mode

	// With an empty known set nothing can be deduped, so listing past the
	// cap only spends search quota on ids a later run must re-list anyway.
	// Once known ids exist the listing stays unbounded: duplicates occupy
	// head slots and a ceiling could starve out genuinely new items.
	ceiling := 0
	if entry == nil || len(entry.KnownItemIDs) == 0 {
		ceiling = fp.Cap
	}
	listed, err := o.api.ListVideoIDs(ctx, ch.ID, fp.Boundary, ceiling)
	if err != nil {
		return o.fail(clog, result, "video listing failed", err)
	}

	survivors := plan.Dedupe(listed, entry, &result.Stats)
	capped := fp.CapCandidates(survivors, &result.Stats)

	details, detailErr := o.api.GetVideoDetails(ctx, capped)
	for i := range details {
		details[i].ChannelID = ch.ID
		details[i].ChannelName = stats.ChannelName
	}
	*allDetails = append(*allDetails, details...)
	result.Stats.ItemsFetched = len(details)

	detailedIDs := make([]string, 0, len(details))
	for _, d := range details {
		detailedIDs = append(detailedIDs, d.VideoID)
	}

	complete := detailErr == nil
	if commitErr := o.planner.Commit(ctx, ch.ID, entry, detailedIDs, runStart, complete); commitErr != nil {
		clog.Error().Err(commitErr).Msg("cache commit failed")
		if result.Err == nil {
			result.Err = commitErr
		}
	}

	if detailErr != nil {
		var partial *youtube.PartialDetailError
		switch {
		case youtube.IsQuotaExceeded(detailErr):
			result.QuotaHit = true
			result.Err = detailErr
			clog.Warn().Err(detailErr).Int("items_fetched", len(details)).Msg("quota exceeded during detail fetch")
		case errors.As(detailErr, &partial):
			result.Partial = true
			result.Err = detailErr
			clog.Warn().
				Int("failed_ids", len(partial.FailedIDs)).
				Int("items_fetched", len(details)).
				Msg("detail fetch partially failed, checkpoint held back")
		default:
			result.Err = detailErr
			clog.Error().Err(detailErr).Msg("detail fetch failed")
		}
		return result
	}

	clog.Info().
		Str("mode", string(fp.Mode)).
		Int("listed", len(listed)).
		Int("items_fetched", len(details)).
		Int("items_skipped_duplicate", result.Stats.ItemsSkippedDuplicate).
		Int("items_capped", result.Stats.ItemsCapped).
		Msg("channel harvested")
	return result
}

func (o *Orchestrator) fail(clog zerolog.Logger, result ChannelResult, msg string, err error) ChannelResult {
	result.Err = err
	if youtube.IsQuotaExceeded(err) {
		result.QuotaHit = true
		clog.Warn().Err(err).Msg(msg + " (quota exhausted)")
		return result
	}
	clog.Error().Err(err).Msg(msg)
	return result
}

// flush writes the run's collected rows to timestamped local files and, when
// an uploader is configured, lands them in the object store. A single file's
// upload failure is recorded in the report and the remaining files still go
// out; the returned error is reserved for local write failures and for the
// store rejecting every upload.
func (o *Orchestrator) flush(ctx context.Context, log zerolog.Logger, report *Report, stats []youtube.ChannelStats, details []youtube.VideoDetail) error {
	if len(stats) == 0 && len(details) == 0 {
		log.Info().Msg("no rows collected, skipping sink")
		return nil
	}

	var files []string
	if len(stats) > 0 {
		path, err := sink.WriteChannelStatsCSV(o.cfg.OutputDir, stats, report.StartedAt)
		if err != nil {
			return err
		}
		files = append(files, path)
	}
	if len(details) > 0 {
		path, err := sink.WriteVideoDetailsCSV(o.cfg.OutputDir, details, report.StartedAt)
		if err != nil {
			return err
		}
		files = append(files, path)

		if o.cfg.WriteParquet {
			path, err := sink.WriteVideoDetailsParquet(o.cfg.OutputDir, details, report.StartedAt)
			if err != nil {
				return err
			}
			files = append(files, path)
		}
	}
	report.OutputFiles = files

	if o.uploader == nil {
		return nil
	}
	for _, path := range files {
		key, err := o.uploader.UploadFile(ctx, path)
		if err != nil {
			report.FailedUploads = append(report.FailedUploads, UploadFailure{File: path, Err: err})
			log.Error().Err(err).Str("file", filepath.Base(path)).Msg("upload failed, keeping local file")
			continue
		}
		report.UploadedKeys = append(report.UploadedKeys, key)
	}
	if len(report.FailedUploads) == len(files) {
		return fmt.Errorf("all %d uploads failed: %w", len(files), report.FailedUploads[0].Err)
	}
	return nil
}
