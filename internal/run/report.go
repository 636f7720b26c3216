package run

import (
	"time"

	"github.com/nucleus/yt-ingest/internal/plan"
)

// ChannelResult is the per-channel outcome of one run.
type ChannelResult struct {
	ChannelID   string
	ChannelName string
	Mode        plan.Mode
	Stats       plan.RunStats

	// Err is the channel's failure, if any. Partial marks a detail fetch
	// where only some ids failed; QuotaHit marks the failure that exhausted
	// the run's remote budget. Skipped channels never issued a remote call.
	Err      error
	Partial  bool
	QuotaHit bool
	Skipped  bool
}

// Failed reports whether the channel ended with an error.
func (r ChannelResult) Failed() bool { return r.Err != nil }

// Report summarizes one harvest run.
type Report struct {
	RunID     string
	StartedAt time.Time

	Stats          plan.RunStats
	Channels       []ChannelResult
	QuotaExhausted bool

	OutputFiles   []string
	UploadedKeys  []string
	FailedUploads []UploadFailure
}

// UploadFailure records one output file that could not be landed in the
// object store. The local file stays in place for a manual re-land.
type UploadFailure struct {
	File string
	Err  error
}

// Failures returns the channels that ended with an error.
func (r *Report) Failures() []ChannelResult {
	var out []ChannelResult
	for _, ch := range r.Channels {
		if ch.Failed() {
			out = append(out, ch)
		}
	}
	return out
}

// SkippedCount returns how many channels never ran because the quota was
// already exhausted.
func (r *Report) SkippedCount() int {
	n := 0
	for _, ch := range r.Channels {
		if ch.Skipped {
			n++
		}
	}
	return n
}
