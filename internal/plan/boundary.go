package plan

import (
	"errors"
	"time"
)

// DefaultBuffer is the overlap window subtracted from the last fetch time.
// Remote listings are not consistent at the exact boundary instant (clock
// skew, eventual consistency, publish-time pagination), so the incremental
// window starts this far before the checkpoint and downstream dedup absorbs
// the re-seen items.
const DefaultBuffer = 10 * time.Minute

// ErrZeroFetchTime reports a boundary computation on a channel that has no
// last fetch time. Callers must select full mode instead.
var ErrZeroFetchTime = errors.New("safe boundary requires a last fetch time")

// SafeBoundary derives the incremental query's lower-bound timestamp from a
// stored fetch time. The result is lastFetch - buffer, normalized to UTC.
func SafeBoundary(lastFetch time.Time, buffer time.Duration) (time.Time, error) {
	if lastFetch.IsZero() {
		return time.Time{}, ErrZeroFetchTime
	}
	if buffer < 0 {
		buffer = DefaultBuffer
	}
	return lastFetch.UTC().Add(-buffer), nil
}
