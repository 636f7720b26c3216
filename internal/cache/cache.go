// Package cache persists per-channel fetch state between harvest runs.
//
// Each channel owns one Entry: the time of its last successful fetch and the
// set of item ids already landed downstream. The store contract is
// deliberately soft on the read path: a missing or unreadable record is
// reported as absent, which forces the planner into a full fetch for that
// channel and nothing else.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNaiveTimestamp reports a stored fetch time that carries no timezone
// offset. Silently coercing such values to UTC produced wrong incremental
// windows in the past, so the decode surfaces it instead of guessing.
var ErrNaiveTimestamp = errors.New("stored fetch time has no timezone offset")

// Entry is the persisted fetch state for one channel.
type Entry struct {
	ChannelID     string
	LastFetchTime *time.Time
	KnownItemIDs  map[string]struct{}
	UpdatedAt     time.Time
}

// NewEntry creates an empty entry for a channel that has never been fetched.
func NewEntry(channelID string) *Entry {
	return &Entry{
		ChannelID:    channelID,
		KnownItemIDs: make(map[string]struct{}),
	}
}

// Knows reports whether the item id has already been seen for this channel.
func (e *Entry) Knows(id string) bool {
	_, ok := e.KnownItemIDs[id]
	return ok
}

// MergeIDs adds ids to the known set. The set only ever grows; removal
// happens exclusively through Store.Reset.
func (e *Entry) MergeIDs(ids []string) {
	if e.KnownItemIDs == nil {
		e.KnownItemIDs = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		e.KnownItemIDs[id] = struct{}{}
	}
}

// Store is the durable key-value persistence medium, keyed by channel id.
//
// Load returns (nil, nil) when no record exists or when a record exists but
// does not decode; both cases mean "never fetched" to the caller. Failures
// of the storage medium itself (an unreachable database, an unreadable
// file) are returned as errors across all backends and fail that channel's
// planning step, as does ErrNaiveTimestamp, which is a contract violation
// rather than corruption.
//
// Save atomically replaces the channel's record. Reset deletes it, forcing
// the next plan into full mode.
//
// Implementations must serialize writes per channel id; cross-channel calls
// need no coordination.
type Store interface {
	Load(ctx context.Context, channelID string) (*Entry, error)
	Save(ctx context.Context, entry *Entry) error
	Reset(ctx context.Context, channelID string) error
}

// =============================================================================
// WIRE ENCODING
// =============================================================================

// record is the serialized form shared by all durable backends. Timestamps
// are RFC3339 strings, written with nanosecond precision so a checkpoint
// round-trips exactly; the timezone-offset requirement is checked in exactly
// one place on the way back in.
type record struct {
	ChannelID     string   `json:"channel_id"`
	LastFetchTime string   `json:"last_fetch_time,omitempty"`
	KnownItemIDs  []string `json:"known_item_ids"`
	UpdatedAt     string   `json:"updated_at"`
}

// encodeEntry serializes an entry to its stored JSON form.
func encodeEntry(e *Entry) ([]byte, error) {
	if e == nil || e.ChannelID == "" {
		return nil, fmt.Errorf("entry with channel id is required")
	}
	rec := record{
		ChannelID:    e.ChannelID,
		KnownItemIDs: sortedIDs(e.KnownItemIDs),
		UpdatedAt:    e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if e.LastFetchTime != nil {
		rec.LastFetchTime = e.LastFetchTime.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(rec)
}

// decodeEntry parses a stored record. Any error other than ErrNaiveTimestamp
// means the record is corrupt and should be treated as absent.
func decodeEntry(data []byte) (*Entry, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cache record: %w", err)
	}
	if rec.ChannelID == "" {
		return nil, fmt.Errorf("decode cache record: missing channel_id")
	}

	entry := NewEntry(rec.ChannelID)
	entry.MergeIDs(rec.KnownItemIDs)

	if rec.LastFetchTime != "" {
		t, err := ParseFetchTime(rec.LastFetchTime)
		if err != nil {
			return nil, err
		}
		entry.LastFetchTime = &t
	}
	if rec.UpdatedAt != "" {
		if t, err := time.Parse(time.RFC3339, rec.UpdatedAt); err == nil {
			entry.UpdatedAt = t.UTC()
		}
	}
	return entry, nil
}

// ParseFetchTime parses a stored fetch timestamp. RFC3339 values are
// normalized to UTC. A value that parses only without a timezone offset is
// rejected with ErrNaiveTimestamp; anything else is a plain parse error.
func ParseFetchTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if _, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrNaiveTimestamp, value)
	}
	return time.Time{}, fmt.Errorf("parse fetch time %q: not RFC3339", value)
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
