package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func mustFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := mustFileStore(t)

	fetchTime := time.Date(2026, 1, 19, 20, 0, 0, 0, time.UTC)
	entry := NewEntry("UC123")
	entry.MergeIDs([]string{"A", "B"})
	entry.LastFetchTime = &fetchTime
	entry.UpdatedAt = fetchTime

	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected entry, got absent")
	}
	if loaded.LastFetchTime == nil || !loaded.LastFetchTime.Equal(fetchTime) {
		t.Errorf("last fetch time not preserved: got %v, want %v", loaded.LastFetchTime, fetchTime)
	}
	if len(loaded.KnownItemIDs) != 2 || !loaded.Knows("A") || !loaded.Knows("B") {
		t.Errorf("known ids not preserved: %v", loaded.KnownItemIDs)
	}
}

func TestFileStore_SubsecondFetchTimePreserved(t *testing.T) {
	ctx := context.Background()
	store := mustFileStore(t)

	fetchTime := time.Date(2026, 1, 19, 20, 0, 0, 123456789, time.UTC)
	entry := NewEntry("UC123")
	entry.LastFetchTime = &fetchTime

	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LastFetchTime == nil || !loaded.LastFetchTime.Equal(fetchTime) {
		t.Errorf("sub-second precision lost: got %v, want %v", loaded.LastFetchTime, fetchTime)
	}
}

func TestFileStore_AbsentChannel(t *testing.T) {
	store := mustFileStore(t)
	entry, err := store.Load(context.Background(), "UC-never-fetched")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if entry != nil {
		t.Errorf("expected absent, got %+v", entry)
	}
}

func TestFileStore_CorruptRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "UC123.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write corrupt record: %v", err)
	}

	entry, err := store.Load(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("Load should not fail on corrupt record: %v", err)
	}
	if entry != nil {
		t.Errorf("corrupt record must be treated as absent, got %+v", entry)
	}
}

func TestFileStore_MediumFailureIsHardError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	// A directory where the record file should be makes the read fail with
	// something other than not-exist.
	if err := os.Mkdir(filepath.Join(dir, "UC123.json"), 0o755); err != nil {
		t.Fatalf("create blocking dir: %v", err)
	}

	entry, err := store.Load(context.Background(), "UC123")
	if err == nil {
		t.Fatal("expected error for unreadable storage, got none")
	}
	if errors.Is(err, ErrNaiveTimestamp) {
		t.Fatalf("medium failure must not be classified as naive timestamp: %v", err)
	}
	if entry != nil {
		t.Errorf("no entry expected on hard error, got %+v", entry)
	}
}

func TestFileStore_NaiveTimestampSurfaced(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, testLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	raw := `{"channel_id":"UC123","last_fetch_time":"2026-01-19T20:00:00","known_item_ids":[],"updated_at":"2026-01-19T20:00:00Z"}`
	if err := os.WriteFile(filepath.Join(dir, "UC123.json"), []byte(raw), 0o644); err != nil {
		t.Fatalf("write record: %v", err)
	}

	_, err = store.Load(context.Background(), "UC123")
	if !errors.Is(err, ErrNaiveTimestamp) {
		t.Fatalf("expected ErrNaiveTimestamp, got %v", err)
	}
}

func TestFileStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := mustFileStore(t)

	entry := NewEntry("UC123")
	entry.MergeIDs([]string{"A"})
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Reset(ctx, "UC123"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	loaded, err := store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != nil {
		t.Error("expected absent after reset")
	}

	// Resetting an absent channel is not an error.
	if err := store.Reset(ctx, "UC123"); err != nil {
		t.Errorf("Reset on absent channel failed: %v", err)
	}
}

func TestFileStore_SaveReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	store := mustFileStore(t)

	first := NewEntry("UC123")
	first.MergeIDs([]string{"A"})
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := NewEntry("UC123")
	second.MergeIDs([]string{"A", "B", "C"})
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.KnownItemIDs) != 3 {
		t.Errorf("expected replaced record with 3 ids, got %v", loaded.KnownItemIDs)
	}
}

func TestMemoryStore_CorruptRecordTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	entry := NewEntry("UC123")
	entry.MergeIDs([]string{"A"})
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	store.Corrupt("UC123")

	loaded, err := store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load should not fail on corrupt record: %v", err)
	}
	if loaded != nil {
		t.Errorf("corrupt record must be treated as absent, got %+v", loaded)
	}
}

func TestParseFetchTime(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		naive   bool
		wantErr bool
	}{
		{
			name:  "utc",
			value: "2026-01-19T20:00:00Z",
			want:  time.Date(2026, 1, 19, 20, 0, 0, 0, time.UTC),
		},
		{
			name:  "offset normalized to utc",
			value: "2026-01-19T21:00:00+01:00",
			want:  time.Date(2026, 1, 19, 20, 0, 0, 0, time.UTC),
		},
		{
			name:    "naive",
			value:   "2026-01-19T20:00:00",
			naive:   true,
			wantErr: true,
		},
		{
			name:    "garbage",
			value:   "not-a-time",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFetchTime(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.naive && !errors.Is(err, ErrNaiveTimestamp) {
					t.Fatalf("expected ErrNaiveTimestamp, got %v", err)
				}
				if !tt.naive && errors.Is(err, ErrNaiveTimestamp) {
					t.Fatalf("garbage must not be classified as naive: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFetchTime failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteStore_RoundTripAndReset(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), testLogger())
	if err != nil {
		t.Fatalf("OpenSQLiteStore failed: %v", err)
	}
	defer store.Close()

	fetchTime := time.Date(2026, 1, 19, 20, 0, 0, 0, time.UTC)
	entry := NewEntry("UC123")
	entry.MergeIDs([]string{"A", "B"})
	entry.LastFetchTime = &fetchTime
	entry.UpdatedAt = fetchTime

	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil || !loaded.Knows("A") || !loaded.Knows("B") {
		t.Fatalf("round trip lost ids: %+v", loaded)
	}
	if loaded.LastFetchTime == nil || !loaded.LastFetchTime.Equal(fetchTime) {
		t.Errorf("last fetch time not preserved: %v", loaded.LastFetchTime)
	}

	if err := store.Reset(ctx, "UC123"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	loaded, err = store.Load(ctx, "UC123")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded != nil {
		t.Error("expected absent after reset")
	}
}
