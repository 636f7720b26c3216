package plan

import (
	"errors"
	"testing"
	"time"
)

func TestSafeBoundary_ExactSubtraction(t *testing.T) {
	tests := []struct {
		name   string
		last   time.Time
		buffer time.Duration
		want   time.Time
	}{
		{
			name:   "plain",
			last:   time.Date(2026, 1, 19, 20, 0, 0, 0, time.UTC),
			buffer: 10 * time.Minute,
			want:   time.Date(2026, 1, 19, 19, 50, 0, 0, time.UTC),
		},
		{
			name:   "midnight rollover",
			last:   time.Date(2026, 3, 1, 0, 5, 0, 0, time.UTC),
			buffer: 10 * time.Minute,
			want:   time.Date(2026, 2, 28, 23, 55, 0, 0, time.UTC),
		},
		{
			name:   "year rollover",
			last:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			buffer: 10 * time.Minute,
			want:   time.Date(2025, 12, 31, 23, 50, 0, 0, time.UTC),
		},
		{
			name:   "non-utc input normalized",
			last:   time.Date(2026, 1, 19, 21, 0, 0, 0, time.FixedZone("CET", 3600)),
			buffer: 10 * time.Minute,
			want:   time.Date(2026, 1, 19, 19, 50, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeBoundary(tt.last, tt.buffer)
			if err != nil {
				t.Fatalf("SafeBoundary failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("boundary must be UTC, got %v", got.Location())
			}
		})
	}
}

func TestSafeBoundary_ZeroFetchTime(t *testing.T) {
	_, err := SafeBoundary(time.Time{}, 10*time.Minute)
	if !errors.Is(err, ErrZeroFetchTime) {
		t.Fatalf("expected ErrZeroFetchTime, got %v", err)
	}
}
