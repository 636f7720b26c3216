// Package partition turns the timestamp embedded in an output filename into
// the hierarchical object-store key under which the file is landed. Keys are
// year/month/day/hour so that lexicographic order matches chronological order
// for time-range scans over the bronze layer.
package partition

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// DefaultPrefix is the bronze-layer root under which harvested files land.
const DefaultPrefix = "youtube-raw-data"

// ErrMalformedFilename reports a filename with no valid YYYYMMDD_HHMMSS
// token. Callers must not upload the file; the derivation is never retried.
var ErrMalformedFilename = errors.New("malformed filename: no valid YYYYMMDD_HHMMSS token")

// tokenPattern matches a 14-digit timestamp token that is not part of a
// longer digit run.
var tokenPattern = regexp.MustCompile(`(?:^|[^0-9])(\d{4})(\d{2})(\d{2})_(\d{2})(\d{2})(\d{2})(?:[^0-9]|$)`)

// Key is the derived partition, each field a fixed-width numeric string taken
// verbatim from the filename token.
type Key struct {
	Year  string
	Month string
	Day   string
	Hour  string
}

// Derive extracts the partition key from the first timestamp token found in
// filename. Calendar values are range-checked (month 01-12, day 01-31, hour
// 00-23, minute and second 00-59) but not validated against a real calendar;
// the token is the contract, not the calendar.
func Derive(filename string) (Key, error) {
	m := tokenPattern.FindStringSubmatch(filename)
	if m == nil {
		return Key{}, fmt.Errorf("%w: %q", ErrMalformedFilename, filename)
	}

	year, month, day := m[1], m[2], m[3]
	hour, minute, second := m[4], m[5], m[6]

	if !inRange(month, 1, 12) || !inRange(day, 1, 31) ||
		!inRange(hour, 0, 23) || !inRange(minute, 0, 59) || !inRange(second, 0, 59) {
		return Key{}, fmt.Errorf("%w: %q has out-of-range calendar values", ErrMalformedFilename, filename)
	}

	return Key{Year: year, Month: month, Day: day, Hour: hour}, nil
}

// ObjectKey builds the storage key for filename under prefix:
// <prefix>/<year>/<month>/<day>/<hour>/<filename>. The original filename is
// the leaf, so files differing only after the token share a partition
// directory without colliding.
func (k Key) ObjectKey(prefix, filename string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s/%s", prefix, k.Year, k.Month, k.Day, k.Hour, filename)
}

func inRange(value string, min, max int) bool {
	n, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	return n >= min && n <= max
}
