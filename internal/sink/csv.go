// Package sink writes a run's collected rows to timestamped local files and
// uploads them to the object store under time-partitioned keys. Filenames
// embed the run timestamp as YYYYMMDD_HHMMSS; that token is what the
// partition deriver reads back out.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nucleus/yt-ingest/internal/connector/youtube"
)

// FileTimestampLayout is the token format embedded in output filenames.
const FileTimestampLayout = "20060102_150405"

// WriteChannelStatsCSV writes one row per channel to
// channel_stats_<ts>.csv in dir and returns the file path.
func WriteChannelStatsCSV(dir string, stats []youtube.ChannelStats, ts time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("channel_stats_%s.csv", ts.UTC().Format(FileTimestampLayout)))
	rows := make([][]string, 0, len(stats)+1)
	rows = append(rows, []string{"channel_id", "channel_name", "subscribers", "total_views", "video_count"})
	for _, s := range stats {
		rows = append(rows, []string{
			s.ChannelID,
			s.ChannelName,
			strconv.FormatInt(s.Subscribers, 10),
			strconv.FormatInt(s.TotalViews, 10),
			strconv.FormatInt(s.VideoCount, 10),
		})
	}
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// WriteVideoDetailsCSV writes one row per video to video_details_<ts>.csv in
// dir and returns the file path.
func WriteVideoDetailsCSV(dir string, details []youtube.VideoDetail, ts time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("video_details_%s.csv", ts.UTC().Format(FileTimestampLayout)))
	rows := make([][]string, 0, len(details)+1)
	rows = append(rows, []string{
		"video_id", "title", "published_date", "view_count", "like_count",
		"comment_count", "duration", "tags", "category_id", "language",
		"channel_id", "channel_name",
	})
	for _, d := range details {
		rows = append(rows, []string{
			d.VideoID,
			d.Title,
			d.PublishedAt,
			strconv.FormatInt(d.ViewCount, 10),
			strconv.FormatInt(d.LikeCount, 10),
			strconv.FormatInt(d.CommentCount, 10),
			strconv.FormatFloat(d.DurationSeconds, 'f', -1, 64),
			d.Tags,
			d.CategoryID,
			d.Language,
			d.ChannelID,
			d.ChannelName,
		})
	}
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	w.Flush()
	return w.Error()
}
