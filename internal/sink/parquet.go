package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/nucleus/yt-ingest/internal/connector/youtube"
)

// videoDetailsSchema is the JSON schema definition for the video-details
// Parquet layout.
var videoDetailsSchema = buildParquetSchema([][2]string{
	{"video_id", "BYTE_ARRAY"},
	{"title", "BYTE_ARRAY"},
	{"published_date", "BYTE_ARRAY"},
	{"view_count", "INT64"},
	{"like_count", "INT64"},
	{"comment_count", "INT64"},
	{"duration", "DOUBLE"},
	{"tags", "BYTE_ARRAY"},
	{"category_id", "BYTE_ARRAY"},
	{"language", "BYTE_ARRAY"},
	{"channel_id", "BYTE_ARRAY"},
	{"channel_name", "BYTE_ARRAY"},
})

// WriteVideoDetailsParquet writes the video details as a single snappy
// compressed Parquet file, video_details_<ts>.parquet, and returns its path.
// The filename carries the same timestamp token as the CSV rendition so both
// land in the same partition.
func WriteVideoDetailsParquet(dir string, details []youtube.VideoDetail, ts time.Time) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("video_details_%s.parquet", ts.UTC().Format(FileTimestampLayout)))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	buf := &bytes.Buffer{}
	pfw := writerfile.NewWriterFile(buf)
	pw, err := writer.NewJSONWriter(videoDetailsSchema, pfw, 4)
	if err != nil {
		return "", fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, d := range details {
		row, err := json.Marshal(map[string]any{
			"video_id":       d.VideoID,
			"title":          d.Title,
			"published_date": d.PublishedAt,
			"view_count":     d.ViewCount,
			"like_count":     d.LikeCount,
			"comment_count":  d.CommentCount,
			"duration":       d.DurationSeconds,
			"tags":           d.Tags,
			"category_id":    d.CategoryID,
			"language":       d.Language,
			"channel_id":     d.ChannelID,
			"channel_name":   d.ChannelName,
		})
		if err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return "", fmt.Errorf("encode parquet row: %w", err)
		}
		if err := pw.Write(string(row)); err != nil {
			_ = pw.WriteStop()
			_ = pfw.Close()
			return "", fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		_ = pfw.Close()
		return "", fmt.Errorf("finalize parquet file: %w", err)
	}
	_ = pfw.Close()

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write parquet file: %w", err)
	}
	return path, nil
}

func buildParquetSchema(fields [][2]string) string {
	defs := make([]map[string]string, 0, len(fields))
	for _, f := range fields {
		defs = append(defs, map[string]string{
			"Tag": fmt.Sprintf("name=%s, type=%s, repetitiontype=OPTIONAL", f[0], f[1]),
		})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": defs,
	}
	b, _ := json.Marshal(out)
	return string(b)
}
