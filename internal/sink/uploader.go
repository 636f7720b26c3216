package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/nucleus/yt-ingest/internal/objstore"
	"github.com/nucleus/yt-ingest/internal/partition"
)

// Uploader lands local output files in the object store under keys derived
// from the timestamp token in each filename.
type Uploader struct {
	store  objstore.ObjectStore
	bucket string
	prefix string
	log    zerolog.Logger
}

// NewUploader creates an uploader targeting bucket/prefix. An empty prefix
// falls back to the bronze-layer default.
func NewUploader(store objstore.ObjectStore, bucket, prefix string, log zerolog.Logger) *Uploader {
	if prefix == "" {
		prefix = partition.DefaultPrefix
	}
	return &Uploader{store: store, bucket: bucket, prefix: prefix, log: log}
}

// UploadFile derives the partition key from localPath's base name and puts
// the file's content under it. A filename without a valid timestamp token
// fails with partition.ErrMalformedFilename and nothing is uploaded; the
// put itself is idempotent, so retrying a run re-lands the same keys safely.
func (u *Uploader) UploadFile(ctx context.Context, localPath string) (string, error) {
	filename := filepath.Base(localPath)
	key, err := partition.Derive(filename)
	if err != nil {
		return "", err
	}
	objectKey := key.ObjectKey(u.prefix, filename)

	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", localPath, err)
	}
	if err := u.store.PutObject(ctx, u.bucket, objectKey, data); err != nil {
		return "", err
	}

	u.log.Info().
		Str("file", filename).
		Str("key", objectKey).
		Int("bytes", len(data)).
		Msg("uploaded output file")
	return objectKey, nil
}
