package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileStore keeps one JSON record per channel under a root directory.
// Saves go through a temp file and rename so a crash mid-write never leaves
// a partially written record visible.
type FileStore struct {
	root string
	log  zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "yt-ingest-cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{
		root:  dir,
		log:   log,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *FileStore) Load(ctx context.Context, channelID string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.recordPath(channelID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cache record: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		if errors.Is(err, ErrNaiveTimestamp) {
			return nil, err
		}
		s.log.Debug().Str("channel_id", channelID).Err(err).Msg("cache record corrupt, treating as absent")
		return nil, nil
	}
	return entry, nil
}

func (s *FileStore) Save(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	lock := s.channelLock(entry.ChannelID)
	lock.Lock()
	defer lock.Unlock()

	target := s.recordPath(entry.ChannelID)
	tmp, err := os.CreateTemp(s.root, ".cache-*")
	if err != nil {
		return fmt.Errorf("save cache record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save cache record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save cache record: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save cache record: %w", err)
	}
	return nil
}

func (s *FileStore) Reset(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lock := s.channelLock(channelID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(s.recordPath(channelID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset cache record: %w", err)
	}
	return nil
}

func (s *FileStore) recordPath(channelID string) string {
	return filepath.Join(s.root, sanitizeID(channelID)+".json")
}

func (s *FileStore) channelLock(channelID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[channelID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[channelID] = lock
	}
	return lock
}

func sanitizeID(raw string) string {
	replacer := strings.NewReplacer(":", "_", "/", "_", "\\", "_", "..", "_")
	out := replacer.Replace(raw)
	if out == "" {
		out = fmt.Sprintf("channel-%d", time.Now().UnixNano())
	}
	return out
}
