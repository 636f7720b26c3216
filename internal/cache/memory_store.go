package cache

import (
	"context"
	"errors"
	"sync"
)

// MemoryStore is an in-memory Store used by tests and as a no-persistence
// fallback. Entries are deep-copied on the way in and out so callers cannot
// mutate stored state behind the store's back.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, channelID string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, ok := s.entries[channelID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	entry, err := decodeEntry(data)
	if err != nil {
		if errors.Is(err, ErrNaiveTimestamp) {
			return nil, err
		}
		return nil, nil
	}
	return entry, nil
}

func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.entries[entry.ChannelID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, channelID)
	s.mu.Unlock()
	return nil
}

// Corrupt overwrites a channel's stored record with unparseable bytes.
// Test hook for the corrupt-record recovery path.
func (s *MemoryStore) Corrupt(channelID string) {
	s.mu.Lock()
	s.entries[channelID] = []byte("{not json")
	s.mu.Unlock()
}
