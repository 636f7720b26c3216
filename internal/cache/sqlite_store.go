package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps channel records in a local SQLite database, one row per
// channel with the shared JSON record as the value. The single-writer
// connection gives the per-channel write serialization the Store contract
// asks for.
type SQLiteStore struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLiteStore opens (and initializes, if needed) the database at dbPath.
func OpenSQLiteStore(dbPath string, log zerolog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS channel_cache (
			channel_id TEXT PRIMARY KEY,
			record     TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, channelID string) (*Entry, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM channel_cache WHERE channel_id = ?", channelID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load cache record: %w", err)
	}

	entry, err := decodeEntry([]byte(data))
	if err != nil {
		if errors.Is(err, ErrNaiveTimestamp) {
			return nil, err
		}
		s.log.Debug().Str("channel_id", channelID).Err(err).Msg("cache record corrupt, treating as absent")
		return nil, nil
	}
	return entry, nil
}

func (s *SQLiteStore) Save(ctx context.Context, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO channel_cache (channel_id, record) VALUES (?, ?)
		ON CONFLICT(channel_id) DO UPDATE SET record = excluded.record
	`, entry.ChannelID, string(data))
	if err != nil {
		return fmt.Errorf("save cache record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Reset(ctx context.Context, channelID string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM channel_cache WHERE channel_id = ?", channelID); err != nil {
		return fmt.Errorf("reset cache record: %w", err)
	}
	return nil
}
