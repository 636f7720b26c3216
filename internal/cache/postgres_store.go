package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresStore keeps channel records in Postgres for deployments where the
// harvester runs on more than one host. The upsert is the atomic replace; row
// level locking gives per-channel write serialization for free.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// OpenPostgresStore connects to dsn and ensures the cache table exists.
func OpenPostgresStore(ctx context.Context, dsn string, log zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect cache db: %w", err)
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS channel_cache (
			channel_id TEXT PRIMARY KEY,
			record     JSONB NOT NULL
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize cache schema: %w", err)
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Load(ctx context.Context, channelID string) (*Entry, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		"SELECT record FROM channel_cache WHERE channel_id = $1", channelID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) Save(ctx context.Context, entry *Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO channel_cache (channel_id, record) VALUES ($1, $2)
		ON CONFLICT (channel_id) DO UPDATE SET record = excluded.record
	`, entry.ChannelID, data)
	if err != nil {
		return fmt.Errorf("save cache record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reset(ctx context.Context, channelID string) error {
	if _, err := s.pool.Exec(ctx,
		"DELETE FROM channel_cache WHERE channel_id = $1", channelID); err != nil {
		return fmt.Errorf("reset cache record: %w", err)
	}
	return nil
}
