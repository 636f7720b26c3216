// Command yt-ingest harvests YouTube channel and video metadata incrementally
// and lands the output as time-partitioned files in an object store.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nucleus/yt-ingest/internal/cache"
	"github.com/nucleus/yt-ingest/internal/channels"
	"github.com/nucleus/yt-ingest/internal/config"
	"github.com/nucleus/yt-ingest/internal/connector/youtube"
	"github.com/nucleus/yt-ingest/internal/objstore"
	"github.com/nucleus/yt-ingest/internal/plan"
	"github.com/nucleus/yt-ingest/internal/run"
	"github.com/nucleus/yt-ingest/internal/sink"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "yt-ingest",
		Short:         "Incremental YouTube metadata harvester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	root.AddCommand(newResetCacheCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Harvest all channels in the roster once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)
			ctx := cmd.Context()

			if cfg.APIKey == "" {
				return fmt.Errorf("YT_API_KEY is required")
			}

			roster, err := channels.Load(cfg.ChannelsFile)
			if err != nil {
				return err
			}
			if len(roster) == 0 {
				log.Warn().Str("file", cfg.ChannelsFile).Msg("channel roster is empty, nothing to do")
				return nil
			}

			store, closeStore, err := openCacheStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			client, err := youtube.NewClient(youtube.Config{APIKey: cfg.APIKey})
			if err != nil {
				return err
			}

			uploader, err := newUploader(ctx, cfg, log)
			if err != nil {
				return err
			}

			planner := plan.NewPlanner(store, cfg.FetchBuffer, cfg.MaxItemsPerRun, log)
			orch := run.New(client, planner, uploader, run.Config{
				OutputDir:    cfg.OutputDir,
				WriteParquet: cfg.WriteParquet,
			}, log)

			report, err := orch.Execute(ctx, roster)
			if err != nil {
				return err
			}
			for _, failure := range report.Failures() {
				log.Warn().
					Str("channel_id", failure.ChannelID).
					Err(failure.Err).
					Msg("channel ended with error")
			}
			if n := len(report.Failures()); n > 0 {
				return fmt.Errorf("%d of %d channels failed", n, len(report.Channels))
			}
			return nil
		},
	}
}

func newResetCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-cache <channel-id>",
		Short: "Delete a channel's cache entry, forcing a full fetch next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)
			ctx := cmd.Context()

			store, closeStore, err := openCacheStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Reset(ctx, args[0]); err != nil {
				return err
			}
			log.Info().Str("channel_id", args[0]).Msg("cache entry reset")
			return nil
		},
	}
}

func openCacheStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (cache.Store, func(), error) {
	noop := func() {}
	switch cfg.CacheBackend {
	case config.CacheBackendFile:
		store, err := cache.NewFileStore(cfg.CacheDir, log)
		return store, noop, err
	case config.CacheBackendSQLite:
		store, err := cache.OpenSQLiteStore(filepath.Join(cfg.CacheDir, "cache.db"), log)
		if err != nil {
			return nil, noop, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.CacheBackendPostgres:
		store, err := cache.OpenPostgresStore(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func newUploader(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*sink.Uploader, error) {
	if !cfg.UploadEnabled() {
		log.Info().Msg("no object store configured, output stays local")
		return nil, nil
	}
	store, err := objstore.NewS3Store(objstore.S3Config{
		EndpointURL:     cfg.S3Endpoint,
		Region:          cfg.S3Region,
		UseSSL:          cfg.S3UseSSL,
		AccessKeyID:     cfg.S3AccessKey,
		SecretAccessKey: cfg.S3SecretKey,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx, cfg.S3Bucket); err != nil {
		return nil, err
	}
	return sink.NewUploader(store, cfg.S3Bucket, cfg.S3Prefix, log), nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}
