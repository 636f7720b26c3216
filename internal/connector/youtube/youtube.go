// Package youtube is the remote listing/detail collaborator: a thin client
// over the Data API v3 endpoints the harvester needs. Listing is requested
// newest-first (order=date) so the planner's cap truncates a documented
// ordering rather than an assumed one.
package youtube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"

	httpx "github.com/nucleus/yt-ingest/internal/connector/http"
)

// DefaultBaseURL is the Data API v3 root.
const DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

// pageSize is the API's per-call ceiling for both listing and detail calls.
const pageSize = 50

// Config configures the YouTube client.
type Config struct {
	APIKey  string
	BaseURL string

	// HTTP carries rate-limit/retry/transport settings for the underlying
	// client; nil means defaults.
	HTTP *httpx.ClientConfig
}

// Client talks to the Data API v3.
type Client struct {
	http *httpx.Client
}

// NewClient creates a YouTube client from config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	httpCfg := cfg.HTTP
	if httpCfg == nil {
		httpCfg = httpx.DefaultClientConfig()
	}
	if httpCfg.BaseURL == "" {
		httpCfg.BaseURL = cfg.BaseURL
	}
	if httpCfg.BaseURL == "" {
		httpCfg.BaseURL = DefaultBaseURL
	}
	httpCfg.Auth = httpx.QueryKey{Key: cfg.APIKey}
	return &Client{http: httpx.NewClient(httpCfg)}, nil
}

// GetChannelStats fetches channel-level statistics.
func (c *Client) GetChannelStats(ctx context.Context, channelID string) (*ChannelStats, error) {
	query := url.Values{}
	query.Set("part", "snippet,statistics")
	query.Set("id", channelID)

	resp, err := c.http.Get(ctx, "channels", query)
	if err != nil {
		return nil, classifyError(err)
	}

	var parsed channelListResponse
	if err := resp.JSON(&parsed); err != nil {
		return nil, wrapError(CodeMalformedResponse, false, err)
	}
	if len(parsed.Items) == 0 {
		return nil, wrapError(CodeMalformedResponse, false, fmt.Errorf("channel %s not found", channelID))
	}

	item := parsed.Items[0]
	return &ChannelStats{
		ChannelID:   item.ID,
		ChannelName: item.Snippet.Title,
		Subscribers: parseCount(item.Statistics.SubscriberCount),
		TotalViews:  parseCount(item.Statistics.ViewCount),
		VideoCount:  parseCount(item.Statistics.VideoCount),
	}, nil
}

// ListVideoIDs returns video ids for a channel, newest first. A nil
// publishedAfter lists the complete current catalog (subject to the API's
// own search limits); otherwise the listing is scoped to videos published at
// or after the boundary. Pagination stops at ceiling ids when ceiling > 0.
func (c *Client) ListVideoIDs(ctx context.Context, channelID string, publishedAfter *time.Time, ceiling int) ([]string, error) {
	var ids []string
	pageToken := ""

	for {
		query := url.Values{}
		query.Set("part", "id")
		query.Set("channelId", channelID)
		query.Set("type", "video")
		query.Set("order", "date")
		query.Set("maxResults", strconv.Itoa(pageSize))
		if publishedAfter != nil {
			query.Set("publishedAfter", publishedAfter.UTC().Format(time.RFC3339))
		}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		resp, err := c.http.Get(ctx, "search", query)
		if err != nil {
			return ids, classifyError(err)
		}
		var parsed searchListResponse
		if err := resp.JSON(&parsed); err != nil {
			return ids, wrapError(CodeMalformedResponse, false, err)
		}

		for _, item := range parsed.Items {
			if item.ID.VideoID == "" {
				continue
			}
			ids = append(ids, item.ID.VideoID)
			if ceiling > 0 && len(ids) >= ceiling {
				return ids, nil
			}
		}

		pageToken = parsed.NextPageToken
		if pageToken == "" {
			return ids, nil
		}
	}
}

// GetVideoDetails fetches detail records for the given ids in batches of 50.
//
// A quota failure aborts immediately with the successes gathered so far. Any
// other batch failure (including ids missing from the response, e.g. deleted
// videos) is collected, and the call returns the successes together with a
// *PartialDetailError naming the failed ids. Failed ids must not be treated
// as seen.
func (c *Client) GetVideoDetails(ctx context.Context, ids []string) ([]VideoDetail, error) {
	var details []VideoDetail
	var failed []string
	var lastErr error

	for start := 0; start < len(ids); start += pageSize {
		end := start + pageSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		query := url.Values{}
		query.Set("part", "snippet,statistics,contentDetails")
		query.Set("id", strings.Join(batch, ","))

		resp, err := c.http.Get(ctx, "videos", query)
		if err != nil {
			classified := classifyError(err)
			if classified.Code == CodeQuotaExceeded {
				return details, classified
			}
			failed = append(failed, batch...)
			lastErr = classified
			continue
		}

		var parsed videoListResponse
		if err := resp.JSON(&parsed); err != nil {
			failed = append(failed, batch...)
			lastErr = wrapError(CodeMalformedResponse, false, err)
			continue
		}

		returned := make(map[string]bool, len(parsed.Items))
		for _, item := range parsed.Items {
			returned[item.ID] = true
			details = append(details, VideoDetail{
				VideoID:         item.ID,
				Title:           item.Snippet.Title,
				PublishedAt:     item.Snippet.PublishedAt,
				ViewCount:       parseCount(item.Statistics.ViewCount),
				LikeCount:       parseCount(item.Statistics.LikeCount),
				CommentCount:    parseCount(item.Statistics.CommentCount),
				DurationSeconds: parseDurationSeconds(item.ContentDetails.Duration),
				Tags:            strings.Join(item.Snippet.Tags, ","),
				CategoryID:      item.Snippet.CategoryID,
				Language:        pickLanguage(item.Snippet.DefaultAudioLanguage, item.Snippet.DefaultLanguage),
			})
		}
		for _, id := range batch {
			if !returned[id] {
				failed = append(failed, id)
			}
		}
	}

	if len(failed) > 0 {
		if lastErr == nil {
			lastErr = fmt.Errorf("%d ids missing from detail response", len(failed))
		}
		return details, &PartialDetailError{FailedIDs: failed, Err: lastErr}
	}
	return details, nil
}

// parseCount parses the API's stringified counters; disabled statistics come
// back absent and count as zero.
func parseCount(value string) int64 {
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseDurationSeconds converts an ISO 8601 duration (PT4M13S) to seconds.
func parseDurationSeconds(value string) float64 {
	if value == "" {
		return 0
	}
	d, err := duration.Parse(value)
	if err != nil {
		return 0
	}
	return d.ToTimeDuration().Seconds()
}

func pickLanguage(audio, fallback string) string {
	if audio != "" {
		return audio
	}
	return fallback
}
