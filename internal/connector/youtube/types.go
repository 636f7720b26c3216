package youtube

// ChannelStats is the channel-level slice of the harvest: identity plus the
// headline counters.
type ChannelStats struct {
	ChannelID   string
	ChannelName string
	Subscribers int64
	TotalViews  int64
	VideoCount  int64
}

// VideoDetail is one video's metadata and statistics, enriched with the
// owning channel so rows from many channels can share one output file.
type VideoDetail struct {
	VideoID         string
	Title           string
	PublishedAt     string
	ViewCount       int64
	LikeCount       int64
	CommentCount    int64
	DurationSeconds float64
	Tags            string
	CategoryID      string
	Language        string
	ChannelID       string
	ChannelName     string
}

// =============================================================================
// WIRE TYPES (Data API v3 response shapes, only the parts we read)
// =============================================================================

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			ViewCount       string `json:"viewCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type searchListResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title                string   `json:"title"`
			PublishedAt          string   `json:"publishedAt"`
			Tags                 []string `json:"tags"`
			CategoryID           string   `json:"categoryId"`
			DefaultAudioLanguage string   `json:"defaultAudioLanguage"`
			DefaultLanguage      string   `json:"defaultLanguage"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}
