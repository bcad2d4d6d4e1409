// Package youtube is a thin client for the two YouTube Data API v3 read
// operations the ingestion pipeline needs: video search and statistics.
//
// The client does pure request/response mapping. Retry, batching above
// MaxBatchSize, and failure policy belong to the caller.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MaxBatchSize is the hard per-request ID limit of the /videos endpoint.
// Statistics returns ErrBatchTooLarge above it; it never splits batches
// on the caller's behalf.
const MaxBatchSize = 50

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrUnavailable is returned when the API cannot be reached or answers
// with a non-success status. The caller decides whether to skip or abort.
var ErrUnavailable = errors.New("youtube: api unavailable")

// ErrBatchTooLarge is returned when Statistics is called with more IDs
// than MaxBatchSize. This is a caller contract violation, not an API error.
var ErrBatchTooLarge = errors.New("youtube: statistics batch exceeds limit")

// Config configures a Client.
type Config struct {
	// APIKey is the YouTube Data API key, sent as the "key" query parameter.
	APIKey string
	// BaseURL overrides the API endpoint. Default: the public v3 endpoint.
	// Tests point this at an httptest server.
	BaseURL string
	// HTTPClient performs the requests. Default: 15s timeout.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
}

// Client calls the YouTube Data API v3.
type Client struct {
	config Config
}

// New creates a Client. The API key is required; whether a missing key
// disables ingestion is the coordinator's policy, so New does not check it.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{config: cfg}
}

// SearchOptions are the shared constraints for one Search call.
type SearchOptions struct {
	CategoryID     string    // videoCategoryId filter ("10" = Music)
	Region         string    // regionCode
	MaxResults     int       // result cap, API max 50
	PublishedAfter time.Time // zero value omits the cutoff
}

// Search returns candidate videos for a topic query, ordered as the API
// returns them. Only snippet data is available at this stage; counters
// come from Statistics.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchItem, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query)
	params.Set("type", "video")
	if opts.CategoryID != "" {
		params.Set("videoCategoryId", opts.CategoryID)
	}
	if opts.Region != "" {
		params.Set("regionCode", opts.Region)
	}
	if opts.MaxResults > 0 {
		params.Set("maxResults", fmt.Sprintf("%d", opts.MaxResults))
	}
	if !opts.PublishedAfter.IsZero() {
		params.Set("publishedAfter", opts.PublishedAfter.UTC().Format(time.RFC3339))
	}
	params.Set("key", c.config.APIKey)

	var resp searchResponse
	if err := c.get(ctx, "/search", params, &resp); err != nil {
		return nil, err
	}

	items := make([]SearchItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID.VideoID == "" {
			continue
		}
		items = append(items, SearchItem{
			VideoID:      it.ID.VideoID,
			Title:        it.Snippet.Title,
			ChannelTitle: it.Snippet.ChannelTitle,
			PublishedAt:  it.Snippet.PublishedAt,
			Thumbnails:   it.Snippet.Thumbnails,
		})
	}
	return items, nil
}

// Statistics fetches per-video counters plus fresh snippet metadata for up
// to MaxBatchSize video IDs. The response may omit IDs the API no longer
// knows about; callers must not assume positional correspondence.
func (c *Client) Statistics(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d ids (max %d)", ErrBatchTooLarge, len(ids), MaxBatchSize)
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", c.config.APIKey)

	var resp videosResponse
	if err := c.get(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ID == "" {
			continue
		}
		videos = append(videos, Video{
			VideoID:      it.ID,
			Title:        it.Snippet.Title,
			ChannelTitle: it.Snippet.ChannelTitle,
			PublishedAt:  it.Snippet.PublishedAt,
			Thumbnails:   it.Snippet.Thumbnails,
			Views:        it.Statistics.ViewCount.Int64(),
			Likes:        it.Statistics.LikeCount.Int64(),
			Comments:     it.Statistics.CommentCount.Int64(),
		})
	}
	return videos, nil
}

// get performs one API request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.config.BaseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("youtube: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http %d on %s", ErrUnavailable, resp.StatusCode, path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("youtube: json decode: %w", err)
	}
	return nil
}
