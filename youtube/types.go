package youtube

import (
	"strconv"
	"time"
)

// SearchItem is one candidate video from a /search response.
type SearchItem struct {
	VideoID      string
	Title        string
	ChannelTitle string
	PublishedAt  time.Time
	Thumbnails   Thumbnails
}

// Video is one item from a /videos statistics response: re-confirmed
// snippet metadata plus the engagement counters.
type Video struct {
	VideoID      string
	Title        string
	ChannelTitle string
	PublishedAt  time.Time
	Thumbnails   Thumbnails
	Views        int64
	Likes        int64
	Comments     int64
}

// Thumbnail is one thumbnail variant.
type Thumbnail struct {
	URL string `json:"url"`
}

// Thumbnails holds the variants the API may return per video.
type Thumbnails struct {
	Default *Thumbnail `json:"default"`
	Medium  *Thumbnail `json:"medium"`
	High    *Thumbnail `json:"high"`
}

// Best returns the URL of the highest-resolution variant available,
// preferring high over medium over default. Empty string if none.
func (t Thumbnails) Best() string {
	switch {
	case t.High != nil && t.High.URL != "":
		return t.High.URL
	case t.Medium != nil && t.Medium.URL != "":
		return t.Medium.URL
	case t.Default != nil && t.Default.URL != "":
		return t.Default.URL
	}
	return ""
}

// --- wire types ---

type searchResponse struct {
	Items []searchResponseItem `json:"items"`
}

type searchResponseItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet snippet `json:"snippet"`
}

type videosResponse struct {
	Items []videosResponseItem `json:"items"`
}

type videosResponseItem struct {
	ID         string     `json:"id"`
	Snippet    snippet    `json:"snippet"`
	Statistics statistics `json:"statistics"`
}

type snippet struct {
	Title        string     `json:"title"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  time.Time  `json:"publishedAt"`
	Thumbnails   Thumbnails `json:"thumbnails"`
}

type statistics struct {
	ViewCount    countValue `json:"viewCount"`
	LikeCount    countValue `json:"likeCount"`
	CommentCount countValue `json:"commentCount"`
}

// countValue decodes the API's string-encoded counters. Absent or
// malformed counters decode as 0 (likes and comments can be hidden).
type countValue string

func (c countValue) Int64() int64 {
	n, err := strconv.ParseInt(string(c), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
