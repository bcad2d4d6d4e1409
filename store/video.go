package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Video is one catalog item as persisted. JSON field names follow the
// public API responses.
type Video struct {
	VideoID       string    `json:"videoId"`
	Title         string    `json:"title"`
	ChannelName   string    `json:"channelName"`
	Views         int64     `json:"views"`
	Likes         int64     `json:"likes"`
	Comments      int64     `json:"comments"`
	Thumbnail     string    `json:"thumbnail"`
	PublishedAt   time.Time `json:"publishedAt"`
	TrendingScore float64   `json:"trendingScore"`
	GrowthScore   float64   `json:"growthScore"`
	LastStatsAt   time.Time `json:"lastStatsAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

const videoColumns = `video_id, title, channel_name, views, likes, comments,
	thumbnail, published_at, trending_score, growth_score, last_stats_at,
	created_at, updated_at`

// ListLimit caps every browse query.
const ListLimit = 50

// GetVideo retrieves a video by its external ID. Returns (nil, nil) when
// absent. Callers branch on that to distinguish create from merge.
func (s *Store) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE video_id = ?`, videoID)
	v, err := scanVideo(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

// UpsertVideo inserts the video or, when the video_id already exists,
// overwrites all mutable fields in one atomic statement. created_at is
// preserved on conflict; everything else, published_at included, comes
// from the new record.
func (s *Store) UpsertVideo(ctx context.Context, v *Video) error {
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title          = excluded.title,
			channel_name   = excluded.channel_name,
			views          = excluded.views,
			likes          = excluded.likes,
			comments       = excluded.comments,
			thumbnail      = excluded.thumbnail,
			published_at   = excluded.published_at,
			trending_score = excluded.trending_score,
			growth_score   = excluded.growth_score,
			last_stats_at  = excluded.last_stats_at,
			updated_at     = excluded.updated_at`,
		v.VideoID, v.Title, v.ChannelName, v.Views, v.Likes, v.Comments,
		v.Thumbnail, v.PublishedAt.UnixMilli(), v.TrendingScore, v.GrowthScore,
		msOrNull(v.LastStatsAt), v.CreatedAt.UnixMilli(), v.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", v.VideoID, err)
	}
	return nil
}

// ListTrending returns videos by descending trending score.
func (s *Store) ListTrending(ctx context.Context) ([]*Video, error) {
	return s.listVideos(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY trending_score DESC LIMIT ?`,
		ListLimit)
}

// ListNew returns videos published after the cutoff, newest first.
func (s *Store) ListNew(ctx context.Context, since time.Time) ([]*Video, error) {
	return s.listVideos(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE published_at >= ?
		ORDER BY published_at DESC LIMIT ?`,
		since.UnixMilli(), ListLimit)
}

// ListFastest returns videos by descending growth score.
func (s *Store) ListFastest(ctx context.Context) ([]*Video, error) {
	return s.listVideos(ctx,
		`SELECT `+videoColumns+` FROM videos ORDER BY growth_score DESC LIMIT ?`,
		ListLimit)
}

// SearchVideos matches the query against title or channel name
// (case-insensitive substring) and sorts by the given filter:
// "new" (publish date), "popular" (views), anything else trending score.
func (s *Store) SearchVideos(ctx context.Context, query, filter string) ([]*Video, error) {
	order := "trending_score DESC"
	switch filter {
	case "new":
		order = "published_at DESC"
	case "popular":
		order = "views DESC"
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return s.listVideos(ctx,
			`SELECT `+videoColumns+` FROM videos ORDER BY `+order+` LIMIT ?`,
			ListLimit)
	}

	pattern := "%" + escapeLike(query) + "%"
	return s.listVideos(ctx,
		`SELECT `+videoColumns+` FROM videos
		WHERE title LIKE ? ESCAPE '\' OR channel_name LIKE ? ESCAPE '\'
		ORDER BY `+order+` LIMIT ?`,
		pattern, pattern, ListLimit)
}

// VideosByIDs returns the stored videos for the given external IDs,
// preserving the input order. Unknown IDs are silently skipped.
func (s *Store) VideosByIDs(ctx context.Context, ids []string) ([]*Video, error) {
	if len(ids) == 0 {
		return []*Video{}, nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	videos, err := s.listVideos(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE video_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*Video, len(videos))
	for _, v := range videos {
		byID[v.VideoID] = v
	}
	ordered := make([]*Video, 0, len(videos))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			ordered = append(ordered, v)
		}
	}
	return ordered, nil
}

// CountVideos returns the total number of stored videos.
func (s *Store) CountVideos(ctx context.Context) (int, error) {
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	return count, err
}

func (s *Store) listVideos(ctx context.Context, query string, args ...any) ([]*Video, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []*Video{}
	for rows.Next() {
		v, err := scanVideo(rows.Scan)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

func scanVideo(scan func(...any) error) (*Video, error) {
	var v Video
	var publishedAt, createdAt, updatedAt int64
	var lastStatsAt sql.NullInt64
	err := scan(
		&v.VideoID, &v.Title, &v.ChannelName, &v.Views, &v.Likes, &v.Comments,
		&v.Thumbnail, &publishedAt, &v.TrendingScore, &v.GrowthScore,
		&lastStatsAt, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan video: %w", err)
	}
	v.PublishedAt = time.UnixMilli(publishedAt)
	v.CreatedAt = time.UnixMilli(createdAt)
	v.UpdatedAt = time.UnixMilli(updatedAt)
	if lastStatsAt.Valid {
		v.LastStatsAt = time.UnixMilli(lastStatsAt.Int64)
	}
	return &v, nil
}

func msOrNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UnixMilli()
}

// escapeLike escapes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
