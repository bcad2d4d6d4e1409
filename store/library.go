package store

import (
	"context"
	"time"
)

// The favorites and watch-later lists are the same keyed-set shape over
// different tables, so they share one implementation. The table name is
// always one of these two constants, never caller input.
const (
	tableFavorites  = "favorites"
	tableWatchLater = "watch_later"
)

// AddFavorite adds a video to the user's favorites. Idempotent.
func (s *Store) AddFavorite(ctx context.Context, userID, videoID string) error {
	return s.addListEntry(ctx, tableFavorites, userID, videoID)
}

// RemoveFavorite removes a video from the user's favorites.
func (s *Store) RemoveFavorite(ctx context.Context, userID, videoID string) error {
	return s.removeListEntry(ctx, tableFavorites, userID, videoID)
}

// FavoriteIDs returns the video IDs in the user's favorites, most recent first.
func (s *Store) FavoriteIDs(ctx context.Context, userID string) ([]string, error) {
	return s.listEntryIDs(ctx, tableFavorites, userID)
}

// FavoriteVideos returns the stored videos in the user's favorites.
func (s *Store) FavoriteVideos(ctx context.Context, userID string) ([]*Video, error) {
	ids, err := s.FavoriteIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.VideosByIDs(ctx, ids)
}

// AddWatchLater adds a video to the user's watch-later list. Idempotent.
func (s *Store) AddWatchLater(ctx context.Context, userID, videoID string) error {
	return s.addListEntry(ctx, tableWatchLater, userID, videoID)
}

// RemoveWatchLater removes a video from the user's watch-later list.
func (s *Store) RemoveWatchLater(ctx context.Context, userID, videoID string) error {
	return s.removeListEntry(ctx, tableWatchLater, userID, videoID)
}

// WatchLaterIDs returns the video IDs in the user's watch-later list.
func (s *Store) WatchLaterIDs(ctx context.Context, userID string) ([]string, error) {
	return s.listEntryIDs(ctx, tableWatchLater, userID)
}

// WatchLaterVideos returns the stored videos in the user's watch-later list.
func (s *Store) WatchLaterVideos(ctx context.Context, userID string) ([]*Video, error) {
	ids, err := s.WatchLaterIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.VideosByIDs(ctx, ids)
}

func (s *Store) addListEntry(ctx context.Context, table, userID, videoID string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, video_id, added_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id, video_id) DO NOTHING`,
		userID, videoID, time.Now().UnixMilli())
	return err
}

func (s *Store) removeListEntry(ctx context.Context, table, userID, videoID string) error {
	_, err := s.DB.ExecContext(ctx,
		`DELETE FROM `+table+` WHERE user_id = ? AND video_id = ?`,
		userID, videoID)
	return err
}

func (s *Store) listEntryIDs(ctx context.Context, table, userID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT video_id FROM `+table+` WHERE user_id = ? ORDER BY added_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
