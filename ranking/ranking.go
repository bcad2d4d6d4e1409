// Package ranking computes the derived scores stored on each video.
//
// Both functions are pure: no I/O, no shared state, deterministic for a
// given clock value. The caller supplies the wall-clock time so tests can
// pin it.
package ranking

import "time"

// Weights for the trending score linear combination.
const (
	viewsWeight    = 0.5
	likesWeight    = 0.3
	commentsWeight = 0.2
)

// recencyWindowHours is the decay horizon of the recency boost: a video
// published right now gets +1000, decaying linearly to 0 over 7 days.
const recencyWindowHours = 24 * 7

// TrendingScore ranks a video by absolute engagement plus a recency boost.
// Age is clamped to >= 0 so clock skew on publishedAt never inflates the
// boost past 1000.
func TrendingScore(views, likes, comments int64, publishedAt, now time.Time) float64 {
	ageHours := now.Sub(publishedAt).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	boost := (1 - ageHours/recencyWindowHours) * 1000
	if boost < 0 {
		boost = 0
	}
	return float64(views)*viewsWeight +
		float64(likes)*likesWeight +
		float64(comments)*commentsWeight +
		boost
}

// GrowthScore measures short-term velocity: how many views a video gained
// since the previous sync, weighted with its engagement ratio. A shrinking
// view count (previousViews > currentViews) contributes 0, never a penalty.
// The engagement ratio is capped at 1 so its term never exceeds 1000.
func GrowthScore(currentViews, previousViews, likes, comments int64) float64 {
	delta := currentViews - previousViews
	if delta < 0 {
		delta = 0
	}
	engagement := likes + comments
	var ratio float64
	if currentViews > 0 {
		ratio = float64(engagement) / float64(currentViews)
		if ratio > 1 {
			ratio = 1
		}
	}
	return float64(delta)*0.7 + float64(engagement)*0.2 + ratio*1000
}
