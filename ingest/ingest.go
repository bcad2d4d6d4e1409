// Package ingest coordinates the media ingestion pipeline: topic search
// fan-out, dedup, batched statistics fetch, score computation and the
// idempotent write into the catalog.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/zemahub/zemahub/ranking"
	"github.com/zemahub/zemahub/store"
	"github.com/zemahub/zemahub/youtube"
)

// Catalog is the external media API surface the pipeline consumes.
// *youtube.Client satisfies it; tests use a fake.
type Catalog interface {
	Search(ctx context.Context, query string, opts youtube.SearchOptions) ([]youtube.SearchItem, error)
	Statistics(ctx context.Context, ids []string) ([]youtube.Video, error)
}

// Cycle outcome statuses.
const (
	StatusOK       = "ok"       // everything succeeded
	StatusPartial  = "partial"  // some queries, chunks or items failed
	StatusFailed   = "failed"   // nothing was stored and there were failures
	StatusEmpty    = "empty"    // searches succeeded but found nothing
	StatusDisabled = "disabled" // no catalog credentials configured
)

// CycleResult summarizes one ingestion cycle for logs and the admin API.
type CycleResult struct {
	Status        string    `json:"status"`
	QueriesRun    int       `json:"queriesRun"`
	QueriesFailed int       `json:"queriesFailed"`
	Found         int       `json:"found"` // unique IDs after dedup
	ChunksFailed  int       `json:"chunksFailed"`
	Stored        int       `json:"stored"`
	Filtered      int       `json:"filtered"` // dropped by the relevance filter
	Skipped       int       `json:"skipped"`  // per-item store failures
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// Syncer runs ingestion cycles against a catalog and a store.
type Syncer struct {
	catalog Catalog
	store   *store.Store
	config  Config
	logger  *slog.Logger
	now     func() time.Time
}

// NewSyncer creates a Syncer. A nil catalog is allowed and makes every
// cycle report StatusDisabled, so the rest of the service can run without
// API credentials.
func NewSyncer(catalog Catalog, st *store.Store, cfg Config, logger *slog.Logger) *Syncer {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		catalog: catalog,
		store:   st,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one full ingestion cycle. A failing query, chunk or item
// never aborts the cycle; failures are counted and reflected in the status.
func (s *Syncer) Run(ctx context.Context) *CycleResult {
	res := &CycleResult{StartedAt: s.now()}
	defer func() {
		res.FinishedAt = s.now()
		s.logger.Info("ingest: cycle finished",
			"status", res.Status,
			"found", res.Found,
			"stored", res.Stored,
			"filtered", res.Filtered,
			"queries_failed", res.QueriesFailed,
			"chunks_failed", res.ChunksFailed,
			"skipped", res.Skipped,
			"duration", res.FinishedAt.Sub(res.StartedAt).String(),
		)
	}()

	if s.catalog == nil {
		res.Status = StatusDisabled
		return res
	}

	ids := s.collect(ctx, res)
	res.Found = len(ids)
	if len(ids) == 0 {
		if res.QueriesFailed == res.QueriesRun {
			res.Status = StatusFailed
		} else {
			res.Status = StatusEmpty
		}
		return res
	}

	for _, chunk := range chunkIDs(ids, s.config.BatchSize) {
		videos, err := s.catalog.Statistics(ctx, chunk)
		if err != nil {
			res.ChunksFailed++
			s.logger.Warn("ingest: statistics chunk", "ids", len(chunk), "error", err)
			continue
		}
		for i := range videos {
			s.storeVideo(ctx, &videos[i], res)
		}
	}

	switch {
	case res.Stored == 0 && res.ChunksFailed > 0:
		res.Status = StatusFailed
	case res.QueriesFailed > 0 || res.ChunksFailed > 0 || res.Skipped > 0:
		res.Status = StatusPartial
	default:
		res.Status = StatusOK
	}
	return res
}

// collect fans out the configured queries and returns the unique video
// IDs in first-seen order.
func (s *Syncer) collect(ctx context.Context, res *CycleResult) []string {
	opts := youtube.SearchOptions{
		CategoryID:     s.config.CategoryID,
		Region:         s.config.Region,
		MaxResults:     s.config.MaxResultsPerQuery,
		PublishedAfter: s.now().Add(-s.config.PublishedWithin),
	}

	seen := make(map[string]bool)
	var ids []string
	for _, query := range s.config.Queries {
		res.QueriesRun++
		items, err := s.catalog.Search(ctx, query, opts)
		if err != nil {
			res.QueriesFailed++
			s.logger.Warn("ingest: search", "query", query, "error", err)
			continue
		}
		for _, it := range items {
			if seen[it.VideoID] {
				continue
			}
			seen[it.VideoID] = true
			ids = append(ids, it.VideoID)
		}
	}
	return ids
}

// storeVideo filters, scores and upserts one fetched video. The previous
// view count is read before the overwrite so growth can be measured.
func (s *Syncer) storeVideo(ctx context.Context, v *youtube.Video, res *CycleResult) {
	if !Relevant(v.Title, v.ChannelTitle) {
		res.Filtered++
		return
	}

	existing, err := s.store.GetVideo(ctx, v.VideoID)
	if err != nil {
		res.Skipped++
		s.logger.Warn("ingest: read existing", "video_id", v.VideoID, "error", err)
		return
	}

	// A first-seen video has no prior record, so its whole view count is
	// the delta.
	var prevViews int64
	publishedAt := v.PublishedAt
	if existing != nil {
		prevViews = existing.Views
		if s.config.PreservePublishedAt {
			publishedAt = existing.PublishedAt
		}
	}

	now := s.now()
	rec := &store.Video{
		VideoID:       v.VideoID,
		Title:         v.Title,
		ChannelName:   v.ChannelTitle,
		Views:         v.Views,
		Likes:         v.Likes,
		Comments:      v.Comments,
		Thumbnail:     v.Thumbnails.Best(),
		PublishedAt:   publishedAt,
		TrendingScore: ranking.TrendingScore(v.Views, v.Likes, v.Comments, publishedAt, now),
		GrowthScore:   ranking.GrowthScore(v.Views, prevViews, v.Likes, v.Comments),
		LastStatsAt:   now,
	}
	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
	}

	if err := s.store.UpsertVideo(ctx, rec); err != nil {
		res.Skipped++
		s.logger.Warn("ingest: upsert", "video_id", v.VideoID, "error", err)
		return
	}
	res.Stored++
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for len(ids) > size {
		chunks = append(chunks, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}
