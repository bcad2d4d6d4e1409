package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/zemahub/zemahub/dbopen"
	"github.com/zemahub/zemahub/store"
	"github.com/zemahub/zemahub/youtube"
	_ "modernc.org/sqlite"
)

type fakeCatalog struct {
	search func(ctx context.Context, query string, opts youtube.SearchOptions) ([]youtube.SearchItem, error)
	stats  func(ctx context.Context, ids []string) ([]youtube.Video, error)
}

func (f *fakeCatalog) Search(ctx context.Context, query string, opts youtube.SearchOptions) ([]youtube.SearchItem, error) {
	return f.search(ctx, query, opts)
}

func (f *fakeCatalog) Statistics(ctx context.Context, ids []string) ([]youtube.Video, error) {
	return f.stats(ctx, ids)
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := store.ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return store.New(db)
}

func newTestSyncer(t *testing.T, catalog Catalog, cfg Config) (*Syncer, *store.Store) {
	t.Helper()
	st := openTestStore(t)
	return NewSyncer(catalog, st, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), st
}

func searchItem(id string) youtube.SearchItem {
	return youtube.SearchItem{VideoID: id, Title: "Ethiopian Music " + id, ChannelTitle: "Channel"}
}

func statsVideo(id string, views, likes, comments int64) youtube.Video {
	return youtube.Video{
		VideoID:      id,
		Title:        "Ethiopian Music " + id,
		ChannelTitle: "Channel",
		PublishedAt:  time.Now().Add(-24 * time.Hour),
		Views:        views,
		Likes:        likes,
		Comments:     comments,
	}
}

func TestRunDedupAcrossQueries(t *testing.T) {
	// WHAT: A video surfacing in several searches is fetched and stored
	// exactly once, and IDs keep first-seen order.
	var statsCalls [][]string
	catalog := &fakeCatalog{
		search: func(_ context.Context, query string, _ youtube.SearchOptions) ([]youtube.SearchItem, error) {
			if query == "q1" {
				return []youtube.SearchItem{searchItem("a"), searchItem("b")}, nil
			}
			return []youtube.SearchItem{searchItem("b"), searchItem("c")}, nil
		},
		stats: func(_ context.Context, ids []string) ([]youtube.Video, error) {
			statsCalls = append(statsCalls, ids)
			videos := make([]youtube.Video, len(ids))
			for i, id := range ids {
				videos[i] = statsVideo(id, 100, 10, 5)
			}
			return videos, nil
		},
	}

	s, st := newTestSyncer(t, catalog, Config{Queries: []string{"q1", "q2"}})
	res := s.Run(context.Background())

	if res.Status != StatusOK {
		t.Errorf("status: got %s, want ok", res.Status)
	}
	if res.Found != 3 || res.Stored != 3 {
		t.Errorf("found %d stored %d, want 3/3", res.Found, res.Stored)
	}
	if len(statsCalls) != 1 || len(statsCalls[0]) != 3 {
		t.Fatalf("stats calls: %v", statsCalls)
	}
	for i, want := range []string{"a", "b", "c"} {
		if statsCalls[0][i] != want {
			t.Errorf("order[%d]: got %s, want %s", i, statsCalls[0][i], want)
		}
	}
	if n, _ := st.CountVideos(context.Background()); n != 3 {
		t.Errorf("stored rows: %d", n)
	}
}

func TestRunChunksLargeBatches(t *testing.T) {
	// WHAT: 120 unique IDs produce statistics requests of 50, 50 and 20.
	ids := make([]youtube.SearchItem, 120)
	for i := range ids {
		ids[i] = searchItem(fmt.Sprintf("v%03d", i))
	}
	var sizes []int
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return ids, nil
		},
		stats: func(_ context.Context, chunk []string) ([]youtube.Video, error) {
			sizes = append(sizes, len(chunk))
			return nil, nil
		},
	}

	s, _ := newTestSyncer(t, catalog, Config{Queries: []string{"q"}})
	s.Run(context.Background())

	if len(sizes) != 3 || sizes[0] != 50 || sizes[1] != 50 || sizes[2] != 20 {
		t.Errorf("chunk sizes: %v, want [50 50 20]", sizes)
	}
}

func TestRunQueryFailureContinues(t *testing.T) {
	// WHAT: One failing search does not abort the cycle; surviving queries
	// still produce stored videos and the status downgrades to partial.
	catalog := &fakeCatalog{
		search: func(_ context.Context, query string, _ youtube.SearchOptions) ([]youtube.SearchItem, error) {
			if query == "bad" {
				return nil, youtube.ErrUnavailable
			}
			return []youtube.SearchItem{searchItem("a")}, nil
		},
		stats: func(_ context.Context, ids []string) ([]youtube.Video, error) {
			return []youtube.Video{statsVideo("a", 100, 10, 5)}, nil
		},
	}

	s, _ := newTestSyncer(t, catalog, Config{Queries: []string{"bad", "good"}})
	res := s.Run(context.Background())

	if res.Status != StatusPartial {
		t.Errorf("status: got %s, want partial", res.Status)
	}
	if res.QueriesFailed != 1 || res.Stored != 1 {
		t.Errorf("queriesFailed %d stored %d", res.QueriesFailed, res.Stored)
	}
}

func TestRunAllQueriesFail(t *testing.T) {
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return nil, youtube.ErrUnavailable
		},
		stats: func(context.Context, []string) ([]youtube.Video, error) {
			t.Error("statistics should not be called")
			return nil, nil
		},
	}

	s, _ := newTestSyncer(t, catalog, Config{Queries: []string{"a", "b"}})
	res := s.Run(context.Background())

	if res.Status != StatusFailed {
		t.Errorf("status: got %s, want failed", res.Status)
	}
}

func TestRunEmptySearches(t *testing.T) {
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return nil, nil
		},
		stats: func(context.Context, []string) ([]youtube.Video, error) {
			t.Error("statistics should not be called")
			return nil, nil
		},
	}

	s, st := newTestSyncer(t, catalog, Config{Queries: []string{"a"}})
	res := s.Run(context.Background())

	if res.Status != StatusEmpty {
		t.Errorf("status: got %s, want empty", res.Status)
	}
	if n, _ := st.CountVideos(context.Background()); n != 0 {
		t.Errorf("stored rows: %d", n)
	}
}

func TestRunChunkFailureContinues(t *testing.T) {
	// WHAT: A failing statistics chunk skips only its own videos.
	items := make([]youtube.SearchItem, 60)
	for i := range items {
		items[i] = searchItem(fmt.Sprintf("v%02d", i))
	}
	call := 0
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return items, nil
		},
		stats: func(_ context.Context, ids []string) ([]youtube.Video, error) {
			call++
			if call == 1 {
				return nil, youtube.ErrUnavailable
			}
			videos := make([]youtube.Video, len(ids))
			for i, id := range ids {
				videos[i] = statsVideo(id, 100, 10, 5)
			}
			return videos, nil
		},
	}

	s, _ := newTestSyncer(t, catalog, Config{Queries: []string{"q"}})
	res := s.Run(context.Background())

	if res.Status != StatusPartial || res.ChunksFailed != 1 || res.Stored != 10 {
		t.Errorf("status %s chunksFailed %d stored %d", res.Status, res.ChunksFailed, res.Stored)
	}
}

func TestRunFiltersIrrelevantVideos(t *testing.T) {
	// WHAT: Worship content and off-topic content never reach the store.
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return []youtube.SearchItem{searchItem("keep"), searchItem("drop"), searchItem("offtopic")}, nil
		},
		stats: func(context.Context, []string) ([]youtube.Video, error) {
			keep := statsVideo("keep", 100, 10, 5)
			drop := statsVideo("drop", 100, 10, 5)
			drop.Title = "Ethiopian Gospel Worship"
			off := statsVideo("offtopic", 100, 10, 5)
			off.Title = "Lofi beats"
			off.ChannelTitle = "Chill Vibes"
			return []youtube.Video{keep, drop, off}, nil
		},
	}

	s, st := newTestSyncer(t, catalog, Config{Queries: []string{"q"}})
	res := s.Run(context.Background())

	if res.Stored != 1 || res.Filtered != 2 {
		t.Errorf("stored %d filtered %d, want 1/2", res.Stored, res.Filtered)
	}
	v, err := st.GetVideo(context.Background(), "drop")
	if err != nil || v != nil {
		t.Errorf("filtered video persisted: %v, %v", v, err)
	}
}

func TestRunGrowthAcrossCycles(t *testing.T) {
	// WHAT: A first-seen video counts all its views as delta (previous
	// views 0): 100 views, 10 likes, 5 comments score 70 + 3 + 150 = 223.
	// The second cycle reads the stored view count before the overwrite,
	// so 100 -> 150 views with the same engagement scores 35 + 3 + 100 = 138.
	views := int64(100)
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return []youtube.SearchItem{searchItem("a")}, nil
		},
		stats: func(context.Context, []string) ([]youtube.Video, error) {
			return []youtube.Video{statsVideo("a", views, 10, 5)}, nil
		},
	}

	s, st := newTestSyncer(t, catalog, Config{Queries: []string{"q"}})
	ctx := context.Background()

	s.Run(ctx)
	first, _ := st.GetVideo(ctx, "a")
	if first.GrowthScore != 223 {
		t.Errorf("first cycle growth: got %f, want 223", first.GrowthScore)
	}

	views = 150
	s.Run(ctx)

	got, err := st.GetVideo(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Views != 150 {
		t.Errorf("views: got %d", got.Views)
	}
	if got.GrowthScore != 138 {
		t.Errorf("growth: got %f, want 138", got.GrowthScore)
	}
	if n, _ := st.CountVideos(ctx); n != 1 {
		t.Errorf("rows after two cycles: %d", n)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", first.CreatedAt, got.CreatedAt)
	}
}

func TestRunPreservePublishedAt(t *testing.T) {
	// WHAT: With the preserve flag on, a changed publish timestamp from the
	// API does not overwrite the stored one.
	published := time.Now().Add(-24 * time.Hour).Truncate(time.Millisecond)
	catalog := &fakeCatalog{
		search: func(context.Context, string, youtube.SearchOptions) ([]youtube.SearchItem, error) {
			return []youtube.SearchItem{searchItem("a")}, nil
		},
		stats: func(context.Context, []string) ([]youtube.Video, error) {
			v := statsVideo("a", 100, 10, 5)
			v.PublishedAt = published
			return []youtube.Video{v}, nil
		},
	}

	s, st := newTestSyncer(t, catalog, Config{Queries: []string{"q"}, PreservePublishedAt: true})
	ctx := context.Background()

	s.Run(ctx)
	published = published.Add(time.Hour) // API starts reporting a shifted timestamp
	s.Run(ctx)

	got, _ := st.GetVideo(ctx, "a")
	if got.PublishedAt.Equal(published) {
		t.Errorf("published_at overwritten: %v", got.PublishedAt)
	}
}

func TestRunDisabledWithoutCatalog(t *testing.T) {
	s, _ := newTestSyncer(t, nil, Config{})
	res := s.Run(context.Background())
	if res.Status != StatusDisabled {
		t.Errorf("status: got %s, want disabled", res.Status)
	}
}
