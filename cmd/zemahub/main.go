package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/zemahub/zemahub/auth"
	"github.com/zemahub/zemahub/dbopen"
	"github.com/zemahub/zemahub/ingest"
	"github.com/zemahub/zemahub/store"
	"github.com/zemahub/zemahub/youtube"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func main() {
	port := env("PORT", "8080")
	dbPath := env("DB_PATH", "db/zemahub.db")
	apiKey := os.Getenv("YOUTUBE_API_KEY")
	configPath := env("ZEMAHUB_CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")

	secretInput := os.Getenv("JWT_SECRET")
	if secretInput == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}
	// Derive a 32-byte JWT secret via SHA-256 (satisfies auth.MinSecretLen).
	secretHash := sha256.Sum256([]byte(secretInput))
	jwtSecret := secretHash[:]

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Database.
	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll(), dbopen.WithSchema(store.Schema))
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	st := store.New(db)

	// Ingestion config: YAML file, then env overrides.
	cfg, err := ingest.LoadConfig(configPath)
	if err != nil {
		slog.Error("load ingest config", "error", err)
		os.Exit(1)
	}
	if region := os.Getenv("YOUTUBE_REGION_CODE"); region != "" {
		cfg.Region = region
	}
	if h := os.Getenv("SYNC_HOUR"); h != "" {
		cfg.SyncHour = parseSyncHour(h, cfg.SyncHour)
	}

	// Catalog client. Without an API key the pipeline is disabled but the
	// read API still serves whatever is already stored.
	var catalog ingest.Catalog
	if apiKey != "" {
		catalog = youtube.New(youtube.Config{APIKey: apiKey})
	} else {
		slog.Warn("YOUTUBE_API_KEY not set, ingestion disabled")
	}

	syncer := ingest.NewSyncer(catalog, st, cfg, logger)
	scheduler := ingest.NewScheduler(syncer.Run, cfg.SyncHour, logger)
	go scheduler.Run(ctx)

	// Router.
	r := chi.NewRouter()
	r.Use(auth.Middleware(jwtSecret)) // soft parse, enforcement is per-group

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public auth endpoints.
	r.Post("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if req.Email == "" || req.Password == "" {
			writeError(w, 400, fmt.Errorf("email and password required"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		user, err := st.CreateUser(r.Context(), req.Name, req.Email, string(hash), "")
		if err != nil {
			if errors.Is(err, store.ErrEmailTaken) {
				writeError(w, 409, err)
				return
			}
			writeError(w, 500, err)
			return
		}
		issueSession(w, r, jwtSecret, user)
	})

	r.Post("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		user, err := st.GetUserByEmail(r.Context(), req.Email)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
			writeJSON(w, 401, map[string]string{"error": "invalid credentials"})
			return
		}
		issueSession(w, r, jwtSecret, user)
	})

	r.Post("/api/auth/logout", func(w http.ResponseWriter, _ *http.Request) {
		auth.ClearTokenCookie(w)
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	// Public catalog browsing.
	r.Get("/api/videos/trending", func(w http.ResponseWriter, r *http.Request) {
		videos, err := st.ListTrending(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, videos)
	})

	r.Get("/api/videos/new", func(w http.ResponseWriter, r *http.Request) {
		days := queryDays(r, 7)
		since := time.Now().AddDate(0, 0, -days)
		videos, err := st.ListNew(r.Context(), since)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, videos)
	})

	r.Get("/api/videos/fastest", func(w http.ResponseWriter, r *http.Request) {
		videos, err := st.ListFastest(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, videos)
	})

	r.Get("/api/videos/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		filter := r.URL.Query().Get("filter")
		videos, err := st.SearchVideos(r.Context(), q, filter)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, videos)
	})

	// Session-scoped routes.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
			c := auth.GetClaims(r.Context())
			writeJSON(w, 200, map[string]string{
				"id": c.UserID, "name": c.Name, "email": c.Email, "role": c.Role,
			})
		})

		r.Route("/api/user/favorites", func(r chi.Router) {
			r.Get("/", listHandler(st.FavoriteVideos))
			r.Get("/ids", idsHandler(st.FavoriteIDs))
			r.Post("/", addHandler(st.AddFavorite))
			r.Delete("/{videoID}", removeHandler(st.RemoveFavorite))
		})

		r.Route("/api/user/watch-later", func(r chi.Router) {
			r.Get("/", listHandler(st.WatchLaterVideos))
			r.Get("/ids", idsHandler(st.WatchLaterIDs))
			r.Post("/", addHandler(st.AddWatchLater))
			r.Delete("/{videoID}", removeHandler(st.RemoveWatchLater))
		})
	})

	// Admin: manual sync.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin"))

		r.Post("/api/admin/sync", func(w http.ResponseWriter, r *http.Request) {
			res := scheduler.TriggerNow(r.Context())
			if res == nil {
				writeJSON(w, 409, map[string]string{"error": "sync already running"})
				return
			}
			writeJSON(w, 200, res)
		})

		r.Get("/api/admin/sync/status", func(w http.ResponseWriter, r *http.Request) {
			res := scheduler.LastResult()
			if res == nil {
				writeJSON(w, 200, map[string]string{"status": "never run"})
				return
			}
			writeJSON(w, 200, res)
		})
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// issueSession generates a JWT for the user, sets the session cookie and
// writes the user payload.
func issueSession(w http.ResponseWriter, r *http.Request, secret []byte, user *store.User) {
	claims := &auth.Claims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	}
	token, err := auth.GenerateToken(secret, claims, 30*24*time.Hour)
	if err != nil {
		writeError(w, 500, err)
		return
	}
	secure := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"
	auth.SetTokenCookie(w, token, secure)
	writeJSON(w, 200, map[string]string{
		"id": user.ID, "name": user.Name, "email": user.Email, "role": user.Role, "token": token,
	})
}

// --- List route factories ---
//
// Favorites and watch-later expose identical route sets over different
// store methods, so the handlers are built from the method values.

func listHandler(list func(context.Context, string) ([]*store.Video, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.GetClaims(r.Context())
		videos, err := list(r.Context(), c.UserID)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, videos)
	}
}

func idsHandler(ids func(context.Context, string) ([]string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.GetClaims(r.Context())
		list, err := ids(r.Context(), c.UserID)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, list)
	}
}

func addHandler(add func(context.Context, string, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, 400, err)
			return
		}
		if req.VideoID == "" {
			writeError(w, 400, fmt.Errorf("videoId required"))
			return
		}
		c := auth.GetClaims(r.Context())
		if err := add(r.Context(), c.UserID, req.VideoID); err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 201, map[string]string{"status": "added"})
	}
}

func removeHandler(remove func(context.Context, string, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.GetClaims(r.Context())
		videoID := chi.URLParam(r, "videoID")
		if err := remove(r.Context(), c.UserID, videoID); err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]string{"status": "removed"})
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// queryDays reads the "days" query parameter, falling back to def for
// absent, malformed or non-positive values.
func queryDays(r *http.Request, def int) int {
	d := queryInt(r, "days", def)
	if d < 1 {
		return def
	}
	return d
}

// parseSyncHour validates an hour-of-day override, keeping the fallback
// for anything outside 1-23 (hour 0 is reserved, see ingest.Config).
func parseSyncHour(s string, fallback int) int {
	hour, err := strconv.Atoi(s)
	if err != nil || hour < 1 || hour > 23 {
		slog.Warn("ignoring invalid SYNC_HOUR", "value", s)
		return fallback
	}
	return hour
}
