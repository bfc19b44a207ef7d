package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"song-suggest/internal/app"
	"song-suggest/internal/httputil"
	"song-suggest/internal/queue"
	"song-suggest/internal/retrieval"
)

type suggestRequest struct {
	Text string `json:"text" validate:"required,min=1,max=500"`
}

type reloadRequest struct {
	Dir string `json:"dir"`
}

type indexStats struct {
	Size      int       `json:"size"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Model     string    `json:"model"`
	BuildID   string    `json:"build_id"`
	BuiltAt   time.Time `json:"built_at"`
}

func main() {
	deps, err := app.BuildSuggest()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer deps.Cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := deps.Suggest.Reload(ctx, deps.Config.IndexDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			deps.Log.Warn("no index on disk yet, serving 503 until one is loaded", "dir", deps.Config.IndexDir)
		} else {
			deps.Log.Error("initial index load failed", "dir", deps.Config.IndexDir, "err", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("suggest service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if deps.Queue != nil {
		g.Go(func() error {
			return deps.Queue.Worker(ctx, queue.TaskTypeReload, reloadWorker(deps))
		})
	}

	if err := g.Wait(); err != nil {
		deps.Log.Error("suggest service stopped", "err", err)
	}
}

func newRouter(deps app.SuggestDeps) http.Handler {
	r := httputil.NewRouter(deps.Log, deps.Config.MaxConcurrentRequests)

	r.Post("/api/suggest", suggestHandler(deps))
	r.Get("/api/index", statsHandler(deps))
	r.Post("/api/index/reload", reloadHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))
	r.Get("/readyz", httputil.ReadyHandler(deps.Log, func() bool {
		return deps.Retrieval.Current() != nil
	}))
	return r
}

func suggestHandler(deps app.SuggestDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		res, err := deps.Suggest.Suggest(r.Context(), req.Text)
		if err != nil {
			httputil.FailFor(deps.Log, w, "suggestion failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)
	}
}

func statsHandler(deps app.SuggestDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ix := deps.Retrieval.Current()
		if ix == nil {
			httputil.FailFor(deps.Log, w, "index not loaded", retrieval.ErrNotLoaded)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, statsFor(ix))
	}
}

func statsFor(ix *retrieval.Index) indexStats {
	info := ix.Info()
	return indexStats{
		Size:      ix.Len(),
		Dimension: ix.Dimension(),
		Metric:    ix.Metric().String(),
		Model:     info.Model,
		BuildID:   info.BuildID,
		BuiltAt:   info.BuiltAt,
	}
}

// reloadHandler reloads INDEX_DIR. A body may name the directory, but only
// INDEX_DIR itself is accepted.
func reloadHandler(deps app.SuggestDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reloadRequest
		if r.Body != nil && r.Body != http.NoBody {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
				return
			}
		}
		dir := deps.Config.IndexDir
		if req.Dir != "" && !sameDir(req.Dir, dir) {
			httputil.Fail(deps.Log.With("dir", req.Dir), w, "reload is limited to the configured index dir", nil, http.StatusBadRequest)
			return
		}
		if _, err := deps.Suggest.Reload(r.Context(), dir); err != nil {
			httputil.FailFor(deps.Log.With("dir", dir), w, "index reload failed", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, statsFor(deps.Retrieval.Current()))
	}
}

func sameDir(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// reloadWorker reloads INDEX_DIR when an indexer announces a build. The
// announced dir is informational: replicas may mount the index elsewhere.
func reloadWorker(deps app.SuggestDeps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var payload queue.ReloadPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return err
		}
		dir := deps.Config.IndexDir
		if payload.Dir != "" && !sameDir(payload.Dir, dir) {
			deps.Log.Debug("announced index dir differs from local one", "announced", payload.Dir, "dir", dir)
		}
		if cur := deps.Retrieval.Current(); cur != nil && payload.BuildID != "" && cur.Info().BuildID == payload.BuildID {
			deps.Log.Debug("index already current", "build_id", payload.BuildID)
			return nil
		}
		info, err := deps.Suggest.Reload(ctx, dir)
		if err != nil {
			return err
		}
		if payload.BuildID != "" && info.BuildID != payload.BuildID {
			deps.Log.Warn("reloaded a different build than announced", "announced", payload.BuildID, "loaded", info.BuildID)
		}
		return nil
	}
}
