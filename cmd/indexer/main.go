package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"song-suggest/internal/app"
	"song-suggest/internal/embeddings"
	"song-suggest/internal/queue"
	"song-suggest/internal/retrieval"
	"song-suggest/internal/retry"
)

const embedRetryBase = 500 * time.Millisecond

func main() {
	worker := flag.Bool("worker", false, "consume reindex tasks instead of building once")
	dir := flag.String("dir", "", "output directory (defaults to INDEX_DIR)")
	flag.Parse()

	deps, err := app.BuildIndexer()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	if c, ok := deps.Catalog.(io.Closer); ok {
		defer c.Close()
	}
	if *dir != "" {
		deps.Config.IndexDir = *dir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !*worker {
		if _, err := runIndex(ctx, deps, "manual"); err != nil {
			deps.Log.Error("indexing failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if deps.Queue == nil {
		deps.Log.Error("worker mode requires QUEUE_PROVIDER=nats")
		os.Exit(1)
	}
	deps.Log.Info("indexer worker starting")
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeReindex, reindexHandler(deps))
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		deps.Log.Error("indexer worker stopped", "err", err)
	}
}

func reindexHandler(deps app.IndexerDeps) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		var payload queue.ReindexPayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return err
		}
		_, err := runIndex(ctx, deps, payload.Reason)
		return err
	}
}

// runIndex builds the catalog index, saves it to INDEX_DIR and announces it to
// suggest replicas when a queue is configured.
func runIndex(ctx context.Context, deps app.IndexerDeps, reason string) (*retrieval.Index, error) {
	log := deps.Log.With("reason", reason, "dir", deps.Config.IndexDir)
	start := time.Now()

	records, err := deps.Catalog.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("catalog fetched", "records", len(records))

	var ix *retrieval.Index
	err = retry.Do(ctx, deps.Config.EmbeddingRetries, embedRetryBase, isTransient, func(ctx context.Context) error {
		var buildErr error
		ix, buildErr = deps.Retrieval.Build(ctx, records)
		if buildErr != nil {
			log.Warn("index build attempt failed", "err", buildErr)
		}
		return buildErr
	})
	if err != nil {
		return nil, err
	}
	if err := retrieval.Save(ix, deps.Config.IndexDir); err != nil {
		return nil, err
	}
	info := ix.Info()
	log.Info("index saved", "build_id", info.BuildID, "size", ix.Len(), "dimension", ix.Dimension(), "duration_ms", time.Since(start).Milliseconds())

	if deps.Queue == nil {
		return ix, nil
	}
	task, err := queue.NewTask(queue.TaskTypeReload, queue.ReloadPayload{
		Dir:     deps.Config.IndexDir,
		BuildID: info.BuildID,
		Size:    ix.Len(),
	})
	if err != nil {
		return nil, err
	}
	if err := queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond); err != nil {
		// The index is on disk; replicas pick it up on their next reload.
		log.Error("failed to announce reload", "build_id", info.BuildID, "err", err)
	}
	return ix, nil
}

// isTransient retries embedding backend failures only. Build errors from the
// catalog itself fail the same way every time.
func isTransient(err error) bool {
	return errors.Is(err, embeddings.ErrEmbedding) && !errors.Is(err, retrieval.ErrBuild)
}
