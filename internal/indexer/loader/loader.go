// Package loader rebuilds the in-memory index from the document store.
// It pages through stored documents and applies them through a bounded
// worker pool, waiting for every worker before reporting completion.
// Documents whose content cannot be resolved are skipped and counted;
// any other failure aborts the reload.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/searchlite/searchlite/internal/indexer/index"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
)

// Record is one stored document together with its ranking score.
type Record struct {
	Doc   index.Document
	Score float64
}

// Store pages through persisted documents in ascending ID order.
// FetchDocumentBatch returns up to limit records with IDs greater than
// afterID; an empty slice signals the end.
type Store interface {
	FetchDocumentBatch(ctx context.Context, afterID index.DocID, limit int) ([]Record, error)
}

// ApplyFunc consumes one record, typically indexing it and registering
// its metadata. Returning ErrContentUnavailable (wrapped or not) marks
// the record skipped without failing the reload.
type ApplyFunc func(ctx context.Context, rec Record) error

// Stats summarises a completed reload.
type Stats struct {
	Loaded  int64
	Skipped int64
	Elapsed time.Duration
}

// Loader drives concurrent reloads of the document corpus.
type Loader struct {
	store     Store
	apply     ApplyFunc
	workers   int
	batchSize int
	logger    *slog.Logger
}

// New creates a Loader with the given worker pool size and fetch batch
// size. Non-positive values fall back to safe defaults.
func New(store Store, apply ApplyFunc, workers, batchSize int) *Loader {
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Loader{
		store:     store,
		apply:     apply,
		workers:   workers,
		batchSize: batchSize,
		logger:    slog.Default().With("component", "index-loader"),
	}
}

// Reload streams every stored document through the worker pool and
// blocks until all workers finish. The first non-recoverable error
// cancels the remaining work and is returned after the join.
func (l *Loader) Reload(ctx context.Context) (Stats, error) {
	start := time.Now()
	var loaded, skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	afterID := index.DocID(0)
	for gctx.Err() == nil {
		batch, err := l.store.FetchDocumentBatch(gctx, afterID, l.batchSize)
		if err != nil {
			gerr := g.Wait()
			if gerr != nil {
				return Stats{}, gerr
			}
			return Stats{}, fmt.Errorf("fetching document batch after %d: %w", afterID, err)
		}
		if len(batch) == 0 {
			break
		}
		afterID = batch[len(batch)-1].Doc.ID

		for _, rec := range batch {
			rec := rec
			g.Go(func() error {
				if err := l.apply(gctx, rec); err != nil {
					if errors.Is(err, apperrors.ErrContentUnavailable) {
						skipped.Add(1)
						l.logger.Warn("skipping document with unavailable content",
							"doc_id", rec.Doc.ID,
							"error", err,
						)
						return nil
					}
					return fmt.Errorf("applying document %d: %w", rec.Doc.ID, err)
				}
				loaded.Add(1)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return Stats{Loaded: loaded.Load(), Skipped: skipped.Load(), Elapsed: time.Since(start)}, err
	}
	if err := ctx.Err(); err != nil {
		return Stats{Loaded: loaded.Load(), Skipped: skipped.Load(), Elapsed: time.Since(start)},
			fmt.Errorf("reload interrupted: %w", err)
	}

	stats := Stats{
		Loaded:  loaded.Load(),
		Skipped: skipped.Load(),
		Elapsed: time.Since(start),
	}
	l.logger.Info("reload complete",
		"loaded", stats.Loaded,
		"skipped", stats.Skipped,
		"elapsed", stats.Elapsed.String(),
	)
	return stats, nil
}
