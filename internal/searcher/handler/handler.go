package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/searchlite/searchlite/internal/indexer/docstore"
	"github.com/searchlite/searchlite/internal/indexer/index"
	"github.com/searchlite/searchlite/internal/searcher/cache"
	"github.com/searchlite/searchlite/internal/searcher/executor"
	"github.com/searchlite/searchlite/internal/searcher/parser"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/pkg/middleware"
	"github.com/searchlite/searchlite/pkg/tracing"
)

type SearchExecutor interface {
	Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, error)
}

// Options carries the optional collaborators for a Handler.
type Options struct {
	Cache        *cache.QueryCache
	Store        *docstore.Store
	Metrics      *metrics.Metrics
	TraceQueries bool
	DefaultLimit int
	MaxResults   int
}

type Handler struct {
	executor     SearchExecutor
	index        *index.Index
	cache        *cache.QueryCache
	store        *docstore.Store
	metrics      *metrics.Metrics
	traceQueries bool
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

func New(exec SearchExecutor, ix *index.Index, opts Options) *Handler {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = 1000
	}
	return &Handler{
		executor:     exec,
		index:        ix,
		cache:        opts.Cache,
		store:        opts.Store,
		metrics:      opts.Metrics,
		traceQueries: opts.TraceQueries,
		defaultLimit: opts.DefaultLimit,
		maxResults:   opts.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	ctx, span := tracing.StartSpan(ctx, "search", middleware.GetRequestID(ctx))
	span.SetAttr("query", query)
	defer func() {
		span.End()
		if h.traceQueries {
			span.Log()
		}
	}()

	plan := parser.Parse(query)
	if len(plan.Terms) == 0 {
		h.countQuery("zero_result")
		h.writeJSON(w, http.StatusOK, &executor.SearchResult{
			Query:   query,
			Results: []executor.ScoredDoc{},
		})
		return
	}

	var result *executor.SearchResult
	var err error
	cacheHit := false

	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, query, limit, func() (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, plan, limit)
		})
	} else {
		result, err = h.executor.Execute(ctx, plan, limit)
	}

	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("search execution failed", "query", query, "error", err)
		h.countQuery("error")
		h.writeError(w, statusCode, "search failed")
		return
	}

	elapsed := time.Since(start)
	h.observeSearch(result, cacheHit, elapsed)

	log.Info("search completed",
		"query", query,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", elapsed.Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// IndexStats reports the size of the in-memory index, lookup cache
// effectiveness, and document counts per lifecycle status.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"documents":    h.index.DocCount(),
		"terms":        h.index.TermCount(),
		"lookup_cache": h.index.CacheStats(),
	}
	if h.store != nil {
		counts, err := h.store.CountByStatus(r.Context())
		if err != nil {
			h.logger.Error("fetching store counts failed", "error", err)
		} else {
			payload["store"] = counts
		}
	}
	h.writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate drops both cache tiers: the Redis result cache and the
// in-memory keyword lookup cache.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	h.index.PurgeCache()
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated", "result_cache": "disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) countQuery(resultType string) {
	if h.metrics != nil {
		h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	}
}

func (h *Handler) observeSearch(result *executor.SearchResult, cacheHit bool, elapsed time.Duration) {
	if h.metrics == nil {
		return
	}
	cacheStatus := "miss"
	resultType := "miss"
	if cacheHit {
		cacheStatus = "hit"
		resultType = "hit"
	}
	if result.TotalHits == 0 {
		resultType = "zero_result"
	}
	h.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	h.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	h.metrics.SearchResultsCount.Observe(float64(len(result.Results)))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
