// Command searchd starts the search service.
//
// On startup it rebuilds the in-memory inverted index from PostgreSQL,
// then consumes ingest events from Kafka to keep the index current.
// Queries are served via GET /api/v1/search with Redis-backed result
// caching.
//
// Usage:
//
//	go run ./cmd/searchd [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/searchlite/searchlite/internal/indexer/consumer"
	"github.com/searchlite/searchlite/internal/indexer/docstore"
	"github.com/searchlite/searchlite/internal/indexer/index"
	"github.com/searchlite/searchlite/internal/indexer/loader"
	"github.com/searchlite/searchlite/internal/searcher/cache"
	"github.com/searchlite/searchlite/internal/searcher/catalog"
	"github.com/searchlite/searchlite/internal/searcher/executor"
	"github.com/searchlite/searchlite/internal/searcher/handler"
	"github.com/searchlite/searchlite/pkg/config"
	"github.com/searchlite/searchlite/pkg/health"
	"github.com/searchlite/searchlite/pkg/kafka"
	"github.com/searchlite/searchlite/pkg/logger"
	"github.com/searchlite/searchlite/pkg/metrics"
	"github.com/searchlite/searchlite/pkg/middleware"
	"github.com/searchlite/searchlite/pkg/postgres"
	pkgredis "github.com/searchlite/searchlite/pkg/redis"
	"github.com/searchlite/searchlite/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ix := index.New(cfg.Indexer.CacheSize)
	cat := catalog.New()

	var store *docstore.Store
	var pgClient *postgres.Client
	pgClient, err = postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, starting with empty index", "error", err)
		pgClient = nil
	} else {
		defer pgClient.Close()
		store = docstore.New(pgClient)
	}

	if store != nil {
		reload := loader.New(store, applyRecord(ix, cat, store), cfg.Indexer.ReloadWorkers, cfg.Indexer.ReloadBatchSize)
		stats, err := reload.Reload(ctx)
		if err != nil {
			slog.Error("index reload failed", "error", err)
			os.Exit(1)
		}
		slog.Info("index rebuilt",
			"documents", stats.Loaded,
			"skipped", stats.Skipped,
			"elapsed", stats.Elapsed.String(),
		)
		if m != nil {
			m.ReloadDuration.Observe(stats.Elapsed.Seconds())
			m.ReloadDocsTotal.WithLabelValues("loaded").Add(float64(stats.Loaded))
			m.ReloadDocsTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))
		}
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, search caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		breaker := resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
			OnStateChange: breakerGauge(m),
		})
		queryCache = cache.New(redisClient, cfg.Redis, breaker, m)
		slog.Info("search cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	completions := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer completions.Close()

	pipeline := consumer.Pipeline{
		Index:   ix,
		Catalog: cat,
		Store:   store,
		Events:  completions,
		Metrics: m,
	}
	if queryCache != nil {
		pipeline.Results = queryCache
	}
	ingestConsumer := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(pipeline)))
	go func() {
		if err := ingestConsumer.Start(ctx); err != nil {
			slog.Error("ingest consumer error", "error", err)
		}
	}()

	if m != nil {
		go syncIndexGauges(ctx, ix, m)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", ix.DocCount(), ix.TermCount()),
		}
	})
	// Postgres and Redis are optional; an unconfigured backend must not
	// keep the service from reporting ready.
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	exec := executor.New(ix, cat)
	h := handler.New(exec, ix, handler.Options{
		Cache:        queryCache,
		Store:        store,
		Metrics:      m,
		TraceQueries: cfg.Tracing.Enabled,
		DefaultLimit: cfg.Search.DefaultLimit,
		MaxResults:   cfg.Search.MaxResults,
	})

	mux := http.NewServeMux()
	handleMethod(mux, http.MethodGet, "/api/v1/search", h.Search)
	handleMethod(mux, http.MethodGet, "/api/v1/index/stats", h.IndexStats)
	handleMethod(mux, http.MethodGet, "/api/v1/cache/stats", h.CacheStats)
	handleMethod(mux, http.MethodPost, "/api/v1/cache/invalidate", h.CacheInvalidate)
	handleMethod(mux, http.MethodGet, "/health/live", checker.LiveHandler())
	handleMethod(mux, http.MethodGet, "/health/ready", checker.ReadyHandler())

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	defer rateLimiter.Close()
	var chain http.Handler = mux
	chain = middleware.Timeout(time.Duration(cfg.Search.QueryTimeout))(chain)
	chain = rateLimiter.Middleware(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout))
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}

// applyRecord returns the loader callback that indexes one stored
// document and registers its metadata.
func applyRecord(ix *index.Index, cat *catalog.Catalog, store *docstore.Store) loader.ApplyFunc {
	return func(ctx context.Context, rec loader.Record) error {
		doc := rec.Doc
		if doc.Content == "" {
			content, err := store.Resolve(ctx, doc)
			if err != nil {
				return err
			}
			doc.Content = content
		}
		if err := ix.Add(doc); err != nil {
			return err
		}
		cat.Put(doc.ID, catalog.Meta{
			URL:   doc.URL,
			Title: doc.Title,
			Score: rec.Score,
		})
		return nil
	}
}

// syncIndexGauges mirrors index counters into Prometheus gauges.
func syncIndexGauges(ctx context.Context, ix *index.Index, m *metrics.Metrics) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := ix.CacheStats()
			m.LookupCacheHits.Set(float64(stats.Hits))
			m.LookupCacheMisses.Set(float64(stats.Misses))
			m.IndexDocCount.Set(float64(ix.DocCount()))
			m.IndexTermCount.Set(float64(ix.TermCount()))
		}
	}
}

// breakerGauge exports circuit breaker state transitions to Prometheus.
func breakerGauge(m *metrics.Metrics) func(string, resilience.State) {
	if m == nil {
		return nil
	}
	return func(name string, state resilience.State) {
		m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	}
}

// handleMethod registers h for path and rejects other methods with 405,
// matching the method-pattern mux behavior of newer net/http releases
// (HEAD is accepted wherever GET is).
func handleMethod(mux *http.ServeMux, method, path string, h http.HandlerFunc) {
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}
