// Command loadtest drives synthetic traffic against a running SearchLite
// deployment: it can seed the ingestion service with a synthetic corpus, then
// hammers the search endpoint with a rotating query set and reports
// throughput, latency percentiles, and status code distribution.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/searchlite/searchlite/internal/ingestion"
)

type Config struct {
	SearchURL   string
	IngestURL   string
	Concurrency int
	Duration    time.Duration
	SeedDocs    int
	Queries     []string
}

// sample is one completed request as seen by a worker.
type sample struct {
	latency time.Duration
	status  int
	failed  bool
}

// Stats accumulates samples from all workers behind a single mutex. Workers
// only append, so contention stays negligible next to network round-trips.
type Stats struct {
	mu       sync.Mutex
	total    int64
	success  int64
	errors   int64
	latency  []time.Duration
	byStatus map[int]int64
}

func NewStats() *Stats {
	return &Stats{
		latency:  make([]time.Duration, 0, 100000),
		byStatus: make(map[int]int64),
	}
}

func (s *Stats) record(r sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if r.failed {
		s.errors++
		return
	}
	if r.status >= 200 && r.status < 300 {
		s.success++
	} else {
		s.errors++
	}
	s.latency = append(s.latency, r.latency)
	s.byStatus[r.status]++
}

// snapshot returns copies of the accumulated data so reporting never races
// with late worker appends.
func (s *Stats) snapshot() (total, success, errors int64, latency []time.Duration, byStatus map[int]int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	latency = append([]time.Duration(nil), s.latency...)
	byStatus = make(map[int]int64, len(s.byStatus))
	for code, n := range s.byStatus {
		byStatus[code] = n
	}
	return s.total, s.success, s.errors, latency, byStatus
}

func main() {
	searchURL := flag.String("url", "http://localhost:8080", "base URL of the search service")
	ingestURL := flag.String("ingest-url", "http://localhost:8081", "base URL of the ingestion service")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	seedDocs := flag.Int("seed", 0, "number of synthetic documents to ingest before the run (0 skips seeding)")
	flag.Parse()

	cfg := Config{
		SearchURL:   *searchURL,
		IngestURL:   *ingestURL,
		Concurrency: *concurrency,
		Duration:    *duration,
		SeedDocs:    *seedDocs,
		Queries: []string{
			"keyword search",
			"inverted index",
			"ranking queue",
			"document ingestion",
			"cache invalidation",
			"seo optimization",
			"page score",
			"web crawler",
			"content pipeline",
			"batch indexing",
			"tokenizer",
			"search latency",
			"site audit",
			"query throughput",
			"index rebuild",
		},
	}

	fmt.Println("=== SearchLite Load Test ===")
	fmt.Printf("Search:      %s\n", cfg.SearchURL)
	fmt.Printf("Ingest:      %s\n", cfg.IngestURL)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Printf("Seed Docs:   %d\n", cfg.SeedDocs)
	fmt.Printf("Queries:     %d unique\n", len(cfg.Queries))
	fmt.Println()

	if cfg.SeedDocs > 0 {
		if err := seedCorpus(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "seeding failed: %v\n", err)
			os.Exit(1)
		}
	}

	stats := runLoadTest(cfg)
	printReport(stats, cfg.Duration)
}

// seedCorpus posts synthetic documents to the ingestion service in batches
// so the search run has a populated index to exercise. Bodies are built from
// the query vocabulary so every query matches at least some documents.
func seedCorpus(cfg Config) error {
	const batchSize = 100

	words := []string{
		"keyword", "search", "inverted", "index", "ranking", "queue",
		"document", "ingestion", "cache", "invalidation", "seo",
		"optimization", "page", "score", "web", "crawler", "content",
		"pipeline", "batch", "indexing", "tokenizer", "latency", "site",
		"audit", "query", "throughput", "rebuild",
	}

	client := &http.Client{Timeout: 30 * time.Second}
	fmt.Printf("Seeding %d documents", cfg.SeedDocs)

	seeded := 0
	for seeded < cfg.SeedDocs {
		n := batchSize
		if remaining := cfg.SeedDocs - seeded; remaining < n {
			n = remaining
		}

		batch := ingestion.BatchIngestRequest{
			Documents: make([]ingestion.IngestRequest, 0, n),
		}
		for i := 0; i < n; i++ {
			id := seeded + i
			body := fmt.Sprintf("%s %s %s %s %s %s",
				words[id%len(words)],
				words[(id+3)%len(words)],
				words[(id+7)%len(words)],
				words[(id+11)%len(words)],
				words[(id+13)%len(words)],
				words[(id+17)%len(words)],
			)
			batch.Documents = append(batch.Documents, ingestion.IngestRequest{
				URL:            fmt.Sprintf("https://loadtest.example.com/pages/%d", id),
				Title:          fmt.Sprintf("Load Test Page %d", id),
				Body:           body,
				Score:          float64(id%1000) / 10.0,
				IdempotencyKey: fmt.Sprintf("loadtest-%d", id),
			})
		}

		payload, err := json.Marshal(batch)
		if err != nil {
			return fmt.Errorf("encoding batch: %w", err)
		}

		resp, err := client.Post(
			cfg.IngestURL+"/api/v1/documents/batch",
			"application/json",
			bytes.NewReader(payload),
		)
		if err != nil {
			return fmt.Errorf("posting batch: %w", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		// 409s are fine on reruns, the corpus is already there.
		if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
			return fmt.Errorf("batch rejected with status %d", resp.StatusCode)
		}

		seeded += n
		fmt.Print(".")
	}

	fmt.Println(" done!")
	fmt.Println("Waiting 5s for the indexer to catch up...")
	time.Sleep(5 * time.Second)
	fmt.Println()
	return nil
}

func runLoadTest(cfg Config) *Stats {
	stats := NewStats()
	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.Concurrency * 2,
			MaxIdleConnsPerHost: cfg.Concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var wg sync.WaitGroup
	fmt.Print("Running")

	for w := 0; w < cfg.Concurrency; w++ {
		wg.Add(1)
		// Workers start at staggered offsets into the query list so the
		// full set is in play from the first second.
		go func(offset int) {
			defer wg.Done()
			for i := offset; ctx.Err() == nil; i++ {
				query := cfg.Queries[i%len(cfg.Queries)]
				target := fmt.Sprintf("%s/api/v1/search?q=%s&limit=10",
					cfg.SearchURL, url.QueryEscape(query))

				stats.record(fireSearch(ctx, client, target))
			}
		}(w)
	}

	progress := time.NewTicker(5 * time.Second)
	defer progress.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-progress.C:
				fmt.Print(".")
			}
		}
	}()

	wg.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func fireSearch(ctx context.Context, client *http.Client, target string) sample {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		panic(fmt.Sprintf("creating request: %v", err))
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return sample{latency: elapsed, failed: true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return sample{latency: elapsed, status: resp.StatusCode}
}

func printReport(stats *Stats, duration time.Duration) {
	total, success, errors, latencies, byStatus := stats.snapshot()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Requests:  %d\n", total)
	fmt.Printf("Successful:      %d\n", success)
	fmt.Printf("Errors:          %d\n", errors)
	if total > 0 {
		fmt.Printf("Error Rate:      %.2f%%\n", float64(errors)/float64(total)*100)
		fmt.Printf("Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}

	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

		var sum time.Duration
		for _, l := range latencies {
			sum += l
		}
		avg := sum / time.Duration(len(latencies))

		var sumSquared float64
		for _, l := range latencies {
			d := float64(l) - float64(avg)
			sumSquared += d * d
		}
		stddev := time.Duration(math.Sqrt(sumSquared / float64(len(latencies))))

		fmt.Println()
		fmt.Println("=== Latency ===")
		fmt.Printf("Min:    %s\n", latencies[0])
		fmt.Printf("Avg:    %s\n", avg)
		fmt.Printf("P50:    %s\n", percentile(latencies, 50))
		fmt.Printf("P90:    %s\n", percentile(latencies, 90))
		fmt.Printf("P95:    %s\n", percentile(latencies, 95))
		fmt.Printf("P99:    %s\n", percentile(latencies, 99))
		fmt.Printf("Max:    %s\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %s\n", stddev)
	}

	fmt.Println()
	fmt.Println("=== Status Codes ===")
	codes := make([]int, 0, len(byStatus))
	for code := range byStatus {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, byStatus[code])
	}

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No requests completed. Is the service running?")
		os.Exit(1)
	}
}

// percentile returns the value at the pth percentile of an ascending-sorted
// slice, using the nearest-rank method.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
