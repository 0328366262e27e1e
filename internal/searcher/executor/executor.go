package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/searchlite/searchlite/internal/indexer/index"
	"github.com/searchlite/searchlite/internal/searcher/catalog"
	"github.com/searchlite/searchlite/internal/searcher/parser"
	"github.com/searchlite/searchlite/internal/searcher/ranking"
	"github.com/searchlite/searchlite/pkg/tracing"
)

// ScoredDoc is one search hit with its catalog metadata.
type ScoredDoc struct {
	DocID index.DocID `json:"doc_id"`
	URL   string      `json:"url"`
	Title string      `json:"title"`
	Score float64     `json:"score"`
}

// SearchResult is the full response for one executed query.
type SearchResult struct {
	Query     string         `json:"query"`
	TotalHits int            `json:"total_hits"`
	Results   []ScoredDoc    `json:"results"`
	TermStats map[string]int `json:"term_stats"`
}

// Executor resolves query plans against the inverted index and orders
// the matches by their catalog scores.
type Executor struct {
	index   *index.Index
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func New(ix *index.Index, cat *catalog.Catalog) *Executor {
	return &Executor{
		index:   ix,
		catalog: cat,
		logger:  slog.Default().With("component", "query-executor"),
	}
}

// Execute looks up every plan term, combines the matches per the plan
// type, drops excluded documents, and returns the top matches by score.
// A non-positive limit returns all matches.
func (e *Executor) Execute(ctx context.Context, plan *parser.QueryPlan, limit int) (*SearchResult, error) {
	_, span := tracing.StartChildSpan(ctx, "execute-query")
	defer span.End()

	if len(plan.Terms) == 0 {
		return &SearchResult{
			Query:   plan.RawQuery,
			Results: []ScoredDoc{},
		}, nil
	}

	matchesPerTerm := make(map[string][]index.DocID)
	termStats := make(map[string]int)
	for _, term := range plan.Terms {
		ids, err := e.index.Lookup(term)
		if err != nil {
			return nil, fmt.Errorf("looking up term %q: %w", term, err)
		}
		if len(ids) > 0 {
			matchesPerTerm[term] = ids
			termStats[term] = len(ids)
		}
	}

	excludeDocIDs := make(map[index.DocID]struct{})
	for _, term := range plan.ExcludeTerms {
		ids, err := e.index.Lookup(term)
		if err != nil {
			e.logger.Error("looking up exclude term failed", "term", term, "error", err)
			continue
		}
		for _, id := range ids {
			excludeDocIDs[id] = struct{}{}
		}
	}

	var candidates map[index.DocID]struct{}
	switch plan.Type {
	case parser.QueryAND:
		// AND requires every term to match, so any missing term empties
		// the candidate set.
		if len(matchesPerTerm) < len(plan.Terms) {
			candidates = make(map[index.DocID]struct{})
		} else {
			candidates = intersectMatches(matchesPerTerm)
		}
	case parser.QueryOR:
		candidates = unionMatches(matchesPerTerm)
	}
	for id := range excludeDocIDs {
		delete(candidates, id)
	}

	queue := ranking.New(len(candidates))
	for id := range candidates {
		queue.Insert(ranking.Entry{DocID: id, Score: e.catalog.Score(id)})
	}
	if limit <= 0 {
		limit = queue.Len()
	}
	results := make([]ScoredDoc, 0, queue.Len())
	for len(results) < limit {
		entry, ok := queue.ExtractMax()
		if !ok {
			break
		}
		meta, _ := e.catalog.Get(entry.DocID)
		results = append(results, ScoredDoc{
			DocID: entry.DocID,
			URL:   meta.URL,
			Title: meta.Title,
			Score: entry.Score,
		})
	}

	span.SetAttr("terms", len(plan.Terms))
	span.SetAttr("candidates", len(candidates))
	span.SetAttr("results", len(results))

	e.logger.Info("query executed",
		"query", plan.RawQuery,
		"terms", plan.Terms,
		"candidates", len(candidates),
		"results", len(results),
	)
	return &SearchResult{
		Query:     plan.RawQuery,
		TotalHits: len(candidates),
		Results:   results,
		TermStats: termStats,
	}, nil
}

func intersectMatches(matchesPerTerm map[string][]index.DocID) map[index.DocID]struct{} {
	if len(matchesPerTerm) == 0 {
		return make(map[index.DocID]struct{})
	}
	var shortestTerm string
	shortestLen := int(^uint(0) >> 1)
	for term, ids := range matchesPerTerm {
		if len(ids) < shortestLen {
			shortestLen = len(ids)
			shortestTerm = term
		}
	}
	candidates := make(map[index.DocID]struct{}, shortestLen)
	for _, id := range matchesPerTerm[shortestTerm] {
		candidates[id] = struct{}{}
	}
	for term, ids := range matchesPerTerm {
		if term == shortestTerm {
			continue
		}
		docSet := make(map[index.DocID]struct{}, len(ids))
		for _, id := range ids {
			docSet[id] = struct{}{}
		}
		for id := range candidates {
			if _, exists := docSet[id]; !exists {
				delete(candidates, id)
			}
		}
	}
	return candidates
}

func unionMatches(matchesPerTerm map[string][]index.DocID) map[index.DocID]struct{} {
	result := make(map[index.DocID]struct{})
	for _, ids := range matchesPerTerm {
		for _, id := range ids {
			result[id] = struct{}{}
		}
	}
	return result
}
