// Package index implements the in-memory inverted index: a map from
// normalised terms to roaring bitmaps of document IDs, fronted by an LRU
// lookup cache. All mutation and lookup paths share one RWMutex so cache
// invalidation stays coherent with the postings they shadow.
package index

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/RoaringBitmap/roaring/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/searchlite/searchlite/internal/indexer/tokenizer"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
)

// DefaultCacheSize is the lookup cache capacity used when the caller
// passes a non-positive size.
const DefaultCacheSize = 4096

// Index is a thread-safe inverted index. Postings are roaring bitmaps
// keyed by term; lookups are served from an LRU cache of frozen bitmap
// snapshots. Adding a document removes exactly the cache entries for the
// terms it touches, so unrelated cached lookups stay warm.
type Index struct {
	mu       sync.RWMutex
	postings map[string]*roaring.Bitmap
	docs     *roaring.Bitmap
	cache    *lru.Cache[string, *roaring.Bitmap]

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports lookup cache effectiveness.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// New creates an empty Index with the given lookup cache capacity.
func New(cacheSize int) *Index {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, *roaring.Bitmap](cacheSize)
	return &Index{
		postings: make(map[string]*roaring.Bitmap),
		docs:     roaring.New(),
		cache:    cache,
	}
}

// Add tokenises the document's content and records its ID under every
// resulting term. Title and URL are metadata only and never contribute
// postings. Tokenisation runs outside the lock; the commit and the
// matching cache invalidations happen under one write lock so no lookup
// can observe a half-applied document. Re-adding a document is
// idempotent.
func (ix *Index) Add(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	tokens := tokenizer.Tokenize(doc.Content)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	for _, term := range tokens {
		bm, exists := ix.postings[term]
		if !exists {
			bm = roaring.New()
			ix.postings[term] = bm
		}
		bm.Add(uint32(doc.ID))
		ix.cache.Remove(term)
	}
	ix.docs.Add(uint32(doc.ID))
	return nil
}

// Lookup returns the IDs of all documents containing the keyword, in
// ascending order. The keyword is lower-cased before matching so lookups
// agree with how Tokenize indexed the text. An unknown or empty keyword
// yields an empty result; only malformed input is an error. The returned
// slice is the caller's to keep.
func (ix *Index) Lookup(keyword string) ([]DocID, error) {
	if !utf8.ValidString(keyword) {
		return nil, fmt.Errorf("%w: keyword contains invalid UTF-8", apperrors.ErrInvalidArgument)
	}
	term := tokenizer.Normalize(keyword)
	if term == "" {
		return nil, nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if bm, ok := ix.cache.Get(term); ok {
		ix.hits.Add(1)
		return toDocIDs(bm), nil
	}
	ix.misses.Add(1)

	// Freeze a snapshot for the cache. Absent terms cache an empty
	// bitmap so repeated lookups for them hit too. Writers invalidate
	// the entry under the write lock before the postings can change
	// again, so cached snapshots never go stale.
	snapshot := roaring.New()
	if bm, exists := ix.postings[term]; exists {
		snapshot = bm.Clone()
	}
	ix.cache.Add(term, snapshot)
	return toDocIDs(snapshot), nil
}

// Contains reports whether a document with the given ID has been added.
func (ix *Index) Contains(id DocID) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docs.Contains(uint32(id))
}

// DocCount returns the number of distinct documents indexed.
func (ix *Index) DocCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return int(ix.docs.GetCardinality())
}

// TermCount returns the number of distinct terms in the index.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.postings)
}

// CacheStats returns a point-in-time view of lookup cache counters.
func (ix *Index) CacheStats() CacheStats {
	ix.mu.RLock()
	entries := ix.cache.Len()
	ix.mu.RUnlock()
	return CacheStats{
		Hits:    ix.hits.Load(),
		Misses:  ix.misses.Load(),
		Entries: entries,
	}
}

// PurgeCache drops every cached lookup. Postings are untouched.
func (ix *Index) PurgeCache() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.cache.Purge()
}

// Reset drops all postings, documents, and cached lookups.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.postings = make(map[string]*roaring.Bitmap)
	ix.docs = roaring.New()
	ix.cache.Purge()
	ix.hits.Store(0)
	ix.misses.Store(0)
}

func toDocIDs(bm *roaring.Bitmap) []DocID {
	ids := make([]DocID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, DocID(it.Next()))
	}
	return ids
}
