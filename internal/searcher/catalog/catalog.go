// Package catalog keeps the per-document metadata the searcher needs at
// query time: title, URL, and the static ranking score. It is populated
// by the index reload and kept current by the ingest consumer.
package catalog

import (
	"sync"

	"github.com/searchlite/searchlite/internal/indexer/index"
)

// Meta is the queryable metadata for one document.
type Meta struct {
	URL   string  `json:"url"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Catalog is a thread-safe DocID to Meta registry.
type Catalog struct {
	mu   sync.RWMutex
	docs map[index.DocID]Meta
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{
		docs: make(map[index.DocID]Meta),
	}
}

// Put registers or replaces the metadata for a document.
func (c *Catalog) Put(id index.DocID, meta Meta) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[id] = meta
}

// Get returns the metadata for a document and whether it is known.
func (c *Catalog) Get(id index.DocID) (Meta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.docs[id]
	return meta, ok
}

// Score returns the document's ranking score, or zero when unknown.
func (c *Catalog) Score(id index.DocID) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs[id].Score
}

// Len returns the number of registered documents.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}
