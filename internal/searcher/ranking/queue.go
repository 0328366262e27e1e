// Package ranking provides the max-priority queue used to order search
// matches. Scores are supplied by the caller; the queue only orders
// them, highest score first, breaking ties by ascending document ID so
// equal-scored results drain in a stable order.
package ranking

import (
	"container/heap"

	"github.com/searchlite/searchlite/internal/indexer/index"
)

// Entry is one scored document awaiting extraction.
type Entry struct {
	DocID index.DocID `json:"doc_id"`
	Score float64     `json:"score"`
}

// Queue is a max-priority queue of Entries. It is not safe for
// concurrent use; each query builds and drains its own queue.
type Queue struct {
	entries entryHeap
}

// New returns an empty Queue sized for n entries.
func New(n int) *Queue {
	q := &Queue{}
	if n > 0 {
		q.entries = make(entryHeap, 0, n)
	}
	return q
}

// Insert adds an entry in O(log n).
func (q *Queue) Insert(e Entry) {
	heap.Push(&q.entries, e)
}

// ExtractMax removes and returns the highest-priority entry. The second
// return value is false when the queue is empty.
func (q *Queue) ExtractMax() (Entry, bool) {
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return heap.Pop(&q.entries).(Entry), true
}

// Peek returns the highest-priority entry without removing it.
func (q *Queue) Peek() (Entry, bool) {
	if len(q.entries) == 0 {
		return Entry{}, false
	}
	return q.entries[0], true
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	return len(q.entries)
}

// IsEmpty reports whether the queue holds no entries.
func (q *Queue) IsEmpty() bool {
	return len(q.entries) == 0
}

type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score > h[j].Score
	}
	return h[i].DocID < h[j].DocID
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
