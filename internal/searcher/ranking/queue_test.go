package ranking

import (
	"math/rand"
	"testing"

	"github.com/searchlite/searchlite/internal/indexer/index"
)

// TestExtractMaxOrder verifies entries drain highest score first.
func TestExtractMaxOrder(t *testing.T) {
	q := New(4)
	q.Insert(Entry{DocID: 1, Score: 0.5})
	q.Insert(Entry{DocID: 2, Score: 2.0})
	q.Insert(Entry{DocID: 3, Score: 1.25})
	q.Insert(Entry{DocID: 4, Score: 0.75})

	wantIDs := []index.DocID{2, 3, 4, 1}
	for i, want := range wantIDs {
		e, ok := q.ExtractMax()
		if !ok {
			t.Fatalf("ExtractMax #%d: queue unexpectedly empty", i)
		}
		if e.DocID != want {
			t.Errorf("ExtractMax #%d = doc %d, want %d", i, e.DocID, want)
		}
	}
	if _, ok := q.ExtractMax(); ok {
		t.Error("ExtractMax on drained queue reported an entry")
	}
}

// TestTieBreakByDocID verifies equal scores drain in ascending document
// ID order.
func TestTieBreakByDocID(t *testing.T) {
	q := New(0)
	for _, id := range []index.DocID{42, 7, 99, 13} {
		q.Insert(Entry{DocID: id, Score: 3.0})
	}

	want := []index.DocID{7, 13, 42, 99}
	for i, wantID := range want {
		e, ok := q.ExtractMax()
		if !ok {
			t.Fatalf("ExtractMax #%d: queue unexpectedly empty", i)
		}
		if e.DocID != wantID {
			t.Errorf("tie-break order[%d] = doc %d, want %d", i, e.DocID, wantID)
		}
	}
}

// TestExtractMaxEmpty verifies emptiness is reported explicitly rather
// than by a sentinel entry.
func TestExtractMaxEmpty(t *testing.T) {
	q := New(0)
	if e, ok := q.ExtractMax(); ok {
		t.Errorf("ExtractMax on empty queue = (%+v, true), want ok=false", e)
	}
	if !q.IsEmpty() {
		t.Error("IsEmpty on new queue = false, want true")
	}
	if q.Len() != 0 {
		t.Errorf("Len on new queue = %d, want 0", q.Len())
	}
}

func TestPeek(t *testing.T) {
	q := New(2)
	if _, ok := q.Peek(); ok {
		t.Error("Peek on empty queue reported an entry")
	}

	q.Insert(Entry{DocID: 5, Score: 1.0})
	q.Insert(Entry{DocID: 6, Score: 9.0})

	e, ok := q.Peek()
	if !ok || e.DocID != 6 {
		t.Errorf("Peek = (%+v, %v), want doc 6", e, ok)
	}
	if q.Len() != 2 {
		t.Errorf("Len after Peek = %d, want 2 (Peek must not remove)", q.Len())
	}
}

// TestInterleavedInsertExtract verifies the heap invariant survives
// mixed operations.
func TestInterleavedInsertExtract(t *testing.T) {
	q := New(0)
	q.Insert(Entry{DocID: 1, Score: 1})
	q.Insert(Entry{DocID: 2, Score: 5})

	if e, _ := q.ExtractMax(); e.DocID != 2 {
		t.Errorf("first extract = doc %d, want 2", e.DocID)
	}

	q.Insert(Entry{DocID: 3, Score: 10})
	q.Insert(Entry{DocID: 4, Score: 0.5})

	if e, _ := q.ExtractMax(); e.DocID != 3 {
		t.Errorf("second extract = doc %d, want 3", e.DocID)
	}
	if e, _ := q.ExtractMax(); e.DocID != 1 {
		t.Errorf("third extract = doc %d, want 1", e.DocID)
	}
	if e, _ := q.ExtractMax(); e.DocID != 4 {
		t.Errorf("fourth extract = doc %d, want 4", e.DocID)
	}
}

// TestDrainIsSorted inserts a shuffled batch and verifies the drain
// order is non-increasing by score with ascending IDs inside ties.
func TestDrainIsSorted(t *testing.T) {
	const n = 1000
	q := New(n)
	rng := rand.New(rand.NewSource(1))
	for i := 1; i <= n; i++ {
		// Coarse scores force plenty of ties.
		q.Insert(Entry{DocID: index.DocID(i), Score: float64(rng.Intn(10))})
	}

	prev, ok := q.ExtractMax()
	if !ok {
		t.Fatal("queue empty after inserts")
	}
	count := 1
	for {
		e, ok := q.ExtractMax()
		if !ok {
			break
		}
		count++
		if e.Score > prev.Score {
			t.Fatalf("score increased across extraction: %f after %f", e.Score, prev.Score)
		}
		if e.Score == prev.Score && e.DocID < prev.DocID {
			t.Fatalf("tie broken descending: doc %d after %d", e.DocID, prev.DocID)
		}
		prev = e
	}
	if count != n {
		t.Errorf("drained %d entries, want %d", count, n)
	}
}
