package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/searchlite/searchlite/internal/indexer/index"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
)

// fakeStore serves records from memory with keyset paging, matching the
// Store contract: ascending IDs, records strictly after afterID.
type fakeStore struct {
	records  []Record
	fetchErr error
}

func (s *fakeStore) FetchDocumentBatch(_ context.Context, afterID index.DocID, limit int) ([]Record, error) {
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	out := make([]Record, 0, limit)
	for _, r := range s.records {
		if r.Doc.ID > afterID {
			out = append(out, r)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func makeRecords(n int) []Record {
	records := make([]Record, 0, n)
	for i := 1; i <= n; i++ {
		records = append(records, Record{
			Doc: index.Document{
				ID:      index.DocID(i),
				URL:     fmt.Sprintf("https://example.com/%d", i),
				Title:   fmt.Sprintf("page %d", i),
				Content: "indexable text",
			},
			Score: float64(i),
		})
	}
	return records
}

// applyRecorder collects applied document IDs safely across workers.
type applyRecorder struct {
	mu   sync.Mutex
	seen map[index.DocID]int
}

func newApplyRecorder() *applyRecorder {
	return &applyRecorder{seen: make(map[index.DocID]int)}
}

func (a *applyRecorder) apply(_ context.Context, rec Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seen[rec.Doc.ID]++
	return nil
}

// TestReloadAppliesEveryRecord verifies a multi-batch reload applies
// each stored record exactly once and reports accurate stats.
func TestReloadAppliesEveryRecord(t *testing.T) {
	const n = 57
	store := &fakeStore{records: makeRecords(n)}
	rec := newApplyRecorder()

	// Batch size far below n forces several fetch rounds.
	l := New(store, rec.apply, 4, 10)
	stats, err := l.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if stats.Loaded != n {
		t.Errorf("stats.Loaded = %d, want %d", stats.Loaded, n)
	}
	if stats.Skipped != 0 {
		t.Errorf("stats.Skipped = %d, want 0", stats.Skipped)
	}
	if len(rec.seen) != n {
		t.Fatalf("applied %d distinct records, want %d", len(rec.seen), n)
	}
	for id, count := range rec.seen {
		if count != 1 {
			t.Errorf("document %d applied %d times, want once", id, count)
		}
	}
}

// TestReloadSkipsUnavailableContent verifies that records whose content
// cannot be resolved are counted as skipped without failing the reload.
func TestReloadSkipsUnavailableContent(t *testing.T) {
	store := &fakeStore{records: makeRecords(20)}
	apply := func(_ context.Context, rec Record) error {
		if rec.Doc.ID%5 == 0 {
			return fmt.Errorf("resolving document %d: %w", rec.Doc.ID, apperrors.ErrContentUnavailable)
		}
		return nil
	}

	stats, err := New(store, apply, 3, 7).Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if stats.Loaded != 16 {
		t.Errorf("stats.Loaded = %d, want 16", stats.Loaded)
	}
	if stats.Skipped != 4 {
		t.Errorf("stats.Skipped = %d, want 4", stats.Skipped)
	}
}

// TestReloadAbortsOnApplyError verifies that a non-recoverable apply
// error fails the reload after the workers join.
func TestReloadAbortsOnApplyError(t *testing.T) {
	store := &fakeStore{records: makeRecords(30)}
	boom := errors.New("postgres gone")
	apply := func(_ context.Context, rec Record) error {
		if rec.Doc.ID == 13 {
			return boom
		}
		return nil
	}

	_, err := New(store, apply, 4, 8).Reload(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Reload error = %v, want wrapped %v", err, boom)
	}
}

// TestReloadFetchError verifies a store failure surfaces to the caller.
func TestReloadFetchError(t *testing.T) {
	store := &fakeStore{fetchErr: errors.New("connection refused")}
	apply := func(context.Context, Record) error { return nil }

	_, err := New(store, apply, 2, 10).Reload(context.Background())
	if err == nil {
		t.Fatal("Reload with failing store returned nil error")
	}
}

// TestReloadEmptyStore verifies an empty corpus reloads cleanly.
func TestReloadEmptyStore(t *testing.T) {
	store := &fakeStore{}
	rec := newApplyRecorder()

	stats, err := New(store, rec.apply, 4, 100).Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if stats.Loaded != 0 || stats.Skipped != 0 {
		t.Errorf("stats = %+v, want zeroes", stats)
	}
}

// TestReloadHonoursCancellation verifies a cancelled context stops the
// reload with an error.
func TestReloadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := &fakeStore{records: makeRecords(100)}
	applied := 0
	var mu sync.Mutex
	apply := func(context.Context, Record) error {
		mu.Lock()
		applied++
		mu.Unlock()
		return nil
	}

	_, err := New(store, apply, 4, 10).Reload(ctx)
	if err == nil {
		t.Fatal("Reload with cancelled context returned nil error")
	}
}
