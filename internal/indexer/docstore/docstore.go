// Package docstore reads and updates persisted documents in PostgreSQL
// on behalf of the indexing pipeline. It implements the loader's batch
// source and the index's ContentSource.
package docstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/searchlite/searchlite/internal/indexer/index"
	"github.com/searchlite/searchlite/internal/indexer/loader"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/postgres"
	"github.com/searchlite/searchlite/pkg/resilience"
)

// queryTimeout bounds each store round trip.
const queryTimeout = 10 * time.Second

// Store provides document access for the indexer.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Store backed by the given PostgreSQL client.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "docstore"),
	}
}

// FetchDocumentBatch returns up to limit indexable documents with IDs
// greater than afterID, in ascending ID order. Documents marked FAILED
// are excluded. A NULL content column yields a record with empty content
// that the ContentSource resolves (or rejects) later.
func (s *Store) FetchDocumentBatch(ctx context.Context, afterID index.DocID, limit int) ([]loader.Record, error) {
	var records []loader.Record
	err := resilience.WithTimeout(ctx, queryTimeout, "docstore-fetch", func(ctx context.Context) error {
		rows, err := s.db.DB.QueryContext(ctx,
			`SELECT id, url, title, content, score FROM documents
		WHERE id > $1 AND status != 'FAILED'
		ORDER BY id
		LIMIT $2`, uint32(afterID), limit)
		if err != nil {
			return fmt.Errorf("querying document batch: %w", err)
		}
		defer rows.Close()

		records = make([]loader.Record, 0, limit)
		for rows.Next() {
			var (
				id      uint32
				url     string
				title   string
				content sql.NullString
				score   float64
			)
			if err := rows.Scan(&id, &url, &title, &content, &score); err != nil {
				return fmt.Errorf("scanning document row: %w", err)
			}
			records = append(records, loader.Record{
				Doc: index.Document{
					ID:      index.DocID(id),
					URL:     url,
					Title:   title,
					Content: content.String,
				},
				Score: score,
			})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Resolve returns the indexable text for a document, fetching the content
// column when the document was loaded without it. A document whose
// content is absent resolves to ErrContentUnavailable.
func (s *Store) Resolve(ctx context.Context, doc index.Document) (string, error) {
	if doc.Content != "" {
		return doc.Content, nil
	}
	var content sql.NullString
	err := resilience.WithTimeout(ctx, queryTimeout, "docstore-resolve", func(ctx context.Context) error {
		return s.db.DB.QueryRowContext(ctx,
			`SELECT content FROM documents WHERE id = $1`, uint32(doc.ID)).Scan(&content)
	})
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: document %d not in store", apperrors.ErrContentUnavailable, doc.ID)
	}
	if err != nil {
		return "", fmt.Errorf("fetching content for document %d: %w", doc.ID, err)
	}
	if !content.Valid || content.String == "" {
		return "", fmt.Errorf("%w: document %d has no stored content", apperrors.ErrContentUnavailable, doc.ID)
	}
	return content.String, nil
}

// UpdateStatus records the document's lifecycle transition and stamps
// indexed_at.
func (s *Store) UpdateStatus(ctx context.Context, id index.DocID, status string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE documents SET status = $1, indexed_at = NOW() WHERE id = $2`,
		status, uint32(id),
	)
	if err != nil {
		return fmt.Errorf("updating document %d status to %s: %w", id, status, err)
	}
	return nil
}

// CountByStatus returns the number of stored documents per lifecycle
// status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM documents GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting documents by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
