// Package publisher persists documents to PostgreSQL and publishes ingest
// events to Kafka for downstream indexing. Writes are idempotent when the
// caller supplies an idempotency key.
package publisher

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/searchlite/searchlite/internal/ingestion"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/kafka"
	"github.com/searchlite/searchlite/pkg/postgres"
	"github.com/searchlite/searchlite/pkg/resilience"
)

// batchWorkers bounds the number of concurrent inserts per batch request.
const batchWorkers = 4

// Publisher coordinates document persistence and Kafka event production.
type Publisher struct {
	db       *postgres.Client
	producer *kafka.Producer
	retry    resilience.RetryConfig
	logger   *slog.Logger
}

// New creates a Publisher with the given database and Kafka producer.
func New(db *postgres.Client, producer *kafka.Producer) *Publisher {
	return &Publisher{
		db:       db,
		producer: producer,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
		},
		logger: slog.Default().With("component", "publisher"),
	}
}

// Ingest persists the document in PostgreSQL and publishes an IngestEvent
// to Kafka. Duplicate idempotency keys are detected and the original
// response returned without re-insertion.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if req.IdempotencyKey != "" {
		existing, err := p.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			p.logger.Info("duplicate ingestion detected",
				"idempotency_key", req.IdempotencyKey,
				"existing_id", existing.DocumentID,
			)
			return existing, nil
		}
	}

	docID, err := p.insert(ctx, req)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, docID, req)
	return &ingestion.IngestResponse{
		DocumentID: docID,
		Status:     ingestion.StatusPending,
	}, nil
}

// IngestBatch persists every document in the batch through a bounded
// worker pool, waits for all inserts to finish, then publishes one Kafka
// batch for the accepted documents. Responses are returned in request
// order; the first insert failure aborts the batch.
func (p *Publisher) IngestBatch(ctx context.Context, req *ingestion.BatchIngestRequest) (*ingestion.BatchIngestResponse, error) {
	responses := make([]*ingestion.IngestResponse, len(req.Documents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchWorkers)
	for i := range req.Documents {
		i := i
		g.Go(func() error {
			resp, err := p.ingestStored(gctx, &req.Documents[i])
			if err != nil {
				return fmt.Errorf("ingesting batch document %d: %w", i, err)
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]kafka.Event, 0, len(responses))
	accepted := make([]ingestion.IngestResponse, 0, len(responses))
	for i, resp := range responses {
		accepted = append(accepted, *resp)
		if resp.Status != ingestion.StatusPending {
			// Idempotent replay of an already processed document.
			continue
		}
		events = append(events, kafka.Event{
			Key:   strconv.FormatUint(uint64(resp.DocumentID), 10),
			Value: newIngestEvent(resp.DocumentID, &req.Documents[i]),
		})
	}
	if len(events) > 0 {
		if err := p.producer.PublishBatch(ctx, events); err != nil {
			p.logger.Error("failed to publish batch, documents stuck in PENDING",
				"count", len(events),
				"error", err,
			)
		}
	}
	return &ingestion.BatchIngestResponse{Accepted: accepted}, nil
}

// ingestStored is the insert-only half of Ingest, used by the batch path
// where Kafka publication happens once per batch.
func (p *Publisher) ingestStored(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	if req.IdempotencyKey != "" {
		existing, err := p.findByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("checking idempotency key: %w", err)
		}
		if existing != nil {
			return existing, nil
		}
	}
	docID, err := p.insert(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ingestion.IngestResponse{
		DocumentID: docID,
		Status:     ingestion.StatusPending,
	}, nil
}

// insert writes the document row and returns its allocated ID.
func (p *Publisher) insert(ctx context.Context, req *ingestion.IngestRequest) (uint32, error) {
	contentHash := fmt.Sprintf("%x", sha256.Sum256([]byte(req.Body)))
	var docID uint32
	err := p.db.InTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO documents (url, title, content, score, content_hash, idempotency_key, status)
		VALUES ($1, $2, $3, $4, $5, $6, 'PENDING')
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id`,
			req.URL, req.Title, req.Body, req.Score, contentHash, nullableString(req.IdempotencyKey)).Scan(&docID)
		if err == sql.ErrNoRows {
			return apperrors.New(apperrors.ErrIdempotencyConflict, 409, "idempotency key already in use")
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("inserting document: %w", err)
	}
	return docID, nil
}

// publish sends the ingest event to Kafka with retries. A document whose
// event cannot be published stays PENDING and is picked up by the next
// index reload.
func (p *Publisher) publish(ctx context.Context, docID uint32, req *ingestion.IngestRequest) {
	event := kafka.Event{
		Key:   strconv.FormatUint(uint64(docID), 10),
		Value: newIngestEvent(docID, req),
	}
	err := resilience.Retry(ctx, "kafka-publish", p.retry, func() error {
		return p.producer.Publish(ctx, event)
	})
	if err != nil {
		p.logger.Error("failed to publish to kafka, document stuck in PENDING",
			"doc_id", docID,
			"error", err,
		)
	}
}

// findByIdempotencyKey checks if a document with the given idempotency key
// already exists and returns its status.
func (p *Publisher) findByIdempotencyKey(ctx context.Context, key string) (*ingestion.IngestResponse, error) {
	var resp ingestion.IngestResponse
	err := p.db.DB.QueryRowContext(ctx,
		`SELECT id, status FROM documents WHERE idempotency_key=$1`, key).Scan(&resp.DocumentID, &resp.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying by idempotency key: %w", err)
	}
	return &resp, nil
}

func newIngestEvent(docID uint32, req *ingestion.IngestRequest) ingestion.IngestEvent {
	return ingestion.IngestEvent{
		DocumentID: docID,
		URL:        req.URL,
		Title:      req.Title,
		Body:       req.Body,
		Score:      req.Score,
		IngestedAt: time.Now().UTC(),
	}
}

// nullableString converts a Go string to a sql.NullString, treating the
// empty string as NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
