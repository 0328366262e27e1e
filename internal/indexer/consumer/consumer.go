// Package consumer reads ingest events from Kafka and applies them to
// the in-memory index, the document catalog, and the persisted document
// lifecycle.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/searchlite/searchlite/internal/indexer/docstore"
	"github.com/searchlite/searchlite/internal/indexer/index"
	"github.com/searchlite/searchlite/internal/ingestion"
	"github.com/searchlite/searchlite/internal/searcher/catalog"
	apperrors "github.com/searchlite/searchlite/pkg/errors"
	"github.com/searchlite/searchlite/pkg/kafka"
	"github.com/searchlite/searchlite/pkg/metrics"
)

// ResultInvalidator clears cached search results after the index
// changes. Satisfied by the searcher's Redis query cache.
type ResultInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Pipeline holds the targets an ingest event is applied to. Store,
// Results, Events, and Metrics are optional; nil disables that step.
type Pipeline struct {
	Index   *index.Index
	Catalog *catalog.Catalog
	Store   *docstore.Store
	Results ResultInvalidator
	Events  *kafka.Producer
	Metrics *metrics.Metrics
}

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that applies each ingest
// event through the pipeline. Malformed documents are marked FAILED and
// dropped; documents whose content cannot be resolved stay PENDING for
// the next reload. Either way the message is consumed, so one bad
// document never stalls the partition.
func HandleMessage(p Pipeline) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
		if err != nil {
			logger.Error("failed to decode ingest event",
				"error", err,
				"key", string(key),
			)
			return nil
		}

		logger.Debug("processing ingest event", "doc_id", event.DocumentID)

		doc := index.Document{
			ID:      index.DocID(event.DocumentID),
			URL:     event.URL,
			Title:   event.Title,
			Content: event.Body,
		}
		if doc.Content == "" && p.Store != nil {
			content, err := p.Store.Resolve(ctx, doc)
			if err != nil {
				if errors.Is(err, apperrors.ErrContentUnavailable) {
					logger.Warn("content unavailable, leaving document pending",
						"doc_id", event.DocumentID,
						"error", err,
					)
					countOutcome(p.Metrics, "skipped")
					return nil
				}
				return fmt.Errorf("resolving content for document %d: %w", event.DocumentID, err)
			}
			doc.Content = content
		}

		if err := p.Index.Add(doc); err != nil {
			if errors.Is(err, apperrors.ErrInvalidArgument) {
				logger.Error("dropping malformed document",
					"doc_id", event.DocumentID,
					"error", err,
				)
				updateStatus(ctx, p.Store, doc.ID, ingestion.StatusFailed, logger)
				countOutcome(p.Metrics, "failed")
				return nil
			}
			updateStatus(ctx, p.Store, doc.ID, ingestion.StatusFailed, logger)
			countOutcome(p.Metrics, "failed")
			return fmt.Errorf("indexing document %d: %w", event.DocumentID, err)
		}

		p.Catalog.Put(doc.ID, catalog.Meta{
			URL:   event.URL,
			Title: event.Title,
			Score: event.Score,
		})
		updateStatus(ctx, p.Store, doc.ID, ingestion.StatusIndexed, logger)

		if p.Results != nil {
			if err := p.Results.Invalidate(ctx); err != nil {
				logger.Error("result cache invalidation failed",
					"doc_id", event.DocumentID,
					"error", err,
				)
			}
		}
		if p.Events != nil {
			publishIndexed(ctx, p.Events, doc.ID, logger)
		}
		if p.Metrics != nil {
			p.Metrics.DocsIndexedTotal.WithLabelValues("indexed").Inc()
			p.Metrics.IndexDocCount.Set(float64(p.Index.DocCount()))
			p.Metrics.IndexTermCount.Set(float64(p.Index.TermCount()))
		}

		logger.Info("document indexed",
			"doc_id", event.DocumentID,
			"terms_total", p.Index.TermCount(),
		)
		return nil
	}
}

// updateStatus records the lifecycle transition in PostgreSQL. A nil
// store skips the update.
func updateStatus(ctx context.Context, store *docstore.Store, id index.DocID, status string, logger *slog.Logger) {
	if store == nil {
		return
	}
	if err := store.UpdateStatus(ctx, id, status); err != nil {
		logger.Error("failed to update document status",
			"doc_id", id,
			"status", status,
			"error", err,
		)
	}
}

// publishIndexed emits an IndexedEvent for downstream observers.
func publishIndexed(ctx context.Context, producer *kafka.Producer, id index.DocID, logger *slog.Logger) {
	event := kafka.Event{
		Key: strconv.FormatUint(uint64(id), 10),
		Value: ingestion.IndexedEvent{
			DocumentID: uint32(id),
			Status:     ingestion.StatusIndexed,
			IndexedAt:  time.Now().UTC(),
		},
	}
	if err := producer.Publish(ctx, event); err != nil {
		logger.Error("failed to publish indexed event", "doc_id", id, "error", err)
	}
}

func countOutcome(m *metrics.Metrics, outcome string) {
	if m == nil {
		return
	}
	m.DocsIndexedTotal.WithLabelValues(outcome).Inc()
}
