// Package ingestion defines the request/response types and Kafka event schemas
// used by the document ingestion pipeline.
package ingestion

import "time"

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
// Score is the document's static ranking weight; it defaults to zero.
type IngestRequest struct {
	URL            string  `json:"url"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	Score          float64 `json:"score"`
	IdempotencyKey string  `json:"idempotency_key"`
}

// BatchIngestRequest is the JSON body accepted by the batch endpoint.
type BatchIngestRequest struct {
	Documents []IngestRequest `json:"documents"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	DocumentID uint32 `json:"document_id"`
	Status     string `json:"status"`
}

// BatchIngestResponse reports the outcome for every document in a batch,
// in request order.
type BatchIngestResponse struct {
	Accepted []IngestResponse `json:"accepted"`
}

// IngestEvent is the Kafka message payload produced after a document is
// persisted and ready for indexing.
type IngestEvent struct {
	DocumentID uint32    `json:"document_id"`
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Score      float64   `json:"score"`
	IngestedAt time.Time `json:"ingested_at"`
}

// IndexedEvent is published after a document has been applied to the
// in-memory index, for downstream observers.
type IndexedEvent struct {
	DocumentID uint32    `json:"document_id"`
	Status     string    `json:"status"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Document lifecycle states as stored in PostgreSQL.
const (
	StatusPending = "PENDING"
	StatusIndexed = "INDEXED"
	StatusFailed  = "FAILED"
)
