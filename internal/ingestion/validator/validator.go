// Package validator provides input validation for ingestion requests. It
// enforces URL, title, and body constraints and returns per-field error
// details.
package validator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/searchlite/searchlite/internal/ingestion"
)

const (
	maxURLLength   = 2048
	maxTitleLength = 1024
	maxBodyLength  = 1048576
	minBodyLength  = 1
	maxBatchSize   = 500
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateIngestRequest checks that the URL, title, and body of the request
// meet the required constraints and returns a ValidationError if not.
func ValidateIngestRequest(req *ingestion.IngestRequest) error {
	errs := make(map[string]string)

	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		errs["url"] = "url is required"
	} else if len(rawURL) > maxURLLength {
		errs["url"] = fmt.Sprintf("url must be at most %d characters", maxURLLength)
	} else if u, err := url.Parse(rawURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs["url"] = "url must be absolute with scheme and host"
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs["title"] = "title is required"
	} else if len(title) > maxTitleLength {
		errs["title"] = fmt.Sprintf("title must be at most %d characters", maxTitleLength)
	} else if !utf8.ValidString(title) {
		errs["title"] = "title must be valid UTF-8"
	}

	body := strings.TrimSpace(req.Body)
	if len(body) < minBodyLength {
		errs["body"] = "body is required and must not be empty"
	} else if len(body) > maxBodyLength {
		errs["body"] = fmt.Sprintf("body must be at most %d characters", maxBodyLength)
	} else if !utf8.ValidString(body) {
		errs["body"] = "body must be valid UTF-8"
	}

	if req.Score < 0 {
		errs["score"] = "score must not be negative"
	}
	if req.IdempotencyKey != "" && len(req.IdempotencyKey) > 255 {
		errs["idempotency_key"] = "idempotency key must be at most 255 characters"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateBatch checks every document in a batch request. Field errors are
// keyed by their position, e.g. "documents[3].title".
func ValidateBatch(req *ingestion.BatchIngestRequest) error {
	if len(req.Documents) == 0 {
		return &ValidationError{Fields: map[string]string{
			"documents": "at least one document is required",
		}}
	}
	if len(req.Documents) > maxBatchSize {
		return &ValidationError{Fields: map[string]string{
			"documents": fmt.Sprintf("batch must contain at most %d documents", maxBatchSize),
		}}
	}
	errs := make(map[string]string)
	for i := range req.Documents {
		if err := ValidateIngestRequest(&req.Documents[i]); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				for field, msg := range verr.Fields {
					errs[fmt.Sprintf("documents[%d].%s", i, field)] = msg
				}
			}
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
