package index

import (
	"context"
	"fmt"
	"unicode/utf8"

	apperrors "github.com/searchlite/searchlite/pkg/errors"
)

// DocID identifies a document. Zero is never a valid ID; the document
// store allocates IDs starting at 1.
type DocID uint32

// Document is the unit of indexing. Content is the searchable body
// text; URL and Title are opaque metadata carried through for display
// and never tokenised.
type Document struct {
	ID      DocID
	URL     string
	Title   string
	Content string
}

// Validate reports whether the document is structurally acceptable for
// indexing. Text fields must be valid UTF-8 so tokenisation is
// well-defined.
func (d Document) Validate() error {
	if d.ID == 0 {
		return fmt.Errorf("%w: document id must be positive", apperrors.ErrInvalidArgument)
	}
	if !utf8.ValidString(d.Title) || !utf8.ValidString(d.Content) || !utf8.ValidString(d.URL) {
		return fmt.Errorf("%w: document %d contains invalid UTF-8", apperrors.ErrInvalidArgument, d.ID)
	}
	return nil
}

// ContentSource resolves the indexable text for a document. Sources that
// fetch content from elsewhere (database, object store) return
// ErrContentUnavailable when the text cannot be produced, letting bulk
// loaders skip that document without aborting the batch.
type ContentSource interface {
	Resolve(ctx context.Context, doc Document) (string, error)
}

// InlineContent is the trivial ContentSource for documents that carry
// their text in the Content field.
type InlineContent struct{}

func (InlineContent) Resolve(_ context.Context, doc Document) (string, error) {
	return doc.Content, nil
}
