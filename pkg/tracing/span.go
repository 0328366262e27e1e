// Package tracing implements in-process span trees for the query
// pipeline. Spans ride along in the context; finished traces are
// emitted through slog rather than shipped to a collector.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type spanCtxKey struct{}

// Span is one timed phase of a request. Child spans attach to whatever
// span the context carries when they start.
type Span struct {
	Name      string
	TraceID   string
	StartTime time.Time
	Duration  time.Duration

	mu       sync.Mutex
	attrs    map[string]any
	children []*Span
}

func newSpan(name, traceID string) *Span {
	return &Span{
		Name:      name,
		TraceID:   traceID,
		StartTime: time.Now(),
		attrs:     make(map[string]any),
	}
}

// StartSpan begins a root span identified by traceID (typically the
// request ID) and stores it in the returned context.
func StartSpan(ctx context.Context, name string, traceID string) (context.Context, *Span) {
	s := newSpan(name, traceID)
	return context.WithValue(ctx, spanCtxKey{}, s), s
}

// StartChildSpan begins a span under the context's current span. With no
// parent in ctx the child becomes a detached root with an empty trace ID.
func StartChildSpan(ctx context.Context, name string) (context.Context, *Span) {
	child := newSpan(name, "")
	if parent := SpanFromContext(ctx); parent != nil {
		child.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()
	}
	return context.WithValue(ctx, spanCtxKey{}, child), child
}

// SpanFromContext returns the span carried by ctx, or nil.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanCtxKey{}).(*Span)
	return s
}

// End freezes the span's duration.
func (s *Span) End() {
	s.Duration = time.Since(s.StartTime)
}

// SetAttr attaches a key-value attribute to the span.
func (s *Span) SetAttr(key string, value any) {
	s.mu.Lock()
	s.attrs[key] = value
	s.mu.Unlock()
}

// Log emits the whole span tree, one slog line per span, depth-first so
// the output reads in call order.
func (s *Span) Log() {
	type frame struct {
		span  *Span
		depth int
	}
	stack := []frame{{s, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		f.span.mu.Lock()
		fields := make([]any, 0, 8+2*len(f.span.attrs))
		fields = append(fields,
			"trace_id", f.span.TraceID,
			"span", f.span.Name,
			"duration_ms", f.span.Duration.Milliseconds(),
			"depth", f.depth,
		)
		for k, v := range f.span.attrs {
			fields = append(fields, k, v)
		}
		// Push children reversed so the leftmost child logs first.
		for i := len(f.span.children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.span.children[i], f.depth + 1})
		}
		f.span.mu.Unlock()

		slog.Info("span", fields...)
	}
}
