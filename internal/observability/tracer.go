package observability

import "context"

// Tracer starts and propagates spans across the source -> mapper ->
// signal bus -> mapper -> publisher pipeline.
type Tracer interface {
	Start(ctx context.Context, spanName string, opts ...SpanOption) (context.Context, Span)
	SpanFromContext(ctx context.Context) Span
	ContextWithSpan(ctx context.Context, span Span) context.Context
}
