package otelobs

import (
	"context"

	oteltrace "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/trace"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

type tracerAdapter struct {
	tracer sdktrace.Tracer
}

func toAttributes(fields []observability.Field) []oteltrace.KeyValue {
	attrs := make([]oteltrace.KeyValue, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			attrs = append(attrs, oteltrace.String(f.Key, v))
		case int:
			attrs = append(attrs, oteltrace.Int(f.Key, v))
		case int64:
			attrs = append(attrs, oteltrace.Int64(f.Key, v))
		case float64:
			attrs = append(attrs, oteltrace.Float64(f.Key, v))
		case bool:
			attrs = append(attrs, oteltrace.Bool(f.Key, v))
		case error:
			attrs = append(attrs, oteltrace.String(f.Key, v.Error()))
		default:
			attrs = append(attrs, oteltrace.String(f.Key, toString(v)))
		}
	}
	return attrs
}

func (t *tracerAdapter) Start(ctx context.Context, spanName string, opts ...observability.SpanOption) (context.Context, observability.Span) {
	kind, attrs := observability.ResolveSpanOptions(opts...)

	spanKind := sdktrace.SpanKindInternal
	switch kind {
	case observability.SpanKindServer:
		spanKind = sdktrace.SpanKindServer
	case observability.SpanKindClient:
		spanKind = sdktrace.SpanKindClient
	case observability.SpanKindProducer:
		spanKind = sdktrace.SpanKindProducer
	case observability.SpanKindConsumer:
		spanKind = sdktrace.SpanKindConsumer
	}

	ctx, span := t.tracer.Start(ctx, spanName,
		sdktrace.WithSpanKind(spanKind),
		sdktrace.WithAttributes(toAttributes(attrs)...),
	)
	return ctx, &spanAdapter{span: span}
}

func (t *tracerAdapter) SpanFromContext(ctx context.Context) observability.Span {
	return &spanAdapter{span: sdktrace.SpanFromContext(ctx)}
}

func (t *tracerAdapter) ContextWithSpan(ctx context.Context, span observability.Span) context.Context {
	if sa, ok := span.(*spanAdapter); ok {
		return sdktrace.ContextWithSpan(ctx, sa.span)
	}
	return ctx
}

type spanAdapter struct {
	span sdktrace.Span
}

func (s *spanAdapter) End() { s.span.End() }

func (s *spanAdapter) SetAttributes(fields ...observability.Field) {
	s.span.SetAttributes(toAttributes(fields)...)
}

func (s *spanAdapter) SetStatus(code observability.StatusCode, description string) {
	switch code {
	case observability.StatusCodeOK:
		s.span.SetStatus(codes.Ok, description)
	case observability.StatusCodeError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *spanAdapter) RecordError(err error, fields ...observability.Field) {
	s.span.RecordError(err, sdktrace.WithAttributes(toAttributes(fields)...))
}

func (s *spanAdapter) AddEvent(name string, fields ...observability.Field) {
	s.span.AddEvent(name, sdktrace.WithAttributes(toAttributes(fields)...))
}

func (s *spanAdapter) Context() observability.SpanContext {
	return spanContextAdapter{sc: s.span.SpanContext()}
}

type spanContextAdapter struct {
	sc sdktrace.SpanContext
}

func (c spanContextAdapter) TraceID() string { return c.sc.TraceID().String() }
func (c spanContextAdapter) SpanID() string  { return c.sc.SpanID().String() }
func (c spanContextAdapter) IsSampled() bool { return c.sc.IsSampled() }
