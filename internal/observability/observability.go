// Package observability defines the logging/tracing/metrics facade used
// throughout connectivity-core. It is the only observability interface
// injected into clients, publishers and transports.
package observability

// Observability is the facade handed to every component that needs to
// log, trace or record metrics. Concrete providers live in noop (tests)
// and otelobs (production).
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Field is a structured key-value pair attached to log entries, span
// attributes and metric measurements.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Error creates a field carrying an error under the conventional "error" key.
func Error(err error) Field {
	return Field{Key: "error", Value: err}
}

// SpanContext carries the identifiers needed to propagate a trace across
// a connection boundary (e.g. into a mapped ExternalMessage's headers).
type SpanContext interface {
	TraceID() string
	SpanID() string
	IsSampled() bool
}

// Span represents one unit of work inside a trace.
type Span interface {
	End()
	SetAttributes(fields ...Field)
	SetStatus(code StatusCode, description string)
	RecordError(err error, fields ...Field)
	AddEvent(name string, fields ...Field)
	Context() SpanContext
}

// StatusCode is the canonical outcome of a span.
type StatusCode int

const (
	StatusCodeUnset StatusCode = iota
	StatusCodeOK
	StatusCodeError
)

// SpanKind classifies the role a span plays (client-initiated publish,
// server-initiated source consumption, and so on).
type SpanKind int

const (
	SpanKindInternal SpanKind = iota
	SpanKindServer
	SpanKindClient
	SpanKindProducer
	SpanKindConsumer
)

// SpanOption configures span creation.
type SpanOption interface{ apply(*spanConfig) }

type spanConfig struct {
	kind       SpanKind
	attributes []Field
}

type spanOptionFunc func(*spanConfig)

func (f spanOptionFunc) apply(c *spanConfig) { f(c) }

// WithSpanKind sets the span kind.
func WithSpanKind(kind SpanKind) SpanOption {
	return spanOptionFunc(func(c *spanConfig) { c.kind = kind })
}

// WithSpanAttributes seeds the span with attributes at creation time.
func WithSpanAttributes(fields ...Field) SpanOption {
	return spanOptionFunc(func(c *spanConfig) { c.attributes = append(c.attributes, fields...) })
}

// ResolveSpanOptions is exported for provider implementations that need to
// read the config a SpanOption set assembled.
func ResolveSpanOptions(opts ...SpanOption) (kind SpanKind, attributes []Field) {
	cfg := &spanConfig{}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg.kind, cfg.attributes
}
