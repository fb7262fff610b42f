// Package noop provides a zero-overhead observability.Observability
// implementation plus a recording logger for test assertions (e.g. that
// state transitions get logged).
package noop

import (
	"context"
	"sync"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// Provider is a no-op observability.Observability. Use NewProvider for
// throwaway tests that don't care about log content, or NewRecordingProvider
// when a test needs to assert on what was logged.
type Provider struct {
	tracer  *tracer
	logger  observability.Logger
	metrics *metrics
}

// NewProvider returns a Provider whose Logger discards every entry.
func NewProvider() *Provider {
	return &Provider{tracer: &tracer{}, logger: &discardLogger{}, metrics: &metrics{}}
}

// NewRecordingProvider returns a Provider whose Logger keeps every entry
// in memory, retrievable via Entries() on the returned *RecordingLogger.
func NewRecordingProvider() (*Provider, *RecordingLogger) {
	rl := &RecordingLogger{}
	return &Provider{tracer: &tracer{}, logger: rl, metrics: &metrics{}}, rl
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.metrics }

// Entry is one captured log line.
type Entry struct {
	Level  observability.LogLevel
	Msg    string
	Fields []observability.Field
}

// RecordingLogger implements observability.Logger, appending every call
// to an in-memory slice guarded by a mutex so concurrent clients can log
// to it safely.
type RecordingLogger struct {
	mu      sync.Mutex
	base    []observability.Field
	entries *[]Entry
}

func (l *RecordingLogger) store() *[]Entry {
	if l.entries == nil {
		l.entries = &[]Entry{}
	}
	return l.entries
}

func (l *RecordingLogger) record(level observability.LogLevel, msg string, fields []observability.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	all := append(append([]observability.Field{}, l.base...), fields...)
	store := l.store()
	*store = append(*store, Entry{Level: level, Msg: msg, Fields: all})
}

func (l *RecordingLogger) Debug(_ context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelDebug, msg, fields)
}

func (l *RecordingLogger) Info(_ context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelInfo, msg, fields)
}

func (l *RecordingLogger) Warn(_ context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelWarn, msg, fields)
}

func (l *RecordingLogger) Error(_ context.Context, msg string, fields ...observability.Field) {
	l.record(observability.LogLevelError, msg, fields)
}

func (l *RecordingLogger) With(fields ...observability.Field) observability.Logger {
	child := &RecordingLogger{base: append(append([]observability.Field{}, l.base...), fields...)}
	l.mu.Lock()
	child.entries = l.store()
	l.mu.Unlock()
	return child
}

// Entries returns a snapshot of every line recorded so far.
func (l *RecordingLogger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	store := l.store()
	out := make([]Entry, len(*store))
	copy(out, *store)
	return out
}

type discardLogger struct{}

func (discardLogger) Debug(context.Context, string, ...observability.Field) {}
func (discardLogger) Info(context.Context, string, ...observability.Field)  {}
func (discardLogger) Warn(context.Context, string, ...observability.Field)  {}
func (discardLogger) Error(context.Context, string, ...observability.Field) {}
func (l discardLogger) With(...observability.Field) observability.Logger    { return l }

type tracer struct{}

func (t *tracer) Start(ctx context.Context, _ string, _ ...observability.SpanOption) (context.Context, observability.Span) {
	return ctx, span{}
}
func (t *tracer) SpanFromContext(ctx context.Context) observability.Span { return span{} }
func (t *tracer) ContextWithSpan(ctx context.Context, _ observability.Span) context.Context {
	return ctx
}

type span struct{}

func (span) End()                                                 {}
func (span) SetAttributes(...observability.Field)                 {}
func (span) SetStatus(observability.StatusCode, string)           {}
func (span) RecordError(error, ...observability.Field)            {}
func (span) AddEvent(string, ...observability.Field)              {}
func (span) Context() observability.SpanContext                   { return spanContext{} }

type spanContext struct{}

func (spanContext) TraceID() string  { return "" }
func (spanContext) SpanID() string   { return "" }
func (spanContext) IsSampled() bool  { return false }

type metrics struct{}

func (m *metrics) Counter(_, _, _ string) observability.Counter             { return counter{} }
func (m *metrics) Histogram(_, _, _ string) observability.Histogram        { return histogram{} }
func (m *metrics) UpDownCounter(_, _, _ string) observability.UpDownCounter { return updown{} }
func (m *metrics) Gauge(_, _, _ string, _ observability.GaugeCallback) error { return nil }

type counter struct{}

func (counter) Add(context.Context, int64, ...observability.Field) {}
func (counter) Increment(context.Context, ...observability.Field)  {}

type histogram struct{}

func (histogram) Record(context.Context, float64, ...observability.Field) {}

type updown struct{}

func (updown) Add(context.Context, int64, ...observability.Field) {}
