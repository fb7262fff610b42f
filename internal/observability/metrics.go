package observability

import "context"

// Metrics exposes process-level instrument metrics (request counts,
// latency histograms, queue depth gauges). This is distinct from
// internal/metrics.Registry, which models the per-connection
// sliding-window counters backing RetrieveConnectionMetrics; the two are
// recorded independently and share no increments.
type Metrics interface {
	Counter(name, description, unit string) Counter
	Histogram(name, description, unit string) Histogram
	UpDownCounter(name, description, unit string) UpDownCounter
	Gauge(name, description, unit string, callback GaugeCallback) error
}

// Counter is a monotonically increasing instrument.
type Counter interface {
	Add(ctx context.Context, value int64, fields ...Field)
	Increment(ctx context.Context, fields ...Field)
}

// Histogram records a distribution of values (e.g. publish latency).
type Histogram interface {
	Record(ctx context.Context, value float64, fields ...Field)
}

// UpDownCounter tracks a value that can both grow and shrink (e.g.
// publisher in-flight count).
type UpDownCounter interface {
	Add(ctx context.Context, value int64, fields ...Field)
}

// GaugeCallback reports the current value of an asynchronous gauge.
type GaugeCallback func(ctx context.Context) float64
