package otelobs

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// promMetrics implements observability.Metrics on top of a private
// prometheus.Registry, so cmd/connectivityd can serve it on /metrics via
// promhttp without colliding with the default global registry.
type promMetrics struct {
	namespace string
	registry  *prometheus.Registry

	mu          sync.Mutex
	counters    map[string]*prometheus.CounterVec
	histograms  map[string]*prometheus.HistogramVec
	updowns     map[string]*prometheus.GaugeVec
}

func newPromMetrics(serviceName string) *promMetrics {
	return &promMetrics{
		namespace:  sanitizeNamespace(serviceName),
		registry:   prometheus.NewRegistry(),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		updowns:    make(map[string]*prometheus.GaugeVec),
	}
}

func sanitizeNamespace(name string) string {
	return strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name)
}

func labelNames(fields []observability.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Key
	}
	return names
}

func labelValues(fields []observability.Field) prometheus.Labels {
	labels := make(prometheus.Labels, len(fields))
	for _, f := range fields {
		labels[f.Key] = toString(f.Value)
	}
	return labels
}

func (m *promMetrics) Counter(name, description, unit string) observability.Counter {
	return &promCounter{parent: m, name: name, description: description}
}

func (m *promMetrics) Histogram(name, description, unit string) observability.Histogram {
	return &promHistogram{parent: m, name: name, description: description}
}

func (m *promMetrics) UpDownCounter(name, description, unit string) observability.UpDownCounter {
	return &promUpDown{parent: m, name: name, description: description}
}

func (m *promMetrics) Gauge(name, description, unit string, callback observability.GaugeCallback) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      name,
		Help:      description,
	}, func() float64 { return callback(context.Background()) })
	return m.registry.Register(gauge)
}

func (m *promMetrics) counterVec(name, description string, labels []string) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: name, Help: description,
	}, labels)
	m.registry.MustRegister(vec)
	m.counters[name] = vec
	return vec
}

func (m *promMetrics) histogramVec(name, description string, labels []string) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.histograms[name]; ok {
		return vec
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: name, Help: description, Buckets: prometheus.DefBuckets,
	}, labels)
	m.registry.MustRegister(vec)
	m.histograms[name] = vec
	return vec
}

func (m *promMetrics) updownVec(name, description string, labels []string) *prometheus.GaugeVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.updowns[name]; ok {
		return vec
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: name, Help: description,
	}, labels)
	m.registry.MustRegister(vec)
	m.updowns[name] = vec
	return vec
}

type promCounter struct {
	parent      *promMetrics
	name        string
	description string
}

func (c *promCounter) Add(_ context.Context, value int64, fields ...observability.Field) {
	vec := c.parent.counterVec(c.name, c.description, labelNames(fields))
	vec.With(labelValues(fields)).Add(float64(value))
}

func (c *promCounter) Increment(ctx context.Context, fields ...observability.Field) {
	c.Add(ctx, 1, fields...)
}

type promHistogram struct {
	parent      *promMetrics
	name        string
	description string
}

func (h *promHistogram) Record(_ context.Context, value float64, fields ...observability.Field) {
	vec := h.parent.histogramVec(h.name, h.description, labelNames(fields))
	vec.With(labelValues(fields)).Observe(value)
}

type promUpDown struct {
	parent      *promMetrics
	name        string
	description string
}

func (u *promUpDown) Add(_ context.Context, value int64, fields ...observability.Field) {
	vec := u.parent.updownVec(u.name, u.description, labelNames(fields))
	vec.With(labelValues(fields)).Add(float64(value))
}
