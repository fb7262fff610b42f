package metrics

import (
	"sync"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// Registry is the process-wide map of CounterKey -> SlidingWindowCounter.
// Its operations never fail.
type Registry struct {
	windows []time.Duration

	mu       sync.RWMutex
	counters map[model.CounterKey]*SlidingWindowCounter
}

// NewRegistry builds a Registry whose counters all track windows.
func NewRegistry(windows []time.Duration) *Registry {
	return &Registry{
		windows:  append([]time.Duration{}, windows...),
		counters: make(map[model.CounterKey]*SlidingWindowCounter),
	}
}

// Counter returns the SlidingWindowCounter for key, creating it
// atomically on first access.
func (r *Registry) Counter(key model.CounterKey) *SlidingWindowCounter {
	r.mu.RLock()
	counter, ok := r.counters[key]
	r.mu.RUnlock()
	if ok {
		return counter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if counter, ok := r.counters[key]; ok {
		return counter
	}
	counter = NewSlidingWindowCounter(r.windows)
	r.counters[key] = counter
	return counter
}

// Increment is a convenience wrapper around Counter(key).Increment.
func (r *Registry) Increment(key model.CounterKey, at time.Time, success bool) {
	r.Counter(key).Increment(at, success)
}

// AddressMetric is the per-address aggregate reported back to operators.
type AddressMetric struct {
	Address             string
	SuccessMeasurements map[time.Duration]Measurement
	FailureMeasurements map[time.Duration]Measurement
}

// aggregate groups every counter for connectionID matching direction and
// metric into one AddressMetric per address.
func (r *Registry) aggregate(connectionID string, direction model.Direction, metric model.Metric, now time.Time) map[string]AddressMetric {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]AddressMetric)
	for key, counter := range r.counters {
		if key.ConnectionID != connectionID || key.Direction != direction || key.Metric != metric {
			continue
		}
		m := counter.ToMeasurement(now)
		result[key.Address] = AddressMetric{
			Address:             key.Address,
			SuccessMeasurements: m,
			FailureMeasurements: m,
		}
	}
	return result
}

// AggregateSources builds the SourceMetrics for connectionID: one
// AddressMetric per inbound address, using the CONSUMED metric as the
// representative inbound measurement.
func (r *Registry) AggregateSources(connectionID string, now time.Time) map[string]AddressMetric {
	return r.aggregate(connectionID, model.DirectionInbound, model.MetricConsumed, now)
}

// AggregateTargets builds the TargetMetrics for connectionID: one
// AddressMetric per outbound address, using the PUBLISHED metric as the
// representative outbound measurement.
func (r *Registry) AggregateTargets(connectionID string, now time.Time) map[string]AddressMetric {
	return r.aggregate(connectionID, model.DirectionOutbound, model.MetricPublished, now)
}

// StripForConnection removes every counter belonging to connectionID,
// e.g. when the Connection is deleted.
func (r *Registry) StripForConnection(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.counters {
		if key.ConnectionID == connectionID {
			delete(r.counters, key)
		}
	}
}

// Convenience accessors for the five (metric x direction) combinations
// transports use most.

func (r *Registry) Consumed(connectionID string, direction model.Direction, address string) *SlidingWindowCounter {
	return r.Counter(model.CounterKey{ConnectionID: connectionID, Metric: model.MetricConsumed, Direction: direction, Address: address})
}

func (r *Registry) Mapped(connectionID string, direction model.Direction, address string) *SlidingWindowCounter {
	return r.Counter(model.CounterKey{ConnectionID: connectionID, Metric: model.MetricMapped, Direction: direction, Address: address})
}

func (r *Registry) Filtered(connectionID string, direction model.Direction, address string) *SlidingWindowCounter {
	return r.Counter(model.CounterKey{ConnectionID: connectionID, Metric: model.MetricFiltered, Direction: direction, Address: address})
}

func (r *Registry) Dropped(connectionID string, direction model.Direction, address string) *SlidingWindowCounter {
	return r.Counter(model.CounterKey{ConnectionID: connectionID, Metric: model.MetricDropped, Direction: direction, Address: address})
}

func (r *Registry) Published(connectionID string, direction model.Direction, address string) *SlidingWindowCounter {
	return r.Counter(model.CounterKey{ConnectionID: connectionID, Metric: model.MetricPublished, Direction: direction, Address: address})
}
