// Package metrics implements the per-connection sliding-window counters
// and the registry that aggregates them.
package metrics

import (
	"sync"
	"time"
)

// bucketsPerWindow is the ring size each window is divided into
// (example: N=60). A window of length W therefore has a
// bucket resolution of W/N; increments within the same resolution slot
// land in the same bucket.
const bucketsPerWindow = 60

// Measurement is the result of reading one window: how many successes
// and failures fell in [windowStart, now], and when that window began.
type Measurement struct {
	SuccessCount int64
	FailureCount int64
	WindowStart  time.Time
}

type bucket struct {
	epoch   int64
	success int64
	failure int64
}

// window tracks one configured duration's ring of buckets.
type window struct {
	length     time.Duration
	resolution time.Duration

	mu      sync.Mutex
	buckets [bucketsPerWindow]bucket
}

func newWindow(length time.Duration) *window {
	return &window{
		length:     length,
		resolution: length / bucketsPerWindow,
	}
}

func (w *window) epochAt(t time.Time) int64 {
	if w.resolution <= 0 {
		return 0
	}
	return t.UnixNano() / int64(w.resolution)
}

func (w *window) increment(t time.Time, success bool) {
	epoch := w.epochAt(t)
	idx := epoch % bucketsPerWindow
	if idx < 0 {
		idx += bucketsPerWindow
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	b := &w.buckets[idx]
	if b.epoch != epoch {
		*b = bucket{epoch: epoch}
	}
	if success {
		b.success++
	} else {
		b.failure++
	}
}

// counts sums every bucket whose epoch still falls within the window as
// of now, pruning (logically, by exclusion) stale buckets on read as
// well as on write.
func (w *window) counts(now time.Time) Measurement {
	nowEpoch := w.epochAt(now)
	oldestValid := nowEpoch - bucketsPerWindow + 1

	w.mu.Lock()
	defer w.mu.Unlock()

	var success, failure int64
	for i := range w.buckets {
		b := &w.buckets[i]
		if b.epoch >= oldestValid && b.epoch <= nowEpoch {
			success += b.success
			failure += b.failure
		}
	}

	return Measurement{
		SuccessCount: success,
		FailureCount: failure,
		WindowStart:  now.Add(-w.length),
	}
}

// SlidingWindowCounter maintains rolling success/failure counts over a
// fixed list of windows. Increment is lock-free with
// respect to other counters: each SlidingWindowCounter owns its own set
// of per-window mutexes, never a shared global lock.
type SlidingWindowCounter struct {
	windows []*window
}

// NewSlidingWindowCounter builds a counter tracking each of lengths
// independently (e.g. 1m, 1h, 24h).
func NewSlidingWindowCounter(lengths []time.Duration) *SlidingWindowCounter {
	windows := make([]*window, len(lengths))
	for i, l := range lengths {
		windows[i] = newWindow(l)
	}
	return &SlidingWindowCounter{windows: windows}
}

// Increment records one event at time t, success or failure, advancing
// every configured window's current bucket.
func (c *SlidingWindowCounter) Increment(t time.Time, success bool) {
	for _, w := range c.windows {
		w.increment(t, success)
	}
}

// Counts reports the rolling aggregate for the window matching length,
// as of now. Returns the zero Measurement and false if length was never
// configured on this counter.
func (c *SlidingWindowCounter) Counts(now time.Time, length time.Duration) (Measurement, bool) {
	for _, w := range c.windows {
		if w.length == length {
			return w.counts(now), true
		}
	}
	return Measurement{}, false
}

// Windows returns the configured window lengths, in the order passed to
// NewSlidingWindowCounter.
func (c *SlidingWindowCounter) Windows() []time.Duration {
	lengths := make([]time.Duration, len(c.windows))
	for i, w := range c.windows {
		lengths[i] = w.length
	}
	return lengths
}

// ToMeasurement reports the measurement for every configured window,
// most useful for building an AddressMetric's
// successMeasurements/failureMeasurements lists.
func (c *SlidingWindowCounter) ToMeasurement(now time.Time) map[time.Duration]Measurement {
	out := make(map[time.Duration]Measurement, len(c.windows))
	for _, w := range c.windows {
		out[w.length] = w.counts(now)
	}
	return out
}
