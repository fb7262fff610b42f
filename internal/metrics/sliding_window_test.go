package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSlidingWindowCounter_CountsWithinWindow(t *testing.T) {
	counter := NewSlidingWindowCounter([]time.Duration{time.Minute})
	base := time.Now()

	for i := 0; i < 5; i++ {
		counter.Increment(base, true)
	}
	counter.Increment(base, false)

	measurement, ok := counter.Counts(base, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(5), measurement.SuccessCount)
	require.Equal(t, int64(1), measurement.FailureCount)
}

func TestSlidingWindowCounter_PrunesStaleBucketsOnRead(t *testing.T) {
	counter := NewSlidingWindowCounter([]time.Duration{time.Minute})
	base := time.Now()

	counter.Increment(base, true)

	// Idle well past the window: a read long after the last increment
	// must report zero without another write happening first.
	later := base.Add(2 * time.Minute)
	measurement, ok := counter.Counts(later, time.Minute)
	require.True(t, ok)
	require.Zero(t, measurement.SuccessCount)
	require.Zero(t, measurement.FailureCount)
}

func TestSlidingWindowCounter_UnknownWindow(t *testing.T) {
	counter := NewSlidingWindowCounter([]time.Duration{time.Minute})
	_, ok := counter.Counts(time.Now(), time.Hour)
	require.False(t, ok)
}

func TestSlidingWindowCounter_IndependentWindows(t *testing.T) {
	counter := NewSlidingWindowCounter([]time.Duration{time.Minute, time.Hour})
	base := time.Now()

	counter.Increment(base, true)

	minute, ok := counter.Counts(base, time.Minute)
	require.True(t, ok)
	hour, ok := counter.Counts(base, time.Hour)
	require.True(t, ok)

	require.Equal(t, int64(1), minute.SuccessCount)
	require.Equal(t, int64(1), hour.SuccessCount)
}

func TestSlidingWindowCounter_ConcurrentIncrement(t *testing.T) {
	counter := NewSlidingWindowCounter([]time.Duration{time.Minute})
	base := time.Now()

	const goroutines = 50
	const perGoroutine = 20

	done := make(chan struct{})
	for i := 0; i < goroutines; i++ {
		go func() {
			for j := 0; j < perGoroutine; j++ {
				counter.Increment(base, true)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}

	measurement, ok := counter.Counts(base, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(goroutines*perGoroutine), measurement.SuccessCount)
}
