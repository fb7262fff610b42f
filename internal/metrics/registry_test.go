package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

func TestRegistry_CounterGetOrCreate(t *testing.T) {
	registry := NewRegistry([]time.Duration{time.Minute})
	key := model.CounterKey{ConnectionID: "conn-1", Metric: model.MetricPublished, Direction: model.DirectionOutbound, Address: "/ack"}

	first := registry.Counter(key)
	second := registry.Counter(key)
	require.Same(t, first, second)
}

func TestRegistry_AggregateTargets(t *testing.T) {
	registry := NewRegistry([]time.Duration{time.Minute})
	now := time.Now()

	registry.Published("conn-1", model.DirectionOutbound, "/ack").Increment(now, true)
	registry.Published("conn-1", model.DirectionOutbound, "/ack").Increment(now, false)
	registry.Published("conn-1", model.DirectionOutbound, "/other").Increment(now, true)
	registry.Published("conn-2", model.DirectionOutbound, "/ack").Increment(now, true)

	targets := registry.AggregateTargets("conn-1", now)
	require.Len(t, targets, 2)

	ack := targets["/ack"].SuccessMeasurements[time.Minute]
	require.Equal(t, int64(1), ack.SuccessCount)
	require.Equal(t, int64(1), targets["/ack"].FailureMeasurements[time.Minute].FailureCount)
}

func TestRegistry_StripForConnection(t *testing.T) {
	registry := NewRegistry([]time.Duration{time.Minute})
	now := time.Now()

	registry.Published("conn-1", model.DirectionOutbound, "/ack").Increment(now, true)
	registry.Published("conn-2", model.DirectionOutbound, "/ack").Increment(now, true)

	registry.StripForConnection("conn-1")

	require.Empty(t, registry.AggregateTargets("conn-1", now))
	require.NotEmpty(t, registry.AggregateTargets("conn-2", now))
}

func TestRegistry_ResponsesSentinelReserved(t *testing.T) {
	registry := NewRegistry([]time.Duration{time.Minute})
	now := time.Now()

	registry.Consumed("conn-1", model.DirectionOutbound, model.ResponsesAddress).Increment(now, false)

	sources := registry.aggregate("conn-1", model.DirectionOutbound, model.MetricConsumed, now)
	require.Contains(t, sources, model.ResponsesAddress)
}
