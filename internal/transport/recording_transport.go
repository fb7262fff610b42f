package transport

import (
	"context"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// RecordingTransport wraps a publish.Transport and records one
// PUBLISHED measurement per Send outcome against the shared Registry,
// so every concrete Hooks implementation gets outbound metrics for
// free instead of re-deriving the bookkeeping per protocol. DROPPED is
// recorded separately, by publish.Pipeline, for sends that never reach
// a Transport at all.
type RecordingTransport struct {
	Inner        publish.Transport
	Registry     *metrics.Registry
	ConnectionID string
	Address      string
}

func (t *RecordingTransport) Send(ctx context.Context, pc *publish.Context) (model.CommandResponseOrAck, error) {
	result, err := t.Inner.Send(ctx, pc)
	t.Registry.Increment(model.CounterKey{
		ConnectionID: t.ConnectionID,
		Metric:       model.MetricPublished,
		Direction:    model.DirectionOutbound,
		Address:      t.Address,
	}, time.Now(), err == nil)
	return result, err
}
