package client

import (
	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// Replier is how BaseClient addresses outbound replies back to a
// command's Origin. The concrete signal-bus routing is an external
// collaborator; BaseClient only needs somewhere to hand the reply to.
type Replier interface {
	Reply(origin model.Origin, headers map[string]string, reply any)
}

// Success is sent on a successful lifecycle transition.
type Success struct {
	State model.ClientState
}

// Failure carries one of the typed DittoRuntimeException kinds.
type Failure struct {
	Err ditterr.DittoRuntimeException
}

// MetricsResponse answers RetrieveConnectionMetrics.
type MetricsResponse struct {
	ConnectionID string
	Sources      map[string]metrics.AddressMetric
	Targets      map[string]metrics.AddressMetric
}
