// Package transport defines the capability surface a protocol binding
// (AMQP 0.9.1, Kafka, HTTP-push-only connections) implements for
// BaseClient to drive through its state table.
package transport

import (
	"context"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// Hooks is the set of blocking, protocol-specific operations BaseClient
// invokes on its worker pool and awaits as events, never inline on its
// own scheduling token.
type Hooks interface {
	// DoConnect establishes the transport-level connection (broker
	// session, consumer subscriptions). Returning nil means success;
	// BaseClient waits for the matching ClientConnected/ConnectionFailure
	// event rather than synchronizing on the return value directly.
	DoConnect(ctx context.Context, conn model.Connection) error

	// DoDisconnect tears the transport connection down.
	DoDisconnect(ctx context.Context, conn model.Connection) error

	// DoTestConnection performs a one-shot connectivity check without
	// committing to a long-lived session.
	DoTestConnection(ctx context.Context, conn model.Connection) error

	// GetPublisherPipelines returns one publish.Pipeline per configured
	// Target, built against this transport's protocol.
	GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error)
}

// PreCheckTimeout bounds the TCP reachability pre-check.
const PreCheckTimeout = 2 * time.Second
