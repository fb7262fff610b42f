// Package mapping defines the MessageMapper contract as a pure external
// collaborator: a stateless transform between external bytes and
// internal signals, supplied by configuration the core never
// interprets.
package mapping

import (
	"context"

	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// Runtime is the mapper execution environment injected at construction
// (thread pool, limits); opaque to the core.
type Runtime interface {
	// MaxMappedSignals bounds how many signals one external message may
	// expand into.
	MaxMappedSignals() int
}

// MessageMapper is the pure external-transform contract. Implementations
// must be safe for concurrent use: BaseClient starts
// exactly one mapper runtime per connection but the publisher pipeline
// may call Map concurrently from multiple in-flight publishes.
type MessageMapper interface {
	// Map turns one inbound ExternalMessage into zero or more Signals.
	Map(ctx context.Context, external model.ExternalMessage) ([]model.Signal, error)

	// MapOutbound turns one outbound Signal into an ExternalMessage
	// ready for a transport.Hooks publisher to send.
	MapOutbound(ctx context.Context, signal model.Signal) (model.ExternalMessage, error)
}

// Factory constructs a MessageMapper for one connection. It may return a
// typed DittoRuntimeException during initialization (via the error
// return) — the client forwards that to the command origin and treats
// it as transient, never as a fatal misconfiguration of the process.
type Factory func(ctx context.Context, connectionID string, mappingContext *model.MappingContext, runtime Runtime) (MessageMapper, error)

// FixedRuntime is a Runtime with a constant MaxMappedSignals bound,
// sufficient for any mapper that doesn't need a real thread pool or
// per-connection resource limits of its own.
type FixedRuntime struct {
	Max int
}

func (r FixedRuntime) MaxMappedSignals() int { return r.Max }

// Identity is a MessageMapper that passes headers through unchanged,
// wrapped as an opaque internal signal; payload bytes and text are not
// carried in either direction. Useful as the default
// when a Connection carries no MappingContext, and as a test double.
type Identity struct{}

// NewIdentityFactory returns a Factory that always succeeds with an
// Identity mapper, regardless of mappingContext.
func NewIdentityFactory() Factory {
	return func(ctx context.Context, connectionID string, mappingContext *model.MappingContext, runtime Runtime) (MessageMapper, error) {
		return Identity{}, nil
	}
}

func (Identity) Map(ctx context.Context, external model.ExternalMessage) ([]model.Signal, error) {
	return []model.Signal{passthroughSignal{headers: external.Headers}}, nil
}

func (Identity) MapOutbound(ctx context.Context, signal model.Signal) (model.ExternalMessage, error) {
	return model.ExternalMessage{Headers: signal.Headers(), IsText: false}, nil
}

type passthroughSignal struct {
	headers map[string]string
}

func (s passthroughSignal) ID() string                 { return s.headers["correlation-id"] }
func (s passthroughSignal) Headers() map[string]string { return s.headers }
