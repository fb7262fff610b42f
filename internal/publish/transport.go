package publish

import (
	"context"

	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// Transport is the protocol-specific flow a Pipeline drives: build a
// request from the outbound ExternalMessage, send it, and turn the
// protocol response into the CommandResponseOrAck the originating
// Context's Future completes with. httppush.Publisher, amqp091 and kafka
// each provide a concrete implementation.
//
// Send is called at most once per Context and strictly in enqueue order
// — the Pipeline runs a single dispatch loop specifically so Transport
// implementations never have to coordinate ordering or concurrency
// themselves.
type Transport interface {
	Send(ctx context.Context, pc *Context) (model.CommandResponseOrAck, error)
}

// TransportFunc adapts a plain function to a Transport, the way the
// teacher's handler maps adapt plain funcs to its Consumer interface.
type TransportFunc func(ctx context.Context, pc *Context) (model.CommandResponseOrAck, error)

func (f TransportFunc) Send(ctx context.Context, pc *Context) (model.CommandResponseOrAck, error) {
	return f(ctx, pc)
}
