package transport

import (
	"context"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// Router dispatches every Hooks call to the concrete implementation
// registered for a Connection's ConnectionType, so one BaseClient.Deps
// can serve connections of any protocol without the state machine ever
// branching on wire format itself.
type Router struct {
	byType map[model.ConnectionType]Hooks
}

// NewRouter builds a Router backed by byType. A Connection whose
// ConnectionType has no registered Hooks fails fast with a
// ConnectionFailed error.
func NewRouter(byType map[model.ConnectionType]Hooks) *Router {
	return &Router{byType: byType}
}

func (r *Router) resolve(connectionType model.ConnectionType) (Hooks, error) {
	h, ok := r.byType[connectionType]
	if !ok {
		return nil, &ditterr.ConnectionFailed{
			Description: "no transport registered for connection type " + string(connectionType),
		}
	}
	return h, nil
}

func (r *Router) DoConnect(ctx context.Context, conn model.Connection) error {
	h, err := r.resolve(conn.ConnectionType)
	if err != nil {
		return err
	}
	return h.DoConnect(ctx, conn)
}

func (r *Router) DoDisconnect(ctx context.Context, conn model.Connection) error {
	h, err := r.resolve(conn.ConnectionType)
	if err != nil {
		return err
	}
	return h.DoDisconnect(ctx, conn)
}

func (r *Router) DoTestConnection(ctx context.Context, conn model.Connection) error {
	h, err := r.resolve(conn.ConnectionType)
	if err != nil {
		return err
	}
	return h.DoTestConnection(ctx, conn)
}

func (r *Router) GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error) {
	h, err := r.resolve(conn.ConnectionType)
	if err != nil {
		return nil, err
	}
	return h.GetPublisherPipelines(ctx, conn, registry, onFatal)
}
