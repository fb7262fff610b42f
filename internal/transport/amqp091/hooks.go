package amqp091

import (
	"context"
	"sync"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport"
)

// Hooks implements transport.Hooks for AMQP 0.9.1 connections. One
// connectionManager is kept per connection ID: DoConnect dials it,
// DoDisconnect tears it down, DoTestConnection dials a throwaway one and
// closes it immediately. Credentials are read from each Connection
// record rather than shared across connections.
type Hooks struct {
	config Config
	o11y   observability.Observability

	mu    sync.Mutex
	conns map[string]*connectionManager
}

func NewHooks(config Config, o11y observability.Observability) *Hooks {
	return &Hooks{config: config, o11y: o11y, conns: make(map[string]*connectionManager)}
}

func (h *Hooks) DoConnect(ctx context.Context, conn model.Connection) error {
	cm := newConnectionManager(conn.URI, conn.Credentials, h.config, h.o11y)
	if err := cm.connect(ctx); err != nil {
		return &ditterr.ConnectionFailed{Host: conn.URI.Host, Port: conn.URI.Port, Description: "amqp connect", Err: err}
	}
	h.mu.Lock()
	h.conns[conn.ID] = cm
	h.mu.Unlock()
	return nil
}

func (h *Hooks) DoDisconnect(ctx context.Context, conn model.Connection) error {
	h.mu.Lock()
	cm, ok := h.conns[conn.ID]
	delete(h.conns, conn.ID)
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return cm.close(ctx)
}

func (h *Hooks) DoTestConnection(ctx context.Context, conn model.Connection) error {
	cm := newConnectionManager(conn.URI, conn.Credentials, probeConfig(h.config), h.o11y)
	if err := cm.connect(ctx); err != nil {
		return &ditterr.ConnectionUnavailable{Description: "amqp test connection", Err: err}
	}
	return cm.close(ctx)
}

// probeConfig disables auto-reconnect for the short-lived connection
// DoTestConnection opens — there is nothing to reconnect for.
func probeConfig(base Config) Config {
	c := base
	c.EnableAutoReconnect = false
	return c
}

// GetPublisherPipelines builds one publish.Pipeline per Target, routed
// over the connection's established channel and wrapped in a
// transport.RecordingTransport for PUBLISHED metrics; the Pipeline
// itself records DROPPED for sends that never reach the channel.
func (h *Hooks) GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error) {
	h.mu.Lock()
	cm, ok := h.conns[conn.ID]
	h.mu.Unlock()
	if !ok {
		return nil, &ditterr.ConnectionUnavailable{Description: "no active amqp connection for " + conn.ID}
	}

	maxQueueSize := conn.ProcessorPoolSize
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}

	pipelines := make(map[string]*publish.Pipeline, len(conn.Targets))
	for _, target := range conn.Targets {
		recorded := &transport.RecordingTransport{
			Inner:        newPublisher(target.Address, cm),
			Registry:     registry,
			ConnectionID: conn.ID,
			Address:      target.Address,
		}
		pipelines[target.Address] = publish.NewPipeline(conn.ID, target.Address, maxQueueSize, recorded, registry, h.o11y, onFatal)
	}
	return pipelines, nil
}
