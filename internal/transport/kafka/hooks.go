// Package kafka implements transport.Hooks for Kafka connections, using
// segmentio/kafka-go the way the corpus's producer/writer wrapper does:
// one *kafka.Writer per Target topic, connectivity checked with a raw
// *kafka.Conn dial.
package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport"
)

// DialTimeout bounds DoTestConnection's and DoConnect's broker probe.
const DialTimeout = 5 * time.Second

// Hooks implements transport.Hooks for connections that publish onto
// Kafka topics. A Kafka producer connection is stateless from the
// broker's point of view — there is no persistent session to tear
// down — so DoConnect/DoDisconnect reduce to a reachability check and a
// writer-cache cleanup, and the interesting state lives in the
// per-Target *kafka.Writer built by GetPublisherPipelines.
type Hooks struct {
	o11y observability.Observability

	mu      sync.Mutex
	writers map[string][]*kafkago.Writer // connectionID -> writers to close on disconnect
}

func NewHooks(o11y observability.Observability) *Hooks {
	return &Hooks{o11y: o11y, writers: make(map[string][]*kafkago.Writer)}
}

func (h *Hooks) DoConnect(ctx context.Context, conn model.Connection) error {
	return h.dialProbe(ctx, conn)
}

func (h *Hooks) DoTestConnection(ctx context.Context, conn model.Connection) error {
	if err := h.dialProbe(ctx, conn); err != nil {
		return &ditterr.ConnectionUnavailable{Description: "kafka test connection", Err: err}
	}
	return nil
}

func (h *Hooks) dialProbe(ctx context.Context, conn model.Connection) error {
	dialCtx, cancel := context.WithTimeout(ctx, DialTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", conn.URI.Host, conn.URI.Port)
	c, err := kafkago.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return &ditterr.ConnectionFailed{Host: conn.URI.Host, Port: conn.URI.Port, Description: "kafka dial", Err: err}
	}
	defer c.Close()

	if _, err := c.Brokers(); err != nil {
		return &ditterr.ConnectionFailed{Host: conn.URI.Host, Port: conn.URI.Port, Description: "kafka broker metadata", Err: err}
	}
	return nil
}

func (h *Hooks) DoDisconnect(ctx context.Context, conn model.Connection) error {
	h.mu.Lock()
	writers := h.writers[conn.ID]
	delete(h.writers, conn.ID)
	h.mu.Unlock()

	var firstErr error
	for _, w := range writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetPublisherPipelines builds one *kafka.Writer-backed publish.Pipeline
// per Target topic, wrapped in a transport.RecordingTransport for
// PUBLISHED metrics; the Pipeline itself records DROPPED for sends that
// never reach the writer.
func (h *Hooks) GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error) {
	maxQueueSize := conn.ProcessorPoolSize
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}

	writers := make([]*kafkago.Writer, 0, len(conn.Targets))
	pipelines := make(map[string]*publish.Pipeline, len(conn.Targets))
	for _, target := range conn.Targets {
		writer := &kafkago.Writer{
			Addr:         kafkago.TCP(fmt.Sprintf("%s:%d", conn.URI.Host, conn.URI.Port)),
			Topic:        target.Address,
			Balancer:     &kafkago.LeastBytes{},
			RequiredAcks: kafkago.RequireOne,
		}
		writers = append(writers, writer)

		recorded := &transport.RecordingTransport{
			Inner:        &publisher{topic: target.Address, writer: writer},
			Registry:     registry,
			ConnectionID: conn.ID,
			Address:      target.Address,
		}
		pipelines[target.Address] = publish.NewPipeline(conn.ID, target.Address, maxQueueSize, recorded, registry, h.o11y, onFatal)
	}

	h.mu.Lock()
	h.writers[conn.ID] = writers
	h.mu.Unlock()
	return pipelines, nil
}
