// Package httppush wires the HTTP-push wire protocol (internal/publish/httppush)
// into transport.Hooks so BaseClient can drive an http-push Connection the
// same way it drives any other protocol binding.
package httppush

import (
	"context"
	"net/http"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/httpclient"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish/httppush"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport"
)

// ProbeTimeout bounds each reachability probe request DoTestConnection/
// DoConnect issue against the configured Targets.
const ProbeTimeout = 5 * time.Second

// Hooks implements transport.Hooks for connections whose targets are
// published to over plain HTTP(S) rather than a broker protocol. It
// carries no long-lived session: DoConnect/DoTestConnection both reduce
// to a reachability probe, and the real work happens per-Context inside
// the publish.Pipeline built by GetPublisherPipelines.
type Hooks struct {
	o11y observability.Observability
}

// NewHooks builds an http-push Hooks using o11y for request
// instrumentation (spans, request/error counters, latency histogram).
func NewHooks(o11y observability.Observability) *Hooks {
	return &Hooks{o11y: o11y}
}

func (h *Hooks) DoConnect(ctx context.Context, conn model.Connection) error {
	return h.probe(ctx, conn)
}

func (h *Hooks) DoDisconnect(ctx context.Context, conn model.Connection) error {
	return nil
}

func (h *Hooks) DoTestConnection(ctx context.Context, conn model.Connection) error {
	return h.probe(ctx, conn)
}

// probe issues a HEAD request against every configured Target to
// confirm the endpoint accepts connections; a non-2xx/3xx status is
// tolerated (the target may reject HEAD while still accepting the
// method the Connection actually publishes with) but a transport-level
// failure is not.
func (h *Hooks) probe(ctx context.Context, conn model.Connection) error {
	client, err := httpclient.NewObservableClient(h.o11y, httpclient.WithClientTimeout(ProbeTimeout))
	if err != nil {
		return &ditterr.ConnectionUnavailable{Description: "building HTTP client", Err: err}
	}

	for _, target := range conn.Targets {
		url := target.URITemplate
		if url == "" {
			url = target.Address
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return &ditterr.ConnectionUnavailable{Description: "building probe request to " + url, Err: err}
		}
		resp, err := client.Do(req)
		if err != nil {
			return &ditterr.ConnectionUnavailable{Description: "probing " + url, Err: err}
		}
		resp.Body.Close()
	}
	return nil
}

// GetPublisherPipelines builds one httppush.Publisher-backed
// publish.Pipeline per Target, each wrapped in a transport.RecordingTransport
// so PUBLISHED metrics flow into registry on every send; the Pipeline
// itself records DROPPED for sends that never reach the publisher.
func (h *Hooks) GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error) {
	client, err := httpclient.NewObservableClient(h.o11y)
	if err != nil {
		return nil, &ditterr.ConnectionUnavailable{Description: "building HTTP client", Err: err}
	}

	maxQueueSize := conn.ProcessorPoolSize
	if maxQueueSize <= 0 {
		maxQueueSize = 1
	}

	pipelines := make(map[string]*publish.Pipeline, len(conn.Targets))
	for _, target := range conn.Targets {
		publisher := httppush.NewPublisher(conn.ID, target, client, registry, h.o11y)
		recorded := &transport.RecordingTransport{
			Inner:        publisher,
			Registry:     registry,
			ConnectionID: conn.ID,
			Address:      target.Address,
		}
		pipelines[target.Address] = publish.NewPipeline(conn.ID, target.Address, maxQueueSize, recorded, registry, h.o11y, onFatal)
	}
	return pipelines, nil
}
