package httpclient

import (
	"errors"
	"net/http"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// ObservableClient is the HTTP doer the HTTP-push publisher sends
// requests through. It always instruments requests with tracing and
// metrics; it never retries internally — per-message retry is out of
// scope for the publisher layer, which reports failures upward instead
// and leaves reconnection/restart to the supervisor.
type ObservableClient struct {
	baseTransport   http.RoundTripper
	timeout         time.Duration
	instrumentation *instrumentation
}

type ClientOption func(*ObservableClient)

// WithClientTimeout overrides the default request timeout.
func WithClientTimeout(timeout time.Duration) ClientOption {
	return func(c *ObservableClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithBaseTransport swaps in a custom RoundTripper (proxies, custom TLS,
// test doubles), still wrapped with observability.
func WithBaseTransport(transport http.RoundTripper) ClientOption {
	return func(c *ObservableClient) {
		if transport != nil {
			c.baseTransport = transport
		}
	}
}

// NewObservableClient builds a client ready to send HTTP-push requests.
func NewObservableClient(o11y observability.Observability, opts ...ClientOption) (*ObservableClient, error) {
	if o11y == nil {
		return nil, errors.New("httpclient: observability provider cannot be nil")
	}

	client := &ObservableClient{
		baseTransport: &http.Transport{
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
			ForceAttemptHTTP2:     true,
		},
		timeout:         DefaultTimeout,
		instrumentation: newInstrumentation(o11y.Tracer(), o11y.Metrics()),
	}

	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Do sends req through the observable transport chain, bounded by the
// client's timeout (DefaultTimeout unless WithClientTimeout overrides
// it) and by any deadline on req's own context.
func (c *ObservableClient) Do(req *http.Request) (*http.Response, error) {
	httpClient := &http.Client{
		Transport: &observableTransport{base: c.baseTransport, instrumentation: c.instrumentation},
		Timeout:   c.timeout,
	}
	return httpClient.Do(req)
}
