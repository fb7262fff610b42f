package httpclient

import "github.com/eclipse-ditto-go/connectivity-core/internal/observability"

// instrumentation holds the metrics instruments created once per client
// and reused across every request, so repeated requests never redefine
// the same instrument under the registry.
type instrumentation struct {
	tracer observability.Tracer

	requestCounter   observability.Counter
	errorCounter     observability.Counter
	latencyHistogram observability.Histogram
}

func newInstrumentation(tracer observability.Tracer, metrics observability.Metrics) *instrumentation {
	return &instrumentation{
		tracer: tracer,
		requestCounter: metrics.Counter(
			"http.client.request.count",
			"Total number of HTTP client requests",
			"{request}",
		),
		errorCounter: metrics.Counter(
			"http.client.request.errors",
			"Total number of HTTP client request errors",
			"{error}",
		),
		latencyHistogram: metrics.Histogram(
			"http.client.request.duration",
			"Duration of HTTP client requests",
			"ms",
		),
	}
}
