package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// observableTransport wraps every HTTP-push request with a client span
// and request count/error/latency metrics.
type observableTransport struct {
	base            http.RoundTripper
	instrumentation *instrumentation
}

func (t *observableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	start := time.Now()

	ctx, span := t.instrumentation.tracer.Start(
		ctx,
		"http.client.request",
		observability.WithSpanKind(observability.SpanKindClient),
		observability.WithSpanAttributes(
			observability.String("http.method", req.Method),
			observability.String("http.url", req.URL.Redacted()),
			observability.String("http.host", req.URL.Host),
			observability.String("http.scheme", req.URL.Scheme),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	resp, err := t.base.RoundTrip(req)
	duration := float64(time.Since(start).Milliseconds())

	metricAttrs := []observability.Field{
		observability.String("http.method", req.Method),
		observability.String("http.host", req.URL.Host),
	}

	// Metrics are recorded on a background context so they still land
	// when the request context itself was the thing that got cancelled.
	metricsCtx := context.Background()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusCodeError, err.Error())

		errorAttrs := append(metricAttrs, observability.String("error.type", classifyError(err)))
		t.instrumentation.errorCounter.Increment(metricsCtx, errorAttrs...)
		t.instrumentation.requestCounter.Increment(metricsCtx, metricAttrs...)
		t.instrumentation.latencyHistogram.Record(metricsCtx, duration, metricAttrs...)
		return resp, err
	}

	span.SetAttributes(observability.Int("http.status_code", resp.StatusCode))
	metricAttrs = append(metricAttrs, observability.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		span.SetStatus(observability.StatusCodeError, fmt.Sprintf("HTTP %d", resp.StatusCode))
	} else {
		span.SetStatus(observability.StatusCodeOK, "request successful")
	}

	t.instrumentation.requestCounter.Increment(metricsCtx, metricAttrs...)
	t.instrumentation.latencyHistogram.Record(metricsCtx, duration, metricAttrs...)
	return resp, nil
}

func classifyError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "network_timeout"
		}
		return "network_error"
	}
	return "unknown"
}
