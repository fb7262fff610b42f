package httppush

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/httpclient"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

// RetryConfig bounds how Publisher.Send retries a request after a
// transport-level failure (dial/timeout/connection reset). A rejected
// request that reached the target (any recognized HTTP status) is
// never retried — only the connection attempt itself.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig returns the tunables Publisher uses when none are
// given explicitly.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		MaxElapsedTime:  15 * time.Second,
	}
}

// Publisher is the HTTP-push publish.Transport: one configured Target,
// driven by an httpclient.Doer.
type Publisher struct {
	connectionID string
	target       model.Target
	doer         httpclient.Doer
	o11y         observability.Observability
	retry        RetryConfig
	registry     *metrics.Registry
}

// NewPublisher builds a Publisher sending every publish.Context to
// target over doer, retrying transport-level failures per
// DefaultRetryConfig. An unrecognized response status is reported as a
// CONSUMED failure against connectionID's reserved _responses address,
// distinct from the per-target PUBLISHED failure RecordingTransport
// records for the same send.
func NewPublisher(connectionID string, target model.Target, doer httpclient.Doer, registry *metrics.Registry, o11y observability.Observability) *Publisher {
	return &Publisher{connectionID: connectionID, target: target, doer: doer, registry: registry, o11y: o11y, retry: DefaultRetryConfig()}
}

// WithRetryConfig overrides the default retry tunables.
func (p *Publisher) WithRetryConfig(cfg RetryConfig) *Publisher {
	p.retry = cfg
	return p
}

// Send implements publish.Transport.
func (p *Publisher) Send(ctx context.Context, pc *publish.Context) (model.CommandResponseOrAck, error) {
	var result model.CommandResponseOrAck

	backoffState := backoff.NewExponentialBackOff()
	backoffState.InitialInterval = p.retry.InitialInterval
	backoffState.MaxInterval = p.retry.MaxInterval
	backoffState.MaxElapsedTime = p.retry.MaxElapsedTime

	operation := func() error {
		res, err := p.send(ctx, pc)
		if err != nil {
			if _, transient := err.(*ditterr.ConnectionUnavailable); transient {
				return err
			}
			return backoff.Permanent(err)
		}
		result = res
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoffState, ctx)); err != nil {
		if perm, ok := err.(*backoff.PermanentError); ok {
			return model.CommandResponseOrAck{}, perm.Err
		}
		return model.CommandResponseOrAck{}, err
	}
	return result, nil
}

func (p *Publisher) send(ctx context.Context, pc *publish.Context) (model.CommandResponseOrAck, error) {
	req, err := buildRequest(ctx, p.target, pc.ExternalMessage)
	if err != nil {
		return model.CommandResponseOrAck{}, err
	}

	resp, err := p.doer.Do(req)
	if err != nil {
		return model.CommandResponseOrAck{}, &ditterr.ConnectionUnavailable{
			Description: "HTTP-push request to " + redactedURL(req),
			Err:         err,
		}
	}

	if !statusRecognized(resp.StatusCode) {
		resp.Body.Close()
		if p.registry != nil {
			p.registry.Consumed(p.connectionID, model.DirectionOutbound, model.ResponsesAddress).Increment(time.Now(), false)
		}
		return model.CommandResponseOrAck{}, &ditterr.MessageSendingFailed{
			Reason: "unknown HTTP status " + resp.Status,
		}
	}

	limit := responseLimit(pc.MaxTotalMessageSize, pc.AckSizeQuota)
	body, err := readBody(ctx, resp, limit)
	if err != nil {
		return model.CommandResponseOrAck{}, err
	}

	contentType := resp.Header.Get(contentTypeHeader)
	decoded := decodeBody(body, contentType)

	label := p.target.AutoAckLabel
	if label == "" {
		label = model.DiagnosticAckLabel
	}

	entityID := entityIDFor(pc.Signal)
	ack := buildAcknowledgement(label, entityID, resp, decoded)

	result := model.CommandResponseOrAck{Acknowledgement: ack}
	if cmd, ok := pc.Signal.(model.MessageCommand); ok {
		result.CommandResponse = buildCommandResponse(cmd.ResponseType(), cmd.EntityID(), pc.Signal.Headers(), resp, contentType, decoded)
	}
	return result, nil
}

func entityIDFor(signal model.Signal) string {
	if cmd, ok := signal.(model.MessageCommand); ok {
		return cmd.EntityID()
	}
	return ""
}

// redactedURL strips user-info from req's URL before it is ever logged
// or wrapped into an error.
func redactedURL(req *http.Request) string {
	return req.URL.Redacted()
}
