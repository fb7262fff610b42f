package httppush

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/httpclient"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability/noop"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
)

type fakeSignal struct {
	id      string
	headers map[string]string
}

func (s fakeSignal) ID() string                 { return s.id }
func (s fakeSignal) Headers() map[string]string { return s.headers }

type fakeMessageCommand struct {
	fakeSignal
	responseType string
	entityID     string
}

func (c fakeMessageCommand) ResponseType() string { return c.responseType }
func (c fakeMessageCommand) EntityID() string     { return c.entityID }

func newPublisher(t *testing.T, handler http.HandlerFunc) (*Publisher, *metrics.Registry, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	client, err := httpclient.NewObservableClient(noop.NewProvider())
	require.NoError(t, err)

	registry := metrics.NewRegistry([]time.Duration{time.Minute})
	target := model.Target{Address: server.URL, HTTPMethod: http.MethodPost, AutoAckLabel: "my-ack"}
	pub := NewPublisher("conn-1", target, client, registry, noop.NewProvider())
	return pub, registry, server.Close
}

func TestPublisher_Send_BuildsAcknowledgementFromJSONResponse(t *testing.T) {
	pub, _, closeServer := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	})
	defer closeServer()

	pc := &publish.Context{
		Signal:          fakeSignal{id: "corr-1"},
		ExternalMessage: model.ExternalMessage{ContentType: "application/json", Bytes: []byte(`{"hello":"world"}`)},
	}

	result, err := pub.Send(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, "my-ack", result.Acknowledgement.Label)
	require.Equal(t, http.StatusOK, result.Acknowledgement.StatusCode)
	require.Equal(t, map[string]any{"ok": true}, result.Acknowledgement.Body)
	require.Nil(t, result.CommandResponse)
}

func TestPublisher_Send_BuildsCommandResponseForMessageCommand(t *testing.T) {
	pub, _, closeServer := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("accepted"))
	})
	defer closeServer()

	pc := &publish.Context{
		Signal: fakeMessageCommand{
			fakeSignal:   fakeSignal{id: "corr-2", headers: map[string]string{"x-origin": "client"}},
			responseType: "thing",
			entityID:     "thing:1",
		},
		ExternalMessage: model.ExternalMessage{IsText: true, Text: "hi"},
	}

	result, err := pub.Send(context.Background(), pc)
	require.NoError(t, err)
	require.NotNil(t, result.CommandResponse)
	require.Equal(t, "thing", result.CommandResponse.ResponseType)
	require.Equal(t, "thing:1", result.CommandResponse.EntityID)
	require.Equal(t, http.StatusAccepted, result.CommandResponse.StatusCode)
	require.Equal(t, "accepted", result.CommandResponse.Body)
	require.Equal(t, "client", result.CommandResponse.DittoHeaders["x-origin"])
}

func TestPublisher_Send_UnknownStatusFailsFuture(t *testing.T) {
	pub, registry, closeServer := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(599)
	})
	defer closeServer()

	pc := &publish.Context{Signal: fakeSignal{id: "c"}, ExternalMessage: model.ExternalMessage{}}
	_, err := pub.Send(context.Background(), pc)
	require.Error(t, err)
	var sendingFailed *ditterr.MessageSendingFailed
	require.ErrorAs(t, err, &sendingFailed)

	measurement, ok := registry.Consumed("conn-1", model.DirectionOutbound, model.ResponsesAddress).Counts(time.Now(), time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(1), measurement.FailureCount)
}

func TestPublisher_Send_BinaryContentTypeBase64Encodes(t *testing.T) {
	pub, _, closeServer := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte{0x01, 0x02, 0x03})
	})
	defer closeServer()

	pc := &publish.Context{Signal: fakeSignal{id: "c"}, ExternalMessage: model.ExternalMessage{}}
	result, err := pub.Send(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, "AQID", result.Acknowledgement.Body)
}

func TestPublisher_Send_ContentTypeNotDuplicatedAsHeader(t *testing.T) {
	var contentTypeValues []string
	pub, _, closeServer := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		contentTypeValues = r.Header.Values("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	})
	defer closeServer()

	pc := &publish.Context{
		Signal: fakeSignal{id: "c"},
		ExternalMessage: model.ExternalMessage{
			ContentType: "application/json",
			Bytes:       []byte(`{}`),
			Headers:     map[string]string{"Content-Type": "application/json", "X-Custom": "1"},
		},
	}
	_, err := pub.Send(context.Background(), pc)
	require.NoError(t, err)
	require.Equal(t, []string{"application/json"}, contentTypeValues)
}

func TestPublisher_Send_RetriesAfterTransportFailureThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			// First attempt: close the connection without a response so the
			// client observes it as a transport-level failure, not a status.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client, err := httpclient.NewObservableClient(noop.NewProvider())
	require.NoError(t, err)

	target := model.Target{Address: server.URL, HTTPMethod: http.MethodPost}
	registry := metrics.NewRegistry([]time.Duration{time.Minute})
	pub := NewPublisher("conn-1", target, client, registry, noop.NewProvider()).
		WithRetryConfig(RetryConfig{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxElapsedTime: time.Second})

	pc := &publish.Context{Signal: fakeSignal{id: "c"}, ExternalMessage: model.ExternalMessage{}}
	_, err = pub.Send(context.Background(), pc)
	require.NoError(t, err)
	require.GreaterOrEqual(t, attempts.Load(), int32(2))
}

func TestPublisher_Send_DoesNotRetryUnrecognizedStatus(t *testing.T) {
	var attempts atomic.Int32
	pub, _, closeServer := newPublisher(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(599)
	})
	defer closeServer()
	pub.WithRetryConfig(RetryConfig{InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond, MaxElapsedTime: time.Second})

	pc := &publish.Context{Signal: fakeSignal{id: "c"}, ExternalMessage: model.ExternalMessage{}}
	_, err := pub.Send(context.Background(), pc)
	require.Error(t, err)
	require.Equal(t, int32(1), attempts.Load())
}
