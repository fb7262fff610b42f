package client

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/mapping"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability/noop"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
	"github.com/eclipse-ditto-go/connectivity-core/internal/workerpool"
)

type fakeHooks struct {
	connectErr    error
	disconnectErr error
	testErr       error
	connectBlock  <-chan struct{}
}

func (h *fakeHooks) DoConnect(ctx context.Context, conn model.Connection) error {
	if h.connectBlock != nil {
		<-h.connectBlock
	}
	return h.connectErr
}

func (h *fakeHooks) DoDisconnect(ctx context.Context, conn model.Connection) error {
	return h.disconnectErr
}

func (h *fakeHooks) DoTestConnection(ctx context.Context, conn model.Connection) error {
	return h.testErr
}

func (h *fakeHooks) GetPublisherPipelines(ctx context.Context, conn model.Connection, registry *metrics.Registry, onFatal publish.OnFatal) (map[string]*publish.Pipeline, error) {
	return map[string]*publish.Pipeline{}, nil
}

type recordingReplier struct {
	mu       sync.Mutex
	replies  []any
	received chan struct{}
}

func newRecordingReplier() *recordingReplier {
	return &recordingReplier{received: make(chan struct{}, 64)}
}

func (r *recordingReplier) Reply(origin model.Origin, headers map[string]string, reply any) {
	r.mu.Lock()
	r.replies = append(r.replies, reply)
	r.mu.Unlock()
	r.received <- struct{}{}
}

func (r *recordingReplier) waitFor(t *testing.T, n int) []any {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-r.received:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for reply %d/%d", i+1, n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]any{}, r.replies...)
}

func newTestClient(t *testing.T, hooks *fakeHooks, stateTimeout time.Duration) (*BaseClient, *recordingReplier) {
	t.Helper()
	replier := newRecordingReplier()
	pool := workerpool.New(4)
	t.Cleanup(pool.Stop)

	deps := Deps{
		Hooks:                  hooks,
		MapperFactory:          mapping.NewIdentityFactory(),
		Registry:               metrics.NewRegistry([]time.Duration{time.Minute}),
		Replier:                replier,
		Observability:          noop.NewProvider(),
		Workers:                pool,
		TCPPrecheckTimeout:     50 * time.Millisecond,
		StateTimeout:           stateTimeout,
		RetrieveMetricsTimeout: time.Second,
	}
	c := New("conn-1", deps)
	t.Cleanup(c.Stop)
	return c, replier
}

// unreachableURI is a loopback address nothing listens on, so the TCP
// pre-check fails fast and deterministically.
func unreachableURI() model.URI {
	return model.URI{Host: "127.0.0.1", Port: 1}
}

// listeningURI starts a listener the pre-check can reach and returns its
// URI plus a closer.
func listeningURI(t *testing.T) (model.URI, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return model.URI{Host: host, Port: port}, func() { ln.Close() }
}

func TestBaseClient_OpenConnectionFailsPrecheckStaysUnknown(t *testing.T) {
	c, replier := newTestClient(t, &fakeHooks{}, 100*time.Millisecond)
	conn := model.Connection{ID: "conn-1", URI: unreachableURI(), DesiredStatus: model.StatusOpen}
	c.Send(NewCreateConnection(conn, model.Origin{Address: "origin-1", Alive: true}, nil))

	replies := replier.waitFor(t, 1)
	failure, ok := replies[0].(Failure)
	require.True(t, ok)
	require.Equal(t, ditterr.KindConnectionFailed, failure.Err.Kind())
	require.Equal(t, model.StateUnknown, c.Data().State)
}

func TestBaseClient_OpenConnectionReachesConnected(t *testing.T) {
	uri, closeListener := listeningURI(t)
	defer closeListener()

	c, replier := newTestClient(t, &fakeHooks{}, time.Second)
	conn := model.Connection{ID: "conn-1", URI: uri, DesiredStatus: model.StatusOpen}
	c.Send(NewCreateConnection(conn, model.Origin{Address: "origin-1", Alive: true}, nil))

	replies := replier.waitFor(t, 1)
	success, ok := replies[0].(Success)
	require.True(t, ok)
	require.Equal(t, model.StateConnected, success.State)
	require.Equal(t, model.StateConnected, c.Data().State)
}

func TestBaseClient_RetrieveMetricsWorksFromAnyState(t *testing.T) {
	c, replier := newTestClient(t, &fakeHooks{}, 100*time.Millisecond)
	c.Send(NewRetrieveConnectionMetrics(model.Origin{Address: "origin-1", Alive: true}, nil))

	replies := replier.waitFor(t, 1)
	_, ok := replies[0].(MetricsResponse)
	require.True(t, ok)
}

func TestBaseClient_UnhandledSignalInConnectedRepliesIllegalState(t *testing.T) {
	uri, closeListener := listeningURI(t)
	defer closeListener()

	c, replier := newTestClient(t, &fakeHooks{}, time.Second)
	conn := model.Connection{ID: "conn-1", URI: uri, DesiredStatus: model.StatusOpen}
	c.Send(NewCreateConnection(conn, model.Origin{Address: "origin-1", Alive: true}, nil))
	replier.waitFor(t, 1) // Success(CONNECTED)

	c.Send(NewOpenConnection(model.Origin{Address: "origin-1", Alive: true}, nil))
	replies := replier.waitFor(t, 2)
	failure, ok := replies[1].(Failure)
	require.True(t, ok)
	require.Equal(t, ditterr.KindSignalInIllegalState, failure.Err.Kind())
}

func TestBaseClient_ModifyConnectionWhileConnectedReconnects(t *testing.T) {
	uri, closeListener := listeningURI(t)
	defer closeListener()

	c, replier := newTestClient(t, &fakeHooks{}, time.Second)
	conn := model.Connection{ID: "conn-1", URI: uri, DesiredStatus: model.StatusOpen}
	c.Send(NewCreateConnection(conn, model.Origin{Address: "origin-1", Alive: true}, nil))

	replies := replier.waitFor(t, 1)
	success, ok := replies[0].(Success)
	require.True(t, ok)
	require.Equal(t, model.StateConnected, success.State)

	modified := model.Connection{ID: "conn-1", URI: uri, DesiredStatus: model.StatusOpen, ProcessorPoolSize: 7}
	c.Send(NewModifyConnection(modified, model.Origin{Address: "origin-2", Alive: true}, nil))

	replies = replier.waitFor(t, 2)
	second, ok := replies[1].(Success)
	require.True(t, ok)
	require.Equal(t, model.StateConnected, second.State)
	require.Equal(t, model.StateConnected, c.Data().State)
	require.Equal(t, 7, c.Data().Connection.ProcessorPoolSize)
}

func TestBaseClient_ModifyConnectionDuringConnectingRejected(t *testing.T) {
	uri, closeListener := listeningURI(t)
	defer closeListener()

	block := make(chan struct{})
	hooks := &fakeHooks{connectBlock: block}
	defer close(block)

	c, replier := newTestClient(t, hooks, time.Second)
	conn := model.Connection{ID: "conn-1", URI: uri, DesiredStatus: model.StatusOpen}
	c.Send(NewCreateConnection(conn, model.Origin{Address: "origin-1", Alive: true}, nil))

	// Poll until the machine has deterministically settled into
	// CONNECTING (DoConnect is blocked on the channel above) before
	// sending ModifyConnection, so it is guaranteed to be processed
	// against that state rather than racing an earlier one.
	require.Eventually(t, func() bool {
		return c.Data().State == model.StateConnecting
	}, time.Second, time.Millisecond)

	c.Send(NewModifyConnection(conn, model.Origin{Address: "origin-2", Alive: true}, nil))
	replies := replier.waitFor(t, 1)
	failure, ok := replies[0].(Failure)
	require.True(t, ok)
	require.Equal(t, ditterr.KindSignalInIllegalState, failure.Err.Kind())
}

func TestBaseClient_StateTimeoutFailsConnecting(t *testing.T) {
	uri, closeListener := listeningURI(t)
	defer closeListener()

	block := make(chan struct{}) // DoConnect never returns
	hooks := &fakeHooks{connectBlock: block}
	defer close(block)

	c, replier := newTestClient(t, hooks, 20*time.Millisecond)
	conn := model.Connection{ID: "conn-1", URI: uri, DesiredStatus: model.StatusOpen}
	c.Send(NewCreateConnection(conn, model.Origin{Address: "origin-1", Alive: true}, nil))

	replies := replier.waitFor(t, 1)
	failure, ok := replies[0].(Failure)
	require.True(t, ok)
	require.Equal(t, ditterr.KindConnectionFailed, failure.Err.Kind())
	require.Equal(t, model.StateUnknown, c.Data().State)
}
