package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability/noop"
)

type fakeSignal struct{ id string }

func (s fakeSignal) ID() string                 { return s.id }
func (s fakeSignal) Headers() map[string]string { return nil }

func blockingTransport(release <-chan struct{}) Transport {
	return TransportFunc(func(ctx context.Context, pc *Context) (model.CommandResponseOrAck, error) {
		<-release
		return model.CommandResponseOrAck{Acknowledgement: model.Acknowledgement{Label: "ack", StatusCode: 204}}, nil
	})
}

func TestPipeline_PublishCompletesOnSuccess(t *testing.T) {
	o11y := noop.NewProvider()
	transport := TransportFunc(func(ctx context.Context, pc *Context) (model.CommandResponseOrAck, error) {
		return model.CommandResponseOrAck{Acknowledgement: model.Acknowledgement{Label: "ack", StatusCode: 204}}, nil
	})
	registry := metrics.NewRegistry([]time.Duration{time.Minute})
	p := NewPipeline("conn-1", "addr", 4, transport, registry, o11y, nil)
	defer p.Close()

	future := p.Publish(fakeSignal{id: "c-1"}, nil, model.ExternalMessage{}, 1024, 1024)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := future.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 204, result.Acknowledgement.StatusCode)
}

func TestPipeline_QueueOverflowDropsNewest(t *testing.T) {
	release := make(chan struct{})
	o11y := noop.NewProvider()
	registry := metrics.NewRegistry([]time.Duration{time.Minute})
	p := NewPipeline("conn-1", "addr", 2, blockingTransport(release), registry, o11y, nil)
	defer func() {
		close(release)
		p.Close()
	}()

	// a is picked up by the dispatch loop and blocks on the transport; it
	// still counts against maxQueueSize until the transport returns.
	a := p.Publish(fakeSignal{id: "a"}, nil, model.ExternalMessage{}, 1024, 1024)
	time.Sleep(20 * time.Millisecond)

	b := p.Publish(fakeSignal{id: "b"}, nil, model.ExternalMessage{}, 1024, 1024)
	c := p.Publish(fakeSignal{id: "c"}, nil, model.ExternalMessage{}, 1024, 1024)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := c.Wait(ctx)
	require.Error(t, err)
	var sendingFailed *ditterr.MessageSendingFailed
	require.ErrorAs(t, err, &sendingFailed)
	require.Equal(t, "too many in-flight requests", sendingFailed.Reason)
	require.Zero(t, result)

	require.False(t, isResolved(a))
	require.False(t, isResolved(b))

	measurement, ok := registry.Dropped("conn-1", model.DirectionOutbound, "addr").Counts(time.Now(), time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(1), measurement.FailureCount)
}

func isResolved(f *Future) bool {
	select {
	case <-f.Done():
		return true
	default:
		return false
	}
}

func TestPipeline_CloseDrainsPendingWithFailure(t *testing.T) {
	release := make(chan struct{})
	o11y := noop.NewProvider()
	registry := metrics.NewRegistry([]time.Duration{time.Minute})
	p := NewPipeline("conn-1", "addr", 4, blockingTransport(release), registry, o11y, nil)

	a := p.Publish(fakeSignal{id: "a"}, nil, model.ExternalMessage{}, 1024, 1024)
	time.Sleep(20 * time.Millisecond)
	b := p.Publish(fakeSignal{id: "b"}, nil, model.ExternalMessage{}, 1024, 1024)

	closeDone := make(chan struct{})
	go func() {
		p.Close()
		close(closeDone)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case <-closeDone:
	case <-time.After(time.Second):
		t.Fatal("Close never returned")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	aResult, err := a.Wait(ctx)
	require.NoError(t, err)
	require.Equal(t, 204, aResult.Acknowledgement.StatusCode)

	_, err = b.Wait(ctx)
	require.Error(t, err)
}

func TestPipeline_FatalTransportErrorInvokesOnFatal(t *testing.T) {
	var fatalErr error
	fatal := make(chan struct{})
	transport := TransportFunc(func(ctx context.Context, pc *Context) (model.CommandResponseOrAck, error) {
		return model.CommandResponseOrAck{}, &ditterr.ConnectionUnavailable{Description: "peer reset"}
	})
	o11y := noop.NewProvider()
	registry := metrics.NewRegistry([]time.Duration{time.Minute})
	p := NewPipeline("conn-1", "addr", 4, transport, registry, o11y, func(err error) {
		fatalErr = err
		close(fatal)
	})
	defer p.Close()

	future := p.Publish(fakeSignal{id: "a"}, nil, model.ExternalMessage{}, 1024, 1024)

	select {
	case <-fatal:
	case <-time.After(time.Second):
		t.Fatal("onFatal was never invoked")
	}
	require.Error(t, fatalErr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := future.Wait(ctx)
	require.Error(t, err)
}
