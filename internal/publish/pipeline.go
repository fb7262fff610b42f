package publish

import (
	"context"
	"sync"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// OnFatal is invoked once when the dispatch loop's Transport fails in a
// way the pipeline treats as stream termination: bubbled up by the
// supervising client as a ConnectionFailure, never retried locally.
type OnFatal func(err error)

// Pipeline is the bounded publisher queue: a fixed-capacity channel with
// drop-newest overflow, drained by a single dispatch goroutine so
// responses complete in the same order requests were accepted — no
// separate bookkeeping is needed to preserve that order.
type Pipeline struct {
	connectionID string
	address      string
	transport    Transport
	o11y         observability.Observability
	onFatal      OnFatal
	registry     *metrics.Registry

	maxQueueSize int
	queue        chan *Context

	mu       sync.Mutex
	inFlight int

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// NewPipeline builds a Pipeline bound to one transport, admitting at
// most maxQueueSize Contexts at once — queued plus the one currently
// being sent — before drop-newest kicks in. address identifies the
// Target this Pipeline publishes to, for the DROPPED counter a
// queue-overflow drop increments in registry.
func NewPipeline(connectionID, address string, maxQueueSize int, transport Transport, registry *metrics.Registry, o11y observability.Observability, onFatal OnFatal) *Pipeline {
	p := &Pipeline{
		connectionID: connectionID,
		address:      address,
		transport:    transport,
		o11y:         o11y,
		onFatal:      onFatal,
		registry:     registry,
		maxQueueSize: maxQueueSize,
		queue:        make(chan *Context, maxQueueSize),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// Publish admits pc for sending and returns its Future immediately. Once
// maxQueueSize Contexts are admitted — queued or actively being sent —
// the next offer is dropped (never blocks) and its Future is completed
// in place with MessageSendingFailed.
func (p *Pipeline) Publish(signal model.Signal, autoAckTarget *model.Target, externalMessage model.ExternalMessage, maxTotalMessageSize, ackSizeQuota int64) *Future {
	future := NewFuture()

	p.mu.Lock()
	if p.inFlight >= p.maxQueueSize {
		p.mu.Unlock()
		p.recordDropped()
		future.Fail(&ditterr.MessageSendingFailed{Reason: "too many in-flight requests"})
		return future
	}
	p.inFlight++
	p.mu.Unlock()

	pc := &Context{
		Signal:              signal,
		AutoAckTarget:       autoAckTarget,
		ExternalMessage:     externalMessage,
		MaxTotalMessageSize: maxTotalMessageSize,
		AckSizeQuota:        ackSizeQuota,
		Future:              future,
	}

	select {
	case p.queue <- pc:
	default:
		// Unreachable in steady state: admission above already bounds
		// the queue to maxQueueSize entries. Guarded defensively so a
		// future refactor can't turn this into a silent blocking send.
		p.releaseSlot()
		p.recordDropped()
		future.Fail(&ditterr.MessageSendingFailed{Reason: "too many in-flight requests"})
	}
	return future
}

func (p *Pipeline) releaseSlot() {
	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
}

// recordDropped increments the per-target DROPPED counter for a
// publish-time drop (queue overflow) that never reaches the transport.
func (p *Pipeline) recordDropped() {
	if p.registry == nil {
		return
	}
	p.registry.Dropped(p.connectionID, model.DirectionOutbound, p.address).Increment(time.Now(), false)
}

// InFlight reports how many Contexts are currently admitted: queued plus
// the one actively being sent, if any.
func (p *Pipeline) InFlight() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}

// dispatch is the pipeline's single consumer: it owns strict enqueue
// order by construction, one Context at a time, never concurrently.
func (p *Pipeline) dispatch() {
	defer close(p.done)

	ctx := context.Background()
	for {
		// Checked non-blocking and ahead of the queue read so that once
		// Close is requested, a Context already sitting in the queue is
		// drained rather than dispatched — stopping never silently
		// starts one more send.
		select {
		case <-p.stopCh:
			p.drain(&ditterr.MessageSendingFailed{Reason: "publisher stream terminated"})
			return
		default:
		}

		select {
		case <-p.stopCh:
			p.drain(&ditterr.MessageSendingFailed{Reason: "publisher stream terminated"})
			return
		case pc := <-p.queue:
			p.send(ctx, pc)
		}
	}
}

func (p *Pipeline) send(ctx context.Context, pc *Context) {
	defer p.releaseSlot()

	resp, err := p.transport.Send(ctx, pc)
	if err != nil {
		p.o11y.Logger().Warn(ctx, "publish failed",
			observability.String("connection_id", p.connectionID),
			observability.Error(err))
		pc.Future.Fail(err)

		if isFatal(err) && p.onFatal != nil {
			p.onFatal(err)
		}
		return
	}
	pc.Future.Complete(resp)
}

// drain fails every Context still sitting in the queue with err, run
// once when the dispatch loop stops — stream termination is catastrophic
// for every in-flight publish, not just the one that triggered it.
func (p *Pipeline) drain(err error) {
	for {
		select {
		case pc := <-p.queue:
			pc.Future.Fail(err)
			p.releaseSlot()
		default:
			return
		}
	}
}

// Close stops the dispatch loop and fails every still-queued Context.
// Idempotent.
func (p *Pipeline) Close() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})
	<-p.done
}

// isFatal reports whether err should be treated as stream termination
// rather than a per-message failure — any typed ConnectionUnavailable or
// ConnectionFailed surfaced by the transport.
func isFatal(err error) bool {
	kinded, ok := err.(interface{ Kind() ditterr.Kind })
	if !ok {
		return false
	}
	switch kinded.Kind() {
	case ditterr.KindConnectionFailed, ditterr.KindConnectionUnavailable:
		return true
	default:
		return false
	}
}
