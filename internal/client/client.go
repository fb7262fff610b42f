package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/mapping"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/publish"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport"
	"github.com/eclipse-ditto-go/connectivity-core/internal/workerpool"
)

// Deps bundles BaseClient's collaborators — the protocol binding, the
// mapper factory, the shared metrics registry, and the reply sink — so
// construction reads as one call instead of a long positional list.
type Deps struct {
	Hooks         transport.Hooks
	MapperFactory mapping.Factory
	MapperRuntime mapping.Runtime
	Registry      *metrics.Registry
	Replier       Replier
	Observability observability.Observability
	Workers       *workerpool.Pool

	TCPPrecheckTimeout     time.Duration
	StateTimeout           time.Duration
	RetrieveMetricsTimeout time.Duration
}

// BaseClient is the per-connection connectivity state machine: one
// scheduling token, one mailbox, every event processed serially.
type BaseClient struct {
	deps Deps
	data model.ClientData

	mapper    mapping.MessageMapper
	pipelines map[string]*publish.Pipeline

	mailbox chan any
	epoch   uint64

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// New constructs a BaseClient for connectionID, starting in UNKNOWN with
// an empty Connection — the first CreateConnection populates it.
func New(connectionID string, deps Deps) *BaseClient {
	c := &BaseClient{
		deps: deps,
		data: model.ClientData{
			ConnectionID:   connectionID,
			State:          model.StateUnknown,
			ObservedStatus: model.StatusUnknown,
			InStatusSince:  time.Now(),
		},
		pipelines: make(map[string]*publish.Pipeline),
		mailbox:   make(chan any, 64),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}
	go c.run()
	return c
}

// Data returns a snapshot of the current ClientData. Safe to call from
// any goroutine: the snapshot is taken by the event loop itself through
// a mailbox request, so it never races a state transition. Returns the
// zero ClientData once the client has stopped.
func (c *BaseClient) Data() model.ClientData {
	result := make(chan model.ClientData, 1)
	select {
	case c.mailbox <- dataRequest{reply: result}:
	case <-c.done:
		return model.ClientData{}
	}
	select {
	case d := <-result:
		return d
	case <-c.done:
		return model.ClientData{}
	}
}

type dataRequest struct {
	reply chan model.ClientData
}

// Send delivers a Command to the client's mailbox. Never blocks the
// caller for longer than it takes to enqueue.
func (c *BaseClient) Send(cmd Command) {
	select {
	case c.mailbox <- cmd:
	case <-c.done:
	}
}

// Stop halts the event loop, tears down every publisher pipeline, and
// releases the mapper. Idempotent.
func (c *BaseClient) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	<-c.done
}

func (c *BaseClient) run() {
	defer close(c.done)
	defer c.stopMapper()
	defer c.teardownPipelines()

	for {
		select {
		case <-c.stopCh:
			return
		case msg := <-c.mailbox:
			c.dispatch(msg)
		}
	}
}

func (c *BaseClient) dispatch(msg any) {
	switch m := msg.(type) {
	case dataRequest:
		m.reply <- c.data
	case pipelineRequest:
		m.reply <- c.pipelines[m.target]
	case RetrieveConnectionMetrics:
		c.handleRetrieveMetrics(m)
	case ModifyConnection:
		c.handleModifyConnection(m)
	case stateTimeout:
		if m.epoch == c.epoch {
			c.handleStateTimeout()
		}
	default:
		c.dispatchStateSpecific(msg)
	}
}

func (c *BaseClient) dispatchStateSpecific(msg any) {
	switch c.data.State {
	case model.StateUnknown:
		c.handleUnknown(msg)
	case model.StateConnecting:
		c.handleConnecting(msg)
	case model.StateConnected:
		c.handleConnected(msg)
	case model.StateDisconnecting:
		c.handleDisconnecting(msg)
	case model.StateDisconnected:
		c.handleDisconnected(msg)
	case model.StateTesting:
		c.handleTesting(msg)
	default:
		c.replyIllegal(msg)
	}
}

// replyIllegal implements the "any -> unhandled signal" row: logged, and
// the sender (if addressable) gets SignalInIllegalState.
func (c *BaseClient) replyIllegal(msg any) {
	origin, headers := originAndHeaders(msg)

	c.deps.Observability.Logger().Warn(context.Background(), "unhandled signal in state",
		observability.String("connection_id", c.data.ConnectionID),
		observability.String("state", string(c.data.State)),
		observability.Any("signal", msg))

	if !origin.IsAddressable() {
		return
	}
	c.deps.Replier.Reply(origin, headers, Failure{Err: &ditterr.SignalInIllegalState{
		Operation: strings.ToLower(string(c.data.State)),
		Timeout:   c.deps.StateTimeout,
	}})
}

func originAndHeaders(msg any) (model.Origin, map[string]string) {
	if cmd, ok := msg.(Command); ok {
		return cmd.Origin(), cmd.Headers()
	}
	return model.Origin{}, nil
}

// transitionTo replaces State and arms a fresh state-timeout if timeout > 0;
// any previously-armed timer becomes a no-op because its epoch no longer
// matches.
func (c *BaseClient) transitionTo(state model.ClientState, timeout time.Duration) {
	previous := c.data.State
	c.data = c.data.WithState(state, time.Now())
	c.epoch++
	epoch := c.epoch

	c.deps.Observability.Logger().Info(context.Background(), "client state transition",
		observability.String("connection_id", c.data.ConnectionID),
		observability.String("from", string(previous)),
		observability.String("to", string(state)),
		observability.String("session_id", c.data.SessionID))

	if timeout <= 0 {
		return
	}
	mailbox := c.mailbox
	done := c.done
	time.AfterFunc(timeout, func() {
		select {
		case mailbox <- stateTimeout{epoch: epoch}:
		case <-done:
		}
	})
}

func (c *BaseClient) teardownPipelines() {
	for _, p := range c.pipelines {
		p.Close()
	}
	c.pipelines = make(map[string]*publish.Pipeline)
}
