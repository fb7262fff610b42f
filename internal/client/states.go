package client

import (
	"context"
	"time"

	"github.com/eclipse-ditto-go/connectivity-core/internal/ditterr"
	"github.com/eclipse-ditto-go/connectivity-core/internal/idgen"
	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
	"github.com/eclipse-ditto-go/connectivity-core/internal/transport"
)

func (c *BaseClient) handleUnknown(msg any) {
	switch m := msg.(type) {
	case CreateConnection:
		c.data = c.data.WithConnection(m.Connection).WithOrigin(m.Origin(), m.Headers())
		if m.Connection.DesiredStatus == model.StatusOpen {
			c.Send(NewOpenConnection(m.Origin(), m.Headers()))
		}

	case OpenConnection:
		c.data = c.data.WithOrigin(m.Origin(), m.Headers())
		if err := c.precheck(); err != nil {
			c.replyFailure(m.Origin(), m.Headers(), err)
			return
		}
		sessionID, err := idgen.NewSessionID()
		if err == nil {
			c.data = c.data.WithSessionID(sessionID)
		}
		c.transitionTo(model.StateConnecting, c.deps.StateTimeout)
		c.startConnect()

	case CloseConnection:
		c.beginDisconnect(m.Origin(), m.Headers())
	case DeleteConnection:
		c.beginDisconnect(m.Origin(), m.Headers())

	case TestConnection:
		c.data = c.data.WithConnection(m.Connection).WithOrigin(m.Origin(), m.Headers())
		if err := c.precheck(); err != nil {
			c.replyFailure(m.Origin(), m.Headers(), err)
			return
		}
		c.transitionTo(model.StateTesting, c.deps.StateTimeout)
		c.startTest()

	default:
		c.replyIllegal(msg)
	}
}

func (c *BaseClient) handleConnecting(msg any) {
	switch m := msg.(type) {
	case clientConnected:
		c.startMapper()
		c.setupPipelines()
		c.transitionTo(model.StateConnected, 0)
		c.data = c.data.WithStatus(model.StatusOpen, "connected", time.Now())
		c.replySuccess(model.StateConnected)

	case connectionFailure:
		c.recordFailureAndReturnToUnknown(m.err)

	default:
		c.replyIllegal(msg)
	}
}

func (c *BaseClient) handleConnected(msg any) {
	switch m := msg.(type) {
	case CloseConnection:
		c.beginDisconnect(m.Origin(), m.Headers())
	case DeleteConnection:
		c.beginDisconnect(m.Origin(), m.Headers())

	case connectionFailure:
		c.recordFailureAndReturnToUnknown(m.err)

	default:
		c.replyIllegal(msg)
	}
}

func (c *BaseClient) handleDisconnecting(msg any) {
	switch msg.(type) {
	case clientDisconnected:
		c.stopMapper()
		c.teardownPipelines()
		c.data = c.data.WithSessionID("")
		c.transitionTo(model.StateDisconnected, 0)
		c.data = c.data.WithStatus(model.StatusClosed, "disconnected", time.Now())
		c.replySuccess(model.StateDisconnected)

	default:
		c.replyIllegal(msg)
	}
}

func (c *BaseClient) handleDisconnected(msg any) {
	switch m := msg.(type) {
	case OpenConnection:
		c.data = c.data.WithOrigin(m.Origin(), m.Headers())
		if err := c.precheck(); err != nil {
			c.replyFailure(m.Origin(), m.Headers(), err)
			return
		}
		if sessionID, err := idgen.NewSessionID(); err == nil {
			c.data = c.data.WithSessionID(sessionID)
		}
		c.transitionTo(model.StateConnecting, c.deps.StateTimeout)
		c.startConnect()

	case CreateConnection:
		c.data = c.data.WithConnection(m.Connection).WithOrigin(m.Origin(), m.Headers())
		if err := c.precheck(); err != nil {
			c.replyFailure(m.Origin(), m.Headers(), err)
			return
		}
		if sessionID, err := idgen.NewSessionID(); err == nil {
			c.data = c.data.WithSessionID(sessionID)
		}
		c.transitionTo(model.StateConnecting, c.deps.StateTimeout)
		c.startConnect()

	default:
		c.replyIllegal(msg)
	}
}

func (c *BaseClient) handleTesting(msg any) {
	switch m := msg.(type) {
	case testOutcome:
		origin, headers := c.data.Origin, c.data.LastCommandHeaders
		if m.err != nil {
			c.replyFailure(origin, headers, &ditterr.ConnectionUnavailable{Description: "test connection failed", Err: m.err})
		} else {
			c.replySuccess(model.StateTesting)
		}
		// The test is one-shot: the machine reverts to UNKNOWN rather
		// than staying in TESTING.
		c.transitionTo(model.StateUnknown, 0)

	default:
		c.replyIllegal(msg)
	}
}

// handleStateTimeout implements the per-volatile-state timeout row of
// the transition table.
func (c *BaseClient) handleStateTimeout() {
	switch c.data.State {
	case model.StateConnecting, model.StateDisconnecting:
		origin, headers := c.data.Origin, c.data.LastCommandHeaders
		c.replyFailure(origin, headers, &ditterr.ConnectionFailed{
			Host:        c.data.Connection.URI.Host,
			Port:        c.data.Connection.URI.Port,
			Description: "state timed out",
		})
		c.transitionTo(model.StateUnknown, 0)

	case model.StateTesting:
		origin, headers := c.data.Origin, c.data.LastCommandHeaders
		c.replyFailure(origin, headers, &ditterr.ConnectionUnavailable{Description: "test connection timed out"})
		c.transitionTo(model.StateUnknown, 0)
	}
}

// handleModifyConnection applies a ModifyConnection from whatever state
// the client is currently in. From UNKNOWN/DISCONNECTED there is no live
// connection to replace, so it degrades to a plain self-sent
// CreateConnection. From CONNECTED it drains every in-flight publish
// against the old configuration — each pipeline's Close lets its
// currently-dispatching send finish before failing anything still
// queued — then re-enters as if CreateConnection(c) had been sent to a
// fresh client, so two ModifyConnections in a row from CONNECTED end up
// equivalent to one CreateConnection. A transition already in flight
// (CONNECTING/DISCONNECTING/TESTING) is rejected rather than raced.
func (c *BaseClient) handleModifyConnection(m ModifyConnection) {
	switch c.data.State {
	case model.StateUnknown, model.StateDisconnected:
		c.Send(NewCreateConnection(m.Connection, m.Origin(), m.Headers()))

	case model.StateConnected:
		c.teardownPipelines()
		c.stopMapper()
		c.transitionTo(model.StateUnknown, 0)
		c.handleUnknown(NewCreateConnection(m.Connection, m.Origin(), m.Headers()))

	default:
		c.replyIllegal(m)
	}
}

func (c *BaseClient) handleRetrieveMetrics(m RetrieveConnectionMetrics) {
	now := time.Now()
	sources := c.deps.Registry.AggregateSources(c.data.ConnectionID, now)
	targets := c.deps.Registry.AggregateTargets(c.data.ConnectionID, now)

	if !m.Origin().IsAddressable() {
		return
	}
	c.deps.Replier.Reply(m.Origin(), m.Headers(), MetricsResponse{
		ConnectionID: c.data.ConnectionID,
		Sources:      sources,
		Targets:      targets,
	})
}

func (c *BaseClient) beginDisconnect(origin model.Origin, headers map[string]string) {
	c.data = c.data.WithOrigin(origin, headers)
	c.transitionTo(model.StateDisconnecting, c.deps.StateTimeout)
	c.startDisconnect()
}

func (c *BaseClient) precheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.deps.TCPPrecheckTimeout)
	defer cancel()
	return transport.TCPPrecheck(ctx, c.data.Connection.URI, c.deps.TCPPrecheckTimeout)
}

func (c *BaseClient) recordFailureAndReturnToUnknown(err error) {
	c.teardownPipelines()
	c.stopMapper()
	c.data = c.data.WithStatus(model.StatusFailed, errDesc(err), time.Now())
	origin, headers := c.data.Origin, c.data.LastCommandHeaders
	c.transitionTo(model.StateUnknown, 0)
	c.replyFailure(origin, headers, err)
}

func (c *BaseClient) replySuccess(state model.ClientState) {
	if !c.data.Origin.IsAddressable() {
		return
	}
	c.deps.Replier.Reply(c.data.Origin, c.data.LastCommandHeaders, Success{State: state})
}

func (c *BaseClient) replyFailure(origin model.Origin, headers map[string]string, err error) {
	c.deps.Observability.Logger().Warn(context.Background(), "client operation failed",
		observability.String("connection_id", c.data.ConnectionID),
		observability.Error(err))

	if !origin.IsAddressable() {
		return
	}
	if dre, ok := err.(ditterr.DittoRuntimeException); ok {
		c.deps.Replier.Reply(origin, headers, Failure{Err: dre})
		return
	}
	c.deps.Replier.Reply(origin, headers, Failure{Err: &ditterr.ConnectionFailed{
		Host:        c.data.Connection.URI.Host,
		Port:        c.data.Connection.URI.Port,
		Description: errDesc(err),
		Err:         err,
	}})
}

func errDesc(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
