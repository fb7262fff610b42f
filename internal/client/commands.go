// Package client implements BaseClient, the per-connection state
// machine: single-threaded by construction, one event processed at a
// time, blocking transport work delegated to a worker pool and
// delivered back as an event.
package client

import "github.com/eclipse-ditto-go/connectivity-core/internal/model"

// Command is an inbound signal-bus command tagged with connectionId and
// dittoHeaders.
type Command interface {
	Origin() model.Origin
	Headers() map[string]string
}

type commandBase struct {
	origin  model.Origin
	headers map[string]string
}

func (c commandBase) Origin() model.Origin       { return c.origin }
func (c commandBase) Headers() map[string]string { return c.headers }

// CreateConnection stores conn as the client's desired configuration; if
// DesiredStatus is OPEN the client self-sends OpenConnection.
type CreateConnection struct {
	commandBase
	Connection model.Connection
}

func NewCreateConnection(conn model.Connection, origin model.Origin, headers map[string]string) CreateConnection {
	return CreateConnection{commandBase: commandBase{origin, headers}, Connection: conn}
}

// ModifyConnection replaces the client's Connection. From UNKNOWN or
// DISCONNECTED it is resent to self as CreateConnection; from CONNECTED
// the old pipelines and mapper are torn down and it is re-applied as
// CreateConnection from UNKNOWN; from CONNECTING, DISCONNECTING or
// TESTING it is rejected with SignalInIllegalState.
type ModifyConnection struct {
	commandBase
	Connection model.Connection
}

func NewModifyConnection(conn model.Connection, origin model.Origin, headers map[string]string) ModifyConnection {
	return ModifyConnection{commandBase: commandBase{origin, headers}, Connection: conn}
}

// OpenConnection requests a transition into CONNECTING.
type OpenConnection struct{ commandBase }

func NewOpenConnection(origin model.Origin, headers map[string]string) OpenConnection {
	return OpenConnection{commandBase{origin, headers}}
}

// CloseConnection requests a transition into DISCONNECTING.
type CloseConnection struct{ commandBase }

func NewCloseConnection(origin model.Origin, headers map[string]string) CloseConnection {
	return CloseConnection{commandBase{origin, headers}}
}

// DeleteConnection behaves like CloseConnection at the state-machine
// level; the supervisor is responsible for actually discarding the
// client afterwards.
type DeleteConnection struct{ commandBase }

func NewDeleteConnection(origin model.Origin, headers map[string]string) DeleteConnection {
	return DeleteConnection{commandBase{origin, headers}}
}

// TestConnection requests a one-shot combined transport+mapper check.
type TestConnection struct {
	commandBase
	Connection model.Connection
}

func NewTestConnection(conn model.Connection, origin model.Origin, headers map[string]string) TestConnection {
	return TestConnection{commandBase: commandBase{origin, headers}, Connection: conn}
}

// RetrieveConnectionMetrics asks for the current metrics snapshot;
// valid from any state.
type RetrieveConnectionMetrics struct{ commandBase }

func NewRetrieveConnectionMetrics(origin model.Origin, headers map[string]string) RetrieveConnectionMetrics {
	return RetrieveConnectionMetrics{commandBase{origin, headers}}
}
