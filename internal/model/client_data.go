package model

import "time"

// ClientState is one of the states the connectivity state machine can
// be in.
type ClientState string

const (
	StateUnknown       ClientState = "UNKNOWN"
	StateConnecting    ClientState = "CONNECTING"
	StateConnected     ClientState = "CONNECTED"
	StateDisconnecting ClientState = "DISCONNECTING"
	StateDisconnected  ClientState = "DISCONNECTED"
	StateTesting       ClientState = "TESTING"
)

// Origin identifies who issued the last state-changing command, so the
// reply can be addressed back to them.
type Origin struct {
	// Address is an opaque routing token for the signal bus (e.g. an
	// actor path or request id); empty means "no reply is expected"
	// (dead-letter / self-originated).
	Address string
	Alive   bool
}

// IsAddressable reports whether a reply can meaningfully be sent to this
// origin: not empty, not self, not a dead-letter sink.
func (o Origin) IsAddressable() bool {
	return o.Address != "" && o.Alive
}

// StatusDetails is the free-text explanation attached to ClientData,
// stamped with the time it was recorded.
type StatusDetails struct {
	Message   string
	Timestamp time.Time
}

// ClientData is the immutable state-machine payload for one connection.
// Every transition replaces it wholesale; fields are never mutated in
// place once published to the rest of the client.
type ClientData struct {
	ConnectionID string
	Connection   Connection

	// State is the fine-grained state-machine state (UNKNOWN/
	// CONNECTING/CONNECTED/...). ObservedStatus is the coarser
	// externally-reported open/closed/failed projection of State.
	State          ClientState
	ObservedStatus Status
	DesiredStatus  Status
	StatusDetails  StatusDetails
	InStatusSince  time.Time

	// SessionID is minted on entry to CONNECTING and cleared on
	// disconnect; it correlates every log line of one connection
	// attempt.
	SessionID string

	Origin             Origin
	LastCommandHeaders map[string]string
}

// WithStatus returns a copy of d with ObservedStatus, StatusDetails and
// InStatusSince replaced. Like the other With* methods it leaves d
// itself untouched, since the type is conceptually immutable.
func (d ClientData) WithStatus(status Status, detailMessage string, now time.Time) ClientData {
	next := d
	next.ObservedStatus = status
	next.StatusDetails = StatusDetails{Message: detailMessage, Timestamp: now}
	next.InStatusSince = now
	return next
}

// WithState returns a copy of d with State (and InStatusSince) replaced.
// The state machine calls this on every transition; ObservedStatus is
// updated separately via WithStatus.
func (d ClientData) WithState(state ClientState, now time.Time) ClientData {
	next := d
	next.State = state
	next.InStatusSince = now
	return next
}

// WithOrigin returns a copy of d with Origin and LastCommandHeaders
// replaced.
func (d ClientData) WithOrigin(origin Origin, headers map[string]string) ClientData {
	next := d
	next.Origin = origin
	next.LastCommandHeaders = headers
	return next
}

// WithConnection returns a copy of d with Connection replaced — used by
// CreateConnection/ModifyConnection.
func (d ClientData) WithConnection(conn Connection) ClientData {
	next := d
	next.Connection = conn
	next.DesiredStatus = conn.DesiredStatus
	return next
}

// WithSessionID returns a copy of d with SessionID replaced.
func (d ClientData) WithSessionID(sessionID string) ClientData {
	next := d
	next.SessionID = sessionID
	return next
}
