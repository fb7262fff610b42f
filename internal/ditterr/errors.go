// Package ditterr implements the connectivity service's runtime
// exception taxonomy as concrete Go types, following the same
// Op+Unwrap pattern as pkg/consumer/errors.go.
package ditterr

import (
	"fmt"
	"time"
)

// Kind names one of the abstract runtime exception categories. Callers
// that only care about the category (e.g. to pick an HTTP status
// for the diagnostic surface) can branch on Kind() without an errors.As
// type-switch over every concrete struct.
type Kind string

const (
	KindSignalInIllegalState       Kind = "signal-in-illegal-state"
	KindConnectionFailed           Kind = "connection-failed"
	KindConnectionUnavailable      Kind = "connection-unavailable"
	KindMessageSendingFailed       Kind = "message-sending-failed"
	KindMapperConfigurationError   Kind = "mapper-configuration-error"
	KindAcknowledgementLabelNotUnique Kind = "acknowledgement-label-not-unique"
)

// DittoRuntimeException is implemented by every error type in this
// package, and by mapper-originated errors forwarded verbatim.
type DittoRuntimeException interface {
	error
	Kind() Kind
}

// SignalInIllegalState is returned when a lifecycle command arrives
// while the client is in an incompatible state for handling it.
type SignalInIllegalState struct {
	Operation string // lower-cased current state, e.g. "connected"
	Timeout   time.Duration
}

func (e *SignalInIllegalState) Kind() Kind { return KindSignalInIllegalState }

func (e *SignalInIllegalState) Error() string {
	return fmt.Sprintf("signal illegal in state %q (reply timeout %s)", e.Operation, e.Timeout)
}

// ConnectionFailed carries the host:port that could not be reached or
// whose protocol handshake failed.
type ConnectionFailed struct {
	Host        string
	Port        int
	Description string
	Err         error
}

func (e *ConnectionFailed) Kind() Kind { return KindConnectionFailed }

func (e *ConnectionFailed) Error() string {
	return fmt.Sprintf("connection failed to %s:%d: %s", e.Host, e.Port, e.Description)
}

func (e *ConnectionFailed) Unwrap() error { return e.Err }

// ConnectionUnavailable is returned when TestConnection times out or the
// transport reports the endpoint unreachable.
type ConnectionUnavailable struct {
	Description string
	Err         error
}

func (e *ConnectionUnavailable) Kind() Kind { return KindConnectionUnavailable }

func (e *ConnectionUnavailable) Error() string {
	return fmt.Sprintf("connection unavailable: %s", e.Description)
}

func (e *ConnectionUnavailable) Unwrap() error { return e.Err }

// MessageSendingFailed is a publish-time failure: queue overflow, unknown
// response status, body size exceeded, or stream termination.
type MessageSendingFailed struct {
	Reason string
	Err    error
}

func (e *MessageSendingFailed) Kind() Kind { return KindMessageSendingFailed }

func (e *MessageSendingFailed) Error() string {
	return fmt.Sprintf("message sending failed: %s", e.Reason)
}

func (e *MessageSendingFailed) Unwrap() error { return e.Err }

// MapperConfigurationError wraps a DittoRuntimeException raised during
// MessageMapper initialization; it is transient and propagated to the
// command origin verbatim.
type MapperConfigurationError struct {
	Cause error
}

func (e *MapperConfigurationError) Kind() Kind { return KindMapperConfigurationError }

func (e *MapperConfigurationError) Error() string {
	return fmt.Sprintf("mapper configuration error: %v", e.Cause)
}

func (e *MapperConfigurationError) Unwrap() error { return e.Cause }

// AcknowledgementLabelNotUnique is surfaced by the subscription/
// declaration plane outside publisher core; carried here only for
// taxonomy completeness.
type AcknowledgementLabelNotUnique struct {
	Label string
}

func (e *AcknowledgementLabelNotUnique) Kind() Kind { return KindAcknowledgementLabelNotUnique }

func (e *AcknowledgementLabelNotUnique) Error() string {
	return fmt.Sprintf("acknowledgement label %q declared more than once", e.Label)
}
