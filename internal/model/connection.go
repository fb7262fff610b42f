// Package model holds the data types shared across the client,
// publisher and metrics packages: Connection configuration, the
// ClientState/ClientData state-machine payload and the counter key
// type used to address sliding-window counters.
package model

// Status is a Connection's desired or observed open/closed state.
type Status string

const (
	StatusOpen    Status = "OPEN"
	StatusClosed  Status = "CLOSED"
	StatusFailed  Status = "FAILED"
	StatusUnknown Status = "UNKNOWN"
)

// Source declares one inbound address a Connection consumes from.
type Source struct {
	Address              string
	AuthorizationContext []string
	ConsumerCount        int
	Filters              []string
}

// Target declares one outbound address a Connection publishes to.
type Target struct {
	Address              string
	Topics               []string
	AuthorizationContext []string
	// AutoAckLabel is the acknowledgement label this target requests,
	// if any; empty means the diagnostic sentinel label is used.
	AutoAckLabel string

	// HTTPMethod and URITemplate carry the HTTP-push specialization's
	// per-target wire configuration: the request method and the template
	// URI. No TLS or authentication parameters are carried per Target.
	// URITemplate defaults to Address when empty.
	HTTPMethod  string
	URITemplate string
}

// MappingContext configures the MessageMapper to construct for a
// Connection; its fields are opaque to the core and passed through to
// the configured mapping.Factory.
type MappingContext struct {
	MapperType string
	Options    map[string]string
}

// URI is a Connection's transport endpoint.
type URI struct {
	Host string
	Port int
}

// Credentials is the auth/vhost a broker-backed transport.Hooks
// implementation (amqp091, kafka with SASL) authenticates with. A
// stateless transport such as HTTP-push ignores it.
type Credentials struct {
	Username string
	Password string
	VHost    string
	UseTLS   bool
}

// ConnectionType names the wire protocol a Connection's Hooks
// implementation must speak.
type ConnectionType string

const (
	ConnectionTypeHTTPPush ConnectionType = "http-push"
	ConnectionTypeAMQP091  ConnectionType = "amqp-0-9-1"
	ConnectionTypeKafka    ConnectionType = "kafka"
)

// Connection is the immutable configuration record for one managed
// connection. It is replaced wholesale on ModifyConnection — never
// mutated in place.
type Connection struct {
	ID             string
	ConnectionType ConnectionType
	URI            URI
	Credentials    Credentials
	DesiredStatus  Status
	Sources        []Source
	Targets        []Target
	MappingContext *MappingContext

	// ProcessorPoolSize is used by the transport hooks as the queue size
	// (maxQueueSize) of each per-target publish.Pipeline; values below 1
	// are treated as 1. Each Pipeline dispatches on a single goroutine.
	ProcessorPoolSize int

	// ClientCount is the number of parallel client actors this
	// connection runs; scheduling them across a cluster is out of
	// scope, but the field composes with Source.ConsumerCount.
	ClientCount int

	// FailoverEnabled and ValidateCertificates are pass-through
	// configuration a transport.Hooks implementation may or may not
	// interpret; the core never branches on them.
	FailoverEnabled      bool
	ValidateCertificates bool

	// MaxTotalMessageSize and AckSizeQuota are carried as configuration
	// only; no package here reads them from the Connection. The response
	// body limits in effect are the ones passed to Pipeline.Publish.
	MaxTotalMessageSize int64
	AckSizeQuota        int64
}
