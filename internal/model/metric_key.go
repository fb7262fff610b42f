package model

// Metric is one of the five counted event kinds.
type Metric string

const (
	MetricConsumed  Metric = "CONSUMED"
	MetricMapped    Metric = "MAPPED"
	MetricFiltered  Metric = "FILTERED"
	MetricDropped   Metric = "DROPPED"
	MetricPublished Metric = "PUBLISHED"
)

// Direction is inbound (source -> signal bus) or outbound (signal bus ->
// target).
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// ResponsesAddress is the reserved sentinel address for command
// responses; it must never collide with a user-configured Source/Target
// address.
const ResponsesAddress = "_responses"

// CounterKey identifies one SlidingWindowCounter in the MetricsRegistry.
type CounterKey struct {
	ConnectionID string
	Metric       Metric
	Direction    Direction
	Address      string
}
