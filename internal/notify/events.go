package notify

import "github.com/eclipse-ditto-go/connectivity-core/internal/model"

// ConnectionStatusChangedType is the event type ConnectionStatusChanged
// registers and dispatches under.
const ConnectionStatusChangedType = "connection.status_changed"

// ConnectionStatusChanged reports that a supervised connection's
// observed status moved from one value to another.
type ConnectionStatusChanged struct {
	ConnectionID string
	From         model.Status
	To           model.Status
}

func (ConnectionStatusChanged) EventType() string { return ConnectionStatusChangedType }
