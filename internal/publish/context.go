package publish

import "github.com/eclipse-ditto-go/connectivity-core/internal/model"

// Context is the in-flight publish descriptor (also called
// PublishContext): everything a Transport needs to build and send one
// request, plus the Future its eventual (or immediate) result completes.
//
// Lifetime: from Pipeline.Publish until a response arrives or the queue
// drops it; exactly one completion of Future, enforced by Future itself.
type Context struct {
	Signal              model.Signal
	AutoAckTarget       *model.Target
	ExternalMessage     model.ExternalMessage
	MaxTotalMessageSize int64
	AckSizeQuota        int64

	// Request is an opaque slot for a protocol-specific built message.
	// Neither Pipeline nor the transports in this module set or read it;
	// the HTTP-push publisher builds its *http.Request on each send.
	Request any

	Future *Future
}
