// Package httpclient is the observable HTTP doer the HTTP-push publisher
// sends requests through: every request gets a client span plus request
// count/error/latency metrics, regardless of which target it is aimed
// at.
package httpclient

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Doer is the minimal surface httppush.Publisher depends on, so tests can
// substitute a fake without pulling in the full ObservableClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}
