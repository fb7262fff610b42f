// Package idgen mints identifiers used across the pipeline: ULIDs for
// things that benefit from being sortable-by-time (client session ids)
// and UUIDs for correlation ids attached to outbound commands, following
// the same generation approach as pkg/vos/ulid.go.
package idgen

import (
	"crypto/rand"
	"errors"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrInvalidULID is returned by NewSessionID if a zero-value ULID
// somehow made it through generation (entropy source failure).
var ErrInvalidULID = errors.New("idgen: invalid ulid")

// NewSessionID mints a ULID suitable for ClientData.sessionID: unique,
// sortable by minting time, useful to correlate every log line of one
// connection attempt.
func NewSessionID() (string, error) {
	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return "", err
	}
	if id.Compare(ulid.ULID{}) == 0 {
		return "", ErrInvalidULID
	}
	return id.String(), nil
}

// NewCorrelationID mints a UUID for dittoHeaders correlation-id and
// PublishContext identity.
func NewCorrelationID() string {
	return uuid.NewString()
}
