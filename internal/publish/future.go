package publish

import (
	"context"
	"sync"

	"github.com/eclipse-ditto-go/connectivity-core/internal/model"
)

// Future is a single-value, single-completion result cell attached to
// every PublishContext: exactly one of Complete/Fail ever takes effect,
// every call after the first is silently ignored, and any number of
// goroutines may Wait concurrently.
type Future struct {
	done chan struct{}
	once sync.Once

	result model.CommandResponseOrAck
	err    error
}

// NewFuture returns an incomplete Future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Complete resolves the future with a success value. Idempotent: only
// the first Complete or Fail call has any effect.
func (f *Future) Complete(result model.CommandResponseOrAck) {
	f.once.Do(func() {
		f.result = result
		close(f.done)
	})
}

// Fail resolves the future with an error. Idempotent alongside Complete.
func (f *Future) Fail(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel closed once the future is resolved.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves, or ctx is done first.
func (f *Future) Wait(ctx context.Context) (model.CommandResponseOrAck, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return model.CommandResponseOrAck{}, ctx.Err()
	}
}
