package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEvent struct {
	eventType string
}

func (e testEvent) EventType() string { return e.eventType }

type testHandler struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (h *testHandler) Handle(ctx context.Context, event Event) error {
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return h.err
}

func (h *testHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func TestDispatcher_RegisterAndDispatch(t *testing.T) {
	d := NewDispatcher()
	h := &testHandler{}

	require.NoError(t, d.Register("conn.status", h))
	assert.True(t, d.Has("conn.status", h))

	require.NoError(t, d.Dispatch(context.Background(), testEvent{eventType: "conn.status"}))
	assert.Equal(t, 1, h.callCount())
}

func TestDispatcher_MultipleHandlersEachCalledOnce(t *testing.T) {
	d := NewDispatcher()
	h1, h2, h3 := &testHandler{}, &testHandler{}, &testHandler{}

	require.NoError(t, d.Register("conn.status", h1))
	require.NoError(t, d.Register("conn.status", h2))
	require.NoError(t, d.Register("conn.status", h3))

	require.NoError(t, d.Dispatch(context.Background(), testEvent{eventType: "conn.status"}))
	assert.Equal(t, 1, h1.callCount())
	assert.Equal(t, 1, h2.callCount())
	assert.Equal(t, 1, h3.callCount())
}

func TestDispatcher_DispatchNoHandlersIsNotAnError(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Dispatch(context.Background(), testEvent{eventType: "unknown"}))
}

func TestDispatcher_RegisterRejectsInvalidInput(t *testing.T) {
	d := NewDispatcher()

	err := d.Register("", &testHandler{})
	assert.ErrorIs(t, err, ErrEventTypeEmpty)

	err = d.Register("conn.status", nil)
	assert.ErrorIs(t, err, ErrHandlerNil)
}

func TestDispatcher_RegisterDuplicateRejected(t *testing.T) {
	d := NewDispatcher()
	h := &testHandler{}

	require.NoError(t, d.Register("conn.status", h))
	err := d.Register("conn.status", h)
	assert.ErrorIs(t, err, ErrHandlerAlreadyRegistered)
}

func TestDispatcher_DispatchNilEvent(t *testing.T) {
	d := NewDispatcher()
	err := d.Dispatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEventNil)
}

func TestDispatcher_DispatchStopsOnFirstHandlerError(t *testing.T) {
	d := NewDispatcher()
	wantErr := errors.New("handler boom")
	h1 := &testHandler{}
	h2 := &testHandler{err: wantErr}
	h3 := &testHandler{}

	require.NoError(t, d.Register("conn.status", h1))
	require.NoError(t, d.Register("conn.status", h2))
	require.NoError(t, d.Register("conn.status", h3))

	err := d.Dispatch(context.Background(), testEvent{eventType: "conn.status"})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, h1.callCount())
	assert.Equal(t, 1, h2.callCount())
	assert.Equal(t, 0, h3.callCount())
}

func TestDispatcher_DispatchRespectsContextCancellation(t *testing.T) {
	d := NewDispatcher()
	h := &testHandler{delay: 50 * time.Millisecond}
	require.NoError(t, d.Register("conn.status", h))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := d.Dispatch(ctx, testEvent{eventType: "conn.status"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_RemoveOnlyFirstOccurrence(t *testing.T) {
	d := NewDispatcher()
	h := &testHandler{}

	d.mu.Lock()
	d.handlers["conn.status"] = append(d.handlers["conn.status"], h, h)
	d.mu.Unlock()

	d.Remove("conn.status", h)
	assert.True(t, d.Has("conn.status", h), "second registered instance should remain")
}

func TestDispatcher_RemoveUnknownHandlerIsNoop(t *testing.T) {
	d := NewDispatcher()
	assert.NotPanics(t, func() { d.Remove("conn.status", &testHandler{}) })
}

func TestDispatcher_Clear(t *testing.T) {
	d := NewDispatcher()
	h1, h2 := &testHandler{}, &testHandler{}
	require.NoError(t, d.Register("event.a", h1))
	require.NoError(t, d.Register("event.b", h2))

	d.Clear()

	assert.False(t, d.Has("event.a", h1))
	assert.False(t, d.Has("event.b", h2))
}

func TestDispatcher_NilDispatcherIsSafeToUse(t *testing.T) {
	var d *Dispatcher
	assert.NoError(t, d.Dispatch(context.Background(), testEvent{eventType: "conn.status"}))
}

func TestDispatcher_ConcurrentRegisterAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var wg sync.WaitGroup

	const n = 50
	wg.Add(n * 2)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			d.Register("conn.status", &testHandler{})
		}()
		go func() {
			defer wg.Done()
			d.Dispatch(context.Background(), testEvent{eventType: "conn.status"})
		}()
	}
	wg.Wait()
}

func TestConnectionStatusChanged_EventType(t *testing.T) {
	var e Event = ConnectionStatusChanged{ConnectionID: "c1"}
	assert.Equal(t, ConnectionStatusChangedType, e.EventType())
}
