package client

// internalEvent is the set of events the worker pool and timers deliver
// back into the client's own mailbox — never touched by any goroutine
// but the event loop itself.
type internalEvent interface{ isInternalEvent() }

type clientConnected struct{}
type clientDisconnected struct{}

// connectionFailure carries why a connect/disconnect attempt failed.
type connectionFailure struct{ err error }

// testOutcome is the combined result of doTestConnection ∥ testMapper.
type testOutcome struct{ err error }

// stateTimeout fires when a volatile state's outer timeout elapses.
// epoch ties it to the state entry that armed it, so a stale timer from
// an already-exited state is a no-op once delivered.
type stateTimeout struct{ epoch uint64 }

func (clientConnected) isInternalEvent()    {}
func (clientDisconnected) isInternalEvent() {}
func (connectionFailure) isInternalEvent()  {}
func (testOutcome) isInternalEvent()        {}
func (stateTimeout) isInternalEvent()       {}
