// Package executor provides reference implementations of gnbasync.Executor:
// the smallest possible conformant one ([Inline]), a single-goroutine
// channel-backed one suitable as the "owning executor thread" the timer
// service and task frames assume ([Worker]), and an adapter onto the
// Submit/SubmitInternal shape used by in-process gRPC transports in the
// retrieved example pack ([InprocAdapter]).
package executor

// Inline runs Execute synchronously on the caller's goroutine and Defer on
// a freshly spawned one. It is the simplest possible Executor satisfying
// the contract (Execute may run inline; Defer must not) and is primarily
// useful in tests and examples that don't need a dedicated owning thread.
type Inline struct{}

func (Inline) Execute(closure func()) bool {
	closure()
	return true
}

func (Inline) Defer(closure func()) bool {
	go closure()
	return true
}
