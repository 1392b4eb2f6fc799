package gnbasync

// Executor dispatches unit-of-work closures onto whatever thread owns it.
// It is the only contract a frame, event, timer or transaction has with the
// surrounding application; this package never assumes how an Executor is
// implemented (single goroutine, worker pool, in-process gRPC transport).
//
// Execute may run closure inline, iff doing so is safe (typically: the
// caller is already running on the executor's own thread). Defer must never
// run closure inline; it always hands off to be run later. Both return false
// if the closure could not be enqueued (the executor's queue is full or it
// has been shut down) — callers are responsible for retry/fallback, per the
// back-pressure handling rules.
type Executor interface {
	Execute(closure func()) bool
	Defer(closure func()) bool
}

// ExecuteFunc adapts a bare func(func()) bool pair into an [Executor] whose
// Defer behaves identically to Execute. Useful for executors (or tests) that
// make no inline/deferred distinction.
type ExecuteFunc func(closure func()) bool

func (f ExecuteFunc) Execute(closure func()) bool { return f(closure) }
func (f ExecuteFunc) Defer(closure func()) bool   { return f(closure) }
