package gnbasync

// Executor-switch awaitables: primitives whose entire purpose is to
// move a task's continuation onto a different executor. Unlike the
// event/queue primitives, these always go through the executor's contract
// (Execute or Defer), never a direct same-stack resume.

type execSwitchAwaiter struct {
	exec   Executor
	defer_ bool // true selects Defer, false selects Execute
}

func (a *execSwitchAwaiter) Ready() (struct{}, bool) { return struct{}{}, false }

func (a *execSwitchAwaiter) Register(resume func(struct{})) func() {
	dispatch := a.exec.Execute
	if a.defer_ {
		dispatch = a.exec.Defer
	}
	if !dispatch(func() { resume(struct{}{}) }) {
		// Dispatch failed (queue full / shut down). There is no awaiter
		// list to detach from — the caller observes this only by the
		// resume never firing; retry/fallback is left to the caller.
		// Callers that need to know should check exec's own accounting
		// (see internal/backpressure) rather than Await, which has no way
		// to return early here without a second channel.
	}
	return func() {}
}

type execSwitch struct {
	exec   Executor
	defer_ bool
}

func (s execSwitch) Awaiter() Awaiter[struct{}] {
	return &execSwitchAwaiter{exec: s.exec, defer_: s.defer_}
}

// ExecuteOn returns an awaitable that resumes the caller on exec via
// Execute (which may run inline if exec judges that safe).
func ExecuteOn(exec Executor) Awaitable[struct{}] { return execSwitch{exec: exec} }

// DeferTo returns an awaitable that resumes the caller on exec via Defer
// (which never runs inline).
func DeferTo(exec Executor) Awaitable[struct{}] { return execSwitch{exec: exec, defer_: true} }

// OffloadToExecutor suspends the caller, runs fn on off, captures its
// result, then resumes the caller back on back with that result —
// implementing "do the work over there, come back here with the answer"
// without the caller ever touching off's thread directly.
func OffloadToExecutor[T any](off, back Executor, fn func() T) Awaitable[T] {
	return offload[T]{off: off, back: back, fn: fn}
}

type offload[T any] struct {
	off, back Executor
	fn        func() T
}

func (o offload[T]) Awaiter() Awaiter[T] { return &offloadAwaiter[T]{o: o} }

type offloadAwaiter[T any] struct{ o offload[T] }

func (a *offloadAwaiter[T]) Ready() (T, bool) {
	var zero T
	return zero, false
}

func (a *offloadAwaiter[T]) Register(resume func(T)) func() {
	a.o.off.Execute(func() {
		v := a.o.fn()
		a.o.back.Execute(func() { resume(v) })
	})
	return func() {}
}

// DispatchAndResumeOn awaits ExecuteOn(off), runs body on off's thread,
// awaits ExecuteOn(back), and returns body's result there. Implemented as a
// plain eager Task rather than a bespoke type since the whole point is that
// it composes with Await like anything else.
func DispatchAndResumeOn[R any](off, back Executor, body func() R) *Task[R] {
	return Go(func(ctx *Context) R {
		if _, err := Await(ctx, ExecuteOn(off)); err != nil {
			var zero R
			return zero
		}
		result := body()
		_, _ = Await(ctx, ExecuteOn(back))
		return result
	})
}
