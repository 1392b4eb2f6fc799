package gnbasync

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/joeycumines/gnbasync/internal/logx"
)

// FrameState tracks a frame's lifecycle. The "suspended at this particular
// await point" case collapses to a single FrameSuspended value, because a
// goroutine's own program counter already encodes exactly where it is
// parked — there is nothing else for this package to track per suspension
// point.
type FrameState int32

const (
	// FrameCancelled: the frame has finished running its cancellation walk
	// and is gone.
	FrameCancelled FrameState = -3
	// FrameFinalSuspend: the body has returned, the result is stored, any
	// awaiting continuation is about to be resumed.
	FrameFinalSuspend FrameState = -2
	// FrameDestroyed: the frame is fully torn down (post final-suspend
	// cleanup, or post-cancel).
	FrameDestroyed FrameState = -1
	// FrameSuspended: the frame is parked at an await point, registered
	// with some awaitable's waiter list.
	FrameSuspended FrameState = 0
	// FrameRunning: the frame is actively executing body code. Tracked so
	// Destroy can reject destroying a frame that isn't suspended.
	FrameRunning FrameState = 1
)

// Frame is the heap-allocated record behind a Task or Proc: it
// carries cancellation (via context.Context, Go's native suspension-aware
// cancellation signal) and the lifecycle state above.
type Frame struct {
	ctx    context.Context
	cancel context.CancelFunc
	state  atomic.Int32
	log    logx.Logger
}

func newFrame(log logx.Logger) *Frame {
	ctx, cancel := context.WithCancel(context.Background())
	f := &Frame{ctx: ctx, cancel: cancel, log: log}
	f.state.Store(int32(FrameRunning))
	return f
}

// State returns the frame's current lifecycle state.
func (f *Frame) State() FrameState { return FrameState(f.state.Load()) }

func (f *Frame) setState(s FrameState) { f.state.Store(int32(s)) }

// Destroy begins (or continues) cancellation of the frame. Destroying a
// frame that is currently FrameRunning — i.e. actively executing body code
// between suspension points, rather than parked at one — is a fatal
// programming error. Destroying an already-cancelled/finished frame is a
// harmless no-op, matching context.CancelFunc's own idempotence.
func (f *Frame) Destroy() {
	if f.State() == FrameRunning {
		fatal(f.log, ErrFrameNotSuspended, "state", f.State())
		return
	}
	f.cancel()
}

// Context is threaded through a Task's body, providing
// the cancellation signal Await selects on and a handle back to the owning
// Frame for state introspection.
type Context struct {
	ctx   context.Context
	frame *Frame
}

// Done returns the frame's cancellation channel, for callers that want to
// select on it directly alongside other channels instead of using Await.
func (c *Context) Done() <-chan struct{} { return c.ctx.Done() }

// Err returns the frame's cancellation error, or nil if not cancelled.
func (c *Context) Err() error { return c.ctx.Err() }

// Frame returns the owning Frame.
func (c *Context) Frame() *Frame { return c.frame }

// Await suspends the calling body until a becomes ready, or until the
// frame is destroyed, implemented in terms of Go's native parking primitive
// (a channel receive) rather than a switch-on-label dispatch table: the
// goroutine stack under Await *is* the saved suspension state.
//
// On cancellation, Await detaches from a's waiter list before returning, so
// no awaitable's waiter list ever retains a cancelled frame, without
// requiring the caller to do anything further; the caller's only remaining
// obligation is to return promptly when Await yields a non-nil error,
// which Go's ordinary defer/return handles.
func Await[T any](ctx *Context, a Awaitable[T]) (T, error) {
	aw := a.Awaiter()
	if v, ok := aw.Ready(); ok {
		return v, nil
	}

	ctx.frame.setState(FrameSuspended)

	resumeCh := make(chan T, 1)
	detach := aw.Register(func(v T) {
		select {
		case resumeCh <- v:
		default:
		}
	})

	select {
	case v := <-resumeCh:
		ctx.frame.setState(FrameRunning)
		return v, nil
	case <-ctx.Done():
		detach()
		// Prefer a value that won the race against cancellation: resume
		// may have fired concurrently with Destroy.
		select {
		case v := <-resumeCh:
			ctx.frame.setState(FrameRunning)
			return v, nil
		default:
		}
		ctx.frame.setState(FrameCancelled)
		var zero T
		return zero, ctx.Err()
	}
}

// Result is the completion value of a Task: either its returned value, or
// the error from a recovered panic. Task implements Awaitable[Result[R]],
// so it composes with Await exactly like any other awaitable.
type Result[R any] struct {
	Value R
	Err   error
}

// Task is an eager or lazy resumable task carrying result R, built with Go
// or Lazy. It holds a unique frame; callers are expected not to share a
// *Task across goroutines for anything but awaiting its result.
type Task[R any] struct {
	frame     *Frame
	event     ManualEvent[Result[R]]
	startOnce func()
}

// Go creates an eager task: the body starts running at creation, on its
// own goroutine. A goroutine is this package's executor-agnostic stand-in
// for a coroutine frame; where a task's body needs to run on a *specific*
// executor (e.g. to touch state owned by that executor's thread), it says
// so explicitly with Await(ctx, ExecuteOn(exec)) — see switch.go.
func Go[R any](fn func(ctx *Context) R, opts ...TaskOption) *Task[R] {
	t := newTask[R](fn, opts)
	go t.startOnce()
	return t
}

// Lazy creates a lazy task: initial suspend is "always" — the body only
// begins when the task is first awaited (Awaiter or Wait is called), at
// which point the body runs synchronously on that caller's goroutine; no
// goroutine of its own is started.
func Lazy[R any](fn func(ctx *Context) R, opts ...TaskOption) *Task[R] {
	return newTask[R](fn, opts)
}

// TaskOption configures a Task at construction.
type TaskOption func(*taskConfig)

type taskConfig struct {
	log logx.Logger
}

// WithTaskLogger attaches a structured logger to a task's frame, used for
// fatal-condition diagnostics.
func WithTaskLogger(log logx.Logger) TaskOption {
	return func(c *taskConfig) { c.log = log }
}

func newTask[R any](fn func(ctx *Context) R, opts []TaskOption) *Task[R] {
	var cfg taskConfig
	for _, o := range opts {
		o(&cfg)
	}
	t := &Task[R]{frame: newFrame(cfg.log)}
	var started atomic.Bool
	t.startOnce = func() {
		if !started.CompareAndSwap(false, true) {
			return
		}
		t.run(fn)
	}
	return t
}

func (t *Task[R]) run(fn func(ctx *Context) R) {
	c := &Context{ctx: t.frame.ctx, frame: t.frame}
	var result Result[R]
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.frame.setState(FrameFinalSuspend)
				result.Err = fmt.Errorf("gnbasync: task body panicked: %v", r)
			}
		}()
		result.Value = fn(c)
		t.frame.setState(FrameFinalSuspend)
	}()
	t.event.Set(result)
	t.frame.setState(FrameDestroyed)
}

// Awaiter triggers a lazy task's start (if not already started) and returns
// an Awaiter over the task's Result.
func (t *Task[R]) Awaiter() Awaiter[Result[R]] {
	t.startOnce()
	return t.event.Awaiter()
}

// Done returns the task's completion channel-equivalent: a ManualEventFlag
// style readiness check, for callers outside any Task/Proc.
func (t *Task[R]) Done() bool { return t.event.IsSet() }

// Wait blocks the calling goroutine (which need not itself be a Frame)
// until the task completes, starting it first if it is lazy.
func (t *Task[R]) Wait() Result[R] {
	t.startOnce()
	done := make(chan Result[R], 1)
	detach := t.event.Awaiter().Register(func(r Result[R]) { done <- r })
	r := <-done
	detach()
	return r
}

// Frame returns the task's underlying Frame, for cancellation and state
// introspection.
func (t *Task[R]) Frame() *Frame { return t.frame }
