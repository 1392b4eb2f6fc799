package gnbasync

import (
	"context"
	"sync"
)

// Proc is a non-coroutine resumable procedure: rather than parking a
// goroutine on a channel (as Task does), a Proc drives itself forward
// purely through callbacks — AwaitStep stores a "next step" closure on the
// frame and returns immediately; the frame's resumption is just that
// closure being invoked once, directly, by whichever primitive's Set/Flush
// call reaches it. There is no parked goroutine and no stack to preserve:
// all state a step needs must be captured by its closure.
//
// Because resumption is a direct call rather than a channel handoff, a Proc
// gives literal same-stack resumption: setting an event a Proc is awaiting
// runs that Proc's next step before the setter's call returns, which is
// what makes cooperative ping-pong patterns between two Procs deterministic
// rather than racy.
type Proc[R any] struct {
	frame  *Frame
	done   ManualEvent[Result[R]]
	mu     sync.Mutex
	detach func() // unregisters the current outstanding AwaitStep, if any
}

// NewProc constructs a Proc and immediately invokes start on it.
func NewProc[R any](start func(p *Proc[R]), opts ...TaskOption) *Proc[R] {
	var cfg taskConfig
	for _, o := range opts {
		o(&cfg)
	}
	p := &Proc[R]{frame: newFrame(cfg.log)}
	start(p)
	return p
}

// AwaitStep suspends p on a, invoking next with the awaited value once it
// is available — either immediately (synchronously, if a is already
// ready) or later, from whatever goroutine resumes a's waiter. Only one
// AwaitStep may be outstanding at a time per Proc, matching the single
// current-suspension-point invariant of a coroutine frame.
func AwaitStep[T any, R any](p *Proc[R], a Awaitable[T], next func(v T)) {
	aw := a.Awaiter()
	if v, ok := aw.Ready(); ok {
		next(v)
		return
	}
	p.frame.setState(FrameSuspended)
	detach := aw.Register(func(v T) {
		p.mu.Lock()
		p.detach = nil
		p.mu.Unlock()
		p.frame.setState(FrameRunning)
		next(v)
	})
	p.mu.Lock()
	p.detach = detach
	p.mu.Unlock()
}

// Return completes the procedure with value v, resuming whatever awaits
// the Proc itself.
func (p *Proc[R]) Return(v R) {
	p.frame.setState(FrameFinalSuspend)
	p.done.Set(Result[R]{Value: v})
	p.frame.setState(FrameDestroyed)
}

// Cancel runs the cancel path: if p is suspended (mid-AwaitStep), it
// detaches from whatever it was awaiting — so no awaitable's waiter list
// retains a cancelled Proc — before marking the frame cancelled and
// resolving the procedure's own result with context.Canceled. Cancelling a
// Proc that is not currently suspended — one that is actively inside a
// step's body — is a fatal programming error, the same rule Frame.Destroy
// enforces.
func (p *Proc[R]) Cancel() {
	if p.frame.State() == FrameRunning {
		fatal(p.frame.log, ErrFrameNotSuspended, "state", p.frame.State())
		return
	}
	if p.frame.State() == FrameFinalSuspend || p.frame.State() == FrameDestroyed || p.frame.State() == FrameCancelled {
		return
	}
	p.mu.Lock()
	detach := p.detach
	p.detach = nil
	p.mu.Unlock()
	if detach != nil {
		detach()
	}
	p.frame.setState(FrameCancelled)
	p.frame.cancel()
	var zero R
	p.done.Set(Result[R]{Value: zero, Err: context.Canceled})
}

// Frame returns the procedure's underlying Frame.
func (p *Proc[R]) Frame() *Frame { return p.frame }

// Awaiter lets one Proc be awaited by another task or procedure.
func (p *Proc[R]) Awaiter() Awaiter[Result[R]] { return p.done.Awaiter() }
