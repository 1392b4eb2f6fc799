package gnbasync

import (
	"sync"

	"github.com/joeycumines/gnbasync/internal/intrusive"
)

// Awaiter is what Await drives. Ready lets Await skip registration entirely
// when a value is already available; Register is the single point of
// synchronization that avoids the lost-wakeup race between "check if ready"
// and "subscribe for the next ready": an implementation must re-check
// readiness under whatever lock it registers under, and call resume
// synchronously if it turns out to already be ready.
type Awaiter[T any] interface {
	Ready() (T, bool)
	// Register arranges for resume to be called exactly once with the
	// awaited value. It returns detach, which unregisters the waiter;
	// detach must be idempotent and safe to call after resume has already
	// fired (both are true of intrusive.List.Remove).
	Register(resume func(T)) (detach func())
}

// Awaitable produces an Awaiter. Any type that can be awaited from a Frame,
// a Proc, or a bare goroutine via Await implements this.
type Awaitable[T any] interface {
	Awaiter() Awaiter[T]
}

// ManualEventFlag is a sticky, thread-safe broadcast flag: once Set, it
// stays set until Reset, and any awaiter registering while set is resumed
// immediately. Waiters are resumed in LIFO order (head-insert, head-walk) —
// acceptable because callers rely on set-liveness-only semantics for
// broadcast flags, not delivery order.
type ManualEventFlag struct {
	mu      sync.Mutex
	isSet   bool
	waiters intrusive.List[struct{}]
}

// Set marks the flag set and resumes every currently-registered waiter.
// Once set, it remains set until Reset.
func (e *ManualEventFlag) Set() {
	e.mu.Lock()
	if e.isSet {
		e.mu.Unlock()
		return
	}
	e.isSet = true
	nodes := e.waiters.Flush()
	e.mu.Unlock()
	for _, n := range nodes {
		n.Resume(struct{}{})
	}
}

// Reset returns the flag to unset, only if it is currently set.
func (e *ManualEventFlag) Reset() {
	e.mu.Lock()
	e.isSet = false
	e.mu.Unlock()
}

// IsSet reports whether the flag is currently set.
func (e *ManualEventFlag) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSet
}

// Awaiter returns a fresh, single-use Awaiter for this flag.
func (e *ManualEventFlag) Awaiter() Awaiter[struct{}] {
	return &manualFlagAwaiter{e: e}
}

type manualFlagAwaiter struct {
	e    *ManualEventFlag
	node intrusive.Node[struct{}]
}

func (a *manualFlagAwaiter) Ready() (struct{}, bool) {
	a.e.mu.Lock()
	defer a.e.mu.Unlock()
	return struct{}{}, a.e.isSet
}

func (a *manualFlagAwaiter) Register(resume func(struct{})) func() {
	a.e.mu.Lock()
	if a.e.isSet {
		a.e.mu.Unlock()
		resume(struct{}{})
		return func() {}
	}
	a.node.Resume = resume
	a.e.waiters.PushFront(&a.node)
	a.e.mu.Unlock()
	return func() {
		a.e.mu.Lock()
		a.e.waiters.Remove(&a.node)
		a.e.mu.Unlock()
	}
}

// ManualEvent is a ManualEventFlag carrying a value, delivered by value to
// every waiter: once IsSet() is true it remains true until Reset(); while
// set, the internal waiter list is always empty (every registration while
// set resolves immediately rather than joining the list).
type ManualEvent[T any] struct {
	mu      sync.Mutex
	isSet   bool
	value   T
	waiters intrusive.List[T]
}

// Set marks the event set with value v and flushes (resumes) every
// currently-registered waiter with v. Overwriting an already-set event
// replaces the stored value but, since the waiter list is already empty,
// resumes nothing further.
func (e *ManualEvent[T]) Set(v T) {
	e.mu.Lock()
	e.isSet = true
	e.value = v
	nodes := e.waiters.Flush()
	e.mu.Unlock()
	for _, n := range nodes {
		n.Resume(v)
	}
}

// Reset returns the event to unset-empty and clears the stored value.
func (e *ManualEvent[T]) Reset() {
	e.mu.Lock()
	e.isSet = false
	var zero T
	e.value = zero
	e.mu.Unlock()
}

// IsSet reports whether the event currently holds a value.
func (e *ManualEvent[T]) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSet
}

// Get returns the current value (zero value if unset).
func (e *ManualEvent[T]) Get() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Awaiter returns a fresh, single-use Awaiter for this event.
func (e *ManualEvent[T]) Awaiter() Awaiter[T] {
	return &manualEventAwaiter[T]{e: e}
}

type manualEventAwaiter[T any] struct {
	e    *ManualEvent[T]
	node intrusive.Node[T]
}

func (a *manualEventAwaiter[T]) Ready() (T, bool) {
	a.e.mu.Lock()
	defer a.e.mu.Unlock()
	return a.e.value, a.e.isSet
}

func (a *manualEventAwaiter[T]) Register(resume func(T)) func() {
	a.e.mu.Lock()
	if a.e.isSet {
		v := a.e.value
		a.e.mu.Unlock()
		resume(v)
		return func() {}
	}
	a.node.Resume = resume
	a.e.waiters.PushFront(&a.node)
	a.e.mu.Unlock()
	return func() {
		a.e.mu.Lock()
		a.e.waiters.Remove(&a.node)
		a.e.mu.Unlock()
	}
}

// SignalEventFlag is the non-sticky counterpart to ManualEventFlag: Set
// flushes whoever is currently registered and returns to unset; a listener
// that registers after a Set waits for the next one. Ready is always false,
// since there is no sticky state to observe.
type SignalEventFlag struct {
	mu      sync.Mutex
	waiters intrusive.List[struct{}]
}

// Set resumes every currently-registered waiter, then clears the list.
func (e *SignalEventFlag) Set() {
	e.mu.Lock()
	nodes := e.waiters.Flush()
	e.mu.Unlock()
	for _, n := range nodes {
		n.Resume(struct{}{})
	}
}

func (e *SignalEventFlag) Awaiter() Awaiter[struct{}] {
	return &signalFlagAwaiter{e: e}
}

type signalFlagAwaiter struct {
	e    *SignalEventFlag
	node intrusive.Node[struct{}]
}

func (a *signalFlagAwaiter) Ready() (struct{}, bool) { return struct{}{}, false }

func (a *signalFlagAwaiter) Register(resume func(struct{})) func() {
	a.e.mu.Lock()
	a.node.Resume = resume
	a.e.waiters.PushFront(&a.node)
	a.e.mu.Unlock()
	return func() {
		a.e.mu.Lock()
		a.e.waiters.Remove(&a.node)
		a.e.mu.Unlock()
	}
}

// SignalEvent is SignalEventFlag carrying a value. A waiter that registers
// after a Set has already captured and flushed its snapshot sees only a
// later Set, never a half-delivered one: the value is snapshotted into
// each waiter's resume closure at flush time, so there is no shared state
// a late registration could observe mid-delivery.
type SignalEvent[T any] struct {
	mu      sync.Mutex
	waiters intrusive.List[T]
}

func (e *SignalEvent[T]) Set(v T) {
	e.mu.Lock()
	nodes := e.waiters.Flush()
	e.mu.Unlock()
	for _, n := range nodes {
		n.Resume(v)
	}
}

func (e *SignalEvent[T]) Awaiter() Awaiter[T] {
	return &signalEventAwaiter[T]{e: e}
}

type signalEventAwaiter[T any] struct {
	e    *SignalEvent[T]
	node intrusive.Node[T]
}

func (a *signalEventAwaiter[T]) Ready() (T, bool) {
	var zero T
	return zero, false
}

func (a *signalEventAwaiter[T]) Register(resume func(T)) func() {
	a.e.mu.Lock()
	a.node.Resume = resume
	a.e.waiters.PushFront(&a.node)
	a.e.mu.Unlock()
	return func() {
		a.e.mu.Lock()
		a.e.waiters.Remove(&a.node)
		a.e.mu.Unlock()
	}
}
