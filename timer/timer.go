package timer

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/gnbasync"
)

// State mirrors the frontend's state ∈ {stopped, running, expired}.
type State int32

const (
	Stopped State = iota
	Running
	Expired
)

// Timer is the multi-threaded front-end handle: an immutable id, an
// atomically published state/duration/epoch, and an executor the expiry
// callback is dispatched onto. Every exported method may be called from any
// goroutine.
type Timer struct {
	id       ID
	svc      *Service
	exec     gnbasync.Executor
	state    atomic.Int32
	duration atomic.Uint32
	epoch    atomic.Uint64

	hookMu sync.Mutex
	hook   func(id ID, expired bool)
}

// ID returns the timer's immutable identity.
func (t *Timer) ID() ID { return t.id }

// State returns the timer's current frontend state.
func (t *Timer) State() State { return State(t.state.Load()) }

// IsRunning reports whether the timer is currently armed.
func (t *Timer) IsRunning() bool { return t.State() == Running }

// HasExpired reports whether the timer's most recent arming ran to expiry
// (as opposed to being stopped first).
func (t *Timer) HasExpired() bool { return t.State() == Expired }

// IsSet reports whether a duration has been configured.
func (t *Timer) IsSet() bool { return t.duration.Load() != InvalidDuration }

// Duration returns the currently configured duration, or InvalidDuration if
// none has been set.
func (t *Timer) Duration() Duration { return t.duration.Load() }

// Set configures duration without changing the callback, bumping epoch and
// (if currently running) re-arming the backend with the new value.
func (t *Timer) Set(d Duration) {
	t.setDuration(d)
	epoch := t.bumpEpoch()
	if t.IsRunning() {
		t.svc.pushCommand(command{id: t.id, epoch: epoch, action: cmdStart, duration: d})
	}
}

// SetCallback configures both duration and the user-facing expiry callback
// in one bumped epoch.
func (t *Timer) SetCallback(d Duration, cb func(ID)) {
	t.setDuration(d)
	t.setHook(func(id ID, expired bool) {
		if expired && cb != nil {
			cb(id)
		}
	})
	epoch := t.bumpEpoch()
	if t.IsRunning() {
		t.svc.pushCommand(command{id: t.id, epoch: epoch, action: cmdStart, duration: d})
	}
}

func (t *Timer) setDuration(d Duration) {
	if d > MaxDuration {
		fatalDuration(t.svc, d)
		return
	}
	t.duration.Store(d)
}

func (t *Timer) setHook(h func(id ID, expired bool)) {
	t.hookMu.Lock()
	t.hook = h
	t.hookMu.Unlock()
}

func (t *Timer) bumpEpoch() uint64 { return t.epoch.Add(1) }

// Run arms the timer using the currently configured duration: bumps epoch,
// sets frontend state to running, and pushes a start command.
func (t *Timer) Run() {
	t.state.Store(int32(Running))
	epoch := t.bumpEpoch()
	t.svc.pushCommand(command{id: t.id, epoch: epoch, action: cmdStart, duration: t.duration.Load()})
}

// Stop disarms the timer. Any callback still pending from a prior
// Set/SetCallback/AsyncWaitFor registration is resolved immediately with
// expired=false — the frontend-side resolution that makes
// AsyncWaitFor's "true if stopped externally" contract satisfiable without
// waiting on a backend round-trip that, for a timer already unlinked from
// the wheel, would never otherwise arrive.
func (t *Timer) Stop() {
	t.stopCommand()
	t.hookMu.Lock()
	h := t.hook
	t.hook = nil
	t.hookMu.Unlock()
	if h != nil {
		h(t.id, false)
	}
}

// stopCommand performs the state/epoch/command-push half of Stop without
// touching the hook, for callers (AsyncWaitFor's detach) that need the
// backend unlinked without synchronously firing a pending callback.
func (t *Timer) stopCommand() {
	t.state.Store(int32(Stopped))
	epoch := t.bumpEpoch()
	t.svc.pushCommand(command{id: t.id, epoch: epoch, action: cmdStop})
}

// Destroy pushes a destroy command and marks the frontend handle unusable.
// The id is returned to Service's free list once the backend has processed
// the command (Service.release), not synchronously here.
func (t *Timer) Destroy() {
	epoch := t.bumpEpoch()
	t.svc.pushCommand(command{id: t.id, epoch: epoch, action: cmdDestroy})
}

// fireExpiry is invoked on the timer's own executor, doing the
// authoritative epoch check. epoch is already confirmed live by the caller
// (dispatchExpiry); this method re-confirms once more immediately before
// mutating state, since the executor hop is itself a window in which a
// concurrent Stop/Set could have raced ahead.
func (t *Timer) fireExpiry(epoch uint64) {
	if t.epoch.Load() != epoch {
		return
	}
	t.state.Store(int32(Expired))
	t.hookMu.Lock()
	h := t.hook
	t.hook = nil
	t.hookMu.Unlock()
	if h != nil {
		h(t.id, true)
	}
}

func fatalDuration(svc *Service, d Duration) {
	gnbasync.FatalDurationOutOfRange(svc.log, d)
}
