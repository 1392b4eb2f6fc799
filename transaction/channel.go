// Package transaction implements protocol-transaction primitives: one-shot
// and multiplexed request/response rendezvous layered over gnbasync's
// manual event and the timer service, used throughout an L2/L3 procedure to
// await a peer message with an optional timeout.
package transaction

import (
	"sync"

	"github.com/joeycumines/gnbasync"
	"github.com/joeycumines/gnbasync/internal/logx"
	"github.com/joeycumines/gnbasync/timer"
)

// Channel is a single-subscriber transaction: a value-carrying manual
// event, a cancel value delivered on timeout, an owned timer, and an
// active flag enforcing zero-or-one concurrent subscriber.
type Channel[T any] struct {
	mu          sync.Mutex
	active      bool
	valueSet    bool
	event       gnbasync.ManualEvent[T]
	cancelValue T
	svc         *timer.Service
	exec        gnbasync.Executor
	t           *timer.Timer
	log         logx.Logger
}

// NewChannel constructs a Channel bound to exec and (optionally) svc for
// timeout support; svc may be nil if CreateTransaction will never be asked
// for a timeout.
func NewChannel[T any](exec gnbasync.Executor, svc *timer.Service, cancelValue T, log logx.Logger) *Channel[T] {
	if log == nil {
		log = logx.Discard()
	}
	return &Channel[T]{exec: exec, svc: svc, cancelValue: cancelValue, log: log}
}

// Receiver is the handle returned by CreateTransaction: it awaits the
// channel's event and, on Close, resets the channel for reuse.
type Receiver[T any] struct {
	ch *Channel[T]
}

// CreateTransaction asserts no other transaction is currently live on this
// channel — concurrent creation is a fatal programming error — marks the
// channel active, and returns a Receiver.
func (c *Channel[T]) CreateTransaction() *Receiver[T] {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		gnbasync.FatalTransactionActive(c.log)
		return nil
	}
	c.active = true
	c.valueSet = false
	c.mu.Unlock()
	return &Receiver[T]{ch: c}
}

// CreateTransactionWithTimeout additionally arms an owned timer to deliver
// cancelValue if no Set arrives within timeout ticks.
func (c *Channel[T]) CreateTransactionWithTimeout(timeout timer.Duration) *Receiver[T] {
	r := c.CreateTransaction()
	if r == nil || c.svc == nil {
		return r
	}
	c.mu.Lock()
	if c.t == nil {
		c.t = c.svc.Create(c.exec)
	}
	t := c.t
	c.mu.Unlock()
	t.SetCallback(timeout, func(timer.ID) {
		c.Set(c.cancelValue)
	})
	t.Run()
	return r
}

// Set delivers value to the channel's event, flushing whatever is awaiting
// it. Overwriting an already-delivered value is logged, not fatal — "the
// later value wins".
func (c *Channel[T]) Set(value T) {
	c.mu.Lock()
	if c.valueSet {
		c.log.Warn("protocol transaction channel value overwritten", "err", (&gnbasync.OverwriteError{Channel: "single"}).Error())
	}
	c.valueSet = true
	c.mu.Unlock()
	c.event.Set(value)
}

// Awaiter returns an Awaiter over the channel's delivered value.
func (r *Receiver[T]) Awaiter() gnbasync.Awaiter[T] { return r.ch.event.Awaiter() }

// Close resets the channel's event and clears channel_active, matching
// "dropping the receiver resets the event and clears channel_active" —
// named Close rather than relying on GC finalization, since Go has no
// deterministic destructor to hang this on.
func (r *Receiver[T]) Close() {
	c := r.ch
	if c.svc != nil {
		c.mu.Lock()
		t := c.t
		c.mu.Unlock()
		if t != nil {
			t.Stop()
		}
	}
	c.event.Reset()
	c.mu.Lock()
	c.active = false
	c.valueSet = false
	c.mu.Unlock()
}
