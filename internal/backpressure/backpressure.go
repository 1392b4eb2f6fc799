// Package backpressure implements the "dispatch fail counter" pattern from
// the core's recoverable-back-pressure error kind: a running counter is
// incremented on each failed Execute/Defer/TryPush, and drained on the next
// successful one, so the underlying task is invoked 1+failures times to
// preserve "call at least once per request" semantics.
//
// Repeated failure is additionally rate-tracked per category using
// github.com/joeycumines/go-catrate, so a caller can escalate a wedged
// executor (one that fails continuously) from a logged warning to a fatal
// error instead of silently accumulating an unbounded failure count forever.
package backpressure

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
)

// Counter tracks failed-dispatch counts per category and flags categories
// that are failing often enough to be considered wedged.
type Counter struct {
	limiter *catrate.Limiter
	pending sync.Map // category -> *int64
}

// New builds a Counter. rates configures the escalation thresholds, e.g.
// {time.Second: 20, time.Minute: 200} escalates a category failing more
// than 20 times/second or 200 times/minute.
func New(rates map[time.Duration]int) *Counter {
	return &Counter{limiter: catrate.NewLimiter(rates)}
}

func (c *Counter) slot(category any) *int64 {
	if v, ok := c.pending.Load(category); ok {
		return v.(*int64)
	}
	v, _ := c.pending.LoadOrStore(category, new(int64))
	return v.(*int64)
}

// Fail records a failed dispatch for category and reports whether the
// failure rate for that category has crossed the configured escalation
// threshold (i.e. this is no longer ordinary back-pressure, it's wedged).
func (c *Counter) Fail(category any) (pending int64, escalate bool) {
	pending = atomic.AddInt64(c.slot(category), 1)
	_, ok := c.limiter.Allow(category)
	return pending, !ok
}

// Drain returns the number of failures accumulated for category since the
// last Drain and resets it to zero. A caller that successfully dispatches
// after N recorded failures must invoke the underlying task 1+N times (once
// for the dispatch that just succeeded, plus once per previously-dropped
// attempt) to preserve at-least-once semantics.
func (c *Counter) Drain(category any) int64 {
	return atomic.SwapInt64(c.slot(category), 0)
}
