package gnbasync

import (
	"sync/atomic"

	"github.com/joeycumines/gnbasync/internal/logx"
)

// Sequencer is a strand/serial-runner: it owns a bounded queue of tasks and
// runs them one at a time, in the order they were scheduled, regardless of
// the order in which their own internal awaits happen to resolve. Used as
// a per-entity strand — e.g. one Sequencer per UE context, serializing its
// procedures even though the procedures themselves may suspend on events
// set from other goroutines.
//
// A task built with Lazy starts only when the strand reaches it, so its body
// runs in turn. A task built with Go has already been running since its
// creation; the strand awaits its completion in schedule order but does not
// hold its body back.
type Sequencer struct {
	queue   *AsyncQueue[*Task[struct{}]]
	running atomic.Bool
	loop    *Task[struct{}]
	log     logx.Logger
}

// Option configures a Sequencer.
type Option func(*config)

type config struct {
	capacity int
	log      logx.Logger
}

// WithCapacity sets the strand's bounded schedule-queue capacity. Default 16.
func WithCapacity(n int) Option { return func(c *config) { c.capacity = n } }

// WithLogger attaches a structured logger.
func WithLogger(log logx.Logger) Option { return func(c *config) { c.log = log } }

// New starts a Sequencer immediately (it is always "running" from
// construction; there is no separate Start method).
func New(opts ...Option) *Sequencer {
	cfg := config{capacity: 16, log: logx.Discard()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logx.Discard()
	}
	s := &Sequencer{queue: NewAsyncQueue[*Task[struct{}]](cfg.capacity), log: cfg.log}
	s.running.Store(true)
	s.loop = Go(func(ctx *Context) struct{} {
		s.run(ctx)
		return struct{}{}
	})
	return s
}

func (s *Sequencer) run(ctx *Context) {
	for {
		next, err := Await(ctx, s.queue)
		if err != nil {
			s.log.Warn("sequencer cancelled while waiting for next task")
			return
		}
		if next != nil {
			if res, err := Await(ctx, next); err != nil {
				s.log.Warn("sequencer cancelled while running a scheduled task")
				return
			} else if res.Err != nil {
				s.log.Warn("scheduled task returned an error", "err", res.Err)
			}
		}
		if !s.running.Load() {
			return
		}
	}
}

// Schedule enqueues task to run after everything already scheduled. Returns
// false if the strand's queue is at capacity — per the "no silent drop"
// rule, the caller is notified via this return value and must retry or
// fail the operation upward, not assume it ran.
func (s *Sequencer) Schedule(task *Task[struct{}]) bool {
	return s.queue.TryPush(task)
}

// ScheduleFunc wraps fn as a lazy task and schedules it, so fn runs only
// when the strand reaches it.
func (s *Sequencer) ScheduleFunc(fn func()) bool {
	return s.Schedule(Lazy(func(*Context) struct{} {
		fn()
		return struct{}{}
	}))
}

// RequestStop flips the running flag and wakes the loop with a no-op task
// so it notices. Returns the strand's own loop handle — an eager task that
// completes once the loop has actually exited (after draining whatever was
// already running), the same handle New's caller could have retained
// directly; returning it again here just saves having to keep it around.
func (s *Sequencer) RequestStop() *Task[struct{}] {
	s.running.Store(false)
	s.queue.TryPush(Go(func(*Context) struct{} { return struct{}{} }))
	return s.loop
}
