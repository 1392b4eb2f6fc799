package transaction

import (
	"sync"

	"github.com/joeycumines/gnbasync"
	"github.com/joeycumines/gnbasync/internal/logx"
	"github.com/joeycumines/gnbasync/timer"
)

// Publisher is the publisher/subscriber variant: the same event-based core
// as Channel, but the publisher lives independently of any one subscriber
// — a single Subscriber registers by attaching itself into the
// publisher's slot, and TrySet only succeeds while one is attached.
//
// A single-subscriber model (rather than broadcast) is deliberate: every
// protocol transaction in the surrounding system is point-to-point.
// Broadcast delivery belongs to SignalEvent, used elsewhere with an
// explicit list of listeners.
type Publisher[T any] struct {
	mu   sync.Mutex
	sub  *Subscriber[T]
	svc  *timer.Service
	exec gnbasync.Executor
	log  logx.Logger
}

// NewPublisher constructs a Publisher with no attached subscriber.
func NewPublisher[T any](exec gnbasync.Executor, svc *timer.Service, log logx.Logger) *Publisher[T] {
	if log == nil {
		log = logx.Discard()
	}
	return &Publisher[T]{exec: exec, svc: svc, log: log}
}

// Subscriber is the single attachable receiver of a Publisher.
type Subscriber[T any] struct {
	pub *Publisher[T]
	event gnbasync.ManualEvent[T]
	t    *timer.Timer
}

// Attach creates a fresh Subscriber and registers it as p's sole
// subscriber, replacing (and detaching) any previous one.
func (p *Publisher[T]) Attach() *Subscriber[T] {
	s := &Subscriber[T]{pub: p}
	if p.svc != nil {
		s.t = p.svc.Create(p.exec)
	}
	p.mu.Lock()
	prev := p.sub
	p.sub = s
	p.mu.Unlock()
	if prev != nil && prev.t != nil {
		prev.t.Stop()
	}
	return s
}

// ArmTimeout arms the subscriber's timer so an unset transaction resolves
// to cancelValue after timeout ticks.
func (s *Subscriber[T]) ArmTimeout(timeout timer.Duration, cancelValue T) {
	if s.t == nil {
		return
	}
	s.t.SetCallback(timeout, func(timer.ID) {
		s.pub.TrySet(cancelValue)
	})
	s.t.Run()
}

// Awaiter returns an Awaiter over the value the publisher eventually sets.
func (s *Subscriber[T]) Awaiter() gnbasync.Awaiter[T] { return s.event.Awaiter() }

// Detach cleanly removes s as p's current subscriber (a no-op if some
// other Subscriber has since replaced it), stopping its timer if any.
func (s *Subscriber[T]) Detach() {
	p := s.pub
	p.mu.Lock()
	if p.sub == s {
		p.sub = nil
	}
	p.mu.Unlock()
	if s.t != nil {
		s.t.Stop()
	}
}

// TrySet atomically attempts delivery: if there is no attached subscriber,
// or its event is already set, it returns false without side effects;
// otherwise it stops the subscriber's timer, detaches it, and sets the
// event (resuming whatever awaited it).
func (p *Publisher[T]) TrySet(value T) bool {
	p.mu.Lock()
	s := p.sub
	if s == nil {
		p.mu.Unlock()
		return false
	}
	if s.event.IsSet() {
		p.mu.Unlock()
		return false
	}
	p.sub = nil
	p.mu.Unlock()

	if s.t != nil {
		s.t.Stop()
	}
	s.event.Set(value)
	return true
}
