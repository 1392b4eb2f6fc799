package transaction

import (
	"sync/atomic"

	"github.com/joeycumines/gnbasync"
	"github.com/joeycumines/gnbasync/internal/logx"
	"github.com/joeycumines/gnbasync/timer"
)

// Manager is the "multi, indexed by transaction ID" variant: an array of N
// value-carrying manual-event slots, a matching array of timers, and an
// atomic next-index counter that wraps modulo N. A single-slot Manager
// (N=1) degenerates cleanly to a single protocol transaction manager.
type Manager[T any] struct {
	slots       []slot[T]
	next        atomic.Uint32
	cancelValue T
	svc         *timer.Service
	exec        gnbasync.Executor
	log         logx.Logger
}

type slot[T any] struct {
	event    gnbasync.ManualEvent[T]
	t        *timer.Timer
	valueSet atomic.Bool
}

// NewManager constructs a Manager with n slots (n must be >= 1).
func NewManager[T any](n int, exec gnbasync.Executor, svc *timer.Service, cancelValue T, log logx.Logger) *Manager[T] {
	if log == nil {
		log = logx.Discard()
	}
	m := &Manager[T]{slots: make([]slot[T], n), cancelValue: cancelValue, svc: svc, exec: exec, log: log}
	if svc != nil {
		for i := range m.slots {
			m.slots[i].t = svc.Create(exec)
		}
	}
	return m
}

// IndexedReceiver is the handle bound to one slot of a Manager.
type IndexedReceiver[T any] struct {
	m  *Manager[T]
	id int
}

// ID returns the slot index this receiver is bound to.
func (r *IndexedReceiver[T]) ID() int { return r.id }

// Awaiter returns an Awaiter over the bound slot's delivered value.
func (r *IndexedReceiver[T]) Awaiter() gnbasync.Awaiter[T] { return r.m.slots[r.id].event.Awaiter() }

// CreateTransaction atomically claims the next slot (fetch-and-increment
// mod N) and stops any stale timer still armed on it. If the slot was never
// resolved by the transaction that previously owned it, a waiter may still
// be registered on its event; delivering cancelValue flushes that waiter
// before the event is reset, so an abandoned transaction's caller is
// released with cancelValue rather than staying parked until the reused
// slot's own Set eventually wakes it with an unrelated value. If the slot
// was already resolved, its waiter list is already empty and the event is
// simply reset.
func (m *Manager[T]) CreateTransaction() *IndexedReceiver[T] {
	n := uint32(len(m.slots))
	id := int(m.next.Add(1)-1) % int(n)
	s := &m.slots[id]
	if s.t != nil {
		s.t.Stop()
	}
	if !s.valueSet.Load() {
		s.event.Set(m.cancelValue)
	}
	s.event.Reset()
	s.valueSet.Store(false)
	return &IndexedReceiver[T]{m: m, id: id}
}

// CreateTransactionWithTimeout additionally arms the slot's timer to
// deliver cancelValue after timeout ticks.
func (m *Manager[T]) CreateTransactionWithTimeout(timeout timer.Duration) *IndexedReceiver[T] {
	r := m.CreateTransaction()
	if m.svc == nil {
		return r
	}
	id := r.id
	m.slots[id].t.SetCallback(timeout, func(timer.ID) {
		m.set(id, m.cancelValue, true)
	})
	m.slots[id].t.Run()
	return r
}

// Set delivers value to slot id. Setting an already-set slot is a fatal
// programming error: each slot delivers exactly once, unless cancelled by
// timeout first.
func (m *Manager[T]) Set(id int, value T) {
	m.set(id, value, false)
}

func (m *Manager[T]) set(id int, value T, viaTimeout bool) {
	s := &m.slots[id]
	if viaTimeout {
		s.valueSet.Store(true)
	} else if !s.valueSet.CompareAndSwap(false, true) {
		gnbasync.FatalIndexedSlotOverwrite(m.log, id)
		return
	}
	s.event.Set(value)
}
