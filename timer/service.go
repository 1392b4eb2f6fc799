// Package timer implements a hashed time-wheel timer service: a
// multi-threaded front-end of per-timer handles, a single command queue, and
// a single-threaded back-end wheel driven by an external tick source. The
// epoch counter on every frontend record is what lets an expiry dispatched
// from the backend's tick thread be recognised as stale (and dropped) if the
// frontend has since stopped, re-armed, or destroyed that timer.
package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/gnbasync"
	"github.com/joeycumines/gnbasync/internal/backpressure"
	"github.com/joeycumines/gnbasync/internal/logx"
)

// ID is a timer's immutable identity, stable for the timer's lifetime
// (reused only after Destroy has been acknowledged by the backend).
type ID uint32

// InvalidID is never returned by Service.Create.
const InvalidID ID = 0

// Duration is a tick count. InvalidDuration marks "unset"; MaxDuration is
// the caller-observable upper bound enforced to avoid wheel wrap-around
// ambiguity when comparing a stored absolute timeout against the current
// tick.
const (
	InvalidDuration Duration = ^Duration(0)
	MaxDuration              = InvalidDuration / 2
)

// Duration is a 32-bit tick count, matching the backend wheel's tick
// counter width.
type Duration = uint32

type cmdAction int

const (
	cmdStart cmdAction = iota
	cmdStop
	cmdDestroy
)

type command struct {
	id       ID
	epoch    uint64
	action   cmdAction
	duration Duration
}

// DefaultWheelSize is the default power-of-two bucket count.
const DefaultWheelSize = 1 << 16

// Service is the timer backend: the command queue, the wheel, and the
// dense frontend-record registry. Exactly one goroutine may call Tick (the
// backend tick thread); Create/frontend operations are safe from any
// goroutine.
type Service struct {
	wheelMask uint32
	wheel     []bucket
	now       atomic.Uint32

	cmdMu   sync.Mutex
	cmdQ    []command
	backend map[ID]*backendRecord

	regMu     sync.Mutex
	frontends map[ID]*Timer
	nextID    uint32
	freeList  []ID

	fails *backpressure.Counter
	log   logx.Logger
}

// Option configures a Service.
type Option func(*config)

type config struct {
	wheelSize uint32
	log       logx.Logger
}

// WithWheelSize overrides DefaultWheelSize. Rounded up to the next power of
// two if not already one.
func WithWheelSize(n uint32) Option {
	return func(c *config) { c.wheelSize = nextPow2(n) }
}

// WithLogger attaches a structured logger.
func WithLogger(log logx.Logger) Option { return func(c *config) { c.log = log } }

func nextPow2(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

// NewService constructs a Service with an empty wheel. Tick must be driven
// externally (see TickSource / RealTimeTicker) for timers to ever expire.
func NewService(opts ...Option) *Service {
	cfg := config{wheelSize: DefaultWheelSize, log: logx.Discard()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logx.Discard()
	}
	s := &Service{
		wheelMask: cfg.wheelSize - 1,
		wheel:     make([]bucket, cfg.wheelSize),
		backend:   make(map[ID]*backendRecord),
		frontends: make(map[ID]*Timer),
		// Escalate a category (here, "timer dispatch") failing its executor
		// more than 50 times/second: a wedged executor is a different
		// failure mode from ordinary back-pressure and worth a louder log.
		fails: backpressure.New(map[time.Duration]int{time.Second: 50}),
		log:   cfg.log,
	}
	return s
}

// Now returns the service's last-processed absolute tick.
func (s *Service) Now() uint32 { return s.now.Load() }

// Count returns the number of live (non-destroyed) timers.
func (s *Service) Count() int {
	s.regMu.Lock()
	defer s.regMu.Unlock()
	return len(s.frontends)
}

// RunningCount returns the number of timers currently linked into the
// wheel (state running, not yet expired).
func (s *Service) RunningCount() int {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()
	n := 0
	for _, r := range s.backend {
		if r.inWheel {
			n++
		}
	}
	return n
}

// Create allocates a new Timer bound to exec, reusing a destroyed timer's
// id if one is free.
func (s *Service) Create(exec gnbasync.Executor) *Timer {
	s.regMu.Lock()
	var id ID
	if n := len(s.freeList); n > 0 {
		id = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
	} else {
		s.nextID++
		id = ID(s.nextID)
	}
	t := &Timer{id: id, svc: s, exec: exec, duration: InvalidDuration}
	s.frontends[id] = t
	s.regMu.Unlock()

	s.cmdMu.Lock()
	s.backend[id] = &backendRecord{id: id}
	s.cmdMu.Unlock()
	return t
}

func (s *Service) pushCommand(c command) {
	s.cmdMu.Lock()
	s.cmdQ = append(s.cmdQ, c)
	s.cmdMu.Unlock()
}

// release returns id to the free list, called once the backend has fully
// forgotten a destroyed timer.
func (s *Service) release(id ID) {
	s.regMu.Lock()
	delete(s.frontends, id)
	s.freeList = append(s.freeList, id)
	s.regMu.Unlock()
}

// backendRecord is the paired per-timer state touched only by the backend
// tick thread.
type backendRecord struct {
	id      ID
	epoch   uint64
	running bool
	timeout uint32
	inWheel bool
	prev    *backendRecord
	next    *backendRecord
}

// bucket is an intrusive doubly-linked list of backendRecord, indexed by
// timeout mod wheel size.
type bucket struct {
	head *backendRecord
}

func (b *bucket) push(r *backendRecord) {
	r.next = b.head
	r.prev = nil
	if b.head != nil {
		b.head.prev = r
	}
	b.head = r
	r.inWheel = true
}

func (b *bucket) unlink(r *backendRecord) {
	if !r.inWheel {
		return
	}
	if r.prev != nil {
		r.prev.next = r.next
	} else {
		b.head = r.next
	}
	if r.next != nil {
		r.next.prev = r.prev
	}
	r.prev, r.next = nil, nil
	r.inWheel = false
}

// Tick advances the wheel by one step: drain pending commands, advance now,
// then walk the bucket at the new now and dispatch expiries. Must only be
// called from the single owning backend tick thread — concurrent Tick
// calls are not safe.
func (s *Service) Tick() {
	s.cmdMu.Lock()
	cmds := s.cmdQ
	s.cmdQ = nil
	s.cmdMu.Unlock()

	now := s.now.Load()
	for _, c := range cmds {
		r, ok := s.backend[c.id]
		if !ok {
			continue
		}
		r.epoch = c.epoch
		if r.inWheel {
			s.wheel[r.timeout&s.wheelMask].unlink(r)
		}
		switch c.action {
		case cmdStart:
			r.running = true
			d := c.duration
			if d < 1 {
				d = 1
			}
			r.timeout = now + d
			s.wheel[r.timeout&s.wheelMask].push(r)
		case cmdStop:
			r.running = false
		case cmdDestroy:
			r.running = false
			delete(s.backend, c.id)
			s.release(c.id)
		}
	}

	now++
	s.now.Store(now)

	b := &s.wheel[now&s.wheelMask]
	var expired []*backendRecord
	for r := b.head; r != nil; {
		next := r.next
		if r.timeout == now {
			b.unlink(r)
			expired = append(expired, r)
		}
		r = next
	}

	for _, r := range expired {
		s.dispatchExpiry(r.id, r.epoch)
	}
}

// dispatchExpiry does a racy-but-safe epoch comparison before handing the
// expiry to the owning executor, and an authoritative re-comparison once it
// actually runs there.
func (s *Service) dispatchExpiry(id ID, backendEpoch uint64) {
	s.regMu.Lock()
	t, ok := s.frontends[id]
	s.regMu.Unlock()
	if !ok {
		return
	}
	if t.epoch.Load() != backendEpoch {
		return // stale before dispatch; drop silently
	}
	if !t.exec.Execute(func() { t.fireExpiry(backendEpoch) }) {
		if _, escalate := s.fails.Fail("timer-dispatch"); escalate {
			s.log.Error("timer expiry dispatch failing persistently", "id", id)
		}
	}
}
