package executor

import (
	"sync"
	"sync/atomic"

	"github.com/joeycumines/gnbasync/internal/gid"
	"github.com/joeycumines/gnbasync/internal/logx"
)

// Worker is a single-goroutine, channel-backed Executor: exactly the
// "owning executor thread" the timer service and task frames assume. A
// bounded channel backs its work queue, and a goroutine-ID check lets
// Execute run inline when the caller is already on the worker's own
// goroutine.
type Worker struct {
	ch        chan func()
	closeOnce sync.Once
	closed    chan struct{}
	exited    chan struct{}
	ownerGID  atomic.Uint64
	started   chan struct{}
	log       logx.Logger
}

// Option configures a Worker.
type Option func(*workerConfig)

type workerConfig struct {
	capacity int
	log      logx.Logger
}

// WithQueueCapacity sets the bounded channel capacity backing the worker.
// Default 256.
func WithQueueCapacity(n int) Option { return func(c *workerConfig) { c.capacity = n } }

// WithLogger attaches a structured logger.
func WithLogger(log logx.Logger) Option { return func(c *workerConfig) { c.log = log } }

// NewWorker starts a Worker goroutine and returns the handle controlling it.
func NewWorker(opts ...Option) *Worker {
	cfg := workerConfig{capacity: 256, log: logx.Discard()}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logx.Discard()
	}
	w := &Worker{
		ch:      make(chan func(), cfg.capacity),
		closed:  make(chan struct{}),
		exited:  make(chan struct{}),
		started: make(chan struct{}),
		log:     cfg.log,
	}
	go w.run()
	<-w.started
	return w
}

func (w *Worker) run() {
	w.ownerGID.Store(uint64(gid.Current()))
	close(w.started)
	defer close(w.exited)
	for {
		select {
		case fn := <-w.ch:
			fn()
		case <-w.closed:
			// Drain whatever is already queued before exiting, so a
			// Close racing with a just-accepted Execute/Defer doesn't
			// silently drop work.
			for {
				select {
				case fn := <-w.ch:
					fn()
				default:
					return
				}
			}
		}
	}
}

// onOwnerGoroutine reports whether the calling goroutine is the worker's
// own, i.e. whether running a closure right now would be safe per the
// "same thread" rule Execute's inline option requires.
func (w *Worker) onOwnerGoroutine() bool {
	return gid.ID(w.ownerGID.Load()).IsCurrent()
}

// Execute runs closure inline if called from the worker's own goroutine
// (reentrant dispatch, e.g. a timer callback scheduling more work from
// inside itself); otherwise it enqueues, returning false if the queue is
// full.
func (w *Worker) Execute(closure func()) bool {
	if w.onOwnerGoroutine() {
		closure()
		return true
	}
	select {
	case w.ch <- closure:
		return true
	case <-w.closed:
		return false
	default:
		return false
	}
}

// Defer always enqueues, never running closure inline, even when called
// from the worker's own goroutine.
func (w *Worker) Defer(closure func()) bool {
	select {
	case w.ch <- closure:
		return true
	case <-w.closed:
		return false
	default:
		return false
	}
}

// Close stops accepting new work and waits for the goroutine to drain and
// exit. Idempotent.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.closed) })
	<-w.exited
}
