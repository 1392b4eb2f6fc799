package timer

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// TickSource drives a Service's wheel externally, decoupling "what counts
// as one tick" from the service itself: tests commonly drive Tick directly,
// one call per simulated tick, without any wall-clock source at all.
type TickSource interface {
	Start(svc *Service)
	Stop()
}

// RealTimeTicker is a TickSource backed by a real-time sleep loop: each
// period it calls unix.Nanosleep directly rather than time.Sleep, a
// lower-level wait primitive than the runtime's own timer-heap-backed one.
type RealTimeTicker struct {
	period time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewRealTimeTicker constructs a ticker that calls Tick once per period.
func NewRealTimeTicker(period time.Duration) *RealTimeTicker {
	return &RealTimeTicker{period: period}
}

// Start begins the sleep-tick loop on a new goroutine. Starting an already
// running ticker is a no-op.
func (r *RealTimeTicker) Start(svc *Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	go r.run(svc, r.stop, r.done)
}

func (r *RealTimeTicker) run(svc *Service, stop, done chan struct{}) {
	defer close(done)
	spec := unix.NsecToTimespec(r.period.Nanoseconds())
	for {
		select {
		case <-stop:
			return
		default:
		}
		req := spec
		var rem unix.Timespec
		for {
			err := unix.Nanosleep(&req, &rem)
			if err == nil || err != unix.EINTR {
				break
			}
			req = rem
		}
		svc.Tick()
	}
}

// Stop ends the sleep-tick loop and waits for the goroutine to exit.
func (r *RealTimeTicker) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stop, done := r.stop, r.done
	r.mu.Unlock()
	close(stop)
	<-done
}
