package timer

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// syncExec runs Execute inline (single-threaded tests can treat "dispatched"
// as "ran"), matching how the root package's executor.Inline behaves.
type syncExec struct{}

func (syncExec) Execute(fn func()) bool { fn(); return true }
func (syncExec) Defer(fn func()) bool   { fn(); return true }

// queueExec defers execution until drain is called, letting a test
// interleave a Stop between dispatch and the executor actually running the
// closure (an epoch race between a stop and an in-flight expiry dispatch).
type queueExec struct {
	mu      sync.Mutex
	pending []func()
}

func (q *queueExec) Execute(fn func()) bool {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	return true
}
func (q *queueExec) Defer(fn func()) bool { return q.Execute(fn) }
func (q *queueExec) drain() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

func TestTimerExpiresAfterConfiguredDuration(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})
	var fired atomic.Bool
	tm.SetCallback(3, func(ID) { fired.Store(true) })
	tm.Run()

	for i := 0; i < 2; i++ {
		svc.Tick()
		require.False(t, fired.Load(), "timer fired before its configured duration elapsed")
	}
	svc.Tick()
	require.True(t, fired.Load(), "timer should have expired on the third tick")
	require.True(t, tm.HasExpired(), "timer frontend state should be Expired")
}

func TestTimerStopPreventsExpiry(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})
	var fired atomic.Bool
	tm.SetCallback(5, func(ID) { fired.Store(true) })
	tm.Run()
	for i := 0; i < 3; i++ {
		svc.Tick()
	}
	tm.Stop()
	for i := 0; i < 5; i++ {
		svc.Tick()
	}
	require.False(t, fired.Load(), "a stopped timer must never fire")
	require.True(t, tm.IsSet(), "Stop should not clear the configured duration")
}

// TestEpochRaceStopOnExpiringTick stops the timer on the same tick it would
// otherwise expire, before the executor actually drains the dispatched
// expiry closure. The authoritative epoch re-check inside the closure must
// see the bumped epoch and drop the expiry silently.
func TestEpochRaceStopOnExpiringTick(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	qe := &queueExec{}
	tm := svc.Create(qe)
	var fired atomic.Bool
	tm.SetCallback(5, func(ID) { fired.Store(true) })
	tm.Run()

	for i := 0; i < 4; i++ {
		svc.Tick()
	}
	svc.Tick() // now==5: backend sees expiry, dispatches (queued, not run)
	tm.Stop()  // bumps epoch before the dispatched closure is drained
	qe.drain()

	require.False(t, fired.Load(), "a same-tick Stop must suppress an in-flight expiry dispatch")
	require.Equal(t, Stopped, tm.State())
}

func TestTimerDestroyReturnsIDToFreeList(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	t1 := svc.Create(syncExec{})
	id1 := t1.ID()
	t1.Destroy()
	svc.Tick() // drain the destroy command

	t2 := svc.Create(syncExec{})
	if t2.ID() != id1 {
		t.Fatalf("Create after Destroy+drain should reuse freed id %d, got %d", id1, t2.ID())
	}
}

func TestRunningCountTracksWheelMembership(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})
	tm.SetCallback(10, func(ID) {})
	tm.Run()
	svc.Tick()
	if svc.RunningCount() != 1 {
		t.Fatalf("RunningCount() = %d, want 1", svc.RunningCount())
	}
	tm.Stop()
	svc.Tick()
	if svc.RunningCount() != 0 {
		t.Fatalf("RunningCount() = %d, want 0 after Stop", svc.RunningCount())
	}
}

func TestSetReArmsRunningTimerWithNewDuration(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})
	var fired atomic.Bool
	tm.SetCallback(2, func(ID) { fired.Store(true) })
	tm.Run()
	svc.Tick()
	// Re-arm to a longer duration before the original would have expired.
	tm.Set(10)
	svc.Tick() // would have been the original expiry tick
	if fired.Load() {
		t.Fatal("Set should have re-armed the timer past its original expiry")
	}
}
