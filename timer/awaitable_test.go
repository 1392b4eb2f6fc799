package timer

import "testing"

func TestAsyncWaitForZeroDurationReadyImmediately(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})
	aw := AsyncWaitFor(tm, 0).Awaiter()
	v, ok := aw.Ready()
	if !ok || !v {
		t.Fatal("duration==0 must be immediately ready with true, per await_ready iff duration==0")
	}
}

func TestAsyncWaitForResolvesFalseOnExpiry(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})

	resolved := make(chan bool, 1)
	AsyncWaitFor(tm, 3).Awaiter().Register(func(v bool) { resolved <- v })

	for i := 0; i < 3; i++ {
		svc.Tick()
	}
	select {
	case v := <-resolved:
		if v {
			t.Fatal("await_resume should be false (has_expired) when the timer genuinely expires")
		}
	default:
		t.Fatal("AsyncWaitFor should have resolved after the armed duration elapsed")
	}
}

func TestAsyncWaitForResolvesTrueOnExternalStop(t *testing.T) {
	svc := NewService(WithWheelSize(16))
	tm := svc.Create(syncExec{})

	resolved := make(chan bool, 1)
	AsyncWaitFor(tm, 100).Awaiter().Register(func(v bool) { resolved <- v })

	tm.Stop()
	select {
	case v := <-resolved:
		if !v {
			t.Fatal("await_resume should be true when the timer is stopped before it expires")
		}
	default:
		t.Fatal("Stop should resolve a pending AsyncWaitFor synchronously")
	}
}
