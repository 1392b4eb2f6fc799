package timer

import "github.com/joeycumines/gnbasync"

// AsyncWaitFor returns an awaitable that arms t for duration ticks and
// suspends until it either expires or is stopped. The returned bool is
// true if the timer was stopped before expiry, false if it actually
// expired, with duration==0 short-circuiting to an immediately-ready true.
func AsyncWaitFor(t *Timer, duration Duration) gnbasync.Awaitable[bool] {
	return waitFor{t: t, d: duration}
}

type waitFor struct {
	t *Timer
	d Duration
}

func (w waitFor) Awaiter() gnbasync.Awaiter[bool] { return &waitForAwaiter{w: w} }

type waitForAwaiter struct{ w waitFor }

func (a *waitForAwaiter) Ready() (bool, bool) {
	if a.w.d == 0 {
		return true, true
	}
	return false, false
}

func (a *waitForAwaiter) Register(resume func(bool)) func() {
	t := a.w.t
	t.hookMu.Lock()
	t.hook = func(_ ID, expired bool) { resume(!expired) }
	t.hookMu.Unlock()
	t.setDuration(a.w.d)
	t.Run()
	return func() {
		t.hookMu.Lock()
		t.hook = nil
		t.hookMu.Unlock()
		t.stopCommand()
	}
}
