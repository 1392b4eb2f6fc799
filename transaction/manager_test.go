package transaction

import (
	"testing"

	"github.com/joeycumines/gnbasync"
	"github.com/joeycumines/gnbasync/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerIndexedTransactionDelivery(t *testing.T) {
	mgr := NewManager[int](8, syncExec{}, nil, -1, nil)
	r := mgr.CreateTransaction()
	got := make(chan int, 1)
	r.Awaiter().Register(func(v int) { got <- v })
	mgr.Set(r.ID(), 99)
	select {
	case v := <-got:
		assert.Equal(t, 99, v)
	default:
		t.Fatal("Set should deliver synchronously")
	}
}

func TestManagerNextIndexWrapsModuloN(t *testing.T) {
	mgr := NewManager[int](4, syncExec{}, nil, -1, nil)
	seen := map[int]bool{}
	for i := 0; i < 8; i++ {
		r := mgr.CreateTransaction()
		require.GreaterOrEqual(t, r.ID(), 0)
		require.Less(t, r.ID(), 4)
		seen[r.ID()] = true
	}
	assert.Len(t, seen, 4, "expected all 4 slots to be cycled through")
}

// TestIndexedTransactionTimeout drives an N=8 manager, a transaction with
// timeout 100, advanced 100 ticks without setting — the receiver resolves
// with cancelValue, and a subsequent Set on that slot is fatal.
func TestIndexedTransactionTimeout(t *testing.T) {
	svc := timer.NewService(timer.WithWheelSize(128))
	mgr := NewManager[int](8, syncExec{}, svc, -1, nil)
	r := mgr.CreateTransactionWithTimeout(100)

	got := make(chan int, 1)
	r.Awaiter().Register(func(v int) { got <- v })
	for i := 0; i < 100; i++ {
		svc.Tick()
	}
	select {
	case v := <-got:
		if v != -1 {
			t.Fatalf("got %d, want cancelValue -1", v)
		}
	default:
		t.Fatal("transaction should have timed out after 100 ticks")
	}

	caught := false
	restore := gnbasync.SetFatalHandler(func(string) { caught = true })
	defer restore()
	mgr.Set(r.ID(), 42)
	if !caught {
		t.Fatal("setting an already-timed-out slot must be fatal")
	}
}

// TestManagerReuseFlushesStaleWaiterWithCancelValue registers a waiter on a
// slot that is never Set, lets the index wrap all the way around back to
// that same slot, and confirms the stale waiter is released with
// cancelValue at reuse time rather than later observing the new
// transaction's unrelated value.
func TestManagerReuseFlushesStaleWaiterWithCancelValue(t *testing.T) {
	const n = 4
	mgr := NewManager[int](n, syncExec{}, nil, -1, nil)

	stale := mgr.CreateTransaction()
	got := make(chan int, 1)
	stale.Awaiter().Register(func(v int) { got <- v })

	for i := 0; i < n-1; i++ {
		mgr.CreateTransaction()
	}
	select {
	case v := <-got:
		t.Fatalf("stale waiter resumed early with %d, before the slot wrapped back around", v)
	default:
	}

	reused := mgr.CreateTransaction()
	require.Equal(t, stale.ID(), reused.ID(), "expected the index to wrap back to the original slot")

	select {
	case v := <-got:
		assert.Equal(t, -1, v, "stale waiter must be released with cancelValue on slot reuse")
	default:
		t.Fatal("reusing the slot must flush the stale waiter")
	}

	mgr.Set(reused.ID(), 42)
	select {
	case v := <-got:
		t.Fatalf("stale waiter resumed a second time with %d; it must not observe the new transaction's value", v)
	default:
	}
}

func TestManagerOverwriteIsFatal(t *testing.T) {
	mgr := NewManager[int](4, syncExec{}, nil, -1, nil)
	r := mgr.CreateTransaction()
	mgr.Set(r.ID(), 1)

	caught := false
	restore := gnbasync.SetFatalHandler(func(string) { caught = true })
	defer restore()
	mgr.Set(r.ID(), 2)
	if !caught {
		t.Fatal("setting an already-set indexed slot must be fatal")
	}
}
