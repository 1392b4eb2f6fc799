package transaction

import (
	"testing"

	"github.com/joeycumines/gnbasync"
	"github.com/joeycumines/gnbasync/timer"
)

type syncExec struct{}

func (syncExec) Execute(fn func()) bool { fn(); return true }
func (syncExec) Defer(fn func()) bool   { fn(); return true }

func TestChannelDeliversValueToReceiver(t *testing.T) {
	ch := NewChannel[string](syncExec{}, nil, "TIMEOUT", nil)
	recv := ch.CreateTransaction()

	got := make(chan string, 1)
	recv.Awaiter().Register(func(v string) { got <- v })
	ch.Set("hello")

	select {
	case v := <-got:
		if v != "hello" {
			t.Fatalf("got %q, want %q", v, "hello")
		}
	default:
		t.Fatal("Set should deliver synchronously to a registered receiver")
	}
}

func TestChannelConcurrentCreateIsFatal(t *testing.T) {
	caught := false
	restore := gnbasync.SetFatalHandler(func(string) { caught = true })
	defer restore()

	ch := NewChannel[int](syncExec{}, nil, -1, nil)
	ch.CreateTransaction()
	ch.CreateTransaction() // second concurrent transaction: fatal
	if !caught {
		t.Fatal("creating a second live transaction on the same channel must be fatal")
	}
}

func TestChannelTimeoutDeliversCancelValue(t *testing.T) {
	svc := timer.NewService(timer.WithWheelSize(16))
	ch := NewChannel[string](syncExec{}, svc, "TIMEOUT", nil)
	recv := ch.CreateTransactionWithTimeout(5)

	got := make(chan string, 1)
	recv.Awaiter().Register(func(v string) { got <- v })

	for i := 0; i < 5; i++ {
		svc.Tick()
	}
	select {
	case v := <-got:
		if v != "TIMEOUT" {
			t.Fatalf("got %q, want TIMEOUT", v)
		}
	default:
		t.Fatal("the transaction should have timed out and delivered the cancel value")
	}
}

func TestChannelOverwriteIsWarningNotFatal(t *testing.T) {
	ch := NewChannel[int](syncExec{}, nil, -1, nil)
	ch.CreateTransaction()
	ch.Set(1)
	ch.Set(2) // overwrite: logged warning, later value wins, never fatal
	if v := ch.event.Get(); v != 2 {
		t.Fatalf("event value = %d, want 2 (later value wins)", v)
	}
}
