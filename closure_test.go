package gnbasync

import "testing"

func TestClosureInvoke(t *testing.T) {
	called := false
	c := NewClosure(func() { called = true })
	if c.IsEmpty() {
		t.Fatal("a closure wrapping a non-nil fn must not be empty")
	}
	c.Invoke()
	if !called {
		t.Fatal("Invoke should have called the wrapped fn")
	}
}

func TestClosureEmptyInvokeIsFatal(t *testing.T) {
	old := fatalHandler
	defer func() { fatalHandler = old }()
	caught := false
	fatalHandler = func(string) { caught = true }

	var c Closure
	if !c.IsEmpty() {
		t.Fatal("zero-value Closure must be empty")
	}
	c.Invoke()
	if !caught {
		t.Fatal("invoking an empty closure must be fatal")
	}
}

func TestClosureTakeEmptiesSource(t *testing.T) {
	called := 0
	c := NewClosure(func() { called++ })
	moved := c.Take()
	if !c.IsEmpty() {
		t.Fatal("Take must leave the source Closure empty")
	}
	moved.Invoke()
	if called != 1 {
		t.Fatalf("called = %d, want 1", called)
	}
}
