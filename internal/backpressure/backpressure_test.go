package backpressure

import (
	"testing"
	"time"
)

func TestFailAccumulatesPendingCount(t *testing.T) {
	c := New(map[time.Duration]int{time.Minute: 1000})
	p1, _ := c.Fail("exec-a")
	p2, _ := c.Fail("exec-a")
	if p1 != 1 || p2 != 2 {
		t.Fatalf("pending counts = %d, %d, want 1, 2", p1, p2)
	}
}

func TestDrainResetsPendingCount(t *testing.T) {
	c := New(map[time.Duration]int{time.Minute: 1000})
	c.Fail("exec-a")
	c.Fail("exec-a")
	n := c.Drain("exec-a")
	if n != 2 {
		t.Fatalf("Drain returned %d, want 2", n)
	}
	if n := c.Drain("exec-a"); n != 0 {
		t.Fatalf("Drain after drain returned %d, want 0", n)
	}
}

func TestFailCategoriesAreIndependent(t *testing.T) {
	c := New(map[time.Duration]int{time.Minute: 1000})
	c.Fail("a")
	c.Fail("a")
	c.Fail("b")
	if n := c.Drain("a"); n != 2 {
		t.Fatalf("category a = %d, want 2", n)
	}
	if n := c.Drain("b"); n != 1 {
		t.Fatalf("category b = %d, want 1", n)
	}
}

func TestFailEscalatesPastConfiguredRate(t *testing.T) {
	c := New(map[time.Duration]int{time.Second: 2})
	var escalated bool
	for i := 0; i < 5; i++ {
		_, escalate := c.Fail("wedged")
		if escalate {
			escalated = true
		}
	}
	if !escalated {
		t.Fatal("failing well past the configured rate should eventually escalate")
	}
}
