package transaction

import "testing"

func TestPublisherTrySetDeliversToAttachedSubscriber(t *testing.T) {
	pub := NewPublisher[string](syncExec{}, nil, nil)
	sub := pub.Attach()
	got := make(chan string, 1)
	sub.Awaiter().Register(func(v string) { got <- v })

	if !pub.TrySet("hi") {
		t.Fatal("TrySet should succeed with a subscriber attached and unset")
	}
	select {
	case v := <-got:
		if v != "hi" {
			t.Fatalf("got %q, want %q", v, "hi")
		}
	default:
		t.Fatal("TrySet should resume the subscriber synchronously")
	}
}

func TestPublisherTrySetFailsWithoutSubscriber(t *testing.T) {
	pub := NewPublisher[int](syncExec{}, nil, nil)
	if pub.TrySet(1) {
		t.Fatal("TrySet must fail with no attached subscriber")
	}
}

func TestPublisherTrySetFailsIfAlreadySet(t *testing.T) {
	pub := NewPublisher[int](syncExec{}, nil, nil)
	pub.Attach()
	if !pub.TrySet(1) {
		t.Fatal("first TrySet should succeed")
	}
	if pub.TrySet(2) {
		t.Fatal("TrySet must fail once the subscriber has already been detached by the first delivery")
	}
}

func TestSubscriberDetachIsCleanAndIdempotent(t *testing.T) {
	pub := NewPublisher[int](syncExec{}, nil, nil)
	sub := pub.Attach()
	sub.Detach()
	sub.Detach() // idempotent
	if pub.TrySet(1) {
		t.Fatal("TrySet must fail once the subscriber has detached")
	}
}

func TestAttachReplacesPreviousSubscriber(t *testing.T) {
	pub := NewPublisher[int](syncExec{}, nil, nil)
	first := pub.Attach()
	_ = pub.Attach() // replaces first
	if pub.sub == first {
		t.Fatal("a second Attach should replace the first subscriber")
	}
}
