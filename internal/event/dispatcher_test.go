package event

import "testing"

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := NewDispatcher()

	var calls []int
	first := func(Event) { calls = append(calls, 1) }
	second := func(Event) { calls = append(calls, 2) }
	third := func(Event) { calls = append(calls, 3) }

	d.Register(KindTrade, first)
	d.Register(KindTrade, second)
	d.Register(KindTrade, third)

	d.Publish(Event{Kind: KindTrade})

	if len(calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(calls))
	}
	for i, want := range []int{1, 2, 3} {
		if calls[i] != want {
			t.Errorf("call %d: expected handler %d, got %d", i, want, calls[i])
		}
	}
}

func TestDispatcher_DuplicateIgnored(t *testing.T) {
	d := NewDispatcher()

	count := 0
	h := func(Event) { count++ }

	d.Register(KindOrder, h)
	d.Register(KindOrder, h)

	d.Publish(Event{Kind: KindOrder})

	if count != 1 {
		t.Errorf("duplicate registration should be ignored, handler ran %d times", count)
	}
}

func TestDispatcher_UnregisterIdempotent(t *testing.T) {
	d := NewDispatcher()

	count := 0
	h := func(Event) { count++ }

	d.Register(KindOrder, h)
	d.Unregister(KindOrder, h)
	d.Unregister(KindOrder, h) // second removal is a no-op

	d.Publish(Event{Kind: KindOrder})

	if count != 0 {
		t.Errorf("unregistered handler ran %d times", count)
	}
}

func TestDispatcher_KindIsolation(t *testing.T) {
	d := NewDispatcher()

	var got Kind
	d.Register(KindTrade, func(ev Event) { got = ev.Kind })

	d.Publish(Event{Kind: KindOrder})
	if got != 0 {
		t.Fatal("TRADE handler ran for an ORDER event")
	}

	d.Publish(Event{Kind: KindTrade})
	if got != KindTrade {
		t.Fatal("TRADE handler did not run for a TRADE event")
	}
}

func TestDispatcher_ReentrantPublishRunsDepthFirst(t *testing.T) {
	d := NewDispatcher()

	var calls []string
	d.Register(KindTrade, func(Event) { calls = append(calls, "trade") })
	d.Register(KindOrder, func(ev Event) {
		calls = append(calls, "order-pre")
		d.Publish(Event{Kind: KindTrade})
		calls = append(calls, "order-post")
	})

	d.Publish(Event{Kind: KindOrder})

	want := []string{"order-pre", "trade", "order-post"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d: expected %q, got %q", i, want[i], calls[i])
		}
	}
}
