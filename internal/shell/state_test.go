package shell

import (
	"testing"
	"time"

	"github.com/skillswap/swapchat/internal/bus"
)

func TestStartsClosed(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Closed {
		t.Errorf("initial state = %s, want %s", m.Current(), Closed)
	}
}

func TestOpenMinimizeReopen(t *testing.T) {
	m := NewMachine(nil)

	for _, to := range []State{Open, Minimized, Open, Minimized, Closed} {
		if err := m.Transition(to); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}
	if m.Current() != Closed {
		t.Errorf("final state = %s, want %s", m.Current(), Closed)
	}
}

func TestInvalidTransitions(t *testing.T) {
	m := NewMachine(nil)

	// Cannot minimize a closed surface.
	if err := m.Transition(Minimized); err == nil {
		t.Error("Closed -> Minimized should be rejected")
	}
	// Self-transition is not listed.
	if err := m.Transition(Closed); err == nil {
		t.Error("Closed -> Closed should be rejected")
	}
	// State unchanged after rejected transitions.
	if m.Current() != Closed {
		t.Errorf("state = %s after rejected transitions, want %s", m.Current(), Closed)
	}
}

func TestTransitionPublishesEvent(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("shell.", 4)
	defer unsub()

	m := NewMachine(b)
	if err := m.Transition(Open); err != nil {
		t.Fatal(err)
	}

	select {
	case evt := <-ch:
		change, ok := evt.Payload.(StateChange)
		if !ok {
			t.Fatalf("payload type %T", evt.Payload)
		}
		if change.From != Closed || change.To != Open {
			t.Errorf("change = %+v", change)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for state change event")
	}
}
