package game

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
)

func newTestMachine(t *testing.T) (*Machine, *events.Bus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(logger)
	return NewMachine(bus, logger), bus
}

func TestMachine_Transitions(t *testing.T) {
	t.Run("starts in loading", func(t *testing.T) {
		m, _ := newTestMachine(t)
		if m.Current() != StateLoading {
			t.Fatalf("expected loading, got %s", m.Current())
		}
	})

	t.Run("follows the happy path", func(t *testing.T) {
		m, _ := newTestMachine(t)

		path := []State{StateReady, StatePlaying, StatePaused, StatePlaying}
		for _, next := range path {
			if !m.Transition(next) {
				t.Fatalf("expected transition to %s from %s to succeed", next, m.Current())
			}
		}
		if m.Current() != StatePlaying {
			t.Fatalf("expected playing, got %s", m.Current())
		}
		if m.Previous() != StatePaused {
			t.Fatalf("expected previous paused, got %s", m.Previous())
		}
	})

	t.Run("rejects invalid targets without side effects", func(t *testing.T) {
		m, _ := newTestMachine(t)

		var entered bool
		m.SetHooks(StatePaused, Hooks{OnEnter: func() { entered = true }})

		if m.Transition(StatePaused) {
			t.Fatal("expected loading -> paused to be rejected")
		}
		if entered {
			t.Fatal("expected no hooks to run on a rejected transition")
		}
		if m.Current() != StateLoading {
			t.Fatalf("expected state unchanged, got %s", m.Current())
		}
	})

	t.Run("same state request is a no-op", func(t *testing.T) {
		m, _ := newTestMachine(t)
		if m.Transition(StateLoading) {
			t.Fatal("expected self transition to be rejected")
		}
	})

	t.Run("error is reachable from any state and terminal", func(t *testing.T) {
		m, _ := newTestMachine(t)
		m.Transition(StateReady)
		m.Transition(StatePlaying)

		m.Fail()
		if m.Current() != StateError {
			t.Fatalf("expected error state, got %s", m.Current())
		}
		if m.Transition(StateReady) {
			t.Fatal("expected no way out of error")
		}
	})
}

func TestMachine_Hooks(t *testing.T) {
	m, _ := newTestMachine(t)

	var calls []string
	m.SetHooks(StateLoading, Hooks{OnExit: func() { calls = append(calls, "exit:loading") }})
	m.SetHooks(StateReady, Hooks{OnEnter: func() { calls = append(calls, "enter:ready") }})

	m.Transition(StateReady)

	if len(calls) != 2 || calls[0] != "exit:loading" || calls[1] != "enter:ready" {
		t.Fatalf("expected exit before enter, got %v", calls)
	}
}

func TestMachine_PublishesStateChanged(t *testing.T) {
	m, bus := newTestMachine(t)

	var got domain.StateChangedEvent
	bus.Subscribe(domain.EventStateChanged, func(data any) {
		if event, ok := data.(domain.StateChangedEvent); ok {
			got = event
		}
	})

	m.Transition(StateReady)

	if got.OldState != "loading" || got.NewState != "ready" {
		t.Fatalf("expected loading -> ready event, got %+v", got)
	}
}

func TestMachine_PauseResume(t *testing.T) {
	m, _ := newTestMachine(t)

	// Outside playing, pause does nothing.
	m.Pause()
	if m.Current() != StateLoading {
		t.Fatalf("expected pause to be a no-op in loading, got %s", m.Current())
	}

	m.Transition(StateReady)
	m.Transition(StatePlaying)

	m.Pause()
	if m.Current() != StatePaused {
		t.Fatalf("expected paused, got %s", m.Current())
	}

	m.Resume()
	if m.Current() != StatePlaying {
		t.Fatalf("expected playing after resume, got %s", m.Current())
	}

	// Resume outside paused does nothing.
	m.Resume()
	if m.Current() != StatePlaying {
		t.Fatalf("expected resume to be a no-op while playing, got %s", m.Current())
	}
}

func TestMachine_Update(t *testing.T) {
	m, _ := newTestMachine(t)
	m.Transition(StateReady)
	m.Transition(StatePlaying)

	var received float64
	m.SetHooks(StatePlaying, Hooks{OnUpdate: func(delta float64) { received = delta }})

	m.Update(0.016)
	if received != 0.016 {
		t.Fatalf("expected update hook to receive delta, got %v", received)
	}
}
