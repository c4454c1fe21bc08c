// Package game holds the scene lifecycle pieces: a small state machine
// gating when updates run, and the frame loop driving update/render phases.
package game

import (
	"log/slog"

	"github.com/vrstore/storefront/internal/domain"
	"github.com/vrstore/storefront/internal/events"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateError   State = "error"
)

// allowed transitions; Error is reachable from anywhere and terminal.
var transitions = map[State][]State{
	StateLoading: {StateReady, StateError},
	StateReady:   {StatePlaying, StateError},
	StatePlaying: {StatePaused, StateError},
	StatePaused:  {StatePlaying, StateError},
	StateError:   {},
}

// Hooks are the per-state lifecycle callbacks. All fields are optional.
type Hooks struct {
	OnEnter  func()
	OnExit   func()
	OnUpdate func(delta float64)
}

// Machine manages the scene lifecycle. It starts in Loading. Not safe for
// concurrent use; the frame loop and the composition root are its only
// callers.
type Machine struct {
	current  State
	previous State
	hooks    map[State]Hooks
	bus      *events.Bus
	logger   *slog.Logger
}

func NewMachine(bus *events.Bus, logger *slog.Logger) *Machine {
	return &Machine{
		current: StateLoading,
		hooks:   make(map[State]Hooks),
		bus:     bus,
		logger:  logger,
	}
}

// SetHooks installs the lifecycle callbacks for a state.
func (m *Machine) SetHooks(state State, hooks Hooks) {
	m.hooks[state] = hooks
}

// Current returns the active state.
func (m *Machine) Current() State {
	return m.current
}

// Previous returns the state before the last accepted transition.
func (m *Machine) Previous() State {
	return m.previous
}

// Is reports whether the machine is in the given state.
func (m *Machine) Is(state State) bool {
	return m.current == state
}

// Transition requests a state change. Invalid targets are rejected and
// logged without running any hooks. On success the old state's exit hook
// runs, then the new state's enter hook, then a state:changed event is
// published.
func (m *Machine) Transition(to State) bool {
	if to == m.current {
		return false
	}
	if !m.canTransition(to) {
		m.logger.Warn("rejected state transition", "from", string(m.current), "to", string(to))
		return false
	}

	m.logger.Info("state transition", "from", string(m.current), "to", string(to))

	if hooks, ok := m.hooks[m.current]; ok && hooks.OnExit != nil {
		hooks.OnExit()
	}

	m.previous = m.current
	m.current = to

	if hooks, ok := m.hooks[to]; ok && hooks.OnEnter != nil {
		hooks.OnEnter()
	}

	m.bus.Publish(domain.EventStateChanged, domain.StateChangedEvent{
		OldState: string(m.previous),
		NewState: string(m.current),
	})
	return true
}

func (m *Machine) canTransition(to State) bool {
	for _, allowed := range transitions[m.current] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Pause suspends updates. It is a no-op outside Playing.
func (m *Machine) Pause() {
	if m.current == StatePlaying {
		m.Transition(StatePaused)
	}
}

// Resume returns to Playing. It is a no-op outside Paused.
func (m *Machine) Resume() {
	if m.current == StatePaused {
		m.Transition(StatePlaying)
	}
}

// Fail moves to the terminal Error state from wherever the machine is.
func (m *Machine) Fail() {
	m.Transition(StateError)
}

// Update runs the active state's update hook.
func (m *Machine) Update(delta float64) {
	if hooks, ok := m.hooks[m.current]; ok && hooks.OnUpdate != nil {
		hooks.OnUpdate(delta)
	}
}
