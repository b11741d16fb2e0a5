package shell

import (
	"fmt"
	"slices"
	"sync"

	"github.com/skillswap/swapchat/internal/bus"
)

// State represents the chat surface visibility state.
type State string

const (
	// Closed means no chat UI is mounted and no polling runs.
	Closed State = "CLOSED"
	// Open means the chat surface is visible and fully polled.
	Open State = "OPEN"
	// Minimized means the surface is collapsed to its badge; polling
	// continues so the badge stays current.
	Minimized State = "MINIMIZED"
)

// validTransitions defines allowed visibility transitions. Minimized is
// only reachable from Open, and reopening from Minimized restores the
// previous conversation rather than starting fresh.
var validTransitions = map[State][]State{
	Closed:    {Open},
	Open:      {Minimized, Closed},
	Minimized: {Open, Closed},
}

// Machine tracks and enforces chat surface visibility transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a new visibility machine starting in Closed state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Closed,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Emit(bus.KindShellStateChanged, StateChange{From: from, To: to})
	}
	return nil
}

// StateChange is the payload for visibility change events.
type StateChange struct {
	From State
	To   State
}
