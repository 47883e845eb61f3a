package fsm

import (
	"errors"
	"strings"
	"sync"
)

// State describes where a recording session is in its lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateClosed    State = "closed"
)

// Mode decides when a session writes its artifacts.
type Mode string

const (
	// ModeManual exports only on explicit request and on close.
	ModeManual Mode = "manual"
	// ModeAuto exports after every recorded action as well.
	ModeAuto Mode = "auto"
)

// ErrClosed is returned when an action arrives after the session closed.
var ErrClosed = errors.New("session closed")

// Machine is a lightweight deterministic session state machine.
type Machine struct {
	mu    sync.RWMutex
	state State
	mode  Mode
}

// New creates a state machine with default idle/manual values.
func New() *Machine {
	return &Machine{
		state: StateIdle,
		mode:  ModeManual,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Mode returns the current export mode.
func (m *Machine) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SetMode updates the export policy. Unknown values fall back to manual.
func (m *Machine) SetMode(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = ParseMode(mode)
}

// ParseMode normalizes a configured export mode.
func ParseMode(mode string) Mode {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case string(ModeAuto):
		return ModeAuto
	default:
		return ModeManual
	}
}

// OnAction moves the session into recording, or fails once it is closed.
func (m *Machine) OnAction() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return ErrClosed
	}
	m.state = StateRecording
	return nil
}

// OnClose marks the session closed. It reports whether this call closed it.
func (m *Machine) OnClose() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return false
	}
	m.state = StateClosed
	return true
}
