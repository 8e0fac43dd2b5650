// Package runtime manages backend lifecycle on a memory-constrained
// host: at most one backend holds loaded resources at any instant.
package runtime

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/zen-systems/modelgate/pkg/adapter"
)

// Sentinel conditions checked with errors.Is.
var (
	// ErrAlreadyRegistered reports a duplicate backend registration.
	ErrAlreadyRegistered = errors.New("backend already registered")

	// ErrUnknownBackend reports a name no adapter was registered under.
	ErrUnknownBackend = errors.New("backend not registered")
)

// Manager tracks registered backends and enforces the single-active
// guarantee. Switching backends unloads the old one before loading the
// new one, accepting a brief window with nothing loaded.
type Manager struct {
	mu       sync.Mutex
	adapters map[string]adapter.ModelAdapter
	order    []string
	activeID string
	history  []string
	logger   *zap.Logger
}

// NewManager creates a runtime manager. A nil logger defaults to no-op.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		adapters: make(map[string]adapter.ModelAdapter),
		logger:   logger,
	}
}

// Register adds a backend under a unique name.
func (m *Manager) Register(name string, a adapter.ModelAdapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.adapters[name]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	m.adapters[name] = a
	m.order = append(m.order, name)
	m.logger.Debug("backend registered", zap.String("backend", name))
	return nil
}

// Load makes the named backend the active one, unloading any previously
// active backend first. Loading the already-active backend returns its
// adapter unchanged but still appends to the load history. A failed
// load leaves nothing active and propagates a wrapped error.
func (m *Manager) Load(name string) (adapter.ModelAdapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	if m.activeID == name {
		m.history = append(m.history, name)
		return a, nil
	}

	if m.activeID != "" {
		m.unloadActiveLocked()
	}

	if err := a.Load(); err != nil {
		m.activeID = ""
		return nil, fmt.Errorf("failed to load backend %q: %w", name, err)
	}
	m.activeID = name
	m.history = append(m.history, name)
	m.logger.Info("backend activated", zap.String("backend", name))
	return a, nil
}

// Unload unloads a specific backend, clearing the active pointer if it
// was the active one. Unlike the best-effort unload during a swap, an
// explicit unload propagates the adapter's error.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.adapters[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	err := a.Unload()
	if m.activeID == name {
		m.activeID = ""
	}
	if err != nil {
		return fmt.Errorf("failed to unload backend %q: %w", name, err)
	}
	m.logger.Info("backend unloaded", zap.String("backend", name))
	return nil
}

// UnloadActive unloads whichever backend is active; no-op when none is.
func (m *Manager) UnloadActive() error {
	m.mu.Lock()
	active := m.activeID
	m.mu.Unlock()

	if active == "" {
		return nil
	}
	return m.Unload(active)
}

// unloadActiveLocked takes the active backend down best-effort during a
// swap: failures are logged and swallowed, never escalated, and the
// active pointer is always cleared.
func (m *Manager) unloadActiveLocked() {
	a := m.adapters[m.activeID]
	if err := a.Unload(); err != nil {
		m.logger.Warn("best-effort unload failed during swap",
			zap.String("backend", m.activeID),
			zap.Error(err))
	}
	m.activeID = ""
}

// Active returns the active backend's adapter, or false when nothing is
// loaded.
func (m *Manager) Active() (adapter.ModelAdapter, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID == "" {
		return nil, false
	}
	return m.adapters[m.activeID], true
}

// ActiveID returns the active backend's name, or false when nothing is
// loaded.
func (m *Manager) ActiveID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID, m.activeID != ""
}

// IsLoaded reports whether the named backend currently holds resources.
func (m *Manager) IsLoaded(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.adapters[name]
	if !ok {
		return false
	}
	return a.IsAvailable()
}

// Registered returns the backend names in registration order.
func (m *Manager) Registered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// UnloadAll unloads every registered backend and resets the active
// pointer. Failures are joined, not short-circuited.
func (m *Manager) UnloadAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, name := range m.order {
		if err := m.adapters[name].Unload(); err != nil {
			m.logger.Warn("unload failed",
				zap.String("backend", name),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("unload %q: %w", name, err))
		}
	}
	m.activeID = ""
	return errors.Join(errs...)
}

// Status is an observability snapshot of the runtime.
type Status struct {
	ActiveID   string         `json:"active_id,omitempty"`
	Registered []string       `json:"registered"`
	History    []string       `json:"load_history,omitempty"`
	Backends   []adapter.Info `json:"backends"`
}

// Status reports the runtime state: registered backends, the active id,
// the append-only load history, and per-adapter metadata.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		ActiveID:   m.activeID,
		Registered: append([]string(nil), m.order...),
		History:    append([]string(nil), m.history...),
	}
	for _, name := range m.order {
		st.Backends = append(st.Backends, m.adapters[name].Describe())
	}
	return st
}
