// Package registry maps stable identifiers to text processing units for
// UI-driven selection.
package registry

import (
	"fmt"
	"sync"

	"github.com/zen-systems/clipflow/pkg/unit"
)

// Entry pairs a unit with its enabled state.
type Entry struct {
	Unit    unit.Unit
	Enabled bool
}

// Registry tracks registered units and their enabled state. It is an
// explicit value built at the composition root and passed by injection;
// there is no process-wide singleton.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// NewWithBuiltins creates a registry pre-loaded with the built-in local
// rules, all enabled.
func NewWithBuiltins() *Registry {
	r := New()
	for _, rule := range unit.BuiltinRules() {
		r.Register(rule)
	}
	return r
}

// Register adds a unit, enabled by default. Registering an existing id
// replaces the unit and keeps its position and enabled state.
func (r *Registry) Register(u unit.Unit) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[u.ID()]; ok {
		existing.Unit = u
		return
	}
	r.entries[u.ID()] = &Entry{Unit: u, Enabled: true}
	r.order = append(r.order, u.ID())
}

// Get returns the unit registered under id.
func (r *Registry) Get(id string) (unit.Unit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("unit not found: %s", id)
	}
	return entry.Unit, nil
}

// SetEnabled toggles a unit's enabled state.
func (r *Registry) SetEnabled(id string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("unit not found: %s", id)
	}
	entry.Enabled = enabled
	return nil
}

// List returns all entries in registration order.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, id := range r.order {
		entries = append(entries, *r.entries[id])
	}
	return entries
}

// Enabled returns the enabled units in registration order.
func (r *Registry) Enabled() []unit.Unit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	units := make([]unit.Unit, 0, len(r.order))
	for _, id := range r.order {
		if entry := r.entries[id]; entry.Enabled {
			units = append(units, entry.Unit)
		}
	}
	return units
}
