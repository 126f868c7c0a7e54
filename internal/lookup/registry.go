// Package lookup provides the named category lists used by lookup-table
// generation rules.
package lookup

import (
	"sort"
	"sync"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// Registry stores named value lists. It is an explicit instance owned by the
// orchestrator, never package-level state. Safe for concurrent use; generation
// workers only read.
type Registry struct {
	mu     sync.RWMutex
	tables map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tables: make(map[string][]string)}
}

// Register stores a value list under name, overwriting any previous list.
// The slice is copied so later caller mutation cannot race generation reads.
func (r *Registry) Register(name string, values []string) error {
	if name == "" {
		return domain.ErrValidation("lookup table name is required")
	}
	if len(values) == 0 {
		return domain.ErrValidation("lookup table %q has no values", name)
	}
	cp := make([]string, len(values))
	copy(cp, values)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables[name] = cp
	return nil
}

// Get returns the value list registered under name.
func (r *Registry) Get(name string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	values, ok := r.tables[name]
	if !ok {
		return nil, domain.ErrNotFound("lookup table %q not found", name)
	}
	return values, nil
}

// Names returns the registered table names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
