package datacheck

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds registered checks by name and answers selection queries
// from the scheduler and CLI.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Check)}
}

// Register adds a check. Duplicate names are rejected.
func (r *Registry) Register(c Check) error {
	meta := c.Metadata()
	if meta.Name == "" {
		return fmt.Errorf("check has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[meta.Name]; exists {
		return fmt.Errorf("check %q already registered", meta.Name)
	}
	r.checks[meta.Name] = c
	return nil
}

// MustRegister registers a check and panics on conflict. Intended for
// package-level wiring at startup.
func (r *Registry) MustRegister(c Check) {
	if err := r.Register(c); err != nil {
		panic(err)
	}
}

// Get returns the named check, or an error if unknown.
func (r *Registry) Get(name string) (Check, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.checks[name]
	if !ok {
		return nil, fmt.Errorf("unknown check %q", name)
	}
	return c, nil
}

// Names returns all registered check names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selection filters the registry. Zero values match everything.
type Selection struct {
	Names  []string
	Group  string
	DBType string
}

// Select returns the checks matching the selection, ordered by name.
func (r *Registry) Select(sel Selection) ([]Check, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []Check
	if len(sel.Names) > 0 {
		for _, name := range sel.Names {
			c, ok := r.checks[name]
			if !ok {
				return nil, fmt.Errorf("unknown check %q", name)
			}
			candidates = append(candidates, c)
		}
	} else {
		for _, c := range r.checks {
			candidates = append(candidates, c)
		}
	}

	var selected []Check
	for _, c := range candidates {
		meta := c.Metadata()
		if sel.Group != "" && !meta.HasGroup(sel.Group) {
			continue
		}
		if sel.DBType != "" && !meta.SupportsDBType(sel.DBType) {
			continue
		}
		selected = append(selected, c)
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Metadata().Name < selected[j].Metadata().Name
	})
	return selected, nil
}
