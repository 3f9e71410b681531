package interp

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps primitive names to shared primitive instances. Loaders use
// it to turn stored names back into nodes.
type Registry struct {
	mu    sync.RWMutex
	prims map[string]Primitive
}

func NewRegistry() *Registry {
	return &Registry{prims: make(map[string]Primitive)}
}

// Register adds p under its own name.
func (r *Registry) Register(p Primitive) error {
	return r.RegisterAs(p.Name(), p)
}

// RegisterAs adds p under an explicit name. Names are unique.
func (r *Registry) RegisterAs(name string, p Primitive) error {
	if name == "" {
		return fmt.Errorf("registry: primitive with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prims[name]; ok {
		return fmt.Errorf("registry: primitive %q already registered", name)
	}
	r.prims[name] = p
	return nil
}

// MustRegister is Register for static primitive sets.
func (r *Registry) MustRegister(prims ...Primitive) {
	for _, p := range prims {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
}

// Clone returns an independent registry holding the same primitives.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &Registry{prims: make(map[string]Primitive, len(r.prims))}
	for name, p := range r.prims {
		out.prims[name] = p
	}
	return out
}

func (r *Registry) Lookup(name string) (Primitive, bool) {
	r.mu.RLock()
	p, ok := r.prims[name]
	r.mu.RUnlock()
	return p, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.prims))
	for name := range r.prims {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prims)
}
