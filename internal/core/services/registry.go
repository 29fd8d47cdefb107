package services

import (
	"sort"
	"sync"

	"github.com/netfleet/backend/internal/core/ports"
)

// Registry maps operation kinds to their implementations. Populated once at
// startup by the surrounding application; reads are concurrent.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]ports.Operation
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]ports.Operation)}
}

func (r *Registry) Register(op ports.Operation) {
	r.mu.Lock()
	r.ops[op.Kind()] = op
	r.mu.Unlock()
}

func (r *Registry) Get(kind string) (ports.Operation, bool) {
	r.mu.RLock()
	op, ok := r.ops[kind]
	r.mu.RUnlock()
	return op, ok
}

// Kinds returns the registered operation kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	kinds := make([]string, 0, len(r.ops))
	for k := range r.ops {
		kinds = append(kinds, k)
	}
	r.mu.RUnlock()
	sort.Strings(kinds)
	return kinds
}
