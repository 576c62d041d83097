package evaluator

import (
	"fmt"
	"sync"
)

// Registry maps rule-type tags to their evaluators.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{evaluators: make(map[string]Evaluator)}
}

// Register adds an evaluator. Panics on duplicate type to surface
// misconfiguration early.
func (r *Registry) Register(e Evaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.evaluators[e.Type()]; exists {
		panic(fmt.Sprintf("evaluator registry: duplicate type %q", e.Type()))
	}
	r.evaluators[e.Type()] = e
}

// Get returns the evaluator for the given rule type.
func (r *Registry) Get(ruleType string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.evaluators[ruleType]
	return e, ok
}

// Types returns all registered rule-type tags.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.evaluators))
	for k := range r.evaluators {
		out = append(out, k)
	}
	return out
}
