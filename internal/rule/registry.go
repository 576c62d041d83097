package rule

import "sync/atomic"

// Registry holds the currently active snapshot behind an atomic pointer.
// The evaluation hot path reads it far more often than the reload timer
// writes it; neither side ever blocks the other.
type Registry struct {
	current atomic.Pointer[Snapshot]
}

// NewRegistry returns a registry holding the empty snapshot, so the
// system fails open until the first successful load.
func NewRegistry() *Registry {
	r := &Registry{}
	r.current.Store(EmptySnapshot())
	return r
}

// Current returns the latest fully-formed snapshot. Never nil.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Replace atomically publishes a new snapshot, replacing the old one in
// full. Readers that already captured the old snapshot keep a consistent
// view for the remainder of their evaluation.
func (r *Registry) Replace(s *Snapshot) {
	if s == nil {
		s = EmptySnapshot()
	}
	r.current.Store(s)
}
