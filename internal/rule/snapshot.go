package rule

import "sort"

// Snapshot is one immutable, fully-loaded view of the active rule set.
// The remote store keeps active ids in a SET, which has no order, so ids
// are sorted at construction to give every reader the same iteration
// order; verdict merge order depends on it.
type Snapshot struct {
	ordered []*Rule
	byID    map[string]*Rule
}

// NewSnapshot builds a snapshot from the given rules, sorted by id.
// Later duplicates of the same id win, mirroring a hash overwrite.
func NewSnapshot(rules []*Rule) *Snapshot {
	byID := make(map[string]*Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}
	ordered := make([]*Rule, 0, len(byID))
	for _, r := range byID {
		ordered = append(ordered, r)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &Snapshot{ordered: ordered, byID: byID}
}

// EmptySnapshot returns a snapshot with no rules (the fail-open state).
func EmptySnapshot() *Snapshot {
	return &Snapshot{byID: map[string]*Rule{}}
}

// Len returns the number of active rules.
func (s *Snapshot) Len() int { return len(s.ordered) }

// Rules returns the rules in snapshot iteration order.
// Callers must not mutate the returned slice.
func (s *Snapshot) Rules() []*Rule { return s.ordered }

// Get returns the rule with the given id, if present.
func (s *Snapshot) Get(id string) (*Rule, bool) {
	r, ok := s.byID[id]
	return r, ok
}

// IDs returns the rule ids in iteration order.
func (s *Snapshot) IDs() []string {
	ids := make([]string, len(s.ordered))
	for i, r := range s.ordered {
		ids[i] = r.ID
	}
	return ids
}
