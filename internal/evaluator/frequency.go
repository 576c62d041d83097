package evaluator

import (
	"github.com/riskgate/riskgate/internal/event"
	"github.com/riskgate/riskgate/internal/rule"
)

// Frequency is the dispatch slot for window-based frequency rules.
// The counting semantics (window anchor, counting key) are not settled
// yet, so it never triggers; registering it keeps FREQUENCY rules loading
// and dispatching cleanly until the windowed implementation lands.
type Frequency struct{}

func NewFrequency() *Frequency { return &Frequency{} }

func (*Frequency) Type() string { return rule.TypeFrequency }

func (*Frequency) Evaluate(ev *event.Event, r *rule.Rule) (rule.Verdict, error) {
	return rule.Verdict{RuleID: r.ID}, nil
}
