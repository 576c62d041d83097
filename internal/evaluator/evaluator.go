package evaluator

import (
	"github.com/riskgate/riskgate/internal/event"
	"github.com/riskgate/riskgate/internal/rule"
)

// Evaluator is the interface all rule-type implementations must satisfy.
// Evaluate must be a pure function of the event and the rule: evaluators
// run concurrently and share no state.
type Evaluator interface {
	// Type returns the rule-type tag this evaluator is registered under.
	Type() string
	// Evaluate runs one rule against one event and returns a verdict.
	Evaluate(ev *event.Event, r *rule.Rule) (rule.Verdict, error)
}
