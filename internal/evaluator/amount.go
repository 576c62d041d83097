package evaluator

import (
	"github.com/riskgate/riskgate/internal/event"
	"github.com/riskgate/riskgate/internal/rule"
)

// Amount triggers when the event amount strictly exceeds the rule threshold.
type Amount struct{}

func NewAmount() *Amount { return &Amount{} }

func (*Amount) Type() string { return rule.TypeAmount }

func (*Amount) Evaluate(ev *event.Event, r *rule.Rule) (rule.Verdict, error) {
	v := rule.Verdict{RuleID: r.ID}
	if ev.Amount > r.Threshold {
		v.Triggered = true
		v.Action = r.Action
		v.Evidence = map[string]any{"amount": ev.Amount}
	}
	return v, nil
}
