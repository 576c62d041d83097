package evaluator_test

import (
	"testing"

	"github.com/riskgate/riskgate/internal/evaluator"
	"github.com/riskgate/riskgate/internal/event"
	"github.com/riskgate/riskgate/internal/rule"
)

func amountRule(threshold float64) *rule.Rule {
	return &rule.Rule{ID: "rule_a", Type: rule.TypeAmount, Threshold: threshold, Action: "REVIEW"}
}

func TestAmount_TriggersAboveThreshold(t *testing.T) {
	ev := &event.Event{ID: "evt-1", Amount: 6000}
	v, err := evaluator.NewAmount().Evaluate(ev, amountRule(5000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Triggered {
		t.Fatal("expected trigger for amount above threshold")
	}
	if v.Action != "REVIEW" || v.RuleID != "rule_a" {
		t.Errorf("unexpected verdict: %+v", v)
	}
	if got := v.Evidence["amount"]; got != 6000.0 {
		t.Errorf("evidence amount = %v, want 6000", got)
	}
}

func TestAmount_ThresholdIsExclusive(t *testing.T) {
	ev := &event.Event{ID: "evt-1", Amount: 5000}
	v, err := evaluator.NewAmount().Evaluate(ev, amountRule(5000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Triggered {
		t.Error("amount equal to threshold must not trigger")
	}
}

func TestFrequency_NeverTriggers(t *testing.T) {
	ev := &event.Event{ID: "evt-1", Amount: 1e9}
	r := &rule.Rule{ID: "rule_f", Type: rule.TypeFrequency, Threshold: 1, TimeWindow: 60, Action: "BLOCK"}
	v, err := evaluator.NewFrequency().Evaluate(ev, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Triggered {
		t.Error("frequency evaluator is a declared no-op and must not trigger")
	}
}

func TestRegistry_UnknownType(t *testing.T) {
	reg := evaluator.NewRegistry()
	reg.Register(evaluator.NewAmount())
	if _, ok := reg.Get("NO_SUCH_TYPE"); ok {
		t.Error("expected lookup miss for unknown type")
	}
	if _, ok := reg.Get(rule.TypeAmount); !ok {
		t.Error("expected lookup hit for registered type")
	}
}

func TestRegistry_DuplicateRegisterPanics(t *testing.T) {
	reg := evaluator.NewRegistry()
	reg.Register(evaluator.NewAmount())
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	reg.Register(evaluator.NewAmount())
}
