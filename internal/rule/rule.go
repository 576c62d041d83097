package rule

import (
	"encoding/json"
	"fmt"
)

// Known rule type tags. Unknown tags are legal and simply never trigger,
// so new types can roll out to the store before the evaluator ships.
const (
	TypeAmount    = "AMOUNT"
	TypeFrequency = "FREQUENCY"
)

// Rule is one detection definition as stored remotely. Immutable once
// loaded into a snapshot; edits surface as a full snapshot replacement.
type Rule struct {
	ID         string  `json:"ruleId"`
	Name       string  `json:"ruleName"`
	Type       string  `json:"ruleType"`
	Threshold  float64 `json:"threshold"`
	TimeWindow int     `json:"timeWindow"` // seconds, used by window-based types
	Action     string  `json:"action"`
}

// Decode parses a serialized rule body. The id under which the body was
// stored is authoritative and overrides any ruleId inside the payload.
func Decode(id string, body []byte) (*Rule, error) {
	var r Rule
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode rule %s: %w", id, err)
	}
	r.ID = id
	return &r, nil
}

// Verdict is the result of evaluating one rule against one event.
type Verdict struct {
	RuleID    string
	Triggered bool
	Action    string
	Evidence  map[string]any
}

// Outcome is the per-event aggregate of all triggered verdicts.
// Actions keep snapshot iteration order and are not deduplicated;
// TriggeredRules[i] names the rule that produced Actions[i], so two
// rules emitting the same label stay distinguishable downstream.
type Outcome struct {
	EventID        string                    `json:"event_id"`
	Actions        []string                  `json:"actions"`
	TriggeredRules []string                  `json:"triggered_rules"`
	Context        map[string]map[string]any `json:"context"`
	DurationMs     int64                     `json:"duration_ms"`
}

// HasRisk reports whether any rule triggered for this event.
func (o *Outcome) HasRisk() bool { return len(o.Actions) > 0 }

func (o *Outcome) MarshalJSON() ([]byte, error) {
	type alias Outcome
	return json.Marshal(struct {
		*alias
		HasRisk bool `json:"has_risk"`
	}{(*alias)(o), o.HasRisk()})
}
