package rule_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/riskgate/riskgate/internal/rule"
)

func TestDecode_ValidBody(t *testing.T) {
	body := `{"ruleId":"rule_a","ruleName":"Large amount","ruleType":"AMOUNT","threshold":5000,"timeWindow":0,"action":"REVIEW"}`
	r, err := rule.Decode("rule_a", []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Type != rule.TypeAmount || r.Threshold != 5000 || r.Action != "REVIEW" {
		t.Errorf("unexpected rule: %+v", r)
	}
}

func TestDecode_StoreIDWins(t *testing.T) {
	body := `{"ruleId":"something_else","ruleType":"AMOUNT","threshold":10,"action":"BLOCK"}`
	r, err := rule.Decode("rule_b", []byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.ID != "rule_b" {
		t.Errorf("expected store id to be authoritative, got %q", r.ID)
	}
}

func TestDecode_MalformedBody(t *testing.T) {
	if _, err := rule.Decode("rule_x", []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

func TestOutcome_HasRisk(t *testing.T) {
	o := &rule.Outcome{EventID: "evt-1", Actions: []string{}, Context: map[string]map[string]any{}}
	if o.HasRisk() {
		t.Error("empty outcome must not report risk")
	}
	o.Actions = append(o.Actions, "REVIEW")
	if !o.HasRisk() {
		t.Error("outcome with actions must report risk")
	}
}

func TestOutcome_JSONCarriesHasRisk(t *testing.T) {
	o := &rule.Outcome{EventID: "evt-1", Actions: []string{"REVIEW"}, Context: map[string]map[string]any{}}
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"has_risk":true`) {
		t.Errorf("expected has_risk in payload, got %s", data)
	}
}
