package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/riskgate/riskgate/internal/api"
	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/engine"
	"github.com/riskgate/riskgate/internal/evaluator"
	"github.com/riskgate/riskgate/internal/rule"
)

type stubStore struct{ snap *rule.Snapshot }

func (s *stubStore) LoadActive(ctx context.Context) (*rule.Snapshot, error) {
	return s.snap, nil
}

type nopSink struct{}

func (nopSink) Record(userID, deviceID string) {}
func (nopSink) Stop()                          {}

func newTestHandler(t *testing.T, conf config.EngineConf, rules ...*rule.Rule) http.Handler {
	t.Helper()
	evals := evaluator.NewRegistry()
	evals.Register(evaluator.NewAmount())

	ctx, cancel := context.WithCancel(context.Background())
	eng := engine.New(ctx, &stubStore{snap: rule.NewSnapshot(rules)}, evals, nopSink{}, conf, time.Hour)
	eng.Start(ctx)
	t.Cleanup(func() {
		eng.Shutdown()
		cancel()
	})
	return api.New(eng)
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateEvent(t *testing.T) {
	conf := config.EngineConf{EventWorkers: 2, RuleWorkers: 2, QueueDepth: 16, EventTimeoutMs: 2000}
	h := newTestHandler(t, conf, &rule.Rule{ID: "ruleA", Type: rule.TypeAmount, Threshold: 5000, Action: "REVIEW"})

	rec := post(h, "/v1/events", `{"orderId":"evt-1","userId":"user_123","deviceId":"device_456","amount":6000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	var out rule.Outcome
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.HasRisk() || len(out.Actions) != 1 || out.Actions[0] != "REVIEW" {
		t.Errorf("unexpected outcome: %+v", out)
	}
	if len(out.TriggeredRules) != 1 || out.TriggeredRules[0] != "ruleA" {
		t.Errorf("triggered rules = %v, want [ruleA]", out.TriggeredRules)
	}
}

func TestEvaluateEvent_BadJSON(t *testing.T) {
	conf := config.EngineConf{EventWorkers: 2, RuleWorkers: 2, QueueDepth: 16, EventTimeoutMs: 2000}
	h := newTestHandler(t, conf)

	rec := post(h, "/v1/events", `{broken`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var envelope struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if envelope.Error == "" || envelope.Status != http.StatusBadRequest {
		t.Errorf("unexpected envelope: %+v", envelope)
	}
}

// With no event workers an accepted event can never finish, and a second
// one finds the single-slot queue occupied. The two failures must map to
// distinct status codes.
func TestEvaluateEvent_TimeoutAndBackpressureStatuses(t *testing.T) {
	conf := config.EngineConf{EventWorkers: 0, RuleWorkers: 1, QueueDepth: 1, EventTimeoutMs: 50}
	h := newTestHandler(t, conf, &rule.Rule{ID: "ruleA", Type: rule.TypeAmount, Threshold: 5000, Action: "REVIEW"})

	rec := post(h, "/v1/events", `{"orderId":"evt-1","amount":6000}`)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("stalled evaluation: status = %d, want 504 (body %s)", rec.Code, rec.Body)
	}

	rec = post(h, "/v1/events", `{"orderId":"evt-2","amount":6000}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("saturated queue: status = %d, want 429 (body %s)", rec.Code, rec.Body)
	}
}

func TestReadyz(t *testing.T) {
	conf := config.EngineConf{EventWorkers: 2, RuleWorkers: 2, QueueDepth: 16, EventTimeoutMs: 2000}
	h := newTestHandler(t, conf)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
