// Package engine is the evaluation coordinator: it fans one event out to
// every rule in the current snapshot, collects the verdicts, merges them
// into a risk outcome and feeds triggered rules back into the score path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskgate/riskgate/internal/config"
	"github.com/riskgate/riskgate/internal/evaluator"
	"github.com/riskgate/riskgate/internal/event"
	"github.com/riskgate/riskgate/internal/metrics"
	"github.com/riskgate/riskgate/internal/rule"
	"github.com/riskgate/riskgate/internal/store"
)

// Sentinel errors for the two ways a synchronous evaluation can fail
// before producing an outcome; callers map them to distinct responses.
var (
	// ErrShuttingDown is returned for work submitted after Shutdown began.
	ErrShuttingDown = errors.New("engine shutting down")
	// ErrQueueFull is returned when the event queue cannot take more work.
	ErrQueueFull = errors.New("event queue full")
	// ErrTimeout is returned when an accepted event does not finish within
	// the configured event timeout.
	ErrTimeout = errors.New("event processing timeout")
)

// ScoreSink receives the identity pair of every triggered rule. Failures
// stay inside the sink; the evaluation path never waits on it.
type ScoreSink interface {
	Record(userID, deviceID string)
	Stop()
}

// Engine evaluates events against the live rule snapshot.
type Engine struct {
	registry *rule.Registry
	evals    *evaluator.Registry
	rules    store.RuleStore
	scores   ScoreSink

	eventPool *pool[*eventWork]
	rulePool  *pool[*ruleWork]
	conf      *config.EngineConf

	rootCtx   context.Context
	pollEvery atomic.Int64 // nanoseconds
	stopPoll  chan struct{}
	inflight  sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	closed    atomic.Bool
}

type eventWork struct {
	ev      *event.Event
	resultC chan evalResult
}

type evalResult struct {
	outcome *rule.Outcome
	err     error
}

type ruleWork struct {
	ev      *event.Event
	rule    *rule.Rule
	idx     int
	resultC chan indexedVerdict
}

type indexedVerdict struct {
	idx     int
	verdict rule.Verdict
}

// New creates an Engine and starts its worker pools. poll is the rule
// reload interval; the timer itself is armed by Start.
func New(ctx context.Context, rules store.RuleStore, evals *evaluator.Registry, scores ScoreSink, conf config.EngineConf, poll time.Duration) *Engine {
	e := &Engine{
		registry: rule.NewRegistry(),
		evals:    evals,
		rules:    rules,
		scores:   scores,
		conf:     &conf,
		rootCtx:  ctx,
		stopPoll: make(chan struct{}),
	}
	e.pollEvery.Store(int64(poll))

	// Start the rule pool first so event workers can fan out to it.
	e.rulePool = newPool(ctx, conf.RuleWorkers, conf.QueueDepth, func(ctx context.Context, w *ruleWork) {
		w.resultC <- indexedVerdict{idx: w.idx, verdict: e.evaluateRule(w.ev, w.rule)}
	})
	e.eventPool = newPool(ctx, conf.EventWorkers, conf.QueueDepth, func(ctx context.Context, w *eventWork) {
		out, err := e.Evaluate(ctx, w.ev)
		if w.resultC != nil {
			w.resultC <- evalResult{outcome: out, err: err}
		}
	})

	return e
}

// Start loads the first snapshot synchronously, then arms the reload
// timer. A failed first load is logged and the engine starts fail-open
// on the empty snapshot. Idempotent.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		if err := e.ReloadRules(ctx); err != nil {
			slog.Warn("initial rule load failed, starting with empty rule set", "err", err)
		}
		go e.pollLoop()
	})
}

// Evaluate scores one event against the snapshot current at call time.
// Reload and feedback failures never surface here; the only errors are
// systemic (pool rejection, shutdown, caller context end).
func (e *Engine) Evaluate(ctx context.Context, ev *event.Event) (*rule.Outcome, error) {
	// Registered before the closed check: Shutdown flips closed first and
	// then waits for in-flight calls, so any call that slips past the
	// check is fully accounted for before the rule pool drains.
	e.inflight.Add(1)
	defer e.inflight.Done()
	if e.closed.Load() {
		return nil, ErrShuttingDown
	}
	start := time.Now()
	snap := e.registry.Current()
	rules := snap.Rules()

	out := &rule.Outcome{
		EventID:        ev.ID,
		Actions:        []string{},
		TriggeredRules: []string{},
		Context:        make(map[string]map[string]any),
	}
	if len(rules) == 0 {
		out.DurationMs = time.Since(start).Milliseconds()
		metrics.EventsProcessed.Inc()
		return out, nil
	}

	resultC := make(chan indexedVerdict, len(rules))
	for i, r := range rules {
		w := &ruleWork{ev: ev, rule: r, idx: i, resultC: resultC}
		if !e.rulePool.SubmitWait(ctx, w) {
			if e.rootCtx.Err() != nil {
				return nil, ErrShuttingDown
			}
			return nil, fmt.Errorf("rule pool rejected work for %s: %w", r.ID, ctx.Err())
		}
	}

	// resultC is buffered to len(rules): stragglers of an abandoned call
	// still complete without leaking a worker.
	verdicts := make([]rule.Verdict, len(rules))
	for n := 0; n < len(rules); n++ {
		select {
		case iv := <-resultC:
			verdicts[iv.idx] = iv.verdict
		case <-e.rootCtx.Done():
			return nil, ErrShuttingDown
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// Merge in snapshot iteration order regardless of completion order.
	for _, v := range verdicts {
		if !v.Triggered {
			continue
		}
		out.Actions = append(out.Actions, v.Action)
		out.TriggeredRules = append(out.TriggeredRules, v.RuleID)
		out.Context[v.RuleID] = v.Evidence
		metrics.RulesTriggered.WithLabelValues(v.RuleID, v.Action).Inc()
		e.scores.Record(ev.UserID, ev.DeviceID)
	}

	out.DurationMs = time.Since(start).Milliseconds()
	metrics.EventsProcessed.Inc()
	return out, nil
}

// evaluateRule never lets a single rule take the event down: unknown
// types are silently non-triggering, errors and panics count as
// not-triggered and go to the log.
func (e *Engine) evaluateRule(ev *event.Event, r *rule.Rule) (v rule.Verdict) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("rule evaluator panicked", "rule_id", r.ID, "rule_type", r.Type, "panic", rec)
			metrics.EvaluatorFailures.WithLabelValues(r.Type).Inc()
			v = rule.Verdict{RuleID: r.ID}
		}
	}()

	eval, ok := e.evals.Get(r.Type)
	if !ok {
		return rule.Verdict{RuleID: r.ID}
	}
	verdict, err := eval.Evaluate(ev, r)
	if err != nil {
		slog.Warn("rule evaluation failed", "rule_id", r.ID, "rule_type", r.Type, "err", err)
		metrics.EvaluatorFailures.WithLabelValues(r.Type).Inc()
		return rule.Verdict{RuleID: r.ID}
	}
	return verdict
}

// ProcessSync runs an event through the bounded event pool and waits for
// its outcome, bounded by the configured event timeout.
func (e *Engine) ProcessSync(ctx context.Context, ev *event.Event) (*rule.Outcome, error) {
	if e.closed.Load() {
		return nil, ErrShuttingDown
	}
	resultC := make(chan evalResult, 1)
	if !e.eventPool.TrySubmit(&eventWork{ev: ev, resultC: resultC}) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("%w (capacity %d)", ErrQueueFull, e.conf.QueueDepth)
	}
	metrics.EventsEnqueued.Inc()

	timeout := time.Duration(e.conf.EventTimeoutMs) * time.Millisecond
	select {
	case res := <-resultC:
		return res.outcome, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v", ErrTimeout, timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ProcessAsync enqueues an event for background evaluation; the outcome
// is discarded (metrics and score feedback still apply). Returns false
// if the queue is full.
func (e *Engine) ProcessAsync(ev *event.Event) bool {
	if e.closed.Load() {
		return false
	}
	if !e.eventPool.TrySubmit(&eventWork{ev: ev}) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// ReloadRules fetches the active rule set and atomically publishes it.
// On failure the previous snapshot stays active.
func (e *Engine) ReloadRules(ctx context.Context) error {
	snap, err := e.rules.LoadActive(ctx)
	if err != nil {
		metrics.RuleReloads.WithLabelValues("failure").Inc()
		return err
	}
	e.registry.Replace(snap)
	metrics.RuleReloads.WithLabelValues("success").Inc()
	metrics.ActiveRules.Set(float64(snap.Len()))
	slog.Info("rule snapshot loaded", "rules", snap.Len())
	return nil
}

// Rules returns the currently active snapshot.
func (e *Engine) Rules() *rule.Snapshot {
	return e.registry.Current()
}

// SetPollInterval changes the reload interval; takes effect after the
// next tick.
func (e *Engine) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.pollEvery.Store(int64(d))
	}
}

// QueueUtilization returns event queue used / capacity (0–1).
func (e *Engine) QueueUtilization() float64 {
	if e.eventPool.QueueCap() == 0 {
		return 0
	}
	return float64(e.eventPool.QueueLen()) / float64(e.eventPool.QueueCap())
}

// Shutdown stops the reload timer, drains the pools and stops the score
// sink, in that order. Direct Evaluate callers are waited out between
// the two drains: the rule queue must never close under a sender still
// blocked in SubmitWait. Idempotent.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopPoll)
		e.eventPool.Drain()
		e.inflight.Wait()
		e.rulePool.Drain()
		e.scores.Stop()
	})
}

func (e *Engine) pollLoop() {
	timer := time.NewTimer(e.interval())
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			ctx, cancel := context.WithTimeout(e.rootCtx, 30*time.Second)
			if err := e.ReloadRules(ctx); err != nil {
				slog.Warn("rule reload failed, keeping previous snapshot", "err", err)
			}
			cancel()
			timer.Reset(e.interval())
		case <-e.stopPoll:
			return
		case <-e.rootCtx.Done():
			return
		}
	}
}

func (e *Engine) interval() time.Duration {
	return time.Duration(e.pollEvery.Load())
}
