package mangle

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// LocatorTelemetry turns probe and strategy outcomes into facts so operators
// can see which selectors still resolve after the web client changes.
type LocatorTelemetry struct {
	engine *Engine
	logger *zap.Logger
	now    func() time.Time
}

func NewLocatorTelemetry(engine *Engine, logger *zap.Logger) *LocatorTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocatorTelemetry{engine: engine, logger: logger, now: time.Now}
}

func (t *LocatorTelemetry) add(predicate string, args ...interface{}) {
	fact := Fact{Predicate: predicate, Args: args, Timestamp: t.now()}
	if err := t.engine.AddFacts(context.Background(), []Fact{fact}); err != nil {
		t.logger.Debug("telemetry fact dropped", zap.String("predicate", predicate), zap.Error(err))
	}
}

func (t *LocatorTelemetry) ProbeHit(target, candidate string, _ int, elapsed time.Duration) {
	t.add("probe_hit", target, candidate, elapsed.Milliseconds())
}

func (t *LocatorTelemetry) ProbeMiss(target string, tried int, _ time.Duration) {
	t.add("probe_miss", target, int64(tried))
}

func (t *LocatorTelemetry) StrategyResult(contact, strategy, outcome string) {
	t.add("strategy_result", contact, strategy, outcome)
}

// CandidateStat summarizes how often one candidate resolved its target.
type CandidateStat struct {
	Target    string  `json:"target"`
	Candidate string  `json:"candidate"`
	Hits      int     `json:"hits"`
	AvgMillis float64 `json:"avg_ms"`
}

// WinningCandidates reports, per candidate of target, how many probes it
// won, most frequent first. An empty target reports every target.
func (t *LocatorTelemetry) WinningCandidates(target string) []CandidateStat {
	type key struct{ target, candidate string }
	stats := make(map[key]*CandidateStat)
	var totals = make(map[key]int64)
	for _, f := range t.engine.FactsByPredicate("probe_hit") {
		if len(f.Args) < 3 {
			continue
		}
		tgt, _ := f.Args[0].(string)
		cand, _ := f.Args[1].(string)
		if target != "" && tgt != target {
			continue
		}
		k := key{tgt, cand}
		s, ok := stats[k]
		if !ok {
			s = &CandidateStat{Target: tgt, Candidate: cand}
			stats[k] = s
		}
		s.Hits++
		if ms, ok := f.Args[2].(int64); ok {
			totals[k] += ms
		}
	}

	out := make([]CandidateStat, 0, len(stats))
	for k, s := range stats {
		s.AvgMillis = float64(totals[k]) / float64(s.Hits)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hits != out[j].Hits {
			return out[i].Hits > out[j].Hits
		}
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		return out[i].Candidate < out[j].Candidate
	})
	return out
}

// Misses counts exhausted probes per target.
func (t *LocatorTelemetry) Misses() map[string]int {
	out := make(map[string]int)
	for _, f := range t.engine.FactsByPredicate("probe_miss") {
		if len(f.Args) > 0 {
			if tgt, ok := f.Args[0].(string); ok {
				out[tgt]++
			}
		}
	}
	return out
}

// StrategyOutcomes counts strategy results as "strategy:outcome" keys.
func (t *LocatorTelemetry) StrategyOutcomes() map[string]int {
	out := make(map[string]int)
	for _, f := range t.engine.FactsByPredicate("strategy_result") {
		if len(f.Args) < 3 {
			continue
		}
		strategy, _ := f.Args[1].(string)
		outcome, _ := f.Args[2].(string)
		out[strategy+":"+outcome]++
	}
	return out
}
