package mangle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"orderbot/internal/config"
)

func newTestEngine(t *testing.T, limit int) *Engine {
	t.Helper()
	engine, err := NewEngine(config.MangleConfig{Enable: true, FactBufferLimit: limit}, nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestEngineLoadsBuiltinSchema(t *testing.T) {
	engine := newTestEngine(t, 100)
	if !engine.Ready() {
		t.Fatal("engine not ready after builtin schema load")
	}
}

func TestEngineDisabled(t *testing.T) {
	engine, err := NewEngine(config.MangleConfig{Enable: false}, nil)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if err := engine.AddFacts(context.Background(), []Fact{{Predicate: "probe_hit", Args: []interface{}{"a", "b", int64(1)}}}); err != nil {
		t.Fatalf("AddFacts on disabled engine: %v", err)
	}
	if len(engine.Facts()) != 0 {
		t.Error("disabled engine must not buffer facts")
	}
	if _, err := engine.Query(context.Background(), `probe_hit(T, C, M).`); err == nil {
		t.Error("expected query on disabled engine to fail")
	}
}

func TestEngineLoadSchemaError(t *testing.T) {
	_, err := NewEngine(config.MangleConfig{Enable: true, SchemaPath: "/nonexistent/schema.mg"}, nil)
	if err == nil {
		t.Fatal("expected error for missing schema file")
	}

	bad := filepath.Join(t.TempDir(), "bad.mg")
	if err := os.WriteFile(bad, []byte("this is not mangle ((("), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewEngine(config.MangleConfig{Enable: true, SchemaPath: bad}, nil); err == nil {
		t.Fatal("expected parse error for malformed schema")
	}
}

func TestEngineDerivesWinningCandidate(t *testing.T) {
	engine := newTestEngine(t, 100)
	ctx := context.Background()

	facts := []Fact{
		{Predicate: "probe_hit", Args: []interface{}{"send-button", "[data-icon='send']", int64(120)}, Timestamp: time.Now()},
		{Predicate: "probe_miss", Args: []interface{}{"attach-button", int64(7)}, Timestamp: time.Now()},
		{Predicate: "strategy_result", Args: []interface{}{"573042535003", "deep-link", "success"}, Timestamp: time.Now()},
	}
	if err := engine.AddFacts(ctx, facts); err != nil {
		t.Fatalf("AddFacts failed: %v", err)
	}

	winners, err := engine.Evaluate(ctx, "winning_candidate")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(winners) != 1 {
		t.Fatalf("expected 1 winning candidate, got %d", len(winners))
	}
	if winners[0].Args[1] != "[data-icon='send']" {
		t.Errorf("unexpected winner %v", winners[0].Args)
	}

	results, err := engine.Query(ctx, `resolved_by("573042535003", S).`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(results) != 1 || results[0]["S"] != "deep-link" {
		t.Errorf("unexpected resolved_by results: %v", results)
	}

	drifted, err := engine.Evaluate(ctx, "drifted_target")
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(drifted) != 1 || drifted[0].Args[0] != "attach-button" {
		t.Errorf("unexpected drifted targets: %v", drifted)
	}
}

func TestEngineEvaluateUnknownPredicate(t *testing.T) {
	engine := newTestEngine(t, 100)
	if _, err := engine.Evaluate(context.Background(), "no_such_predicate"); err == nil {
		t.Error("expected error for unknown predicate")
	}
}

func TestEngineBufferLimit(t *testing.T) {
	engine := newTestEngine(t, 3)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = engine.AddFacts(ctx, []Fact{{Predicate: "probe_miss", Args: []interface{}{"t", int64(i)}}})
	}

	facts := engine.Facts()
	if len(facts) != 3 {
		t.Fatalf("expected buffer trimmed to 3, got %d", len(facts))
	}
	if got := facts[0].Args[1]; got != int64(2) {
		t.Errorf("expected oldest kept fact to be #2, got %v", got)
	}
	if n := len(engine.FactsByPredicate("probe_miss")); n != 3 {
		t.Errorf("expected index to track 3 facts, got %d", n)
	}
}

func TestConvertConstant(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"string", "x", "x"},
		{"int", 3, int64(3)},
		{"int64", int64(9), int64(9)},
		{"float", 1.5, 1.5},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertConstant(toConstant(tt.in)); got != tt.want {
				t.Errorf("round trip of %v: got %v (%T)", tt.in, got, got)
			}
		})
	}
}
