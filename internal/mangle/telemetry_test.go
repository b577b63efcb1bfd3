package mangle

import (
	"testing"
	"time"
)

func TestLocatorTelemetryWinningCandidates(t *testing.T) {
	tel := NewLocatorTelemetry(newTestEngine(t, 100), nil)

	tel.ProbeHit("send-button", "[data-icon='send']", 1, 100*time.Millisecond)
	tel.ProbeHit("send-button", "[data-icon='send']", 1, 300*time.Millisecond)
	tel.ProbeHit("send-button", "[data-testid='compose-btn-send']", 0, 50*time.Millisecond)
	tel.ProbeHit("message-input", "div[role='textbox']", 3, 10*time.Millisecond)

	stats := tel.WinningCandidates("send-button")
	if len(stats) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(stats))
	}
	if stats[0].Candidate != "[data-icon='send']" || stats[0].Hits != 2 {
		t.Errorf("unexpected leader %+v", stats[0])
	}
	if stats[0].AvgMillis != 200 {
		t.Errorf("expected avg 200ms, got %v", stats[0].AvgMillis)
	}

	if all := tel.WinningCandidates(""); len(all) != 3 {
		t.Errorf("expected 3 candidates across targets, got %d", len(all))
	}
}

func TestLocatorTelemetryMissesAndStrategies(t *testing.T) {
	tel := NewLocatorTelemetry(newTestEngine(t, 100), nil)

	tel.ProbeMiss("attach-button", 7, time.Second)
	tel.ProbeMiss("attach-button", 7, time.Second)
	tel.StrategyResult("573042535003", "deep-link", "not-found")
	tel.StrategyResult("573042535003", "search", "success")

	if got := tel.Misses()["attach-button"]; got != 2 {
		t.Errorf("expected 2 misses, got %d", got)
	}
	outcomes := tel.StrategyOutcomes()
	if outcomes["deep-link:not-found"] != 1 || outcomes["search:success"] != 1 {
		t.Errorf("unexpected outcomes %v", outcomes)
	}
}
