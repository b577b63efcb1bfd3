package whatsapp

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ProbeResult is the outcome of walking a Strategy. Found is false when every
// candidate missed; probing never returns an error.
type ProbeResult struct {
	Target    string
	Element   Element
	Candidate Locator
	Index     int
	Found     bool
}

// Telemetry receives probe and strategy outcomes. The mangle-backed sink in
// internal/mangle implements it.
type Telemetry interface {
	ProbeHit(target, candidate string, index int, elapsed time.Duration)
	ProbeMiss(target string, tried int, elapsed time.Duration)
	StrategyResult(contact, strategy, outcome string)
}

type nopTelemetry struct{}

func (nopTelemetry) ProbeHit(string, string, int, time.Duration) {}
func (nopTelemetry) ProbeMiss(string, int, time.Duration)        {}
func (nopTelemetry) StrategyResult(string, string, string)       {}

// Prober walks locator tables against a Surface.
type Prober struct {
	surface   Surface
	logger    *zap.Logger
	telemetry Telemetry
}

func NewProber(surface Surface, logger *zap.Logger, telemetry Telemetry) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	return &Prober{surface: surface, logger: logger, telemetry: telemetry}
}

// Probe tries each candidate in order, giving each one timeout to satisfy
// mode, and returns the first hit. Worst-case latency is
// len(candidates) * timeout; an empty strategy misses immediately.
func (p *Prober) Probe(ctx context.Context, s Strategy, timeout time.Duration, mode WaitMode) ProbeResult {
	start := time.Now()
	for i, loc := range s.Candidates {
		if ctx.Err() != nil {
			break
		}
		el, err := p.surface.WaitFor(ctx, loc, timeout, mode)
		if err != nil || el == nil {
			p.logger.Debug("candidate missed",
				zap.String("target", s.Target),
				zap.String("candidate", loc.String()),
				zap.Error(err))
			continue
		}
		p.logger.Debug("candidate hit",
			zap.String("target", s.Target),
			zap.String("candidate", loc.String()),
			zap.Int("index", i),
			zap.String("mode", mode.String()))
		p.telemetry.ProbeHit(s.Target, loc.String(), i, time.Since(start))
		return ProbeResult{Target: s.Target, Element: el, Candidate: loc, Index: i, Found: true}
	}
	p.telemetry.ProbeMiss(s.Target, len(s.Candidates), time.Since(start))
	return ProbeResult{Target: s.Target, Index: -1}
}

// Present checks each candidate once without waiting and returns every
// element matched by the first candidate that matches anything.
func (p *Prober) Present(ctx context.Context, s Strategy) (ProbeResult, []Element) {
	for i, loc := range s.Candidates {
		els, err := p.surface.FindAll(ctx, loc)
		if err != nil || len(els) == 0 {
			continue
		}
		p.telemetry.ProbeHit(s.Target, loc.String(), i, 0)
		return ProbeResult{Target: s.Target, Element: els[0], Candidate: loc, Index: i, Found: true}, els
	}
	p.telemetry.ProbeMiss(s.Target, len(s.Candidates), 0)
	return ProbeResult{Target: s.Target, Index: -1}, nil
}

// MultiTelemetry fans every event out to each non-nil sink.
type MultiTelemetry []Telemetry

func (m MultiTelemetry) ProbeHit(target, candidate string, index int, elapsed time.Duration) {
	for _, t := range m {
		if t != nil {
			t.ProbeHit(target, candidate, index, elapsed)
		}
	}
}

func (m MultiTelemetry) ProbeMiss(target string, tried int, elapsed time.Duration) {
	for _, t := range m {
		if t != nil {
			t.ProbeMiss(target, tried, elapsed)
		}
	}
}

func (m MultiTelemetry) StrategyResult(contact, strategy, outcome string) {
	for _, t := range m {
		if t != nil {
			t.StrategyResult(contact, strategy, outcome)
		}
	}
}
