package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	MaxRotatedFiles = 3
	TraceDir        = "data/traces"
)

// Event is one line of a delivery trace.
type Event struct {
	Timestamp time.Time   `json:"ts"`
	Type      string      `json:"type"`
	RunID     string      `json:"run_id,omitempty"`
	Data      interface{} `json:"data"`
}

// Recorder writes delivery runs to rotating JSONL files so a failed send can
// be replayed step by step.
type Recorder struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	basePath string
	runID    string
	now      func() time.Time
}

// NewRecorder creates a recorder rooted at basePath, creating the directory.
func NewRecorder(basePath string) (*Recorder, error) {
	if basePath == "" {
		basePath = TraceDir
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, err
	}
	return &Recorder{basePath: basePath, now: time.Now}, nil
}

// Start opens a new trace file for runID, rotating old traces first.
func (r *Recorder) Start(runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}

	if err := r.rotate(); err != nil {
		return fmt.Errorf("rotate traces: %w", err)
	}

	filename := fmt.Sprintf("trace_%s_%d.jsonl", runID, r.now().UnixMilli())
	f, err := os.Create(filepath.Join(r.basePath, filename))
	if err != nil {
		return err
	}

	r.file = f
	r.encoder = json.NewEncoder(f)
	r.runID = runID
	return nil
}

// RunID returns the id passed to the last Start.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Log appends an event to the current trace. It is a no-op before Start.
func (r *Recorder) Log(eventType string, data interface{}) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.encoder == nil {
		return
	}
	_ = r.encoder.Encode(Event{
		Timestamp: r.now(),
		Type:      eventType,
		RunID:     r.runID,
		Data:      data,
	})
}

// ProbeHit, ProbeMiss and StrategyResult let the recorder receive locator
// telemetry directly from the engine.
func (r *Recorder) ProbeHit(target, candidate string, index int, elapsed time.Duration) {
	r.Log("probe_hit", map[string]interface{}{
		"target":     target,
		"candidate":  candidate,
		"index":      index,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}

func (r *Recorder) ProbeMiss(target string, tried int, elapsed time.Duration) {
	r.Log("probe_miss", map[string]interface{}{
		"target":     target,
		"tried":      tried,
		"elapsed_ms": elapsed.Milliseconds(),
	})
}

func (r *Recorder) StrategyResult(contact, strategy, outcome string) {
	r.Log("strategy", map[string]string{
		"contact":  contact,
		"strategy": strategy,
		"outcome":  outcome,
	})
}

// rotate keeps only the newest MaxRotatedFiles-1 traces so the next one fits.
func (r *Recorder) rotate() error {
	entries, err := os.ReadDir(r.basePath)
	if err != nil {
		return err
	}

	type trace struct {
		name string
		mod  time.Time
	}
	var traces []trace
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		traces = append(traces, trace{e.Name(), info.ModTime()})
	}

	sort.Slice(traces, func(i, j int) bool {
		return traces[i].mod.After(traces[j].mod)
	})

	if len(traces) >= MaxRotatedFiles {
		for _, t := range traces[MaxRotatedFiles-1:] {
			_ = os.Remove(filepath.Join(r.basePath, t.name))
		}
	}
	return nil
}

// Close finishes the current trace.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		r.encoder = nil
		return err
	}
	return nil
}
