package invoice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultCounterFile is the counter file name used when none is configured.
const DefaultCounterFile = "invoice_count.json"

type counterState struct {
	LastNumber int    `json:"last_number"`
	Date       string `json:"date"`
}

// Counter issues sequential invoice numbers that restart every day.
type Counter struct {
	mu   sync.Mutex
	path string
}

// NewCounter persists state in path.
func NewCounter(path string) *Counter {
	if path == "" {
		path = DefaultCounterFile
	}
	return &Counter{path: path}
}

// Next returns the next number for now's date, formatted YYYYMMDD-NNN.
// A missing or corrupt file starts the day over at 1.
func (c *Counter) Next(now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	today := now.Format("2006-01-02")
	state := c.load()
	if state.Date != today {
		state = counterState{Date: today}
	}
	state.LastNumber++

	if err := c.save(state); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", now.Format("20060102"), state.LastNumber), nil
}

func (c *Counter) load() counterState {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return counterState{}
	}
	var state counterState
	if err := json.Unmarshal(data, &state); err != nil {
		return counterState{}
	}
	return state
}

func (c *Counter) save(state counterState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("create counter dir: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace counter: %w", err)
	}
	return nil
}
