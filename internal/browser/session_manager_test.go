package browser

import (
	"context"
	"testing"

	"orderbot/internal/config"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		raw    string
		name   string
		val    string
		hasVal bool
	}{
		{"--disable-gpu", "disable-gpu", "", false},
		{"no-sandbox", "no-sandbox", "", false},
		{"--window-size=1280,720", "window-size", "1280,720", true},
		{"  -lang=es-CO ", "lang", "es-CO", true},
		{"", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			name, val, hasVal := parseFlag(tt.raw)
			if name != tt.name || val != tt.val || hasVal != tt.hasVal {
				t.Errorf("parseFlag(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.raw, name, val, hasVal, tt.name, tt.val, tt.hasVal)
			}
		})
	}
}

func TestCloseWithoutOpen(t *testing.T) {
	m := NewSessionManager(config.BrowserConfig{}, nil)
	if err := m.Close(); err != nil {
		t.Fatalf("Close on unopened manager: %v", err)
	}
	if m.ControlURL() != "" {
		t.Error("expected empty control url")
	}
}

func TestOpenFailsForUnreachableDebugger(t *testing.T) {
	m := NewSessionManager(config.BrowserConfig{DebuggerURL: "ws://127.0.0.1:1/devtools/browser/none"}, nil)
	if _, err := m.Open(context.Background()); err == nil {
		t.Fatal("expected connect error")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close after failed open: %v", err)
	}
}
