package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Site describes the chat application the engine drives.
type Site struct {
	BaseURL     string
	CountryCode string
	ChunkSize   int
}

// DefaultSite targets WhatsApp Web with Colombian numbering.
func DefaultSite() Site {
	return Site{
		BaseURL:     "https://web.whatsapp.com",
		CountryCode: DefaultCountryCode,
		ChunkSize:   50,
	}
}

func (s Site) root() string {
	return strings.TrimRight(s.BaseURL, "/")
}

func (s Site) host() string {
	h := s.root()
	if i := strings.Index(h, "://"); i >= 0 {
		h = h[i+3:]
	}
	return h
}

// SessionManager owns the surface lifecycle and decides when the chat
// application has rendered enough to be driven.
type SessionManager struct {
	driver     Driver
	site       Site
	timings    Timings
	strategies Strategies
	sink       SnapshotSink
	telemetry  Telemetry
	logger     *zap.Logger

	mu      sync.Mutex
	surface Surface
	prober  *Prober
	diag    *Diagnostics
}

func newSessionManager(opts settings) *SessionManager {
	return &SessionManager{
		driver:     opts.Driver,
		site:       opts.Site,
		timings:    opts.Timings,
		strategies: opts.Strategies,
		sink:       opts.Diagnostics,
		telemetry:  opts.Telemetry,
		logger:     opts.Logger,
	}
}

// Open launches the surface, or returns the one already open.
func (m *SessionManager) Open(ctx context.Context) (Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface != nil {
		return m.surface, nil
	}
	if m.driver == nil {
		return nil, fmt.Errorf("%w: no driver configured", ErrSession)
	}
	surface, err := m.driver.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSession, err)
	}
	m.surface = surface
	m.prober = NewProber(surface, m.logger, m.telemetry)
	m.diag = newDiagnostics(surface, m.sink, m.logger)
	m.logger.Info("browser session opened")
	return surface, nil
}

// IsReady navigates to the application root and reports whether the shell
// rendered. Detection tries each shell candidate with probeTimeout, then the
// URL heuristic, then one re-probe after the extended wait.
func (m *SessionManager) IsReady(ctx context.Context, probeTimeout time.Duration) bool {
	m.mu.Lock()
	surface, prober, diag := m.surface, m.prober, m.diag
	m.mu.Unlock()
	if surface == nil {
		return false
	}

	if err := surface.Navigate(ctx, m.site.root()); err != nil {
		m.logger.Warn("navigate to application root failed", zap.Error(err))
		diag.Capture(ctx, "whatsapp_loading_screen")
		return false
	}

	if res := prober.Probe(ctx, m.strategies.ShellReady, probeTimeout, WaitPresent); res.Found {
		m.logger.Info("application shell detected", zap.String("candidate", res.Candidate.String()))
		return true
	}

	if url, err := surface.CurrentURL(ctx); err == nil && m.looksLoggedIn(url) {
		m.logger.Info("application shell inferred from url", zap.String("url", url))
		return true
	}

	diag.Capture(ctx, "whatsapp_loading_screen")
	m.logger.Info("shell not detected, waiting for slow load",
		zap.Duration("wait", m.timings.ReadyExtendedWait))
	if err := sleepWithContext(ctx, m.timings.ReadyExtendedWait); err != nil {
		return false
	}

	if res, _ := prober.Present(ctx, m.strategies.ShellReady); res.Found {
		m.logger.Info("application shell detected after extended wait",
			zap.String("candidate", res.Candidate.String()))
		return true
	}
	m.logger.Warn("application shell not detected")
	return false
}

// looksLoggedIn accepts any URL on the application host that is not the
// welcome/login page.
func (m *SessionManager) looksLoggedIn(url string) bool {
	host := m.site.host()
	return host != "" && strings.Contains(url, host) && !strings.Contains(url, "/welcome")
}

// Close releases the surface. It is safe to call more than once.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.surface == nil {
		return nil
	}
	m.surface = nil
	m.prober = nil
	m.diag = nil
	if m.driver == nil {
		return nil
	}
	err := m.driver.Close()
	m.logger.Info("browser session closed", zap.Error(err))
	return err
}

func (m *SessionManager) parts() (Surface, *Prober, *Diagnostics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface, m.prober, m.diag
}
