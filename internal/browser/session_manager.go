package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"orderbot/internal/config"
	"orderbot/internal/whatsapp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// SessionManager owns one Chrome instance with a persistent profile so the
// WhatsApp Web login survives restarts. It implements whatsapp.Driver.
type SessionManager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	launch   *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	surface  *Surface
	controlU string
}

func NewSessionManager(cfg config.BrowserConfig, logger *zap.Logger) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{cfg: cfg, logger: logger}
}

// Open launches Chrome (or attaches to debugger_url), opens one tab and
// returns it as a surface. A second call returns the open surface.
func (m *SessionManager) Open(ctx context.Context) (whatsapp.Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.surface != nil {
		return m.surface, nil
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" {
		l, err := m.newLauncher()
		if err != nil {
			return nil, err
		}
		u, err := l.Launch()
		if err != nil {
			l.Kill()
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		m.launch = l
		controlURL = u
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	browser := rod.New().ControlURL(controlURL).Context(m.ctx)
	if err := browser.Connect(); err != nil {
		m.teardown()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	m.browser = browser
	m.controlU = controlURL

	page, err := m.firstPage()
	if err != nil {
		m.teardown()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.GetViewportWidth(),
		Height:            m.cfg.GetViewportHeight(),
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		m.logger.Warn("failed to set viewport", zap.Error(err))
	}

	m.page = page
	m.surface = NewSurface(page)
	m.logger.Info("browser connected",
		zap.String("control_url", controlURL),
		zap.String("profile", m.cfg.ProfileDir),
		zap.Bool("headless", m.cfg.IsHeadless()))
	return m.surface, nil
}

func (m *SessionManager) newLauncher() (*launcher.Launcher, error) {
	l := launcher.New().Headless(m.cfg.IsHeadless())

	if m.cfg.ProfileDir != "" {
		profile, err := filepath.Abs(m.cfg.ProfileDir)
		if err != nil {
			return nil, fmt.Errorf("resolve profile dir: %w", err)
		}
		if err := os.MkdirAll(profile, 0o755); err != nil {
			return nil, fmt.Errorf("create profile dir: %w", err)
		}
		l = l.UserDataDir(profile)
	}

	if m.cfg.Bin != "" {
		l = l.Bin(m.cfg.Bin)
	} else if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}

	for _, raw := range m.cfg.Flags {
		name, val, hasVal := parseFlag(raw)
		if name == "" {
			continue
		}
		if hasVal {
			l = l.Set(flags.Flag(name), val)
		} else {
			l = l.Set(flags.Flag(name))
		}
	}
	return l, nil
}

// parseFlag splits "--name=value" style switches.
func parseFlag(raw string) (name, val string, hasVal bool) {
	flagStr := strings.TrimLeft(strings.TrimSpace(raw), "-")
	name, val, hasVal = strings.Cut(flagStr, "=")
	return name, val, hasVal
}

func (m *SessionManager) firstPage() (*rod.Page, error) {
	pages, err := m.browser.Pages()
	if err == nil && len(pages) > 0 {
		return pages.First(), nil
	}
	return m.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
}

// ControlURL returns the DevTools endpoint of the open browser.
func (m *SessionManager) ControlURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.controlU
}

// Close shuts Chrome down. The profile directory is left in place so the
// next Open reuses the login. Safe to call when never opened.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil && m.launch == nil {
		return nil
	}
	err := m.teardown()
	m.logger.Info("browser closed", zap.Error(err))
	return err
}

func (m *SessionManager) teardown() error {
	var errs []error
	if m.browser != nil {
		if m.cfg.DebuggerURL == "" {
			if err := m.browser.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		m.browser = nil
	}
	if m.launch != nil {
		m.launch.Kill()
		m.launch = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.page = nil
	m.surface = nil
	m.controlU = ""
	return errors.Join(errs...)
}
