package whatsapp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var errMissing = errors.New("element not present")

type fakeElement struct {
	name    string
	mu      sync.Mutex
	typed   []string
	clicks  int
	clears  int
	enters  int
	files   []string
	onClick func()
	onEnter func()
	typeErr error
}

func (e *fakeElement) Click(context.Context) error {
	e.mu.Lock()
	e.clicks++
	hook := e.onClick
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *fakeElement) Clear(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clears++
	return nil
}

func (e *fakeElement) Type(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.typeErr != nil {
		return e.typeErr
	}
	e.typed = append(e.typed, text)
	return nil
}

func (e *fakeElement) PressEnter(context.Context) error {
	e.mu.Lock()
	e.enters++
	hook := e.onEnter
	e.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (e *fakeElement) SetFiles(_ context.Context, paths []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files = append(e.files, paths...)
	return nil
}

// fakeSurface maps locator expressions to elements. Anything not in the map
// is absent.
type fakeSurface struct {
	mu         sync.Mutex
	elements   map[string][]*fakeElement
	texts      []string
	url        string
	navigated  []string
	waited     []string
	found      []string
	pageEnters int
	shots      int
	onNavigate func(s *fakeSurface, url string)
	navErr     error
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{elements: make(map[string][]*fakeElement)}
}

// put registers a single element under expr and returns it.
func (s *fakeSurface) put(expr string) *fakeElement {
	el := &fakeElement{name: expr}
	s.mu.Lock()
	s.elements[expr] = append(s.elements[expr], el)
	s.mu.Unlock()
	return el
}

func (s *fakeSurface) remove(expr string) {
	s.mu.Lock()
	delete(s.elements, expr)
	s.mu.Unlock()
}

func (s *fakeSurface) Navigate(_ context.Context, url string) error {
	s.mu.Lock()
	s.navigated = append(s.navigated, url)
	if s.navErr != nil {
		err := s.navErr
		s.mu.Unlock()
		return err
	}
	s.url = url
	hook := s.onNavigate
	s.mu.Unlock()
	if hook != nil {
		hook(s, url)
	}
	return nil
}

func (s *fakeSurface) CurrentURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url, nil
}

func (s *fakeSurface) WaitFor(_ context.Context, loc Locator, _ time.Duration, _ WaitMode) (Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waited = append(s.waited, loc.Expr)
	if els := s.elements[loc.Expr]; len(els) > 0 {
		return els[0], nil
	}
	return nil, errMissing
}

func (s *fakeSurface) FindAll(_ context.Context, loc Locator) ([]Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.found = append(s.found, loc.Expr)
	var out []Element
	for _, el := range s.elements[loc.Expr] {
		out = append(out, el)
	}
	return out, nil
}

func (s *fakeSurface) HasText(_ context.Context, phrase string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.texts {
		if strings.Contains(t, phrase) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeSurface) PressEnter(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageEnters++
	return nil
}

func (s *fakeSurface) Screenshot(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shots++
	return []byte("png"), nil
}

func (s *fakeSurface) navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigated...)
}

type fakeDriver struct {
	surface *fakeSurface
	openErr error
	opens   int
	closes  int
}

func (d *fakeDriver) Open(context.Context) (Surface, error) {
	d.opens++
	if d.openErr != nil {
		return nil, d.openErr
	}
	return d.surface, nil
}

func (d *fakeDriver) Close() error {
	d.closes++
	return nil
}

type memorySink struct {
	mu    sync.Mutex
	names []string
}

func (m *memorySink) Snapshot(_ context.Context, name string, _ []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names = append(m.names, name)
	return "/tmp/" + name + ".png", nil
}

func (m *memorySink) has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.names {
		if n == name {
			return true
		}
	}
	return false
}

type recordingTelemetry struct {
	mu         sync.Mutex
	hits       []string
	misses     []string
	strategies []string
}

func (r *recordingTelemetry) ProbeHit(target, candidate string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, target+"="+candidate)
}

func (r *recordingTelemetry) ProbeMiss(target string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses = append(r.misses, target)
}

func (r *recordingTelemetry) StrategyResult(_, strategy, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies = append(r.strategies, strategy+":"+outcome)
}

// testSettings returns resolved settings with every wait disabled.
func testSettings(sink SnapshotSink) settings {
	return Options{Diagnostics: sink}.resolve()
}
