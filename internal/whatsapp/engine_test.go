package whatsapp

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readyChat simulates a logged-in session where every deep link opens.
func readyChat() *fakeSurface {
	s := newFakeSurface()
	s.put("#pane-side")
	s.onNavigate = func(s *fakeSurface, url string) {
		if filepath.Base(url) != "web.whatsapp.com" {
			s.put("#main")
		}
	}
	return s
}

func TestEngineSendMessageEndToEnd(t *testing.T) {
	s := readyChat()
	input := s.put("div[role='textbox']")
	send := s.put("[data-icon='send']")
	d := &fakeDriver{surface: s}
	eng := NewEngine(Options{Driver: d})

	require.NoError(t, eng.Start(context.Background()))
	require.NoError(t, eng.SendMessage(context.Background(), "3042535003", "Hello"))
	require.NoError(t, eng.Close())

	assert.Contains(t, s.navigations(), "https://web.whatsapp.com/send?phone=573042535003")
	assert.Equal(t, []string{"Hello"}, input.typed)
	assert.Equal(t, 1, send.clicks)
	assert.Equal(t, 1, d.opens)
	assert.Equal(t, 1, d.closes)
}

func TestEngineSendMessageFallsBackToSearch(t *testing.T) {
	s := newFakeSurface()
	s.put("#pane-side")
	box := s.put("[data-testid='chat-list-search']")
	row := s.put("div[role='row']")
	input := s.put("div[role='textbox']")
	s.put("[data-icon='send']")
	tel := &recordingTelemetry{}
	eng := NewEngine(Options{Driver: &fakeDriver{surface: s}, Telemetry: tel})
	defer eng.Close()

	require.NoError(t, eng.SendMessage(context.Background(), "3042535003", "Pedido #1"))

	assert.Equal(t, []string{
		"https://web.whatsapp.com",
		"https://web.whatsapp.com/send?phone=573042535003",
		"https://web.whatsapp.com",
	}, s.navigations())
	assert.Equal(t, []string{"573042535003"}, box.typed)
	assert.Equal(t, 1, row.clicks)
	assert.Equal(t, []string{"deep-link:not-found", "search:success"}, tel.strategies)
	assert.Equal(t, []string{"Pedido #1"}, input.typed)
}

func TestEngineStartNotReady(t *testing.T) {
	s := newFakeSurface()
	s.onNavigate = func(s *fakeSurface, url string) { s.url = url + "/welcome" }
	eng := NewEngine(Options{Driver: &fakeDriver{surface: s}})

	assert.ErrorIs(t, eng.Start(context.Background()), ErrNotReady)
	require.NoError(t, eng.Close())
}

func TestEngineSendDocumentMissingFile(t *testing.T) {
	d := &fakeDriver{surface: readyChat()}
	eng := NewEngine(Options{Driver: d})

	err := eng.SendDocument(context.Background(), "3042535003", filepath.Join(t.TempDir(), "missing.xlsx"), "")

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Zero(t, d.opens, "no session for a missing file")
}

func TestEngineSendImage(t *testing.T) {
	s := readyChat()
	s.put("[data-testid='attach-clip']")
	input := s.put("input[type='file']")
	s.put("[data-testid='send']")
	eng := NewEngine(Options{Driver: &fakeDriver{surface: s}})
	t.Cleanup(func() { _ = eng.Close() })
	path := tempFile(t, "whatsapp_qr.png")

	require.NoError(t, eng.SendImage(context.Background(), "573042535003", path, ""))
	assert.Equal(t, []string{path}, input.files)
}

func TestSendMessageOnceClosesOnFailure(t *testing.T) {
	s := readyChat()
	d := &fakeDriver{surface: s}

	err := SendMessageOnce(context.Background(), Options{Driver: d}, "3042535003", "hola")

	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.Equal(t, 1, d.closes)
}

func TestSendMessageOnceSessionFailure(t *testing.T) {
	d := &fakeDriver{openErr: errors.New("no chrome")}

	err := SendMessageOnce(context.Background(), Options{Driver: d}, "3042535003", "hola")

	assert.ErrorIs(t, err, ErrSession)
}

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(stepErr("deep-link", ErrInvalidContact)))
	assert.False(t, Retryable(ErrFileNotFound))
	assert.True(t, Retryable(ErrNotFound))
	assert.True(t, Retryable(stepErr("locate input", ErrInputNotFound)))
}
