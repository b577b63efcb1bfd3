package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConv = ConversationHandle{Contact: "573042535003", Strategy: "deep-link"}

func newTestComposer(s *fakeSurface, sink SnapshotSink) *MessageComposer {
	opts := testSettings(sink)
	prober := NewProber(s, opts.Logger, opts.Telemetry)
	return newMessageComposer(prober, newDiagnostics(s, sink, opts.Logger), opts)
}

func TestComposeShortMessageSingleChunk(t *testing.T) {
	s := newFakeSurface()
	input := s.put("div[role='textbox']")
	send := s.put("[data-icon='send']")
	sink := &memorySink{}

	err := newTestComposer(s, sink).Compose(context.Background(), testConv, "Hello")

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello"}, input.typed)
	assert.Equal(t, 1, input.clears)
	assert.Equal(t, 1, send.clicks)
	assert.Zero(t, input.enters)
	assert.True(t, sink.has("before_send"))
}

func TestComposeChunksLongMessage(t *testing.T) {
	s := newFakeSurface()
	input := s.put("[data-testid='conversation-compose-box-input']")
	s.put("[data-testid='compose-btn-send']")
	text := strings.Repeat("a", 120)

	require.NoError(t, newTestComposer(s, nil).Compose(context.Background(), testConv, text))

	require.Len(t, input.typed, 3)
	assert.Len(t, input.typed[0], 50)
	assert.Len(t, input.typed[1], 50)
	assert.Len(t, input.typed[2], 20)
	assert.Equal(t, text, strings.Join(input.typed, ""))
}

func TestComposeFallsBackToEnter(t *testing.T) {
	s := newFakeSurface()
	input := s.put("#main div[contenteditable='true']")

	require.NoError(t, newTestComposer(s, nil).Compose(context.Background(), testConv, "hola"))

	assert.Equal(t, 1, input.enters)
}

func TestComposeInputNotFound(t *testing.T) {
	s := newFakeSurface()
	sink := &memorySink{}

	err := newTestComposer(s, sink).Compose(context.Background(), testConv, "hola")

	assert.ErrorIs(t, err, ErrInputNotFound)
	assert.True(t, sink.has("error_send_message"))
}

func TestComposeTypingFailure(t *testing.T) {
	s := newFakeSurface()
	input := s.put("div[role='textbox']")
	input.typeErr = errors.New("detached")

	err := newTestComposer(s, nil).Compose(context.Background(), testConv, "hola")

	assert.ErrorIs(t, err, ErrSubmitFailed)
}

func TestSplitChunks(t *testing.T) {
	assert.Nil(t, splitChunks("", 50))
	assert.Equal(t, []string{"abc"}, splitChunks("abc", 0))
	assert.Equal(t, []string{"ab", "c"}, splitChunks("abc", 2))
	// Multi-byte runes stay whole.
	assert.Equal(t, []string{"ñá", "🍔"}, splitChunks("ñá🍔", 2))
}
