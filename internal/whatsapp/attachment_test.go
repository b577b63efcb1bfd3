package whatsapp

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAttacher(s *fakeSurface, sink SnapshotSink) *AttachmentComposer {
	opts := testSettings(sink)
	prober := NewProber(s, opts.Logger, opts.Telemetry)
	return newAttachmentComposer(s, prober, newDiagnostics(s, sink, opts.Logger), opts)
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
	return path
}

func TestAttachDocumentWithSendButton(t *testing.T) {
	s := newFakeSurface()
	clip := s.put("[data-testid='attach-clip']")
	doc := s.put("[data-icon='document']")
	input := s.put("input[type='file']")
	send := s.put("[data-testid='send']")
	path := tempFile(t, "Invoice_20250101-001_Ana.xlsx")
	sink := &memorySink{}

	err := newTestAttacher(s, sink).Attach(context.Background(), testConv, AttachmentRequest{Path: path, Kind: KindDocument})

	require.NoError(t, err)
	assert.Equal(t, 1, clip.clicks)
	assert.Equal(t, 1, doc.clicks)
	assert.Equal(t, []string{path}, input.files)
	assert.Equal(t, 1, send.clicks)
	assert.True(t, sink.has("before_attach_document"))
	assert.True(t, sink.has("before_send_file"))
}

func TestAttachImageUsesImageOption(t *testing.T) {
	s := newFakeSurface()
	s.put("[data-icon='clip']")
	doc := s.put("[data-icon='document']")
	img := s.put("[data-icon='image']")
	s.put("input[type='file']")
	s.put("span[data-icon='send']")

	err := newTestAttacher(s, nil).Attach(context.Background(), testConv, AttachmentRequest{Path: tempFile(t, "qr.png"), Kind: KindImage})

	require.NoError(t, err)
	assert.Equal(t, 1, img.clicks)
	assert.Zero(t, doc.clicks)
}

func TestAttachCaptionEnterClosesDialog(t *testing.T) {
	s := newFakeSurface()
	s.put("[data-testid='attach-clip']")
	s.put("input[type='file']")
	caption := s.put("[data-testid='media-caption-input']")
	caption.onEnter = func() { s.remove("input[type='file']") }
	send := s.put("[data-testid='send']")

	a := newTestAttacher(s, nil)
	a.timings = DefaultTimings()
	var slept []time.Duration
	a.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	err := a.Attach(context.Background(), testConv, AttachmentRequest{
		Path:    tempFile(t, "invoice.xlsx"),
		Caption: "Invoice Sabor - 01/01/2025",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice Sabor - 01/01/2025"}, caption.typed)
	assert.Zero(t, send.clicks, "dialog already submitted")
	require.NotEmpty(t, slept)
	assert.Equal(t, DefaultTimings().DocumentUploadWait, slept[len(slept)-1], "upload settle after caption submit")
}

func TestAttachCaptionThenSendButton(t *testing.T) {
	s := newFakeSurface()
	s.put("[data-testid='attach-clip']")
	s.put("input[type='file']")
	caption := s.put("[data-testid='caption-input']")
	send := s.put("[data-testid='btn-send']")

	err := newTestAttacher(s, nil).Attach(context.Background(), testConv, AttachmentRequest{
		Path:    tempFile(t, "invoice.xlsx"),
		Caption: "hola",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, caption.enters)
	assert.Equal(t, 1, send.clicks)
}

func TestAttachEnterFallbacks(t *testing.T) {
	s := newFakeSurface()
	s.put("[data-testid='attach-clip']")
	s.put("input[type='file']")
	box := s.put("[contenteditable='true']")

	require.NoError(t, newTestAttacher(s, nil).Attach(context.Background(), testConv, AttachmentRequest{Path: tempFile(t, "a.pdf")}))
	assert.Equal(t, 1, box.enters)

	s2 := newFakeSurface()
	s2.put("[data-testid='attach-clip']")
	s2.put("input[type='file']")
	require.NoError(t, newTestAttacher(s2, nil).Attach(context.Background(), testConv, AttachmentRequest{Path: tempFile(t, "a.pdf")}))
	assert.Equal(t, 1, s2.pageEnters)
}

func TestAttachMissingFileTouchesNothing(t *testing.T) {
	s := newFakeSurface()
	s.put("[data-testid='attach-clip']")

	err := newTestAttacher(s, nil).Attach(context.Background(), testConv, AttachmentRequest{Path: filepath.Join(t.TempDir(), "nope.xlsx")})

	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.Empty(t, s.waited)
	assert.Empty(t, s.navigations())
	assert.Zero(t, s.shots)
}

func TestAttachControlNotFound(t *testing.T) {
	s := newFakeSurface()
	sink := &memorySink{}

	err := newTestAttacher(s, sink).Attach(context.Background(), testConv, AttachmentRequest{Path: tempFile(t, "a.pdf")})

	assert.ErrorIs(t, err, ErrAttachControlNotFound)
	assert.True(t, sink.has("error_no_attach_button"))
}

func TestAttachFileInputMissing(t *testing.T) {
	s := newFakeSurface()
	s.put("[aria-label='Adjuntar']")
	sink := &memorySink{}

	err := newTestAttacher(s, sink).Attach(context.Background(), testConv, AttachmentRequest{Path: tempFile(t, "a.pdf")})

	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.True(t, sink.has("error_file_upload"))
}
