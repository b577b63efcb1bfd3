package browser

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"orderbot/internal/config"
	"orderbot/internal/whatsapp"

	"github.com/go-rod/rod/lib/launcher"
)

const liveFixture = `<html><body>
<div id="side" role="grid"><div role="row" title="573042535003">Ana</div><div role="row">Luis</div></div>
<div contenteditable="true" role="textbox" id="box"></div>
<input type="file" id="upload">
<button id="send" onclick="document.getElementById('box').innerText='sent'">Enviar</button>
<p>El número de teléfono no existe</p>
</body></html>`

func openLive(t *testing.T) (*SessionManager, whatsapp.Surface) {
	t.Helper()
	if os.Getenv("SKIP_LIVE_TESTS") != "" {
		t.Skip("Skipping live browser tests (SKIP_LIVE_TESTS set)")
	}
	if _, ok := launcher.LookPath(); !ok {
		t.Skip("Chrome not installed")
	}
	headless := true
	m := NewSessionManager(config.BrowserConfig{
		Headless:   &headless,
		ProfileDir: t.TempDir(),
		Flags:      config.DefaultConfig().Browser.Flags,
	}, nil)
	t.Cleanup(func() { _ = m.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	s, err := m.Open(ctx)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return m, s
}

func TestLiveSurface(t *testing.T) {
	_, s := openLive(t)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := s.Navigate(ctx, "data:text/html,"+url.PathEscape(liveFixture)); err != nil {
		t.Fatalf("Navigate failed: %v", err)
	}

	if _, err := s.WaitFor(ctx, whatsapp.CSS("#side"), 2*time.Second, whatsapp.WaitPresent); err != nil {
		t.Errorf("expected #side present: %v", err)
	}
	if _, err := s.WaitFor(ctx, whatsapp.CSS("#absent"), 300*time.Millisecond, whatsapp.WaitPresent); err == nil {
		t.Error("expected #absent to time out")
	}
	if _, err := s.WaitFor(ctx, whatsapp.XPath("//div[contains(@title, '573042535003')]"), 2*time.Second, whatsapp.WaitClickable); err != nil {
		t.Errorf("expected xpath row clickable: %v", err)
	}

	rows, err := s.FindAll(ctx, whatsapp.CSS("div[role='row']"))
	if err != nil || len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d (%v)", len(rows), err)
	}

	if ok, err := s.HasText(ctx, "El número de teléfono no existe"); err != nil || !ok {
		t.Errorf("expected invalid-number phrase to be found: %v %v", ok, err)
	}
	if ok, _ := s.HasText(ctx, "nowhere to be seen"); ok {
		t.Error("unexpected phrase match")
	}

	box, err := s.WaitFor(ctx, whatsapp.CSS("#box"), 2*time.Second, whatsapp.WaitPresent)
	if err != nil {
		t.Fatalf("box not found: %v", err)
	}
	if err := box.Type(ctx, "hola"); err != nil {
		t.Errorf("Type failed: %v", err)
	}
	if err := box.Clear(ctx); err != nil {
		t.Errorf("Clear failed: %v", err)
	}

	upload, err := s.WaitFor(ctx, whatsapp.CSS("#upload"), 2*time.Second, whatsapp.WaitPresent)
	if err != nil {
		t.Fatalf("upload not found: %v", err)
	}
	file := t.TempDir() + "/menu.txt"
	if err := os.WriteFile(file, []byte("menu"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := upload.SetFiles(ctx, []string{file}); err != nil {
		t.Errorf("SetFiles failed: %v", err)
	}

	png, err := s.Screenshot(ctx)
	if err != nil || len(png) == 0 {
		t.Errorf("Screenshot failed: %v", err)
	}
	if u, err := s.CurrentURL(ctx); err != nil || u == "" {
		t.Errorf("CurrentURL failed: %q %v", u, err)
	}
}
