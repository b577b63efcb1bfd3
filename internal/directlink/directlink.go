// Package directlink builds wa.me click-to-chat links and their QR codes, the
// fallback channel when browser automation is unavailable.
package directlink

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/skip2/go-qrcode"

	"orderbot/internal/whatsapp"
)

const baseURL = "https://wa.me/"

// moduleSize is the pixel width of one QR module; the quiet zone is the
// library default of four modules.
const moduleSize = 10

// Link returns https://wa.me/<digits>?text=<escaped message>.
func Link(phone, message, countryCode string) (string, error) {
	id, err := whatsapp.NormalizeContact(phone, countryCode)
	if err != nil {
		return "", err
	}
	return baseURL + string(id) + "?text=" + escape(message), nil
}

// escape percent-encodes with %20 for spaces, which wa.me decodes on every platform.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WriteQR renders link as whatsapp_qr_<YYYYMMDD_HHMMSS>.png inside dir.
func WriteQR(link, dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create qr dir: %w", err)
	}
	q, err := qrcode.New(link, qrcode.Low)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	path := filepath.Join(dir, "whatsapp_qr_"+now.Format("20060102_150405")+".png")
	if err := q.WriteFile(-moduleSize, path); err != nil {
		return "", fmt.Errorf("write qr: %w", err)
	}
	return path, nil
}

// OpenInBrowser hands the link to the desktop's default browser.
func OpenInBrowser(link string) {
	launcher.Open(link)
}
