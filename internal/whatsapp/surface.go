package whatsapp

import (
	"context"
	"time"
)

// WaitMode is the readiness condition a probe waits for.
type WaitMode int

const (
	// WaitPresent resolves as soon as the element is attached to the document.
	WaitPresent WaitMode = iota
	// WaitClickable additionally waits until the element can receive a click.
	WaitClickable
)

func (m WaitMode) String() string {
	if m == WaitClickable {
		return "clickable"
	}
	return "present"
}

// Element is a resolved handle on the automation surface.
type Element interface {
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	PressEnter(ctx context.Context) error
	SetFiles(ctx context.Context, paths []string) error
}

// Surface is the page the engine drives. The rod adapter in internal/browser
// implements it against a live Chrome tab.
type Surface interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	// WaitFor blocks up to timeout for loc to satisfy mode.
	WaitFor(ctx context.Context, loc Locator, timeout time.Duration, mode WaitMode) (Element, error)
	// FindAll returns the elements currently matching loc without waiting.
	FindAll(ctx context.Context, loc Locator) ([]Element, error)
	// HasText reports whether phrase occurs in any rendered text node.
	HasText(ctx context.Context, phrase string) (bool, error)
	// PressEnter sends Enter to whatever element has focus.
	PressEnter(ctx context.Context) error
	Screenshot(ctx context.Context) ([]byte, error)
}

// Driver opens and closes the automation surface.
type Driver interface {
	Open(ctx context.Context) (Surface, error)
	Close() error
}
