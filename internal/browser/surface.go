package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"orderbot/internal/whatsapp"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// Surface adapts a rod page to whatsapp.Surface.
type Surface struct {
	page *rod.Page
}

func NewSurface(page *rod.Page) *Surface {
	return &Surface{page: page}
}

func (s *Surface) Navigate(ctx context.Context, url string) error {
	p := s.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	// The chat client keeps long-polling connections open, so load is the
	// strongest signal worth waiting for.
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait load %s: %w", url, err)
	}
	return nil
}

func (s *Surface) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *Surface) WaitFor(ctx context.Context, loc whatsapp.Locator, timeout time.Duration, mode whatsapp.WaitMode) (whatsapp.Element, error) {
	if timeout <= 0 {
		els, err := s.FindAll(ctx, loc)
		if err != nil {
			return nil, err
		}
		if len(els) == 0 {
			return nil, errors.New("element not present")
		}
		return els[0], nil
	}

	tp := s.page.Context(ctx).Timeout(timeout)
	defer tp.CancelTimeout()

	var (
		el  *rod.Element
		err error
	)
	if loc.Kind == whatsapp.KindXPath {
		el, err = tp.ElementX(loc.Expr)
	} else {
		el, err = tp.Element(loc.Expr)
	}
	if err != nil {
		return nil, err
	}
	if mode == whatsapp.WaitClickable {
		if _, err := el.WaitInteractable(); err != nil {
			return nil, err
		}
	}
	return &Element{el: el.Context(ctx)}, nil
}

func (s *Surface) FindAll(ctx context.Context, loc whatsapp.Locator) ([]whatsapp.Element, error) {
	p := s.page.Context(ctx)
	var (
		els rod.Elements
		err error
	)
	if loc.Kind == whatsapp.KindXPath {
		els, err = p.ElementsX(loc.Expr)
	} else {
		els, err = p.Elements(loc.Expr)
	}
	if err != nil {
		return nil, err
	}
	out := make([]whatsapp.Element, 0, len(els))
	for _, el := range els {
		out = append(out, &Element{el: el})
	}
	return out, nil
}

func (s *Surface) HasText(ctx context.Context, phrase string) (bool, error) {
	has, _, err := s.page.Context(ctx).HasX("//*[contains(text(), " + whatsapp.XPathLiteral(phrase) + ")]")
	return has, err
}

func (s *Surface) PressEnter(ctx context.Context) error {
	return s.page.Context(ctx).Keyboard.Press(input.Enter)
}

func (s *Surface) Screenshot(ctx context.Context) ([]byte, error) {
	return s.page.Context(ctx).Screenshot(false, nil)
}

// Element adapts a rod element to whatsapp.Element.
type Element struct {
	el *rod.Element
}

func (e *Element) Click(ctx context.Context) error {
	return e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// Clear selects all text and deletes it. Works for inputs and
// contenteditable boxes alike.
func (e *Element) Clear(ctx context.Context) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return err
	}
	return el.Type(input.Backspace)
}

func (e *Element) Type(ctx context.Context, text string) error {
	return e.el.Context(ctx).Input(text)
}

func (e *Element) PressEnter(ctx context.Context) error {
	return e.el.Context(ctx).Type(input.Enter)
}

func (e *Element) SetFiles(ctx context.Context, paths []string) error {
	return e.el.Context(ctx).SetFiles(paths)
}
