// Package whatsapp drives WhatsApp Web through a browser surface. Every UI
// interaction walks a ranked list of locators so that markup drift in one
// selector does not break delivery.
package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Options configures an Engine. Unset fields take defaults except Timings,
// whose zero value disables waiting.
type Options struct {
	Driver      Driver
	Diagnostics SnapshotSink
	Telemetry   Telemetry
	Logger      *zap.Logger
	Site        Site
	Timings     Timings
	// Strategies overrides the built-in locator tables when non-nil.
	Strategies *Strategies
}

// settings is Options with every default applied.
type settings struct {
	Driver      Driver
	Diagnostics SnapshotSink
	Telemetry   Telemetry
	Logger      *zap.Logger
	Site        Site
	Timings     Timings
	Strategies  Strategies
}

func (o Options) resolve() settings {
	s := settings{
		Driver:      o.Driver,
		Diagnostics: o.Diagnostics,
		Telemetry:   o.Telemetry,
		Logger:      o.Logger,
		Site:        o.Site,
		Timings:     o.Timings,
	}
	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}
	if s.Telemetry == nil {
		s.Telemetry = nopTelemetry{}
	}
	def := DefaultSite()
	if s.Site.BaseURL == "" {
		s.Site.BaseURL = def.BaseURL
	}
	if s.Site.CountryCode == "" {
		s.Site.CountryCode = def.CountryCode
	}
	if s.Site.ChunkSize <= 0 {
		s.Site.ChunkSize = def.ChunkSize
	}
	if o.Strategies != nil {
		s.Strategies = *o.Strategies
	} else {
		s.Strategies = DefaultStrategies()
	}
	return s
}

// Engine is the facade used by the rest of the bot. It is not safe for
// concurrent operations: one surface serves one caller at a time, so every
// public method serializes on an internal lock.
type Engine struct {
	opts    settings
	session *SessionManager

	mu            sync.Mutex
	conversations *ConversationLocator
	messages      *MessageComposer
	attachments   *AttachmentComposer
}

func NewEngine(opts Options) *Engine {
	s := opts.resolve()
	return &Engine{opts: s, session: newSessionManager(s)}
}

// Start opens the surface and waits for the application shell.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked(ctx)
}

func (e *Engine) startLocked(ctx context.Context) error {
	if e.conversations != nil {
		return nil
	}
	surface, err := e.session.Open(ctx)
	if err != nil {
		return err
	}
	if !e.session.IsReady(ctx, e.opts.Timings.ReadyProbe) {
		return ErrNotReady
	}
	_, prober, diag := e.session.parts()
	e.conversations = newConversationLocator(surface, prober, diag, e.opts)
	e.messages = newMessageComposer(prober, diag, e.opts)
	e.attachments = newAttachmentComposer(surface, prober, diag, e.opts)
	return nil
}

// SendMessage normalizes phone, opens the conversation and sends text.
func (e *Engine) SendMessage(ctx context.Context, phone, text string) error {
	contact, err := NormalizeContact(phone, e.opts.Site.CountryCode)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.startLocked(ctx); err != nil {
		return err
	}
	conv, err := e.conversations.Resolve(ctx, contact)
	if err != nil {
		return err
	}
	if err := sleepWithContext(ctx, e.opts.Timings.PreComposeSettle); err != nil {
		return err
	}
	return e.messages.Compose(ctx, conv, text)
}

// SendDocument sends path as a document with an optional caption.
func (e *Engine) SendDocument(ctx context.Context, phone, path, caption string) error {
	return e.sendAttachment(ctx, phone, AttachmentRequest{Path: path, Caption: caption, Kind: KindDocument})
}

// SendImage sends path as an image with an optional caption.
func (e *Engine) SendImage(ctx context.Context, phone, path, caption string) error {
	return e.sendAttachment(ctx, phone, AttachmentRequest{Path: path, Caption: caption, Kind: KindImage})
}

func (e *Engine) sendAttachment(ctx context.Context, phone string, req AttachmentRequest) error {
	if _, err := resolveAttachment(req.Path); err != nil {
		return stepErr("resolve file", err)
	}
	contact, err := NormalizeContact(phone, e.opts.Site.CountryCode)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.startLocked(ctx); err != nil {
		return err
	}
	conv, err := e.conversations.Resolve(ctx, contact)
	if err != nil {
		return err
	}
	if err := sleepWithContext(ctx, e.opts.Timings.PreComposeSettle); err != nil {
		return err
	}
	return e.attachments.Attach(ctx, conv, req)
}

// Close releases the surface. Later calls to Send* reopen it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conversations, e.messages, e.attachments = nil, nil, nil
	return e.session.Close()
}

// SendMessageOnce runs a full start, send, close cycle. The session is
// closed even when sending fails.
func SendMessageOnce(ctx context.Context, opts Options, phone, text string) (err error) {
	eng := NewEngine(opts)
	defer func() {
		if cerr := eng.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close session: %w", cerr)
		}
	}()
	if err := eng.Start(ctx); err != nil {
		return err
	}
	return eng.SendMessage(ctx, phone, text)
}

// Retryable reports whether err is worth another attempt on a fresh session.
// Invalid contacts and missing files are permanent.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvalidContact), errors.Is(err, ErrFileNotFound), errors.Is(err, ErrEmptyContact):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
