// Package app assembles the bot's components from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"orderbot/internal/assistant"
	"orderbot/internal/browser"
	"orderbot/internal/config"
	"orderbot/internal/delivery"
	"orderbot/internal/directlink"
	"orderbot/internal/invoice"
	"orderbot/internal/ledger"
	"orderbot/internal/mail"
	"orderbot/internal/mangle"
	"orderbot/internal/recorder"
	"orderbot/internal/whatsapp"
)

// App owns every long-lived component.
type App struct {
	Config    config.Config
	Logger    *zap.Logger
	Browser   *browser.SessionManager
	Engine    *whatsapp.Engine
	Trace     *recorder.Recorder
	Snapshots *recorder.Snapshots
	Mangle    *mangle.Engine
	Locators  *mangle.LocatorTelemetry
	Ledger    *ledger.Ledger
	Invoices  *invoice.Generator
	Mail      *mail.Sender

	driver whatsapp.Driver
}

// New builds the application. Nothing touches the browser until the engine
// is first used.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	var err error
	if a.Trace, err = recorder.NewRecorder(cfg.WhatsApp.TraceDir); err != nil {
		return nil, fmt.Errorf("trace recorder: %w", err)
	}
	if a.Snapshots, err = recorder.NewSnapshots(cfg.WhatsApp.DiagnosticsDir, a.Trace); err != nil {
		return nil, fmt.Errorf("diagnostics dir: %w", err)
	}
	if a.Mangle, err = mangle.NewEngine(cfg.Mangle, logger.Named("mangle")); err != nil {
		return nil, fmt.Errorf("mangle engine: %w", err)
	}
	a.Locators = mangle.NewLocatorTelemetry(a.Mangle, logger.Named("locators"))

	if a.Ledger, err = ledger.Open(cfg.Ledger.Path, logger.Named("ledger")); err != nil {
		return nil, err
	}

	a.Browser = browser.NewSessionManager(cfg.Browser, logger.Named("browser"))
	a.driver = a.Browser
	a.Engine = whatsapp.NewEngine(a.engineOptions())

	a.Invoices = invoice.NewGenerator(cfg.Invoice, cfg.Business, logger.Named("invoice"))
	a.Mail = mail.NewSender(cfg.Mail, cfg.Business, logger.Named("mail"))
	return a, nil
}

// EngineOptions maps configuration onto the automation engine.
func EngineOptions(cfg config.Config, driver whatsapp.Driver, sink whatsapp.SnapshotSink,
	telemetry whatsapp.Telemetry, logger *zap.Logger) whatsapp.Options {
	return whatsapp.Options{
		Driver:      driver,
		Diagnostics: sink,
		Telemetry:   telemetry,
		Logger:      logger,
		Site: whatsapp.Site{
			BaseURL:     cfg.WhatsApp.BaseURL,
			CountryCode: cfg.WhatsApp.DefaultCountryCode,
			ChunkSize:   cfg.WhatsApp.ChunkSize,
		},
		Timings: Timings(cfg.WhatsApp),
	}
}

func (a *App) engineOptions() whatsapp.Options {
	return EngineOptions(a.Config, a.driver, a.Snapshots,
		whatsapp.MultiTelemetry{a.Trace, a.Locators}, a.Logger.Named("whatsapp"))
}

// StartTrace opens a fresh trace file so engine steps outside a delivery
// run are recorded too.
func (a *App) StartTrace() (string, error) {
	runID := uuid.NewString()
	if err := a.Trace.Start(runID); err != nil {
		return "", fmt.Errorf("start trace: %w", err)
	}
	return runID, nil
}

// SendMessageOnce sends text on a session of its own, traced under a new run
// id, and closes the session before returning.
func (a *App) SendMessageOnce(ctx context.Context, phone, text string) (string, error) {
	runID, err := a.StartTrace()
	if err != nil {
		return "", err
	}
	a.Trace.Log("send_message", map[string]string{"phone": phone})
	return runID, whatsapp.SendMessageOnce(ctx, a.engineOptions(), phone, text)
}

// Timings overlays configured durations on the defaults.
func Timings(w config.WhatsAppConfig) whatsapp.Timings {
	t := whatsapp.DefaultTimings()
	probe := func(d *time.Duration, name string) { *d = w.Timeout(name, *d) }
	settle := func(d *time.Duration, name string) { *d = w.SettleDelay(name, *d) }

	probe(&t.ReadyProbe, "ready_probe")
	probe(&t.ReadyExtendedWait, "ready_extended_wait")
	probe(&t.DeepLinkProbe, "deep_link_probe")
	probe(&t.SearchProbe, "search_probe")
	probe(&t.InputProbe, "input_probe")
	probe(&t.SendProbe, "send_probe")
	probe(&t.AttachProbe, "attach_probe")
	probe(&t.OptionProbe, "option_probe")
	probe(&t.FileInputProbe, "file_input_probe")
	probe(&t.CaptionProbe, "caption_probe")
	probe(&t.MediaSendProbe, "media_send_probe")

	settle(&t.DeepLinkSettle, "deep_link")
	settle(&t.SearchRootSettle, "search_root")
	settle(&t.SearchResultsSettle, "search_results")
	settle(&t.ResultClickSettle, "result_click")
	settle(&t.ExactMatchSettle, "exact_match")
	settle(&t.ChunkPause, "chunk_pause")
	settle(&t.MessageSendSettle, "message_send")
	settle(&t.AttachMenuSettle, "attach_menu")
	settle(&t.OptionSettle, "option")
	settle(&t.FileLoadedSettle, "file_loaded")
	settle(&t.CaptionEnterSettle, "caption_enter")
	settle(&t.DocumentUploadWait, "document_upload")
	settle(&t.ImageUploadWait, "image_upload")
	settle(&t.PreComposeSettle, "pre_compose")
	return t
}

// Dispatcher wires the delivery channels. confirm answers operator prompts.
func (a *App) Dispatcher(confirm func(question string) bool) *delivery.Dispatcher {
	return delivery.NewDispatcher(delivery.Deps{
		Mailer:      a.Mail,
		Invoicer:    a.Invoices,
		Messenger:   a.Engine,
		Journal:     a.Ledger,
		Tracer:      a.Trace,
		Business:    a.Config.Business,
		CountryCode: a.Config.WhatsApp.DefaultCountryCode,
		QRDir:       a.Config.WhatsApp.QRDir,
		Confirm:     confirm,
		OpenLink:    directlink.OpenInBrowser,
	}, a.Logger.Named("delivery"))
}

// Conversation starts an ordering dialogue backed by Gemini.
func (a *App) Conversation(ctx context.Context) (*assistant.Conversation, error) {
	completer, err := assistant.NewGeminiCompleter(ctx, a.Config.Assistant.APIKey, a.Config.Assistant.Model)
	if err != nil {
		return nil, err
	}
	return assistant.NewConversation(completer, a.Config.Assistant, a.Logger.Named("assistant")), nil
}

// Close releases the browser, trace file and database.
func (a *App) Close() error {
	return errors.Join(a.Engine.Close(), a.Trace.Close(), a.Ledger.Close())
}
