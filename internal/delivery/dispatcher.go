// Package delivery fans a confirmed order out to the channels the operator
// picks: staff e-mails, the invoice, WhatsApp and the direct link.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"orderbot/internal/config"
	"orderbot/internal/directlink"
	"orderbot/internal/invoice"
	"orderbot/internal/ledger"
	"orderbot/internal/order"
)

// Option is an entry of the delivery menu.
type Option int

const (
	OptionOrderEmail Option = iota + 1
	OptionInvoiceEmail
	OptionWhatsApp
	OptionDirectLink
	OptionAllEmail
	OptionEverything
	OptionNone
)

// MenuLines is the delivery menu in display order.
var MenuLines = []string{
	"1. Enviar resumen por correo (formato HTML)",
	"2. Enviar factura Excel por correo",
	"3. Enviar confirmación por WhatsApp (mensaje)",
	"4. Enviar confirmación por WhatsApp (enlace directo/QR)",
	"5. Enviar todas las opciones de correo (1 y 2)",
	"6. Enviar TODAS las opciones anteriores (completo)",
	"7. Finalizar sin enviar",
}

// ParseOption accepts "1" through "7".
func ParseOption(s string) (Option, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 1 || s[0] < '1' || s[0] > '7' {
		return 0, false
	}
	return Option(s[0] - '0'), true
}

func (o Option) orderEmail() bool {
	return o == OptionOrderEmail || o == OptionAllEmail || o == OptionEverything
}
func (o Option) invoiceEmail() bool {
	return o == OptionInvoiceEmail || o == OptionAllEmail || o == OptionEverything
}
func (o Option) whatsApp() bool   { return o == OptionWhatsApp || o == OptionEverything }
func (o Option) directLink() bool { return o == OptionDirectLink || o == OptionEverything }

// Channel names as journaled in the ledger.
const (
	ChannelOrderEmail   = "order_email"
	ChannelInvoiceEmail = "invoice_email"
	ChannelWhatsApp     = "whatsapp_message"
	ChannelWhatsAppFile = "whatsapp_invoice"
	ChannelDirectLink   = "direct_link"
)

type Mailer interface {
	SendOrder(ctx context.Context, summary string, customer order.Customer, orderNumber int) error
	SendInvoice(ctx context.Context, path string, customer order.Customer, summary string) error
}

type Invoicer interface {
	Generate(customer order.Customer, summary string) (invoice.Invoice, error)
}

// Messenger is the WhatsApp automation engine.
type Messenger interface {
	SendMessage(ctx context.Context, phone, text string) error
	SendDocument(ctx context.Context, phone, path, caption string) error
	Close() error
}

type Journal interface {
	NextOrderNumber(ctx context.Context, day time.Time) (int, error)
	RecordDelivery(ctx context.Context, d ledger.Delivery) (int64, error)
}

type Tracer interface {
	Start(runID string) error
	Log(eventType string, data interface{})
}

// Deps wires the dispatcher. Nil channels are reported as unavailable.
type Deps struct {
	Mailer    Mailer
	Invoicer  Invoicer
	Messenger Messenger
	Journal   Journal
	Tracer    Tracer
	Business  config.BusinessConfig
	// CountryCode is applied to the direct link.
	CountryCode string
	// QRDir receives the direct-link QR images.
	QRDir string
	// Confirm asks the operator a yes/no question. Nil answers no.
	Confirm func(question string) bool
	// OpenLink opens the direct link in a browser.
	OpenLink func(link string)
}

// Result is the outcome of one channel.
type Result struct {
	Channel string `json:"channel"`
	Target  string `json:"target,omitempty"`
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
}

// Report summarizes a dispatch run.
type Report struct {
	RunID       string   `json:"run_id"`
	Day         string   `json:"day,omitempty"`
	OrderNumber int      `json:"order_number"`
	Option      Option   `json:"option"`
	Results     []Result `json:"results"`
	InvoicePath string   `json:"invoice_path,omitempty"`
	Link        string   `json:"link,omitempty"`
	QRPath      string   `json:"qr_path,omitempty"`
}

// Any reports whether at least one channel succeeded.
func (r Report) Any() bool {
	for _, res := range r.Results {
		if res.Success {
			return true
		}
	}
	return false
}

// Dispatcher runs the delivery menu options.
type Dispatcher struct {
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(deps Deps, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{deps: deps, logger: logger, now: time.Now}
}

type run struct {
	*Dispatcher
	mu       sync.Mutex
	report   Report
	customer order.Customer
	summary  string
}

// Run executes opt for the order. Channel failures are collected in the
// report; the returned error is only for a run that could not start.
func (d *Dispatcher) Run(ctx context.Context, opt Option, customer order.Customer, summary string) (Report, error) {
	if opt < OptionOrderEmail || opt > OptionNone {
		return Report{}, fmt.Errorf("unknown delivery option %d", opt)
	}
	r := &run{Dispatcher: d, customer: customer, summary: summary}
	r.report = Report{RunID: uuid.NewString(), Option: opt}
	if opt == OptionNone {
		return r.report, nil
	}

	if d.deps.Tracer != nil {
		if err := d.deps.Tracer.Start(r.report.RunID); err != nil {
			d.logger.Warn("Trace not started", zap.Error(err))
		}
		d.deps.Tracer.Log("delivery_start", map[string]interface{}{"option": int(opt), "customer": customer.Name})
	}
	if d.deps.Journal != nil {
		day := d.now()
		n, err := d.deps.Journal.NextOrderNumber(ctx, day)
		if err != nil {
			return r.report, fmt.Errorf("order number: %w", err)
		}
		r.report.OrderNumber = n
		r.report.Day = day.Format(ledger.DayLayout)
	}

	var inv *invoice.Invoice
	if opt.invoiceEmail() {
		inv = r.generateInvoice()
	}

	r.sendEmails(ctx, opt, inv)

	if opt.whatsApp() {
		if inv == nil && opt == OptionWhatsApp && d.confirm("¿Deseas enviar también la factura Excel por WhatsApp?") {
			inv = r.generateInvoice()
		}
		r.sendWhatsApp(ctx, inv)
	}

	if opt.directLink() {
		r.directLink()
	}

	if d.deps.Tracer != nil {
		d.deps.Tracer.Log("delivery_done", r.report)
	}
	return r.report, nil
}

func (d *Dispatcher) confirm(question string) bool {
	return d.deps.Confirm != nil && d.deps.Confirm(question)
}

func (r *run) generateInvoice() *invoice.Invoice {
	if r.deps.Invoicer == nil {
		return nil
	}
	inv, err := r.deps.Invoicer.Generate(r.customer, r.summary)
	if err != nil {
		r.logger.Error("Invoice generation failed", zap.Error(err))
		return nil
	}
	r.report.InvoicePath = inv.Path
	return &inv
}

// sendEmails sends the order and invoice e-mails concurrently.
func (r *run) sendEmails(ctx context.Context, opt Option, inv *invoice.Invoice) {
	var g errgroup.Group
	if opt.orderEmail() {
		g.Go(func() error {
			r.record(ctx, ChannelOrderEmail, "", r.withMailer(func(m Mailer) error {
				return m.SendOrder(ctx, r.summary, r.customer, r.report.OrderNumber)
			}))
			return nil
		})
	}
	if opt.invoiceEmail() {
		g.Go(func() error {
			if inv == nil {
				r.record(ctx, ChannelInvoiceEmail, "", errNoInvoice)
				return nil
			}
			r.record(ctx, ChannelInvoiceEmail, inv.Path, r.withMailer(func(m Mailer) error {
				return m.SendInvoice(ctx, inv.Path, r.customer, r.summary)
			}))
			return nil
		})
	}
	_ = g.Wait()
}

func (r *run) withMailer(fn func(Mailer) error) error {
	if r.deps.Mailer == nil {
		return errUnavailable
	}
	return fn(r.deps.Mailer)
}

// sendWhatsApp sends the confirmation and, when an invoice exists, the
// invoice message and document. The session is released afterwards.
func (r *run) sendWhatsApp(ctx context.Context, inv *invoice.Invoice) {
	m := r.deps.Messenger
	phone := r.customer.Phone
	if m == nil {
		r.record(ctx, ChannelWhatsApp, phone, errUnavailable)
		return
	}
	defer func() {
		if err := m.Close(); err != nil {
			r.logger.Warn("WhatsApp session close failed", zap.Error(err))
		}
	}()

	err := m.SendMessage(ctx, phone, OrderMessage(r.deps.Business, r.customer, r.summary))
	r.record(ctx, ChannelWhatsApp, phone, err)

	if inv == nil {
		return
	}
	if err := m.SendMessage(ctx, phone, InvoiceMessage(r.deps.Business, r.customer)); err != nil {
		r.logger.Warn("Invoice message failed", zap.Error(err))
	}
	err = m.SendDocument(ctx, phone, inv.Path, InvoiceCaption(r.deps.Business, r.now()))
	r.record(ctx, ChannelWhatsAppFile, phone, err)
}

func (r *run) directLink() {
	msg := OrderMessage(r.deps.Business, r.customer, r.summary)
	link, err := directlink.Link(r.customer.Phone, msg, r.deps.CountryCode)
	if err != nil {
		r.record(context.Background(), ChannelDirectLink, r.customer.Phone, err)
		return
	}
	r.report.Link = link

	qr, err := directlink.WriteQR(link, r.deps.QRDir, r.now())
	if err != nil {
		r.logger.Warn("QR generation failed", zap.Error(err))
	}
	r.report.QRPath = qr

	if r.deps.OpenLink != nil && r.confirm("¿Deseas abrir el enlace de WhatsApp en tu navegador?") {
		r.deps.OpenLink(link)
	}
	r.record(context.Background(), ChannelDirectLink, link, nil)
}

// record appends the outcome to the report, the ledger and the trace.
func (r *run) record(ctx context.Context, channel, target string, err error) {
	res := Result{Channel: channel, Target: target, Success: err == nil}
	if err != nil {
		res.Detail = err.Error()
		r.logger.Error("Delivery failed", zap.String("channel", channel), zap.Error(err))
	} else {
		r.logger.Info("Delivery sent", zap.String("channel", channel))
	}

	r.mu.Lock()
	r.report.Results = append(r.report.Results, res)
	r.mu.Unlock()

	if r.deps.Journal != nil {
		_, jerr := r.deps.Journal.RecordDelivery(ctx, ledger.Delivery{
			RunID:       r.report.RunID,
			Day:         r.report.Day,
			OrderNumber: r.report.OrderNumber,
			Channel:     channel,
			Target:      target,
			Success:     res.Success,
			Detail:      res.Detail,
		})
		if jerr != nil {
			r.logger.Warn("Ledger write failed", zap.Error(jerr))
		}
	}
	if r.deps.Tracer != nil {
		r.deps.Tracer.Log("delivery", res)
	}
}
