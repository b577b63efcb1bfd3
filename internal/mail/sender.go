// Package mail sends order notifications and invoices to staff over SMTP.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"orderbot/internal/config"
	"orderbot/internal/order"
)

// ErrNotConfigured is returned when SMTP host, sender or recipients are missing.
var ErrNotConfigured = errors.New("mail not configured")

// Sender composes and sends the two staff e-mails.
type Sender struct {
	cfg       config.MailConfig
	business  config.BusinessConfig
	transport Transport
	logger    *zap.Logger
	now       func() time.Time
}

func NewSender(cfg config.MailConfig, business config.BusinessConfig, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		cfg:      cfg,
		business: business,
		transport: &smtpTransport{
			host:     cfg.Host,
			port:     cfg.Port,
			username: cfg.Username,
			password: cfg.Password,
			timeout:  cfg.GetDialTimeout(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// SendOrder mails the kitchen ticket for the day's order number.
func (s *Sender) SendOrder(ctx context.Context, summary string, customer order.Customer, orderNumber int) error {
	if !s.cfg.Enabled() || len(s.cfg.OrderRecipients) == 0 {
		return ErrNotConfigured
	}

	var body bytes.Buffer
	err := orderTemplate.Execute(&body, orderView{
		Business: s.business.Name,
		Number:   orderNumber,
		Lines:    bulletLines(summary),
		Name:     customer.Name,
		Phone:    customer.Phone,
		Address:  customer.Address,
		Payment:  string(customer.Payment),
	})
	if err != nil {
		return fmt.Errorf("render order mail: %w", err)
	}

	var msg bytes.Buffer
	s.writeHeaders(&msg, s.cfg.OrderRecipients,
		fmt.Sprintf("🍔 Pedido Final - %s - Pedido #%d 🍔", s.business.Name, orderNumber))
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
	writeBase64(&msg, body.Bytes())

	if err := s.transport.Send(ctx, s.cfg.From, s.cfg.OrderRecipients, msg.Bytes()); err != nil {
		s.logger.Error("Order mail failed", zap.Int("order", orderNumber), zap.Error(err))
		return fmt.Errorf("send order mail: %w", err)
	}
	s.logger.Info("Order mail sent", zap.Int("order", orderNumber), zap.Strings("to", s.cfg.OrderRecipients))
	return nil
}

// SendInvoice mails the invoice workbook as an attachment.
func (s *Sender) SendInvoice(ctx context.Context, path string, customer order.Customer, summary string) error {
	if !s.cfg.Enabled() || len(s.cfg.InvoiceRecipients) == 0 {
		return ErrNotConfigured
	}
	attachment, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read invoice: %w", err)
	}

	var body bytes.Buffer
	err = invoiceTemplate.Execute(&body, invoiceView{
		Business: s.business.Name,
		Summary:  summary,
		Phone:    s.business.Phone,
		Address:  s.business.Address,
	})
	if err != nil {
		return fmt.Errorf("render invoice mail: %w", err)
	}

	name := filepath.Base(path)
	var msg bytes.Buffer
	s.writeHeaders(&msg, s.cfg.InvoiceRecipients,
		fmt.Sprintf("🧾 Factura - %s - Pedido %s", s.business.Name, invoiceNumberFromFile(name)))

	mw := multipart.NewWriter(&msg)
	fmt.Fprintf(&msg, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	htmlPart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=UTF-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return err
	}
	writeBase64(htmlPart, body.Bytes())

	filePart, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/octet-stream"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
	})
	if err != nil {
		return err
	}
	writeBase64(filePart, attachment)
	if err := mw.Close(); err != nil {
		return err
	}

	if err := s.transport.Send(ctx, s.cfg.From, s.cfg.InvoiceRecipients, msg.Bytes()); err != nil {
		s.logger.Error("Invoice mail failed", zap.String("file", name), zap.Error(err))
		return fmt.Errorf("send invoice mail: %w", err)
	}
	s.logger.Info("Invoice mail sent", zap.String("file", name), zap.Strings("to", s.cfg.InvoiceRecipients))
	return nil
}

func (s *Sender) writeHeaders(buf *bytes.Buffer, to []string, subject string) {
	from := s.cfg.From
	if s.business.Name != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.business.Name), s.cfg.From)
	}
	fmt.Fprintf(buf, "From: %s\r\n", from)
	fmt.Fprintf(buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
}

// bulletLines keeps the non-blank summary lines.
func bulletLines(summary string) []string {
	var lines []string
	for _, line := range strings.Split(summary, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// invoiceNumberFromFile extracts <number> from Factura_<number>_<name>.xlsx.
func invoiceNumberFromFile(name string) string {
	parts := strings.SplitN(strings.TrimSuffix(name, filepath.Ext(name)), "_", 3)
	if len(parts) < 2 {
		return name
	}
	return parts[1]
}

// writeBase64 emits base64 in 76 column lines.
func writeBase64(w io.Writer, data []byte) {
	encoded := base64.StdEncoding.EncodeToString(data)
	for len(encoded) > 76 {
		w.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	w.Write([]byte(encoded + "\r\n"))
}
