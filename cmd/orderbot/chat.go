package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orderbot/internal/delivery"
	"orderbot/internal/order"
	"orderbot/internal/orderparse"
)

// errQuit ends the chat without an order.
var errQuit = errors.New("chat ended by user")

type dialogue interface {
	Reply(ctx context.Context, text string) string
	Summarize(ctx context.Context, customer order.Customer) (string, error)
}

type dispatchFunc func(ctx context.Context, opt delivery.Option, customer order.Customer, summary string) (delivery.Report, error)

// chatSession is one ordering dialogue on a line-oriented terminal.
type chatSession struct {
	in       *bufio.Reader
	out      io.Writer
	dialogue dialogue
	dispatch dispatchFunc
	render   func(string) string
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logger.Warn("shutdown", zap.Error(cerr))
		}
	}()

	conv, err := a.Conversation(ctx)
	if err != nil {
		return fmt.Errorf("assistant: %w", err)
	}

	s := &chatSession{
		in:       bufio.NewReader(cmd.InOrStdin()),
		out:      cmd.OutOrStdout(),
		dialogue: conv,
		render:   renderMarkdown,
	}
	s.dispatch = a.Dispatcher(s.confirm).Run

	if err := s.run(ctx); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func (s *chatSession) run(ctx context.Context) error {
	fmt.Fprintln(s.out, headerStyle.Render("🍔 "+cfg.Business.Name))
	fmt.Fprintln(s.out, mutedStyle.Render(`Escribe "confirmar" para cerrar tu pedido o "salir" para terminar.`))
	fmt.Fprintln(s.out, botStyle.Render("Bot: ¡Hola! ¿Qué te gustaría pedir hoy?"))

	if err := s.converse(ctx); err != nil {
		return err
	}

	customer, err := s.collectCustomer()
	if err != nil {
		return err
	}

	summary, err := s.dialogue.Summarize(ctx, customer)
	if err != nil {
		fmt.Fprintln(s.out, failStyle.Render("❌ Error al generar el resumen del pedido."))
		return err
	}
	fmt.Fprintln(s.out, s.render(summaryMarkdown(summary)))
	fmt.Fprintln(s.out, renderTotals(orderparse.Parse(summary)))

	opt, err := s.chooseDelivery()
	if err != nil {
		return err
	}
	if opt == delivery.OptionNone {
		fmt.Fprintln(s.out, mutedStyle.Render("No se envió nada. ¡Gracias por tu pedido!"))
		return nil
	}

	report, err := s.dispatch(ctx, opt, customer, summary)
	fmt.Fprint(s.out, renderReport(report))
	return err
}

// converse relays user turns to the assistant until the order is confirmed.
func (s *chatSession) converse(ctx context.Context) error {
	for {
		line, err := s.prompt("Tú: ")
		if err != nil {
			return err
		}
		switch strings.ToLower(line) {
		case "":
			continue
		case "confirmar":
			return nil
		case "salir", "exit":
			fmt.Fprintln(s.out, mutedStyle.Render("👋 ¡Hasta pronto!"))
			return errQuit
		case "enviar":
			fmt.Fprintln(s.out, warnStyle.Render(`⚠️ Primero escribe "confirmar" para cerrar tu pedido.`))
			continue
		}
		fmt.Fprintln(s.out, botStyle.Render("Bot: "+s.dialogue.Reply(ctx, line)))
	}
}

func (s *chatSession) collectCustomer() (order.Customer, error) {
	var c order.Customer
	var err error
	if c.Address, err = s.prompt("📍 Dirección de entrega: "); err != nil {
		return c, err
	}
	if c.Name, err = s.prompt("👤 Nombre: "); err != nil {
		return c, err
	}
	if c.Phone, err = s.prompt("📱 Teléfono: "); err != nil {
		return c, err
	}

	fmt.Fprintln(s.out, "💳 Método de pago:")
	for i, p := range order.PaymentMethods {
		fmt.Fprintf(s.out, "  %d. %s\n", i+1, p)
	}
	for {
		choice, err := s.prompt("Opción (1-3): ")
		if err != nil {
			return c, err
		}
		if p, ok := order.PaymentByChoice(choice); ok {
			c.Payment = p
			return c, nil
		}
		fmt.Fprintln(s.out, warnStyle.Render("Opción no válida."))
	}
}

func (s *chatSession) chooseDelivery() (delivery.Option, error) {
	fmt.Fprintln(s.out, "📤 ¿Cómo deseas enviar el pedido?")
	for _, line := range delivery.MenuLines {
		fmt.Fprintln(s.out, "  "+line)
	}
	for {
		choice, err := s.prompt("Opción (1-7): ")
		if err != nil {
			return 0, err
		}
		if opt, ok := delivery.ParseOption(choice); ok {
			return opt, nil
		}
		fmt.Fprintln(s.out, warnStyle.Render("Opción no válida."))
	}
}

// confirm answers yes/no questions raised by the dispatcher. EOF means no.
func (s *chatSession) confirm(question string) bool {
	answer, err := s.prompt(question + " (s/n): ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

// prompt reads one trimmed line. A final line without newline is accepted.
func (s *chatSession) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errQuit
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}
