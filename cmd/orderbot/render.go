package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"orderbot/internal/delivery"
	"orderbot/internal/orderparse"
)

var (
	brand       = lipgloss.Color("#FF8C00")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(brand).
			Border(lipgloss.RoundedBorder()).BorderForeground(brand).Padding(0, 1)
	botStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	totalStyle = lipgloss.NewStyle().Bold(true)
)

// renderMarkdown renders md for the terminal and falls back to the raw text.
func renderMarkdown(md string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// summaryMarkdown lays out the confirmed order for review.
func summaryMarkdown(summary string) string {
	var b strings.Builder
	b.WriteString("## 📝 RESUMEN DE TU PEDIDO\n\n")
	for _, line := range strings.Split(summary, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") {
			line = "- " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func formatMoney(v float64) string {
	s := fmt.Sprintf("%.0f", v)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, s[i])
	}
	return "$" + string(out)
}

// renderTotals prints the subtotal, delivery fee and total parsed from items.
func renderTotals(items []orderparse.LineItem) string {
	subtotal, fee, total := orderparse.Totals(items)
	lines := []string{
		fmt.Sprintf("Subtotal:  %s", formatMoney(subtotal)),
		fmt.Sprintf("%s: %s", orderparse.DeliveryLabel, formatMoney(fee)),
		totalStyle.Render(fmt.Sprintf("TOTAL:     %s", formatMoney(total))),
	}
	return strings.Join(lines, "\n")
}

// renderReport prints one line per delivery channel.
func renderReport(r delivery.Report) string {
	var b strings.Builder
	if r.OrderNumber > 0 {
		fmt.Fprintf(&b, "Pedido #%d\n", r.OrderNumber)
	}
	for _, res := range r.Results {
		line := res.Channel
		if res.Target != "" {
			line += " → " + res.Target
		}
		if res.Success {
			b.WriteString(okStyle.Render("✅ "+line) + "\n")
		} else {
			detail := line
			if res.Detail != "" {
				detail += ": " + res.Detail
			}
			b.WriteString(failStyle.Render("❌ "+detail) + "\n")
		}
	}
	if r.InvoicePath != "" {
		b.WriteString(mutedStyle.Render("Factura: "+r.InvoicePath) + "\n")
	}
	if r.Link != "" {
		b.WriteString(mutedStyle.Render("Enlace: "+r.Link) + "\n")
	}
	if r.QRPath != "" {
		b.WriteString(mutedStyle.Render("QR: "+r.QRPath) + "\n")
	}
	if !r.Any() && len(r.Results) > 0 {
		b.WriteString(warnStyle.Render("⚠️ Ningún canal de envío tuvo éxito.") + "\n")
	}
	return b.String()
}
