// Package orderparse turns the free-text order summary produced by the
// assistant into structured line items.
package orderparse

import (
	"regexp"
	"strconv"
	"strings"
)

// DeliveryLabel is the description given to delivery-fee lines.
const DeliveryLabel = "Domicilio"

// PlaceholderLabel describes the single item emitted when no line matched.
const PlaceholderLabel = "Pedido completo (ver detalle en resumen)"

var (
	// "2 Hamburguesa Clásica - $24000"
	quantityPrefixed = regexp.MustCompile(`(\d+)\s+(.+?)\s*-\s*\$?(\d+(?:,\d+)?)`)
	// "Hamburguesa Clásica (x2) - $24000"
	multiplierSuffix = regexp.MustCompile(`(.+?)\s*\(x(\d+)\)\s*-\s*\$?(\d+(?:,\d+)?)`)
	// "Domicilio - $2000"
	barePrice = regexp.MustCompile(`(.+?)\s*-\s*\$?(\d+(?:,\d+)?)`)

	deliveryKeywords = []string{"domicilio", "envío", "delivery"}
)

// LineItem is one parsed order line. Amounts are in whole pesos but kept as
// float64 because unit prices are derived by division.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	IsDelivery  bool    `json:"is_delivery,omitempty"`
}

// Parse applies the three patterns top to bottom on every non-empty line.
// It always returns at least one item.
func Parse(summary string) []LineItem {
	var items []LineItem
	for _, line := range strings.Split(strings.TrimSpace(summary), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if item, ok := parseLine(line); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		items = append(items, LineItem{Description: PlaceholderLabel, Quantity: 1})
	}
	return items
}

func parseLine(line string) (LineItem, bool) {
	if m := quantityPrefixed.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[1])
		return itemFor(strings.TrimSpace(m[2]), qty, parseAmount(m[3])), qty > 0
	}
	if m := multiplierSuffix.FindStringSubmatch(line); m != nil {
		qty, _ := strconv.Atoi(m[2])
		return itemFor(strings.TrimSpace(m[1]), qty, parseAmount(m[3])), qty > 0
	}
	if m := barePrice.FindStringSubmatch(line); m != nil {
		desc := strings.TrimSpace(m[1])
		price := parseAmount(m[2])
		if isDeliveryText(desc) {
			return LineItem{Description: DeliveryLabel, Quantity: 1, UnitPrice: price, LineTotal: price, IsDelivery: true}, true
		}
		return LineItem{Description: desc, Quantity: 1, UnitPrice: price, LineTotal: price}, true
	}
	return LineItem{}, false
}

func itemFor(desc string, qty int, total float64) LineItem {
	item := LineItem{Description: desc, Quantity: qty, LineTotal: total}
	if qty > 0 {
		item.UnitPrice = total / float64(qty)
	}
	return item
}

// parseAmount drops thousands separators: "12,000" is 12000.
func parseAmount(raw string) float64 {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	return v
}

func isDeliveryText(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range deliveryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Totals splits the order into product subtotal and delivery fee.
func Totals(items []LineItem) (subtotal, delivery, total float64) {
	for _, it := range items {
		if it.IsDelivery || isDeliveryText(it.Description) {
			delivery += it.LineTotal
			continue
		}
		subtotal += it.LineTotal
	}
	return subtotal, delivery, subtotal + delivery
}
