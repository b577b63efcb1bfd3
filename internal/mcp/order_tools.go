package mcp

import (
	"context"
	"fmt"
	"time"

	"orderbot/internal/directlink"
	"orderbot/internal/order"
	"orderbot/internal/orderparse"
)

type ParseOrderTool struct{}

func (t *ParseOrderTool) Name() string { return "parse-order" }
func (t *ParseOrderTool) Description() string {
	return `Parse an order summary into line items and totals.

Recognized lines: "2 Hamburguesa - $12000", "Hamburguesa (x2) - $12000" and
"Domicilio - $2000". Delivery lines are totalled separately.

Returns: {items, subtotal, delivery, total}.`
}
func (t *ParseOrderTool) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"summary": stringSchema("Order summary text, one item per line"),
	}, "summary")
}
func (t *ParseOrderTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	items := orderparse.Parse(getStringArg(args, "summary"))
	subtotal, delivery, total := orderparse.Totals(items)
	return map[string]interface{}{
		"items":    items,
		"subtotal": subtotal,
		"delivery": delivery,
		"total":    total,
	}, nil
}

type GenerateInvoiceTool struct {
	invoices Invoicer
}

func (t *GenerateInvoiceTool) Name() string { return "generate-invoice" }
func (t *GenerateInvoiceTool) Description() string {
	return `Generate the xlsx sale invoice for an order.

Invoice numbers are sequential per day (YYYYMMDD-NNN).

Returns: {number, path, items, subtotal, delivery, total}.`
}
func (t *GenerateInvoiceTool) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"name":    stringSchema("Customer name"),
		"phone":   stringSchema("Customer phone"),
		"address": stringSchema("Delivery address"),
		"payment": stringSchema("Payment method: 1 cash, 2 transfer, 3 card, or free text"),
		"summary": stringSchema("Order summary text"),
	}, "name", "summary")
}
func (t *GenerateInvoiceTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	if err := requireArgs(args, "name", "summary"); err != nil {
		return nil, err
	}
	payment := order.PaymentMethod(getStringArg(args, "payment"))
	if p, ok := order.PaymentByChoice(string(payment)); ok {
		payment = p
	}
	inv, err := t.invoices.Generate(order.Customer{
		Name:    getStringArg(args, "name"),
		Phone:   getStringArg(args, "phone"),
		Address: getStringArg(args, "address"),
		Payment: payment,
	}, getStringArg(args, "summary"))
	if err != nil {
		return nil, err
	}
	return inv, nil
}

type DirectLinkTool struct {
	countryCode string
	qrDir       string
}

func (t *DirectLinkTool) Name() string { return "direct-link" }
func (t *DirectLinkTool) Description() string {
	return `Build a wa.me click-to-chat link with a prefilled message, optionally rendering it as a QR PNG.

Use when the browser session is unavailable: the recipient opens the link and presses send.

Returns: {link, qr_path?}.`
}
func (t *DirectLinkTool) InputSchema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"phone":   stringSchema("Recipient phone number"),
		"message": stringSchema("Prefilled message"),
		"qr": map[string]interface{}{
			"type":        "boolean",
			"description": "Also write a QR code image (default false)",
		},
	}, "phone")
}
func (t *DirectLinkTool) Execute(_ context.Context, args map[string]interface{}) (interface{}, error) {
	link, err := directlink.Link(getStringArg(args, "phone"), getStringArg(args, "message"), t.countryCode)
	if err != nil {
		return nil, fmt.Errorf("build link: %w", err)
	}
	result := map[string]interface{}{"link": link}
	if getBoolArg(args, "qr", false) {
		path, err := directlink.WriteQR(link, t.qrDir, time.Now())
		if err != nil {
			return nil, err
		}
		result["qr_path"] = path
	}
	return result, nil
}
