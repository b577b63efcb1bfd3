// Package order holds the customer data collected during a chat.
package order

import "strings"

// PaymentMethod is how the customer pays on delivery.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Efectivo"
	PaymentTransfer PaymentMethod = "Transferencia/Nequi"
	PaymentCard     PaymentMethod = "Tarjeta (al recibir)"
)

// PaymentMethods lists the menu in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentTransfer, PaymentCard}

// PaymentByChoice maps a 1-based menu choice.
func PaymentByChoice(choice string) (PaymentMethod, bool) {
	switch strings.TrimSpace(choice) {
	case "1":
		return PaymentCash, true
	case "2":
		return PaymentTransfer, true
	case "3":
		return PaymentCard, true
	}
	return "", false
}

// Customer is the delivery contact for an order.
type Customer struct {
	Name    string        `json:"name"`
	Phone   string        `json:"phone"`
	Address string        `json:"address"`
	Payment PaymentMethod `json:"payment"`
}

// FileSafeName replaces spaces so the name can be embedded in a file name.
func (c Customer) FileSafeName() string {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "cliente"
	}
	return strings.ReplaceAll(name, " ", "_")
}
