package delivery

import (
	"fmt"
	"strings"
	"time"

	"orderbot/internal/config"
	"orderbot/internal/order"
)

// OrderMessage is the customer confirmation sent over WhatsApp and the
// direct link.
func OrderMessage(business config.BusinessConfig, c order.Customer, summary string) string {
	return fmt.Sprintf("🍔 *%s - CONFIRMACIÓN DE PEDIDO* 🍔\n\n"+
		"Hola *%s*, ¡gracias por tu pedido!\n\n"+
		"*📝 RESUMEN DE TU PEDIDO:*\n%s\n\n"+
		"*📍 DIRECCIÓN DE ENTREGA:*\n%s\n\n"+
		"*💰 MÉTODO DE PAGO:*\n%s\n\n"+
		"Tu pedido está siendo preparado con todo el amor de %s. "+
		"Si tienes alguna duda, responde a este mensaje.\n\n"+
		"¡Buen provecho! 🍔✨",
		strings.ToUpper(business.Name), c.Name, summary, c.Address, c.Payment, business.Name)
}

// InvoiceMessage precedes the invoice document in the chat.
func InvoiceMessage(business config.BusinessConfig, c order.Customer) string {
	return fmt.Sprintf("🧾 *FACTURA %s* 🧾\n\n"+
		"Hola *%s*, a continuación te enviamos la factura de tu pedido.\n\n"+
		"Si tienes alguna duda sobre tu factura, contáctanos al %s.\n\n"+
		"¡Gracias por tu compra!",
		strings.ToUpper(business.Name), c.Name, business.Phone)
}

// InvoiceCaption labels the invoice document.
func InvoiceCaption(business config.BusinessConfig, now time.Time) string {
	return fmt.Sprintf("Factura %s - %s", business.Name, now.Format("02/01/2006"))
}
