package mail

import "html/template"

type orderView struct {
	Business string
	Number   int
	Lines    []string
	Name     string
	Phone    string
	Address  string
	Payment  string
}

type invoiceView struct {
	Business string
	Summary  string
	Phone    string
	Address  string
}

var orderTemplate = template.Must(template.New("order").Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <hr>
    <h2 style="text-align: center;">🍔 PEDIDO FINAL - {{.Business}} 🍔</h2>
    <h3 style="text-align: center;">Pedido #{{.Number}}</h3>
    <hr>
    <h3>👨‍🍳 Pedido:</h3>
    <ul>{{range .Lines}}<li>{{.}}</li>{{end}}</ul>
    <hr>
    <h3>📞 Información del Cliente:</h3>
    <ul>
      <li><strong>Nombre:</strong> {{.Name}}</li>
      <li><strong>Teléfono:</strong> {{.Phone}}</li>
      <li><strong>Dirección de entrega:</strong> {{.Address}}</li>
      <li><strong>Método de pago:</strong> {{.Payment}}</li>
    </ul>
    <hr>
    <h3>📝 Notas para el Coordinador:</h3>
    <p>Verificar la exactitud del pedido y confirmar la preparación.</p>
    <h3>🚗 Notas para el Domiciliario:</h3>
    <p>Entregar el pedido a la dirección indicada y contactar al cliente al llegar.</p>
    <h3>💰 Notas para el Contable:</h3>
    <p>Registrar el total a pagar y facturar el pedido.</p>
    <hr>
    <p style="text-align: center;">¡Gracias por tu preferencia! 🎉</p>
  </body>
</html>
`))

var invoiceTemplate = template.Must(template.New("invoice").Parse(`<html>
  <body style="font-family: Arial, sans-serif;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px;">
      <div style="text-align: center; margin-bottom: 20px;">
        <h1 style="color: #FF8C00;">🧾 Factura - {{.Business}}</h1>
      </div>
      <p>Estimado cliente,</p>
      <p>Adjunto encontrará la <strong>factura electrónica</strong> correspondiente a su pedido en {{.Business}}.</p>
      <div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 15px 0;">
        <h3 style="margin-top: 0; color: #FF8C00;">Resumen del Pedido:</h3>
        <p style="white-space: pre-line;">{{.Summary}}</p>
      </div>
      <p>La factura adjunta es un documento válido para efectos fiscales y garantías de servicio.</p>
      <p>Si tiene alguna pregunta o inquietud, no dude en contactarnos al {{.Phone}}.</p>
      <div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #ddd; text-align: center; color: #777;">
        <p>¡Gracias por su preferencia!</p>
        <p>{{.Business}}</p>
        <p>{{.Address}}</p>
      </div>
    </div>
  </body>
</html>
`))
