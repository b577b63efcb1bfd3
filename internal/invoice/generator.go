// Package invoice renders sale invoices as xlsx workbooks.
package invoice

import (
	"fmt"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"orderbot/internal/config"
	"orderbot/internal/order"
	"orderbot/internal/orderparse"
)

const (
	sheetName    = "Factura"
	brandColor   = "FF8C00"
	moneyFormat  = `"$"#,##0`
	customerRow  = 8
	separatorRow = 7
)

// Invoice describes a generated workbook.
type Invoice struct {
	Number   string                `json:"number"`
	Path     string                `json:"path"`
	Items    []orderparse.LineItem `json:"items"`
	Subtotal float64               `json:"subtotal"`
	Delivery float64               `json:"delivery"`
	Total    float64               `json:"total"`
}

// Generator writes invoices into an output directory.
type Generator struct {
	cfg      config.InvoiceConfig
	business config.BusinessConfig
	counter  *Counter
	logger   *zap.Logger
	now      func() time.Time
}

func NewGenerator(cfg config.InvoiceConfig, business config.BusinessConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		cfg:      cfg,
		business: business,
		counter:  NewCounter(cfg.CounterFile),
		logger:   logger,
		now:      time.Now,
	}
}

// Generate parses the order summary and writes
// Factura_<number>_<Customer_Name>.xlsx.
func (g *Generator) Generate(customer order.Customer, summary string) (Invoice, error) {
	now := g.now()
	number, err := g.counter.Next(now)
	if err != nil {
		return Invoice{}, fmt.Errorf("invoice number: %w", err)
	}

	items := orderparse.Parse(summary)
	subtotal, delivery, total := orderparse.Totals(items)
	inv := Invoice{Number: number, Items: items, Subtotal: subtotal, Delivery: delivery, Total: total}

	f := excelize.NewFile()
	defer f.Close()

	w, err := newSheetWriter(f)
	if err != nil {
		return Invoice{}, err
	}
	g.writeHeader(w, number, now)
	row := writeCustomer(w, customer)
	g.writeItems(w, row, inv)
	if w.err != nil {
		return Invoice{}, fmt.Errorf("render invoice: %w", w.err)
	}

	dir := g.cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Invoice{}, fmt.Errorf("create invoice dir: %w", err)
	}
	path, err := filepath.Abs(filepath.Join(dir, fmt.Sprintf("Factura_%s_%s.xlsx", number, customer.FileSafeName())))
	if err != nil {
		return Invoice{}, err
	}
	if err := f.SaveAs(path); err != nil {
		return Invoice{}, fmt.Errorf("save invoice: %w", err)
	}
	inv.Path = path

	g.logger.Info("Invoice generated",
		zap.String("number", number),
		zap.String("path", path),
		zap.Float64("total", total))
	return inv, nil
}

func (g *Generator) writeHeader(w *sheetWriter, number string, now time.Time) {
	for col, width := range map[string]float64{"A": 5, "B": 40, "C": 12, "D": 15, "E": 15} {
		w.width(col, width)
	}

	if g.business.LogoPath == "" || w.f.AddPicture(sheetName, "A1", g.business.LogoPath,
		&excelize.GraphicOptions{AutoFit: true, LockAspectRatio: true}) != nil {
		w.set("A1", g.business.Name, w.styles.title)
	}

	w.set("B1", g.business.Name, w.styles.title)
	w.set("B2", "NIT: "+g.business.TaxID, w.styles.normal)
	w.set("B3", g.business.Address, w.styles.normal)
	w.set("B4", "Tel: "+g.business.Phone, w.styles.normal)
	w.set("B5", "Email: "+g.business.Email, w.styles.normal)

	w.set("D1", "FACTURA DE VENTA", w.styles.titleCentered)
	w.merge("D1", "E1")
	w.set("D2", "No. "+number, w.styles.subtitleCentered)
	w.merge("D2", "E2")
	w.set("D3", "Fecha de Emisión:", w.styles.normalRight)
	w.set("E3", now.Format("02/01/2006 15:04"), w.styles.normal)

	for col := 1; col <= 5; col++ {
		w.style(cell(col, separatorRow), w.styles.band)
	}
}

func writeCustomer(w *sheetWriter, c order.Customer) int {
	row := customerRow
	w.set(cell(1, row), "DATOS DEL CLIENTE", w.styles.subtitle)
	w.merge(cell(1, row), cell(5, row))

	for _, field := range []struct{ label, value string }{
		{"Nombre:", c.Name},
		{"Teléfono:", c.Phone},
		{"Dirección:", c.Address},
		{"Pago:", string(c.Payment)},
	} {
		row++
		w.set(cell(1, row), field.label, w.styles.header)
		w.set(cell(2, row), field.value, w.styles.normal)
		w.merge(cell(2, row), cell(5, row))
	}
	return row + 2
}

func (g *Generator) writeItems(w *sheetWriter, row int, inv Invoice) {
	w.set(cell(1, row), "DETALLE DEL PEDIDO", w.styles.subtitle)
	w.merge(cell(1, row), cell(5, row))

	row++
	for i, h := range []string{"#", "Descripción", "Cantidad", "Precio Unit.", "Total"} {
		w.set(cell(i+1, row), h, w.styles.tableHeader)
	}

	for i, item := range inv.Items {
		row++
		w.set(cell(1, row), i+1, w.styles.cellCentered)
		w.set(cell(2, row), item.Description, w.styles.cell)
		w.set(cell(3, row), item.Quantity, w.styles.cellCentered)
		w.set(cell(4, row), item.UnitPrice, w.styles.cellMoney)
		w.set(cell(5, row), item.LineTotal, w.styles.cellMoney)
	}

	row += 2
	w.set(cell(4, row), "Subtotal:", w.styles.labelRight)
	w.set(cell(5, row), inv.Subtotal, w.styles.money)
	row++
	w.set(cell(4, row), "Domicilio:", w.styles.labelRight)
	w.set(cell(5, row), inv.Delivery, w.styles.money)
	row++
	w.set(cell(4, row), "TOTAL A PAGAR:", w.styles.labelRight)
	w.set(cell(5, row), inv.Total, w.styles.moneyStrong)

	row += 3
	w.set(cell(1, row), "NOTAS:", w.styles.subtitle)
	w.merge(cell(1, row), cell(5, row))
	notes := []string{}
	if g.cfg.Notes != "" {
		notes = append(notes, g.cfg.Notes)
	}
	notes = append(notes, "Cualquier inconveniente con su pedido, contáctenos al "+g.business.Phone)
	for _, note := range notes {
		row++
		w.set(cell(1, row), "• "+note, w.styles.normal)
		w.merge(cell(1, row), cell(5, row))
	}

	row += 2
	w.set(cell(1, row), "¡GRACIAS POR SU COMPRA!", w.styles.subtitleCentered)
	w.merge(cell(1, row), cell(5, row))
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
