package invoice

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"orderbot/internal/config"
	"orderbot/internal/order"
)

func TestCounterSequenceAndDailyReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "invoice_count.json")
	c := NewCounter(path)

	day1 := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	first, err := c.Next(day1)
	require.NoError(t, err)
	second, err := c.Next(day1.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "20240309-001", first)
	assert.Equal(t, "20240309-002", second)

	next, err := c.Next(day1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "20240310-001", next)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"last_number":1,"date":"2024-03-10"}`, string(data))
}

func TestCounterRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice_count.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	n, err := NewCounter(path).Next(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "20240102-001", n)
}

func TestGenerateWritesWorkbook(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(config.InvoiceConfig{
		OutputDir:   filepath.Join(dir, "out"),
		CounterFile: filepath.Join(dir, "invoice_count.json"),
		Notes:       "Comprobante válido.",
	}, config.BusinessConfig{Name: "Samir's Burgers", TaxID: "900-1", Phone: "3001234567"}, nil)
	g.now = func() time.Time { return time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC) }

	inv, err := g.Generate(order.Customer{
		Name:    "Ana Pérez",
		Phone:   "3001112233",
		Address: "Cra 1 # 2-3",
		Payment: order.PaymentCash,
	}, "2 Classic Burger - $12000\nDomicilio - $2000")
	require.NoError(t, err)

	assert.Equal(t, "20240501-001", inv.Number)
	assert.Equal(t, "Factura_20240501-001_Ana_Pérez.xlsx", filepath.Base(inv.Path))
	assert.Equal(t, 12000.0, inv.Subtotal)
	assert.Equal(t, 2000.0, inv.Delivery)
	assert.Equal(t, 14000.0, inv.Total)

	f, err := excelize.OpenFile(inv.Path)
	require.NoError(t, err)
	defer f.Close()

	get := func(axis string) string {
		v, err := f.GetCellValue(sheetName, axis, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "FACTURA DE VENTA", get("D1"))
	assert.Equal(t, "No. 20240501-001", get("D2"))
	assert.Equal(t, "01/05/2024 18:30", get("E3"))
	assert.Equal(t, "NIT: 900-1", get("B2"))
	assert.Equal(t, "DATOS DEL CLIENTE", get("A8"))
	assert.Equal(t, "Ana Pérez", get("B9"))
	assert.Equal(t, string(order.PaymentCash), get("B12"))
	assert.Equal(t, "DETALLE DEL PEDIDO", get("A14"))
	assert.Equal(t, "Descripción", get("B15"))
	assert.Equal(t, "Classic Burger", get("B16"))
	assert.Equal(t, "6000", get("D16"))
	assert.Equal(t, "Domicilio", get("B17"))
	assert.Equal(t, "TOTAL A PAGAR:", get("D21"))
	assert.Equal(t, "14000", get("E21"))
}

func TestGenerateNumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(config.InvoiceConfig{OutputDir: dir, CounterFile: filepath.Join(dir, "c.json")}, config.BusinessConfig{}, nil)
	g.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }

	a, err := g.Generate(order.Customer{Name: "A"}, "nada")
	require.NoError(t, err)
	b, err := g.Generate(order.Customer{Name: "B"}, "nada")
	require.NoError(t, err)

	assert.Equal(t, "20240501-001", a.Number)
	assert.Equal(t, "20240501-002", b.Number)
	require.Len(t, a.Items, 1)
	assert.Equal(t, 0.0, a.Total)
}
