package invoice

import "github.com/xuri/excelize/v2"

type sheetStyles struct {
	title, titleCentered       int
	subtitle, subtitleCentered int
	normal, normalRight        int
	header, tableHeader        int
	band                       int
	cell, cellCentered         int
	cellMoney                  int
	labelRight                 int
	money, moneyStrong         int
}

// sheetWriter wraps the workbook calls and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	styles sheetStyles
	err    error
}

func newSheetWriter(f *excelize.File) (*sheetWriter, error) {
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f}

	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	fill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{brandColor}}
	font := func(size float64, bold bool, color string) *excelize.Font {
		return &excelize.Font{Family: "Arial", Size: size, Bold: bold, Color: color}
	}
	align := func(h string) *excelize.Alignment { return &excelize.Alignment{Horizontal: h} }
	numFmt := moneyFormat

	w.styles = sheetStyles{
		title:            w.newStyle(&excelize.Style{Font: font(16, true, "")}),
		titleCentered:    w.newStyle(&excelize.Style{Font: font(16, true, ""), Alignment: align("center")}),
		subtitle:         w.newStyle(&excelize.Style{Font: font(12, true, "")}),
		subtitleCentered: w.newStyle(&excelize.Style{Font: font(12, true, ""), Alignment: align("center")}),
		normal:           w.newStyle(&excelize.Style{Font: font(11, false, "")}),
		normalRight:      w.newStyle(&excelize.Style{Font: font(11, false, ""), Alignment: align("right")}),
		header:           w.newStyle(&excelize.Style{Font: font(11, true, "FFFFFF"), Fill: fill}),
		tableHeader:      w.newStyle(&excelize.Style{Font: font(11, true, "FFFFFF"), Fill: fill, Alignment: align("center"), Border: thin}),
		band:             w.newStyle(&excelize.Style{Fill: fill}),
		cell:             w.newStyle(&excelize.Style{Border: thin}),
		cellCentered:     w.newStyle(&excelize.Style{Border: thin, Alignment: align("center")}),
		cellMoney:        w.newStyle(&excelize.Style{Border: thin, Alignment: align("right"), CustomNumFmt: &numFmt}),
		labelRight:       w.newStyle(&excelize.Style{Font: font(11, true, ""), Alignment: align("right")}),
		money:            w.newStyle(&excelize.Style{Font: font(11, false, ""), Alignment: align("right"), CustomNumFmt: &numFmt}),
		moneyStrong:      w.newStyle(&excelize.Style{Font: font(12, true, ""), Alignment: align("right"), CustomNumFmt: &numFmt}),
	}
	if w.err != nil {
		return nil, w.err
	}
	return w, nil
}

func (w *sheetWriter) newStyle(s *excelize.Style) int {
	if w.err != nil {
		return 0
	}
	id, err := w.f.NewStyle(s)
	w.err = err
	return id
}

func (w *sheetWriter) set(axis string, value any, style int) {
	if w.err != nil {
		return
	}
	if w.err = w.f.SetCellValue(sheetName, axis, value); w.err != nil {
		return
	}
	w.style(axis, style)
}

func (w *sheetWriter) style(axis string, style int) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetCellStyle(sheetName, axis, axis, style)
}

func (w *sheetWriter) merge(from, to string) {
	if w.err != nil {
		return
	}
	w.err = w.f.MergeCell(sheetName, from, to)
}

func (w *sheetWriter) width(col string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(sheetName, col, col, width)
}
