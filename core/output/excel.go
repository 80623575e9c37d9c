// Package output - Excel quotation export
package output

import (
	"bytes"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// QuoteSheet is the sheet name of an exported quotation
const QuoteSheet = "Cotizacion"

const amountFormat = "#,##0.00"

// ExportExcel writes a quotation to an xlsx workbook and returns its bytes.
// Amounts are stored as numbers; undefined prices are left blank.
func ExportExcel(r *QuoteReport) ([]byte, error) {
	q := r.Quotation
	req := q.Request

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), QuoteSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	sh := QuoteSheet

	columns := []string{"A", "B", "C", "D", "E", "F"}
	lastCol := columns[len(columns)-1]
	widths := []float64{30, 12, 12, 18, 16, 18}
	for i, col := range columns {
		if err := f.SetColWidth(sh, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 16},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}
	labelStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	})
	if err != nil {
		return nil, fmt.Errorf("create label style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	textStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create text style: %w", err)
	}
	amountFmt := amountFormat
	amountStyle, err := f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &amountFmt,
	})
	if err != nil {
		return nil, fmt.Errorf("create amount style: %w", err)
	}
	percentStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
		NumFmt: 10, // 0.00%
	})
	if err != nil {
		return nil, fmt.Errorf("create percent style: %w", err)
	}

	// Title
	if err := f.MergeCell(sh, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sh, "A1", fmt.Sprintf("Cotizacion %s - %s", req.Product, req.Modality.Label()))
	f.SetCellStyle(sh, "A1", lastCol+"1", titleStyle)

	// Request details
	details := [][2]interface{}{
		{"Cliente", sanitizeExcelCell(req.ClientName)},
		{"Fecha", q.IssuedAt.Format("2006-01-02")},
		{"ID", q.ID},
		{"Moneda", req.Currency.String()},
		{"Volumen (m3)", req.QuantityM3.InexactFloat64()},
	}
	if req.Modality.IncludesTransport() {
		details = append(details, [2]interface{}{"Distancia (km)", req.DistanceKm.InexactFloat64()})
	}
	if q.PriceList != "" {
		details = append(details, [2]interface{}{"Lista de precios", sanitizeExcelCell(q.PriceList)})
	}

	row := 3
	for _, d := range details {
		rs := fmt.Sprint(row)
		f.SetCellValue(sh, "A"+rs, d[0])
		f.SetCellStyle(sh, "A"+rs, "A"+rs, labelStyle)
		f.SetCellValue(sh, "B"+rs, d[1])
		row++
	}
	row++

	if r.ShowCosts {
		rs := fmt.Sprint(row)
		f.SetCellValue(sh, "A"+rs, "Concepto")
		f.SetCellValue(sh, "B"+rs, "Total")
		f.SetCellStyle(sh, "A"+rs, "B"+rs, headerStyle)
		row++
		for _, c := range costRows(q.Costs) {
			rs := fmt.Sprint(row)
			f.SetCellValue(sh, "A"+rs, c.Label)
			f.SetCellStyle(sh, "A"+rs, "A"+rs, textStyle)
			f.SetCellValue(sh, "B"+rs, c.Amount.InexactFloat64())
			f.SetCellStyle(sh, "B"+rs, "B"+rs, amountStyle)
			row++
		}
		row++
	}

	headerRow := fmt.Sprint(row)
	headers := []string{"Alternativa", "Margen", "Descuento", "Precio sin IGV", "IGV", "Precio con IGV"}
	for i, h := range headers {
		f.SetCellValue(sh, columns[i]+headerRow, h)
	}
	f.SetCellStyle(sh, "A"+headerRow, lastCol+headerRow, headerStyle)
	row++

	for _, alt := range q.Alternatives {
		rs := fmt.Sprint(row)
		f.SetCellValue(sh, "A"+rs, alt.Label)
		f.SetCellStyle(sh, "A"+rs, "A"+rs, textStyle)
		f.SetCellValue(sh, "B"+rs, alt.MarginRate.InexactFloat64())
		f.SetCellValue(sh, "C"+rs, alt.DiscountRate.InexactFloat64())
		f.SetCellStyle(sh, "B"+rs, "C"+rs, percentStyle)
		setNullAmount(f, sh, "D"+rs, alt.PriceExclTax)
		setNullAmount(f, sh, "E"+rs, alt.TaxAmount)
		setNullAmount(f, sh, "F"+rs, alt.PriceInclTax)
		f.SetCellStyle(sh, "D"+rs, "F"+rs, amountStyle)
		row++
	}

	if q.NeedsApproval() {
		row++
		f.SetCellValue(sh, fmt.Sprintf("A%d", row), "El descuento solicitado requiere aprobacion del administrador")
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteExcel exports a quotation to a file
func WriteExcel(path string, r *QuoteReport) error {
	data, err := ExportExcel(r)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func setNullAmount(f *excelize.File, sheet, cell string, d decimal.NullDecimal) {
	if d.Valid {
		f.SetCellValue(sheet, cell, d.Decimal.Round(2).InexactFloat64())
	}
}

// sanitizeExcelCell prefixes values that a spreadsheet would evaluate as a formula
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
