package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const registerSheet = "Invoices"

// registerColumn is one column of the register sheet.
type registerColumn struct {
	header string
	width  float64
	value  func(r RegisterRow, symbol string) string
}

var registerColumns = []registerColumn{
	{"Invoice #", 22, func(r RegisterRow, _ string) string { return sanitizeExcelCell(r.InvoiceNumber) }},
	{"Worker", 28, func(r RegisterRow, _ string) string { return sanitizeExcelCell(r.WorkerName) }},
	{"Date", 12, func(r RegisterRow, _ string) string { return r.CreatedDate }},
	{"Status", 12, func(r RegisterRow, _ string) string { return string(r.Status) }},
	{"Subtotal", 16, func(r RegisterRow, s string) string { return FormatMoney(r.SubtotalCents, s) }},
	{"Tax", 14, func(r RegisterRow, s string) string { return FormatMoney(r.TaxCents, s) }},
	{"Total", 16, func(r RegisterRow, s string) string { return FormatMoney(r.TotalCents, s) }},
}

type registerStyles struct {
	title, subtitle, header, row, summaryLabel, summaryValue int
}

func newRegisterStyles(f *excelize.File) (registerStyles, error) {
	var st registerStyles
	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&st.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&st.subtitle, "subtitle", &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{&st.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&st.row, "row", &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&st.summaryLabel, "summary label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&st.summaryValue, "summary value", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return st, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return st, nil
}

// cellName converts 1-based column and row numbers to an A1 reference.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// GenerateRegisterExcel writes the agency invoice register as an .xlsx
// workbook: a title block, one row per invoice and the billed, paid and
// outstanding sums.
func GenerateRegisterExcel(data RegisterData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), registerSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	styles, err := newRegisterStyles(f)
	if err != nil {
		return nil, err
	}

	lastCol := len(registerColumns)
	for i, c := range registerColumns {
		col := cellName(i+1, 1)[:1]
		if err := f.SetColWidth(registerSheet, col, col, c.width); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	// Title block, rows 1-3
	titles := []struct {
		text  string
		style int
	}{
		{sanitizeExcelCell(data.Title), styles.title},
		{"Agency: " + sanitizeExcelCell(data.AgencyName), styles.subtitle},
		{"Date: " + data.CreatedDate, styles.subtitle},
	}
	for i, tl := range titles {
		first, last := cellName(1, i+1), cellName(lastCol, i+1)
		if err := f.MergeCell(registerSheet, first, last); err != nil {
			return nil, fmt.Errorf("merge title row %d: %w", i+1, err)
		}
		f.SetCellValue(registerSheet, first, tl.text)
		f.SetCellStyle(registerSheet, first, last, tl.style)
	}

	// Header on row 5, invoices from row 6
	const headerRow = 5
	for i, c := range registerColumns {
		f.SetCellValue(registerSheet, cellName(i+1, headerRow), c.header)
	}
	f.SetCellStyle(registerSheet, cellName(1, headerRow), cellName(lastCol, headerRow), styles.header)

	row := headerRow + 1
	for _, r := range data.Rows {
		for i, c := range registerColumns {
			f.SetCellValue(registerSheet, cellName(i+1, row), c.value(r, data.CurrencySymbol))
		}
		f.SetCellStyle(registerSheet, cellName(1, row), cellName(lastCol, row), styles.row)
		row++
	}

	row++
	summary := []struct {
		label string
		cents int64
	}{
		{"Total Billed:", data.TotalBilled},
		{"Paid:", data.TotalPaid},
		{"Outstanding:", data.TotalOpen},
	}
	for _, s := range summary {
		label, value := cellName(lastCol-1, row), cellName(lastCol, row)
		f.SetCellValue(registerSheet, label, s.label)
		f.SetCellStyle(registerSheet, label, label, styles.summaryLabel)
		f.SetCellValue(registerSheet, value, FormatMoney(s.cents, data.CurrencySymbol))
		f.SetCellStyle(registerSheet, value, value, styles.summaryValue)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell quotes values that a spreadsheet would otherwise
// evaluate as a formula.
func sanitizeExcelCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	borders := make([]excelize.Border, 0, 4)
	for _, side := range []string{"left", "top", "bottom", "right"} {
		borders = append(borders, excelize.Border{Type: side, Color: "#000000", Style: 1})
	}
	return borders
}
