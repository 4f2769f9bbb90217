package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// GenerateRegisterPDF creates the agency invoice register as a PDF using
// maroto/v2. It returns the raw PDF bytes or an error.
func GenerateRegisterPDF(data RegisterData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addRegisterHeader(m, data)
	addRegisterTableHeader(m)
	for i, r := range data.Rows {
		addRegisterRow(m, r, data.CurrencySymbol, i%2 == 1)
	}
	addRegisterSummary(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return doc.GetBytes(), nil
}

// addRegisterHeader adds the title, agency and date to the PDF.
func addRegisterHeader(m core.Maroto, data RegisterData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Agency: %s", data.AgencyName), props.Text{
					Size:  9,
					Align: align.Left,
					Color: grey,
				}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Date: %s", data.CreatedDate), props.Text{
					Size:  9,
					Align: align.Right,
					Color: grey,
				}),
			),
		),
	)

	m.AddRows(row.New(4))
}

// registerColumnSizes is the 12-unit grid split shared by header and rows.
var registerColumnSizes = []int{3, 3, 2, 1, 1, 2}

// addRegisterTableHeader adds the column header row.
func addRegisterTableHeader(m core.Maroto) {
	headerCell := props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}

	titles := []string{"Invoice #", "Worker", "Date", "Status", "Tax", "Total"}
	cols := make([]core.Col, len(titles))
	for i, t := range titles {
		cols[i] = col.New(registerColumnSizes[i]).Add(text.New(t, headerText)).WithStyle(&headerCell)
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addRegisterRow adds one invoice, shading every other row.
func addRegisterRow(m core.Maroto, r RegisterRow, symbol string, shaded bool) {
	base := props.Text{Size: 7, Align: align.Left}
	right := base
	right.Align = align.Right
	center := base
	center.Align = align.Center

	cells := []core.Col{
		col.New(registerColumnSizes[0]).Add(text.New(r.InvoiceNumber, base)),
		col.New(registerColumnSizes[1]).Add(text.New(r.WorkerName, base)),
		col.New(registerColumnSizes[2]).Add(text.New(r.CreatedDate, center)),
		col.New(registerColumnSizes[3]).Add(text.New(string(r.Status), center)),
		col.New(registerColumnSizes[4]).Add(text.New(FormatMoney(r.TaxCents, symbol), right)),
		col.New(registerColumnSizes[5]).Add(text.New(FormatMoney(r.TotalCents, symbol), right)),
	}
	if shaded {
		style := &props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}}
		for i := range cells {
			cells[i] = cells[i].WithStyle(style)
		}
	}
	m.AddRows(row.New(7).Add(cells...))
}

// addRegisterSummary adds billed, paid and outstanding totals.
func addRegisterSummary(m core.Maroto, data RegisterData) {
	m.AddRows(row.New(6))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	style := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}

	lines := []struct {
		label string
		value int64
	}{
		{"Total Billed", data.TotalBilled},
		{"Paid", data.TotalPaid},
		{"Outstanding", data.TotalOpen},
	}
	for _, l := range lines {
		m.AddRows(
			row.New(8).Add(
				col.New(8).Add(text.New(l.label, style)).WithStyle(summaryCell),
				col.New(4).Add(text.New(FormatMoney(l.value, data.CurrencySymbol), style)).WithStyle(summaryCell),
			),
		)
	}
}
