package services

import (
	"errors"
	"fmt"
	"strings"
)

// Page geometry in PDF points (A4).
const (
	PageWidth  = 595.28
	PageHeight = 841.89
	PageMargin = 50.0

	LineHeight    = 15.0
	BlockGap      = 20.0
	TitleSize     = 20.0
	BodySize      = 10.0
	FooterSize    = 8.0
	HeaderOffset  = PageMargin + TitleSize + BlockGap
	TableRowSpace = 30.0
	tableRuleAt   = 20.0
	totalsWidth   = 165.0

	itemColumnSize  = 2.0
	totalColumnSize = 1.0

	// MaxBlockExtent is the tallest block that fits on an empty page.
	MaxBlockExtent = PageHeight - 2*PageMargin
	// BlockWidth is the room each side of a text line gets.
	BlockWidth = (PageWidth - 2*PageMargin - BlockGap) / 2
)

// TextMeasurer reports rendered string widths.
type TextMeasurer interface {
	StringWidth(text string, bold bool, size float64) float64
}

// TextRun is one piece of text placed with its left edge at X and its line
// box starting at Y.
type TextRun struct {
	X     float64
	Y     float64
	Width float64
	Text  string
	Bold  bool
	Size  float64
}

// Rule is a horizontal line.
type Rule struct {
	X1, Y1, X2, Y2 float64
}

// Page holds content runs and the footer drawn inside the bottom margin.
type Page struct {
	Runs   []TextRun
	Rules  []Rule
	Footer []TextRun
}

// Layout is the fully positioned document.
type Layout struct {
	Pages []Page
}

// LineItem is one row of the items table.
type LineItem struct {
	Description string
	Worker      WorkerInfo
	AmountCents int64
}

// InvoiceDocument is everything the layout engine needs for one invoice.
type InvoiceDocument struct {
	Template       Template
	Context        InvoiceContext
	Items          []LineItem
	Totals         InvoiceTotals
	CurrencySymbol string
	DueDays        int
}

var errNoRoom = errors.New("content does not fit on an empty page")

type layoutBuilder struct {
	m     TextMeasurer
	pages []Page
	y     float64
}

func (l *layoutBuilder) page() *Page { return &l.pages[len(l.pages)-1] }

func (l *layoutBuilder) newPage() {
	l.pages = append(l.pages, Page{})
	l.y = PageMargin
}

// reserve makes sure extent fits below the cursor, starting a new page if
// needed. Content that cannot fit even on a fresh page is an error.
func (l *layoutBuilder) reserve(extent float64) error {
	bottom := PageHeight - PageMargin
	if l.y+extent <= bottom {
		return nil
	}
	if l.y == PageMargin || PageMargin+extent > bottom {
		return fmt.Errorf("%w: need %.1fpt", errNoRoom, extent)
	}
	l.newPage()
	return nil
}

func (l *layoutBuilder) text(x, y float64, s string, bold bool, size float64) float64 {
	w := l.m.StringWidth(s, bold, size)
	l.page().Runs = append(l.page().Runs, TextRun{X: x, Y: y, Width: w, Text: s, Bold: bold, Size: size})
	return w
}

func (l *layoutBuilder) textRight(right, y float64, s string, bold bool, size float64) {
	w := l.m.StringWidth(s, bold, size)
	l.page().Runs = append(l.page().Runs, TextRun{X: right - w, Y: y, Width: w, Text: s, Bold: bold, Size: size})
}

// clip shortens s with a trailing "..." until it fits in width.
func (l *layoutBuilder) clip(s string, bold bool, size, width float64) string {
	if l.m.StringWidth(s, bold, size) <= width {
		return s
	}
	const ellipsis = "..."
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		c := strings.TrimRight(string(r), " ") + ellipsis
		if l.m.StringWidth(c, bold, size) <= width {
			return c
		}
	}
	return ""
}

func (l *layoutBuilder) rule(y float64) {
	l.page().Rules = append(l.page().Rules, Rule{X1: PageMargin, Y1: y, X2: PageWidth - PageMargin, Y2: y})
}

// LayoutInvoice positions every piece of the invoice. Lines are walked in
// order with a single cursor; a line that would cross the bottom margin is
// moved to a new page first.
func LayoutInvoice(doc InvoiceDocument, m TextMeasurer) (Layout, error) {
	l := &layoutBuilder{m: m}
	l.newPage()

	l.text(PageMargin, PageMargin, "Invoice", true, TitleSize)
	if doc.Context.Agency.Name != "" {
		l.textRight(PageWidth-PageMargin, PageMargin, doc.Context.Agency.Name, true, BodySize)
	}
	l.y = HeaderOffset

	for i, line := range doc.Template.Lines {
		var err error
		switch ln := line.(type) {
		case TextLine:
			err = l.textLine(ln, doc.Context)
		case ItemsLine:
			err = l.itemsTable(doc)
		default:
			err = fmt.Errorf("unknown line type %T", line)
		}
		if err != nil {
			return Layout{}, &RenderError{Err: fmt.Errorf("line %d: %w", i+1, err)}
		}
	}

	l.footers(doc.DueDays)
	return Layout{Pages: l.pages}, nil
}

func blockExtent(b Block) float64 {
	switch blk := b.(type) {
	case *VerticalBlock:
		return 2 * LineHeight
	case *HorizontalBlock:
		return float64(len(blk.KeyValues)) * LineHeight
	default:
		return 0
	}
}

func (l *layoutBuilder) textLine(ln TextLine, ctx InvoiceContext) error {
	extent := max(blockExtent(ln.Left), blockExtent(ln.Right))
	if extent == 0 {
		return nil
	}
	if err := l.reserve(extent); err != nil {
		return err
	}
	if ln.Left != nil {
		l.block(ln.Left, ctx, false)
	}
	if ln.Right != nil {
		l.block(ln.Right, ctx, true)
	}
	l.y += extent + BlockGap
	return nil
}

func (l *layoutBuilder) block(b Block, ctx InvoiceContext, alignRight bool) {
	left, right := PageMargin, PageWidth-PageMargin
	switch blk := b.(type) {
	case *VerticalBlock:
		title := l.clip(blk.Title, true, BodySize, BlockWidth)
		value := l.clip(ResolveField(blk.Field, ctx), false, BodySize, BlockWidth)
		if alignRight {
			l.textRight(right, l.y, title, true, BodySize)
			l.textRight(right, l.y+LineHeight, value, false, BodySize)
		} else {
			l.text(left, l.y, title, true, BodySize)
			l.text(left, l.y+LineHeight, value, false, BodySize)
		}
	case *HorizontalBlock:
		for i, kv := range blk.KeyValues {
			y := l.y + float64(i)*LineHeight
			key := l.clip(kv.Key+": ", true, BodySize, BlockWidth)
			room := BlockWidth - l.m.StringWidth(key, true, BodySize)
			value := l.clip(ResolveField(kv.Value, ctx), false, BodySize, room)
			x := left
			if alignRight {
				x = right - l.m.StringWidth(key, true, BodySize) - l.m.StringWidth(value, false, BodySize)
			}
			x += l.text(x, y, key, true, BodySize)
			l.text(x, y, value, false, BodySize)
		}
	}
}

type tableColumn struct {
	title string
	x     float64
	width float64
	cell  func(LineItem) string
}

// tableColumns returns Item, the template columns in stored order, then
// Total, sized proportionally over the content width.
func tableColumns(doc InvoiceDocument) []tableColumn {
	type sized struct {
		title string
		size  float64
		cell  func(LineItem) string
	}
	cols := []sized{{
		title: "Item",
		size:  itemColumnSize,
		cell:  func(it LineItem) string { return it.Description },
	}}
	for _, c := range doc.Template.Columns {
		data := c.Data
		size := c.Size
		if size <= 0 {
			size = DefaultColumnSize
		}
		cols = append(cols, sized{
			title: c.Title,
			size:  size,
			cell:  func(it LineItem) string { return ColumnCellValue(data, it.Worker, doc.CurrencySymbol) },
		})
	}
	cols = append(cols, sized{
		title: "Total",
		size:  totalColumnSize,
		cell:  func(it LineItem) string { return FormatMoney(it.AmountCents, doc.CurrencySymbol) },
	})

	var sum float64
	for _, c := range cols {
		sum += c.size
	}
	content := PageWidth - 2*PageMargin
	out := make([]tableColumn, len(cols))
	x := PageMargin
	for i, c := range cols {
		w := content * c.size / sum
		out[i] = tableColumn{title: c.title, x: x, width: w, cell: c.cell}
		x += w
	}
	return out
}

// TableCells returns the items table header and one row of cells per item,
// as the PDF shows them.
func TableCells(doc InvoiceDocument) ([]string, [][]string) {
	cols := tableColumns(doc)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}
	rows := make([][]string, len(doc.Items))
	for r, it := range doc.Items {
		rows[r] = make([]string, len(cols))
		for i, c := range cols {
			rows[r][i] = c.cell(it)
		}
	}
	return header, rows
}

func (l *layoutBuilder) tableRow(cols []tableColumn, cells []string, bold bool) {
	for i, c := range cols {
		if i == 0 {
			l.text(c.x, l.y, cells[i], bold, BodySize)
		} else {
			l.textRight(c.x+c.width, l.y, cells[i], bold, BodySize)
		}
	}
	l.rule(l.y + tableRuleAt)
	l.y += TableRowSpace
}

func (l *layoutBuilder) itemsTable(doc InvoiceDocument) error {
	cols := tableColumns(doc)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
	}

	// keep the header together with the first row
	if err := l.reserve(2 * TableRowSpace); err != nil {
		return err
	}
	l.tableRow(cols, header, true)

	for _, it := range doc.Items {
		if l.y+TableRowSpace > PageHeight-PageMargin {
			l.newPage()
			l.tableRow(cols, header, true)
		}
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.cell(it)
		}
		l.tableRow(cols, cells, false)
	}

	if err := l.reserve(3 * LineHeight); err != nil {
		return err
	}
	right := PageWidth - PageMargin
	labelX := right - totalsWidth
	rows := []struct{ label, value string }{
		{"Subtotal", FormatMoney(doc.Totals.SubtotalCents, doc.CurrencySymbol)},
		{fmt.Sprintf("Tax (%s%%)", formatNumber(doc.Totals.TaxPercent)), FormatMoney(doc.Totals.TaxCents, doc.CurrencySymbol)},
		{"Total", FormatMoney(doc.Totals.TotalCents, doc.CurrencySymbol)},
	}
	for i, r := range rows {
		y := l.y + float64(i)*LineHeight
		l.text(labelX, y, r.label, true, BodySize)
		l.textRight(right, y, r.value, i == len(rows)-1, BodySize)
	}
	l.y += 3*LineHeight + BlockGap
	return nil
}

func (l *layoutBuilder) footers(dueDays int) {
	if dueDays <= 0 {
		dueDays = DefaultDueDays
	}
	note := fmt.Sprintf("Payment is due within %d days. Thank you for your business.", dueDays)
	y := PageHeight - PageMargin + LineHeight/2
	for i := range l.pages {
		p := &l.pages[i]
		w := l.m.StringWidth(note, false, FooterSize)
		p.Footer = append(p.Footer, TextRun{X: PageMargin, Y: y, Width: w, Text: note, Size: FooterSize})

		num := fmt.Sprintf("Page %d of %d", i+1, len(l.pages))
		nw := l.m.StringWidth(num, false, FooterSize)
		p.Footer = append(p.Footer, TextRun{X: PageWidth - PageMargin - nw, Y: y, Width: nw, Text: num, Size: FooterSize})
	}
}
