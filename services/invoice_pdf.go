package services

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

const pdfFontFamily = "Helvetica"

// pdfMeasurer measures with the same core font the writer draws with.
type pdfMeasurer struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (m pdfMeasurer) StringWidth(text string, bold bool, size float64) float64 {
	m.pdf.SetFont(pdfFontFamily, fontStyle(bold), size)
	return m.pdf.GetStringWidth(m.tr(text))
}

func fontStyle(bold bool) string {
	if bold {
		return "B"
	}
	return ""
}

func newInvoicePDF() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(PageMargin, PageMargin, PageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCellMargin(0)
	pdf.SetFont(pdfFontFamily, "", BodySize)
	return pdf
}

// NewPDFMeasurer returns a TextMeasurer backed by the PDF core fonts.
func NewPDFMeasurer() TextMeasurer {
	pdf := newInvoicePDF()
	return pdfMeasurer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

// RenderInvoicePDF lays out doc and encodes it as a PDF. Nothing is
// returned unless the whole document was produced.
func RenderInvoicePDF(doc InvoiceDocument) ([]byte, error) {
	pdf := newInvoicePDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	layout, err := LayoutInvoice(doc, pdfMeasurer{pdf: pdf, tr: tr})
	if err != nil {
		return nil, err
	}

	pdf.SetDrawColor(180, 180, 180)
	pdf.SetLineWidth(0.5)
	for _, page := range layout.Pages {
		pdf.AddPage()

		pdf.SetTextColor(0, 0, 0)
		for _, r := range page.Runs {
			drawRun(pdf, tr, r)
		}
		for _, rule := range page.Rules {
			pdf.Line(rule.X1, rule.Y1, rule.X2, rule.Y2)
		}

		pdf.SetTextColor(120, 120, 120)
		for _, r := range page.Footer {
			drawRun(pdf, tr, r)
		}
	}

	if pdf.Err() {
		return nil, &RenderError{Err: pdf.Error()}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Err: fmt.Errorf("encode PDF: %w", err)}
	}
	return buf.Bytes(), nil
}

func drawRun(pdf *gofpdf.Fpdf, tr func(string) string, r TextRun) {
	size := r.Size
	if size == 0 {
		size = BodySize
	}
	pdf.SetFont(pdfFontFamily, fontStyle(r.Bold), size)
	h := LineHeight
	if size > LineHeight {
		h = size
	}
	pdf.SetXY(r.X, r.Y)
	pdf.CellFormat(r.Width, h, tr(r.Text), "", 0, "L", false, 0, "")
}
