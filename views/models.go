// Package views holds the server-rendered HTML components.
package views

// InvoiceListItem is one row of the invoice list page.
type InvoiceListItem struct {
	ID          string
	Number      string
	WorkerName  string
	Date        string
	Status      string
	Total       string
	PaymentLink string
}

// InvoiceListData is everything the invoice list renders.
type InvoiceListData struct {
	AgencyID   string
	AgencyName string
	Invoices   []InvoiceListItem
	TotalCount int
}

func statusClass(status string) string {
	switch status {
	case "Paid":
		return "badge badge-success"
	case "Overdue":
		return "badge badge-error"
	case "Cancelled":
		return "badge badge-ghost"
	default:
		return "badge badge-warning"
	}
}

// canMarkPaid reports whether the list offers the mark paid action.
func canMarkPaid(status string) bool {
	return status != "Paid" && status != "Cancelled"
}

// PreviewPair is a label and its sample value.
type PreviewPair struct {
	Label string
	Value string
}

// PreviewBlock is a placed block as the preview shows it.
type PreviewBlock struct {
	ID     int
	Slot   int
	Locked bool
	Pairs  []PreviewPair
	// Vertical blocks stack the label above the value.
	Vertical bool
}

// PreviewRow is one editor row; empty sides are nil.
type PreviewRow struct {
	Number int
	Left   *PreviewBlock
	Right  *PreviewBlock
}

// TemplatePreviewData is everything the template preview renders.
type TemplatePreviewData struct {
	SessionID   string
	Name        string
	Description string
	Before      []PreviewRow
	After       []PreviewRow
	Columns     []string
	Cells       []string
	Subtotal    string
	TaxLabel    string
	Tax         string
	Total       string
}

func blockClass(b *PreviewBlock) string {
	if b.Locked {
		return "block block-locked"
	}
	return "block"
}
