package services

import (
	"strconv"
	"time"
)

// WorkerInfo is the worker part of an invoice context.
type WorkerInfo struct {
	ID           string  `json:"id"`
	AgencyID     string  `json:"agencyId"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Address      string  `json:"address"`
	Role         string  `json:"role"`
	Age          int     `json:"age"`
	WorkedHours  float64 `json:"workedHours"`
	OverdueHours float64 `json:"overdueHours"`
	HourlyRate   float64 `json:"hourlyRate"`
}

// TotalHours is worked plus overdue hours.
func (w WorkerInfo) TotalHours() float64 {
	return w.WorkedHours + w.OverdueHours
}

// AgencyInfo is the agency part of an invoice context.
type AgencyInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Reference string `json:"reference"`
}

// InvoiceInfo identifies the invoice being generated.
type InvoiceInfo struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
}

// InvoiceContext is assembled per invoice and consumed by the renderer.
type InvoiceContext struct {
	Worker  WorkerInfo
	Agency  AgencyInfo
	Invoice InvoiceInfo
}

// FieldOption is a field the editor offers for blocks.
type FieldOption struct {
	Field FieldRef `json:"field"`
	Label string   `json:"label"`
}

// FieldOptions lists the fields offered by the editor. The first entry is
// the default for new blocks.
var FieldOptions = []FieldOption{
	{Field: "worker.name", Label: "Worker name"},
	{Field: "worker.email", Label: "Worker email"},
	{Field: "worker.phone", Label: "Worker phone"},
	{Field: "worker.address", Label: "Worker address"},
	{Field: "worker.age", Label: "Worker age"},
	{Field: "worker.role", Label: "Worker role"},
	{Field: "invoice.id", Label: "Invoice number"},
	{Field: "invoice.date", Label: "Invoice date"},
	{Field: "agency.name", Label: "Agency name"},
}

// fieldProperties are the properties each namespace resolves.
var fieldProperties = map[string]map[string]bool{
	NamespaceWorker: {
		"id": true, "name": true, "email": true, "phone": true, "address": true, "role": true,
		"age": true, "workedHours": true, "overdueHours": true, "totalHours": true, "hourlyRate": true,
	},
	NamespaceAgency:  {"id": true, "name": true, "reference": true},
	NamespaceInvoice: {"id": true, "number": true, "date": true},
}

// ResolveField returns the display value of ref in ctx. Malformed refs,
// unknown namespaces and unknown properties all resolve to "".
func ResolveField(ref FieldRef, ctx InvoiceContext) string {
	ns, prop, ok := ref.Split()
	if !ok {
		return ""
	}
	switch ns {
	case NamespaceWorker:
		return resolveWorker(prop, ctx.Worker)
	case NamespaceAgency:
		return resolveAgency(prop, ctx.Agency)
	case NamespaceInvoice:
		return resolveInvoice(prop, ctx.Invoice)
	default:
		return ""
	}
}

func resolveWorker(prop string, w WorkerInfo) string {
	switch prop {
	case "id":
		return w.ID
	case "name":
		return w.Name
	case "email":
		return w.Email
	case "phone":
		return w.Phone
	case "address":
		return w.Address
	case "role":
		return w.Role
	case "age":
		return strconv.Itoa(w.Age)
	case "workedHours":
		return formatNumber(w.WorkedHours)
	case "overdueHours":
		return formatNumber(w.OverdueHours)
	case "totalHours":
		return formatNumber(w.TotalHours())
	case "hourlyRate":
		return formatNumber(w.HourlyRate)
	default:
		return ""
	}
}

func resolveAgency(prop string, a AgencyInfo) string {
	switch prop {
	case "id":
		return a.ID
	case "name":
		return a.Name
	case "reference":
		return a.Reference
	default:
		return ""
	}
}

func resolveInvoice(prop string, inv InvoiceInfo) string {
	switch prop {
	case "id", "number":
		return inv.ID
	case "date":
		if inv.Date.IsZero() {
			return ""
		}
		return FormatDate(inv.Date)
	default:
		return ""
	}
}

// ColumnCellValue renders one items-table cell for a worker.
func ColumnCellValue(data ColumnData, w WorkerInfo, currencySymbol string) string {
	switch data {
	case ColumnWorkedHours:
		return FormatHours(w.WorkedHours)
	case ColumnOverdueHours:
		return FormatHours(w.OverdueHours)
	case ColumnTotalHours:
		return FormatHours(w.TotalHours())
	case ColumnHourlyRate:
		return FormatMoney(CalcLineAmountCents(1, w.HourlyRate), currencySymbol)
	default:
		return ""
	}
}
