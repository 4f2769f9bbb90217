package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
	"invoicedesk/views"
)

func buildInvoiceListData(app *pocketbase.PocketBase, agency services.AgencyInfo, opts services.DocumentOptions) (views.InvoiceListData, error) {
	invoices, err := services.ListInvoices(app, agency.ID, time.Now(), opts.DueDays)
	if err != nil {
		return views.InvoiceListData{}, err
	}

	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = services.DefaultCurrencySymbol
	}
	items := make([]views.InvoiceListItem, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, views.InvoiceListItem{
			ID:          inv.ID,
			Number:      inv.InvoiceNumber,
			WorkerName:  inv.WorkerName,
			Date:        services.FormatDate(inv.CreatedAt),
			Status:      string(inv.DisplayStatus),
			Total:       services.FormatMoney(inv.AmountCents, symbol),
			PaymentLink: inv.PaymentLink,
		})
	}
	return views.InvoiceListData{
		AgencyID:   agency.ID,
		AgencyName: agency.Name,
		Invoices:   items,
		TotalCount: len(items),
	}, nil
}

// HandleInvoiceListPage renders the agency's invoices as HTML.
func HandleInvoiceListPage(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return e.String(http.StatusNotFound, "Agency not found")
		}

		data, err := buildInvoiceListData(app, agency, opts)
		if err != nil {
			log.Printf("invoice_page: could not list invoices for %s: %v", agency.ID, err)
			return e.String(http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		var component templ.Component
		if e.Request.Header.Get("HX-Request") == "true" {
			component = views.InvoiceListContent(data)
		} else {
			component = views.InvoiceListPage(data)
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return component.Render(e.Request.Context(), e.Response)
	}
}

// HandleInvoiceStatusAction is the HTMX form behind the list page's
// status buttons. It answers with the refreshed list fragment.
func HandleInvoiceStatusAction(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return ErrorToast(e, http.StatusNotFound, "Agency not found")
		}

		invoiceID := e.Request.PathValue("invoiceId")
		inv, err := services.GetInvoice(app, invoiceID, time.Now(), opts.DueDays)
		if err != nil || inv.AgencyID != agency.ID {
			return ErrorToast(e, http.StatusNotFound, "Invoice not found")
		}

		status, err := services.ParseInvoiceStatus(e.Request.FormValue("status"))
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, services.PublicMessage(err))
		}
		if err := services.UpdateInvoiceStatus(app, invoiceID, status); err != nil {
			log.Printf("invoice_page: could not update %s: %v", invoiceID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		data, err := buildInvoiceListData(app, agency, opts)
		if err != nil {
			log.Printf("invoice_page: could not list invoices for %s: %v", agency.ID, err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, "success", "Invoice "+inv.InvoiceNumber+" marked "+string(status))
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return views.InvoiceListContent(data).Render(e.Request.Context(), e.Response)
	}
}
