package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

type generateRequest struct {
	WorkerIDs []string `json:"workerIds"`
}

type generateResponse struct {
	services.BatchResult
	SucceededCount int `json:"succeededCount"`
	FailedCount    int `json:"failedCount"`
}

// HandleInvoiceGenerate runs a batch for the agency. Per-worker failures
// are reported in the body; the call itself still answers 200.
func HandleInvoiceGenerate(app *pocketbase.PocketBase, gen *services.Generator) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "invoice_generate", err)
		}

		var req generateRequest
		if e.Request.ContentLength != 0 {
			if err := bindJSON(e, &req); err != nil {
				return respondError(e, "invoice_generate", err)
			}
		}

		result, err := gen.GenerateInvoices(e.Request.Context(), agency.ID, req.WorkerIDs)
		if err != nil {
			return respondError(e, "invoice_generate", err)
		}
		return e.JSON(http.StatusOK, generateResponse{
			BatchResult:    result,
			SucceededCount: len(result.Succeeded),
			FailedCount:    len(result.Failed),
		})
	}
}

func invoicesJSON(e *core.RequestEvent, invoices []services.InvoiceSummary) error {
	if invoices == nil {
		invoices = []services.InvoiceSummary{}
	}
	return e.JSON(http.StatusOK, invoices)
}

// HandleInvoiceList lists every invoice, newest first.
func HandleInvoiceList(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		invoices, err := services.ListInvoices(app, "", time.Now(), opts.DueDays)
		if err != nil {
			return respondError(e, "invoice_list", err)
		}
		return invoicesJSON(e, invoices)
	}
}

func HandleAgencyInvoiceList(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "invoice_list", err)
		}
		invoices, err := services.ListInvoices(app, agency.ID, time.Now(), opts.DueDays)
		if err != nil {
			return respondError(e, "invoice_list", err)
		}
		return invoicesJSON(e, invoices)
	}
}

func HandleInvoiceGet(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		inv, err := services.GetInvoice(app, e.Request.PathValue("invoiceId"), time.Now(), opts.DueDays)
		if err != nil {
			return respondError(e, "invoice_get", err)
		}
		return e.JSON(http.StatusOK, inv)
	}
}

// HandleInvoicePDF streams the stored PDF inline.
func HandleInvoicePDF(app *pocketbase.PocketBase, files services.FileStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, number, err := services.InvoicePDF(app, files, e.Request.PathValue("invoiceId"))
		if err != nil {
			return respondError(e, "invoice_pdf", err)
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, sanitizeFilename(number)))
		e.Response.Write(data)
		return nil
	}
}

func HandleInvoiceDelete(app *pocketbase.PocketBase, files services.FileStore) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteInvoice(app, files, e.Request.PathValue("invoiceId")); err != nil {
			return respondError(e, "invoice_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleInvoiceStatus sets the stored status to Pending, Paid or Cancelled.
func HandleInvoiceStatus(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req struct {
			Status string `json:"status"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "invoice_status", err)
		}
		status, err := services.ParseInvoiceStatus(req.Status)
		if err != nil {
			return respondError(e, "invoice_status", err)
		}

		id := e.Request.PathValue("invoiceId")
		if err := services.UpdateInvoiceStatus(app, id, status); err != nil {
			return respondError(e, "invoice_status", err)
		}
		inv, err := services.GetInvoice(app, id, time.Now(), opts.DueDays)
		if err != nil {
			return respondError(e, "invoice_status", err)
		}
		return e.JSON(http.StatusOK, inv)
	}
}
