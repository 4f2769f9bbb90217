package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

// sanitizeFilename replaces characters that are unsafe in a download name.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

func registerFilename(agencyName, ext string, now time.Time) string {
	return fmt.Sprintf("Invoices_%s_%s.%s", sanitizeFilename(agencyName), now.Format("2006-01-02"), ext)
}

// HandleInvoiceExportExcel downloads the agency invoice register as .xlsx.
func HandleInvoiceExportExcel(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "export_excel", err)
		}

		now := time.Now()
		data, err := services.BuildRegisterData(app, agency.ID, now, opts)
		if err != nil {
			return respondError(e, "export_excel", err)
		}

		xlsxBytes, err := services.GenerateRegisterExcel(data)
		if err != nil {
			log.Printf("export_excel: failed to generate: %v", err)
			return respondError(e, "export_excel", err)
		}

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, registerFilename(agency.Name, "xlsx", now)))
		e.Response.Write(xlsxBytes)
		return nil
	}
}

// HandleInvoiceExportPDF downloads the agency invoice register as PDF.
func HandleInvoiceExportPDF(app *pocketbase.PocketBase, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "export_pdf", err)
		}

		now := time.Now()
		data, err := services.BuildRegisterData(app, agency.ID, now, opts)
		if err != nil {
			return respondError(e, "export_pdf", err)
		}

		pdfBytes, err := services.GenerateRegisterPDF(data)
		if err != nil {
			log.Printf("export_pdf: failed to generate: %v", err)
			return respondError(e, "export_pdf", err)
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, registerFilename(agency.Name, "pdf", now)))
		e.Response.Write(pdfBytes)
		return nil
	}
}
