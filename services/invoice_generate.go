package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/sync/errgroup"
)

// Generator produces invoices for a batch of workers.
type Generator struct {
	App      core.App
	Files    FileStore
	Payments PaymentProvider

	// Concurrency bounds how many workers are processed at once.
	Concurrency int
	// ExternalTimeout bounds each payment provider call.
	ExternalTimeout time.Duration
	Options         DocumentOptions
	Now             func() time.Time

	// batches of one agency run one at a time so number allocation
	// cannot hand out the same sequence twice
	agencyLocks sync.Map
}

func (g *Generator) agencyLock(agencyID string) *sync.Mutex {
	mu, _ := g.agencyLocks.LoadOrStore(agencyID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// GeneratedInvoice describes one invoice produced by a batch.
type GeneratedInvoice struct {
	WorkerID      string `json:"workerId"`
	InvoiceID     string `json:"invoiceId"`
	InvoiceNumber string `json:"invoiceNumber"`
	FileName      string `json:"fileName"`
	PaymentURL    string `json:"paymentUrl"`
	TotalCents    int64  `json:"totalCents"`
}

// BatchFailure records why one worker's invoice was not produced.
type BatchFailure struct {
	WorkerID string    `json:"workerId"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
}

// BatchResult lists successes and failures separately, both in the order
// the workers were requested.
type BatchResult struct {
	Succeeded []GeneratedInvoice `json:"succeeded"`
	Failed    []BatchFailure     `json:"failed"`
}

func (g *Generator) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}

// GenerateInvoices creates one invoice per worker. An empty workerIDs means
// every worker of the agency. Per-worker failures never abort the batch;
// the returned error is only set when the batch could not start.
func (g *Generator) GenerateInvoices(ctx context.Context, agencyID string, workerIDs []string) (BatchResult, error) {
	agency, err := GetAgency(g.App, agencyID)
	if err != nil {
		return BatchResult{}, err
	}

	tpl, _, err := GetAgencyTemplate(g.App, agencyID)
	if err != nil {
		return BatchResult{}, err
	}
	if err := tpl.Validate(); err != nil {
		return BatchResult{}, fmt.Errorf("agency template: %w", err)
	}

	if len(workerIDs) == 0 {
		workers, err := ListAgencyWorkers(g.App, agencyID)
		if err != nil {
			return BatchResult{}, fmt.Errorf("list workers: %w", err)
		}
		for _, w := range workers {
			workerIDs = append(workerIDs, w.ID)
		}
	}
	if len(workerIDs) == 0 {
		return BatchResult{Succeeded: []GeneratedInvoice{}, Failed: []BatchFailure{}}, nil
	}

	lock := g.agencyLock(agencyID)
	lock.Lock()
	defer lock.Unlock()

	now := g.now()
	numbers, err := NextInvoiceNumbers(g.App, agencyID, now, len(workerIDs))
	if err != nil {
		return BatchResult{}, err
	}

	type outcome struct {
		inv GeneratedInvoice
		err error
	}
	outcomes := make([]outcome, len(workerIDs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(g.Concurrency, 1))
	for i, workerID := range workerIDs {
		eg.Go(func() error {
			inv, err := g.generateOne(egCtx, tpl, agency, workerID, numbers[i], now)
			outcomes[i] = outcome{inv: inv, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	result := BatchResult{Succeeded: []GeneratedInvoice{}, Failed: []BatchFailure{}}
	for i, o := range outcomes {
		if o.err != nil {
			g.App.Logger().Warn("invoice generation failed",
				"agencyId", agencyID,
				"workerId", workerIDs[i],
				"error", o.err.Error(),
			)
			result.Failed = append(result.Failed, BatchFailure{
				WorkerID: workerIDs[i],
				Kind:     KindOf(o.err),
				Message:  PublicMessage(o.err),
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, o.inv)
	}

	log.Printf("invoice_generate: agency %s: %d succeeded, %d failed", agencyID, len(result.Succeeded), len(result.Failed))
	return result, nil
}

// generateOne renders, stores and registers one invoice. The record is
// inserted last so a failure in any earlier step leaves no record behind.
func (g *Generator) generateOne(ctx context.Context, tpl Template, agency AgencyInfo, workerID, number string, now time.Time) (GeneratedInvoice, error) {
	worker, err := GetWorker(g.App, workerID)
	if err != nil {
		return GeneratedInvoice{}, err
	}
	if worker.AgencyID != agency.ID {
		return GeneratedInvoice{}, notFound("worker", workerID)
	}

	doc := BuildInvoiceDocument(tpl, worker, agency, number, now, g.Options)
	pdfBytes, err := RenderInvoicePDF(doc)
	if err != nil {
		return GeneratedInvoice{}, err
	}

	fileName := NewInvoiceFileName()
	if err := g.Files.WritePDF(fileName, pdfBytes); err != nil {
		return GeneratedInvoice{}, err
	}

	link, err := g.createLink(ctx, doc.Totals.TotalCents, fmt.Sprintf("Invoice %s for %s", number, worker.Name))
	if err != nil {
		g.discardFile(fileName)
		return GeneratedInvoice{}, err
	}

	id, err := InsertInvoice(g.App, NewInvoice{
		InvoiceNumber: number,
		FileName:      fileName,
		WorkerID:      worker.ID,
		AgencyID:      agency.ID,
		TemplateName:  tpl.Name,
		Totals:        doc.Totals,
		PaymentLink:   link,
	})
	if err != nil {
		g.discardFile(fileName)
		return GeneratedInvoice{}, err
	}

	g.App.Logger().Info("invoice generated",
		"invoiceId", id,
		"invoiceNumber", number,
		"workerId", worker.ID,
		"paymentLink", link.ID,
		"totalCents", doc.Totals.TotalCents,
	)
	return GeneratedInvoice{
		WorkerID:      worker.ID,
		InvoiceID:     id,
		InvoiceNumber: number,
		FileName:      fileName,
		PaymentURL:    link.URL,
		TotalCents:    doc.Totals.TotalCents,
	}, nil
}

func (g *Generator) createLink(ctx context.Context, amountCents int64, description string) (PaymentLink, error) {
	if g.ExternalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.ExternalTimeout)
		defer cancel()
	}
	return g.Payments.CreatePriceAndLink(ctx, amountCents, description)
}

func (g *Generator) discardFile(fileName string) {
	if err := g.Files.DeletePDF(fileName); err != nil {
		log.Printf("invoice_generate: could not remove orphaned file %s: %v", fileName, err)
	}
}
