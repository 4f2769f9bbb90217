package services

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// ListAgencies returns every agency sorted by name.
func ListAgencies(app core.App) ([]AgencyInfo, error) {
	records, err := app.FindAllRecords("agencies")
	if err != nil {
		return nil, fmt.Errorf("list agencies: %w", err)
	}
	out := make([]AgencyInfo, len(records))
	for i, r := range records {
		out[i] = AgencyInfoFromRecord(r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateAgency validates and stores a new agency.
func CreateAgency(app core.App, a AgencyInfo) (AgencyInfo, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.Reference = strings.ToUpper(strings.TrimSpace(a.Reference))
	if err := ValidateAgency(a); err != nil {
		return AgencyInfo{}, err
	}

	col, err := app.FindCollectionByNameOrId("agencies")
	if err != nil {
		return AgencyInfo{}, fmt.Errorf("agencies collection: %w", err)
	}
	record := core.NewRecord(col)
	record.Set("name", a.Name)
	record.Set("reference", a.Reference)
	if err := app.Save(record); err != nil {
		return AgencyInfo{}, fmt.Errorf("save agency: %w", err)
	}
	return AgencyInfoFromRecord(record), nil
}

// DeleteAgency removes an agency with its workers and invoices, then
// removes the invoice files. File cleanup failures are only logged.
func DeleteAgency(app core.App, files FileStore, id string) error {
	agency, err := app.FindRecordById("agencies", id)
	if err != nil {
		return notFound("agency", id)
	}

	invoices, err := app.FindAllRecords("invoices", dbx.HashExp{"agency": id})
	if err != nil {
		return fmt.Errorf("list agency invoices: %w", err)
	}
	fileNames := make([]string, 0, len(invoices))

	err = app.RunInTransaction(func(txApp core.App) error {
		for _, inv := range invoices {
			fileNames = append(fileNames, inv.GetString("file_name"))
			if err := txApp.Delete(inv); err != nil {
				return fmt.Errorf("delete invoice %s: %w", inv.Id, err)
			}
		}
		return txApp.Delete(agency)
	})
	if err != nil {
		return fmt.Errorf("delete agency: %w", err)
	}

	for _, name := range fileNames {
		if err := files.DeletePDF(name); err != nil {
			log.Printf("directory: could not delete %s of agency %s: %v", name, id, err)
		}
	}
	return nil
}

// ListWorkers returns all workers, or only those of agencyID when it is set.
func ListWorkers(app core.App, agencyID string) ([]WorkerInfo, error) {
	if agencyID != "" {
		return ListAgencyWorkers(app, agencyID)
	}
	records, err := app.FindAllRecords("workers")
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	out := make([]WorkerInfo, len(records))
	for i, r := range records {
		out[i] = WorkerInfoFromRecord(r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CreateWorker validates and stores a worker of agencyID.
func CreateWorker(app core.App, agencyID string, w WorkerInfo) (WorkerInfo, error) {
	if _, err := GetAgency(app, agencyID); err != nil {
		return WorkerInfo{}, err
	}
	if err := ValidateWorker(w); err != nil {
		return WorkerInfo{}, err
	}

	col, err := app.FindCollectionByNameOrId("workers")
	if err != nil {
		return WorkerInfo{}, fmt.Errorf("workers collection: %w", err)
	}
	record := core.NewRecord(col)
	record.Set("agency", agencyID)
	ApplyWorker(record, w)
	if err := app.Save(record); err != nil {
		return WorkerInfo{}, fmt.Errorf("save worker: %w", err)
	}
	return WorkerInfoFromRecord(record), nil
}

// UpdateWorker replaces the attributes of an existing worker. The agency
// relation is not changed.
func UpdateWorker(app core.App, id string, w WorkerInfo) (WorkerInfo, error) {
	record, err := app.FindRecordById("workers", id)
	if err != nil {
		return WorkerInfo{}, notFound("worker", id)
	}
	if err := ValidateWorker(w); err != nil {
		return WorkerInfo{}, err
	}
	ApplyWorker(record, w)
	if err := app.Save(record); err != nil {
		return WorkerInfo{}, fmt.Errorf("save worker: %w", err)
	}
	return WorkerInfoFromRecord(record), nil
}

// DeleteWorker removes a worker that has no invoices.
func DeleteWorker(app core.App, id string) error {
	record, err := app.FindRecordById("workers", id)
	if err != nil {
		return notFound("worker", id)
	}
	invoices, err := app.FindAllRecords("invoices", dbx.HashExp{"worker": id})
	if err != nil {
		return fmt.Errorf("list worker invoices: %w", err)
	}
	if len(invoices) > 0 {
		return invalid("worker", "worker has %d invoices and cannot be deleted", len(invoices))
	}
	if err := app.Delete(record); err != nil {
		return fmt.Errorf("delete worker: %w", err)
	}
	return nil
}
