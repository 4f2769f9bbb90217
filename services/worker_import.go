package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"
)

// ImportRowError represents a single field-level error on one row.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult is returned after parsing, validating and inserting an upload.
type ImportResult struct {
	TotalRows int              `json:"total_rows"`
	Inserted  int              `json:"inserted"`
	Errors    []ImportRowError `json:"errors"`
}

// importColumns maps normalized header labels to worker fields.
var importColumns = map[string]string{
	"name":          "name",
	"email":         "email",
	"phone":         "phone",
	"age":           "age",
	"address":       "address",
	"role":          "role",
	"worked hours":  "worked_hours",
	"overdue hours": "overdue_hours",
	"hourly rate":   "hourly_rate",
}

// ImportTemplateHeaders is the header row of a worker import file.
var ImportTemplateHeaders = []string{"Name", "Email", "Phone", "Age", "Address", "Role", "Worked Hours", "Overdue Hours", "Hourly Rate"}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}

	return rows[0], rows[1:], nil
}

// mapHeaders returns the worker field for each column ("" for unknown columns).
func mapHeaders(headers []string) []string {
	mapped := make([]string, len(headers))
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.TrimSpace(strings.TrimSuffix(norm, "*"))
		mapped[i] = importColumns[norm]
	}
	return mapped
}

func parseNumberCell(rowNum int, label, v string, errs *[]ImportRowError) float64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		*errs = append(*errs, ImportRowError{Row: rowNum, Field: label, Message: fmt.Sprintf("%s must be a number", label)})
	}
	return f
}

// workerFromRow converts one data row, collecting format errors.
func workerFromRow(rowNum int, keys []string, row []string) (WorkerInfo, []ImportRowError) {
	data := make(map[string]string, len(keys))
	for i, key := range keys {
		if key == "" || i >= len(row) {
			continue
		}
		data[key] = strings.TrimSpace(row[i])
	}

	var errs []ImportRowError
	w := WorkerInfo{
		Name:         data["name"],
		Email:        data["email"],
		Phone:        data["phone"],
		Address:      data["address"],
		Role:         data["role"],
		WorkedHours:  parseNumberCell(rowNum, "Worked Hours", data["worked_hours"], &errs),
		OverdueHours: parseNumberCell(rowNum, "Overdue Hours", data["overdue_hours"], &errs),
		HourlyRate:   parseNumberCell(rowNum, "Hourly Rate", data["hourly_rate"], &errs),
	}
	if v := data["age"]; v != "" {
		age, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, ImportRowError{Row: rowNum, Field: "Age", Message: "Age must be a whole number"})
		}
		w.Age = age
	}

	if len(errs) == 0 {
		if err := ValidateWorker(w); err != nil {
			ve := err.(*ValidationError)
			errs = append(errs, ImportRowError{Row: rowNum, Field: ve.Field, Message: ve.Message})
		}
	}
	return w, errs
}

// ImportWorkers parses a .csv or .xlsx upload and inserts every row as a
// worker of the agency. Any invalid row rejects the whole file; the result
// then lists the row errors and nothing is inserted.
func ImportWorkers(app core.App, agencyID string, file io.Reader, fileName string) (*ImportResult, error) {
	if _, err := app.FindRecordById("agencies", agencyID); err != nil {
		return nil, notFound("agency", agencyID)
	}

	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	if strings.HasSuffix(lowerName, ".csv") {
		headers, dataRows, err = parseCSV(file)
	} else if strings.HasSuffix(lowerName, ".xlsx") {
		headers, dataRows, err = parseExcel(file)
	} else {
		return nil, invalid("file", "unsupported file format: must be .csv or .xlsx")
	}
	if err != nil {
		return nil, invalid("file", "%v", err)
	}

	keys := mapHeaders(headers)
	hasName := false
	for _, k := range keys {
		hasName = hasName || k == "name"
	}
	if !hasName {
		return nil, invalid("file", "missing required column Name")
	}

	result := &ImportResult{TotalRows: len(dataRows)}
	workers := make([]WorkerInfo, 0, len(dataRows))
	for i, row := range dataRows {
		w, errs := workerFromRow(i+2, keys, row)
		result.Errors = append(result.Errors, errs...)
		workers = append(workers, w)
	}
	if len(result.Errors) > 0 {
		return result, nil
	}

	col, err := app.FindCollectionByNameOrId("workers")
	if err != nil {
		return nil, fmt.Errorf("workers collection: %w", err)
	}

	err = app.RunInTransaction(func(txApp core.App) error {
		for i, w := range workers {
			record := core.NewRecord(col)
			record.Set("agency", agencyID)
			ApplyWorker(record, w)
			if err := txApp.Save(record); err != nil {
				return fmt.Errorf("row %d: %w", i+2, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import workers: %w", err)
	}

	result.Inserted = len(workers)
	log.Printf("worker_import: inserted %d workers for agency %s from %s", result.Inserted, agencyID, fileName)
	return result, nil
}
