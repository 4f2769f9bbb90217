package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
)

type workerRequest struct {
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

func (r workerRequest) info() services.WorkerInfo {
	return services.WorkerInfo{
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		Address:      r.Address,
		Role:         r.Role,
		Age:          r.Age,
		WorkedHours:  r.WorkedHours,
		OverdueHours: r.OverdueHours,
		HourlyRate:   r.HourlyRate,
	}
}

func workersJSON(e *core.RequestEvent, workers []services.WorkerInfo) error {
	if workers == nil {
		workers = []services.WorkerInfo{}
	}
	return e.JSON(http.StatusOK, workers)
}

// HandleWorkerList lists all workers; ?agency= narrows to one agency.
func HandleWorkerList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		workers, err := services.ListWorkers(app, e.Request.URL.Query().Get("agency"))
		if err != nil {
			return respondError(e, "worker_list", err)
		}
		return workersJSON(e, workers)
	}
}

func HandleAgencyWorkerList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "worker_list", err)
		}
		workers, err := services.ListAgencyWorkers(app, agency.ID)
		if err != nil {
			return respondError(e, "worker_list", err)
		}
		return workersJSON(e, workers)
	}
}

func HandleWorkerCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "worker_create", err)
		}
		var req workerRequest
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "worker_create", err)
		}

		worker, err := services.CreateWorker(app, agency.ID, req.info())
		if err != nil {
			return respondError(e, "worker_create", err)
		}
		return e.JSON(http.StatusCreated, worker)
	}
}

func HandleWorkerGet(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		worker, err := services.GetWorker(app, e.Request.PathValue("workerId"))
		if err != nil {
			return respondError(e, "worker_get", err)
		}
		return e.JSON(http.StatusOK, worker)
	}
}

func HandleWorkerUpdate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req workerRequest
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "worker_update", err)
		}

		worker, err := services.UpdateWorker(app, e.Request.PathValue("workerId"), req.info())
		if err != nil {
			return respondError(e, "worker_update", err)
		}
		return e.JSON(http.StatusOK, worker)
	}
}

func HandleWorkerDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := services.DeleteWorker(app, e.Request.PathValue("workerId")); err != nil {
			return respondError(e, "worker_delete", err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleWorkerImport accepts a multipart upload in the "file" field.
func HandleWorkerImport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "worker_import", err)
		}

		if err := e.Request.ParseMultipartForm(10 << 20); err != nil {
			return respondError(e, "worker_import", &services.ValidationError{Field: "file", Message: "invalid upload: " + err.Error()})
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return respondError(e, "worker_import", &services.ValidationError{Field: "file", Message: "missing file"})
		}
		defer file.Close()

		result, err := services.ImportWorkers(app, agency.ID, file, header.Filename)
		if err != nil {
			return respondError(e, "worker_import", err)
		}
		if len(result.Errors) > 0 {
			return e.JSON(http.StatusUnprocessableEntity, result)
		}
		return e.JSON(http.StatusCreated, result)
	}
}
