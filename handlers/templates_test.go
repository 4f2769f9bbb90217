package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"invoicedesk/services"
	"invoicedesk/testhelpers"
)

func TestHandleAgencyTemplateGet_Default(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind", "NWS")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", agency.Id)
	rec := httptest.NewRecorder()
	if err := HandleAgencyTemplateGet(app)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	var got templateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !got.Default || got.ID != "" || got.Template.Name != services.DefaultTemplateName {
		t.Errorf("response = %+v", got)
	}
}

func TestHandleAgencyTemplatePut(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind", "NWS")

	tpl := services.DefaultTemplate()
	tpl.Name = "Weekly"
	tpl.Tax = 10
	body, _ := json.Marshal(tpl)

	req := jsonRequest(http.MethodPut, "/", string(body))
	req.SetPathValue("id", agency.Id)
	rec := httptest.NewRecorder()
	HandleAgencyTemplatePut(app)(newTestRequestEvent(app, req, rec))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var saved templateResponse
	json.Unmarshal(rec.Body.Bytes(), &saved)
	if saved.ID == "" {
		t.Fatal("expected template id")
	}

	stored, id, err := services.GetAgencyTemplate(app, agency.Id)
	if err != nil || id != saved.ID || stored.Name != "Weekly" || stored.Tax != 10 {
		t.Errorf("stored = %+v (%s), %v", stored, id, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", saved.ID)
	rec = httptest.NewRecorder()
	HandleTemplateGet(app)(newTestRequestEvent(app, req, rec))
	if rec.Code != http.StatusOK {
		t.Errorf("template get: status %d", rec.Code)
	}
}

func TestHandleAgencyTemplatePut_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no items line", `{"name":"x","description":"y","tax":0,"lines":[]}`},
		{"tax out of range", `{"name":"x","description":"y","tax":150,"lines":[{"type":"items"}]}`},
		{"unknown field", `{"name":"x","description":"y","lines":[{"type":"items"},{"type":"text","left":{"type":"vertical","internalId":1,"title":"A","field":"worker.shoe_size"}}]}`},
		{"malformed", `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := testhelpers.NewTestApp(t)
			agency := testhelpers.CreateTestAgency(t, app, "Northwind", "NWS")

			req := jsonRequest(http.MethodPut, "/", tt.body)
			req.SetPathValue("id", agency.Id)
			rec := httptest.NewRecorder()
			HandleAgencyTemplatePut(app)(newTestRequestEvent(app, req, rec))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if _, id, _ := services.GetAgencyTemplate(app, agency.Id); id != "" {
				t.Error("invalid template should not be stored")
			}
		})
	}
}

func TestHandleTemplateGet_NotFound(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	HandleTemplateGet(app)(newTestRequestEvent(app, req, rec))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleTemplateFields(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/template-fields", nil)
	rec := httptest.NewRecorder()
	HandleTemplateFields()(newTestRequestEvent(app, req, rec))

	var got struct {
		Fields  []json.RawMessage `json:"fields"`
		Columns []json.RawMessage `json:"columns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Fields) != len(services.FieldOptions) || len(got.Columns) != len(services.ColumnDataOptions) {
		t.Errorf("got %d fields and %d columns", len(got.Fields), len(got.Columns))
	}
}
