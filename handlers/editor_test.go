package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
	"invoicedesk/testhelpers"
)

type editorState struct {
	SessionID string            `json:"sessionId"`
	Name      string            `json:"name"`
	Tax       float64           `json:"tax"`
	Rows      int               `json:"rows"`
	TableLine int               `json:"tableLine"`
	Slots     map[int]int       `json:"slots"`
	Blocks    []json.RawMessage `json:"blocks"`
	Columns   []services.Column `json:"columns"`
	Totals    struct {
		SubtotalCents int64 `json:"subtotalCents"`
		TotalCents    int64 `json:"totalCents"`
	} `json:"previewTotals"`
}

// editorFixture holds an agency with one open editor session.
type editorFixture struct {
	app      *pocketbase.PocketBase
	sessions *EditorSessions
	agencyID string
	session  string
}

func newEditorFixture(t *testing.T) *editorFixture {
	t.Helper()
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind", "NWS")
	f := &editorFixture{app: app, sessions: NewEditorSessions(0), agencyID: agency.Id}

	req := httptest.NewRequest(http.MethodPost, "/?fresh=true", nil)
	req.SetPathValue("id", agency.Id)
	rec := httptest.NewRecorder()
	if err := HandleEditorOpen(app, f.sessions)(newTestRequestEvent(app, req, rec)); err != nil {
		t.Fatalf("open returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("open: status %d: %s", rec.Code, rec.Body.String())
	}
	var st editorState
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("open: invalid JSON: %v", err)
	}
	f.session = st.SessionID
	return f
}

// call runs h with the fixture's agency and session path values plus any
// extra name/value pairs.
func (f *editorFixture) call(t *testing.T, h func(*core.RequestEvent) error, method, body string, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = jsonRequest(method, "/", body)
	} else {
		req = httptest.NewRequest(method, "/", nil)
	}
	req.SetPathValue("id", f.agencyID)
	req.SetPathValue("sessionId", f.session)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	rec := httptest.NewRecorder()
	if err := h(newTestRequestEvent(f.app, req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) editorState {
	t.Helper()
	var st editorState
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("invalid state JSON: %v\n%s", err, rec.Body.String())
	}
	return st
}

func TestHandleEditorOpen_FromStoredTemplate(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	agency := testhelpers.CreateTestAgency(t, app, "Northwind", "NWS")
	tpl := services.DefaultTemplate()
	tpl.Name = "Weekly"
	tpl.Tax = 10
	if _, err := services.UpsertAgencyTemplate(app, agency.Id, tpl); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.SetPathValue("id", agency.Id)
	rec := httptest.NewRecorder()
	HandleEditorOpen(app, NewEditorSessions(0))(newTestRequestEvent(app, req, rec))

	st := decodeState(t, rec)
	if st.Name != "Weekly" || st.Tax != 10 {
		t.Errorf("state = %+v", st)
	}
	if st.Totals.SubtotalCents == 0 || st.Totals.TotalCents <= st.Totals.SubtotalCents {
		t.Errorf("preview totals = %+v", st.Totals)
	}
}

func TestHandleEditor_DefaultState(t *testing.T) {
	f := newEditorFixture(t)
	st := decodeState(t, f.call(t, HandleEditorGet(f.app, f.sessions), http.MethodGet, ""))

	if st.Rows != services.DefaultRows || st.TableLine != services.DefaultTableLine {
		t.Errorf("rows %d table line %d", st.Rows, st.TableLine)
	}
	if len(st.Blocks) != 3 || len(st.Columns) != 2 {
		t.Errorf("%d blocks, %d columns", len(st.Blocks), len(st.Columns))
	}
	if st.Slots[1] != 1 || st.Slots[2] != 2 || st.Slots[3] != 3 {
		t.Errorf("slots = %v", st.Slots)
	}
}

func TestHandleEditor_BlockOperations(t *testing.T) {
	f := newEditorFixture(t)

	rec := f.call(t, HandleEditorAddBlock(f.app, f.sessions), http.MethodPost, `{"slot":4,"kind":"horizontal"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add block: status %d: %s", rec.Code, rec.Body.String())
	}
	st := decodeState(t, rec)
	if st.Slots[4] != 4 || len(st.Blocks) != 4 {
		t.Fatalf("after add: slots %v, %d blocks", st.Slots, len(st.Blocks))
	}

	rec = f.call(t, HandleEditorAddPair(f.app, f.sessions), http.MethodPost, "", "blockId", "4")
	if rec.Code != http.StatusCreated {
		t.Fatalf("add pair: status %d", rec.Code)
	}
	rec = f.call(t, HandleEditorUpdatePair(f.app, f.sessions), http.MethodPatch, `{"key":"Email","value":"worker.email"}`, "blockId", "4", "index", "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("update pair: status %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"key":"Email","value":"worker.email"`) {
		t.Errorf("pair not updated: %s", rec.Body.String())
	}
	rec = f.call(t, HandleEditorRemovePair(f.app, f.sessions), http.MethodDelete, "", "blockId", "4", "index", "0")
	if rec.Code != http.StatusOK {
		t.Errorf("remove pair: status %d", rec.Code)
	}

	rec = f.call(t, HandleEditorSwap(f.app, f.sessions), http.MethodPost, `{"blockId":3,"toSlot":5}`)
	st = decodeState(t, rec)
	if st.Slots[5] != 3 {
		t.Errorf("swap: slots = %v", st.Slots)
	}
	if _, ok := st.Slots[3]; ok {
		t.Errorf("swap into empty slot should clear the source: %v", st.Slots)
	}

	rec = f.call(t, HandleEditorRemoveBlock(f.app, f.sessions), http.MethodDelete, "", "blockId", "4")
	st = decodeState(t, rec)
	if len(st.Blocks) != 3 {
		t.Errorf("remove: %d blocks left", len(st.Blocks))
	}
}

func TestHandleEditor_Rejections(t *testing.T) {
	f := newEditorFixture(t)

	tests := []struct {
		name       string
		handler    func(*core.RequestEvent) error
		method     string
		body       string
		pathValues []string
		wantStatus int
	}{
		{"remove locked block", HandleEditorRemoveBlock(f.app, f.sessions), http.MethodDelete, "", []string{"blockId", "1"}, http.StatusBadRequest},
		{"retitle locked block", HandleEditorUpdateBlock(f.app, f.sessions), http.MethodPatch, `{"title":"X"}`, []string{"blockId", "2"}, http.StatusBadRequest},
		{"unknown field", HandleEditorUpdateBlock(f.app, f.sessions), http.MethodPatch, `{"field":"worker.shoe_size"}`, []string{"blockId", "1"}, http.StatusBadRequest},
		{"non-numeric block id", HandleEditorRemoveBlock(f.app, f.sessions), http.MethodDelete, "", []string{"blockId", "abc"}, http.StatusBadRequest},
		{"occupied slot", HandleEditorAddBlock(f.app, f.sessions), http.MethodPost, `{"slot":1,"kind":"vertical"}`, nil, http.StatusBadRequest},
		{"slot out of range", HandleEditorAddBlock(f.app, f.sessions), http.MethodPost, `{"slot":99,"kind":"vertical"}`, nil, http.StatusBadRequest},
		{"unknown kind", HandleEditorAddBlock(f.app, f.sessions), http.MethodPost, `{"slot":6,"kind":"diagonal"}`, nil, http.StatusBadRequest},
		{"tax out of range", HandleEditorMeta(f.app, f.sessions), http.MethodPatch, `{"name":"x","description":"y","tax":150}`, nil, http.StatusBadRequest},
		{"bad column data", HandleEditorUpdateColumn(f.app, f.sessions), http.MethodPatch, `{"title":"X","data":"worker.mood","size":1}`, []string{"columnId", "1"}, http.StatusBadRequest},
		{"remove unknown block", HandleEditorRemoveBlock(f.app, f.sessions), http.MethodDelete, "", []string{"blockId", "77"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.call(t, tt.handler, tt.method, tt.body, tt.pathValues...)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	st := decodeState(t, f.call(t, HandleEditorGet(f.app, f.sessions), http.MethodGet, ""))
	if len(st.Blocks) != 3 {
		t.Errorf("rejected operations changed the state: %d blocks", len(st.Blocks))
	}
}

func TestHandleEditor_RowsColumnsMeta(t *testing.T) {
	f := newEditorFixture(t)

	st := decodeState(t, f.call(t, HandleEditorInsertRow(f.app, f.sessions), http.MethodPost, `{"beforeTable":true}`))
	if st.Rows != services.DefaultRows+1 || st.TableLine != services.DefaultTableLine+1 {
		t.Errorf("insert before table: rows %d table line %d", st.Rows, st.TableLine)
	}
	st = decodeState(t, f.call(t, HandleEditorInsertRow(f.app, f.sessions), http.MethodPost, `{"beforeTable":false}`))
	if st.Rows != services.DefaultRows+2 || st.TableLine != services.DefaultTableLine+1 {
		t.Errorf("insert after table: rows %d table line %d", st.Rows, st.TableLine)
	}

	rec := f.call(t, HandleEditorAddColumn(f.app, f.sessions), http.MethodPost, "")
	st = decodeState(t, rec)
	if rec.Code != http.StatusCreated || len(st.Columns) != 3 || st.Columns[2].ID != 3 {
		t.Fatalf("add column: %d %+v", rec.Code, st.Columns)
	}
	st = decodeState(t, f.call(t, HandleEditorUpdateColumn(f.app, f.sessions), http.MethodPatch,
		`{"title":"Rate","data":"worker.hourlyRate","size":2}`, "columnId", "3"))
	if st.Columns[2].Title != "Rate" || st.Columns[2].Data != services.ColumnHourlyRate || st.Columns[2].Size != 2 {
		t.Errorf("update column: %+v", st.Columns[2])
	}
	st = decodeState(t, f.call(t, HandleEditorRemoveColumn(f.app, f.sessions), http.MethodDelete, "", "columnId", "1"))
	if len(st.Columns) != 2 {
		t.Errorf("remove column: %+v", st.Columns)
	}

	st = decodeState(t, f.call(t, HandleEditorMeta(f.app, f.sessions), http.MethodPatch, `{"name":"Weekly","description":"Week","tax":12.5}`))
	if st.Name != "Weekly" || st.Tax != 12.5 {
		t.Errorf("meta: %+v", st)
	}
}

func TestHandleEditorSave(t *testing.T) {
	f := newEditorFixture(t)
	f.call(t, HandleEditorMeta(f.app, f.sessions), http.MethodPatch, `{"name":"Weekly","description":"Week","tax":10}`)
	f.call(t, HandleEditorAddBlock(f.app, f.sessions), http.MethodPost, `{"slot":6,"kind":"vertical"}`)

	rec := f.call(t, HandleEditorSave(f.app, f.sessions), http.MethodPost, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("save: status %d: %s", rec.Code, rec.Body.String())
	}

	tpl, id, err := services.GetAgencyTemplate(f.app, f.agencyID)
	if err != nil || id == "" {
		t.Fatalf("stored template: %q, %v", id, err)
	}
	if tpl.Name != "Weekly" || tpl.Tax != 10 {
		t.Errorf("stored = %+v", tpl)
	}
	if err := tpl.Validate(); err != nil {
		t.Errorf("stored template is invalid: %v", err)
	}

	// saving again overwrites the same record
	f.call(t, HandleEditorSave(f.app, f.sessions), http.MethodPost, "")
	if _, again, _ := services.GetAgencyTemplate(f.app, f.agencyID); again != id {
		t.Errorf("second save created %s, want %s", again, id)
	}
}

func TestHandleEditorPreview(t *testing.T) {
	f := newEditorFixture(t)

	rec := f.call(t, HandleEditorPreview(f.app, f.sessions, services.DocumentOptions{CurrencySymbol: "$"}), http.MethodGet, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: status %d", rec.Code)
	}
	testhelpers.AssertHTMLContains(t, rec.Body.String(), "Invoice Number", "Bill To", "REG Hours")

	rec = f.call(t, HandleEditorPreviewPDF(f.app, f.sessions, services.DocumentOptions{}), http.MethodGet, "")
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("preview pdf: status %d", rec.Code)
	}
}

func TestHandleEditor_SessionScope(t *testing.T) {
	f := newEditorFixture(t)
	other := testhelpers.CreateTestAgency(t, f.app, "Other", "OT")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetPathValue("id", other.Id)
	req.SetPathValue("sessionId", f.session)
	rec := httptest.NewRecorder()
	HandleEditorGet(f.app, f.sessions)(newTestRequestEvent(f.app, req, rec))
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign agency: expected 404, got %d", rec.Code)
	}

	if rec := f.call(t, HandleEditorClose(f.app, f.sessions), http.MethodDelete, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("close: status %d", rec.Code)
	}
	if rec := f.call(t, HandleEditorGet(f.app, f.sessions), http.MethodGet, ""); rec.Code != http.StatusNotFound {
		t.Errorf("closed session: expected 404, got %d", rec.Code)
	}
}
