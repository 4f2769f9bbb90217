package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"invoicedesk/services"
	"invoicedesk/views"
)

type editorStateResponse struct {
	SessionID   string                 `json:"sessionId"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Tax         float64                `json:"tax"`
	Rows        int                    `json:"rows"`
	TableLine   int                    `json:"tableLine"`
	Slots       map[int]int            `json:"slots"`
	Blocks      []services.Block       `json:"blocks"`
	Columns     []services.Column      `json:"columns"`
	Totals      services.InvoiceTotals `json:"previewTotals"`
}

func newEditorStateResponse(id string, s *services.EditorState) editorStateResponse {
	sample := services.WorkerLineItem(services.SampleWorker)
	return editorStateResponse{
		SessionID:   id,
		Name:        s.Name,
		Description: s.Description,
		Tax:         s.Tax,
		Rows:        s.Rows,
		TableLine:   s.TableLine,
		Slots:       s.Slots,
		Blocks:      s.Blocks,
		Columns:     s.Columns,
		Totals:      s.PreviewTotals(sample.AmountCents),
	}
}

func pathInt(e *core.RequestEvent, name string) (int, error) {
	v, err := strconv.Atoi(e.Request.PathValue(name))
	if err != nil {
		return 0, &services.ValidationError{Field: name, Message: fmt.Sprintf("%s must be a number", name)}
	}
	return v, nil
}

func editorSession(app *pocketbase.PocketBase, sessions *EditorSessions, e *core.RequestEvent) (*EditorSession, services.AgencyInfo, error) {
	agency, err := scopedAgency(app, e)
	if err != nil {
		return nil, services.AgencyInfo{}, err
	}
	sess, err := sessions.Get(agency.ID, e.Request.PathValue("sessionId"))
	if err != nil {
		return nil, services.AgencyInfo{}, err
	}
	return sess, agency, nil
}

// applyEditorOp runs op on the session state and answers with the
// resulting state. The response is encoded while the session is locked.
func applyEditorOp(app *pocketbase.PocketBase, sessions *EditorSessions, e *core.RequestEvent, area string, status int, op func(*services.EditorState) error) error {
	sess, _, err := editorSession(app, sessions, e)
	if err != nil {
		return respondError(e, area, err)
	}

	var body []byte
	err = sess.Do(func(s *services.EditorState) error {
		if err := op(s); err != nil {
			return err
		}
		var err error
		body, err = json.Marshal(newEditorStateResponse(sess.ID, s))
		return err
	})
	if err != nil {
		return respondError(e, area, err)
	}
	return e.Blob(status, "application/json", body)
}

// HandleEditorOpen starts an editor session from the agency's stored
// template. ?fresh=true starts from the default layout instead.
func HandleEditorOpen(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		agency, err := scopedAgency(app, e)
		if err != nil {
			return respondError(e, "editor_open", err)
		}

		state := services.NewEditorState()
		if e.Request.URL.Query().Get("fresh") != "true" {
			tpl, _, err := services.GetAgencyTemplate(app, agency.ID)
			if err != nil {
				return respondError(e, "editor_open", err)
			}
			state = services.Deserialize(tpl)
		}

		sess := sessions.Open(agency.ID, state)
		var body []byte
		err = sess.Do(func(s *services.EditorState) error {
			var err error
			body, err = json.Marshal(newEditorStateResponse(sess.ID, s))
			return err
		})
		if err != nil {
			return respondError(e, "editor_open", err)
		}
		return e.Blob(http.StatusCreated, "application/json", body)
	}
}

func HandleEditorGet(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return applyEditorOp(app, sessions, e, "editor_get", http.StatusOK, func(*services.EditorState) error { return nil })
	}
}

func HandleEditorClose(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, _, err := editorSession(app, sessions, e)
		if err != nil {
			return respondError(e, "editor_close", err)
		}
		sessions.Close(sess.ID)
		return e.NoContent(http.StatusNoContent)
	}
}

func HandleEditorSwap(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req struct {
			BlockID int `json:"blockId"`
			ToSlot  int `json:"toSlot"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "editor_swap", err)
		}
		return applyEditorOp(app, sessions, e, "editor_swap", http.StatusOK, func(s *services.EditorState) error {
			return s.DragSwap(req.BlockID, req.ToSlot)
		})
	}
}

func HandleEditorInsertRow(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req struct {
			BeforeTable bool `json:"beforeTable"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "editor_rows", err)
		}
		return applyEditorOp(app, sessions, e, "editor_rows", http.StatusOK, func(s *services.EditorState) error {
			s.InsertRow(req.BeforeTable)
			return nil
		})
	}
}

func HandleEditorAddBlock(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req struct {
			Slot int                `json:"slot"`
			Kind services.BlockKind `json:"kind"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "editor_add_block", err)
		}
		return applyEditorOp(app, sessions, e, "editor_add_block", http.StatusCreated, func(s *services.EditorState) error {
			_, err := s.AddBlock(req.Slot, req.Kind)
			return err
		})
	}
}

// HandleEditorUpdateBlock changes the title and/or field of a vertical block.
func HandleEditorUpdateBlock(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		blockID, err := pathInt(e, "blockId")
		if err != nil {
			return respondError(e, "editor_update_block", err)
		}
		var req struct {
			Title *string `json:"title"`
			Field *string `json:"field"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "editor_update_block", err)
		}
		if req.Field != nil {
			if err := services.ValidateFieldRef(services.FieldRef(*req.Field)); err != nil {
				return respondError(e, "editor_update_block", err)
			}
		}
		return applyEditorOp(app, sessions, e, "editor_update_block", http.StatusOK, func(s *services.EditorState) error {
			if req.Title != nil {
				if err := s.SetBlockTitle(blockID, *req.Title); err != nil {
					return err
				}
			}
			if req.Field != nil {
				return s.SetBlockField(blockID, services.FieldRef(*req.Field))
			}
			return nil
		})
	}
}

// HandleEditorRemoveBlock deletes a block. Locked blocks are refused;
// unknown ids succeed without changes.
func HandleEditorRemoveBlock(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		blockID, err := pathInt(e, "blockId")
		if err != nil {
			return respondError(e, "editor_remove_block", err)
		}
		return applyEditorOp(app, sessions, e, "editor_remove_block", http.StatusOK, func(s *services.EditorState) error {
			if err := s.CheckRemovable(blockID); err != nil {
				return err
			}
			s.RemoveBlock(blockID)
			return nil
		})
	}
}

func HandleEditorAddPair(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		blockID, err := pathInt(e, "blockId")
		if err != nil {
			return respondError(e, "editor_add_pair", err)
		}
		return applyEditorOp(app, sessions, e, "editor_add_pair", http.StatusCreated, func(s *services.EditorState) error {
			return s.AddKeyValue(blockID)
		})
	}
}

func HandleEditorUpdatePair(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		blockID, err := pathInt(e, "blockId")
		if err != nil {
			return respondError(e, "editor_update_pair", err)
		}
		index, err := pathInt(e, "index")
		if err != nil {
			return respondError(e, "editor_update_pair", err)
		}
		var kv services.KeyValue
		if err := bindJSON(e, &kv); err != nil {
			return respondError(e, "editor_update_pair", err)
		}
		return applyEditorOp(app, sessions, e, "editor_update_pair", http.StatusOK, func(s *services.EditorState) error {
			return s.SetKeyValue(blockID, index, kv)
		})
	}
}

func HandleEditorRemovePair(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		blockID, err := pathInt(e, "blockId")
		if err != nil {
			return respondError(e, "editor_remove_pair", err)
		}
		index, err := pathInt(e, "index")
		if err != nil {
			return respondError(e, "editor_remove_pair", err)
		}
		return applyEditorOp(app, sessions, e, "editor_remove_pair", http.StatusOK, func(s *services.EditorState) error {
			return s.RemoveKeyValue(blockID, index)
		})
	}
}

func HandleEditorAddColumn(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		return applyEditorOp(app, sessions, e, "editor_add_column", http.StatusCreated, func(s *services.EditorState) error {
			s.AddColumn()
			return nil
		})
	}
}

func HandleEditorUpdateColumn(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		columnID, err := pathInt(e, "columnId")
		if err != nil {
			return respondError(e, "editor_update_column", err)
		}
		var req struct {
			Title string              `json:"title"`
			Data  services.ColumnData `json:"data"`
			Size  float64             `json:"size"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "editor_update_column", err)
		}
		return applyEditorOp(app, sessions, e, "editor_update_column", http.StatusOK, func(s *services.EditorState) error {
			return s.UpdateColumn(services.Column{ID: columnID, Title: req.Title, Data: req.Data, Size: req.Size})
		})
	}
}

func HandleEditorRemoveColumn(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		columnID, err := pathInt(e, "columnId")
		if err != nil {
			return respondError(e, "editor_remove_column", err)
		}
		return applyEditorOp(app, sessions, e, "editor_remove_column", http.StatusOK, func(s *services.EditorState) error {
			s.RemoveColumn(columnID)
			return nil
		})
	}
}

func HandleEditorMeta(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var req struct {
			Name        string  `json:"name"`
			Description string  `json:"description"`
			Tax         float64 `json:"tax"`
		}
		if err := bindJSON(e, &req); err != nil {
			return respondError(e, "editor_meta", err)
		}
		return applyEditorOp(app, sessions, e, "editor_meta", http.StatusOK, func(s *services.EditorState) error {
			return s.SetMeta(req.Name, req.Description, req.Tax)
		})
	}
}

// snapshotTemplate serializes the session state under its lock.
func snapshotTemplate(sess *EditorSession) services.Template {
	var tpl services.Template
	_ = sess.Do(func(s *services.EditorState) error {
		tpl = services.Serialize(s)
		return nil
	})
	return tpl
}

// HandleEditorSave stores the session's template for the agency. The
// session stays open.
func HandleEditorSave(app *pocketbase.PocketBase, sessions *EditorSessions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, agency, err := editorSession(app, sessions, e)
		if err != nil {
			return respondError(e, "editor_save", err)
		}

		tpl := snapshotTemplate(sess)
		id, err := services.UpsertAgencyTemplate(app, agency.ID, tpl)
		if err != nil {
			return respondError(e, "editor_save", err)
		}
		return e.JSON(http.StatusOK, templateResponse{ID: id, Template: tpl})
	}
}

func previewBlock(s *services.EditorState, slot int, ctx services.InvoiceContext) *views.PreviewBlock {
	id, ok := s.Slots[slot]
	if !ok {
		return nil
	}
	b, ok := s.Block(id)
	if !ok {
		return nil
	}

	out := &views.PreviewBlock{ID: id, Slot: slot, Locked: b.IsLocked()}
	switch blk := b.(type) {
	case *services.VerticalBlock:
		out.Vertical = true
		out.Pairs = []views.PreviewPair{{Label: blk.Title, Value: services.ResolveField(blk.Field, ctx)}}
	case *services.HorizontalBlock:
		for _, kv := range blk.KeyValues {
			out.Pairs = append(out.Pairs, views.PreviewPair{Label: kv.Key, Value: services.ResolveField(kv.Value, ctx)})
		}
	}
	return out
}

// buildPreviewData renders the editor state with the sample worker.
func buildPreviewData(sessionID string, s *services.EditorState, agencyName string, opts services.DocumentOptions, now time.Time) views.TemplatePreviewData {
	doc := services.SampleInvoiceDocument(services.Serialize(s), agencyName, now, opts)
	totals := s.PreviewTotals(services.SumLineItems(doc.Items))
	header, rows := services.TableCells(doc)

	data := views.TemplatePreviewData{
		SessionID:   sessionID,
		Name:        s.Name,
		Description: s.Description,
		Columns:     header,
		Subtotal:    services.FormatMoney(totals.SubtotalCents, doc.CurrencySymbol),
		TaxLabel:    fmt.Sprintf("Tax (%s%%)", strconv.FormatFloat(totals.TaxPercent, 'f', -1, 64)),
		Tax:         services.FormatMoney(totals.TaxCents, doc.CurrencySymbol),
		Total:       services.FormatMoney(totals.TotalCents, doc.CurrencySymbol),
	}
	if len(rows) > 0 {
		data.Cells = rows[0]
	}

	for r := 1; r <= s.Rows; r++ {
		row := views.PreviewRow{
			Number: r,
			Left:   previewBlock(s, 2*r-1, doc.Context),
			Right:  previewBlock(s, 2*r, doc.Context),
		}
		if r < s.TableLine {
			data.Before = append(data.Before, row)
		} else {
			data.After = append(data.After, row)
		}
	}
	return data
}

// HandleEditorPreview renders the editor layout as HTML with sample data.
func HandleEditorPreview(app *pocketbase.PocketBase, sessions *EditorSessions, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, agency, err := editorSession(app, sessions, e)
		if err != nil {
			return respondError(e, "editor_preview", err)
		}

		var data views.TemplatePreviewData
		_ = sess.Do(func(s *services.EditorState) error {
			data = buildPreviewData(sess.ID, s, agency.Name, opts, time.Now())
			return nil
		})

		var component templ.Component
		if e.Request.Header.Get("HX-Request") == "true" {
			component = views.TemplatePreviewContent(data)
		} else {
			component = views.TemplatePreviewPage(data)
		}
		e.Response.Header().Set("Content-Type", "text/html; charset=utf-8")
		return component.Render(e.Request.Context(), e.Response)
	}
}

// HandleEditorPreviewPDF renders the session's template with sample data.
func HandleEditorPreviewPDF(app *pocketbase.PocketBase, sessions *EditorSessions, opts services.DocumentOptions) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		sess, agency, err := editorSession(app, sessions, e)
		if err != nil {
			return respondError(e, "editor_preview_pdf", err)
		}

		doc := services.SampleInvoiceDocument(snapshotTemplate(sess), agency.Name, time.Now(), opts)
		pdfBytes, err := services.RenderInvoicePDF(doc)
		if err != nil {
			return respondError(e, "editor_preview_pdf", err)
		}

		e.Response.Header().Set("Content-Type", "application/pdf")
		e.Response.Header().Set("Content-Disposition", `inline; filename="preview.pdf"`)
		e.Response.Write(pdfBytes)
		return nil
	}
}
