package board

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/rota/core/editor"
	"github.com/kilianp07/rota/core/logger"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/monitoring"
	"github.com/kilianp07/rota/core/solver"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/infra/ingest"
	"github.com/kilianp07/rota/pkg/export"
)

const maxBody = 4 << 20

// Handler serves workspace routes.
type Handler struct {
	mgr    *workspace.Manager
	ingest ingest.Options
	log    logger.Logger
}

// CreateRequest is the JSON form of POST /workspaces. A text/csv body is
// accepted as well and carries the sheet only.
type CreateRequest struct {
	CSV      string              `json:"csv"`
	Roster   []model.RosterEntry `json:"roster,omitempty"`
	Settings *model.Settings     `json:"settings,omitempty"`
}

// WorkspaceResponse describes one workspace.
type WorkspaceResponse struct {
	ID       string         `json:"id"`
	Sessions []string       `json:"sessions"`
	Members  []string       `json:"members"`
	Settings model.Settings `json:"settings"`
	Edited   bool           `json:"edited"`
	Result   *solver.Result `json:"result,omitempty"`
	View     *editor.View   `json:"view,omitempty"`
}

// PickRequest picks a placement when Member is set, a header otherwise.
type PickRequest struct {
	Member  string `json:"member,omitempty"`
	Session string `json:"session"`
}

// PickResponse reports the outcome of an action and the resulting board.
type PickResponse struct {
	Result  editor.Result `json:"result"`
	Applied bool          `json:"applied"`
	Member  string        `json:"member,omitempty"`
	Other   string        `json:"other,omitempty"`
	From    string        `json:"from,omitempty"`
	To      string        `json:"to,omitempty"`
	View    editor.View   `json:"view"`
}

type errorBody struct {
	Error  string         `json:"error"`
	Issues []solver.Issue `json:"issues,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var cfgErr *solver.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workspace.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, solver.ErrInfeasible),
		errors.Is(err, workspace.ErrConfirmRequired),
		errors.Is(err, workspace.ErrNotGenerated):
		return http.StatusConflict
	case errors.Is(err, solver.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, model.ErrUnknownIndex),
		errors.Is(err, ingest.ErrFormat),
		errors.Is(err, model.ErrShape),
		errors.Is(err, model.ErrDuplicateMember),
		errors.Is(err, model.ErrDuplicateSession):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	var cfgErr *solver.ConfigurationError
	if errors.As(err, &cfgErr) {
		body.Issues = cfgErr.Issues
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("request failed: %v", err)
		monitoring.CaptureException(err, nil)
	}
	writeJSON(w, status, body)
}

func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, bool) {
	ws, err := h.mgr.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return ws, true
}

func describe(ws *workspace.Workspace) WorkspaceResponse {
	resp := WorkspaceResponse{
		ID:       ws.ID(),
		Sessions: ws.Matrix().Sessions(),
		Members:  ws.Matrix().Members(),
		Settings: ws.Settings(),
		Edited:   ws.Edited(),
	}
	if v, err := ws.View(); err == nil {
		res := ws.LastResult()
		resp.View = &v
		resp.Result = &res
	}
	return resp
}

// List handles GET /workspaces
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.mgr.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"ids": ids})
}

// Create handles POST /workspaces
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := CreateRequest{CSV: string(body)}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		req = CreateRequest{}
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
			return
		}
	}
	m, err := ingest.ReadCSV(bytes.NewReader([]byte(req.CSV)), h.ingest)
	if err != nil {
		h.fail(w, err)
		return
	}
	var roster *model.Roster
	if len(req.Roster) > 0 {
		roster = model.NewRoster(req.Roster)
	}
	var settings model.Settings
	if req.Settings != nil {
		if settings, err = ingest.AlignSettings(*req.Settings, m); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	ws := h.mgr.Create(m, roster, settings)
	h.log.Infof("workspace %s created: %d sessions, %d members", ws.ID(), m.NumSessions(), m.NumMembers())
	writeJSON(w, http.StatusCreated, describe(ws))
}

// Get handles GET /workspaces/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, describe(ws))
}

// Delete handles DELETE /workspaces/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.mgr.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateSettings handles PUT /workspaces/{id}/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var s model.Settings
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	aligned, err := ingest.AlignSettings(s, ws.Matrix())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := ws.UpdateSettings(aligned); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, describe(ws))
}

// BulkRequest sets the same bounds on every session.
type BulkRequest struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// BulkSettings handles PUT /workspaces/{id}/settings/bulk
func (h *Handler) BulkSettings(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req BulkRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	if req.Min < 0 || req.Min > req.Max {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid bounds %d-%d", req.Min, req.Max))
		return
	}
	s := ws.Settings()
	s.ApplyBulk(req.Min, req.Max)
	if err := ws.UpdateSettings(s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, describe(ws))
}

// Check handles POST /workspaces/{id}/check
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Check(); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Generate handles POST /workspaces/{id}/generate?confirm=
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	confirm, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if _, err := ws.Generate(confirm); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(ws))
}

// Pick handles POST /workspaces/{id}/pick
func (h *Handler) Pick(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	var req PickRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid body: %v", err))
		return
	}
	var out editor.Outcome
	var err error
	if req.Member != "" {
		out, err = ws.PickMember(req.Member, req.Session)
	} else {
		out, err = ws.PickSession(req.Session)
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondOutcome(w, ws, out)
}

// Cancel handles POST /workspaces/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	out, err := ws.Cancel()
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondOutcome(w, ws, out)
}

func (h *Handler) respondOutcome(w http.ResponseWriter, ws *workspace.Workspace, out editor.Outcome) {
	v, err := ws.View()
	if err != nil {
		h.fail(w, err)
		return
	}
	m := ws.Matrix()
	resp := PickResponse{Result: out.Result, Applied: out.Applied(), View: v}
	if out.Member >= 0 {
		resp.Member = m.Member(out.Member)
	}
	if out.Other >= 0 {
		resp.Other = m.Member(out.Other)
	}
	if out.From >= 0 {
		resp.From = m.Session(out.From)
	}
	if out.To >= 0 {
		resp.To = m.Session(out.To)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export handles GET /workspaces/{id}/export?format=csv|json|html|text
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	rows, err := ws.Rows()
	if err != nil {
		h.fail(w, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, rows); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ws.ID()+".csv"))
	case "json":
		w.Header().Set("Content-Type", "application/json")
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	_, _ = w.Write(buf.Bytes())
}

// Summary handles GET /workspaces/{id}/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	a, err := ws.Assignment()
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export.Summarize(a, ws.Settings()))
}

// Save handles POST /workspaces/{id}/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.mgr.Save(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
