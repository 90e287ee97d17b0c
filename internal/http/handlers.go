package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"panen/internal/core"
	"panen/internal/export/excel"
	"panen/internal/tally"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"period": string(s.svc.CurrentPeriodKey(s.now())),
	})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	names := []string{}
	if g := s.svc.Groups(); g != nil {
		names = g.Names()
	}
	writeJSON(w, http.StatusOK, map[string][]string{"groups": names})
}

type selectGroupRequest struct {
	Identity string `json:"identity"`
	Group    string `json:"group"`
}

func (s *Server) handleSelectGroup(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !s.svc.GroupMode() {
		writeError(w, http.StatusConflict, "not_group_mode", "service runs in single-tenant mode")
		return
	}
	var req selectGroupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Identity == "" || req.Group == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "identity and group are required")
		return
	}
	if !s.svc.Groups().Contains(req.Group) {
		writeError(w, http.StatusUnprocessableEntity, "unknown_group", fmt.Sprintf("group %q is not registered", req.Group))
		return
	}

	s.sessions.choose(req.Identity, req.Group)
	slog.InfoContext(r.Context(), "Group selected",
		"component", "http", "identity", req.Identity, "group", req.Group)
	writeJSON(w, http.StatusOK, map[string]string{"identity": req.Identity, "group": req.Group})
}

type messageRequest struct {
	Identity    string `json:"identity"`
	DisplayName string `json:"display_name,omitempty"`
	Group       string `json:"group,omitempty"`
	Text        string `json:"text"`
}

// handleMessage ingests one chat-style message. In group mode a sender
// without a selection is prompted with the group list; their next
// message naming a group completes the dialogue.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req messageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Identity == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "identity is required")
		return
	}
	s.directory.Set(req.Identity, req.DisplayName)

	group := req.Group
	if s.svc.GroupMode() && group == "" {
		group = s.sessions.group(req.Identity)

		// Second half of the selection dialogue: a prompted sender
		// answering with a group name is selecting, not reporting.
		if group == "" && s.sessions.isPending(req.Identity) {
			answer := strings.TrimSpace(req.Text)
			if s.svc.Groups().Contains(answer) {
				s.sessions.choose(req.Identity, answer)
				writeJSON(w, http.StatusOK, map[string]string{"identity": req.Identity, "group": answer})
				return
			}
		}
	}

	qty, err := s.svc.Record(r.Context(), group, req.Identity, req.Text, s.now())
	switch {
	case errors.Is(err, core.ErrNoQuantity):
		writeError(w, http.StatusUnprocessableEntity, "no_quantity", "message contains no recognizable quantity")
		return
	case errors.Is(err, core.ErrQuantityOutOfRange):
		writeError(w, http.StatusUnprocessableEntity, "quantity_out_of_range", "quantity does not fit in 64 bits")
		return
	case errors.Is(err, core.ErrNoGroupSelected):
		s.sessions.markPending(req.Identity)
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "no_group_selected",
			Message: "select a group first",
			Groups:  s.svc.Groups().Names(),
		})
		return
	case errors.Is(err, core.ErrUnknownGroup):
		writeError(w, http.StatusUnprocessableEntity, "unknown_group", fmt.Sprintf("group %q is not registered", group))
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Failed to record entry",
			"component", "http", "identity", req.Identity, "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to record entry")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"quantity": qty,
		"period":   string(s.svc.CurrentPeriodKey(s.now())),
	})
}

type reportLineResponse struct {
	Seq      int    `json:"seq"`
	Label    string `json:"label"`
	Quantity int64  `json:"quantity"`
	At       string `json:"at"`
}

type reportResponse struct {
	Date  string               `json:"date"`
	Lines []reportLineResponse `json:"lines"`
	Total int64                `json:"total"`
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	now := s.now()
	report, err := s.svc.DailyReport(r.Context(), r.URL.Query().Get("group"), now, now)
	if s.writeScopeError(w, err) {
		return
	}

	resp := reportResponse{Date: report.Date, Lines: []reportLineResponse{}, Total: report.Total}
	for _, line := range report.Lines {
		resp.Lines = append(resp.Lines, reportLineResponse{
			Seq:      line.Seq,
			Label:    line.Label,
			Quantity: line.Quantity,
			At:       line.At.Format(core.TimestampLayout),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExportDownload streams the current period as an xlsx workbook.
func (s *Server) handleExportDownload(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	doc, err := s.svc.ExportPeriod(r.Context(), r.URL.Query().Get("group"), s.now())
	if s.writeScopeError(w, err) {
		return
	}

	data, err := excel.Encode(doc)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to encode export",
			"component", "http", "period", string(doc.Period), "error", err)
		writeError(w, http.StatusInternalServerError, "internal", "failed to encode export")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", tally.ExportFileName(doc.Period)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleExportWrite hands the current period to the configured export
// writer (xlsx file, Google spreadsheet) and returns the reference.
func (s *Server) handleExportWrite(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	doc, err := s.svc.ExportPeriod(r.Context(), r.URL.Query().Get("group"), s.now())
	if s.writeScopeError(w, err) {
		return
	}

	ref, err := s.writer.Write(r.Context(), doc)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to write export",
			"component", "http", "period", string(doc.Period), "error", err)
		writeError(w, http.StatusBadGateway, "export_failed", "failed to write export")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"ref":    ref,
		"period": string(doc.Period),
	})
}

// writeScopeError maps group-scope errors on read paths; reports true
// when a response was written.
func (s *Server) writeScopeError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, core.ErrNoGroupSelected):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:   "no_group_selected",
			Message: "pass ?group= to scope this call",
			Groups:  s.svc.Groups().Names(),
		})
	case errors.Is(err, core.ErrUnknownGroup):
		writeError(w, http.StatusUnprocessableEntity, "unknown_group", "group is not registered")
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
	return true
}
