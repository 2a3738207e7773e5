package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/export"
	"github.com/JonMunkholm/sheetimport/internal/web/templates"
)

// healthTimeout bounds the database ping of /healthz.
const healthTimeout = 2 * time.Second

// LayoutsResponse is the body of GET /api/layouts.
type LayoutsResponse struct {
	Layouts    []core.LayoutInfo `json:"layouts"`
	Groups     []string          `json:"groups"`
	CanPersist bool              `json:"canPersist"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// handleIndex renders the layout list with upload forms.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.LayoutList(s.service.Layouts(), s.service.CanPersist()).Render(r.Context(), w)
}

// handleHealth reports liveness, database reachability and import load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "disabled",
		Imports:  s.service.Limiter().Status(),
	}
	status := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, r, status, resp)
}

// handleListLayouts returns the registered layouts.
func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, LayoutsResponse{
		Layouts:    s.service.Layouts(),
		Groups:     core.Groups(),
		CanPersist: s.service.CanPersist(),
	})
}

// handleTemplate downloads the blank workbook of a layout.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "layoutKey")
	def, ok := core.Get(key)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrLayoutNotFound, key)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := export.Template(&buf, def); err != nil {
		s.respondError(w, r, fmt.Errorf("build template: %w", err), http.StatusInternalServerError)
		return
	}
	sendWorkbook(w, key+"_template.xlsx", &buf)
}

// sendWorkbook writes buf as an .xlsx attachment.
func sendWorkbook(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
