package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/export"
	"github.com/JonMunkholm/sheetimport/internal/web/templates"
)

// reportRowLimit caps the invalid rows listed per sheet in the HTML report.
const reportRowLimit = 200

// formOverhead is the multipart framing allowed on top of the file size.
const formOverhead = 1 << 20

// ImportResponse is the body of an accepted upload.
type ImportResponse struct {
	ID        string `json:"id"`
	StatusURL string `json:"statusUrl"`
	ReportURL string `json:"reportUrl"`
}

// handleImport streams the multipart "file" part to a spool file and starts
// a background import. The "persist" field (form or query) requests storing
// the valid records.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "layoutKey")
	if _, ok := core.Get(key); !ok {
		err := fmt.Errorf("%w: %s", core.ErrLayoutNotFound, key)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)

	up, persist, err := s.readUpload(r)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	if q := r.URL.Query().Get("persist"); q != "" {
		persist, _ = strconv.ParseBool(q)
	}

	ctx := WithRequestMetadata(r.Context(), r)
	id, err := s.service.Start(ctx, key, up, persist)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	resp := ImportResponse{
		ID:        id,
		StatusURL: "/api/import/" + id,
		ReportURL: "/api/import/" + id + "/report",
	}
	if !wantsJSON(r) {
		http.Redirect(w, r, resp.ReportURL, http.StatusSeeOther)
		return
	}
	w.Header().Set("Location", resp.StatusURL)
	writeJSON(w, r, http.StatusAccepted, resp)
}

// readUpload walks the multipart parts, spooling "file" and reading
// "persist". Other parts are skipped.
func (s *Server) readUpload(r *http.Request) (core.Upload, bool, error) {
	var (
		up      core.Upload
		spooled *core.SpooledFile
		persist bool
	)
	fail := func(err error) (core.Upload, bool, error) {
		if spooled != nil {
			spooled.Close()
		}
		return core.Upload{}, false, err
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return fail(fmt.Errorf("%w: %v", errNoFile, err))
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("read upload: %w", err))
		}

		switch part.FormName() {
		case "file":
			if spooled != nil || part.FileName() == "" {
				part.Close()
				continue
			}
			spooled, err = core.Spool(part, s.cfg.Import.SpoolDir, s.cfg.Import.MaxFileSize)
			part.Close()
			if err != nil {
				return fail(err)
			}
			up.Name = filepath.Base(part.FileName())
		case "persist":
			v, err := io.ReadAll(io.LimitReader(part, 16))
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("read upload: %w", err))
			}
			persist, _ = strconv.ParseBool(strings.TrimSpace(string(v)))
		default:
			part.Close()
		}
	}

	if spooled == nil {
		return fail(errNoFile)
	}
	up.Size = spooled.Size()
	up.File = spooled
	return up, persist, nil
}

// job resolves the importID URL parameter, writing the error response when
// the job does not exist.
func (s *Server) job(w http.ResponseWriter, r *http.Request) (*core.Job, bool) {
	job, err := s.service.Job(chi.URLParam(r, "importID"))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return job, true
}

// handleImportStatus returns the job status as JSON.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, job.Status())
}

// handleImportReport renders the job outcome as HTML.
func (s *Server) handleImportReport(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}

	st := job.Status()
	var sheets []templates.SheetReport
	if res, _ := job.Result(); res != nil {
		for _, sum := range res.Sheets() {
			invalid := res.Invalid(sum.Schema)
			sr := templates.SheetReport{Summary: sum, Invalid: invalid}
			if len(invalid) > reportRowLimit {
				sr.Invalid = invalid[:reportRowLimit]
				sr.Hidden = len(invalid) - reportRowLimit
			}
			sheets = append(sheets, sr)
		}
	}

	if st.FinishedAt == nil {
		w.Header().Set("Refresh", "2")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.ImportReport(st, sheets).Render(r.Context(), w)
}

// handleInvalidRows downloads the invalid rows of a finished job as a
// workbook that can be corrected and imported again.
func (s *Server) handleInvalidRows(w http.ResponseWriter, r *http.Request) {
	job, ok := s.job(w, r)
	if !ok {
		return
	}

	res, _ := job.Result()
	if res == nil {
		s.respondError(w, r, errImportRunning, statusFor(errImportRunning))
		return
	}
	def, ok := core.Get(job.Layout)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrLayoutNotFound, job.Layout)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	var buf bytes.Buffer
	if err := export.InvalidRows(&buf, def, res); err != nil {
		s.respondError(w, r, fmt.Errorf("build error workbook: %w", err), http.StatusInternalServerError)
		return
	}

	name := strings.TrimSuffix(job.FileName, filepath.Ext(job.FileName))
	sendWorkbook(w, fmt.Sprintf("%s - invalid rows %s.xlsx", name, time.Now().Format("20060102_150405")), &buf)
}

// handleCancelImport cancels a running job.
func (s *Server) handleCancelImport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "importID")
	if err := s.service.Cancel(id); err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"id": id, "status": "cancelled"})
}
