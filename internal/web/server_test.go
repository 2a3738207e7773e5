package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/sheetimport/internal/coerce"
	"github.com/JonMunkholm/sheetimport/internal/config"
	"github.com/JonMunkholm/sheetimport/internal/core"
	"github.com/JonMunkholm/sheetimport/internal/export"
	"github.com/JonMunkholm/sheetimport/internal/schema"
)

type part struct {
	Code string
	Qty  int32
}

func partsLayout() core.LayoutDefinition {
	parts := schema.New("parts",
		schema.Field(schema.FieldSpec{Name: "code", Title: "Code", Order: 0, Type: coerce.Text, Required: true},
			func(p *part) *string { return &p.Code }),
		schema.Field(schema.FieldSpec{Name: "qty", Title: "Qty", Order: 1, Type: coerce.Integer},
			func(p *part) *int32 { return &p.Qty }),
	)
	return core.LayoutDefinition{
		Info:   core.LayoutInfo{Key: "parts", Group: "Inventory", Label: "Parts"},
		Sheets: []core.SheetDefinition{{Binder: parts}},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            8080,
			ShutdownTimeout: 5 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Import: config.ImportConfig{
			MaxFileSize:   1 << 20,
			MaxConcurrent: 2,
			MaxWaitTime:   time.Second,
			Timeout:       time.Minute,
			Retention:     time.Minute,
			StrictHeader:  true,
			Charset:       "utf-8",
		},
		Security: config.SecurityConfig{EnableCSP: true},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

type fakeDB struct{ err error }

func (f fakeDB) Ping(context.Context) error { return f.err }

func newTestServer(t *testing.T, cfg *config.Config, db Pinger) (*Server, *core.Service) {
	t.Helper()

	core.Clear()
	t.Cleanup(core.Clear)
	core.Register(partsLayout())

	svc, err := core.NewService(core.ServiceConfig{
		Importer:  core.NewImporter(core.Options{StrictHeader: cfg.Import.StrictHeader}, nil),
		Limiter:   core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		Timeout:   cfg.Import.Timeout,
		Retention: cfg.Import.Retention,
	})
	if err != nil {
		t.Fatal(err)
	}

	s := NewServer(svc, cfg, db)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(ctx)
	})
	return s, svc
}

func partsWorkbook(t *testing.T, rows ...[]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	all := append([][]any{{"Code", "Qty"}}, rows...)
	for i, r := range all {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		vals := r
		if err := f.SetSheetRow("Sheet1", cell, &vals); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if data != nil {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &body, mw.FormDataContentType()
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func upload(t *testing.T, s *Server, key string, data []byte) ImportResponse {
	t.Helper()
	body, ct := multipartBody(t, "parts.xlsx", data, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/layouts/"+key+"/import", body)
	req.Header.Set("Content-Type", ct)

	rec := do(s, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST import status = %d, body %s", rec.Code, rec.Body)
	}
	return decode[ImportResponse](t, rec)
}

func waitJob(t *testing.T, svc *core.Service, id string) *core.Job {
	t.Helper()
	job, err := svc.Job(id)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := job.Wait(ctx); err != nil {
		t.Fatalf("job did not finish: %v", err)
	}
	return job
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantDB     string
	}{
		{"no database", nil, http.StatusOK, "disabled"},
		{"database up", fakeDB{}, http.StatusOK, "ok"},
		{"database down", fakeDB{err: errors.New("connection refused")}, http.StatusServiceUnavailable, "unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, testConfig(), tt.db)
			rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			resp := decode[HealthResponse](t, rec)
			if resp.Database != tt.wantDB {
				t.Errorf("database = %q, want %q", resp.Database, tt.wantDB)
			}
			if resp.Imports.MaxConcurrent != 2 {
				t.Errorf("imports = %+v", resp.Imports)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "X-Request-ID"} {
		if rec.Header().Get(h) == "" {
			t.Errorf("header %s missing", h)
		}
	}
}

func TestListLayouts(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/layouts", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[LayoutsResponse](t, rec)
	if len(resp.Layouts) != 1 || resp.Layouts[0].Key != "parts" || resp.Layouts[0].Sheets[0] != "parts" {
		t.Errorf("layouts = %+v", resp.Layouts)
	}
	if resp.CanPersist {
		t.Error("canPersist = true without a persister")
	}
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `action="/api/layouts/parts/import"`) || !strings.Contains(body, "<h2>Inventory</h2>") {
		t.Errorf("index = %s", body)
	}
}

func TestTemplateDownload(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/layouts/parts/template", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != export.ContentType {
		t.Errorf("content type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "parts_template.xlsx") {
		t.Errorf("content disposition = %q", cd)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("template is not a workbook: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows("parts")
	if len(rows) != 1 || rows[0][0] != "Code" || rows[0][1] != "Qty" {
		t.Errorf("template rows = %q", rows)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/layouts/nope/template", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown layout status = %d", rec.Code)
	}
	if resp := decode[ErrorResponse](t, rec); resp.Code != "LAY001" {
		t.Errorf("unknown layout code = %q", resp.Code)
	}
}

func TestImport_Flow(t *testing.T) {
	s, svc := newTestServer(t, testConfig(), nil)

	resp := upload(t, s, "parts", partsWorkbook(t,
		[]any{"P-1", 3},
		[]any{"", 2},
		[]any{"P-3", "many"},
	))
	if resp.ID == "" || resp.StatusURL != "/api/import/"+resp.ID {
		t.Fatalf("response = %+v", resp)
	}
	waitJob(t, svc, resp.ID)

	rec := do(s, httptest.NewRequest(http.MethodGet, resp.StatusURL, nil))
	st := decode[core.JobStatus](t, rec)
	if st.Phase != core.PhaseComplete || st.FileName != "parts.xlsx" {
		t.Errorf("status = %+v", st)
	}
	if len(st.Sheets) != 1 || st.Sheets[0].Valid != 1 || st.Sheets[0].Invalid != 2 {
		t.Errorf("sheets = %+v", st.Sheets)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, resp.ReportURL, nil))
	report := rec.Body.String()
	for _, want := range []string{"parts.xlsx", "3 rows: 1 valid, 2 invalid", "cannot be blank", "enter an integer", "/errors"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q", want)
		}
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/import/"+resp.ID+"/errors", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("errors status = %d, body %s", rec.Code, rec.Body)
	}
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows("parts")
	if len(rows) != 3 || rows[0][2] != export.ErrorsTitle {
		t.Errorf("error workbook rows = %q", rows)
	}
}

func TestImport_FormRedirects(t *testing.T) {
	s, svc := newTestServer(t, testConfig(), nil)

	body, ct := multipartBody(t, "parts.xlsx", partsWorkbook(t, []any{"P-1", 1}), map[string]string{"persist": "false"})
	req := httptest.NewRequest(http.MethodPost, "/api/layouts/parts/import", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Accept", "text/html")

	rec := do(s, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasSuffix(loc, "/report") {
		t.Errorf("location = %q", loc)
	}
	id := strings.TrimSuffix(strings.TrimPrefix(loc, "/api/import/"), "/report")
	waitJob(t, svc, id)
}

func TestImport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		data       []byte
		query      string
		maxSize    int64
		wantStatus int
		wantCode   string
	}{
		{"unknown layout", "nope", []byte("x"), "", 0, http.StatusNotFound, "LAY001"},
		{"no file", "parts", nil, "", 0, http.StatusBadRequest, "FILE004"},
		{"too large", "parts", bytes.Repeat([]byte("x"), 200), "", 100, http.StatusRequestEntityTooLarge, "FILE001"},
		{"persist without database", "parts", []byte("x"), "?persist=true", 0, http.StatusConflict, "IMP005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.maxSize > 0 {
				cfg.Import.MaxFileSize = tt.maxSize
			}
			s, _ := newTestServer(t, cfg, nil)

			body, ct := multipartBody(t, "in.xlsx", tt.data, nil)
			req := httptest.NewRequest(http.MethodPost, "/api/layouts/"+tt.key+"/import"+tt.query, body)
			req.Header.Set("Content-Type", ct)

			rec := do(s, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if resp := decode[ErrorResponse](t, rec); resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestImport_FailedJob(t *testing.T) {
	s, svc := newTestServer(t, testConfig(), nil)

	resp := upload(t, s, "parts", []byte("code,qty\nP-1,1\n"))
	waitJob(t, svc, resp.ID)

	st := decode[core.JobStatus](t, do(s, httptest.NewRequest(http.MethodGet, resp.StatusURL, nil)))
	if st.Phase != core.PhaseFailed || st.Error == nil || st.Error.Code != "FILE002" {
		t.Errorf("status = %+v", st)
	}
}

func TestImport_NotFound(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	for _, path := range []string{"/api/import/missing", "/api/import/missing/report", "/api/import/missing/errors"} {
		rec := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
	}

	rec := do(s, httptest.NewRequest(http.MethodPost, "/api/import/missing/cancel", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("cancel status = %d", rec.Code)
	}
}

func TestErrorFormats(t *testing.T) {
	s, _ := newTestServer(t, testConfig(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/import/missing/report", nil)
	req.Header.Set("HX-Request", "true")
	rec := do(s, req)
	if !strings.Contains(rec.Body.String(), `class="alert alert-error"`) || !strings.Contains(rec.Body.String(), "IMP002") {
		t.Errorf("htmx error = %s", rec.Body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/import/missing", nil)
	req.Header.Set("Accept", "text/html")
	rec = do(s, req)
	if got := rec.Body.String(); !strings.Contains(got, "Import not found (IMP002)") {
		t.Errorf("plain error = %s", got)
	}
}

func TestAPIKey(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	s, _ := newTestServer(t, cfg, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/layouts", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no key status = %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/layouts", nil)
	req.Header.Set("X-API-Key", "wrong")
	if rec := do(s, req); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/layouts", nil)
	req.Header.Set("X-API-Key", "secret")
	if rec := do(s, req); rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d", rec.Code)
	}

	if rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rec.Code != http.StatusOK {
		t.Errorf("healthz needs no key, status = %d", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests rejected")
	}
	if rl.allow("a") {
		t.Error("third request allowed")
	}
	if !rl.allow("b") {
		t.Error("other client rejected")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("a") {
		t.Error("request after window rejected")
	}
}

func TestRateLimit_ImportRoute(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 100, ImportLimit: 1}
	s, svc := newTestServer(t, cfg, nil)

	resp := upload(t, s, "parts", partsWorkbook(t, []any{"P-1", 1}))
	waitJob(t, svc, resp.ID)

	body, ct := multipartBody(t, "parts.xlsx", partsWorkbook(t), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/layouts/parts/import", body)
	req.Header.Set("Content-Type", ct)
	rec := do(s, req)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") == "" {
		t.Errorf("second upload status = %d", rec.Code)
	}

	if rec := do(s, httptest.NewRequest(http.MethodGet, "/api/layouts", nil)); rec.Code != http.StatusOK {
		t.Errorf("layouts status = %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrLayoutNotFound, http.StatusNotFound},
		{core.ErrImportNotFound, http.StatusNotFound},
		{core.ErrTooManyImports, http.StatusTooManyRequests},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{core.ErrPersistDisabled, http.StatusConflict},
		{&core.ImportError{Sheet: 0, Err: core.ErrHeaderMismatch}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
