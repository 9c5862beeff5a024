package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Krish120003/databind/internal/config"
	"github.com/Krish120003/databind/internal/core"
)

const (
	customersCSV = "id,name,email\n1,Ann,a@x\n2,Bob,b@x\n3,Cy,\n"
	crmCSV       = "key,name,phone\n1,Ann,111\n2,Robert,222\n4,Dee,444\n"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: time.Minute},
		Upload:   config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second, Timeout: time.Minute},
		Session:  config.SessionConfig{TTL: time.Hour, MaxSessions: 10, PageSize: 20, MaxPageSize: 100},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

type testServer struct {
	t   *testing.T
	srv *Server
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	svc := core.NewService(core.Options{
		PageSize:    cfg.Session.PageSize,
		MaxPageSize: cfg.Session.MaxPageSize,
		MaxSessions: cfg.Session.MaxSessions,
		Audit:       core.NewLogAuditStore(slog.New(slog.NewTextHandler(io.Discard, nil)), 50),
	})
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(t.Context()) })
	return &testServer{t: t, srv: srv}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) json(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(ts.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return ts.do(req)
}

func uploadRequest(t *testing.T, path, name, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// joinedSession creates a session through the API with both files joined.
func (ts *testServer) joinedSession() string {
	t := ts.t
	rec := ts.json(http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[core.Snapshot](t, rec).ID
	base := "/api/sessions/" + id

	rec = ts.do(uploadRequest(t, base+"/files/primary", "customers.csv", customersCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.do(uploadRequest(t, base+"/files/secondary", "crm.csv", crmCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.json(http.MethodPost, base+"/columns/primary", map[string]string{"column": "id"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = ts.json(http.MethodPost, base+"/columns/secondary", map[string]string{"column": "key"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.json(http.MethodPost, base+"/join", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return id
}

func TestAPI_JoinWorkflow(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.joinedSession()
	base := "/api/sessions/" + id

	rec := ts.json(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[core.Snapshot](t, rec)
	require.NotNil(t, snap.Join)
	assert.Equal(t, 4, snap.Join.Rows)
	assert.Equal(t, 1, snap.Join.Unresolved)

	rec = ts.json(http.MethodGet, base+"/rows?page=1&page_size=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows struct {
		Columns    []string                   `json:"columns"`
		Rows       []map[string]any           `json:"rows"`
		TotalPages int                        `json:"totalPages"`
		Conflicts  map[string]json.RawMessage `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Equal(t, []string{"id", "name", "email", "key", "phone"}, rows.Columns)
	assert.Len(t, rows.Rows, 2)
	assert.Equal(t, 2, rows.TotalPages)
	assert.Contains(t, rows.Conflicts, "1")

	rec = ts.json(http.MethodGet, base+"/conflicts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"conflictingColumns":["name"]`)

	rec = ts.json(http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "JOIN003", decode[ErrorResponse](t, rec).Code)

	rec = ts.json(http.MethodPut, base+"/resolutions/1", map[string]string{"source": "secondary"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.json(http.MethodGet, base+"/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename=customers-crm-joined.csv`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "2,Robert,b@x,2,222")

	rec = ts.json(http.MethodGet, base+"/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

	rec = ts.json(http.MethodPost, base+"/back", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.json(http.MethodGet, base+"/conflicts", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_ResolveAll(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.joinedSession()

	rec := ts.json(http.MethodPost, "/api/sessions/"+id+"/resolutions", map[string]string{"source": "primary"})
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Resolved int `json:"resolved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Resolved)
}

func TestAPI_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 256
	ts := newTestServer(t, cfg)

	rec := ts.json(http.MethodPost, "/api/sessions", nil)
	id := decode[core.Snapshot](t, rec).ID
	base := "/api/sessions/" + id

	tests := []struct {
		name       string
		req        *http.Request
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unknown session",
			req:        httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil),
			wantStatus: http.StatusNotFound,
			wantCode:   "SES001",
		},
		{
			name:       "invalid side",
			req:        uploadRequest(t, base+"/files/left", "a.csv", customersCSV),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VAL007",
		},
		{
			name:       "no file",
			req:        uploadRequest(t, base+"/files/primary", "", ""),
			wantStatus: http.StatusBadRequest,
			wantCode:   "FILE004",
		},
		{
			name:       "file too large",
			req:        uploadRequest(t, base+"/files/primary", "big.csv", "a\n"+strings.Repeat("1\n", 500)),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "FILE001",
		},
		{
			name:       "legacy excel",
			req:        uploadRequest(t, base+"/files/primary", "old.xls", "x"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE002",
		},
		{
			name:       "header only",
			req:        uploadRequest(t, base+"/files/primary", "a.csv", "a,b\n"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "FILE005",
		},
		{
			name:       "join without files",
			req:        httptest.NewRequest(http.MethodPost, base+"/join", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "SES002",
		},
		{
			name:       "rows before join",
			req:        httptest.NewRequest(http.MethodGet, base+"/rows", nil),
			wantStatus: http.StatusConflict,
			wantCode:   "JOIN004",
		},
		{
			name:       "bad row index",
			req:        httptest.NewRequest(http.MethodPut, base+"/resolutions/x", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VAL001",
		},
		{
			name:       "bad export format",
			req:        httptest.NewRequest(http.MethodGet, base+"/export?format=pdf", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VAL001",
		},
		{
			name:       "bad view",
			req:        httptest.NewRequest(http.MethodGet, base+"/rows?view=diff", nil),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VAL007",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(tt.req)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestAPI_ToggleColumnErrors(t *testing.T) {
	ts := newTestServer(t, testConfig())
	rec := ts.json(http.MethodPost, "/api/sessions", nil)
	base := "/api/sessions/" + decode[core.Snapshot](t, rec).ID

	rec = ts.do(uploadRequest(t, base+"/files/primary", "customers.csv", customersCSV))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.json(http.MethodPost, base+"/columns/primary", map[string]string{"column": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL005", decode[ErrorResponse](t, rec).Code)

	rec = ts.json(http.MethodPost, base+"/columns/primary", map[string]any{"column": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.json(http.MethodPost, base+"/columns/primary", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.json(http.MethodPost, base+"/columns/secondary", map[string]string{"column": "key"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SES002", decode[ErrorResponse](t, rec).Code)
}

func TestHTMX(t *testing.T) {
	ts := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	req.Header.Set("HX-Request", "true")
	rec := ts.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)
	redirect := rec.Header().Get("HX-Redirect")
	require.True(t, strings.HasPrefix(redirect, "/sessions/"))
	id := strings.TrimPrefix(redirect, "/sessions/")

	req = uploadRequest(t, "/api/sessions/"+id+"/files/primary", "customers.csv", customersCSV)
	req.Header.Set("HX-Request", "true")
	rec = ts.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))

	form := strings.NewReader("column=nope")
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/columns/primary", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec = ts.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `class="alert alert-error"`)
	assert.Contains(t, rec.Body.String(), "VAL005")

	form = strings.NewReader("column=id")
	req = httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/columns/primary", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	rec = ts.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPages(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Start a join")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/sessions/unknown", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	id := ts.joinedSession()
	rec = ts.do(httptest.NewRequest(http.MethodGet, "/sessions/"+id+"?view=resolved", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "1 conflicts, 1 unresolved.")
	assert.Contains(t, body, "<strong>resolved</strong>")
}

func TestHealthAndQueue(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/upload-queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[core.ServiceStatus](t, rec)
	assert.Equal(t, 10, status.MaxSessions)
}

func TestAuditLogEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	ts.joinedSession()

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/api/audit-log?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Entries []core.AuditEntry `json:"entries"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, core.ActionJoin, body.Entries[0].Action)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	ts := newTestServer(t, cfg)

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = ts.do(req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.Security.CORSAllowedOrigins = []string{"https://app.example.com"}
	ts := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := ts.do(req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	ts := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}
