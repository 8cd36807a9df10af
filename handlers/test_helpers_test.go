package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"leadboard/config"
	"leadboard/services"
)

// fakeBackend mimics the leads REST API
type fakeBackend struct {
	mu sync.Mutex

	leads        []map[string]any
	logs         []map[string]any
	leadsStatus  int
	uploadStatus int
	uploadDetail string
	result       map[string]any

	// processStarted and processRelease, when set, hold the process call open
	processStarted chan struct{}
	processRelease chan struct{}

	uploaded     []string
	processCalls int
	clearCalls   int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	b := &fakeBackend{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/leads", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.leadsStatus != 0 {
			writeJSON(w, b.leadsStatus, map[string]any{"detail": "leads unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(b.leads), "leads": b.leads})
	})
	mux.HandleFunc("GET /api/logs", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(b.logs), "logs": b.logs})
	})
	mux.HandleFunc("DELETE /api/logs", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.clearCalls++
		b.logs = nil
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logs cleared"})
	})
	mux.HandleFunc("POST /api/leads/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []string{"file required"}})
			return
		}
		defer file.Close()

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.uploadStatus != 0 {
			writeJSON(w, b.uploadStatus, map[string]any{"detail": b.uploadDetail})
			return
		}
		b.uploaded = append(b.uploaded, header.Filename)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "filename": header.Filename})
	})
	mux.HandleFunc("POST /api/leads/process", func(w http.ResponseWriter, r *http.Request) {
		if b.processStarted != nil {
			close(b.processStarted)
			<-b.processRelease
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		b.processCalls++
		writeJSON(w, http.StatusOK, b.result)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return b, server
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func sampleLeads() []map[string]any {
	return []map[string]any{
		{"name": "Ada Lovelace", "company": "Analytical", "email": "ada@example.com", "score": 85, "priority": "HIGH", "industry": "Tech", "company_size": "50-200", "budget": "90000"},
		{"name": "Bob Builder", "company": "Builders", "email": "bob@example.com", "score": 55, "priority": "MEDIUM", "industry": "Construction", "company_size": "10-50", "budget": 20000},
		{"name": "Cy Twombly", "company": "Canvas", "email": "cy@example.com", "score": 20, "priority": "LOW", "industry": "Art", "company_size": "1-10", "budget": "5000"},
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testConfig(backendURL string) *config.Config {
	return &config.Config{
		Environment:    "test",
		BackendURL:     backendURL,
		BackendTimeout: 5 * time.Second,
		LogLimit:       config.DefaultLogLimit,
		MessageTTL:     config.DefaultMessageTTL,
		MaxUploadSize:  config.DefaultMaxUploadSize,
	}
}

func setupHandler(t *testing.T, backendURL string) (*DashboardHandler, *testClock) {
	cfg := testConfig(backendURL)
	clock := &testClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
	dashboard := services.NewDashboard(
		services.NewLeadsClient(cfg.BackendURL, cfg.BackendTimeout),
		services.DashboardOptions{
			LogLimit:   cfg.LogLimit,
			MessageTTL: cfg.MessageTTL,
			Logger:     zap.NewNop(),
			Now:        clock.Now,
		},
	)
	return NewDashboardHandler(dashboard, cfg, zap.NewNop()), clock
}

func setupEcho(method, path string, body io.Reader) (*echo.Echo, echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, body)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	c.Set("config", &config.Config{
		Environment: "test",
	})

	return e, c, rec
}

// setupHTMX is setupEcho for an htmx request
func setupHTMX(method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	_, c, rec := setupEcho(method, path, body)
	c.Request().Header.Set("HX-Request", "true")
	return c, rec
}

// multipartCSV builds an upload form with a single "file" field
func multipartCSV(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, code, he.Code)
}

// requireBanner checks an htmx rejection: the reason is swapped into the
// banner only
func requireBanner(t *testing.T, err error, rec *httptest.ResponseRecorder, code int, text string) {
	t.Helper()
	require.NoError(t, err)
	require.Equal(t, code, rec.Code)
	assert.Equal(t, "#flash", rec.Header().Get(headerHXRetarget))
	assert.Equal(t, "outerHTML", rec.Header().Get(headerHXReswap))
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div id="flash"`), rec.Body.String())
	assert.Contains(t, rec.Body.String(), text)
	assert.NotContains(t, rec.Body.String(), `id="dashboard"`)
}
