package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stylelens/ingest/internal/catalog"
	"github.com/stylelens/ingest/internal/config"
	"github.com/stylelens/ingest/internal/core"
	"github.com/stylelens/ingest/internal/history"
	"github.com/stylelens/ingest/internal/transport"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second},
		Catalog: config.CatalogConfig{BaseURL: "http://unused", Timeout: 5 * time.Second},
		Ingest:  config.IngestConfig{BatchSize: 10, PaceInterval: time.Millisecond, MaxConcurrentRuns: 5, MaxFileSize: 1 << 20},
		History: config.HistoryConfig{Path: "unused", Retention: time.Hour, CheckInterval: time.Hour},
		Rate:    config.RateLimitConfig{Enabled: false},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

// newTestServer wires a full pipeline against a stub catalog endpoint.
func newTestServer(t *testing.T, catalogHandler http.HandlerFunc) *Server {
	t.Helper()

	upstream := httptest.NewServer(catalogHandler)
	t.Cleanup(upstream.Close)

	store, err := history.OpenAt(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("history.OpenAt: %v", err)
	}

	svc := core.NewService(transport.NewClient(upstream.URL, nil), core.ServiceConfig{
		BatchSize:    10,
		PaceInterval: time.Millisecond,
		Recorder:     store,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return NewServer(svc, store, testConfig())
}

// acceptAllCatalog answers every bulk request with full success.
func acceptAllCatalog(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req catalog.BulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad bulk request: %v", err)
		}
		json.NewEncoder(w).Encode(catalog.BulkResponse{UploadedCount: len(req.Products)})
	}
}

// multipartCSV builds a multipart body with the given CSV content.
func multipartCSV(t *testing.T, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "products.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte(content))
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func startRun(t *testing.T, srv *Server, body *bytes.Buffer, contentType string) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("POST /api/runs = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["run_id"] == "" {
		t.Fatal("missing run_id in response")
	}
	return resp["run_id"]
}

// ============================================================================
// Run Endpoints
// ============================================================================

func TestStartRun_FullFlow(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	csv := "name,product_type,price\nAir Max 90,Sneakers,$120.00\nHoodie,Apparel,45\n"
	body, ct := multipartCSV(t, csv, nil)
	runID := startRun(t, srv, body, ct)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/result", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("result status = %d, body %s", rec.Code, rec.Body.String())
	}

	var summary core.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Status != core.StatusSuccess {
		t.Errorf("status = %q, want success", summary.Status)
	}
	if summary.Uploaded != 2 {
		t.Errorf("uploaded = %d, want 2", summary.Uploaded)
	}
}

func TestStartRun_NoFile(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("batch_size", "10")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/runs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestStartRun_InvalidBatchSize(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	body, ct := multipartCSV(t, "name,product_type\nShirt,tops\n", map[string]string{"batch_size": "-3"})

	req := httptest.NewRequest(http.MethodPost, "/api/runs", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRunProgress_Unknown(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	req := httptest.NewRequest(http.MethodGet, "/api/runs/not-a-run", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != "RUN002" {
		t.Errorf("error code = %q, want RUN002", resp.Code)
	}
}

func TestRunEvents_StreamsTerminalState(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	body, ct := multipartCSV(t, "name,product_type\nShirt,tops\n", nil)
	runID := startRun(t, srv, body, ct)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	out := rec.Body.String()
	if !strings.Contains(out, "event: progress") {
		t.Errorf("stream missing progress events:\n%s", out)
	}
	if !strings.Contains(out, "event: complete") {
		t.Errorf("stream missing terminal event:\n%s", out)
	}
}

// ============================================================================
// History Endpoints
// ============================================================================

func TestHistory_AfterRun(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	body, ct := multipartCSV(t, "name,product_type\nShirt,tops\n", nil)
	runID := startRun(t, srv, body, ct)

	// Block until terminal; the summary is recorded before the result is
	// released.
	req := httptest.NewRequest(http.MethodGet, "/api/runs/"+runID+"/result", nil)
	srv.Router().ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), runID) {
		t.Errorf("history does not list run %s: %s", runID, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/history/"+runID, nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("history detail status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, acceptAllCatalog(t))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
