package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stylelens/ingest/internal/catalog"
)

func testBatch(n int) []catalog.Product {
	batch := make([]catalog.Product, n)
	for i := range batch {
		batch[i] = catalog.Product{
			ProductID:          "P" + string(rune('A'+i)),
			Name:               "Product",
			ProductType:        "sneakers",
			Currency:           "USD",
			Gender:             catalog.GenderUnisex,
			AvailabilityStatus: catalog.AvailabilityInStock,
		}
	}
	return batch
}

func TestUploadBatch_Success(t *testing.T) {
	var gotPath string
	var gotReq catalog.BulkRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(catalog.BulkResponse{
			UploadedCount: 2,
			SkippedCount:  1,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	out, err := c.UploadBatch(context.Background(), testBatch(3))
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}

	if gotPath != "/api/v1/products/bulk" {
		t.Errorf("path = %q", gotPath)
	}
	if len(gotReq.Products) != 3 {
		t.Errorf("sent %d products, want 3", len(gotReq.Products))
	}
	if out.UploadedCount != 2 || out.SkippedCount != 1 || out.ErrorCount != 0 {
		t.Errorf("outcome = %+v", out)
	}
}

// Server-reported counts are trusted verbatim, including per-row errors the
// server found despite client-side validation passing.
func TestUploadBatch_ServerRowErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(catalog.BulkResponse{
			UploadedCount: 1,
			ErrorCount:    2,
			Errors:        []string{"row 2: trend not found", "row 3: trend not found"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	out, err := c.UploadBatch(context.Background(), testBatch(3))
	if err != nil {
		t.Fatalf("UploadBatch: %v", err)
	}
	if out.ErrorCount != 2 || len(out.Errors) != 2 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestUploadBatch_HTTPFailureWithDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "trend 99 does not exist"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	out, err := c.UploadBatch(context.Background(), testBatch(5))
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	if out.ErrorCount != 5 {
		t.Errorf("ErrorCount = %d, want 5 (whole batch)", out.ErrorCount)
	}
	if len(out.Errors) != 1 || out.Errors[0] != "trend 99 does not exist" {
		t.Errorf("Errors = %v, want server detail", out.Errors)
	}
	if out.UploadedCount != 0 || out.SkippedCount != 0 {
		t.Errorf("outcome = %+v", out)
	}
}

func TestUploadBatch_HTTPFailureWithoutDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	out, err := c.UploadBatch(context.Background(), testBatch(2))
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}

	if out.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", out.ErrorCount)
	}
	if len(out.Errors) != 1 || out.Errors[0] != "upload failed with status 503" {
		t.Errorf("Errors = %v, want status-derived message", out.Errors)
	}
}

func TestUploadBatch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := NewClient(srv.URL, nil)
	out, err := c.UploadBatch(context.Background(), testBatch(4))
	if err == nil {
		t.Fatal("expected network error")
	}

	if out.ErrorCount != 4 {
		t.Errorf("ErrorCount = %d, want 4 (whole batch)", out.ErrorCount)
	}
	if len(out.Errors) != 1 {
		t.Errorf("Errors = %v, want single aggregate message", out.Errors)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8000/", nil)
	if c.BaseURL() != "http://localhost:8000" {
		t.Errorf("BaseURL = %q", c.BaseURL())
	}
}
