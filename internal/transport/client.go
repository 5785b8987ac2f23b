// Package transport implements the HTTP client for the catalog service's
// bulk upload endpoint.
//
// The client delivers exactly one batch per request and never retries: on a
// non-success status or a network failure it synthesizes an outcome that
// counts every record in the batch as errored, and the pipeline carries on
// with the next batch. Server-reported counts on success are trusted
// verbatim.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stylelens/ingest/internal/catalog"
)

// DefaultTimeout bounds a single bulk upload call.
const DefaultTimeout = 30 * time.Second

// bulkPath is the catalog's bulk upload route, relative to the base URL.
const bulkPath = "/api/v1/products/bulk"

// maxErrorBody caps how much of a failure response body is read.
const maxErrorBody = 64 * 1024

// errorBody is the shape of a catalog failure response.
type errorBody struct {
	Detail string `json:"detail"`
}

// Client posts product batches to the catalog bulk endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bulk upload client for the catalog at baseURL.
// A nil httpClient gets a default with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the configured catalog base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadBatch delivers one batch and returns the per-batch outcome.
//
// The returned response is never nil: transport-level failures and
// non-success statuses are mapped to a synthetic outcome in which every
// record counts as an error with a single aggregate message. The error
// return carries the underlying cause for logging; callers should fold the
// response into the run summary either way.
func (c *Client) UploadBatch(ctx context.Context, batch []catalog.Product) (catalog.BulkResponse, error) {
	body, err := json.Marshal(catalog.BulkRequest{Products: batch})
	if err != nil {
		return failAll(batch, fmt.Sprintf("encode batch: %v", err)), fmt.Errorf("encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+bulkPath, bytes.NewReader(body))
	if err != nil {
		return failAll(batch, fmt.Sprintf("build request: %v", err)), fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failAll(batch, fmt.Sprintf("upload failed: %v", err)), fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := c.failureMessage(resp)
		return failAll(batch, msg), fmt.Errorf("post batch: %s", msg)
	}

	var out catalog.BulkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return failAll(batch, fmt.Sprintf("decode response: %v", err)), fmt.Errorf("decode response: %w", err)
	}

	return out, nil
}

// failureMessage extracts the server's detail message from a failure
// response, falling back to a status-derived message when the body has none.
func (c *Client) failureMessage(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil && strings.TrimSpace(eb.Detail) != "" {
			return eb.Detail
		}
	}
	return fmt.Sprintf("upload failed with status %d", resp.StatusCode)
}

// failAll builds the synthetic outcome for a batch that never made it:
// every record is an error, with one aggregate message.
func failAll(batch []catalog.Product, msg string) catalog.BulkResponse {
	return catalog.BulkResponse{
		ErrorCount: len(batch),
		Errors:     []string{msg},
	}
}
