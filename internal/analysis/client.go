// Package analysis is the client for the remote financial product analysis
// API. The analysis itself is opaque; the response is shown verbatim.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/projector"
)

// Path is the fixed endpoint of the analysis API.
const Path = "/analyze-financial-product"

// SourceTypeURL is the only source type this client submits.
const SourceTypeURL = "url"

const maxResponseBytes = 10 * 1024 * 1024

// Client submits sources to the analysis API.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + Path,
		http:     &http.Client{Timeout: timeout},
	}
}

// Analyze posts source and returns the JSON response pretty-printed.
// Transport failures, non-2xx answers and non-JSON bodies are
// *apperr.FetchError.
func (c *Client) Analyze(ctx context.Context, source string) (string, error) {
	body, err := requestBody(source)
	if err != nil {
		return "", fmt.Errorf("analysis: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &apperr.FetchError{URL: c.endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &apperr.FetchError{URL: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &apperr.FetchError{URL: c.endpoint, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &apperr.FetchError{URL: c.endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	if !gjson.ValidBytes(data) {
		return "", &apperr.FetchError{URL: c.endpoint, Err: errors.New("response is not valid JSON")}
	}
	return projector.Indent(string(data)), nil
}

// requestBody builds {"source": source, "source_type": "url"}.
func requestBody(source string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "source", source)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "source_type", SourceTypeURL)
}
