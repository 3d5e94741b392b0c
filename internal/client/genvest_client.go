package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/models"
)

// ErrRequestFailed is the single failure signal of the backend calls. Status
// codes and transport errors are wrapped for logging only; callers compare
// with errors.Is and never branch on the cause.
var ErrRequestFailed = errors.New("request failed")

const (
	maxJSONBody = 32 << 20
	maxPDFBody  = 64 << 20
)

// GenVestClient talks to the report-generation backend.
type GenVestClient struct {
	baseURL    string
	httpClient *http.Client

	// Response size caps. A larger response fails rather than truncates.
	maxJSON int64
	maxPDF  int64
}

// NewGenVestClient creates a client for the backend rooted at baseURL
// (e.g. http://localhost:5000/api). A zero timeout means no client-side limit.
func NewGenVestClient(baseURL string, timeout time.Duration) *GenVestClient {
	return &GenVestClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		maxJSON:    maxJSONBody,
		maxPDF:     maxPDFBody,
	}
}

// BaseURL returns the backend root the client targets.
func (c *GenVestClient) BaseURL() string {
	return c.baseURL
}

// GenerateReport asks the backend to build a report.
// POST /report {ticker, openai_key, serper_key} -> Report
func (c *GenVestClient) GenerateReport(ctx context.Context, creds models.Credentials) (*models.Report, error) {
	body, err := c.post(ctx, "/report", creds, c.maxJSON)
	if err != nil {
		return nil, fmt.Errorf("generate report for %s: %w", creds.Ticker, err)
	}

	var report models.Report
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("generate report for %s: %w: invalid response: %v", creds.Ticker, ErrRequestFailed, err)
	}
	return &report, nil
}

// DownloadPDF sends a report back to the backend and returns the rendered PDF.
// POST /report/download {report} -> application/pdf
func (c *GenVestClient) DownloadPDF(ctx context.Context, report *models.Report) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("download pdf: %w: no report", ErrRequestFailed)
	}

	payload := struct {
		Report *models.Report `json:"report"`
	}{Report: report}

	body, err := c.post(ctx, "/report/download", payload, c.maxPDF)
	if err != nil {
		return nil, fmt.Errorf("download pdf: %w", err)
	}
	return body, nil
}

// SearchTickers looks up tickers matching a partial symbol or company name.
// GET /search?q=<query> -> [{symbol, name}]
// The result is ordered as returned and never nil.
func (c *GenVestClient) SearchTickers(ctx context.Context, query string) ([]models.TickerSuggestion, error) {
	body, err := c.get(ctx, "/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, fmt.Errorf("search tickers %q: %w", query, err)
	}

	var results []models.TickerSuggestion
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("search tickers %q: %w: invalid response: %v", query, ErrRequestFailed, err)
	}
	if results == nil {
		results = []models.TickerSuggestion{}
	}
	return results, nil
}

// Ping checks the backend answers an empty search.
func (c *GenVestClient) Ping(ctx context.Context) error {
	if _, err := c.get(ctx, "/search?q="); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (c *GenVestClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, c.maxJSON)
}

func (c *GenVestClient) post(ctx context.Context, path string, payload interface{}, limit int64) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, limit)
}

func (c *GenVestClient) do(req *http.Request, limit int64) ([]byte, error) {
	req.Header.Set("User-Agent", config.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: server returned %d: %s", ErrRequestFailed, resp.StatusCode, snippet(body))
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrRequestFailed, limit)
	}
	return body, nil
}

// snippet trims an error body for log output.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
