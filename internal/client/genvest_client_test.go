package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/models"
)

func TestGenerateReport_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/report" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json content type, got %s", r.Header.Get("Content-Type"))
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "genvest-portal/") {
			t.Errorf("unexpected user agent: %s", r.Header.Get("User-Agent"))
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if body["ticker"] != "AAPL" || body["openai_key"] != "sk-test" || body["serper_key"] != "serper-test" {
			t.Errorf("unexpected request body: %v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","company":"Apple Inc.","marketData":{"marketCap":2800000000000}}`))
	}))
	defer srv.Close()

	c := NewGenVestClient(srv.URL+"/api/", 0)
	report, err := c.GenerateReport(context.Background(), models.Credentials{
		Ticker: "AAPL", OpenAIKey: "sk-test", SerperKey: "serper-test",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Company != "Apple Inc." {
		t.Errorf("expected company Apple Inc., got %s", report.Company)
	}
	if v, _ := report.Market().MarketCap.Float(); v != 2.8e12 {
		t.Errorf("expected market cap 2.8e12, got %v", v)
	}
}

func TestGenerateReport_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"Missing ticker, OpenAI key, or Serper key"}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid key"}`},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"invalid json", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewGenVestClient(srv.URL, 0)
			_, err := c.GenerateReport(context.Background(), models.Credentials{Ticker: "AAPL", OpenAIKey: "k", SerperKey: "s"})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrRequestFailed) {
				t.Errorf("expected ErrRequestFailed, got %v", err)
			}
		})
	}
}

func TestGenerateReport_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewGenVestClient(srv.URL, time.Second)
	_, err := c.GenerateReport(context.Background(), models.Credentials{Ticker: "AAPL", OpenAIKey: "k", SerperKey: "s"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed for unreachable backend, got %v", err)
	}
}

func TestGenerateReport_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewGenVestClient(srv.URL, 0)
	_, err := c.GenerateReport(ctx, models.Credentials{Ticker: "AAPL", OpenAIKey: "k", SerperKey: "s"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed on timeout, got %v", err)
	}
}

func TestDownloadPDF_SendsOriginalReport(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report/download" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"report":{"ticker":"AAPL","longName":"Apple Inc."}`) {
			t.Errorf("expected original report payload, got %s", body)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	}))
	defer srv.Close()

	var report models.Report
	if err := json.Unmarshal([]byte(`{"ticker":"AAPL","longName":"Apple Inc."}`), &report); err != nil {
		t.Fatal(err)
	}

	c := NewGenVestClient(srv.URL, 0)
	got, err := c.DownloadPDF(context.Background(), &report)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != string(pdf) {
		t.Errorf("unexpected pdf bytes: %q", got)
	}
}

func TestDownloadPDF_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewGenVestClient(srv.URL, 0)
	_, err := c.DownloadPDF(context.Background(), &models.Report{Ticker: "AAPL"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed, got %v", err)
	}

	_, err = c.DownloadPDF(context.Background(), nil)
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed for nil report, got %v", err)
	}
}

func TestDownloadPDF_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 0123456789"))
	}))
	defer srv.Close()

	c := NewGenVestClient(srv.URL, 0)
	c.maxPDF = 8

	pdf, err := c.DownloadPDF(context.Background(), &models.Report{Ticker: "AAPL"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v (%d bytes)", err, len(pdf))
	}

	c.maxPDF = int64(len("%PDF-1.4 0123456789"))
	pdf, err = c.DownloadPDF(context.Background(), &models.Report{Ticker: "AAPL"})
	if err != nil {
		t.Fatalf("body at the limit should succeed: %v", err)
	}
	if string(pdf) != "%PDF-1.4 0123456789" {
		t.Errorf("unexpected body %q", pdf)
	}
}

func TestGenerateReport_MalformedSectionStillRenders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ticker":"AAPL","company":"Apple Inc.","marketData":"unavailable","forecast":{}}`))
	}))
	defer srv.Close()

	c := NewGenVestClient(srv.URL, 0)
	report, err := c.GenerateReport(context.Background(), models.Credentials{Ticker: "AAPL", OpenAIKey: "k", SerperKey: "s"})
	if err != nil {
		t.Fatalf("expected report despite malformed sections, got %v", err)
	}
	if report.Company != "Apple Inc." || report.MarketData != nil || report.Forecast != nil {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestSearchTickers_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if q := r.URL.Query().Get("q"); q != "tesla & co" {
			t.Errorf("expected escaped query to round-trip, got %q", q)
		}
		w.Write([]byte(`[{"symbol":"TSLA","name":"Tesla Inc."},{"symbol":"TSLL","name":"Direxion Tesla Bull"}]`))
	}))
	defer srv.Close()

	c := NewGenVestClient(srv.URL, 0)
	results, err := c.SearchTickers(context.Background(), "tesla & co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].Symbol != "TSLA" || results[1].Symbol != "TSLL" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestSearchTickers_EmptyAndNull(t *testing.T) {
	for _, body := range []string{`[]`, `null`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		c := NewGenVestClient(srv.URL, 0)
		results, err := c.SearchTickers(context.Background(), "zz")
		srv.Close()

		if err != nil {
			t.Fatalf("body %s: unexpected error: %v", body, err)
		}
		if results == nil || len(results) != 0 {
			t.Errorf("body %s: expected empty non-nil slice, got %#v", body, results)
		}
	}
}

func TestSearchTickers_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewGenVestClient(srv.URL, 0)
	_, err := c.SearchTickers(context.Background(), "ap")
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("expected ErrRequestFailed, got %v", err)
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if err := NewGenVestClient(srv.URL, 0).Ping(context.Background()); err != nil {
		t.Errorf("expected ping to succeed, got %v", err)
	}
}

func TestBaseURL_TrimsTrailingSlash(t *testing.T) {
	c := NewGenVestClient("http://localhost:5000/api/", time.Second)
	if got := c.BaseURL(); got != "http://localhost:5000/api" {
		t.Errorf("BaseURL() = %q", got)
	}
}
