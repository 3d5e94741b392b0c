package common

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bobmcallan/genvest-portal/internal/app"
	applog "github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/bobmcallan/genvest-portal/internal/server"
)

// AppleReport is what the fake report service returns for every ticker.
const AppleReport = `{"ticker":"AAPL","company":"Apple Inc.","marketData":{"currentPrice":189.5,"marketCap":2800000000000,"trailingPE":29.4,"fiftyTwoWeekLow":164.1,"fiftyTwoWeekHigh":199.6,"sector":"Technology","exchange":"NASDAQ"},"news":{"summary":"Apple shares rose after earnings."},"swot":"Strengths: brand","recommendation":"Hold"}`

// BackendOptions shape the fake report service.
type BackendOptions struct {
	FailPDF bool
}

// Portal is an in-process portal wired to a fake report service.
type Portal struct {
	URL      string
	Searches atomic.Int64
}

// StartPortal runs the full portal stack on a loopback port for the life of the test.
func StartPortal(t *testing.T, opts BackendOptions) *Portal {
	t.Helper()

	p := &Portal{}
	backend := httptest.NewServer(fakeBackend(p, opts))
	t.Cleanup(backend.Close)

	cfg := config.NewDefaultConfig()
	cfg.API.URL = backend.URL + "/api"

	application, err := app.New(t.Context(), cfg, applog.NewSilentLogger())
	if err != nil {
		t.Fatalf("failed to create portal: %v", err)
	}
	application.Start()
	t.Cleanup(func() { application.Close() })

	srv := httptest.NewServer(server.New(application).Handler())
	t.Cleanup(srv.Close)

	p.URL = srv.URL
	return p
}

func fakeBackend(p *Portal, opts BackendOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/report", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(AppleReport))
	})
	mux.HandleFunc("/api/report/download", func(w http.ResponseWriter, r *http.Request) {
		if opts.FailPDF {
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 genvest"))
	})
	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		p.Searches.Add(1)
		q := strings.ToLower(r.URL.Query().Get("q"))
		results := []map[string]string{}
		for _, s := range []struct{ symbol, name string }{
			{"TSLA", "Tesla, Inc."},
			{"TSM", "Taiwan Semiconductor"},
			{"AAPL", "Apple Inc."},
		} {
			if q != "" && (strings.Contains(strings.ToLower(s.name), q) || strings.HasPrefix(strings.ToLower(s.symbol), q)) {
				results = append(results, map[string]string{"symbol": s.symbol, "name": s.name})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	})
	return mux
}
