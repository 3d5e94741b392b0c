package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		valid bool
	}{
		{`2800000000000`, 2.8e12, true},
		{`189.84`, 189.84, true},
		{`"31.5"`, 31.5, true},
		{`" 42 "`, 42, true},
		{`null`, 0, false},
		{`"N/A"`, 0, false},
		{`""`, 0, false},
		{`true`, 0, false},
		{`"NaN"`, 0, false},
	}

	for _, tt := range tests {
		var n Number
		if err := json.Unmarshal([]byte(tt.input), &n); err != nil {
			t.Errorf("Unmarshal(%s) returned error: %v", tt.input, err)
			continue
		}
		if n.Valid != tt.valid || (tt.valid && n.Value != tt.want) {
			t.Errorf("Unmarshal(%s) = %+v, want value=%v valid=%v", tt.input, n, tt.want, tt.valid)
		}
	}
}

func TestNumber_MarshalJSON(t *testing.T) {
	out, _ := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: Num(1.5)})
	if string(out) != `{"a":1.5,"b":null}` {
		t.Errorf("unexpected marshal output: %s", out)
	}
}

func TestReport_DecodesBackendPayload(t *testing.T) {
	payload := `{
		"ticker": "AAPL",
		"company": "Apple Inc.",
		"marketData": {"currentPrice": 190.5, "marketCap": 2800000000000, "trailingPE": "31.2", "sector": "Technology", "longName": "Apple Inc."},
		"news": {"summary": "Strong quarter.", "articles": [{"title": "Apple beats", "link": "https://example.com"}]},
		"swot": "## Strengths",
		"forecast": [{"date": "2026-10-16", "predicted_price": 191.0}, {"predicted_price": 192.5}],
		"priceChart": "iVBORw0KGgo=",
		"recommendation": "Hold",
		"mae": 1.7
	}`

	var r Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if r.Ticker != "AAPL" || r.Company != "Apple Inc." {
		t.Errorf("unexpected identifiers: %s %s", r.Ticker, r.Company)
	}
	m := r.Market()
	if v, ok := m.MarketCap.Float(); !ok || v != 2.8e12 {
		t.Errorf("unexpected market cap: %+v", m.MarketCap)
	}
	if v, ok := m.TrailingPE.Float(); !ok || v != 31.2 {
		t.Errorf("expected string P/E to decode, got %+v", m.TrailingPE)
	}
	if r.NewsSummary() != "Strong quarter." {
		t.Errorf("unexpected news summary: %q", r.NewsSummary())
	}
	if v, _ := r.PredictedPrice(2).Float(); v != 192.5 {
		t.Errorf("expected day 2 prediction 192.5, got %v", v)
	}
	if r.PredictedPrice(7).Valid {
		t.Error("expected missing offset to be absent")
	}
	if v, _ := r.MAE.Float(); v != 1.7 {
		t.Errorf("unexpected mae: %v", v)
	}
}

func TestReport_DecodesMalformedSections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, r Report)
	}{
		{
			name:    "market data as string",
			payload: `{"ticker":"AAPL","company":"Apple Inc.","marketData":"unavailable","swot":"ok"}`,
			check: func(t *testing.T, r Report) {
				if r.MarketData != nil {
					t.Errorf("expected no market data, got %+v", r.MarketData)
				}
				if r.Company != "Apple Inc." || r.SWOT != "ok" {
					t.Errorf("other sections lost: %+v", r)
				}
			},
		},
		{
			name:    "market data sector as number",
			payload: `{"marketData":{"marketCap":2800000000000,"sector":42}}`,
			check: func(t *testing.T, r Report) {
				m := r.Market()
				if m.Sector != "" {
					t.Errorf("expected empty sector, got %q", m.Sector)
				}
				if v, ok := m.MarketCap.Float(); !ok || v != 2.8e12 {
					t.Errorf("expected market cap kept, got %+v", m.MarketCap)
				}
			},
		},
		{
			name:    "swot as object",
			payload: `{"swot":{"markdown":"## Strengths"},"recommendation":"Hold"}`,
			check: func(t *testing.T, r Report) {
				if r.SWOT != "" || r.Recommendation != "Hold" {
					t.Errorf("unexpected swot/recommendation: %q %q", r.SWOT, r.Recommendation)
				}
			},
		},
		{
			name:    "forecast as object",
			payload: `{"forecast":{"7":191.0},"mae":1.2}`,
			check: func(t *testing.T, r Report) {
				if r.Forecast != nil {
					t.Errorf("expected no forecast, got %+v", r.Forecast)
				}
				if v, _ := r.MAE.Float(); v != 1.2 {
					t.Errorf("expected mae kept, got %+v", r.MAE)
				}
			},
		},
		{
			name:    "news as array",
			payload: `{"news":["headline"],"company":"Apple Inc."}`,
			check: func(t *testing.T, r Report) {
				if r.NewsSummary() != "" || r.Company != "Apple Inc." {
					t.Errorf("unexpected decode: %+v", r)
				}
			},
		},
		{
			name:    "null sections",
			payload: `{"ticker":null,"marketData":null,"news":null,"forecast":null}`,
			check: func(t *testing.T, r Report) {
				if r.Ticker != "" || r.MarketData != nil || r.News != nil || r.Forecast != nil {
					t.Errorf("expected empty report, got %+v", r)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Report
			if err := json.Unmarshal([]byte(tt.payload), &r); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			tt.check(t, r)
		})
	}
}

func TestReport_RejectsNonObject(t *testing.T) {
	for _, payload := range []string{`"report"`, `[1,2]`, `42`} {
		var r Report
		if err := json.Unmarshal([]byte(payload), &r); err == nil {
			t.Errorf("expected error for %s", payload)
		}
	}
}

func TestReport_MarshalPreservesUnknownFields(t *testing.T) {
	payload := `{"ticker":"AAPL","marketData":{"longName":"Apple Inc.","currentPrice":190.5},"extra":{"nested":[1,2,3]}}`

	var r Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatal(err)
	}

	out, err := json.Marshal(struct {
		Report *Report `json:"report"`
	}{Report: &r})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"longName":"Apple Inc."`) || !strings.Contains(string(out), `"extra":{"nested":[1,2,3]}`) {
		t.Errorf("expected original payload in output, got %s", out)
	}
}

func TestReport_MarshalWithoutRawUsesFields(t *testing.T) {
	r := Report{Ticker: "MSFT", MarketData: &MarketData{MarketCap: Num(3e12)}}
	out, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"ticker":"MSFT"`) || !strings.Contains(string(out), `"marketCap":3000000000000`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestReport_AccessorsOnNil(t *testing.T) {
	var r *Report
	if r.Market() != (MarketData{}) {
		t.Error("expected empty market data for nil report")
	}
	if r.NewsSummary() != "" {
		t.Error("expected empty summary for nil report")
	}
	if r.PredictedPrice(1).Valid {
		t.Error("expected absent prediction for nil report")
	}
}
