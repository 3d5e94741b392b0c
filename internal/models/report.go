// Package models defines the report-generation request and response types.
package models

import (
	"bytes"
	"encoding/json"
)

// Credentials are the three values a report submission needs.
type Credentials struct {
	Ticker    string `json:"ticker" validate:"required"`
	OpenAIKey string `json:"openai_key" validate:"required"`
	SerperKey string `json:"serper_key" validate:"required"`
}

// TickerSuggestion is one autocomplete result.
type TickerSuggestion struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// MarketData is the market snapshot section of a report.
type MarketData struct {
	CurrentPrice     Number `json:"currentPrice"`
	MarketCap        Number `json:"marketCap"`
	TrailingPE       Number `json:"trailingPE"`
	FiftyTwoWeekLow  Number `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh Number `json:"fiftyTwoWeekHigh"`
	Sector           string `json:"sector,omitempty"`
	Exchange         string `json:"exchange,omitempty"`
}

// NewsArticle is a single article the backend summarised.
type NewsArticle struct {
	Title   string `json:"title,omitempty"`
	Link    string `json:"link,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source,omitempty"`
	Date    string `json:"date,omitempty"`
}

// News is the news section of a report.
type News struct {
	Summary  string        `json:"summary,omitempty"`
	Articles []NewsArticle `json:"articles,omitempty"`
}

// ForecastPoint is one predicted close. Index 0 of Report.Forecast is one day ahead.
type ForecastPoint struct {
	Date           string `json:"date,omitempty"`
	PredictedPrice Number `json:"predicted_price"`
}

// Report is the generate-report response. Every section is optional.
type Report struct {
	Ticker         string          `json:"ticker,omitempty"`
	Company        string          `json:"company,omitempty"`
	MarketData     *MarketData     `json:"marketData,omitempty"`
	News           *News           `json:"news,omitempty"`
	SWOT           string          `json:"swot,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	PriceChart     string          `json:"priceChart,omitempty"`
	Forecast       []ForecastPoint `json:"forecast,omitempty"`
	MAE            Number          `json:"mae"`

	// raw is the payload the report was decoded from. It is sent back
	// verbatim for PDF rendering so unmodelled fields survive.
	raw json.RawMessage
}

type reportFields Report

// UnmarshalJSON decodes the known fields and keeps the original payload.
// A section of the wrong type is left empty; only a payload that is not a
// JSON object fails.
func (r *Report) UnmarshalJSON(data []byte) error {
	m, err := members(data)
	if err != nil {
		return err
	}
	*r = Report{
		Ticker:         field[string](m, "ticker"),
		Company:        field[string](m, "company"),
		MarketData:     field[*MarketData](m, "marketData"),
		News:           field[*News](m, "news"),
		SWOT:           field[string](m, "swot"),
		Recommendation: field[string](m, "recommendation"),
		PriceChart:     field[string](m, "priceChart"),
		Forecast:       field[[]ForecastPoint](m, "forecast"),
		MAE:            field[Number](m, "mae"),
		raw:            append(json.RawMessage(nil), bytes.TrimSpace(data)...),
	}
	return nil
}

func (d *MarketData) UnmarshalJSON(data []byte) error {
	m, err := members(data)
	if err != nil {
		return err
	}
	*d = MarketData{
		CurrentPrice:     field[Number](m, "currentPrice"),
		MarketCap:        field[Number](m, "marketCap"),
		TrailingPE:       field[Number](m, "trailingPE"),
		FiftyTwoWeekLow:  field[Number](m, "fiftyTwoWeekLow"),
		FiftyTwoWeekHigh: field[Number](m, "fiftyTwoWeekHigh"),
		Sector:           field[string](m, "sector"),
		Exchange:         field[string](m, "exchange"),
	}
	return nil
}

func (n *News) UnmarshalJSON(data []byte) error {
	m, err := members(data)
	if err != nil {
		return err
	}
	*n = News{
		Summary:  field[string](m, "summary"),
		Articles: field[[]NewsArticle](m, "articles"),
	}
	return nil
}

func (a *NewsArticle) UnmarshalJSON(data []byte) error {
	m, err := members(data)
	if err != nil {
		return err
	}
	*a = NewsArticle{
		Title:   field[string](m, "title"),
		Link:    field[string](m, "link"),
		Snippet: field[string](m, "snippet"),
		Source:  field[string](m, "source"),
		Date:    field[string](m, "date"),
	}
	return nil
}

func (p *ForecastPoint) UnmarshalJSON(data []byte) error {
	m, err := members(data)
	if err != nil {
		return err
	}
	*p = ForecastPoint{
		Date:           field[string](m, "date"),
		PredictedPrice: field[Number](m, "predicted_price"),
	}
	return nil
}

// members splits a JSON object into its raw members.
func members(data []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// field decodes member name of m, or returns the zero value when it is
// missing or does not decode as T.
func field[T any](m map[string]json.RawMessage, name string) T {
	var v T
	raw, ok := m[name]
	if !ok {
		return v
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero
	}
	return v
}

// MarshalJSON returns the original payload when there is one.
func (r Report) MarshalJSON() ([]byte, error) {
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(reportFields(r))
}

// Market returns the market data section, never nil.
func (r *Report) Market() MarketData {
	if r == nil || r.MarketData == nil {
		return MarketData{}
	}
	return *r.MarketData
}

// NewsSummary returns the news summary or "".
func (r *Report) NewsSummary() string {
	if r == nil || r.News == nil {
		return ""
	}
	return r.News.Summary
}

// PredictedPrice returns the forecast price daysAhead days out (1-based).
func (r *Report) PredictedPrice(daysAhead int) Number {
	if r == nil || daysAhead < 1 || daysAhead > len(r.Forecast) {
		return Number{}
	}
	return r.Forecast[daysAhead-1].PredictedPrice
}
