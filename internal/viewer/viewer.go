// Package viewer turns a report into display sections. Rendering is a pure
// function of the report: no field is assumed present and nothing is mutated.
package viewer

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/bobmcallan/genvest-portal/internal/models"
)

// Placeholder text for absent sections.
const (
	UnknownCompany       = "Unknown Company"
	NoNewsSummary        = "No news summary available."
	NoSWOT               = "No SWOT analysis available."
	NoRecommendation     = "No recommendation generated."
	DefaultLoaderMessage = "Generating your investment report…"
)

// ForecastHorizons are the day offsets summarised under the chart.
var ForecastHorizons = []int{7, 14, 30}

// Stat is one market snapshot line.
type Stat struct {
	Icon  string
	Label string
	Value string
}

func (s Stat) String() string {
	return fmt.Sprintf("%s %s: %s", s.Icon, s.Label, s.Value)
}

// Change is the forecast summary for one horizon.
type Change struct {
	Days      int
	Predicted string
	Percent   string
	Sign      Sign
}

// Forecast is the chart block. It exists only when the chart decodes.
type Forecast struct {
	ChartURI    template.URL
	ContentType string
	Changes     []Change
	MAE         string
	MAESeverity Severity
	HasMAE      bool
}

// View is a rendered report.
type View struct {
	Company        string
	Ticker         string
	Stats          []Stat
	Forecast       *Forecast
	News           string
	HasNews        bool
	SWOT           string
	Recommendation string
}

// Title returns the header line, e.g. "Apple Inc. (AAPL)".
func (v View) Title() string {
	return fmt.Sprintf("%s (%s)", v.Company, v.Ticker)
}

// Render maps a report into its display sections. A nil report renders
// every placeholder.
func Render(r *models.Report) View {
	if r == nil {
		r = &models.Report{}
	}
	m := r.Market()

	v := View{
		Company:        r.Company,
		Ticker:         r.Ticker,
		News:           r.NewsSummary(),
		SWOT:           r.SWOT,
		Recommendation: r.Recommendation,
		Stats: []Stat{
			{Icon: "📈", Label: "Current Price", Value: FormatPrice(m.CurrentPrice)},
			{Icon: "🏛️", Label: "Market Cap", Value: FormatMarketCap(m.MarketCap)},
			{Icon: "📊", Label: "P/E Ratio", Value: FormatNumber(m.TrailingPE)},
			{Icon: "📉", Label: "52-Week Low", Value: FormatNumber(m.FiftyTwoWeekLow)},
			{Icon: "📈", Label: "52-Week High", Value: FormatNumber(m.FiftyTwoWeekHigh)},
			{Icon: "📦", Label: "Sector", Value: FormatText(m.Sector)},
			{Icon: "🏦", Label: "Exchange", Value: FormatText(m.Exchange)},
		},
	}

	if v.Company == "" {
		v.Company = UnknownCompany
	}
	if v.Ticker == "" {
		v.Ticker = NotAvailable
	}
	v.HasNews = v.News != ""
	if !v.HasNews {
		v.News = NoNewsSummary
	}
	if strings.TrimSpace(v.SWOT) == "" {
		v.SWOT = NoSWOT
	}
	if strings.TrimSpace(v.Recommendation) == "" {
		v.Recommendation = NoRecommendation
	}

	v.Forecast = renderForecast(r, m)
	return v
}

func renderForecast(r *models.Report, m models.MarketData) *Forecast {
	chart, contentType, ok := decodeChart(r.PriceChart)
	if !ok {
		return nil
	}

	f := &Forecast{
		ChartURI:    template.URL("data:" + contentType + ";base64," + chart),
		ContentType: contentType,
	}

	if len(r.Forecast) > 0 {
		for _, days := range ForecastHorizons {
			predicted := r.PredictedPrice(days)
			c := Change{Days: days, Predicted: FormatPrice(predicted), Percent: NotAvailable, Sign: SignNeutral}
			if pct, ok := PercentChange(m.CurrentPrice, predicted); ok {
				c.Percent, c.Sign = FormatPercentChange(pct)
			}
			f.Changes = append(f.Changes, c)
		}
	}

	if mae, ok := r.MAE.Float(); ok {
		f.HasMAE = true
		f.MAE = fmt.Sprintf("%.2f", mae)
		f.MAESeverity = MAESeverity(mae)
	}

	return f
}

// decodeChart validates the base64 chart and sniffs its image type. It
// returns the canonical encoding so the data URI never carries unvalidated
// input.
func decodeChart(encoded string) (string, string, bool) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return "", "", false
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return "", "", false
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	return base64.StdEncoding.EncodeToString(data), contentType, true
}
