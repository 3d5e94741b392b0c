package viewer

import (
	"fmt"
	"math"
	"strconv"

	"github.com/bobmcallan/genvest-portal/internal/models"
	"github.com/dustin/go-humanize"
)

// NotAvailable is shown for any absent value.
const NotAvailable = "N/A"

// FormatMarketCap abbreviates a market capitalisation: T/B/M with one
// decimal at 10^12/10^9/10^6, grouped digits below that. Absent and zero
// values render as N/A.
func FormatMarketCap(n models.Number) string {
	v, ok := n.Float()
	if !ok || v == 0 {
		return NotAvailable
	}

	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.1fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	}
	return humanize.CommafWithDigits(v, 3)
}

// FormatNumber renders a value the way the backend sent it, or N/A.
func FormatNumber(n models.Number) string {
	v, ok := n.Float()
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPrice renders a dollar price, or N/A.
func FormatPrice(n models.Number) string {
	if !n.Valid {
		return NotAvailable
	}
	return "$" + FormatNumber(n)
}

// FormatText returns s, or N/A when empty.
func FormatText(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

// Sign classifies a change for colouring.
type Sign string

const (
	SignPositive Sign = "positive"
	SignNegative Sign = "negative"
	SignNeutral  Sign = "neutral"
)

// PercentChange returns (predicted-current)/current*100. It reports false
// when either price is absent or current is zero.
func PercentChange(current, predicted models.Number) (float64, bool) {
	cur, ok := current.Float()
	if !ok || cur == 0 {
		return 0, false
	}
	pred, ok := predicted.Float()
	if !ok {
		return 0, false
	}
	return (pred - cur) / cur * 100, true
}

// FormatPercentChange renders a change with an explicit sign. A change that
// rounds to zero renders as "0.00%" with no sign.
func FormatPercentChange(pct float64) (string, Sign) {
	rounded := math.Round(pct*100) / 100
	switch {
	case rounded > 0:
		return fmt.Sprintf("+%.2f%%", rounded), SignPositive
	case rounded < 0:
		return fmt.Sprintf("%.2f%%", rounded), SignNegative
	}
	return "0.00%", SignNeutral
}

// Severity grades the forecast validation error.
type Severity string

const (
	SeverityGood    Severity = "good"
	SeverityWarning Severity = "warning"
	SeverityPoor    Severity = "poor"
)

// MAESeverity grades a mean absolute error: <1 good, <3 warning, otherwise poor.
func MAESeverity(mae float64) Severity {
	switch {
	case mae < 1:
		return SeverityGood
	case mae < 3:
		return SeverityWarning
	}
	return SeverityPoor
}
