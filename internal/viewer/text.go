package viewer

import (
	"fmt"
	"io"
	"strings"
)

// WriteText renders a view as plain text for terminals and tool output.
func WriteText(w io.Writer, v View) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n%s\n\n", v.Title(), strings.Repeat("=", len([]rune(v.Title()))))

	b.WriteString("Market Snapshot\n")
	for _, s := range v.Stats {
		fmt.Fprintf(&b, "  %s\n", s)
	}
	b.WriteString("\n")

	if f := v.Forecast; f != nil {
		b.WriteString("📊 Price Forecast\n")
		for _, c := range f.Changes {
			fmt.Fprintf(&b, "  Next %d Days: %s (%s)\n", c.Days, c.Predicted, c.Percent)
		}
		if f.HasMAE {
			fmt.Fprintf(&b, "  Validation MAE: %s (%s)\n", f.MAE, f.MAESeverity)
		}
		b.WriteString("\n")
	}

	section(&b, "📰 News Summary", v.News)
	section(&b, "📋 SWOT & Investment Summary", v.SWOT)
	section(&b, "💡 AI Recommendation", v.Recommendation)

	_, err := io.WriteString(w, b.String())
	return err
}

func section(b *strings.Builder, title, body string) {
	fmt.Fprintf(b, "%s\n%s\n\n", title, strings.TrimRight(body, "\n"))
}
