package mcp

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/form"
	"github.com/bobmcallan/genvest-portal/internal/models"
	"github.com/bobmcallan/genvest-portal/internal/viewer"
	"github.com/mark3labs/mcp-go/mcp"
)

type toolSet struct {
	backend Backend
	logger  *common.Logger
	timeout time.Duration
}

// GenerateReportTool returns the generate_report tool definition.
func GenerateReportTool() mcp.Tool {
	return mcp.NewTool("generate_report",
		mcp.WithDescription("Generate an AI investment report for a stock ticker. Training the forecast model can take minutes."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Stock ticker, e.g. AAPL")),
		mcp.WithString("openai_key", mcp.Required(), mcp.Description("OpenAI API key used for the report")),
		mcp.WithString("serper_key", mcp.Required(), mcp.Description("Serper API key used for news search")),
	)
}

// SearchTickersTool returns the search_tickers tool definition.
func SearchTickersTool() mcp.Tool {
	return mcp.NewTool("search_tickers",
		mcp.WithDescription("Find ticker symbols matching a company name or partial symbol."),
		mcp.WithString("query", mcp.Required(), mcp.Description("At least two characters")),
	)
}

func (t *toolSet) generateReport(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	creds := models.Credentials{
		Ticker:    strings.TrimSpace(r.GetString("ticker", "")),
		OpenAIKey: strings.TrimSpace(r.GetString("openai_key", "")),
		SerperKey: strings.TrimSpace(r.GetString("serper_key", "")),
	}
	if err := form.Validate(creds); err != nil {
		return errorResult(err.Error()), nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	report, err := t.backend.GenerateReport(ctx, creds)
	if err != nil {
		t.logger.Error().Str("ticker", creds.Ticker).Err(err).Msg("MCP report generation failed")
		return errorResult(fmt.Sprintf("failed to generate report for %s", strings.ToUpper(creds.Ticker))), nil
	}

	var buf bytes.Buffer
	if err := viewer.WriteText(&buf, viewer.Render(report)); err != nil {
		return errorResult("failed to render report"), nil
	}
	return textResult(buf.String()), nil
}

func (t *toolSet) searchTickers(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(r.GetString("query", ""))
	if len([]rune(query)) < form.MinQueryLength {
		return errorResult(fmt.Sprintf("query must be at least %d characters", form.MinQueryLength)), nil
	}

	results, err := t.backend.SearchTickers(ctx, query)
	if err != nil {
		t.logger.Warn().Str("query", query).Err(err).Msg("MCP ticker search failed")
		return errorResult("ticker search failed"), nil
	}

	results = form.Top(results)
	if len(results) == 0 {
		return textResult("No matching tickers."), nil
	}

	var b strings.Builder
	for _, s := range results {
		fmt.Fprintf(&b, "%s — %s\n", s.Symbol, s.Name)
	}
	return textResult(b.String()), nil
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}
