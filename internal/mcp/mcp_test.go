package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/client"
	"github.com/bobmcallan/genvest-portal/internal/common"
	"github.com/bobmcallan/genvest-portal/internal/models"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type fakeBackend struct {
	report      *models.Report
	generateErr error
	creds       models.Credentials

	suggestions []models.TickerSuggestion
	searchErr   error

	pingErr error
}

func (f *fakeBackend) GenerateReport(_ context.Context, creds models.Credentials) (*models.Report, error) {
	f.creds = creds
	return f.report, f.generateErr
}

func (f *fakeBackend) SearchTickers(context.Context, string) ([]models.TickerSuggestion, error) {
	return f.suggestions, f.searchErr
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }

func newTestHandler(b *fakeBackend) *Handler {
	return NewHandler(b, common.NewSilentLogger(), time.Second)
}

// listTools calls tools/list on the MCPServer and returns the tools.
func listTools(t *testing.T, s *mcpserver.MCPServer) []mcpgo.Tool {
	t.Helper()

	msg := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	result := s.HandleMessage(t.Context(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolsResult mcpgo.ListToolsResult
	if err := json.Unmarshal(resultJSON, &toolsResult); err != nil {
		t.Fatalf("failed to unmarshal ListToolsResult: %v", err)
	}
	return toolsResult.Tools
}

// callTool calls a tool on the MCPServer and returns the result.
func callTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]interface{}) *mcpgo.CallToolResult {
	t.Helper()

	paramsJSON, _ := json.Marshal(map[string]interface{}{"name": name, "arguments": args})
	msg := json.RawMessage(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":` + string(paramsJSON) + `}`)
	result := s.HandleMessage(t.Context(), msg)

	resp, ok := result.(mcpgo.JSONRPCResponse)
	if !ok {
		t.Fatalf("expected JSONRPCResponse, got %T", result)
	}

	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("failed to marshal result: %v", err)
	}

	var toolResult mcpgo.CallToolResult
	if err := json.Unmarshal(resultJSON, &toolResult); err != nil {
		t.Fatalf("failed to unmarshal CallToolResult: %v", err)
	}
	return &toolResult
}

// extractText extracts the text field from an MCP content block.
func extractText(t *testing.T, content mcpgo.Content) string {
	t.Helper()
	contentJSON, _ := json.Marshal(content)
	var tc struct {
		Text string `json:"text"`
	}
	json.Unmarshal(contentJSON, &tc)
	return tc.Text
}

func TestListTools(t *testing.T) {
	h := newTestHandler(&fakeBackend{})

	names := map[string]bool{}
	for _, tool := range listTools(t, h.Server()) {
		names[tool.Name] = true
	}
	for _, want := range []string{"generate_report", "search_tickers", "get_version"} {
		if !names[want] {
			t.Errorf("expected tool %s to be registered", want)
		}
	}
}

func TestGenerateReport(t *testing.T) {
	b := &fakeBackend{report: &models.Report{
		Ticker:     "AAPL",
		Company:    "Apple Inc.",
		MarketData: &models.MarketData{MarketCap: models.Num(2.8e12)},
	}}
	h := newTestHandler(b)

	result := callTool(t, h.Server(), "generate_report", map[string]interface{}{
		"ticker":     "AAPL",
		"openai_key": "sk-test",
		"serper_key": "serper-test",
	})

	if result.IsError {
		t.Fatalf("unexpected error result: %s", extractText(t, result.Content[0]))
	}
	text := extractText(t, result.Content[0])
	for _, want := range []string{"Apple Inc. (AAPL)", "🏛️ Market Cap: 2.8T"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in:\n%s", want, text)
		}
	}
	if b.creds.OpenAIKey != "sk-test" || b.creds.SerperKey != "serper-test" {
		t.Errorf("credentials not forwarded: %+v", b.creds)
	}
}

func TestGenerateReport_Incomplete(t *testing.T) {
	h := newTestHandler(&fakeBackend{})

	result := callTool(t, h.Server(), "generate_report", map[string]interface{}{
		"ticker":     "AAPL",
		"openai_key": "sk-test",
	})
	if !result.IsError {
		t.Error("expected error result for missing key")
	}
}

func TestGenerateReport_BackendFailure(t *testing.T) {
	h := newTestHandler(&fakeBackend{generateErr: client.ErrRequestFailed})

	result := callTool(t, h.Server(), "generate_report", map[string]interface{}{
		"ticker":     "aapl",
		"openai_key": "sk-test",
		"serper_key": "serper-test",
	})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if text := extractText(t, result.Content[0]); !strings.Contains(text, "AAPL") {
		t.Errorf("expected ticker in error, got %q", text)
	}
}

func TestSearchTickers(t *testing.T) {
	var many []models.TickerSuggestion
	for _, s := range []string{"TSLA", "TSM", "TSN", "TSCO", "TSE", "TSLX"} {
		many = append(many, models.TickerSuggestion{Symbol: s, Name: s + " Corp"})
	}
	h := newTestHandler(&fakeBackend{suggestions: many})

	result := callTool(t, h.Server(), "search_tickers", map[string]interface{}{"query": "TS"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", extractText(t, result.Content[0]))
	}

	lines := strings.Split(strings.TrimSpace(extractText(t, result.Content[0])), "\n")
	if len(lines) != 5 {
		t.Errorf("expected 5 suggestions, got %d", len(lines))
	}
	if lines[0] != "TSLA — TSLA Corp" {
		t.Errorf("unexpected first line %q", lines[0])
	}
}

func TestSearchTickers_ShortQuery(t *testing.T) {
	h := newTestHandler(&fakeBackend{})

	result := callTool(t, h.Server(), "search_tickers", map[string]interface{}{"query": "T"})
	if !result.IsError {
		t.Error("expected error for one-character query")
	}
}

func TestSearchTickers_Empty(t *testing.T) {
	h := newTestHandler(&fakeBackend{suggestions: []models.TickerSuggestion{}})

	result := callTool(t, h.Server(), "search_tickers", map[string]interface{}{"query": "ZZZZ"})
	if text := extractText(t, result.Content[0]); text != "No matching tickers." {
		t.Errorf("unexpected text %q", text)
	}
}

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		want    string
	}{
		{"backend up", nil, "ok"},
		{"backend down", client.ErrRequestFailed, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeBackend{pingErr: tt.pingErr})
			result := callTool(t, h.Server(), "get_version", map[string]interface{}{})

			var info versionInfo
			if err := json.Unmarshal([]byte(extractText(t, result.Content[0])), &info); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if info.Version == "" {
				t.Error("expected version")
			}
			if info.Backend != tt.want {
				t.Errorf("expected backend %s, got %s", tt.want, info.Backend)
			}
		})
	}
}
