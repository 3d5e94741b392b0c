package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bobmcallan/genvest-portal/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

type versionInfo struct {
	Version string `json:"version"`
	Build   string `json:"build"`
	Commit  string `json:"commit"`
	Backend string `json:"backend"`
}

// VersionTool returns the get_version tool definition.
func VersionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get GenVest portal version and report backend status. Use this to verify connectivity."),
	)
}

func (t *toolSet) version(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info := versionInfo{
		Version: config.GetVersion(),
		Build:   config.GetBuild(),
		Commit:  config.GetGitCommit(),
		Backend: "ok",
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := t.backend.Ping(pingCtx); err != nil {
		info.Backend = "down"
	}

	out, err := json.Marshal(info)
	if err != nil {
		return errorResult("failed to marshal version info"), nil
	}
	return textResult(string(out)), nil
}
