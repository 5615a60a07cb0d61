// Package mcpserver exposes SEO inspection as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/flavioespinoza/seo-scraper/analyzer"
	"github.com/flavioespinoza/seo-scraper/tags"
)

// Tool names
const (
	ToolInspect = "seo_inspect"
	ToolTags    = "seo_tags"
)

// Previewer runs the analysis core for a URL
type Previewer interface {
	Preview(ctx context.Context, rawURL string) (*analyzer.Preview, error)
}

// NewServer creates an MCP server with all SEO tools registered
func NewServer(version string, previewer Previewer) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "seo-scraper", Version: version}, nil)
	Register(srv, previewer)
	return srv
}

// Register adds the SEO tools to srv
func Register(srv *mcp.Server, previewer Previewer) {
	registerInspectTool(srv, previewer)
	registerTagsTool(srv)
}

type inspectReq struct {
	URL string `json:"url"`
}

func registerInspectTool(srv *mcp.Server, previewer Previewer) {
	tool := &mcp.Tool{
		Name:        ToolInspect,
		Description: "Fetch a web page and report its SEO metadata, validation issues, tags and business category.",
		InputSchema: inputSchema(map[string]any{
			"url": map[string]any{"type": "string", "description": "Page URL, scheme optional"},
		}, []string{"url"}),
	}

	addTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var r inspectReq
		if err := json.Unmarshal(args, &r); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		if r.URL == "" {
			return nil, errors.New("url is required")
		}
		return previewer.Preview(ctx, r.URL)
	})
}

func registerTagsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        ToolTags,
		Description: "List the report tag vocabulary and business categories.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	addTool(srv, tool, func(_ context.Context, _ json.RawMessage) (any, error) {
		return map[string]any{
			"status":    tags.Strings(tags.StatusTags),
			"technical": tags.Strings(tags.TechnicalTags),
			"business":  tags.BusinessCategories,
		}, nil
	})
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addTool registers a handler whose result is returned as JSON text.
// Handler errors become tool errors rather than protocol errors.
func addTool(srv *mcp.Server, tool *mcp.Tool, handler func(context.Context, json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := handler(ctx, req.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}
