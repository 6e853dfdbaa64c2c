// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the scan catalog for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nanofield/nanofield/internal/scanservice"
)

// Server wraps the MCP server with nanofield tools.
type Server struct {
	mcp *server.MCPServer
	svc *scanservice.Service
}

// New creates a new MCP server with all nanofield tools registered.
func New(svc *scanservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"nanofield",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_scans",
		mcp.WithDescription("List cataloged scan files, optionally only those carrying a given channel."),
		mcp.WithString("channel", mcp.Description("Optional channel filter (Height, Amplitude, Phase)")),
	), s.listScans)

	s.mcp.AddTool(mcp.NewTool("get_scan",
		mcp.WithDescription("Read the parsed header metadata of one scan file: version, "+
			"acquisition parameters, and per-channel geometry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the scan file (e.g. session1/scan.spm)")),
	), s.getScan)

	s.mcp.AddTool(mcp.NewTool("search_scans",
		mcp.WithDescription("Full-text search over catalog metadata (paths, versions, dates, channel names)."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchScans)

	s.mcp.AddTool(mcp.NewTool("channel_stats",
		mcp.WithDescription("Decode one channel of a scan and report its grid geometry and "+
			"min/max/mean sample statistics. Optionally applies per-row scanline leveling first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the scan file")),
		mcp.WithString("channel", mcp.Required(), mcp.Description("Channel name: Height, Amplitude, or Phase")),
		mcp.WithBoolean("flatten", mcp.Description("Apply per-row polynomial detrending before computing statistics")),
		mcp.WithNumber("order", mcp.Description("Polynomial order for flattening (default 1)")),
	), s.channelStats)

	// Resource: recognized file format.
	s.mcp.AddResource(
		mcp.NewResource("nanofield://format", "Nanoscope Format Reference",
			mcp.WithResourceDescription("Structure of the Nanoscope files this catalog recognizes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listScans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channel := ""
	if c, err := req.RequireString("channel"); err == nil {
		channel = c
	}

	items, _, err := s.svc.ListScans(ctx, 0, 0, channel, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var lines []string
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("%s\t[%s]", it.Path, strings.Join(it.Channels, ", ")))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no scans cataloged"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getScan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	detail, err := s.svc.GetScan(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(detail, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchScans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) channelStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	channel, err := req.RequireString("channel")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	flatten := req.GetBool("flatten", false)
	order := req.GetInt("order", 1)

	stats, err := s.svc.ChannelStatistics(ctx, path, channel, flatten, order)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "nanofield://format",
			MIMEType: "text/markdown",
			Text:     FormatReference,
		},
	}, nil
}
