package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/text/encoding/charmap"

	"github.com/nanofield/nanofield/internal/index"
	"github.com/nanofield/nanofield/internal/scanservice"
	"github.com/nanofield/nanofield/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	dir, store := testutil.TestScanDir(t)
	db := testutil.TestDB(t)

	testutil.WriteScan(t, dir, "probe.spm",
		testutil.Channel{Name: "Height", Rows: 8, Cols: 8},
		testutil.Channel{Name: "Phase", Rows: 8, Cols: 8})

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := index.Sync(db, store, charmap.Windows1252, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	svc := scanservice.NewService(store, db, charmap.Windows1252)
	return New(svc), dir
}

// callTool dispatches to the tool handler functions directly; mcp-go does
// not expose a call-tool test helper.
func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_scans":
		result, err = srv.listScans(ctx, req)
	case "get_scan":
		result, err = srv.getScan(ctx, req)
	case "search_scans":
		result, err = srv.searchScans(ctx, req)
	case "channel_stats":
		result, err = srv.channelStats(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListScansTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_scans", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "probe.spm") {
		t.Errorf("list result = %q, want probe.spm", text)
	}
	if !strings.Contains(text, "Height") {
		t.Errorf("list result missing channel names: %q", text)
	}
}

func TestListScansTool_ChannelFilter(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_scans", map[string]interface{}{"channel": "Amplitude"})
	text := resultText(r)
	if text != "no scans cataloged" {
		t.Errorf("Amplitude filter should match nothing, got %q", text)
	}
}

func TestGetScanTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_scan", map[string]interface{}{"path": "probe.spm"})
	if r.IsError {
		t.Fatalf("get_scan error: %q", resultText(r))
	}
	var detail map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &detail); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if detail["version"] != "0x05120130" {
		t.Errorf("version = %v", detail["version"])
	}
	if len(detail["channels"].([]any)) != 2 {
		t.Errorf("channels = %v", detail["channels"])
	}
}

func TestGetScanTool_Missing(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_scan", map[string]interface{}{"path": "nope.spm"})
	if !r.IsError {
		t.Error("expected error for missing scan")
	}
}

func TestSearchScansTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_scans", map[string]interface{}{"query": "probe"})
	if r.IsError {
		t.Fatalf("search error: %q", resultText(r))
	}
	if !strings.Contains(resultText(r), "probe.spm") {
		t.Errorf("search result = %q, want probe.spm", resultText(r))
	}
}

func TestChannelStatsTool(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "channel_stats", map[string]interface{}{
		"path":    "probe.spm",
		"channel": "Height",
	})
	if r.IsError {
		t.Fatalf("channel_stats error: %q", resultText(r))
	}
	var stats map[string]any
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if stats["rows"].(float64) != 8 || stats["cols"].(float64) != 8 {
		t.Errorf("geometry = %vx%v, want 8x8", stats["rows"], stats["cols"])
	}
}

func TestChannelStatsTool_Flattened(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "channel_stats", map[string]interface{}{
		"path":    "probe.spm",
		"channel": "Height",
		"flatten": true,
		"order":   0,
	})
	if r.IsError {
		t.Fatalf("channel_stats error: %q", resultText(r))
	}
	var stats map[string]any
	_ = json.Unmarshal([]byte(resultText(r)), &stats)
	// Mean-subtracted rows have mean zero.
	if mean := stats["mean"].(float64); mean > 1e-9 || mean < -1e-9 {
		t.Errorf("flattened mean = %g, want 0", mean)
	}
}

func TestChannelStatsTool_AbsentChannel(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "channel_stats", map[string]interface{}{
		"path":    "probe.spm",
		"channel": "Amplitude",
	})
	if !r.IsError {
		t.Error("expected error for channel absent from the file")
	}
}

func TestFormatResource(t *testing.T) {
	srv, _ := testServer(t)

	contents, err := srv.readFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("readFormatResource: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("unexpected contents type %T", contents[0])
	}
	if !strings.Contains(tc.Text, "File list") {
		t.Errorf("format reference missing header structure description")
	}
}
