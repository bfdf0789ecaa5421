package mcp

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadbridge/dxf-translator/internal/config"
	"github.com/cadbridge/dxf-translator/internal/dxf"
	"github.com/cadbridge/dxf-translator/internal/pipeline"
	"github.com/cadbridge/dxf-translator/internal/translate"
)

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.DrawingDirectory = dir
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	svc, err := pipeline.NewService(pipeline.ServiceOptions{DrawingDirectory: dir}, testLogger())
	require.NoError(t, err)
	srv, err := NewServer(testConfig(dir), svc, testLogger())
	require.NoError(t, err)
	return srv
}

// writeDrawing places a one-entity drawing in dir.
func writeDrawing(t *testing.T, dir, name, value string) string {
	t.Helper()
	tags := []dxf.Tag{
		{Code: 0, Value: "SECTION"}, {Code: 2, Value: "TABLES"},
		{Code: 0, Value: "TABLE"}, {Code: 2, Value: "STYLE"}, {Code: 70, Value: "1"},
		{Code: 0, Value: "ENDTAB"},
		{Code: 0, Value: "ENDSEC"},
		{Code: 0, Value: "SECTION"}, {Code: 2, Value: "ENTITIES"},
		{Code: 0, Value: "TEXT"}, {Code: 5, Value: "A1"}, {Code: 40, Value: "5.0"}, {Code: 1, Value: value},
		{Code: 0, Value: "ENDSEC"},
		{Code: 0, Value: "EOF"},
	}
	var buf bytes.Buffer
	require.NoError(t, dxf.WriteTags(&buf, tags))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	srv := newTestServer(t, dir)
	assert.NotNil(t, srv.mcpServer)
}

func TestNewServerNilService(t *testing.T) {
	_, err := NewServer(testConfig(t.TempDir()), nil, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service cannot be nil")
}

func TestHandleExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDrawing(t, dir, "plan.dxf", "pump station")
	srv := newTestServer(t, dir)

	res, err := srv.handleExtractFile(context.Background(), callRequest(map[string]any{"path": path}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "Strings found: 1")
	assert.Contains(t, text, "pump station")
}

func TestHandleExtractFileMissingPath(t *testing.T) {
	srv := newTestServer(t, t.TempDir())

	res, err := srv.handleExtractFile(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleTranslateFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDrawing(t, dir, "plan.dxf", "pump station")
	table := filepath.Join(dir, "table.csv")
	require.NoError(t, os.WriteFile(table, []byte("pump station,Pumpstation\n"), 0o600))
	srv := newTestServer(t, dir)

	res, err := srv.handleTranslateFile(context.Background(), callRequest(map[string]any{
		"path":       path,
		"table_path": table,
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "Translated: 1")
	assert.FileExists(t, filepath.Join(dir, "plan_translated.dxf"))
}

func TestHandleValidateFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDrawing(t, dir, "plan.dxf", "pump station")
	srv := newTestServer(t, dir)

	res, err := srv.handleValidateFile(context.Background(), callRequest(map[string]any{"path": path}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "valid and readable")
}

func TestHandleServerInfo(t *testing.T) {
	dir := t.TempDir()
	writeDrawing(t, dir, "plan.dxf", "pump station")
	srv := newTestServer(t, dir)

	res, err := srv.handleServerInfo(context.Background(), callRequest(nil))
	require.NoError(t, err)

	text := resultText(t, res)
	assert.Contains(t, text, "mcp-dxf-translator")
	assert.Contains(t, text, "Drawings found: 1")
}

func TestFormatOutcome(t *testing.T) {
	got := formatOutcome(translate.Outcome{Processed: 4, Translated: 2, Skipped: 1, Errors: 1})
	assert.Equal(t, "Entities processed: 4\nTranslated: 2\nSkipped: 1\nErrors: 1\n", got)
}
