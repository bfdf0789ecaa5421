package pipeline

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadbridge/dxf-translator/internal/dxf"
	"github.com/cadbridge/dxf-translator/internal/tabular"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// drawingWith builds a minimal drawing holding one TEXT entity per value.
func drawingWith(t *testing.T, path string, values ...string) {
	t.Helper()
	tags := []dxf.Tag{
		{Code: 0, Value: "SECTION"}, {Code: 2, Value: "TABLES"},
		{Code: 0, Value: "TABLE"}, {Code: 2, Value: "STYLE"}, {Code: 70, Value: "1"},
		{Code: 0, Value: "ENDTAB"},
		{Code: 0, Value: "ENDSEC"},
		{Code: 0, Value: "SECTION"}, {Code: 2, Value: "ENTITIES"},
	}
	for i, v := range values {
		tags = append(tags,
			dxf.Tag{Code: 0, Value: "TEXT"},
			dxf.Tag{Code: 5, Value: string(rune('A' + i))},
			dxf.Tag{Code: 40, Value: "5.0"},
			dxf.Tag{Code: 1, Value: v},
		)
	}
	tags = append(tags,
		dxf.Tag{Code: 0, Value: "ENDSEC"},
		dxf.Tag{Code: 0, Value: "EOF"},
	)

	var buf bytes.Buffer
	require.NoError(t, dxf.WriteTags(&buf, tags))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
}

func writeTable(t *testing.T, dir string, rows string) string {
	t.Helper()
	path := filepath.Join(dir, "table.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o600))
	return path
}

func newTestService(t *testing.T, opts ServiceOptions) *Service {
	t.Helper()
	svc, err := NewService(opts, discardLogger())
	require.NoError(t, err)
	return svc
}

func TestExtractFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station", "设备编号")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.NoError(t, err)

	assert.False(t, res.Degraded)
	assert.ElementsMatch(t, []string{"pump station", "设备编号"}, res.Texts)
	assert.Empty(t, res.OutputPath)
}

func TestExtractFileWritesOutput(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station")
	out := filepath.Join(root, "texts.csv")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.ExtractFile(ExtractFileRequest{Path: path, OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputPath)

	rows, err := tabular.ReadRows(out)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, tabular.ExtractHeader, rows[0])
	assert.Equal(t, []string{"1", "pump station", ""}, rows[1])
}

func TestExtractFileOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "plan.dxf")
	drawingWith(t, outside, "pump station")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	_, err := svc.ExtractFile(ExtractFileRequest{Path: outside})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security validation failed")
}

func TestExtractFileTooLarge(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root, MaxFileSize: 10})
	_, err := svc.ExtractFile(ExtractFileRequest{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}

func TestExtractDirectory(t *testing.T) {
	root := t.TempDir()
	drawingWith(t, filepath.Join(root, "a.dxf"), "shared label", "only in a")
	drawingWith(t, filepath.Join(root, "b.dxf"), "shared label", "only in b")
	// Readable but all text is numeric noise.
	drawingWith(t, filepath.Join(root, "blank.dxf"), "42")
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.dxf"), []byte("garbage"), 0o600))

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.ExtractDirectory(context.Background(), ExtractDirectoryRequest{})
	require.NoError(t, err)

	assert.Equal(t, root, res.Directory, "empty directory falls back to the configured root")
	assert.Equal(t, 4, res.Files)
	assert.Equal(t, []string{filepath.Join(root, "broken.dxf")}, res.FailedFiles,
		"only the unreadable drawing is failed; the zero-text one is not")
	assert.Equal(t, []string{"only in a", "only in b", "shared label"}, res.Texts, "union is deduplicated and sorted")
}

func TestTranslateFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station", "no translation here")
	table := writeTable(t, root, "pump station,Pumpstation\n")

	svc := newTestService(t, ServiceOptions{
		DrawingDirectory: root,
		ReplaceMode:      true,
		FontName:         "Arial",
		FontReduction:    2,
	})
	res, err := svc.TranslateFile(TranslateFileRequest{Path: path, TablePath: table})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "plan_translated.dxf"), res.OutputPath)
	assert.Equal(t, 2, res.Summary.Processed)
	assert.Equal(t, 1, res.Summary.Translated)
	assert.Equal(t, 1, res.Summary.Skipped)
	assert.Zero(t, res.Summary.Errors)

	doc, err := dxf.Open(res.OutputPath)
	require.NoError(t, err)
	texts := doc.ModelSpace().Texts()
	require.Len(t, texts, 2)
	values := []string{texts[0].Text(), texts[1].Text()}
	assert.Contains(t, values, "Pumpstation")
	assert.Contains(t, values, "no translation here")
}

func TestTranslateFileExplicitOutput(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station")
	table := writeTable(t, root, "pump station,Pumpstation\n")
	out := filepath.Join(root, "result.dxf")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.TranslateFile(TranslateFileRequest{Path: path, TablePath: table, OutputPath: out})
	require.NoError(t, err)
	assert.Equal(t, out, res.OutputPath)
	assert.FileExists(t, out)
}

func TestTranslateFileEmptyTable(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station")
	table := writeTable(t, root, "n/a,nan\n")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	_, err := svc.TranslateFile(TranslateFileRequest{Path: path, TablePath: table})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no usable entries")
}

func TestValidateFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station", "设备编号")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.ValidateFile(ValidateFileRequest{Path: path})
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Message)
	assert.Positive(t, res.SizeByte)
	assert.Equal(t, 2, res.Entities)
}

func TestValidateFileUnreadable(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "broken.dxf")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.ValidateFile(ValidateFileRequest{Path: path})
	require.NoError(t, err)

	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Message)
}

func TestValidateFileOversize(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "plan.dxf")
	drawingWith(t, path, "pump station")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root, MaxFileSize: 10})
	_, err := svc.ValidateFile(ValidateFileRequest{Path: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum size")
}

func TestServerInfo(t *testing.T) {
	root := t.TempDir()
	drawingWith(t, filepath.Join(root, "a.dxf"), "x")
	drawingWith(t, filepath.Join(root, "b.DXF"), "y")
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("n"), 0o600))

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root, MaxFileSize: 1 << 20})
	res, err := svc.ServerInfo(ServerInfoRequest{})
	require.NoError(t, err)

	assert.Equal(t, "mcp-dxf-translator", res.Name)
	assert.Equal(t, Version, res.Version)
	assert.Equal(t, root, res.DrawingDirectory)
	assert.Equal(t, 2, res.DrawingCount)
	assert.Equal(t, int64(1<<20), res.MaxFileSize)
}

func TestTranslateDirectory(t *testing.T) {
	root := t.TempDir()
	drawingWith(t, filepath.Join(root, "a.dxf"), "pump station")
	drawingWith(t, filepath.Join(root, "b.dxf"), "nothing matches")
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.dxf"), []byte("garbage"), 0o600))
	table := writeTable(t, root, "pump station,Pumpstation\n")

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root, Workers: 2})
	res, err := svc.TranslateDirectory(context.Background(), TranslateDirectoryRequest{TablePath: table})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Summary.Files)
	assert.Equal(t, 2, res.Summary.Succeeded)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Equal(t, []string{filepath.Join(root, "broken.dxf")}, res.Summary.FailedPaths)
	assert.Equal(t, 2, res.Summary.Totals.Processed)
	assert.Equal(t, 1, res.Summary.Totals.Translated)
	assert.Equal(t, 1, res.Summary.Totals.Skipped)

	assert.FileExists(t, filepath.Join(root, "a_translated.dxf"))
	assert.FileExists(t, filepath.Join(root, "b_translated.dxf"))
}

func TestTranslateDirectoryOutputDirectory(t *testing.T) {
	root := t.TempDir()
	drawingWith(t, filepath.Join(root, "a.dxf"), "pump station")
	table := writeTable(t, root, "pump station,Pumpstation\n")
	outDir := filepath.Join(root, "translated")
	require.NoError(t, os.Mkdir(outDir, 0o750))

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	res, err := svc.TranslateDirectory(context.Background(), TranslateDirectoryRequest{
		TablePath:       table,
		OutputDirectory: outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Succeeded)
	assert.FileExists(t, filepath.Join(outDir, "a_translated.dxf"))
}

func TestTranslateDirectoryCancelled(t *testing.T) {
	root := t.TempDir()
	drawingWith(t, filepath.Join(root, "a.dxf"), "pump station")
	table := writeTable(t, root, "pump station,Pumpstation\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(t, ServiceOptions{DrawingDirectory: root})
	_, err := svc.TranslateDirectory(ctx, TranslateDirectoryRequest{TablePath: table})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranslatedPath(t *testing.T) {
	assert.Equal(t, "/d/plan_translated.dxf", translatedPath("/d/plan.dxf"))
	assert.Equal(t, "plan_translated.DXF", translatedPath("plan.DXF"))
}
