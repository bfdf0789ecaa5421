package pipeline

import (
	"github.com/cadbridge/dxf-translator/internal/extract"
	"github.com/cadbridge/dxf-translator/internal/translate"
)

// ExtractFileRequest asks for the text of one drawing.
type ExtractFileRequest struct {
	Path string `json:"path"`
	// OutputPath, when set, receives the extracted strings as a CSV
	// worksheet with a blank translation column.
	OutputPath string `json:"output_path,omitempty"`
}

// ExtractFileResult carries the deduplicated text of one drawing.
type ExtractFileResult struct {
	Path string `json:"path"`
	// Texts are the cleaned strings in record order.
	Texts   []string             `json:"texts"`
	Records []extract.TextRecord `json:"records"`
	// Degraded reports that structured parsing failed and only the raw
	// tag scan contributed.
	Degraded   bool   `json:"degraded"`
	OutputPath string `json:"output_path,omitempty"`
}

// ExtractDirectoryRequest asks for the combined text of every drawing
// under a directory.
type ExtractDirectoryRequest struct {
	Directory  string `json:"directory"`
	Recursive  bool   `json:"recursive"`
	OutputPath string `json:"output_path,omitempty"`
}

// ExtractDirectoryResult aggregates per-file extraction over a directory.
type ExtractDirectoryResult struct {
	Directory string `json:"directory"`
	Files     int    `json:"files"`
	// FailedFiles lists drawings that could not be read and yielded
	// nothing. Readable drawings without translatable text are counted in
	// Files but not listed here.
	FailedFiles []string `json:"failed_files,omitempty"`
	// Texts are the union of all files' strings, deduplicated and sorted.
	Texts      []string `json:"texts"`
	OutputPath string   `json:"output_path,omitempty"`
}

// TranslateFileRequest asks for one drawing to be translated in place of
// a copy.
type TranslateFileRequest struct {
	Path      string `json:"path"`
	TablePath string `json:"table_path"`
	// OutputPath defaults to the input path with a "_translated" suffix.
	OutputPath string `json:"output_path,omitempty"`
}

// TranslateFileResult reports one drawing's substitution outcome.
type TranslateFileResult struct {
	Path       string            `json:"path"`
	OutputPath string            `json:"output_path"`
	Summary    translate.Outcome `json:"summary"`
}

// TranslateDirectoryRequest asks for a whole directory of drawings to be
// translated against one table.
type TranslateDirectoryRequest struct {
	Directory string `json:"directory"`
	TablePath string `json:"table_path"`
	// OutputDirectory defaults to the input directory; translated copies
	// are written next to their sources.
	OutputDirectory string `json:"output_directory,omitempty"`
	Recursive       bool   `json:"recursive"`
	// Workers caps concurrent documents. Zero means the configured
	// default.
	Workers int `json:"workers,omitempty"`
}

// BatchSummary totals a directory translation run.
type BatchSummary struct {
	Files       int               `json:"files"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	FailedPaths []string          `json:"failed_paths,omitempty"`
	Totals      translate.Outcome `json:"totals"`
}

// TranslateDirectoryResult reports a batch translation.
type TranslateDirectoryResult struct {
	Directory string       `json:"directory"`
	Summary   BatchSummary `json:"summary"`
}

// ValidateFileRequest asks whether a file is a readable drawing.
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// ValidateFileResult reports drawing validity and shape.
type ValidateFileResult struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	// Message explains an invalid verdict.
	Message  string `json:"message,omitempty"`
	SizeByte int64  `json:"size_bytes"`
	Layouts  int    `json:"layouts"`
	Blocks   int    `json:"blocks"`
	Entities int    `json:"text_entities"`
}

// ServerInfoRequest asks for runtime information.
type ServerInfoRequest struct {
	Directory string `json:"directory,omitempty"`
}

// ServerInfoResult describes the running service.
type ServerInfoResult struct {
	Name             string `json:"name"`
	Version          string `json:"version"`
	DrawingDirectory string `json:"drawing_directory"`
	DrawingCount     int    `json:"drawing_count"`
	MaxFileSize      int64  `json:"max_file_size"`
}
