// Package pipeline orchestrates extraction and translation of drawing
// files behind a request/result API shared by the command-line tools and
// the MCP server.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cadbridge/dxf-translator/internal/dxf"
	"github.com/cadbridge/dxf-translator/internal/extract"
	"github.com/cadbridge/dxf-translator/internal/security"
	"github.com/cadbridge/dxf-translator/internal/tabular"
	"github.com/cadbridge/dxf-translator/internal/translate"
)

// Version is the service version reported by ServerInfo.
const Version = "1.0.0"

// ServiceOptions carries the configuration a Service needs.
type ServiceOptions struct {
	DrawingDirectory string
	MaxFileSize      int64
	FontName         string
	FontReduction    float64
	// ReplaceMode edits entities in place instead of recreating them.
	ReplaceMode   bool
	MinTextLength int
	MaxTextLength int
	// ExcludeLayers drops extracted text on the named layers.
	ExcludeLayers []string
	// Workers caps concurrent documents in directory translation.
	Workers int
}

// Service handles drawing operations by orchestrating the extraction
// engine, the translation engine, and path security.
type Service struct {
	opts          ServiceOptions
	engine        *extract.Engine
	pathValidator *security.PathValidator
	logger        *slog.Logger
}

// NewService creates a service confined to the configured drawing
// directory.
func NewService(opts ServiceOptions, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pathValidator, err := security.NewPathValidator(opts.DrawingDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}
	if opts.MinTextLength <= 0 {
		opts.MinTextLength = extract.DefaultMinLength
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = extract.DefaultMaxLength
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	filter := extract.NewFilter(opts.MinTextLength, opts.MaxTextLength, nil)
	filter.ExcludeLayers = opts.ExcludeLayers
	return &Service{
		opts:          opts,
		engine:        extract.NewEngine(logger, filter),
		pathValidator: pathValidator,
		logger:        logger,
	}, nil
}

// PathValidator exposes the service's directory confinement for callers
// that resolve paths before building requests.
func (s *Service) PathValidator() *security.PathValidator { return s.pathValidator }

// ExtractFile extracts all meaningful text from one drawing.
func (s *Service) ExtractFile(req ExtractFileRequest) (*ExtractFileResult, error) {
	if err := s.validateFileAccess(req.Path); err != nil {
		return nil, err
	}

	out, err := s.engine.ExtractFile(req.Path)
	if err != nil {
		return nil, err
	}

	res := &ExtractFileResult{
		Path:     req.Path,
		Texts:    out.Strings(),
		Records:  out.Records,
		Degraded: out.Degraded,
	}
	if req.OutputPath != "" {
		if err := tabular.WriteExtractCSV(req.OutputPath, res.Texts); err != nil {
			return nil, fmt.Errorf("export extraction results: %w", err)
		}
		res.OutputPath = req.OutputPath
	}
	return res, nil
}

// ExtractDirectory extracts text from every drawing under a directory and
// unions the results.
func (s *Service) ExtractDirectory(ctx context.Context, req ExtractDirectoryRequest) (*ExtractDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.DrawingDirectory()
	}
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	outputs, err := s.engine.ExtractDirectory(ctx, req.Directory, req.Recursive)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	res := &ExtractDirectoryResult{Directory: req.Directory, Files: len(outputs)}
	for _, out := range outputs {
		if len(out.Records) == 0 {
			// A drawing that could not be read structurally is a failure;
			// a readable drawing without translatable text just contributes
			// nothing.
			if out.Degraded {
				res.FailedFiles = append(res.FailedFiles, out.Path)
			}
			continue
		}
		for _, text := range out.Strings() {
			seen[text] = true
		}
	}
	for text := range seen {
		res.Texts = append(res.Texts, text)
	}
	sort.Strings(res.Texts)

	if req.OutputPath != "" {
		if err := tabular.WriteExtractCSV(req.OutputPath, res.Texts); err != nil {
			return nil, fmt.Errorf("export extraction results: %w", err)
		}
		res.OutputPath = req.OutputPath
	}
	return res, nil
}

// TranslateFile translates one drawing against a table and saves the
// result. An empty translation table is an error, not a silent no-op.
func (s *Service) TranslateFile(req TranslateFileRequest) (*TranslateFileResult, error) {
	if err := s.validateFileAccess(req.Path); err != nil {
		return nil, err
	}

	table, err := translate.LoadTable(req.TablePath, s.logger)
	if err != nil {
		return nil, fmt.Errorf("load translation table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("translation table %s has no usable entries", req.TablePath)
	}
	return s.translateOne(req.Path, req.OutputPath, table)
}

// translateOne runs a substitution pass over one drawing with an already
// loaded table.
func (s *Service) translateOne(path, outputPath string, table map[string]string) (*TranslateFileResult, error) {
	doc, err := dxf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open drawing %s: %w", path, err)
	}

	sub := translate.NewSubstituter(table, translate.Options{
		Mode:          s.substitutionMode(),
		FontName:      s.opts.FontName,
		FontReduction: s.opts.FontReduction,
	}, s.logger)
	summary := sub.TranslateDocument(doc)

	if outputPath == "" {
		outputPath = translatedPath(path)
	}
	if err := doc.Save(outputPath); err != nil {
		return nil, fmt.Errorf("save translated drawing: %w", err)
	}

	s.logger.Info("translated drawing",
		"path", path, "output", outputPath,
		"processed", summary.Processed, "translated", summary.Translated,
		"skipped", summary.Skipped, "errors", summary.Errors)
	return &TranslateFileResult{Path: path, OutputPath: outputPath, Summary: summary}, nil
}

// ValidateFile checks that a file is a structurally readable drawing
// within size limits.
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	if err := s.validateFileAccess(req.Path); err != nil {
		return nil, err
	}

	res := &ValidateFileResult{Path: req.Path}
	info, err := os.Stat(req.Path)
	if err != nil {
		res.Message = err.Error()
		return res, nil
	}
	res.SizeByte = info.Size()
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		res.Message = fmt.Sprintf("file exceeds maximum size of %d bytes", s.opts.MaxFileSize)
		return res, nil
	}

	doc, err := dxf.Open(req.Path)
	if err != nil {
		res.Message = err.Error()
		return res, nil
	}

	res.Valid = true
	res.Layouts = len(doc.Layouts())
	res.Blocks = len(doc.Blocks())
	res.Entities = countTextEntities(doc)
	return res, nil
}

// ServerInfo reports runtime information about the service.
func (s *Service) ServerInfo(req ServerInfoRequest) (*ServerInfoResult, error) {
	dir := req.Directory
	if dir == "" {
		dir = s.pathValidator.DrawingDirectory()
	}

	count := 0
	if paths, err := extract.DrawingFiles(dir, false); err == nil {
		count = len(paths)
	}
	return &ServerInfoResult{
		Name:             "mcp-dxf-translator",
		Version:          Version,
		DrawingDirectory: s.pathValidator.DrawingDirectory(),
		DrawingCount:     count,
		MaxFileSize:      s.opts.MaxFileSize,
	}, nil
}

func (s *Service) substitutionMode() translate.Mode {
	if s.opts.ReplaceMode {
		return translate.ModeReplace
	}
	return translate.ModeRecreate
}

func (s *Service) validateFileAccess(path string) error {
	if err := s.pathValidator.ValidatePath(path); err != nil {
		return fmt.Errorf("security validation failed: %w", err)
	}
	if s.opts.MaxFileSize > 0 {
		if info, err := os.Stat(path); err == nil && info.Size() > s.opts.MaxFileSize {
			return fmt.Errorf("file %s exceeds maximum size of %d bytes", path, s.opts.MaxFileSize)
		}
	}
	return nil
}

func countTextEntities(doc *dxf.Document) int {
	n := 0
	count := func(r *dxf.Region) {
		n += len(r.Texts()) + len(r.MTexts()) + len(r.AttDefs())
		for _, ins := range r.Inserts() {
			n += len(ins.Attribs())
		}
	}
	count(doc.ModelSpace())
	for _, layout := range doc.Layouts() {
		if layout.Name != dxf.ModelLayoutName {
			count(layout)
		}
	}
	for _, block := range doc.Blocks() {
		count(block)
	}
	return n
}

// translatedPath derives the default output path for a translated copy.
func translatedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_translated" + ext
}
