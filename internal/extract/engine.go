package extract

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cadbridge/dxf-translator/internal/dxf"
)

// Output is the result of extracting one drawing file.
type Output struct {
	Path    string
	Records []TextRecord
	// Results holds the per-strategy outcomes, including failed ones.
	Results []Result
	// Degraded is set when the file could not be opened as a structured
	// document and only the tag-scan repair path ran.
	Degraded bool
}

// Strings returns the deduplicated text values in record order.
func (o *Output) Strings() []string {
	out := make([]string, 0, len(o.Records))
	for _, r := range o.Records {
		out = append(out, r.Text)
	}
	return out
}

// Engine runs every extraction strategy over a drawing and merges their
// outputs into one deduplicated record set.
type Engine struct {
	sources []Source
	noise   *NoiseClassifier
	filter  *Filter
	logger  *slog.Logger
}

// NewEngine builds an engine with the full strategy set. filter may be
// nil, in which case the default length window and exclusion patterns
// apply.
func NewEngine(logger *slog.Logger, filter *Filter) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if filter == nil {
		filter = NewFilter(DefaultMinLength, DefaultMaxLength, nil)
	}
	return &Engine{
		sources: Sources(),
		noise:   NewNoiseClassifier(),
		filter:  filter,
		logger:  logger,
	}
}

// ExtractFile extracts all meaningful text from one drawing. Strategies
// run in registration order and are isolated from each other: a panic or
// error in one is recorded in its Result and the rest still run. When the
// file cannot be parsed structurally at all, the tag-scan repair strategy
// runs alone and the output is flagged degraded.
func (e *Engine) ExtractFile(path string) (*Output, error) {
	out := &Output{Path: path}

	doc, err := dxf.Open(path)
	if err != nil {
		e.logger.Warn("structured parse failed, falling back to tag scan",
			"path", path, "error", err)
		out.Degraded = true
	}

	for _, src := range e.sources {
		if out.Degraded && src.Name() != StrategyTagScan {
			continue
		}
		res := e.runSource(src, doc, path)
		out.Results = append(out.Results, res)
		if res.Err != nil {
			e.logger.Warn("extraction strategy failed",
				"path", path, "strategy", res.Strategy, "error", res.Err)
		}
	}

	out.Records = e.merge(out.Results)
	if out.Degraded && len(out.Records) == 0 {
		return out, fmt.Errorf("extract %s: %w", path, err)
	}
	return out, nil
}

// runSource executes one strategy with panic containment.
func (e *Engine) runSource(src Source, doc *dxf.Document, path string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Strategy: src.Name(), Err: fmt.Errorf("strategy panic: %v", r)}
		}
	}()
	return src.Extract(doc, path)
}

// merge unions strategy outputs, drops noise, and deduplicates. Records
// carrying an entity handle dedupe on the handle with the earliest
// strategy winning; handle-less records (the repair path, attribute tag
// names) dedupe on the cleaned text value instead.
func (e *Engine) merge(results []Result) []TextRecord {
	seenHandle := make(map[string]bool)
	seenValue := make(map[string]bool)
	var merged []TextRecord

	for _, res := range results {
		if res.Err != nil {
			continue
		}
		for _, rec := range res.Records {
			if e.filter.LayerExcluded(rec.Layer) {
				continue
			}
			text := Clean(rec.Text)
			if text == "" || !e.noise.IsMeaningful(text) || !e.filter.Valid(text) {
				continue
			}
			if rec.Handle != "" {
				if seenHandle[rec.Handle] {
					continue
				}
				seenHandle[rec.Handle] = true
			} else {
				if seenValue[text] {
					continue
				}
				seenValue[text] = true
			}
			rec.Text = text
			merged = append(merged, rec)
		}
	}
	return merged
}

// ExtractDirectory extracts every drawing file under dir, non-recursively
// by default and recursively when recurse is set. Per-file failures are
// logged and collected; one bad file never stops the batch.
func (e *Engine) ExtractDirectory(ctx context.Context, dir string, recurse bool) ([]*Output, error) {
	paths, err := DrawingFiles(dir, recurse)
	if err != nil {
		return nil, err
	}

	var outputs []*Output
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}
		out, err := e.ExtractFile(path)
		if err != nil {
			e.logger.Error("file extraction failed", "path", path, "error", err)
		}
		if out != nil {
			outputs = append(outputs, out)
		}
	}
	return outputs, nil
}

// DrawingFiles lists the DXF files under dir in sorted order. The
// extension match is case-insensitive.
func DrawingFiles(dir string, recurse bool) ([]string, error) {
	var paths []string
	if recurse {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDrawingFile(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
	} else {
		entries, err := filepath.Glob(filepath.Join(dir, "*"))
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, path := range entries {
			if isDrawingFile(path) {
				paths = append(paths, path)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func isDrawingFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dxf")
}
