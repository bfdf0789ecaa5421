package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cadbridge/dxf-translator/internal/extract"
	"github.com/cadbridge/dxf-translator/internal/translate"
)

// TranslateDirectory translates every drawing under a directory against
// one table. Documents are independent, so they run concurrently up to
// the worker limit; each worker owns one document end to end. A failed
// document is recorded in the summary and never aborts its siblings;
// only cancellation stops the batch early.
func (s *Service) TranslateDirectory(ctx context.Context, req TranslateDirectoryRequest) (*TranslateDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.DrawingDirectory()
	}
	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	table, err := translate.LoadTable(req.TablePath, s.logger)
	if err != nil {
		return nil, fmt.Errorf("load translation table: %w", err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("translation table %s has no usable entries", req.TablePath)
	}

	paths, err := extract.DrawingFiles(req.Directory, req.Recursive)
	if err != nil {
		return nil, err
	}

	workers := req.Workers
	if workers <= 0 {
		workers = s.opts.Workers
	}

	var (
		mu      sync.Mutex
		summary = BatchSummary{Files: len(paths)}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			outputPath := ""
			if req.OutputDirectory != "" {
				outputPath = filepath.Join(req.OutputDirectory, filepath.Base(translatedPath(path)))
			}
			res, err := s.translateOne(path, outputPath, table)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.FailedPaths = append(summary.FailedPaths, path)
				s.logger.Error("drawing translation failed", "path", path, "error", err)
				return nil
			}
			summary.Succeeded++
			summary.Totals.Processed += res.Summary.Processed
			summary.Totals.Translated += res.Summary.Translated
			summary.Totals.Skipped += res.Summary.Skipped
			summary.Totals.Errors += res.Summary.Errors
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sort.Strings(summary.FailedPaths)

	return &TranslateDirectoryResult{Directory: req.Directory, Summary: summary}, nil
}
