// Command dxf_backfill writes translations from a filled-in table back
// into one drawing or a directory of drawings. Exits non-zero when the
// table has no usable entries or any drawing fails.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/cadbridge/dxf-translator/internal/pipeline"
)

func main() {
	var (
		table     = pflag.StringP("table", "t", "", "Translation table path (CSV or XLSX), required")
		output    = pflag.StringP("output", "o", "", "Output path (file mode) or directory (directory mode)")
		recursive = pflag.BoolP("recursive", "r", false, "Descend into subdirectories")
		font      = pflag.String("font", "Times New Roman", "Font assigned to translated text")
		reduction = pflag.Float64("fontreduction", 4, "Height reduction applied to translated text")
		replace   = pflag.Bool("replacemode", false, "Edit entities in place instead of recreating them")
		workers   = pflag.Int("workers", 4, "Concurrent documents in directory mode")
		verbose   = pflag.BoolP("verbose", "v", false, "Enable debug logging")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s --table translations.csv <drawing.dxf | directory>\n\nFlags:\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 || *table == "" {
		pflag.Usage()
		os.Exit(2)
	}
	input := pflag.Arg(0)

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	info, err := os.Stat(input)
	if err != nil {
		logger.Error("cannot access input", "path", input, "error", err)
		os.Exit(1)
	}

	dir := input
	if !info.IsDir() {
		dir = filepath.Dir(input)
	}
	service, err := pipeline.NewService(pipeline.ServiceOptions{
		DrawingDirectory: dir,
		FontName:         *font,
		FontReduction:    *reduction,
		ReplaceMode:      *replace,
		Workers:          *workers,
	}, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	if info.IsDir() {
		res, err := service.TranslateDirectory(context.Background(), pipeline.TranslateDirectoryRequest{
			Directory:       input,
			TablePath:       *table,
			OutputDirectory: *output,
			Recursive:       *recursive,
		})
		if err != nil {
			logger.Error("translation failed", "error", err)
			os.Exit(1)
		}
		sum := res.Summary
		fmt.Printf("Translated %d of %d drawing(s)\n", sum.Succeeded, sum.Files)
		fmt.Printf("Entities processed: %d, translated: %d, skipped: %d, errors: %d\n",
			sum.Totals.Processed, sum.Totals.Translated, sum.Totals.Skipped, sum.Totals.Errors)
		if sum.Failed > 0 {
			fmt.Printf("Failed drawings: %s\n", strings.Join(sum.FailedPaths, ", "))
			os.Exit(1)
		}
		return
	}

	res, err := service.TranslateFile(pipeline.TranslateFileRequest{
		Path:       input,
		TablePath:  *table,
		OutputPath: *output,
	})
	if err != nil {
		logger.Error("translation failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Translated %s -> %s\n", res.Path, res.OutputPath)
	fmt.Printf("Entities processed: %d, translated: %d, skipped: %d, errors: %d\n",
		res.Summary.Processed, res.Summary.Translated, res.Summary.Skipped, res.Summary.Errors)
	if res.Summary.Errors > 0 {
		os.Exit(1)
	}
}
