// Command dxf_extract_texts extracts the translatable text of one
// drawing or a directory of drawings into a CSV worksheet with a blank
// translation column.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/cadbridge/dxf-translator/internal/extract"
	"github.com/cadbridge/dxf-translator/internal/pipeline"
	"github.com/cadbridge/dxf-translator/internal/tabular"
)

func main() {
	var (
		output        = pflag.StringP("output", "o", "", "Output CSV path (default <input>_texts.csv)")
		recursive     = pflag.BoolP("recursive", "r", false, "Descend into subdirectories")
		minLen        = pflag.Int("minlength", 1, "Minimum text length in characters")
		maxLen        = pflag.Int("maxlength", 1000, "Maximum text length in characters")
		chineseOnly   = pflag.Bool("chinese-only", false, "Keep only strings containing Chinese characters")
		excludeLayers = pflag.StringSlice("exclude-layers", nil, "Layer names whose text is skipped")
		verbose       = pflag.BoolP("verbose", "v", false, "Enable debug logging")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <drawing.dxf | directory>\n\nFlags:\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 1 {
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
		MinTextLength:    *minLen,
		MaxTextLength:    *maxLen,
		ExcludeLayers:    *excludeLayers,
	}, logger)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	var texts []string
	if info.IsDir() {
		res, err := service.ExtractDirectory(context.Background(), pipeline.ExtractDirectoryRequest{
			Directory: input,
			Recursive: *recursive,
		})
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
		texts = res.Texts
		fmt.Printf("Extracted %d unique strings from %d drawing(s)\n", len(res.Texts), res.Files)
		if len(res.FailedFiles) > 0 {
			fmt.Printf("Unreadable drawings: %s\n", strings.Join(res.FailedFiles, ", "))
		}
	} else {
		res, err := service.ExtractFile(pipeline.ExtractFileRequest{
			Path: input,
		})
		if err != nil {
			logger.Error("extraction failed", "error", err)
			os.Exit(1)
		}
		texts = res.Texts
		fmt.Printf("Extracted %d strings from %s\n", len(res.Texts), input)
		if res.Degraded {
			fmt.Println("Warning: structured parsing failed, results come from the raw record scan")
		}
	}

	if *chineseOnly {
		kept := texts[:0]
		for _, t := range texts {
			if extract.ContainsChinese(t) {
				kept = append(kept, t)
			}
		}
		texts = kept
		fmt.Printf("Kept %d string(s) containing Chinese characters\n", len(texts))
	}

	if len(texts) == 0 {
		fmt.Println("No translatable text found")
		os.Exit(1)
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = defaultOutput(input, info.IsDir())
	}
	if err := tabular.WriteExtractCSV(outputPath, texts); err != nil {
		logger.Error("failed to write worksheet", "path", outputPath, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Worksheet written to %s\n", outputPath)
}

func defaultOutput(input string, isDir bool) string {
	if isDir {
		return filepath.Join(input, "extracted_texts.csv")
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + "_texts.csv"
}
