// Package translate matches extracted drawing text against a
// human-supplied translation table and writes the translations back into
// the drawing.
package translate

import (
	"log/slog"
	"os"
	"strings"

	"github.com/cadbridge/dxf-translator/internal/tabular"
)

// placeholders are cell values that mean "no translation here". They come
// from spreadsheet round trips where empty cells get serialized as text.
var placeholders = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
	"null": true,
	"n/a":  true,
	"na":   true,
}

func isPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

// LoadTable reads a translation table from a tabular file. Rows with
// three or more columns are read as (index, source, target); two-column
// rows as (source, target); narrower rows are skipped with a warning.
// Rows whose source or target is a placeholder are skipped. When the same
// source appears more than once the last valid row wins.
//
// A missing file yields an empty table, not an error, so callers can
// decide whether an absent table is fatal for their operation.
func LoadTable(path string, logger *slog.Logger) (map[string]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("translation table not found", "path", path)
		return map[string]string{}, nil
	}

	rows, err := tabular.ReadRows(path)
	if err != nil {
		return nil, err
	}

	table := make(map[string]string)
	for i, row := range rows {
		if i == 0 && isHeaderRow(row) {
			continue
		}
		var source, target string
		switch {
		case len(row) >= 3:
			source, target = row[1], row[2]
		case len(row) == 2:
			source, target = row[0], row[1]
		default:
			logger.Warn("translation row too narrow, skipping", "row", i+1, "columns", len(row))
			continue
		}

		source = strings.TrimSpace(source)
		if source == "" || isPlaceholder(source) {
			continue
		}
		target = strings.TrimSpace(target)
		if isPlaceholder(target) {
			continue
		}
		table[source] = target
	}
	return table, nil
}

// isHeaderRow recognizes the header emitted by the extraction exporter so
// filled-in exports can be loaded back without edits.
func isHeaderRow(row []string) bool {
	if len(row) < 2 {
		return false
	}
	for i, want := range tabular.ExtractHeader {
		if i >= len(row) {
			break
		}
		if !strings.EqualFold(strings.TrimSpace(row[i]), want) {
			return false
		}
	}
	return true
}
