package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// ExtractHeader is the column layout of exported extraction results.
var ExtractHeader = []string{"#", "source_text", "translation"}

// WriteExtractCSV writes extracted strings as a numbered two-column
// worksheet with an empty translation column, ready to be filled in and
// fed back as a translation table. The file starts with a UTF-8 byte
// order mark so spreadsheet applications detect the encoding.
func WriteExtractCSV(path string, values []string) error {
	rows := make([][]string, 0, len(values)+1)
	rows = append(rows, ExtractHeader)
	for i, v := range values {
		rows = append(rows, []string{strconv.Itoa(i + 1), v, ""})
	}
	return WriteRowsCSV(path, rows)
}

// WriteRowsCSV writes arbitrary rows with a BOM prefix.
func WriteRowsCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
