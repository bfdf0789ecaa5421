package tabular

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// XLSX reading is scoped to what translation tables need: the cell text
// of the first worksheet, shared strings resolved, merged regions and
// styles ignored.

type workbookXML struct {
	XMLName xml.Name `xml:"workbook"`
	Sheets  struct {
		Sheet []struct {
			Name string `xml:"name,attr"`
			RID  string `xml:"id,attr"`
		} `xml:"sheet"`
	} `xml:"sheets"`
}

type relationshipsXML struct {
	XMLName      xml.Name `xml:"Relationships"`
	Relationship []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

type sharedStringsXML struct {
	XMLName xml.Name `xml:"sst"`
	SI      []struct {
		T string `xml:"t"` // simple text
		R []struct {
			T string `xml:"t"`
		} `xml:"r"` // rich text runs
	} `xml:"si"`
}

type worksheetXML struct {
	XMLName   xml.Name `xml:"worksheet"`
	SheetData struct {
		Rows []struct {
			R     int `xml:"r,attr"` // 1-indexed row number
			Cells []struct {
				R  string `xml:"r,attr"` // cell ref, e.g. "B3"
				T  string `xml:"t,attr"` // type: s, str, inlineStr, b, e, n
				V  string `xml:"v"`
				Is *struct {
					T string `xml:"t"`
				} `xml:"is"`
			} `xml:"c"`
		} `xml:"row"`
	} `xml:"sheetData"`
}

func readXLSX(path string) ([][]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet archive: %w", err)
	}
	defer zr.Close()

	shared, err := parseSharedStrings(&zr.Reader)
	if err != nil {
		return nil, err
	}

	sheetPath, err := firstSheetPath(&zr.Reader)
	if err != nil {
		return nil, err
	}
	data, err := zipFileContent(&zr.Reader, sheetPath)
	if err != nil {
		return nil, err
	}

	var ws worksheetXML
	if err := xml.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("parsing worksheet: %w", err)
	}

	var rows [][]string
	for _, row := range ws.SheetData.Rows {
		maxCol := -1
		for _, c := range row.Cells {
			if col := columnIndex(c.R); col > maxCol {
				maxCol = col
			}
		}
		out := make([]string, maxCol+1)
		for _, c := range row.Cells {
			col := columnIndex(c.R)
			if col < 0 {
				continue
			}
			switch c.T {
			case "s":
				if idx, err := strconv.Atoi(c.V); err == nil && idx >= 0 && idx < len(shared) {
					out[col] = shared[idx]
				}
			case "inlineStr":
				if c.Is != nil {
					out[col] = c.Is.T
				}
			default: // number, bool, error, inline formula result
				out[col] = c.V
			}
		}
		rows = append(rows, out)
	}
	return rows, nil
}

func parseSharedStrings(zr *zip.Reader) ([]string, error) {
	data, err := zipFileContent(zr, "xl/sharedStrings.xml")
	if err != nil {
		return nil, nil // shared strings are optional
	}
	var sst sharedStringsXML
	if err := xml.Unmarshal(data, &sst); err != nil {
		return nil, fmt.Errorf("parsing shared strings: %w", err)
	}
	strs := make([]string, len(sst.SI))
	for i, si := range sst.SI {
		if si.T != "" {
			strs[i] = si.T
			continue
		}
		var b strings.Builder
		for _, run := range si.R {
			b.WriteString(run.T)
		}
		strs[i] = b.String()
	}
	return strs, nil
}

// firstSheetPath resolves the archive path of the workbook's first sheet
// through the relationships file, with the conventional name as fallback.
func firstSheetPath(zr *zip.Reader) (string, error) {
	data, err := zipFileContent(zr, "xl/workbook.xml")
	if err != nil {
		return "", fmt.Errorf("missing workbook: %w", err)
	}
	var wb workbookXML
	if err := xml.Unmarshal(data, &wb); err != nil {
		return "", fmt.Errorf("parsing workbook: %w", err)
	}
	if len(wb.Sheets.Sheet) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if relData, err := zipFileContent(zr, "xl/_rels/workbook.xml.rels"); err == nil {
		var rels relationshipsXML
		if xml.Unmarshal(relData, &rels) == nil {
			for _, rel := range rels.Relationship {
				if rel.ID != wb.Sheets.Sheet[0].RID {
					continue
				}
				target := strings.TrimPrefix(rel.Target, "/")
				if !strings.HasPrefix(target, "xl/") {
					target = "xl/" + target
				}
				return target, nil
			}
		}
	}
	return "xl/worksheets/sheet1.xml", nil
}

func zipFileContent(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("file not found: %s", name)
}

// columnIndex converts the letter part of a cell reference to a
// zero-based column index. Returns -1 for an empty or malformed ref.
func columnIndex(ref string) int {
	col := 0
	n := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A') + 1
		n++
	}
	if n == 0 {
		return -1
	}
	return col - 1
}
