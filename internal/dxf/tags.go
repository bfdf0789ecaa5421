// Package dxf implements a minimal reader/writer for the ASCII DXF drawing
// format. A DXF file is a flat sequence of tagged records: pairs of lines
// where the first line carries an integer group code and the second the
// value. The package parses that stream into a structured document (header
// variables, style table, block definitions, model/paper space entities)
// while keeping every tag it does not model, so that saving a document
// round-trips untouched content byte for byte.
package dxf

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Tag is one group-code/value pair from the DXF tag stream.
type Tag struct {
	Code  int
	Value string
}

// Group codes used throughout the package.
const (
	codeEntityType  = 0
	codeText        = 1
	codeName        = 2
	codeTextChunk   = 3
	codeHandle      = 5
	codeStyle       = 7
	codeLayer       = 8
	codeVariable    = 9
	codeX           = 10
	codeY           = 20
	codeZ           = 30
	codeHeight      = 40
	codeWidthFactor = 41
	codeRotation    = 50
	codeAttribsFlag = 66
	codePaperSpace  = 67
	codeFlags       = 70
	codeOwner       = 330
)

// ReadTags scans a DXF tag stream into memory. The scanner is tolerant:
// lines whose code portion does not parse as an integer are skipped, and a
// dangling code line at EOF is discarded. Values keep internal whitespace
// but lose the trailing line ending.
func ReadTags(r io.Reader) ([]Tag, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var tags []Tag
	for scanner.Scan() {
		codeLine := strings.TrimSpace(scanner.Text())
		if !scanner.Scan() {
			break
		}
		value := strings.TrimRight(scanner.Text(), "\r")

		code, err := strconv.Atoi(codeLine)
		if err != nil {
			continue
		}
		tags = append(tags, Tag{Code: code, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return tags, fmt.Errorf("scanning tag stream: %w", err)
	}
	return tags, nil
}

// WriteTags serializes a tag stream in the canonical two-line form.
func WriteTags(w io.Writer, tags []Tag) error {
	bw := bufio.NewWriter(w)
	for _, t := range tags {
		if _, err := fmt.Fprintf(bw, "%3d\r\n%s\r\n", t.Code, t.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// codepageDecoder maps the $DWGCODEPAGE header variable to a text decoder.
// Drawings produced by localized CAD installations routinely carry legacy
// single- or double-byte encodings rather than UTF-8.
func codepageDecoder(codepage string) *encoding.Decoder {
	switch strings.ToUpper(strings.TrimSpace(codepage)) {
	case "ANSI_936", "GB2312", "GBK":
		return simplifiedchinese.GB18030.NewDecoder()
	case "ANSI_950", "BIG5":
		return traditionalchinese.Big5.NewDecoder()
	case "ANSI_1251":
		return charmap.Windows1251.NewDecoder()
	case "ANSI_1252":
		return charmap.Windows1252.NewDecoder()
	default:
		return nil
	}
}

// sniffCodepage scans raw file bytes for the $DWGCODEPAGE header variable.
// The variable name and value are plain ASCII in every encoding we handle,
// so the sniff is safe to run before decoding.
func sniffCodepage(raw []byte) string {
	idx := bytes.Index(raw, []byte("$DWGCODEPAGE"))
	if idx < 0 {
		return ""
	}
	rest := raw[idx:]
	lines := bytes.SplitN(rest, []byte("\n"), 4)
	if len(lines) < 3 {
		return ""
	}
	// Layout: "$DWGCODEPAGE" line, group code line ("3"), value line.
	return string(bytes.TrimSpace(lines[2]))
}

// decodeContent converts raw file bytes to UTF-8 using the declared drawing
// codepage, falling back to dropping invalid UTF-8 bytes when no codepage is
// declared or decoding fails. Decoding never returns an error: a damaged
// file still yields a best-effort tag stream for the repair path.
func decodeContent(raw []byte) string {
	if dec := codepageDecoder(sniffCodepage(raw)); dec != nil {
		if decoded, err := dec.Bytes(raw); err == nil {
			return string(decoded)
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), "")
}

// ReadTagsFile reads a DXF file as a tag stream with tolerant decoding.
func ReadTagsFile(path string) ([]Tag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ReadTags(strings.NewReader(decodeContent(raw)))
}

// formatFloat renders a float the way CAD applications expect: no exponent,
// no trailing zero noise.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
