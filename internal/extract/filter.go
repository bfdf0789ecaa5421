package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Classification limits shared by the filters.
const (
	handleHexMaxLen   = 8
	shortHexMaxLen    = 4
	minMeaningfulRune = 2

	// DefaultMinLength and DefaultMaxLength bound the aggregation-level
	// length window.
	DefaultMinLength = 1
	DefaultMaxLength = 1000
)

// structuralKeywords are record-type and entity-type names that appear as
// values in the tag stream but are never human text.
var structuralKeywords = map[string]bool{
	"SECTION": true, "ENDSEC": true, "HEADER": true, "CLASSES": true,
	"TABLES": true, "BLOCKS": true, "ENTITIES": true, "OBJECTS": true,
	"EOF": true, "LINE": true, "CIRCLE": true, "ARC": true, "TEXT": true,
	"MTEXT": true, "INSERT": true, "POLYLINE": true, "LWPOLYLINE": true,
	"POINT": true, "ELLIPSE": true, "SPLINE": true, "HATCH": true,
	"DIMENSION": true, "LEADER": true, "VIEWPORT": true,
	"ACDBTEXT": true, "ACDBMTEXT": true,
}

// defaultLayerNames are reserved layer-name tokens rejected by the noise
// filter.
var defaultLayerNames = map[string]bool{
	"0": true, "DEFPOINTS": true, "TEXT": true, "DIM": true, "HATCH": true,
}

// defaultLayerPrefixes are naming conventions that mark a value as a layer
// name rather than drawing text.
var defaultLayerPrefixes = []string{"LAYER_", "L_", "LAY_"}

// NoiseClassifier decides whether a raw string is meaningful human text or
// structural noise (numbers, handles, layer names, record keywords). The
// zero value is not usable; construct with NewNoiseClassifier. All rule
// sets are caller-replaceable; the defaults are the required baseline.
type NoiseClassifier struct {
	LayerNames    map[string]bool
	LayerPrefixes []string
	Keywords      map[string]bool
}

// NewNoiseClassifier returns a classifier with the baseline rule sets.
func NewNoiseClassifier() *NoiseClassifier {
	return &NoiseClassifier{
		LayerNames:    defaultLayerNames,
		LayerPrefixes: defaultLayerPrefixes,
		Keywords:      structuralKeywords,
	}
}

// IsMeaningful reports whether value is human-readable text. The rejection
// rules are evaluated in a fixed order and any match short-circuits:
// empty, numeric literal, coordinate pattern, handle-like hex, layer name,
// short hex, structural keyword, too short. The function is pure.
func (c *NoiseClassifier) IsMeaningful(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	if isNumericLiteral(trimmed) {
		return false
	}
	if isCoordinateLike(trimmed) {
		return false
	}
	if isHexOfMax(trimmed, handleHexMaxLen) {
		return false
	}
	if c.isLayerName(trimmed) {
		return false
	}
	// Narrower hex check kept separately: the rule set treats very short
	// hex runs as their own category even though rule 4 subsumes them.
	if isHexOfMax(trimmed, shortHexMaxLen) {
		return false
	}
	if c.Keywords[strings.ToUpper(trimmed)] {
		return false
	}
	if len([]rune(trimmed)) < minMeaningfulRune {
		return false
	}
	return true
}

func (c *NoiseClassifier) isLayerName(value string) bool {
	if c.LayerNames[value] {
		return true
	}
	for _, prefix := range c.LayerPrefixes {
		if strings.HasPrefix(value, prefix) {
			return true
		}
	}
	return false
}

// IsMeaningful applies the baseline classifier.
func IsMeaningful(value string) bool {
	return defaultClassifier.IsMeaningful(value)
}

var defaultClassifier = NewNoiseClassifier()

func isNumericLiteral(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// isCoordinateLike matches comma-separated numeric groups: digits with an
// optional leading minus and at most one decimal point per group.
func isCoordinateLike(s string) bool {
	if !strings.Contains(s, ",") {
		return false
	}
	for _, part := range strings.Split(s, ",") {
		if !isNumericGroup(part) {
			return false
		}
	}
	return true
}

func isNumericGroup(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isHexOfMax(s string, maxLen int) bool {
	if len(s) == 0 || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// Baseline exclusion patterns for the aggregation-level filter: blank-only
// values, digit/sign/punctuation-only values, and single letters.
var defaultExcludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*$`),
	regexp.MustCompile(`^[\d\.\-\+\s]*$`),
	regexp.MustCompile(`^[A-Za-z]$`),
	regexp.MustCompile(`^[\s\-_\.]+$`),
}

// Filter is the stricter aggregation-level text filter: a configurable
// length window plus exclusion patterns, applied on top of the noise
// classifier before a value enters the final output.
type Filter struct {
	MinLength       int
	MaxLength       int
	ExcludePatterns []*regexp.Regexp
	// ExcludeLayers drops all text on the named layers. Matching is
	// case-insensitive; layer names in drawings vary in case freely.
	ExcludeLayers []string
}

// NewFilter returns a filter with the given length window. Non-positive
// bounds and nil patterns fall back to the baseline.
func NewFilter(minLength, maxLength int, patterns []*regexp.Regexp) *Filter {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if patterns == nil {
		patterns = defaultExcludePatterns
	}
	return &Filter{
		MinLength:       minLength,
		MaxLength:       maxLength,
		ExcludePatterns: patterns,
	}
}

// Valid reports whether text passes the length window and no exclusion
// pattern matches.
func (f *Filter) Valid(text string) bool {
	trimmed := strings.TrimSpace(text)
	n := len([]rune(trimmed))
	if n < f.MinLength || n > f.MaxLength {
		return false
	}
	for _, p := range f.ExcludePatterns {
		if p.MatchString(trimmed) {
			return false
		}
	}
	return true
}

// LayerExcluded reports whether text on the given layer is dropped. An
// empty layer (records without provenance) is never excluded.
func (f *Filter) LayerExcluded(layer string) bool {
	if layer == "" {
		return false
	}
	for _, name := range f.ExcludeLayers {
		if strings.EqualFold(layer, name) {
			return true
		}
	}
	return false
}

var chinesePattern = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)

// ContainsChinese reports whether s carries at least one CJK unified
// ideograph.
func ContainsChinese(s string) bool {
	return chinesePattern.MatchString(s)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean collapses whitespace runs to a single space and trims the ends.
// Applied after filtering, before a value is considered final.
func Clean(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
