package translate

import (
	"regexp"
	"sort"
	"strings"
)

// Match method tags reported alongside each lookup.
const (
	MethodDirect      = "direct"
	MethodEmptyTarget = "empty-translation"
	MethodStripAll    = "strip-all-whitespace"
	MethodSingleSpace = "single-space"
	MethodTrimOnly    = "trim-only"
	MethodNoMatch     = "no-match"
)

var anyWhitespace = regexp.MustCompile(`\s`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizer rewrites a string for whitespace-tolerant comparison.
type normalizer struct {
	method string
	apply  func(string) string
}

// Tried in this order; the order decides which method wins when several
// keys could match under different normalizations.
var normalizers = []normalizer{
	{MethodStripAll, func(s string) string { return anyWhitespace.ReplaceAllString(s, "") }},
	{MethodSingleSpace, func(s string) string { return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " ")) }},
	{MethodTrimOnly, strings.TrimSpace},
}

// Matcher resolves source text against a translation table. Exact lookup
// wins outright; otherwise whitespace-normalized comparison recovers
// entries whose spacing drifted during spreadsheet editing. Key order is
// fixed by sorting so a text that normalizes equal to several keys always
// resolves to the same one.
type Matcher struct {
	table map[string]string
	keys  []string
}

// NewMatcher builds a matcher over the given table. The table is not
// copied; callers must not mutate it while matching.
func NewMatcher(table map[string]string) *Matcher {
	keys := make([]string, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Matcher{table: table, keys: keys}
}

// Len reports the number of table entries.
func (m *Matcher) Len() int { return len(m.keys) }

// Match looks up text and returns the translation, the method that found
// it, and whether a usable translation exists. An exact hit on a key
// whose stored target is blank reports MethodEmptyTarget with ok false
// and does not fall through to normalized lookup.
func (m *Matcher) Match(text string) (string, string, bool) {
	if target, found := m.table[text]; found {
		if strings.TrimSpace(target) == "" {
			return "", MethodEmptyTarget, false
		}
		return target, MethodDirect, true
	}

	// Method-major: each normalization is tried against every key before
	// the next, weaker one is considered.
	for _, n := range normalizers {
		want := n.apply(text)
		for _, key := range m.keys {
			if n.apply(key) == want {
				target := m.table[key]
				if strings.TrimSpace(target) == "" {
					return "", MethodEmptyTarget, false
				}
				return target, n.method, true
			}
		}
	}
	return "", MethodNoMatch, false
}
