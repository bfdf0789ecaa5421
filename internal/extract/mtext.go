package extract

import "regexp"

// MTEXT inline formatting: control sequences like \fSimSun|b0;, \C1; or
// \H2.5; (a backslash, one letter, a run of non-semicolon characters, a
// terminating semicolon) and brace-delimited grouping markers. Both are
// deleted wholesale, never interpreted.
var (
	mtextControlSeq = regexp.MustCompile(`\\[A-Za-z][^;]*;`)
	mtextBraceGroup = regexp.MustCompile(`\{[^}]*\}`)
)

// StripMTextFormatting removes embedded MTEXT markup from a raw paragraph
// text value, leaving only the human-readable content.
func StripMTextFormatting(raw string) string {
	s := mtextControlSeq.ReplaceAllString(raw, "")
	s = mtextBraceGroup.ReplaceAllString(s, "")
	return s
}
