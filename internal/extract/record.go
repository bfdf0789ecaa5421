// Package extract discovers human-readable text scattered across the
// regions of a DXF drawing. A fixed set of extraction strategies is run
// against a document and their outputs are unioned, filtered for noise,
// and deduplicated; when the document cannot be parsed in structured form
// a degraded raw tag-scan strategy recovers whatever text heuristics can
// find.
package extract

// SourceRegion identifies which structural region produced a text record.
type SourceRegion string

const (
	RegionModelSpace SourceRegion = "model-space"
	RegionPaperSpace SourceRegion = "paper-space"
	RegionBlock      SourceRegion = "block-definition"
	RegionRawRecord  SourceRegion = "raw-record"
)

// EntityKind tags the entity variety a record's text came from.
type EntityKind string

const (
	KindPlainText    EntityKind = "plain-text"
	KindMultiLine    EntityKind = "multi-line-text"
	KindAttribute    EntityKind = "attribute"
	KindAttributeDef EntityKind = "attribute-definition"
	KindDimension    EntityKind = "dimension-text"
)

// TextRecord is one extracted piece of text with its provenance. Records
// are immutable once produced. Handle is empty for raw-record matches,
// which carry no entity identity.
type TextRecord struct {
	Region   SourceRegion
	Kind     EntityKind
	Handle   string
	Layout   string // layout or block name; "Model" for model space
	Text     string
	Layer    string
	Position *Position
	Height   float64
	Rotation float64
	Style    string
}

// Position is an insertion point. Z is zero for 2-D drawings.
type Position struct {
	X, Y, Z float64
}

// Result is the outcome of one strategy invocation. A failed strategy
// contributes no records; its error is reported but never propagated, so a
// fault in one strategy cannot abort the others.
type Result struct {
	Strategy string
	Records  []TextRecord
	Success  bool
	Err      error
}
