package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cadbridge/dxf-translator/internal/dxf"
)

// Strategy names, also used as Result tags.
const (
	StrategyModelSpace = "model-space"
	StrategyPaperSpace = "paper-space"
	StrategyBlocks     = "block-definitions"
	StrategyTagScan    = "tag-scan"
)

// Source is one extraction strategy, bound to a structural region of the
// document. All registered sources are run and their outputs unioned;
// a source reports failure through its Result rather than an error return
// so one faulty region never aborts the others.
//
// doc is nil only for the tag-scan repair strategy, which re-reads the
// file from path instead of walking parsed structure.
type Source interface {
	Name() string
	Extract(doc *dxf.Document, path string) Result
}

// Sources returns the full strategy set in its fixed registration order.
func Sources() []Source {
	return []Source{
		&ModelSpaceSource{},
		&PaperSpaceSource{},
		&BlockSource{},
		NewTagScanSource(),
	}
}

// ModelSpaceSource extracts text from the primary drawing area: plain
// text entities, paragraph text (with formatting markup stripped), block
// insertion attribute values, and dimension override text.
type ModelSpaceSource struct{}

func (s *ModelSpaceSource) Name() string { return StrategyModelSpace }

func (s *ModelSpaceSource) Extract(doc *dxf.Document, _ string) Result {
	if doc == nil {
		return Result{Strategy: s.Name(), Err: fmt.Errorf("no structured document")}
	}
	records := regionRecords(doc.ModelSpace(), RegionModelSpace)

	for _, d := range doc.ModelSpace().Dimensions() {
		text, ok := d.OverrideText()
		if !ok {
			continue
		}
		records = append(records, recordFor(d, RegionModelSpace, dxf.ModelLayoutName, KindDimension, text))
	}
	return Result{Strategy: s.Name(), Records: records, Success: true}
}

// PaperSpaceSource extracts the same entity kinds from every named layout
// except the reserved model layout. A layout may contribute nothing.
type PaperSpaceSource struct{}

func (s *PaperSpaceSource) Name() string { return StrategyPaperSpace }

func (s *PaperSpaceSource) Extract(doc *dxf.Document, _ string) Result {
	if doc == nil {
		return Result{Strategy: s.Name(), Err: fmt.Errorf("no structured document")}
	}
	var records []TextRecord
	for _, layout := range doc.Layouts() {
		if layout.Name == dxf.ModelLayoutName {
			continue
		}
		records = append(records, regionRecords(layout, RegionPaperSpace)...)
	}
	return Result{Strategy: s.Name(), Records: records, Success: true}
}

// BlockSource extracts text from named block definitions: plain and
// paragraph text, plus attribute definitions, whose default text and tag
// names both act as translatable templates. Anonymous blocks are skipped
// by the document layer.
type BlockSource struct{}

func (s *BlockSource) Name() string { return StrategyBlocks }

func (s *BlockSource) Extract(doc *dxf.Document, _ string) Result {
	if doc == nil {
		return Result{Strategy: s.Name(), Err: fmt.Errorf("no structured document")}
	}
	var records []TextRecord
	for _, block := range doc.Blocks() {
		records = append(records, regionRecords(block, RegionBlock)...)

		for _, ad := range block.AttDefs() {
			if text := strings.TrimSpace(ad.Text()); text != "" {
				records = append(records, recordFor(ad, RegionBlock, block.Name, KindAttributeDef, text))
			}
			if tag, ok := ad.Tag(); ok && strings.TrimSpace(tag) != "" {
				rec := recordFor(ad, RegionBlock, block.Name, KindAttributeDef, strings.TrimSpace(tag))
				rec.Handle = "" // tag shares the entity; dedupe by value instead
				records = append(records, rec)
			}
		}
	}
	return Result{Strategy: s.Name(), Records: records, Success: true}
}

// regionRecords collects the entity kinds common to every region.
func regionRecords(r *dxf.Region, region SourceRegion) []TextRecord {
	var records []TextRecord
	for _, t := range r.Texts() {
		if text := strings.TrimSpace(t.Text()); text != "" {
			records = append(records, recordFor(t, region, r.Name, KindPlainText, text))
		}
	}
	for _, m := range r.MTexts() {
		text := strings.TrimSpace(StripMTextFormatting(m.Text()))
		if text != "" {
			records = append(records, recordFor(m, region, r.Name, KindMultiLine, text))
		}
	}
	for _, ins := range r.Inserts() {
		for _, a := range ins.Attribs() {
			if text := strings.TrimSpace(a.Text()); text != "" {
				records = append(records, recordFor(a, region, r.Name, KindAttribute, text))
			}
		}
	}
	return records
}

// recordFor builds a TextRecord from an entity's capabilities.
func recordFor(e dxf.Entity, region SourceRegion, layout string, kind EntityKind, text string) TextRecord {
	rec := TextRecord{
		Region: region,
		Kind:   kind,
		Handle: e.Handle(),
		Layout: layout,
		Text:   text,
	}
	if lh, ok := e.(dxf.LayerHolder); ok {
		rec.Layer, _ = lh.Layer()
	}
	if ph, ok := e.(dxf.PositionHolder); ok {
		if p, has := ph.Position(); has {
			rec.Position = &Position{X: p.X, Y: p.Y, Z: p.Z}
		}
	}
	if hh, ok := e.(dxf.HeightHolder); ok {
		rec.Height, _ = hh.Height()
	}
	if rh, ok := e.(dxf.RotationHolder); ok {
		rec.Rotation, _ = rh.Rotation()
	}
	if sh, ok := e.(dxf.StyleHolder); ok {
		rec.Style, _ = sh.Style()
	}
	return rec
}

// textBearingCodes are the tag group codes whose values can carry
// human-readable or label text: primary text, additional text / font,
// style name, layer name.
var textBearingCodes = map[int]bool{1: true, 3: true, 7: true, 8: true}

// TagScanSource is the repair-path strategy: it re-reads the file as a
// flat code/value tag stream, bypassing structured parsing entirely, and
// keeps every value on a text-bearing group code that the noise
// classifier accepts. Matches carry no entity provenance and are
// deduplicated by direct string equality. Used alone when the document
// cannot be opened in structured form; result quality is reduced since no
// schema knowledge filters position, layer, or style context.
type TagScanSource struct {
	classifier *NoiseClassifier
}

// NewTagScanSource builds a tag scanner with the baseline noise rules.
func NewTagScanSource() *TagScanSource {
	return &TagScanSource{classifier: NewNoiseClassifier()}
}

func (s *TagScanSource) Name() string { return StrategyTagScan }

func (s *TagScanSource) Extract(_ *dxf.Document, path string) Result {
	tags, err := dxf.ReadTagsFile(path)
	if err != nil {
		return Result{Strategy: s.Name(), Err: err}
	}

	seen := make(map[string]bool)
	for _, t := range tags {
		if !textBearingCodes[t.Code] {
			continue
		}
		value := strings.TrimSpace(t.Value)
		if value == "" || !s.classifier.IsMeaningful(value) {
			continue
		}
		seen[value] = true
	}

	// Set-backed: emission order is not part of the contract, but sorted
	// output keeps logs and exports stable for display.
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)

	records := make([]TextRecord, 0, len(values))
	for _, v := range values {
		records = append(records, TextRecord{
			Region: RegionRawRecord,
			Kind:   KindPlainText,
			Text:   v,
		})
	}
	return Result{Strategy: s.Name(), Records: records, Success: true}
}
