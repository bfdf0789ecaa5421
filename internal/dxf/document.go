package dxf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ModelLayoutName is the reserved layout name that denotes the primary
// drawing area. Every other layout is a paper-space presentation view.
const ModelLayoutName = "Model"

// DefaultLayer is the layer assigned to entities that declare none.
const DefaultLayer = "0"

// ErrStructure reports that a file could not be parsed as a structured DXF
// document. Callers fall back to the raw tag-scan repair path on this error.
var ErrStructure = errors.New("dxf: invalid document structure")

// RegionKind distinguishes the structural areas a region can represent.
type RegionKind int

const (
	// KindModel is the primary drawing area.
	KindModel RegionKind = iota
	// KindPaper is a named paper-space layout.
	KindPaper
	// KindBlock is a named block definition.
	KindBlock
)

// Region is one structural area of a document: the model space, a
// paper-space layout, or a block definition. Regions expose entities by
// kind and support text creation and entity deletion.
type Region struct {
	doc  *Document
	Name string
	Kind RegionKind

	texts   []*Text
	mtexts  []*MText
	inserts []*Insert
	attdefs []*AttDef
	dims    []*Dimension

	paper     bool
	owner     string // owning block-record handle (paper-space layouts)
	layer     string // default layer for created entities
	endAnchor int    // tag index new entities are inserted before
}

// Texts returns the region's single-line text entities.
func (r *Region) Texts() []*Text { return r.texts }

// MTexts returns the region's paragraph text entities.
func (r *Region) MTexts() []*MText { return r.mtexts }

// Inserts returns the region's block insertions.
func (r *Region) Inserts() []*Insert { return r.inserts }

// AttDefs returns the region's attribute definitions (block regions only).
func (r *Region) AttDefs() []*AttDef { return r.attdefs }

// Dimensions returns the region's dimension entities.
func (r *Region) Dimensions() []*Dimension { return r.dims }

// TextAttributes describes a TEXT entity to create.
type TextAttributes struct {
	Text     string
	Insert   Point
	Height   float64
	Rotation float64
	Layer    string
	Style    string
}

// AddText creates a new single-line TEXT entity in the region.
func (r *Region) AddText(attrs TextAttributes) *Text {
	layer := attrs.Layer
	if layer == "" {
		layer = DefaultLayer
	}
	handle := r.doc.allocateHandle()

	tags := []Tag{
		{codeEntityType, TypeText},
		{codeHandle, handle},
	}
	if r.owner != "" {
		tags = append(tags, Tag{codeOwner, r.owner})
	}
	tags = append(tags, Tag{codeLayer, layer})
	if r.paper {
		tags = append(tags, Tag{codePaperSpace, "1"})
	}
	tags = append(tags,
		Tag{codeX, formatFloat(attrs.Insert.X)},
		Tag{codeY, formatFloat(attrs.Insert.Y)},
		Tag{codeZ, formatFloat(attrs.Insert.Z)},
		Tag{codeHeight, formatFloat(attrs.Height)},
		Tag{codeText, attrs.Text},
	)
	if attrs.Rotation != 0 {
		tags = append(tags, Tag{codeRotation, formatFloat(attrs.Rotation)})
	}
	if attrs.Style != "" {
		tags = append(tags, Tag{codeStyle, attrs.Style})
	}
	r.doc.insertBefore(r.endAnchor, tags)

	t := &Text{entity{
		doc:       r.doc,
		typ:       TypeText,
		start:     -1,
		end:       r.endAnchor,
		handle:    handle,
		layer:     layer,
		hasLayer:  true,
		layerIdx:  -1,
		pos:       attrs.Insert,
		hasPos:    true,
		height:    attrs.Height,
		hasHeight: true,
		heightIdx: -1,
		rotation:  attrs.Rotation,
		style:     attrs.Style,
		hasStyle:  attrs.Style != "",
		styleIdx:  -1,
		text:      attrs.Text,
		hasText:   true,
		textIdx:   -1,
	}}
	t.hasRotation = attrs.Rotation != 0
	return t
}

// Delete removes an entity from the document. Deleting an already deleted
// entity is a no-op.
func (r *Region) Delete(e Entity) {
	start, end := e.span()
	if start < 0 {
		return // created in-memory, not part of the parsed stream
	}
	r.doc.removeRange(start, end)
}

// Document is a parsed DXF drawing.
type Document struct {
	tags []Tag

	model   *Region
	paper   []*Region
	blocks  []*Region
	styles  *StyleTable
	header  map[string]string
	version string

	// pending edits against the tag stream
	replaced map[int]string
	removed  map[int]bool
	inserted map[int][]Tag

	nextHandle uint64
}

// Open reads and parses a DXF file.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(strings.NewReader(decodeContent(raw)))
}

// Parse builds a document from a decoded tag stream.
func Parse(r io.Reader) (*Document, error) {
	tags, err := ReadTags(r)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("%w: empty tag stream", ErrStructure)
	}

	doc := &Document{
		tags:     tags,
		header:   make(map[string]string),
		replaced: make(map[int]string),
		removed:  make(map[int]bool),
		inserted: make(map[int][]Tag),
	}
	if err := doc.parseSections(); err != nil {
		return nil, err
	}
	doc.seedHandleCounter()
	return doc, nil
}

// ModelSpace returns the primary drawing region.
func (d *Document) ModelSpace() *Region { return d.model }

// Layouts returns the named paper-space layouts, excluding the reserved
// model layout.
func (d *Document) Layouts() []*Region { return d.paper }

// Blocks returns the named block definitions. Anonymous blocks (names with
// a leading "*") are excluded.
func (d *Document) Blocks() []*Region { return d.blocks }

// Styles returns the document's text style table.
func (d *Document) Styles() *StyleTable { return d.styles }

// HeaderVariable returns the value of a $-prefixed header variable.
func (d *Document) HeaderVariable(name string) (string, bool) {
	v, ok := d.header[name]
	return v, ok
}

// parseSections walks SECTION/ENDSEC blocks and dispatches each by name.
func (d *Document) parseSections() error {
	sawSection := false
	i := 0
	for i < len(d.tags) {
		t := d.tags[i]
		if t.Code != codeEntityType || t.Value != "SECTION" {
			i++
			continue
		}
		if i+1 >= len(d.tags) || d.tags[i+1].Code != codeName {
			return fmt.Errorf("%w: SECTION without name at tag %d", ErrStructure, i)
		}
		name := d.tags[i+1].Value
		end := d.findSectionEnd(i + 2)
		if end < 0 {
			return fmt.Errorf("%w: unterminated %s section", ErrStructure, name)
		}
		sawSection = true

		switch name {
		case "HEADER":
			d.parseHeader(i+2, end)
		case "TABLES":
			d.parseTables(i+2, end)
		case "BLOCKS":
			d.parseBlocks(i+2, end)
		case "ENTITIES":
			d.parseEntities(i+2, end)
		}
		i = end + 1
	}
	if !sawSection {
		return fmt.Errorf("%w: no SECTION records", ErrStructure)
	}

	if d.model == nil {
		// A drawing without an ENTITIES section is malformed enough that the
		// structured strategies have nothing to walk.
		return fmt.Errorf("%w: missing ENTITIES section", ErrStructure)
	}
	if d.styles == nil {
		d.styles = &StyleTable{doc: d, entries: map[string]int{}, names: map[string]bool{}, insertAnchor: -1}
	}
	d.resolveLayoutNames()
	return nil
}

// findSectionEnd returns the tag index of the matching ENDSEC.
func (d *Document) findSectionEnd(from int) int {
	for i := from; i < len(d.tags); i++ {
		if d.tags[i].Code == codeEntityType && d.tags[i].Value == "ENDSEC" {
			return i
		}
	}
	return -1
}

func (d *Document) parseHeader(start, end int) {
	for i := start; i < end-1; i++ {
		if d.tags[i].Code == codeVariable {
			d.header[d.tags[i].Value] = d.tags[i+1].Value
		}
	}
	d.version = d.header["$ACADVER"]
}

// parseEntities splits the ENTITIES section into the model region and
// paper-space layouts (group 67 set), attaching ATTRIB runs to their
// INSERT.
func (d *Document) parseEntities(start, end int) {
	d.model = &Region{
		doc:       d,
		Name:      ModelLayoutName,
		Kind:      KindModel,
		layer:     DefaultLayer,
		endAnchor: end,
	}
	paperByOwner := make(map[string]*Region)

	var currentInsert *Insert
	for _, span := range d.entitySpans(start, end) {
		typ := d.tags[span[0]].Value
		e := parseEntity(d, typ, span[0], span[1])

		region := d.model
		if e.paper {
			owner := e.owner
			r, ok := paperByOwner[owner]
			if !ok {
				r = &Region{doc: d, Kind: KindPaper, paper: true, owner: owner, layer: DefaultLayer, endAnchor: end}
				paperByOwner[owner] = r
				d.paper = append(d.paper, r)
				r.Name = owner // renamed by resolveLayoutNames
			}
			region = r
		}

		switch typ {
		case TypeText:
			region.texts = append(region.texts, &Text{*e})
		case TypeMText:
			region.mtexts = append(region.mtexts, &MText{*e})
		case TypeInsert:
			ins := &Insert{entity: *e, blockName: e.tagName}
			region.inserts = append(region.inserts, ins)
			if e.attribs1 {
				currentInsert = ins
			}
		case TypeAttrib:
			if currentInsert != nil {
				currentInsert.attribs = append(currentInsert.attribs, &Attrib{*e})
			}
		case TypeSeqEnd:
			currentInsert = nil
		case TypeDimension:
			region.dims = append(region.dims, &Dimension{*e})
		}
	}
}

// parseBlocks walks BLOCK/ENDBLK runs inside the BLOCKS section.
func (d *Document) parseBlocks(start, end int) {
	i := start
	for i < end {
		if d.tags[i].Code != codeEntityType || d.tags[i].Value != "BLOCK" {
			i++
			continue
		}
		blockEnd := i + 1
		for blockEnd < end {
			if d.tags[blockEnd].Code == codeEntityType && d.tags[blockEnd].Value == "ENDBLK" {
				break
			}
			blockEnd++
		}

		name := ""
		for j := i + 1; j < blockEnd; j++ {
			if d.tags[j].Code == codeEntityType {
				break
			}
			if d.tags[j].Code == codeName {
				name = d.tags[j].Value
				break
			}
		}

		if name != "" && !strings.HasPrefix(name, "*") {
			region := &Region{
				doc:       d,
				Name:      name,
				Kind:      KindBlock,
				layer:     DefaultLayer,
				endAnchor: blockEnd,
			}
			d.parseBlockEntities(region, i+1, blockEnd)
			d.blocks = append(d.blocks, region)
		}
		i = blockEnd + 1
	}
}

func (d *Document) parseBlockEntities(region *Region, start, end int) {
	for _, span := range d.entitySpans(start, end) {
		typ := d.tags[span[0]].Value
		e := parseEntity(d, typ, span[0], span[1])
		switch typ {
		case TypeText:
			region.texts = append(region.texts, &Text{*e})
		case TypeMText:
			region.mtexts = append(region.mtexts, &MText{*e})
		case TypeAttDef:
			region.attdefs = append(region.attdefs, &AttDef{*e})
		case TypeInsert:
			region.inserts = append(region.inserts, &Insert{entity: *e, blockName: e.tagName})
		case TypeDimension:
			region.dims = append(region.dims, &Dimension{*e})
		}
	}
}

// entitySpans returns [start,end) tag ranges for each entity between start
// and end, where every range begins at a group-0 tag.
func (d *Document) entitySpans(start, end int) [][2]int {
	var spans [][2]int
	cur := -1
	for i := start; i < end; i++ {
		if d.tags[i].Code != codeEntityType {
			continue
		}
		if cur >= 0 {
			spans = append(spans, [2]int{cur, i})
		}
		cur = i
	}
	if cur >= 0 {
		spans = append(spans, [2]int{cur, end})
	}
	return spans
}

// resolveLayoutNames maps paper-space regions (grouped by owner handle) to
// the layout names declared in the OBJECTS section. Unresolved regions get
// synthesized names.
func (d *Document) resolveLayoutNames() {
	names := d.layoutNamesByOwner()
	n := 0
	for _, r := range d.paper {
		if name, ok := names[r.owner]; ok && name != ModelLayoutName {
			r.Name = name
			continue
		}
		n++
		r.Name = fmt.Sprintf("Layout%d", n)
	}
}

// layoutNamesByOwner scans OBJECTS for LAYOUT records, mapping their
// associated block-record handle to the layout name.
func (d *Document) layoutNamesByOwner() map[string]string {
	names := make(map[string]string)
	for _, span := range d.objectSpans("LAYOUT") {
		name, owner := "", ""
		for i := span[0] + 1; i < span[1]; i++ {
			switch d.tags[i].Code {
			case codeText:
				if name == "" {
					name = d.tags[i].Value
				}
			case codeOwner:
				owner = d.tags[i].Value // last owner wins: the block record
			}
		}
		if name != "" && owner != "" {
			names[owner] = name
		}
	}
	return names
}

// objectSpans returns tag ranges of OBJECTS-section records with the given
// type.
func (d *Document) objectSpans(typ string) [][2]int {
	var spans [][2]int
	i := 0
	for i < len(d.tags) {
		if d.tags[i].Code == codeEntityType && d.tags[i].Value == "SECTION" &&
			i+1 < len(d.tags) && d.tags[i+1].Code == codeName && d.tags[i+1].Value == "OBJECTS" {
			end := d.findSectionEnd(i + 2)
			if end < 0 {
				return spans
			}
			for _, span := range d.entitySpans(i+2, end) {
				if d.tags[span[0]].Value == typ {
					spans = append(spans, span)
				}
			}
			return spans
		}
		i++
	}
	return spans
}

// seedHandleCounter finds the highest handle in the stream so allocated
// handles never collide.
func (d *Document) seedHandleCounter() {
	var maxHandle uint64
	for _, t := range d.tags {
		if t.Code != codeHandle {
			continue
		}
		if v, err := strconv.ParseUint(strings.TrimSpace(t.Value), 16, 64); err == nil && v > maxHandle {
			maxHandle = v
		}
	}
	d.nextHandle = maxHandle + 1
}

func (d *Document) allocateHandle() string {
	h := strings.ToUpper(strconv.FormatUint(d.nextHandle, 16))
	d.nextHandle++
	return h
}

// Tag stream edit operations. Indexes refer to the parsed tag slice; the
// slice itself is never reordered, so recorded indexes stay valid.

func (d *Document) setTagValue(idx int, value string) {
	d.replaced[idx] = value
}

func (d *Document) removeTag(idx int) {
	d.removed[idx] = true
}

func (d *Document) removeRange(start, end int) {
	for i := start; i < end; i++ {
		d.removed[i] = true
	}
}

func (d *Document) insertBefore(idx int, tags []Tag) {
	d.inserted[idx] = append(d.inserted[idx], tags...)
}

// Write serializes the document with all pending edits applied.
func (d *Document) Write(w io.Writer) error {
	styleAnchor, styleTags := d.styles.pendingTags()

	out := make([]Tag, 0, len(d.tags))
	for i, t := range d.tags {
		if i == styleAnchor {
			out = append(out, styleTags...)
		}
		if ins, ok := d.inserted[i]; ok {
			out = append(out, ins...)
		}
		if d.removed[i] {
			continue
		}
		if v, ok := d.replaced[i]; ok {
			t.Value = v
		}
		out = append(out, t)
	}
	if ins, ok := d.inserted[len(d.tags)]; ok {
		out = append(out, ins...)
	}
	return WriteTags(w, out)
}

// Save writes the document to path, creating or truncating the file.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
