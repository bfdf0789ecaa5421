package dxf

import (
	"strconv"
	"strings"
)

// Entity type names as they appear in the tag stream.
const (
	TypeText      = "TEXT"
	TypeMText     = "MTEXT"
	TypeInsert    = "INSERT"
	TypeAttrib    = "ATTRIB"
	TypeAttDef    = "ATTDEF"
	TypeDimension = "DIMENSION"
	TypeSeqEnd    = "SEQEND"
)

// Point is a 3-D coordinate. Z is zero for 2-D drawings.
type Point struct {
	X, Y, Z float64
}

// Entity is any parsed drawing object. The interface is closed: only types
// in this package implement it, which keeps tag-range bookkeeping private.
type Entity interface {
	// DXFType returns the entity type tag, e.g. "TEXT".
	DXFType() string
	// Handle returns the document-scoped entity identifier, or "" when the
	// source record carried none.
	Handle() string

	span() (start, end int)
}

// Capability interfaces. Callers test for a capability instead of probing
// for attribute presence at runtime.
type (
	// TextHolder is an entity carrying an editable text value.
	TextHolder interface {
		Entity
		Text() string
		SetText(s string)
	}

	// LayerHolder is an entity that reports its layer.
	LayerHolder interface {
		Layer() (string, bool)
	}

	// PositionHolder is an entity with an insertion point.
	PositionHolder interface {
		Position() (Point, bool)
	}

	// HeightHolder is an entity with an adjustable text height.
	HeightHolder interface {
		Height() (float64, bool)
		SetHeight(h float64)
	}

	// RotationHolder is an entity that reports its rotation in degrees.
	RotationHolder interface {
		Rotation() (float64, bool)
	}

	// StyleHolder is an entity referencing a named text style.
	StyleHolder interface {
		Style() (string, bool)
		SetStyle(name string)
	}
)

// entity is the shared parsed state behind every concrete entity type.
// Field indexes point into the owning document's tag stream so mutations
// can be applied in place without re-serializing unrelated tags.
type entity struct {
	doc *Document
	typ string

	start, end int // tags[start:end], start at the type tag

	handle   string
	owner    string
	paper    bool
	attribs1 bool // group 66 "attributes follow"

	layer    string
	hasLayer bool
	layerIdx int

	pos    Point
	hasPos bool

	height    float64
	hasHeight bool
	heightIdx int

	rotation    float64
	hasRotation bool

	style    string
	hasStyle bool
	styleIdx int

	text      string
	hasText   bool
	textIdx   int
	chunkIdxs []int // MTEXT continuation chunks (group 3)

	tagName    string // ATTDEF/ATTRIB tag
	hasTagName bool
}

func (e *entity) DXFType() string       { return e.typ }
func (e *entity) Handle() string        { return e.handle }
func (e *entity) span() (int, int)      { return e.start, e.end }
func (e *entity) Layer() (string, bool) { return e.layer, e.hasLayer }
func (e *entity) Position() (Point, bool) {
	return e.pos, e.hasPos
}
func (e *entity) Rotation() (float64, bool) { return e.rotation, e.hasRotation }
func (e *entity) Height() (float64, bool)   { return e.height, e.hasHeight }
func (e *entity) Style() (string, bool)     { return e.style, e.hasStyle }

// Text returns the entity's text value. MTEXT content is the concatenation
// of its continuation chunks followed by the final group-1 value.
func (e *entity) Text() string { return e.text }

// SetText replaces the entity's text value in the underlying tag stream.
// For MTEXT the continuation chunks are dropped and the whole value is
// written into the final group-1 tag.
func (e *entity) SetText(s string) {
	e.text = s
	e.hasText = true
	for _, idx := range e.chunkIdxs {
		e.doc.removeTag(idx)
	}
	e.chunkIdxs = nil
	if e.textIdx >= 0 {
		e.doc.setTagValue(e.textIdx, s)
		return
	}
	e.textIdx = -1
	e.doc.insertBefore(e.end, []Tag{{Code: codeText, Value: s}})
}

// SetHeight updates the text height, adding the tag when absent.
func (e *entity) SetHeight(h float64) {
	e.height = h
	e.hasHeight = true
	if e.heightIdx >= 0 {
		e.doc.setTagValue(e.heightIdx, formatFloat(h))
		return
	}
	e.doc.insertBefore(e.end, []Tag{{Code: codeHeight, Value: formatFloat(h)}})
}

// SetStyle updates the referenced text style name, adding the tag when
// absent.
func (e *entity) SetStyle(name string) {
	e.style = name
	e.hasStyle = true
	if e.styleIdx >= 0 {
		e.doc.setTagValue(e.styleIdx, name)
		return
	}
	e.doc.insertBefore(e.end, []Tag{{Code: codeStyle, Value: name}})
}

// Concrete entity kinds.

// Text is a single-line TEXT entity.
type Text struct{ entity }

// MText is a paragraph MTEXT entity. Its raw value may contain inline
// formatting codes; see extract.StripMTextFormatting.
type MText struct{ entity }

// Attrib is a named text value attached to one block insertion.
type Attrib struct{ entity }

// Tag returns the attribute's tag name.
func (a *Attrib) Tag() (string, bool) { return a.tagName, a.hasTagName }

// AttDef is an attribute template inside a block definition. Both its
// default text and its tag name are human-editable.
type AttDef struct{ entity }

// Tag returns the attribute definition's tag name.
func (a *AttDef) Tag() (string, bool) { return a.tagName, a.hasTagName }

// Dimension is a DIMENSION entity. Only the override text (group 1) is
// modeled; an empty override means the measured value is displayed.
type Dimension struct{ entity }

// OverrideText returns the dimension's explicit text override, if any.
// The AutoCAD placeholder "<>" stands for the measured value and is
// reported as absent.
func (d *Dimension) OverrideText() (string, bool) {
	if !d.hasText {
		return "", false
	}
	t := strings.TrimSpace(d.text)
	if t == "" || t == "<>" {
		return "", false
	}
	return t, true
}

// Insert is a block reference, optionally carrying attribute values.
type Insert struct {
	entity
	blockName string
	attribs   []*Attrib
}

// BlockName returns the name of the inserted block definition.
func (i *Insert) BlockName() string { return i.blockName }

// Attribs returns the attribute values attached to this insertion.
func (i *Insert) Attribs() []*Attrib { return i.attribs }

// parseEntity reads one entity's tags into the shared representation.
// start indexes the group-0 type tag; end is exclusive.
func parseEntity(doc *Document, typ string, start, end int) *entity {
	e := &entity{
		doc:       doc,
		typ:       typ,
		start:     start,
		end:       end,
		layerIdx:  -1,
		heightIdx: -1,
		styleIdx:  -1,
		textIdx:   -1,
	}

	var chunks []string
	for i := start + 1; i < end; i++ {
		t := doc.tags[i]
		switch t.Code {
		case codeHandle:
			e.handle = t.Value
		case codeOwner:
			e.owner = t.Value
		case codeLayer:
			e.layer = t.Value
			e.hasLayer = true
			e.layerIdx = i
		case codePaperSpace:
			e.paper = t.Value == "1" || strings.TrimSpace(t.Value) == "1"
		case codeAttribsFlag:
			e.attribs1 = strings.TrimSpace(t.Value) == "1"
		case codeX:
			if e.hasPos {
				break // keep the first point group only
			}
			e.pos.X, _ = strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
			e.hasPos = true
		case codeY:
			if e.hasPos {
				e.pos.Y, _ = strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
			}
		case codeZ:
			if e.hasPos {
				e.pos.Z, _ = strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
			}
		case codeHeight:
			if e.heightIdx < 0 {
				e.height, _ = strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
				e.hasHeight = true
				e.heightIdx = i
			}
		case codeRotation:
			if !e.hasRotation {
				e.rotation, _ = strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
				e.hasRotation = true
			}
		case codeStyle:
			e.style = t.Value
			e.hasStyle = true
			e.styleIdx = i
		case codeTextChunk:
			// Continuation chunks exist only on MTEXT; on ATTDEF group 3 is
			// the prompt string, which is not part of the value.
			if typ == TypeMText {
				chunks = append(chunks, t.Value)
				e.chunkIdxs = append(e.chunkIdxs, i)
			}
		case codeText:
			e.text = t.Value
			e.hasText = true
			e.textIdx = i
		case codeName:
			e.tagName = t.Value
			e.hasTagName = true
		}
	}
	if len(chunks) > 0 {
		e.text = strings.Join(chunks, "") + e.text
		e.hasText = true
	}
	return e
}
