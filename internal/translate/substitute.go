package translate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cadbridge/dxf-translator/internal/dxf"
	"github.com/cadbridge/dxf-translator/internal/extract"
)

// Mode selects how a translated entity is written back.
type Mode int

const (
	// ModeRecreate deletes the original entity and creates a fresh
	// single-line text entity carrying its placement attributes. This is
	// the reliable path for paragraph text, which cannot be narrowed to a
	// single-line entity in place.
	ModeRecreate Mode = iota
	// ModeReplace mutates the entity's text in place and restyles it.
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "recreate"
}

// Defaults for placement attributes absent from the original entity.
const (
	DefaultHeight    = 2.5
	MinHeight        = 1.0
	DefaultReduction = 4.0
	styleWidthFactor = 0.8
)

// Options configures a substitution pass.
type Options struct {
	Mode Mode
	// FontName is the typeface for translated text styles.
	FontName string
	// FontReduction is subtracted from each translated entity's height,
	// floored at MinHeight. Zero means DefaultReduction.
	FontReduction float64
}

// Outcome counts entity dispositions for one region or document.
type Outcome struct {
	Processed  int
	Translated int
	Skipped    int
	Errors     int
}

func (o *Outcome) add(other Outcome) {
	o.Processed += other.Processed
	o.Translated += other.Translated
	o.Skipped += other.Skipped
	o.Errors += other.Errors
}

// Substituter writes matched translations back into documents.
type Substituter struct {
	matcher *Matcher
	opts    Options
	logger  *slog.Logger
}

// NewSubstituter builds a substituter over a loaded translation table.
func NewSubstituter(table map[string]string, opts Options, logger *slog.Logger) *Substituter {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.FontReduction == 0 {
		opts.FontReduction = DefaultReduction
	}
	if opts.FontName == "" {
		opts.FontName = "Times New Roman"
	}
	return &Substituter{matcher: NewMatcher(table), opts: opts, logger: logger}
}

// StyleName derives the style record name for a font. The derivation is
// deterministic so repeated passes reuse one record per font.
func StyleName(font string) string {
	return "TranslatedStyle_" + strings.ReplaceAll(font, " ", "_")
}

// TranslateDocument walks the whole document: model space first, then
// every named layout, then every named block definition. Each region is
// counted independently and summed. Entity failures are contained; the
// pass always completes.
func (s *Substituter) TranslateDocument(doc *dxf.Document) Outcome {
	var total Outcome
	total.add(s.translateRegion(doc, doc.ModelSpace()))
	for _, layout := range doc.Layouts() {
		if layout.Name == dxf.ModelLayoutName {
			continue
		}
		total.add(s.translateRegion(doc, layout))
	}
	for _, block := range doc.Blocks() {
		total.add(s.translateRegion(doc, block))
	}
	return total
}

func (s *Substituter) translateRegion(doc *dxf.Document, region *dxf.Region) Outcome {
	var out Outcome

	for _, t := range region.Texts() {
		s.translateEntity(doc, region, t, t.Text(), &out)
	}
	for _, m := range region.MTexts() {
		s.translateEntity(doc, region, m, extract.StripMTextFormatting(m.Text()), &out)
	}
	for _, ins := range region.Inserts() {
		for _, a := range ins.Attribs() {
			s.translateEntity(doc, region, a, a.Text(), &out)
		}
	}
	for _, ad := range region.AttDefs() {
		s.translateEntity(doc, region, ad, ad.Text(), &out)
	}
	return out
}

// translateEntity resolves and applies one entity's translation,
// containing panics so one bad entity cannot poison its region.
func (s *Substituter) translateEntity(doc *dxf.Document, region *dxf.Region, e dxf.Entity, source string, out *Outcome) {
	out.Processed++
	defer func() {
		if r := recover(); r != nil {
			out.Errors++
			s.logger.Error("substitution failed",
				"handle", e.Handle(), "region", region.Name, "panic", fmt.Sprint(r))
		}
	}()

	source = extract.Clean(source)
	if source == "" {
		out.Skipped++
		return
	}
	translation, method, ok := s.matcher.Match(source)
	if !ok {
		out.Skipped++
		return
	}

	var err error
	switch e.(type) {
	case *dxf.Attrib, *dxf.AttDef:
		// Attributes belong to an insertion's tag sequence; deleting one
		// would orphan the sequence, so they are always edited in place.
		err = s.replaceInPlace(doc, e, translation)
	default:
		if s.opts.Mode == ModeReplace {
			err = s.replaceInPlace(doc, e, translation)
		} else {
			err = s.recreate(doc, region, e, translation)
		}
	}
	if err != nil {
		out.Errors++
		s.logger.Error("substitution failed",
			"handle", e.Handle(), "region", region.Name, "error", err)
		return
	}
	out.Translated++
	s.logger.Debug("translated entity",
		"handle", e.Handle(), "region", region.Name, "method", method)
}

// replaceInPlace rewrites the entity's text, assigns the translated
// style, and reduces its height.
func (s *Substituter) replaceInPlace(doc *dxf.Document, e dxf.Entity, translation string) error {
	th, ok := e.(dxf.TextHolder)
	if !ok {
		return fmt.Errorf("entity %s does not carry editable text", e.Handle())
	}
	th.SetText(translation)

	style, err := s.ensureStyle(doc)
	if err != nil {
		return err
	}
	if sh, ok := e.(dxf.StyleHolder); ok {
		sh.SetStyle(style)
	}
	if hh, ok := e.(dxf.HeightHolder); ok {
		if h, has := hh.Height(); has {
			hh.SetHeight(s.reducedHeight(h))
		}
	}
	return nil
}

// recreate replaces the entity with a new single-line text entity that
// inherits its placement, defaulting any attribute the original lacks.
func (s *Substituter) recreate(doc *dxf.Document, region *dxf.Region, e dxf.Entity, translation string) error {
	style, err := s.ensureStyle(doc)
	if err != nil {
		return err
	}

	attrs := dxf.TextAttributes{
		Text:   translation,
		Height: DefaultHeight,
		Layer:  dxf.DefaultLayer,
		Style:  style,
	}
	if ph, ok := e.(dxf.PositionHolder); ok {
		if p, has := ph.Position(); has {
			attrs.Insert = p
		}
	}
	if hh, ok := e.(dxf.HeightHolder); ok {
		if h, has := hh.Height(); has {
			attrs.Height = h
		}
	}
	attrs.Height = s.reducedHeight(attrs.Height)
	if rh, ok := e.(dxf.RotationHolder); ok {
		if r, has := rh.Rotation(); has {
			attrs.Rotation = r
		}
	}
	if lh, ok := e.(dxf.LayerHolder); ok {
		if l, has := lh.Layer(); has && l != "" {
			attrs.Layer = l
		}
	}

	region.AddText(attrs)
	region.Delete(e)
	return nil
}

// ensureStyle creates the translated-text style record on first use.
// The style table is shared across all regions of one document, so the
// check-then-create must stay idempotent.
func (s *Substituter) ensureStyle(doc *dxf.Document) (string, error) {
	name := StyleName(s.opts.FontName)
	styles := doc.Styles()
	if styles.Has(name) {
		return name, nil
	}
	if err := styles.Create(name, s.opts.FontName, styleWidthFactor); err != nil {
		return "", fmt.Errorf("create style %s: %w", name, err)
	}
	return name, nil
}

func (s *Substituter) reducedHeight(h float64) float64 {
	reduced := h - s.opts.FontReduction
	if reduced < MinHeight {
		return MinHeight
	}
	return reduced
}
