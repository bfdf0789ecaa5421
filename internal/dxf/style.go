package dxf

import "fmt"

// StyleTable is the document's table of named text styles. One table is
// shared by every region of a document, so creation is check-then-create.
// Created records are buffered and emitted on save: inside the existing
// STYLE table, or wrapped in a new table when the document has none.
type StyleTable struct {
	doc *Document

	// entries maps parsed style names to the tag index of their record.
	entries map[string]int

	// created holds records added since parse, keyed insertion-ordered.
	created []Tag
	names   map[string]bool

	// insertAnchor is the tag index buffered records are emitted before:
	// the ENDTAB of the STYLE table, or the TABLES ENDSEC when no STYLE
	// table exists yet.
	insertAnchor int
	haveTable    bool
}

// parseTables locates the STYLE table inside the TABLES section.
func (d *Document) parseTables(start, end int) {
	st := &StyleTable{doc: d, entries: map[string]int{}, names: map[string]bool{}, insertAnchor: end}
	d.styles = st

	i := start
	for i < end {
		if d.tags[i].Code != codeEntityType || d.tags[i].Value != "TABLE" {
			i++
			continue
		}
		if i+1 >= end || d.tags[i+1].Code != codeName {
			i++
			continue
		}
		tableName := d.tags[i+1].Value
		tableEnd := i + 2
		for tableEnd < end {
			if d.tags[tableEnd].Code == codeEntityType && d.tags[tableEnd].Value == "ENDTAB" {
				break
			}
			tableEnd++
		}
		if tableName == "STYLE" {
			st.haveTable = true
			st.insertAnchor = tableEnd
			for _, span := range d.entitySpans(i+2, tableEnd) {
				if d.tags[span[0]].Value != "STYLE" {
					continue
				}
				for j := span[0] + 1; j < span[1]; j++ {
					if d.tags[j].Code == codeName {
						st.entries[d.tags[j].Value] = span[0]
						break
					}
				}
			}
			return
		}
		i = tableEnd + 1
	}
}

// Has reports whether a style with the given name exists.
func (s *StyleTable) Has(name string) bool {
	if _, ok := s.entries[name]; ok {
		return true
	}
	return s.names[name]
}

// Names returns the defined style names, parsed and created alike.
func (s *StyleTable) Names() []string {
	names := make([]string, 0, len(s.entries)+len(s.names))
	for n := range s.entries {
		names = append(names, n)
	}
	for n := range s.names {
		names = append(names, n)
	}
	return names
}

// Create adds a STYLE record with the given font and width factor. Creating
// a style that already exists is an error; callers check Has first.
func (s *StyleTable) Create(name, font string, widthFactor float64) error {
	if s.Has(name) {
		return fmt.Errorf("style %q already exists", name)
	}
	if s.insertAnchor < 0 {
		return fmt.Errorf("document has no TABLES section; cannot create style %q", name)
	}

	s.created = append(s.created,
		Tag{codeEntityType, "STYLE"},
		Tag{codeHandle, s.doc.allocateHandle()},
		Tag{codeName, name},
		Tag{codeFlags, "0"},
		Tag{codeHeight, "0.0"}, // fixed height 0: height taken from the entity
		Tag{codeWidthFactor, formatFloat(widthFactor)},
		Tag{codeRotation, "0.0"},
		Tag{codeTextChunk, font},
	)
	s.names[name] = true
	return nil
}

// pendingTags returns the buffered style records ready for emission,
// wrapping them in a TABLE block when the document had no STYLE table.
func (s *StyleTable) pendingTags() (anchor int, tags []Tag) {
	if len(s.created) == 0 {
		return s.insertAnchor, nil
	}
	if s.haveTable {
		return s.insertAnchor, s.created
	}
	tags = append(tags, Tag{codeEntityType, "TABLE"}, Tag{codeName, "STYLE"}, Tag{codeFlags, "1"})
	tags = append(tags, s.created...)
	tags = append(tags, Tag{codeEntityType, "ENDTAB"})
	return s.insertAnchor, tags
}
