// Package sst implements the workbook shared-string table.
package sst

import (
	"strings"

	"github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

const mainNamespace = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"

type entry struct {
	text string
	rich bool
}

// Table interns strings in first-seen order. Plain strings and rich
// strings live in separate key spaces so a run fragment never collides
// with a plain value that happens to look like XML.
type Table struct {
	plain   map[string]uint32
	rich    map[string]uint32
	entries []entry
	refs    uint32
}

// New returns an empty table.
func New() *Table {
	return &Table{
		plain: make(map[string]uint32),
		rich:  make(map[string]uint32),
	}
}

// Intern returns the index of s, adding it on first sight.
func (t *Table) Intern(s string) uint32 {
	t.refs++
	if i, ok := t.plain[s]; ok {
		return i
	}
	i := uint32(len(t.entries))
	t.plain[s] = i
	t.entries = append(t.entries, entry{text: s})
	return i
}

// InternRich interns a rich string by its run XML (<r>...</r> sequence).
func (t *Table) InternRich(runs string) uint32 {
	t.refs++
	if i, ok := t.rich[runs]; ok {
		return i
	}
	i := uint32(len(t.entries))
	t.rich[runs] = i
	t.entries = append(t.entries, entry{text: runs, rich: true})
	return i
}

// Len is the number of unique strings.
func (t *Table) Len() int { return len(t.entries) }

// Count is the total number of references handed out.
func (t *Table) Count() uint32 { return t.refs }

// Each visits strings in index order.
func (t *Table) Each(fn func(index uint32, text string, rich bool)) {
	for i, e := range t.entries {
		fn(uint32(i), e.text, e.rich)
	}
}

// WriteXML writes xl/sharedStrings.xml.
func (t *Table) WriteXML(w *xmlwriter.Writer) {
	w.XMLDeclaration()
	w.StartTag("sst",
		xmlwriter.Str("xmlns", mainNamespace),
		xmlwriter.Uint("count", uint64(t.Count())),
		xmlwriter.Int("uniqueCount", t.Len()),
	)
	t.Each(func(_ uint32, text string, rich bool) {
		w.StartTag("si")
		switch {
		case rich:
			w.Raw(text)
		case NeedsPreserve(text):
			w.DataElement("t", text, xmlwriter.Str("xml:space", "preserve"))
		default:
			w.DataElement("t", text)
		}
		w.EndTag("si")
	})
	w.EndTag("sst")
}

// NeedsPreserve reports whether s needs xml:space="preserve" to keep its
// leading or trailing whitespace or embedded newlines.
func NeedsPreserve(s string) bool {
	if s == "" {
		return false
	}
	if strings.ContainsAny(s[:1], " \t\n\r") || strings.ContainsAny(s[len(s)-1:], " \t\n\r") {
		return true
	}
	return strings.Contains(s, "\n")
}
