// Package xmlwriter is a small streaming XML emitter used to build the
// parts of an xlsx package in memory.
package xmlwriter

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
)

const declaration = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// Attr is a single XML attribute. Values are escaped on output.
type Attr struct {
	Key   string
	Value string
}

// Str builds a string attribute.
func Str(key, value string) Attr { return Attr{Key: key, Value: value} }

// Int builds an integer attribute.
func Int(key string, value int) Attr { return Attr{Key: key, Value: strconv.Itoa(value)} }

// Uint builds an unsigned integer attribute.
func Uint(key string, value uint64) Attr {
	return Attr{Key: key, Value: strconv.FormatUint(value, 10)}
}

// Float builds a floating point attribute using the shortest representation.
func Float(key string, value float64) Attr {
	return Attr{Key: key, Value: strconv.FormatFloat(value, 'f', -1, 64)}
}

// Bool builds a "1"/"0" attribute.
func Bool(key string, value bool) Attr {
	if value {
		return Attr{Key: key, Value: "1"}
	}
	return Attr{Key: key, Value: "0"}
}

// Writer accumulates XML for one package part. It does not check nesting.
type Writer struct {
	buf bytes.Buffer
}

// New returns an empty writer.
func New() *Writer {
	return &Writer{}
}

// XMLDeclaration writes the standalone UTF-8 declaration line.
func (w *Writer) XMLDeclaration() {
	w.buf.WriteString(declaration)
}

// StartTag writes <name attrs...>.
func (w *Writer) StartTag(name string, attrs ...Attr) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	w.writeAttrs(attrs)
	w.buf.WriteByte('>')
}

// EndTag writes </name>.
func (w *Writer) EndTag(name string) {
	w.buf.WriteString("</")
	w.buf.WriteString(name)
	w.buf.WriteByte('>')
}

// EmptyTag writes <name attrs.../>.
func (w *Writer) EmptyTag(name string, attrs ...Attr) {
	w.buf.WriteByte('<')
	w.buf.WriteString(name)
	w.writeAttrs(attrs)
	w.buf.WriteString("/>")
}

// DataElement writes <name attrs...>data</name>, escaping data.
func (w *Writer) DataElement(name, data string, attrs ...Attr) {
	w.StartTag(name, attrs...)
	w.Text(data)
	w.EndTag(name)
}

// Text writes escaped character data.
func (w *Writer) Text(s string) {
	w.buf.WriteString(EscapeData(s))
}

// Raw writes s verbatim.
func (w *Writer) Raw(s string) {
	w.buf.WriteString(s)
}

// Bytes returns the accumulated XML. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// String returns the accumulated XML as a string.
func (w *Writer) String() string {
	return w.buf.String()
}

// Len reports the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset discards everything written.
func (w *Writer) Reset() {
	w.buf.Reset()
}

func (w *Writer) writeAttrs(attrs []Attr) {
	for _, a := range attrs {
		w.buf.WriteByte(' ')
		w.buf.WriteString(a.Key)
		w.buf.WriteString(`="`)
		w.buf.WriteString(EscapeAttr(a.Value))
		w.buf.WriteByte('"')
	}
}

// EscapeAttr escapes an attribute value. Newlines become &#xA; so they
// survive attribute normalisation.
func EscapeAttr(s string) string {
	s = StripInvalid(s)
	if !strings.ContainsAny(s, "&<>\"\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\n':
			b.WriteString("&#xA;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeData escapes character data.
func EscapeData(s string) string {
	s = StripInvalid(s)
	if !strings.ContainsAny(s, "&<>\"'") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripInvalid removes characters that XML 1.0 does not allow: C0 controls
// other than tab, newline and carriage return, plus U+FFFE and U+FFFF.
// Bytes that are not valid UTF-8 become U+FFFD.
func StripInvalid(s string) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	clean := true
	for _, r := range s {
		if !validChar(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	return strings.Map(func(r rune) rune {
		if validChar(r) {
			return r
		}
		return -1
	}, s)
}

func validChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r < 0x20:
		return false
	case r == 0xFFFE || r == 0xFFFF:
		return false
	}
	return true
}
