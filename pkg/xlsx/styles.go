package xlsx

import (
	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

const firstCustomNumFmt = 164

// styleTables holds the deduplicated components referenced by cellXfs.
type styleTables struct {
	numFmts   map[string]uint16
	customFmt []string
	fonts     []fontProps
	fontIDs   map[fontProps]int
	fills     []fillProps
	fillIDs   map[fillProps]int
	borders   []borderProps
	borderIDs map[borderProps]int
}

func buildStyleTables(xfs, dxfs *formatRegistry) *styleTables {
	st := &styleTables{
		numFmts:   make(map[string]uint16),
		fontIDs:   make(map[fontProps]int),
		fillIDs:   make(map[fillProps]int),
		borderIDs: make(map[borderProps]int),
	}
	// The two leading fills are mandatory placeholders.
	st.addFill(fillProps{})
	st.addFill(fillProps{pattern: PatternGray125})

	for _, f := range xfs.formats {
		st.numFmtID(f.numFormat, true)
		st.addFont(f.font)
		st.addFill(f.fill)
		st.addBorder(f.border)
	}
	for _, f := range dxfs.formats {
		st.numFmtID(f.numFormat, false)
	}
	return st
}

func (st *styleTables) numFmtID(code string, listed bool) uint16 {
	if code == "" {
		return 0
	}
	if id, ok := builtinNumFormats[code]; ok {
		return id
	}
	if id, ok := st.numFmts[code]; ok {
		return id
	}
	id := uint16(firstCustomNumFmt + len(st.numFmts))
	st.numFmts[code] = id
	if listed {
		st.customFmt = append(st.customFmt, code)
	}
	return id
}

func (st *styleTables) addFont(f fontProps) int {
	if id, ok := st.fontIDs[f]; ok {
		return id
	}
	id := len(st.fonts)
	st.fontIDs[f] = id
	st.fonts = append(st.fonts, f)
	return id
}

func (st *styleTables) addFill(f fillProps) int {
	if id, ok := st.fillIDs[f]; ok {
		return id
	}
	id := len(st.fills)
	st.fillIDs[f] = id
	st.fills = append(st.fills, f)
	return id
}

func (st *styleTables) addBorder(b borderProps) int {
	if id, ok := st.borderIDs[b]; ok {
		return id
	}
	id := len(st.borders)
	st.borderIDs[b] = id
	st.borders = append(st.borders, b)
	return id
}

// writeStyles writes xl/styles.xml.
func writeStyles(w *xw.Writer, xfs, dxfs *formatRegistry) {
	st := buildStyleTables(xfs, dxfs)

	w.XMLDeclaration()
	w.StartTag("styleSheet", xw.Str("xmlns", nsMain))

	if len(st.customFmt) > 0 {
		w.StartTag("numFmts", xw.Int("count", len(st.customFmt)))
		for _, code := range st.customFmt {
			w.EmptyTag("numFmt",
				xw.Int("numFmtId", int(st.numFmts[code])),
				xw.Str("formatCode", code))
		}
		w.EndTag("numFmts")
	}

	w.StartTag("fonts", xw.Int("count", len(st.fonts)))
	for _, f := range st.fonts {
		writeFont(w, "font", f)
	}
	w.EndTag("fonts")

	w.StartTag("fills", xw.Int("count", len(st.fills)))
	for _, f := range st.fills {
		writeFill(w, f, false)
	}
	w.EndTag("fills")

	w.StartTag("borders", xw.Int("count", len(st.borders)))
	for _, b := range st.borders {
		writeBorder(w, b)
	}
	w.EndTag("borders")

	w.StartTag("cellStyleXfs", xw.Int("count", 1))
	w.EmptyTag("xf",
		xw.Int("numFmtId", 0), xw.Int("fontId", 0),
		xw.Int("fillId", 0), xw.Int("borderId", 0))
	w.EndTag("cellStyleXfs")

	w.StartTag("cellXfs", xw.Int("count", xfs.len()))
	for _, f := range xfs.formats {
		writeXF(w, st, f)
	}
	w.EndTag("cellXfs")

	w.StartTag("cellStyles", xw.Int("count", 1))
	w.EmptyTag("cellStyle", xw.Str("name", "Normal"), xw.Int("xfId", 0), xw.Int("builtinId", 0))
	w.EndTag("cellStyles")

	w.StartTag("dxfs", xw.Int("count", dxfs.len()))
	for _, f := range dxfs.formats {
		writeDXF(w, st, f)
	}
	w.EndTag("dxfs")

	w.EmptyTag("tableStyles",
		xw.Int("count", 0),
		xw.Str("defaultTableStyle", "TableStyleMedium9"),
		xw.Str("defaultPivotStyle", "PivotStyleLight16"))
	w.EndTag("styleSheet")
}

func writeXF(w *xw.Writer, st *styleTables, f Format) {
	numFmtID := st.numFmtID(f.numFormat, true)
	attrs := []xw.Attr{
		xw.Int("numFmtId", int(numFmtID)),
		xw.Int("fontId", st.fontIDs[f.font]),
		xw.Int("fillId", st.fillIDs[f.fill]),
		xw.Int("borderId", st.borderIDs[f.border]),
		xw.Int("xfId", 0),
	}
	if numFmtID != 0 {
		attrs = append(attrs, xw.Str("applyNumberFormat", "1"))
	}
	if f.hasFont() {
		attrs = append(attrs, xw.Str("applyFont", "1"))
	}
	if f.hasFill() {
		attrs = append(attrs, xw.Str("applyFill", "1"))
	}
	if f.hasBorder() {
		attrs = append(attrs, xw.Str("applyBorder", "1"))
	}
	if f.hasAlign() {
		attrs = append(attrs, xw.Str("applyAlignment", "1"))
	}
	if f.hasProtect() {
		attrs = append(attrs, xw.Str("applyProtection", "1"))
	}
	if !f.hasAlign() && !f.hasProtect() {
		w.EmptyTag("xf", attrs...)
		return
	}
	w.StartTag("xf", attrs...)
	if f.hasAlign() {
		writeAlignment(w, f.align)
	}
	if f.hasProtect() {
		writeProtection(w, f.protect)
	}
	w.EndTag("xf")
}

func writeDXF(w *xw.Writer, st *styleTables, f Format) {
	w.StartTag("dxf")
	if f.hasFont() {
		// Conditional formats cannot change the font face or size.
		font := f.font
		font.name = ""
		font.size = 0
		writeDXFFont(w, font)
	}
	if f.numFormat != "" {
		w.EmptyTag("numFmt",
			xw.Int("numFmtId", int(st.numFmtID(f.numFormat, false))),
			xw.Str("formatCode", f.numFormat))
	}
	if f.hasFill() {
		writeFill(w, f.fill, true)
	}
	if f.hasAlign() {
		writeAlignment(w, f.align)
	}
	if f.hasProtect() {
		writeProtection(w, f.protect)
	}
	if f.hasBorder() {
		writeBorder(w, f.border)
	}
	w.EndTag("dxf")
}

func writeFontFlags(w *xw.Writer, f fontProps) {
	if f.bold {
		w.EmptyTag("b")
	}
	if f.italic {
		w.EmptyTag("i")
	}
	if f.strike {
		w.EmptyTag("strike")
	}
	switch f.underline {
	case UnderlineSingle:
		w.EmptyTag("u")
	case UnderlineDouble:
		w.EmptyTag("u", xw.Str("val", "double"))
	case UnderlineSingleAccounting:
		w.EmptyTag("u", xw.Str("val", "singleAccounting"))
	case UnderlineDoubleAccounting:
		w.EmptyTag("u", xw.Str("val", "doubleAccounting"))
	}
	switch f.script {
	case ScriptSuperscript:
		w.EmptyTag("vertAlign", xw.Str("val", "superscript"))
	case ScriptSubscript:
		w.EmptyTag("vertAlign", xw.Str("val", "subscript"))
	}
}

// writeFont writes a <font> (styles) or <rPr> (rich string run) element.
// Run properties name the face with rFont instead of name.
func writeFont(w *xw.Writer, tag string, f fontProps) {
	w.StartTag(tag)
	writeFontFlags(w, f)
	size := f.size
	if size == 0 {
		size = DefaultFontSize
	}
	w.EmptyTag("sz", xw.Float("val", size))
	if f.color.set {
		w.EmptyTag("color", xw.Str("rgb", f.color.ARGB()))
	}
	name := f.name
	if name == "" {
		name = DefaultFontName
	}
	if tag == "rPr" {
		w.EmptyTag("rFont", xw.Str("val", name))
	} else {
		w.EmptyTag("name", xw.Str("val", name))
	}
	if name == DefaultFontName {
		w.EmptyTag("family", xw.Int("val", 2))
	}
	w.EndTag(tag)
}

func writeDXFFont(w *xw.Writer, f fontProps) {
	w.StartTag("font")
	writeFontFlags(w, f)
	if f.color.set {
		w.EmptyTag("color", xw.Str("rgb", f.color.ARGB()))
	}
	w.EndTag("font")
}

func writeFill(w *xw.Writer, f fillProps, dxf bool) {
	w.StartTag("fill")
	if dxf {
		// Differential fills carry a solid colour in bgColor.
		if f.pattern > PatternSolid {
			w.StartTag("patternFill", xw.Str("patternType", f.pattern.String()))
			if f.fg.set {
				w.EmptyTag("fgColor", xw.Str("rgb", f.fg.ARGB()))
			}
			if f.bg.set {
				w.EmptyTag("bgColor", xw.Str("rgb", f.bg.ARGB()))
			}
		} else {
			w.StartTag("patternFill")
			c := f.fg
			if !c.set {
				c = f.bg
			}
			if c.set {
				w.EmptyTag("bgColor", xw.Str("rgb", c.ARGB()))
			}
		}
		w.EndTag("patternFill")
		w.EndTag("fill")
		return
	}
	if f.pattern == PatternNone && !f.fg.set && !f.bg.set {
		w.EmptyTag("patternFill", xw.Str("patternType", "none"))
		w.EndTag("fill")
		return
	}
	w.StartTag("patternFill", xw.Str("patternType", f.pattern.String()))
	if f.fg.set {
		w.EmptyTag("fgColor", xw.Str("rgb", f.fg.ARGB()))
	}
	if f.bg.set {
		w.EmptyTag("bgColor", xw.Str("rgb", f.bg.ARGB()))
	} else if f.pattern != PatternNone {
		w.EmptyTag("bgColor", xw.Str("indexed", "64"))
	}
	w.EndTag("patternFill")
	w.EndTag("fill")
}

func writeBorder(w *xw.Writer, b borderProps) {
	w.StartTag("border")
	writeBorderSide(w, "left", b.left)
	writeBorderSide(w, "right", b.right)
	writeBorderSide(w, "top", b.top)
	writeBorderSide(w, "bottom", b.bottom)
	w.EmptyTag("diagonal")
	w.EndTag("border")
}

func writeBorderSide(w *xw.Writer, tag string, s borderSide) {
	if s.style == BorderNone {
		w.EmptyTag(tag)
		return
	}
	w.StartTag(tag, xw.Str("style", s.style.String()))
	if s.color.set {
		w.EmptyTag("color", xw.Str("rgb", s.color.ARGB()))
	} else {
		w.EmptyTag("color", xw.Str("auto", "1"))
	}
	w.EndTag(tag)
}

func writeAlignment(w *xw.Writer, a alignProps) {
	var attrs []xw.Attr
	if a.horizontal != AlignGeneral && int(a.horizontal) < len(hAlignNames) {
		attrs = append(attrs, xw.Str("horizontal", hAlignNames[a.horizontal]))
	}
	if a.vertical != VAlignBottom && int(a.vertical) < len(vAlignNames) {
		attrs = append(attrs, xw.Str("vertical", vAlignNames[a.vertical]))
	}
	if a.indent > 0 {
		attrs = append(attrs, xw.Int("indent", int(a.indent)))
	}
	if a.rotation != 0 {
		attrs = append(attrs, xw.Int("textRotation", int(a.rotation)))
	}
	if a.wrap {
		attrs = append(attrs, xw.Str("wrapText", "1"))
	}
	if a.shrink {
		attrs = append(attrs, xw.Str("shrinkToFit", "1"))
	}
	w.EmptyTag("alignment", attrs...)
}

func writeProtection(w *xw.Writer, p protectProps) {
	var attrs []xw.Attr
	if p.unlocked {
		attrs = append(attrs, xw.Str("locked", "0"))
	}
	if p.hidden {
		attrs = append(attrs, xw.Str("hidden", "1"))
	}
	w.EmptyTag("protection", attrs...)
}
