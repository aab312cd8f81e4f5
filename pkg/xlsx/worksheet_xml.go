package xlsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/klytics/xlsxkit/pkg/xlsx/internal/sst"
	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// sheetParts carries the package numbering the packager assigned to one
// worksheet. Zero means the sheet has no part of that kind.
type sheetParts struct {
	rels    relationships
	drawing int
	vml     int
	tables  []int
}

// eachCell visits every stored cell, rows then columns ascending.
func (ws *Worksheet) eachCell(fn func(row RowNum, col ColNum, c *cell)) {
	it := ws.rows.Iterator()
	for it.Next() {
		row := it.Key().(RowNum)
		cells := it.Value().(*treemap.Map).Iterator()
		for cells.Next() {
			fn(row, cells.Key().(ColNum), cells.Value().(*cell))
		}
	}
}

func (ws *Worksheet) hasDynamicArrays() bool {
	found := false
	ws.eachCell(func(_ RowNum, _ ColNum, c *cell) {
		if c.kind == kindArrayFormula && c.dynamic {
			found = true
		}
	})
	return found
}

// validate checks what can only be checked once the sheet is complete.
func (ws *Worksheet) validate() error {
	if err := checkHeaderImages(ws.header, ws.headerImages); err != nil {
		return ws.sheetError(fmt.Errorf("header: %w", err))
	}
	if err := checkHeaderImages(ws.footer, ws.footerImages); err != nil {
		return ws.sheetError(fmt.Errorf("footer: %w", err))
	}
	return nil
}

func checkHeaderImages(text string, images [3]*Image) error {
	want := strings.Count(text, "&G")
	got := 0
	for _, img := range images {
		if img != nil {
			got++
		}
	}
	if want != got {
		return fmt.Errorf("%w: %d &G placeholder(s), %d image(s)", ErrHeaderImageMismatch, want, got)
	}
	return nil
}

// assembleXML writes the worksheet part. It reads the model only:
// strings are interned into strs and relationships are added to
// parts.rels, so calling it twice on an unchanged sheet gives the same
// bytes.
func (ws *Worksheet) assembleXML(w *xw.Writer, strs *sst.Table, parts *sheetParts) error {
	w.XMLDeclaration()
	w.StartTag("worksheet", xw.Str("xmlns", nsMain), xw.Str("xmlns:r", nsRelationships))

	ws.writeSheetPr(w)
	w.EmptyTag("dimension", xw.Str("ref", ws.dimension()))
	ws.writeSheetViews(w)
	ws.writeSheetFormatPr(w)
	ws.writeCols(w)
	if err := ws.writeSheetData(w, strs); err != nil {
		return err
	}
	ws.writeAutofilter(w)
	ws.writeMergeCells(w)
	ws.writeConditionalFormats(w)
	ws.writeHyperlinks(w, &parts.rels)
	ws.writePrintOptions(w)
	m := ws.page.margins
	w.EmptyTag("pageMargins",
		xw.Float("left", m[0]), xw.Float("right", m[1]),
		xw.Float("top", m[2]), xw.Float("bottom", m[3]),
		xw.Float("header", m[4]), xw.Float("footer", m[5]))
	ws.writePageSetup(w)
	ws.writeHeaderFooter(w)

	if parts.drawing > 0 {
		id := parts.rels.add(relDrawing, fmt.Sprintf("../drawings/drawing%d.xml", parts.drawing))
		w.EmptyTag("drawing", xw.Str("r:id", id))
	}
	if parts.vml > 0 {
		id := parts.rels.add(relVMLDrawing, fmt.Sprintf("../drawings/vmlDrawing%d.vml", parts.vml))
		w.EmptyTag("legacyDrawingHF", xw.Str("r:id", id))
	}
	if len(parts.tables) > 0 {
		w.StartTag("tableParts", xw.Int("count", len(parts.tables)))
		for _, n := range parts.tables {
			id := parts.rels.add(relTable, fmt.Sprintf("../tables/table%d.xml", n))
			w.EmptyTag("tablePart", xw.Str("r:id", id))
		}
		w.EndTag("tableParts")
	}
	w.EndTag("worksheet")
	return nil
}

func (ws *Worksheet) writeSheetPr(w *xw.Writer) {
	var attrs []xw.Attr
	if ws.filter != nil && len(ws.filter.columns) > 0 {
		attrs = append(attrs, xw.Str("filterMode", "1"))
	}
	if len(attrs) == 0 && !ws.view.tabColor.IsSet() && !ws.page.fitToPage {
		return
	}
	if !ws.view.tabColor.IsSet() && !ws.page.fitToPage {
		w.EmptyTag("sheetPr", attrs...)
		return
	}
	w.StartTag("sheetPr", attrs...)
	if ws.view.tabColor.IsSet() {
		w.EmptyTag("tabColor", xw.Str("rgb", ws.view.tabColor.ARGB()))
	}
	if ws.page.fitToPage {
		w.EmptyTag("pageSetUpPr", xw.Str("fitToPage", "1"))
	}
	w.EndTag("sheetPr")
}

// dimension is the used range, or A1 for an empty sheet.
func (ws *Worksheet) dimension() string {
	if ws.rows.Empty() {
		return "A1"
	}
	firstRow, _ := ws.rows.Min()
	lastRow, _ := ws.rows.Max()
	firstCol, lastCol := ColNum(MaxCols-1), ColNum(0)
	for _, v := range ws.rows.Values() {
		cells := v.(*treemap.Map)
		lo, _ := cells.Min()
		hi, _ := cells.Max()
		if lo.(ColNum) < firstCol {
			firstCol = lo.(ColNum)
		}
		if hi.(ColNum) > lastCol {
			lastCol = hi.(ColNum)
		}
	}
	r := cellRange{firstRow.(RowNum), firstCol, lastRow.(RowNum), lastCol}
	return r.String()
}

func (ws *Worksheet) writeSheetViews(w *xw.Writer) {
	w.StartTag("sheetViews")
	var attrs []xw.Attr
	if ws.view.noGrid {
		attrs = append(attrs, xw.Str("showGridLines", "0"))
	}
	if ws.wb.activeSheet == ws.index {
		attrs = append(attrs, xw.Str("tabSelected", "1"))
	}
	if ws.view.zoom != 0 && ws.view.zoom != 100 {
		attrs = append(attrs, xw.Int("zoomScale", int(ws.view.zoom)), xw.Int("zoomScaleNormal", int(ws.view.zoom)))
	}
	attrs = append(attrs, xw.Str("workbookViewId", "0"))

	row, col := ws.view.freezeRow, ws.view.freezeCol
	if row == 0 && col == 0 {
		w.EmptyTag("sheetView", attrs...)
		w.EndTag("sheetViews")
		return
	}
	w.StartTag("sheetView", attrs...)
	pane := "bottomRight"
	switch {
	case col == 0:
		pane = "bottomLeft"
	case row == 0:
		pane = "topRight"
	}
	var paneAttrs []xw.Attr
	if col > 0 {
		paneAttrs = append(paneAttrs, xw.Int("xSplit", int(col)))
	}
	if row > 0 {
		paneAttrs = append(paneAttrs, xw.Int("ySplit", int(row)))
	}
	topLeft := CellName(row, col)
	paneAttrs = append(paneAttrs,
		xw.Str("topLeftCell", topLeft),
		xw.Str("activePane", pane),
		xw.Str("state", "frozen"))
	w.EmptyTag("pane", paneAttrs...)
	if pane == "bottomRight" {
		w.EmptyTag("selection", xw.Str("pane", "topRight"))
		w.EmptyTag("selection", xw.Str("pane", "bottomLeft"))
	}
	w.EmptyTag("selection", xw.Str("pane", pane), xw.Str("activeCell", topLeft), xw.Str("sqref", topLeft))
	w.EndTag("sheetView")
	w.EndTag("sheetViews")
}

func (ws *Worksheet) writeSheetFormatPr(w *xw.Writer) {
	var rowLevel, colLevel uint8
	for _, v := range ws.rowOpts.Values() {
		if l := v.(*rowOptions).level; l > rowLevel {
			rowLevel = l
		}
	}
	for _, v := range ws.colOpts.Values() {
		if l := v.(*colOptions).level; l > colLevel {
			colLevel = l
		}
	}
	attrs := []xw.Attr{xw.Float("defaultRowHeight", DefaultRowHeight)}
	if rowLevel > 0 {
		attrs = append(attrs, xw.Int("outlineLevelRow", int(rowLevel)))
	}
	if colLevel > 0 {
		attrs = append(attrs, xw.Int("outlineLevelCol", int(colLevel)))
	}
	w.EmptyTag("sheetFormatPr", attrs...)
}

type colSpan struct {
	first, last ColNum
	opts        colOptions
}

// columnSpans merges runs of adjacent columns with identical options.
func (ws *Worksheet) columnSpans() []colSpan {
	var spans []colSpan
	it := ws.colOpts.Iterator()
	for it.Next() {
		col := it.Key().(ColNum)
		o := *it.Value().(*colOptions)
		if n := len(spans); n > 0 && spans[n-1].last+1 == col && spans[n-1].opts == o {
			spans[n-1].last = col
			continue
		}
		spans = append(spans, colSpan{first: col, last: col, opts: o})
	}
	return spans
}

func (ws *Worksheet) writeCols(w *xw.Writer) {
	spans := ws.columnSpans()
	if len(spans) == 0 {
		return
	}
	w.StartTag("cols")
	for _, s := range spans {
		o := s.opts
		width := DefaultColumnWidth
		custom := false
		if o.width > 0 {
			width = o.width
			custom = true
		}
		written := xmlColumnWidth(width)
		if o.hidden {
			written = 0
			custom = true
		}
		attrs := []xw.Attr{
			xw.Int("min", int(s.first)+1),
			xw.Int("max", int(s.last)+1),
			xw.Float("width", written),
		}
		if o.xf != 0 {
			attrs = append(attrs, xw.Uint("style", uint64(o.xf)))
		}
		if o.hidden {
			attrs = append(attrs, xw.Str("hidden", "1"))
		}
		if o.autofit {
			attrs = append(attrs, xw.Str("bestFit", "1"))
		}
		if custom {
			attrs = append(attrs, xw.Str("customWidth", "1"))
		}
		if o.level > 0 {
			attrs = append(attrs, xw.Int("outlineLevel", int(o.level)))
		}
		if o.collapsed {
			attrs = append(attrs, xw.Str("collapsed", "1"))
		}
		w.EmptyTag("col", attrs...)
	}
	w.EndTag("cols")
}

// rowKeys returns the union of rows holding cells and rows holding
// options, ascending.
func (ws *Worksheet) rowKeys() []RowNum {
	a, b := ws.rows.Keys(), ws.rowOpts.Keys()
	keys := make([]RowNum, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && a[i].(RowNum) < b[j].(RowNum)):
			keys = append(keys, a[i].(RowNum))
			i++
		case i == len(a) || b[j].(RowNum) < a[i].(RowNum):
			keys = append(keys, b[j].(RowNum))
			j++
		default:
			keys = append(keys, a[i].(RowNum))
			i++
			j++
		}
	}
	return keys
}

func (ws *Worksheet) writeSheetData(w *xw.Writer, strs *sst.Table) error {
	keys := ws.rowKeys()
	if len(keys) == 0 {
		w.EmptyTag("sheetData")
		return nil
	}
	filtered := ws.hiddenByFilter()
	w.StartTag("sheetData")
	for _, row := range keys {
		var opts rowOptions
		if v, ok := ws.rowOpts.Get(row); ok {
			opts = *v.(*rowOptions)
		}
		attrs := []xw.Attr{xw.Uint("r", uint64(row)+1)}
		if opts.xf != 0 {
			attrs = append(attrs, xw.Uint("s", uint64(opts.xf)), xw.Str("customFormat", "1"))
		}
		if opts.height > 0 {
			attrs = append(attrs, xw.Float("ht", opts.height), xw.Str("customHeight", "1"))
		}
		if opts.hidden || filtered[row] {
			attrs = append(attrs, xw.Str("hidden", "1"))
		}
		if opts.level > 0 {
			attrs = append(attrs, xw.Int("outlineLevel", int(opts.level)))
		}
		if opts.collapsed {
			attrs = append(attrs, xw.Str("collapsed", "1"))
		}

		v, ok := ws.rows.Get(row)
		if !ok {
			w.EmptyTag("row", attrs...)
			continue
		}
		w.StartTag("row", attrs...)
		it := v.(*treemap.Map).Iterator()
		for it.Next() {
			col := it.Key().(ColNum)
			c := it.Value().(*cell)
			xf := c.xf
			if xf == 0 {
				xf = opts.xf
			}
			if xf == 0 {
				if co, ok := ws.colOpts.Get(col); ok {
					xf = co.(*colOptions).xf
				}
			}
			if !ws.wb.xfs.has(xf) {
				return fmt.Errorf("%w: cell %s uses format %d of %d", ErrReferential, CellName(row, col), xf, ws.wb.xfs.len())
			}
			writeCell(w, strs, CellName(row, col), c, xf)
		}
		w.EndTag("row")
	}
	w.EndTag("sheetData")
	return nil
}

func writeCell(w *xw.Writer, strs *sst.Table, ref string, c *cell, xf uint32) {
	attrs := []xw.Attr{xw.Str("r", ref)}
	if xf != 0 {
		attrs = append(attrs, xw.Uint("s", uint64(xf)))
	}
	switch c.kind {
	case kindNumber:
		w.StartTag("c", attrs...)
		w.DataElement("v", formatNumber(c.number))
	case kindString:
		idx := strs.Intern(xw.StripInvalid(c.text))
		w.StartTag("c", append(attrs, xw.Str("t", "s"))...)
		w.DataElement("v", strconv.FormatUint(uint64(idx), 10))
	case kindRichString:
		idx := strs.InternRich(xw.StripInvalid(c.text))
		w.StartTag("c", append(attrs, xw.Str("t", "s"))...)
		w.DataElement("v", strconv.FormatUint(uint64(idx), 10))
	case kindBoolean:
		w.StartTag("c", append(attrs, xw.Str("t", "b"))...)
		if c.boolean {
			w.DataElement("v", "1")
		} else {
			w.DataElement("v", "0")
		}
	case kindFormula:
		t, v := formulaResult(c.result)
		if t != "" {
			attrs = append(attrs, xw.Str("t", t))
		}
		w.StartTag("c", attrs...)
		w.DataElement("f", xw.StripInvalid(c.text))
		w.DataElement("v", v)
	case kindArrayFormula:
		t, v := formulaResult(c.result)
		if t != "" {
			attrs = append(attrs, xw.Str("t", t))
		}
		if c.dynamic {
			attrs = append(attrs, xw.Str("cm", "1"))
		}
		w.StartTag("c", attrs...)
		w.DataElement("f", xw.StripInvalid(c.text), xw.Str("t", "array"), xw.Str("ref", c.arrayRef))
		w.DataElement("v", v)
	case kindError:
		w.StartTag("c", append(attrs, xw.Str("t", "e"))...)
		w.DataElement("v", c.text)
	default:
		w.EmptyTag("c", attrs...)
		return
	}
	w.EndTag("c")
}

// formulaResult picks the cell type for a cached formula result.
func formulaResult(result string) (string, string) {
	switch {
	case result == "":
		return "", "0"
	case strings.EqualFold(result, "TRUE"):
		return "b", "1"
	case strings.EqualFold(result, "FALSE"):
		return "b", "0"
	case errorValues[result]:
		return "e", result
	}
	if _, err := strconv.ParseFloat(result, 64); err == nil {
		return "", result
	}
	return "str", result
}

func (ws *Worksheet) writeMergeCells(w *xw.Writer) {
	if len(ws.merges) == 0 {
		return
	}
	w.StartTag("mergeCells", xw.Int("count", len(ws.merges)))
	for _, m := range ws.merges {
		w.EmptyTag("mergeCell", xw.Str("ref", m.String()))
	}
	w.EndTag("mergeCells")
}

func (ws *Worksheet) writePrintOptions(w *xw.Writer) {
	p := ws.page
	if !p.gridlines && !p.headings && !p.centerH && !p.centerV {
		return
	}
	var attrs []xw.Attr
	if p.centerH {
		attrs = append(attrs, xw.Str("horizontalCentered", "1"))
	}
	if p.centerV {
		attrs = append(attrs, xw.Str("verticalCentered", "1"))
	}
	if p.headings {
		attrs = append(attrs, xw.Str("headings", "1"))
	}
	if p.gridlines {
		attrs = append(attrs, xw.Str("gridLines", "1"))
	}
	w.EmptyTag("printOptions", attrs...)
}

func (ws *Worksheet) writePageSetup(w *xw.Writer) {
	p := ws.page
	if !p.changed {
		return
	}
	var attrs []xw.Attr
	if p.paperSize != 0 {
		attrs = append(attrs, xw.Int("paperSize", int(p.paperSize)))
	}
	if p.scale != 0 && p.scale != 100 {
		attrs = append(attrs, xw.Int("scale", int(p.scale)))
	}
	if p.fitToPage {
		if p.fitWidth != 1 {
			attrs = append(attrs, xw.Int("fitToWidth", int(p.fitWidth)))
		}
		if p.fitHeight != 1 {
			attrs = append(attrs, xw.Int("fitToHeight", int(p.fitHeight)))
		}
	}
	if p.landscape {
		attrs = append(attrs, xw.Str("orientation", "landscape"))
	} else {
		attrs = append(attrs, xw.Str("orientation", "portrait"))
	}
	w.EmptyTag("pageSetup", attrs...)
}

func (ws *Worksheet) writeHeaderFooter(w *xw.Writer) {
	if ws.header == "" && ws.footer == "" {
		return
	}
	w.StartTag("headerFooter")
	if ws.header != "" {
		w.DataElement("oddHeader", ws.header)
	}
	if ws.footer != "" {
		w.DataElement("oddFooter", ws.footer)
	}
	w.EndTag("headerFooter")
}
