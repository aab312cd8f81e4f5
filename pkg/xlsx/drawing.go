package xlsx

import (
	"strconv"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

const emuPerPixel = 9525

// anchor is a two-cell drawing anchor. Offsets are in EMU.
type anchor struct {
	fromCol    ColNum
	fromColOff uint64
	fromRow    RowNum
	fromRowOff uint64
	toCol      ColNum
	toColOff   uint64
	toRow      RowNum
	toRowOff   uint64

	x, y          uint64
	width, height uint64
}

// anchorFor converts an object placed x, y pixels from (row, col) and
// sized width x height pixels into cell coordinates. Offsets larger than
// a cell move the start cell; hidden rows and columns are skipped.
func (ws *Worksheet) anchorFor(row RowNum, col ColNum, x, y uint32, width, height float64) anchor {
	startCol, x1 := col, x
	for startCol < MaxCols-1 && x1 >= ws.columnPixels(startCol) {
		x1 -= ws.columnPixels(startCol)
		startCol++
	}
	startRow, y1 := row, y
	for startRow < MaxRows-1 && y1 >= ws.rowPixels(startRow) {
		y1 -= ws.rowPixels(startRow)
		startRow++
	}

	w, h := uint32(width+0.5), uint32(height+0.5)
	endCol, x2 := startCol, x1+w
	for endCol < MaxCols-1 && x2 >= ws.columnPixels(endCol) {
		x2 -= ws.columnPixels(endCol)
		endCol++
	}
	endRow, y2 := startRow, y1+h
	for endRow < MaxRows-1 && y2 >= ws.rowPixels(endRow) {
		y2 -= ws.rowPixels(endRow)
		endRow++
	}

	var absX, absY uint64
	for c := ColNum(0); c < startCol; c++ {
		absX += uint64(ws.columnPixels(c))
	}
	for r := RowNum(0); r < startRow; r++ {
		absY += uint64(ws.rowPixels(r))
	}

	return anchor{
		fromCol:    startCol,
		fromColOff: uint64(x1) * emuPerPixel,
		fromRow:    startRow,
		fromRowOff: uint64(y1) * emuPerPixel,
		toCol:      endCol,
		toColOff:   uint64(x2) * emuPerPixel,
		toRow:      endRow,
		toRowOff:   uint64(y2) * emuPerPixel,
		x:          (absX + uint64(x1)) * emuPerPixel,
		y:          (absY + uint64(y1)) * emuPerPixel,
		width:      uint64(w) * emuPerPixel,
		height:     uint64(h) * emuPerPixel,
	}
}

func writeAnchorPoint(w *xw.Writer, tag string, col ColNum, colOff uint64, row RowNum, rowOff uint64) {
	w.StartTag(tag)
	w.DataElement("xdr:col", strconv.Itoa(int(col)))
	w.DataElement("xdr:colOff", strconv.FormatUint(colOff, 10))
	w.DataElement("xdr:row", strconv.FormatUint(uint64(row), 10))
	w.DataElement("xdr:rowOff", strconv.FormatUint(rowOff, 10))
	w.EndTag(tag)
}

// drawingMedia names the media part each placed image resolves to, in
// ws.images order, and the chart part number of each placed chart.
type drawingMedia struct {
	images []string
	charts []int
}

// writeDrawing writes xl/drawings/drawingN.xml for the sheet's images and
// charts, adding their relationships to rels.
func (ws *Worksheet) writeDrawing(w *xw.Writer, media drawingMedia, rels *relationships) {
	w.XMLDeclaration()
	w.StartTag("xdr:wsDr", xw.Str("xmlns:xdr", nsDrawing), xw.Str("xmlns:a", nsDrawingMain))

	shapeID := 2
	for i, p := range ws.images {
		a := ws.anchorFor(p.row, p.col, p.x, p.y, p.image.displayWidth(), p.image.displayHeight())
		rid := rels.add(relImage, "../media/"+media.images[i])
		w.StartTag("xdr:twoCellAnchor", xw.Str("editAs", "oneCell"))
		writeAnchorPoint(w, "xdr:from", a.fromCol, a.fromColOff, a.fromRow, a.fromRowOff)
		writeAnchorPoint(w, "xdr:to", a.toCol, a.toColOff, a.toRow, a.toRowOff)

		w.StartTag("xdr:pic")
		w.StartTag("xdr:nvPicPr")
		attrs := []xw.Attr{xw.Int("id", shapeID), xw.Str("name", "Picture "+strconv.Itoa(i+1))}
		if p.image.altText != "" {
			attrs = append(attrs, xw.Str("descr", p.image.altText))
		}
		w.EmptyTag("xdr:cNvPr", attrs...)
		w.StartTag("xdr:cNvPicPr")
		w.EmptyTag("a:picLocks", xw.Str("noChangeAspect", "1"))
		w.EndTag("xdr:cNvPicPr")
		w.EndTag("xdr:nvPicPr")

		w.StartTag("xdr:blipFill")
		w.EmptyTag("a:blip", xw.Str("xmlns:r", nsRelationships), xw.Str("r:embed", rid))
		w.StartTag("a:stretch")
		w.EmptyTag("a:fillRect")
		w.EndTag("a:stretch")
		w.EndTag("xdr:blipFill")

		w.StartTag("xdr:spPr")
		writeXfrm(w, "a:xfrm", a)
		w.StartTag("a:prstGeom", xw.Str("prst", "rect"))
		w.EmptyTag("a:avLst")
		w.EndTag("a:prstGeom")
		w.EndTag("xdr:spPr")
		w.EndTag("xdr:pic")

		w.EmptyTag("xdr:clientData")
		w.EndTag("xdr:twoCellAnchor")
		shapeID++
	}

	for i, p := range ws.charts {
		a := ws.anchorFor(p.row, p.col, p.x, p.y, float64(p.chart.width), float64(p.chart.height))
		rid := rels.add(relChart, "../charts/chart"+strconv.Itoa(media.charts[i])+".xml")
		w.StartTag("xdr:twoCellAnchor")
		writeAnchorPoint(w, "xdr:from", a.fromCol, a.fromColOff, a.fromRow, a.fromRowOff)
		writeAnchorPoint(w, "xdr:to", a.toCol, a.toColOff, a.toRow, a.toRowOff)

		w.StartTag("xdr:graphicFrame", xw.Str("macro", ""))
		w.StartTag("xdr:nvGraphicFramePr")
		w.EmptyTag("xdr:cNvPr", xw.Int("id", shapeID), xw.Str("name", "Chart "+strconv.Itoa(i+1)))
		w.EmptyTag("xdr:cNvGraphicFramePr")
		w.EndTag("xdr:nvGraphicFramePr")
		writeXfrm(w, "xdr:xfrm", anchor{})
		w.StartTag("a:graphic")
		w.StartTag("a:graphicData", xw.Str("uri", nsChart))
		w.EmptyTag("c:chart", xw.Str("xmlns:c", nsChart), xw.Str("xmlns:r", nsRelationships), xw.Str("r:id", rid))
		w.EndTag("a:graphicData")
		w.EndTag("a:graphic")
		w.EndTag("xdr:graphicFrame")

		w.EmptyTag("xdr:clientData")
		w.EndTag("xdr:twoCellAnchor")
		shapeID++
	}
	w.EndTag("xdr:wsDr")
}

func writeXfrm(w *xw.Writer, tag string, a anchor) {
	w.StartTag(tag)
	w.EmptyTag("a:off", xw.Uint("x", a.x), xw.Uint("y", a.y))
	w.EmptyTag("a:ext", xw.Uint("cx", a.width), xw.Uint("cy", a.height))
	w.EndTag(tag)
}
