package xlsx

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default cell dimensions.
const (
	DefaultColumnWidth   = 8.43
	DefaultRowHeight     = 15.0
	defaultColumnPixels  = 64
	defaultRowPixels     = 20
	maxColumnWidth       = 255.0
	maxRowHeight         = 409.0
	maxOutlineLevel      = 7
	autofitMaxPixels     = 1790
	autofitPaddingPixels = 7
)

type rowOptions struct {
	height    float64
	xf        uint32
	hidden    bool
	level     uint8
	collapsed bool
}

type colOptions struct {
	width     float64
	xf        uint32
	hidden    bool
	level     uint8
	collapsed bool
	autofit   bool
}

func (ws *Worksheet) rowOptions(row RowNum) *rowOptions {
	if v, ok := ws.rowOpts.Get(row); ok {
		return v.(*rowOptions)
	}
	o := &rowOptions{}
	ws.rowOpts.Put(row, o)
	return o
}

func (ws *Worksheet) colOptions(col ColNum) *colOptions {
	if v, ok := ws.colOpts.Get(col); ok {
		return v.(*colOptions)
	}
	o := &colOptions{}
	ws.colOpts.Put(col, o)
	return o
}

func (ws *Worksheet) checkRow(row RowNum) error {
	if row >= MaxRows {
		return ws.cellError(row, 0, ErrRowColumnLimit)
	}
	return nil
}

func (ws *Worksheet) checkCol(col ColNum) error {
	if col >= MaxCols {
		return ws.cellError(0, col, ErrRowColumnLimit)
	}
	return nil
}

// SetRowHeight sets a row height in points. A height of 0 hides the row.
func (ws *Worksheet) SetRowHeight(row RowNum, height float64) error {
	if err := ws.checkRow(row); err != nil {
		return err
	}
	if height < 0 || height > maxRowHeight {
		return ws.cellError(row, 0, fmt.Errorf("%w: row height %g outside 0-409", ErrParameter, height))
	}
	o := ws.rowOptions(row)
	if height == 0 {
		o.hidden = true
		return nil
	}
	o.height = height
	return nil
}

// SetRowHeightPixels sets a row height in pixels.
func (ws *Worksheet) SetRowHeightPixels(row RowNum, px uint16) error {
	return ws.SetRowHeight(row, float64(px)*0.75)
}

// SetRowFormat sets the format applied to unformatted cells in the row.
func (ws *Worksheet) SetRowFormat(row RowNum, format Format) error {
	if err := ws.checkRow(row); err != nil {
		return err
	}
	ws.rowOptions(row).xf = ws.wb.xfs.register(format)
	return nil
}

// SetRowHidden hides a row.
func (ws *Worksheet) SetRowHidden(row RowNum) error {
	if err := ws.checkRow(row); err != nil {
		return err
	}
	ws.rowOptions(row).hidden = true
	return nil
}

// GroupRows adds an outline level to rows first..last.
func (ws *Worksheet) GroupRows(first, last RowNum) error {
	return ws.groupRows(first, last, false)
}

// GroupRowsCollapsed groups and hides rows first..last, marking the row
// below them as the collapsed summary row.
func (ws *Worksheet) GroupRowsCollapsed(first, last RowNum) error {
	return ws.groupRows(first, last, true)
}

func (ws *Worksheet) groupRows(first, last RowNum, collapsed bool) error {
	if err := ws.checkRow(last); err != nil {
		return err
	}
	if first > last {
		return ws.cellError(first, 0, fmt.Errorf("%w: first row after last row", ErrParameter))
	}
	for row := first; row <= last; row++ {
		if o, ok := ws.rowOpts.Get(row); ok && o.(*rowOptions).level >= maxOutlineLevel {
			return ws.cellError(row, 0, fmt.Errorf("%w: outline level exceeds %d", ErrParameter, maxOutlineLevel))
		}
	}
	for row := first; row <= last; row++ {
		o := ws.rowOptions(row)
		o.level++
		if collapsed {
			o.hidden = true
		}
	}
	if collapsed && last+1 < MaxRows {
		ws.rowOptions(last + 1).collapsed = true
	}
	return nil
}

// SetColumnWidth sets a column width in character units.
func (ws *Worksheet) SetColumnWidth(col ColNum, width float64) error {
	if err := ws.checkCol(col); err != nil {
		return err
	}
	if width < 0 || width > maxColumnWidth {
		return ws.cellError(0, col, fmt.Errorf("%w: column width %g outside 0-255", ErrParameter, width))
	}
	o := ws.colOptions(col)
	if width == 0 {
		o.hidden = true
		return nil
	}
	o.width = width
	return nil
}

// SetColumnWidthPixels sets a column width in pixels.
func (ws *Worksheet) SetColumnWidthPixels(col ColNum, px uint16) error {
	return ws.SetColumnWidth(col, pixelsToWidth(uint32(px)))
}

// SetColumnFormat sets the format applied to unformatted cells in the column.
func (ws *Worksheet) SetColumnFormat(col ColNum, format Format) error {
	if err := ws.checkCol(col); err != nil {
		return err
	}
	ws.colOptions(col).xf = ws.wb.xfs.register(format)
	return nil
}

// SetColumnHidden hides a column.
func (ws *Worksheet) SetColumnHidden(col ColNum) error {
	if err := ws.checkCol(col); err != nil {
		return err
	}
	ws.colOptions(col).hidden = true
	return nil
}

// GroupColumns adds an outline level to columns first..last.
func (ws *Worksheet) GroupColumns(first, last ColNum) error {
	return ws.groupColumns(first, last, false)
}

// GroupColumnsCollapsed groups and hides columns first..last.
func (ws *Worksheet) GroupColumnsCollapsed(first, last ColNum) error {
	return ws.groupColumns(first, last, true)
}

func (ws *Worksheet) groupColumns(first, last ColNum, collapsed bool) error {
	if err := ws.checkCol(last); err != nil {
		return err
	}
	if first > last {
		return ws.cellError(0, first, fmt.Errorf("%w: first column after last column", ErrParameter))
	}
	for col := first; col <= last; col++ {
		if o, ok := ws.colOpts.Get(col); ok && o.(*colOptions).level >= maxOutlineLevel {
			return ws.cellError(0, col, fmt.Errorf("%w: outline level exceeds %d", ErrParameter, maxOutlineLevel))
		}
	}
	for col := first; col <= last; col++ {
		o := ws.colOptions(col)
		o.level++
		if collapsed {
			o.hidden = true
		}
	}
	if collapsed && last+1 < MaxCols {
		ws.colOptions(last + 1).collapsed = true
	}
	return nil
}

// widthToPixels converts a width in characters to pixels using the
// default 7px maximum digit width and 5px padding.
func widthToPixels(width float64) uint32 {
	if width < 1 {
		return uint32(width*12 + 0.5)
	}
	return uint32(width*7+0.5) + 5
}

func pixelsToWidth(px uint32) float64 {
	if px <= 12 {
		return float64(px) / 12
	}
	return float64(px-5) / 7
}

// xmlColumnWidth is the width value Excel stores, which includes the
// cell padding.
func xmlColumnWidth(width float64) float64 {
	px := float64(widthToPixels(width))
	return float64(int(px/7*256)) / 256
}

func (ws *Worksheet) columnPixels(col ColNum) uint32 {
	v, ok := ws.colOpts.Get(col)
	if !ok {
		return defaultColumnPixels
	}
	o := v.(*colOptions)
	switch {
	case o.hidden:
		return 0
	case o.width > 0:
		return widthToPixels(o.width)
	}
	return defaultColumnPixels
}

func (ws *Worksheet) rowPixels(row RowNum) uint32 {
	v, ok := ws.rowOpts.Get(row)
	if !ok {
		return defaultRowPixels
	}
	o := v.(*rowOptions)
	switch {
	case o.hidden:
		return 0
	case o.height > 0:
		return uint32(o.height * 4 / 3)
	}
	return defaultRowPixels
}

// MergeRange merges a range and writes text into its top-left cell. The
// remaining cells are filled with formatted blanks so borders render.
func (ws *Worksheet) MergeRange(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum,
	text string, format Format) error {
	r := cellRange{firstRow, firstCol, lastRow, lastCol}
	if err := ws.checkRange(r); err != nil {
		return err
	}
	if r.single() {
		return ws.rangeError(r, ErrMergeSingleCell)
	}
	for _, m := range ws.merges {
		if m.overlaps(r) {
			return ws.rangeError(r, fmt.Errorf("%w: %s", ErrMergeOverlap, m))
		}
	}
	if err := ws.writeString(firstRow, firstCol, text, &format); err != nil {
		return err
	}
	for row := firstRow; row <= lastRow; row++ {
		for col := firstCol; col <= lastCol; col++ {
			if row == firstRow && col == firstCol {
				continue
			}
			if err := ws.writeBlank(row, col, format); err != nil {
				return err
			}
		}
	}
	ws.merges = append(ws.merges, r)
	return nil
}

type sheetView struct {
	freezeRow RowNum
	freezeCol ColNum
	zoom      uint16
	tabColor  Color
	hidden    bool
	noGrid    bool
}

// FreezePanes freezes the rows above row and the columns left of col.
func (ws *Worksheet) FreezePanes(row RowNum, col ColNum) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	ws.view.freezeRow = row
	ws.view.freezeCol = col
	return nil
}

// SetZoom sets the view zoom percentage, 10 to 400.
func (ws *Worksheet) SetZoom(zoom uint16) error {
	if zoom < 10 || zoom > 400 {
		return ws.sheetError(fmt.Errorf("%w: zoom %d outside 10-400", ErrParameter, zoom))
	}
	ws.view.zoom = zoom
	return nil
}

// SetTabColor sets the colour of the worksheet tab.
func (ws *Worksheet) SetTabColor(c Color) {
	ws.view.tabColor = c
}

// SetHidden hides the worksheet. The active worksheet cannot be hidden
// and is left visible.
func (ws *Worksheet) SetHidden(hidden bool) {
	ws.view.hidden = hidden
}

// HideGridlines hides the screen gridlines.
func (ws *Worksheet) HideGridlines() {
	ws.view.noGrid = true
}

// SetActive makes this the worksheet shown when the file opens.
func (ws *Worksheet) SetActive() {
	ws.wb.activeSheet = ws.index
}

type pageSetup struct {
	landscape bool
	paperSize uint8
	scale     uint16
	fitWidth  uint16
	fitHeight uint16
	fitToPage bool
	margins   [6]float64
	gridlines bool
	headings  bool
	centerH   bool
	centerV   bool
	changed   bool
}

var defaultMargins = [6]float64{0.7, 0.7, 0.75, 0.75, 0.3, 0.3}

func defaultPageSetup() pageSetup {
	return pageSetup{margins: defaultMargins}
}

// SetLandscape sets landscape orientation.
func (ws *Worksheet) SetLandscape() {
	ws.page.landscape = true
	ws.page.changed = true
}

// SetPortrait sets portrait orientation, the default.
func (ws *Worksheet) SetPortrait() {
	ws.page.landscape = false
	ws.page.changed = true
}

// SetPaperSize sets the printer paper size index (1 = Letter, 9 = A4).
func (ws *Worksheet) SetPaperSize(size uint8) {
	ws.page.paperSize = size
	ws.page.changed = true
}

// SetPrintScale sets the print scale percentage, 10 to 400.
func (ws *Worksheet) SetPrintScale(scale uint16) error {
	if scale < 10 || scale > 400 {
		return ws.sheetError(fmt.Errorf("%w: print scale %d outside 10-400", ErrParameter, scale))
	}
	ws.page.scale = scale
	ws.page.changed = true
	return nil
}

// SetPrintFitToPages fits the printout to width x height pages. Zero
// means "as many as needed" in that direction.
func (ws *Worksheet) SetPrintFitToPages(width, height uint16) {
	ws.page.fitWidth = width
	ws.page.fitHeight = height
	ws.page.fitToPage = true
	ws.page.changed = true
}

// SetMargins sets page margins in inches. Negative values keep the default.
func (ws *Worksheet) SetMargins(left, right, top, bottom, header, footer float64) {
	for i, v := range []float64{left, right, top, bottom, header, footer} {
		if v >= 0 {
			ws.page.margins[i] = v
		}
	}
}

func (ws *Worksheet) SetPrintGridlines(enable bool) { ws.page.gridlines = enable }

func (ws *Worksheet) SetPrintHeadings(enable bool) { ws.page.headings = enable }

func (ws *Worksheet) SetPrintCenterHorizontally(enable bool) { ws.page.centerH = enable }

func (ws *Worksheet) SetPrintCenterVertically(enable bool) { ws.page.centerV = enable }

// SetPrintArea limits printing to a range.
func (ws *Worksheet) SetPrintArea(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum) error {
	r := cellRange{firstRow, firstCol, lastRow, lastCol}
	if err := ws.checkRange(r); err != nil {
		return err
	}
	ws.printArea = &r
	return nil
}

// SetRepeatRows repeats rows first..last at the top of each printed page.
func (ws *Worksheet) SetRepeatRows(first, last RowNum) error {
	if err := ws.checkRow(last); err != nil {
		return err
	}
	if first > last {
		return ws.cellError(first, 0, fmt.Errorf("%w: first row after last row", ErrParameter))
	}
	ws.repeatRows = &[2]RowNum{first, last}
	return nil
}

// SetRepeatColumns repeats columns first..last on the left of each page.
func (ws *Worksheet) SetRepeatColumns(first, last ColNum) error {
	if err := ws.checkCol(last); err != nil {
		return err
	}
	if first > last {
		return ws.cellError(0, first, fmt.Errorf("%w: first column after last column", ErrParameter))
	}
	ws.repeatCols = &[2]ColNum{first, last}
	return nil
}

// printAreaRef renders the print area, collapsing full rows or columns
// to $1:$2 / $A:$B form.
func (ws *Worksheet) printAreaRef() string {
	r := *ws.printArea
	sheet := quoteSheetName(ws.name)
	switch {
	case r.firstRow == 0 && r.lastRow == MaxRows-1 && r.firstCol == 0 && r.lastCol == MaxCols-1:
		return sheet + "!$1:$1048576"
	case r.firstRow == 0 && r.lastRow == MaxRows-1:
		return fmt.Sprintf("%s!$%s:$%s", sheet, ColumnName(r.firstCol), ColumnName(r.lastCol))
	case r.firstCol == 0 && r.lastCol == MaxCols-1:
		return fmt.Sprintf("%s!$%d:$%d", sheet, r.firstRow+1, r.lastRow+1)
	}
	return sheet + "!" + r.absolute()
}

func (ws *Worksheet) printTitlesRef() string {
	sheet := quoteSheetName(ws.name)
	var parts []string
	if ws.repeatCols != nil {
		parts = append(parts, fmt.Sprintf("%s!$%s:$%s", sheet,
			ColumnName(ws.repeatCols[0]), ColumnName(ws.repeatCols[1])))
	}
	if ws.repeatRows != nil {
		parts = append(parts, fmt.Sprintf("%s!$%d:$%d", sheet, ws.repeatRows[0]+1, ws.repeatRows[1]+1))
	}
	return strings.Join(parts, ",")
}

// SetHeader sets the printed page header using Excel's &-codes, for
// example "&CPage &P of &N". Use &G where a header image goes.
func (ws *Worksheet) SetHeader(header string) error {
	if utf8.RuneCountInString(header) > 255 {
		return ws.sheetError(fmt.Errorf("%w: header longer than 255 characters", ErrParameter))
	}
	ws.header = header
	return nil
}

// SetFooter sets the printed page footer.
func (ws *Worksheet) SetFooter(footer string) error {
	if utf8.RuneCountInString(footer) > 255 {
		return ws.sheetError(fmt.Errorf("%w: footer longer than 255 characters", ErrParameter))
	}
	ws.footer = footer
	return nil
}

// Autofit widens columns to fit the text written so far. Widths are
// estimated from character counts, so results are approximate.
func (ws *Worksheet) Autofit() {
	widths := make(map[ColNum]uint32)
	ws.eachCell(func(_ RowNum, col ColNum, c *cell) {
		px := ws.displayPixels(c)
		if px > widths[col] {
			widths[col] = px
		}
	})
	for col, px := range widths {
		if px == 0 {
			continue
		}
		px += autofitPaddingPixels
		if px > autofitMaxPixels {
			px = autofitMaxPixels
		}
		if px <= ws.columnPixels(col) {
			continue
		}
		o := ws.colOptions(col)
		o.width = pixelsToWidth(px)
		o.autofit = true
	}
}

func (ws *Worksheet) displayPixels(c *cell) uint32 {
	var s string
	switch c.kind {
	case kindString:
		s = c.text
	case kindRichString:
		s = c.result
	case kindNumber:
		s = formatNumber(c.number)
		if f := ws.wb.xfs.at(c.xf); f.numFormat != "" && len(f.numFormat) > len(s) {
			s = f.numFormat
		}
	case kindBoolean:
		if c.boolean {
			s = "TRUE"
		} else {
			s = "FALSE"
		}
	case kindFormula, kindArrayFormula:
		s = c.result
	case kindError:
		s = c.text
	}
	var widest uint32
	for _, line := range strings.Split(s, "\n") {
		var px uint32
		for _, r := range line {
			px += charPixels(r)
		}
		if px > widest {
			widest = px
		}
	}
	return widest
}

// charPixels approximates glyph widths of 11pt Calibri.
func charPixels(r rune) uint32 {
	switch {
	case strings.ContainsRune("iljI.,;:'!|`", r):
		return 3
	case strings.ContainsRune("frt()[]{}\"/\\- ", r):
		return 5
	case strings.ContainsRune("mwMW@%", r):
		return 11
	case r >= 'A' && r <= 'Z':
		return 8
	case r > 0x2E80:
		return 14
	}
	return 7
}
