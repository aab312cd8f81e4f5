package xlsx

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// Worksheet is one sheet of a workbook. Create worksheets with
// Workbook.AddWorksheet; a worksheet is not safe for concurrent use.
type Worksheet struct {
	wb    *Workbook
	name  string
	index int

	// rows maps RowNum to *treemap.Map of ColNum to *cell.
	rows    *treemap.Map
	rowOpts *treemap.Map
	colOpts *treemap.Map

	merges      []cellRange
	filter      *autofilter
	tables      []*Table
	images      []*placedImage
	charts      []*placedChart
	condFormats []*condFormatRange
	links       map[cellKey]*hyperlink

	header       string
	footer       string
	headerImages [3]*Image
	footerImages [3]*Image

	page       pageSetup
	view       sheetView
	printArea  *cellRange
	repeatRows *[2]RowNum
	repeatCols *[2]ColNum

	serializer serializerState
}

type cellKey struct {
	row RowNum
	col ColNum
}

func newWorksheet(wb *Workbook, name string, index int) *Worksheet {
	return &Worksheet{
		wb:         wb,
		name:       name,
		index:      index,
		rows:       treemap.NewWith(utils.UInt32Comparator),
		rowOpts:    treemap.NewWith(utils.UInt32Comparator),
		colOpts:    treemap.NewWith(utils.UInt16Comparator),
		links:      make(map[cellKey]*hyperlink),
		page:       defaultPageSetup(),
		serializer: newSerializerState(),
	}
}

// Name returns the worksheet name.
func (ws *Worksheet) Name() string { return ws.name }

// Index returns the zero-based position of the worksheet in its workbook.
func (ws *Worksheet) Index() int { return ws.index }

func checkCell(row RowNum, col ColNum) error {
	if row >= MaxRows || col >= MaxCols {
		return ErrRowColumnLimit
	}
	return nil
}

func (ws *Worksheet) checkRange(r cellRange) error {
	if err := checkCell(r.lastRow, r.lastCol); err != nil {
		return ws.rangeError(r, err)
	}
	if err := checkCell(r.firstRow, r.firstCol); err != nil {
		return ws.rangeError(r, err)
	}
	if r.firstRow > r.lastRow || r.firstCol > r.lastCol {
		return ws.rangeError(r, fmt.Errorf("%w: first cell must precede last cell", ErrParameter))
	}
	return nil
}

func (ws *Worksheet) cellAt(row RowNum, col ColNum) *cell {
	cells, ok := ws.rows.Get(row)
	if !ok {
		return nil
	}
	c, ok := cells.(*treemap.Map).Get(col)
	if !ok {
		return nil
	}
	return c.(*cell)
}

func (ws *Worksheet) putCell(row RowNum, col ColNum, c *cell) {
	cells, ok := ws.rows.Get(row)
	if !ok {
		m := treemap.NewWith(utils.UInt16Comparator)
		ws.rows.Put(row, m)
		cells = m
	}
	cells.(*treemap.Map).Put(col, c)
}

func (ws *Worksheet) removeCell(row RowNum, col ColNum) {
	cells, ok := ws.rows.Get(row)
	if !ok {
		return
	}
	m := cells.(*treemap.Map)
	m.Remove(col)
	if m.Empty() {
		ws.rows.Remove(row)
	}
}

// inheritedFormat returns the format a write without an explicit format
// should keep: one previously set with SetCellFormat.
func (ws *Worksheet) inheritedFormat(row RowNum, col ColNum) (uint32, bool) {
	if old := ws.cellAt(row, col); old != nil && old.sticky {
		return old.xf, true
	}
	return 0, false
}

// store validates and places c. A nil format keeps a sticky cell format.
func (ws *Worksheet) store(row RowNum, col ColNum, c *cell, f *Format) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	if f != nil {
		c.xf = ws.wb.xfs.register(*f)
	} else if xf, ok := ws.inheritedFormat(row, col); ok {
		c.xf = xf
		c.sticky = true
	}
	ws.putCell(row, col, c)
	return nil
}

func firstFormat(formats []Format) *Format {
	if len(formats) == 0 {
		return nil
	}
	f := formats[0]
	return &f
}

// Write stores value at (row, col), choosing the cell type from the Go
// type: numbers, strings, bools, time.Time, Formula, URL, []RichRun and
// fmt.Stringer are accepted. A nil value is ignored.
func (ws *Worksheet) Write(row RowNum, col ColNum, value any) error {
	return ws.write(row, col, value, nil)
}

// WriteWithFormat is Write with an explicit cell format.
func (ws *Worksheet) WriteWithFormat(row RowNum, col ColNum, value any, format Format) error {
	return ws.write(row, col, value, &format)
}

func (ws *Worksheet) write(row RowNum, col ColNum, value any, f *Format) error {
	switch v := value.(type) {
	case nil:
		if f != nil {
			return ws.writeBlank(row, col, *f)
		}
		if err := checkCell(row, col); err != nil {
			return ws.cellError(row, col, err)
		}
		return nil
	case string:
		return ws.writeString(row, col, v, f)
	case []byte:
		return ws.writeString(row, col, string(v), f)
	case bool:
		return ws.writeBoolean(row, col, v, f)
	case float64:
		return ws.writeNumber(row, col, v, f)
	case float32:
		return ws.writeNumber(row, col, float64(v), f)
	case int:
		return ws.writeNumber(row, col, float64(v), f)
	case int8:
		return ws.writeNumber(row, col, float64(v), f)
	case int16:
		return ws.writeNumber(row, col, float64(v), f)
	case int32:
		return ws.writeNumber(row, col, float64(v), f)
	case int64:
		return ws.writeNumber(row, col, float64(v), f)
	case uint:
		return ws.writeNumber(row, col, float64(v), f)
	case uint8:
		return ws.writeNumber(row, col, float64(v), f)
	case uint16:
		return ws.writeNumber(row, col, float64(v), f)
	case uint32:
		return ws.writeNumber(row, col, float64(v), f)
	case uint64:
		return ws.writeNumber(row, col, float64(v), f)
	case time.Time:
		return ws.writeDateTime(row, col, v, f)
	case *time.Time:
		if v == nil {
			return ws.write(row, col, nil, f)
		}
		return ws.writeDateTime(row, col, *v, f)
	case Formula:
		return ws.writeFormula(row, col, v, f)
	case URL:
		return ws.writeURL(row, col, v, f)
	case []RichRun:
		return ws.writeRichString(row, col, v, f)
	case fmt.Stringer:
		return ws.writeString(row, col, v.String(), f)
	}
	return ws.cellError(row, col, fmt.Errorf("%w: cannot write value of type %T", ErrParameter, value))
}

// WriteNumber writes a number. NaN and infinities are rejected.
func (ws *Worksheet) WriteNumber(row RowNum, col ColNum, n float64, format ...Format) error {
	return ws.writeNumber(row, col, n, firstFormat(format))
}

func (ws *Worksheet) writeNumber(row RowNum, col ColNum, n float64, f *Format) error {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return ws.cellError(row, col, ErrNumberNotFinite)
	}
	return ws.store(row, col, &cell{kind: kindNumber, number: n}, f)
}

// WriteString writes a string. An empty string leaves a formatted blank,
// or clears the cell when there is no format to keep.
func (ws *Worksheet) WriteString(row RowNum, col ColNum, s string, format ...Format) error {
	return ws.writeString(row, col, s, firstFormat(format))
}

func (ws *Worksheet) writeString(row RowNum, col ColNum, s string, f *Format) error {
	if !utf8.ValidString(s) {
		return ws.cellError(row, col, errInvalidUTF8)
	}
	if utf8.RuneCountInString(s) > MaxStringLen {
		return ws.cellError(row, col, ErrMaxStringLength)
	}
	if s == "" {
		if f != nil && !f.IsDefault() {
			return ws.writeBlank(row, col, *f)
		}
		if err := checkCell(row, col); err != nil {
			return ws.cellError(row, col, err)
		}
		if _, ok := ws.inheritedFormat(row, col); ok {
			return ws.store(row, col, &cell{kind: kindBlank}, nil)
		}
		ws.removeCell(row, col)
		return nil
	}
	return ws.store(row, col, &cell{kind: kindString, text: s}, f)
}

// WriteBoolean writes TRUE or FALSE.
func (ws *Worksheet) WriteBoolean(row RowNum, col ColNum, b bool, format ...Format) error {
	return ws.writeBoolean(row, col, b, firstFormat(format))
}

func (ws *Worksheet) writeBoolean(row RowNum, col ColNum, b bool, f *Format) error {
	return ws.store(row, col, &cell{kind: kindBoolean, boolean: b}, f)
}

// WriteBlank writes an empty cell carrying format. Blank cells exist only
// to hold formatting, so a default format makes this a no-op.
func (ws *Worksheet) WriteBlank(row RowNum, col ColNum, format Format) error {
	return ws.writeBlank(row, col, format)
}

func (ws *Worksheet) writeBlank(row RowNum, col ColNum, f Format) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	if f.IsDefault() {
		return nil
	}
	return ws.store(row, col, &cell{kind: kindBlank}, &f)
}

// WriteDateTime writes t as an Excel serial date. Without a format the
// workbook's default date-time format is applied.
func (ws *Worksheet) WriteDateTime(row RowNum, col ColNum, t time.Time, format ...Format) error {
	return ws.writeDateTime(row, col, t, firstFormat(format))
}

func (ws *Worksheet) writeDateTime(row RowNum, col ColNum, t time.Time, f *Format) error {
	if f == nil {
		if _, ok := ws.inheritedFormat(row, col); !ok {
			def := NewFormat().SetNumFormat(ws.wb.dateTimeFormat)
			f = &def
		}
	}
	return ws.store(row, col, &cell{kind: kindNumber, number: ExcelSerial(t)}, f)
}

// Error values accepted by WriteError.
var errorValues = map[string]bool{
	"#NULL!": true, "#DIV/0!": true, "#VALUE!": true, "#REF!": true,
	"#NAME?": true, "#NUM!": true, "#N/A": true, "#GETTING_DATA": true,
}

// WriteError writes an error value such as "#N/A".
func (ws *Worksheet) WriteError(row RowNum, col ColNum, value string, format ...Format) error {
	if !errorValues[value] {
		return ws.cellError(row, col, fmt.Errorf("%w: unknown error value %q", ErrParameter, value))
	}
	return ws.store(row, col, &cell{kind: kindError, text: value}, firstFormat(format))
}

// Formula is a formula with an optional cached result. Formulas are
// stored as text; nothing evaluates them.
type Formula struct {
	text   string
	result string
}

// NewFormula builds a formula. A leading "=" is optional.
func NewFormula(text string) Formula {
	return Formula{text: stripFormula(text)}
}

// SetResult sets the value a reader shows before recalculating.
func (f Formula) SetResult(result string) Formula {
	f.result = result
	return f
}

// Text returns the formula without its leading "=".
func (f Formula) Text() string { return f.text }

func stripFormula(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	return strings.TrimPrefix(s, "=")
}

// WriteFormula writes a formula with a cached result of 0.
func (ws *Worksheet) WriteFormula(row RowNum, col ColNum, formula string, format ...Format) error {
	return ws.writeFormula(row, col, NewFormula(formula), firstFormat(format))
}

// WriteFormulaWithResult writes a formula and the result readers display
// until the sheet is recalculated.
func (ws *Worksheet) WriteFormulaWithResult(row RowNum, col ColNum, formula, result string, format ...Format) error {
	return ws.writeFormula(row, col, NewFormula(formula).SetResult(result), firstFormat(format))
}

func (ws *Worksheet) writeFormula(row RowNum, col ColNum, f Formula, format *Format) error {
	if f.text == "" {
		return ws.cellError(row, col, fmt.Errorf("%w: empty formula", ErrParameter))
	}
	if !utf8.ValidString(f.text) || !utf8.ValidString(f.result) {
		return ws.cellError(row, col, errInvalidUTF8)
	}
	return ws.store(row, col, &cell{kind: kindFormula, text: f.text, result: f.result}, format)
}

// WriteArrayFormula writes a CSE array formula over a range. The other
// cells of the range are filled with formatted zeros.
func (ws *Worksheet) WriteArrayFormula(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum,
	formula string, format ...Format) error {
	return ws.writeArrayFormula(cellRange{firstRow, firstCol, lastRow, lastCol}, formula, false, firstFormat(format))
}

// WriteDynamicArrayFormula writes a dynamic (spilling) array formula.
func (ws *Worksheet) WriteDynamicArrayFormula(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum,
	formula string, format ...Format) error {
	return ws.writeArrayFormula(cellRange{firstRow, firstCol, lastRow, lastCol}, formula, true, firstFormat(format))
}

func (ws *Worksheet) writeArrayFormula(r cellRange, formula string, dynamic bool, f *Format) error {
	if err := ws.checkRange(r); err != nil {
		return err
	}
	text := stripFormula(formula)
	if text == "" {
		return ws.rangeError(r, fmt.Errorf("%w: empty formula", ErrParameter))
	}
	if !utf8.ValidString(text) {
		return ws.rangeError(r, errInvalidUTF8)
	}
	c := &cell{kind: kindArrayFormula, text: text, arrayRef: r.String(), dynamic: dynamic}
	if err := ws.store(r.firstRow, r.firstCol, c, f); err != nil {
		return err
	}
	for row := r.firstRow; row <= r.lastRow; row++ {
		for col := r.firstCol; col <= r.lastCol; col++ {
			if row == r.firstRow && col == r.firstCol {
				continue
			}
			if err := ws.store(row, col, &cell{kind: kindNumber}, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// RichRun is one formatted fragment of a rich string.
type RichRun struct {
	Format Format
	Text   string
}

// WriteRichString writes a string made of differently formatted runs.
func (ws *Worksheet) WriteRichString(row RowNum, col ColNum, runs []RichRun, format ...Format) error {
	return ws.writeRichString(row, col, runs, firstFormat(format))
}

func (ws *Worksheet) writeRichString(row RowNum, col ColNum, runs []RichRun, f *Format) error {
	if len(runs) == 0 {
		return ws.cellError(row, col, fmt.Errorf("%w: rich string needs at least one run", ErrParameter))
	}
	var plain strings.Builder
	w := xw.New()
	for _, run := range runs {
		if run.Text == "" {
			return ws.cellError(row, col, fmt.Errorf("%w: rich string runs cannot be empty", ErrParameter))
		}
		if !utf8.ValidString(run.Text) {
			return ws.cellError(row, col, errInvalidUTF8)
		}
		plain.WriteString(run.Text)
		w.StartTag("r")
		if !run.Format.IsDefault() {
			writeFont(w, "rPr", run.Format.font)
		}
		if preserveSpace(run.Text) {
			w.DataElement("t", run.Text, xw.Str("xml:space", "preserve"))
		} else {
			w.DataElement("t", run.Text)
		}
		w.EndTag("r")
	}
	if utf8.RuneCountInString(plain.String()) > MaxStringLen {
		return ws.cellError(row, col, ErrMaxStringLength)
	}
	return ws.store(row, col, &cell{kind: kindRichString, text: w.String(), result: plain.String()}, f)
}

func preserveSpace(s string) bool {
	return strings.TrimSpace(s) != s || strings.Contains(s, "\n")
}

// WriteRow writes values left to right starting at (row, col).
func (ws *Worksheet) WriteRow(row RowNum, col ColNum, values []any, format ...Format) error {
	f := firstFormat(format)
	for i, v := range values {
		c := int(col) + i
		if c >= int(MaxCols) {
			return ws.cellError(row, MaxCols-1, ErrRowColumnLimit)
		}
		if err := ws.write(row, ColNum(c), v, f); err != nil {
			return err
		}
	}
	return nil
}

// WriteColumn writes values top to bottom starting at (row, col).
func (ws *Worksheet) WriteColumn(row RowNum, col ColNum, values []any, format ...Format) error {
	f := firstFormat(format)
	for i, v := range values {
		r := uint64(row) + uint64(i)
		if r >= uint64(MaxRows) {
			return ws.cellError(MaxRows-1, col, ErrRowColumnLimit)
		}
		if err := ws.write(RowNum(r), col, v, f); err != nil {
			return err
		}
	}
	return nil
}

// SetCellFormat sets the format of a cell. The format sticks: later
// writes to the cell without a format keep it. A cell that does not exist
// yet is created as a formatted blank.
func (ws *Worksheet) SetCellFormat(row RowNum, col ColNum, format Format) error {
	if err := checkCell(row, col); err != nil {
		return ws.cellError(row, col, err)
	}
	xf := ws.wb.xfs.register(format)
	if c := ws.cellAt(row, col); c != nil {
		c.xf = xf
		c.sticky = xf != 0
		return nil
	}
	if xf == 0 {
		return nil
	}
	ws.putCell(row, col, &cell{kind: kindBlank, xf: xf, sticky: true})
	return nil
}
