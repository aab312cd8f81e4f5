package xlsx

import (
	"fmt"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// CellOperator is the comparison of a cell-value conditional format.
type CellOperator uint8

const (
	CellEqual CellOperator = iota
	CellNotEqual
	CellGreaterThan
	CellGreaterThanOrEqual
	CellLessThan
	CellLessThanOrEqual
	CellBetween
	CellNotBetween
)

var cellOperatorNames = [...]string{
	"equal", "notEqual", "greaterThan", "greaterThanOrEqual",
	"lessThan", "lessThanOrEqual", "between", "notBetween",
}

type condKind uint8

const (
	condCell condKind = iota
	condFormula
	condDataBar
	condTwoColorScale
	condThreeColorScale
)

// ConditionalFormat is a rule that formats cells based on their value.
// Build one with ConditionalCell, ConditionalFormula, ConditionalDataBar,
// ConditionalTwoColorScale or ConditionalThreeColorScale.
type ConditionalFormat struct {
	kind       condKind
	op         CellOperator
	values     []string
	formula    string
	format     Format
	colors     [3]Color
	stopIfTrue bool
}

// ConditionalCell formats cells whose value compares true against values.
// Between and NotBetween take two values; the others take one.
func ConditionalCell(op CellOperator, format Format, values ...any) ConditionalFormat {
	cf := ConditionalFormat{kind: condCell, op: op, format: format}
	for _, v := range values {
		cf.values = append(cf.values, conditionalValue(v))
	}
	return cf
}

// ConditionalFormula formats cells where formula is true. The formula is
// written relative to the top-left cell of the range.
func ConditionalFormula(formula string, format Format) ConditionalFormat {
	return ConditionalFormat{kind: condFormula, formula: stripFormula(formula), format: format}
}

// ConditionalDataBar draws an in-cell bar proportional to the value.
func ConditionalDataBar(c Color) ConditionalFormat {
	if !c.IsSet() {
		c = RGB(0x638EC6)
	}
	return ConditionalFormat{kind: condDataBar, colors: [3]Color{c}}
}

// ConditionalTwoColorScale shades cells between two colours.
func ConditionalTwoColorScale(low, high Color) ConditionalFormat {
	if !low.IsSet() {
		low = RGB(0xFFEF9C)
	}
	if !high.IsSet() {
		high = RGB(0x63BE7B)
	}
	return ConditionalFormat{kind: condTwoColorScale, colors: [3]Color{low, high}}
}

// ConditionalThreeColorScale shades cells across three colours with the
// midpoint at the 50th percentile.
func ConditionalThreeColorScale(low, mid, high Color) ConditionalFormat {
	if !low.IsSet() {
		low = RGB(0xF8696B)
	}
	if !mid.IsSet() {
		mid = RGB(0xFFEB84)
	}
	if !high.IsSet() {
		high = RGB(0x63BE7B)
	}
	return ConditionalFormat{kind: condThreeColorScale, colors: [3]Color{low, mid, high}}
}

// SetStopIfTrue stops lower priority rules once this one matches.
func (cf ConditionalFormat) SetStopIfTrue() ConditionalFormat {
	cf.stopIfTrue = true
	return cf
}

func conditionalValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case Formula:
		return x.text
	case float64:
		return formatNumber(x)
	}
	return fmt.Sprint(v)
}

func (cf ConditionalFormat) validate() error {
	switch cf.kind {
	case condCell:
		want := 1
		if cf.op == CellBetween || cf.op == CellNotBetween {
			want = 2
		}
		if int(cf.op) >= len(cellOperatorNames) {
			return fmt.Errorf("%w: unknown cell operator", ErrParameter)
		}
		if len(cf.values) != want {
			return fmt.Errorf("%w: %s rule needs %d value(s), got %d",
				ErrParameter, cellOperatorNames[cf.op], want, len(cf.values))
		}
	case condFormula:
		if cf.formula == "" {
			return fmt.Errorf("%w: empty conditional formula", ErrParameter)
		}
	}
	return nil
}

func (cf ConditionalFormat) usesDXF() bool {
	return cf.kind == condCell || cf.kind == condFormula
}

type condFormatRange struct {
	area cellRange
	rule ConditionalFormat
	dxf  uint32
}

// AddConditionalFormat applies a rule to a range. Rules added earlier take
// priority over later ones.
func (ws *Worksheet) AddConditionalFormat(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum,
	cf ConditionalFormat) error {
	r := cellRange{firstRow, firstCol, lastRow, lastCol}
	if err := ws.checkRange(r); err != nil {
		return err
	}
	if err := cf.validate(); err != nil {
		return ws.rangeError(r, err)
	}
	entry := &condFormatRange{area: r, rule: cf}
	if cf.usesDXF() {
		entry.dxf = ws.wb.dxfs.register(cf.format)
	}
	ws.condFormats = append(ws.condFormats, entry)
	return nil
}

// writeConditionalFormats emits one <conditionalFormatting> per range in
// insertion order. Priorities run across the whole sheet.
func (ws *Worksheet) writeConditionalFormats(w *xw.Writer) {
	priority := 1
	for _, entry := range ws.condFormats {
		w.StartTag("conditionalFormatting", xw.Str("sqref", entry.area.String()))
		writeCFRule(w, entry, priority)
		w.EndTag("conditionalFormatting")
		priority++
	}
}

func writeCFRule(w *xw.Writer, entry *condFormatRange, priority int) {
	cf := entry.rule
	var attrs []xw.Attr
	switch cf.kind {
	case condCell:
		attrs = append(attrs, xw.Str("type", "cellIs"), xw.Uint("dxfId", uint64(entry.dxf)),
			xw.Int("priority", priority))
		if cf.stopIfTrue {
			attrs = append(attrs, xw.Str("stopIfTrue", "1"))
		}
		attrs = append(attrs, xw.Str("operator", cellOperatorNames[cf.op]))
		w.StartTag("cfRule", attrs...)
		for _, v := range cf.values {
			w.DataElement("formula", v)
		}
	case condFormula:
		attrs = append(attrs, xw.Str("type", "expression"), xw.Uint("dxfId", uint64(entry.dxf)),
			xw.Int("priority", priority))
		if cf.stopIfTrue {
			attrs = append(attrs, xw.Str("stopIfTrue", "1"))
		}
		w.StartTag("cfRule", attrs...)
		w.DataElement("formula", cf.formula)
	case condDataBar:
		w.StartTag("cfRule", xw.Str("type", "dataBar"), xw.Int("priority", priority))
		w.StartTag("dataBar")
		w.EmptyTag("cfvo", xw.Str("type", "min"))
		w.EmptyTag("cfvo", xw.Str("type", "max"))
		w.EmptyTag("color", xw.Str("rgb", cf.colors[0].ARGB()))
		w.EndTag("dataBar")
	case condTwoColorScale, condThreeColorScale:
		w.StartTag("cfRule", xw.Str("type", "colorScale"), xw.Int("priority", priority))
		w.StartTag("colorScale")
		w.EmptyTag("cfvo", xw.Str("type", "min"))
		n := 2
		if cf.kind == condThreeColorScale {
			n = 3
			w.EmptyTag("cfvo", xw.Str("type", "percentile"), xw.Str("val", "50"))
		}
		w.EmptyTag("cfvo", xw.Str("type", "max"))
		for _, c := range cf.colors[:n] {
			w.EmptyTag("color", xw.Str("rgb", c.ARGB()))
		}
		w.EndTag("colorScale")
	}
	w.EndTag("cfRule")
}
