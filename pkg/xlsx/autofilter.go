package xlsx

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// FilterOperator is a comparison used by custom filters.
type FilterOperator uint8

const (
	FilterEqual FilterOperator = iota
	FilterNotEqual
	FilterGreaterThan
	FilterGreaterThanOrEqual
	FilterLessThan
	FilterLessThanOrEqual
)

var filterOperatorNames = [...]string{
	"", "notEqual", "greaterThan", "greaterThanOrEqual", "lessThan", "lessThanOrEqual",
}

type customFilter struct {
	op    FilterOperator
	value string
}

// FilterCondition selects the rows an autofilter column shows: either a
// list of values or up to two custom comparisons.
type FilterCondition struct {
	list   []string
	blanks bool
	custom []customFilter
	orJoin bool
}

// NewFilterCondition returns an empty condition.
func NewFilterCondition() FilterCondition {
	return FilterCondition{}
}

// AddListFilter shows rows whose value equals value. An empty value
// matches blank cells.
func (fc FilterCondition) AddListFilter(value string) FilterCondition {
	if value == "" {
		fc.blanks = true
		return fc
	}
	fc.list = append(append([]string(nil), fc.list...), value)
	return fc
}

// AddCustomFilter adds a comparison. A condition holds at most two.
func (fc FilterCondition) AddCustomFilter(op FilterOperator, value any) FilterCondition {
	fc.custom = append(append([]customFilter(nil), fc.custom...), customFilter{op: op, value: fmt.Sprint(value)})
	return fc
}

// SetOr joins two custom filters with OR instead of AND.
func (fc FilterCondition) SetOr() FilterCondition {
	fc.orJoin = true
	return fc
}

func (fc FilterCondition) validate() error {
	switch {
	case len(fc.list) == 0 && !fc.blanks && len(fc.custom) == 0:
		return fmt.Errorf("%w: filter condition is empty", ErrParameter)
	case len(fc.custom) > 2:
		return fmt.Errorf("%w: at most two custom filters per column", ErrParameter)
	case len(fc.custom) > 0 && (len(fc.list) > 0 || fc.blanks):
		return fmt.Errorf("%w: cannot mix list and custom filters", ErrParameter)
	}
	for _, cf := range fc.custom {
		if int(cf.op) >= len(filterOperatorNames) {
			return fmt.Errorf("%w: unknown filter operator %d", ErrParameter, cf.op)
		}
	}
	return nil
}

type autofilter struct {
	area    cellRange
	columns map[ColNum]FilterCondition
}

// Autofilter adds filter buttons to the header row of a range.
func (ws *Worksheet) Autofilter(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum) error {
	r := cellRange{firstRow, firstCol, lastRow, lastCol}
	if err := ws.checkRange(r); err != nil {
		return err
	}
	ws.filter = &autofilter{area: r, columns: make(map[ColNum]FilterCondition)}
	return nil
}

// FilterColumn applies a condition to one column of the autofilter range.
// Rows that fail the condition are saved as hidden, which is what Excel
// itself does when a filter is applied.
func (ws *Worksheet) FilterColumn(col ColNum, cond FilterCondition) error {
	if ws.filter == nil {
		return ws.sheetError(fmt.Errorf("%w: FilterColumn requires Autofilter first", ErrParameter))
	}
	if col < ws.filter.area.firstCol || col > ws.filter.area.lastCol {
		return ws.cellError(ws.filter.area.firstRow, col,
			fmt.Errorf("%w: column outside autofilter range %s", ErrParameter, ws.filter.area))
	}
	if err := cond.validate(); err != nil {
		return ws.cellError(ws.filter.area.firstRow, col, err)
	}
	ws.filter.columns[col] = cond
	return nil
}

// hiddenByFilter returns the data rows that fail the column conditions.
// It only reads the model.
func (ws *Worksheet) hiddenByFilter() map[RowNum]bool {
	if ws.filter == nil || len(ws.filter.columns) == 0 {
		return nil
	}
	hidden := make(map[RowNum]bool)
	a := ws.filter.area
	it := ws.rows.Iterator()
	for it.Next() {
		row := it.Key().(RowNum)
		if row <= a.firstRow || row > a.lastRow {
			continue
		}
		for col, cond := range ws.filter.columns {
			if !cond.matches(ws.cellAt(row, col)) {
				hidden[row] = true
				break
			}
		}
	}
	return hidden
}

func (fc FilterCondition) matches(c *cell) bool {
	text, num, isNum, blank := cellFilterValue(c)
	if len(fc.custom) == 0 {
		if blank {
			return fc.blanks
		}
		for _, v := range fc.list {
			if strings.EqualFold(v, text) {
				return true
			}
		}
		return false
	}
	result := !fc.orJoin
	for _, cf := range fc.custom {
		ok := cf.matches(text, num, isNum, blank)
		if fc.orJoin {
			result = result || ok
		} else {
			result = result && ok
		}
	}
	return result
}

func (cf customFilter) matches(text string, num float64, isNum, blank bool) bool {
	if want, err := strconv.ParseFloat(cf.value, 64); err == nil && isNum {
		switch cf.op {
		case FilterEqual:
			return num == want
		case FilterNotEqual:
			return num != want
		case FilterGreaterThan:
			return num > want
		case FilterGreaterThanOrEqual:
			return num >= want
		case FilterLessThan:
			return num < want
		case FilterLessThanOrEqual:
			return num <= want
		}
		return false
	}
	if blank {
		return cf.op == FilterNotEqual && cf.value != ""
	}
	cmp := strings.Compare(strings.ToLower(text), strings.ToLower(cf.value))
	switch cf.op {
	case FilterEqual:
		return cmp == 0
	case FilterNotEqual:
		return cmp != 0
	case FilterGreaterThan:
		return cmp > 0
	case FilterGreaterThanOrEqual:
		return cmp >= 0
	case FilterLessThan:
		return cmp < 0
	case FilterLessThanOrEqual:
		return cmp <= 0
	}
	return false
}

func cellFilterValue(c *cell) (text string, num float64, isNum, blank bool) {
	if c == nil {
		return "", 0, false, true
	}
	switch c.kind {
	case kindNumber:
		return formatNumber(c.number), c.number, true, false
	case kindString:
		return c.text, 0, false, false
	case kindRichString:
		return c.result, 0, false, false
	case kindBoolean:
		if c.boolean {
			return "TRUE", 1, false, false
		}
		return "FALSE", 0, false, false
	case kindFormula, kindArrayFormula:
		if n, err := strconv.ParseFloat(c.result, 64); err == nil {
			return c.result, n, true, false
		}
		return c.result, 0, false, c.result == ""
	case kindError:
		return c.text, 0, false, false
	}
	return "", 0, false, true
}

func (ws *Worksheet) writeAutofilter(w *xw.Writer) {
	if ws.filter == nil {
		return
	}
	ref := xw.Str("ref", ws.filter.area.String())
	if len(ws.filter.columns) == 0 {
		w.EmptyTag("autoFilter", ref)
		return
	}
	w.StartTag("autoFilter", ref)
	cols := make([]ColNum, 0, len(ws.filter.columns))
	for col := range ws.filter.columns {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	for _, col := range cols {
		cond := ws.filter.columns[col]
		w.StartTag("filterColumn", xw.Int("colId", int(col-ws.filter.area.firstCol)))
		if len(cond.custom) == 0 {
			var attrs []xw.Attr
			if cond.blanks {
				attrs = append(attrs, xw.Str("blank", "1"))
			}
			if len(cond.list) == 0 {
				w.EmptyTag("filters", attrs...)
			} else {
				w.StartTag("filters", attrs...)
				for _, v := range cond.list {
					w.EmptyTag("filter", xw.Str("val", v))
				}
				w.EndTag("filters")
			}
		} else {
			var attrs []xw.Attr
			if len(cond.custom) == 2 && !cond.orJoin {
				attrs = append(attrs, xw.Str("and", "1"))
			}
			w.StartTag("customFilters", attrs...)
			for _, cf := range cond.custom {
				fa := []xw.Attr{}
				if cf.op != FilterEqual {
					fa = append(fa, xw.Str("operator", filterOperatorNames[cf.op]))
				}
				fa = append(fa, xw.Str("val", cf.value))
				w.EmptyTag("customFilter", fa...)
			}
			w.EndTag("customFilters")
		}
		w.EndTag("filterColumn")
	}
	w.EndTag("autoFilter")
}
