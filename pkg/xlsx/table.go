package xlsx

import (
	"fmt"
	"strconv"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// Table is an Excel table (a "ListObject") over a worksheet range.
type Table struct {
	name       string
	style      string
	headers    []string
	noHeader   bool
	noFilter   bool
	bandedRows bool
	bandedCols bool
	firstCol   bool
	lastCol    bool

	area    cellRange
	columns []string
}

// NewTable returns a table with a header row, autofilter buttons and the
// default banded style.
func NewTable() *Table {
	return &Table{style: "TableStyleMedium9", bandedRows: true}
}

// SetName sets the table name. Names default to Table1, Table2, ...
func (t *Table) SetName(name string) *Table {
	t.name = name
	return t
}

// SetStyle sets a built-in style name such as "TableStyleLight11".
func (t *Table) SetStyle(style string) *Table {
	t.style = style
	return t
}

// SetColumnHeaders sets the header captions, left to right. Columns without
// a caption take the text already in the header cell, or ColumnN.
func (t *Table) SetColumnHeaders(headers ...string) *Table {
	t.headers = append([]string(nil), headers...)
	return t
}

// SetHeaderRow turns the header row on or off.
func (t *Table) SetHeaderRow(enable bool) *Table {
	t.noHeader = !enable
	return t
}

// SetAutofilter turns the header filter buttons on or off.
func (t *Table) SetAutofilter(enable bool) *Table {
	t.noFilter = !enable
	return t
}

func (t *Table) SetBandedRows(enable bool) *Table {
	t.bandedRows = enable
	return t
}

func (t *Table) SetBandedColumns(enable bool) *Table {
	t.bandedCols = enable
	return t
}

func (t *Table) SetFirstColumn(enable bool) *Table {
	t.firstCol = enable
	return t
}

func (t *Table) SetLastColumn(enable bool) *Table {
	t.lastCol = enable
	return t
}

// AddTable places a table over a range. The header row is the first row
// of the range; header captions are written into it.
func (ws *Worksheet) AddTable(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum, table *Table) error {
	r := cellRange{firstRow, firstCol, lastRow, lastCol}
	if err := ws.checkRange(r); err != nil {
		return err
	}
	if table == nil {
		return ws.rangeError(r, fmt.Errorf("%w: nil table", ErrParameter))
	}
	if !table.noHeader && firstRow == lastRow {
		return ws.rangeError(r, fmt.Errorf("%w: table needs a data row below the header", ErrParameter))
	}
	for _, other := range ws.tables {
		if other.area.overlaps(r) {
			return ws.rangeError(r, fmt.Errorf("%w: %s", ErrTableOverlap, other.area))
		}
	}
	if table.name != "" {
		for _, sheet := range ws.wb.sheets {
			for _, other := range sheet.tables {
				if foldName(other.name) == foldName(table.name) {
					return ws.rangeError(r, fmt.Errorf("%w: duplicate table name %q", ErrParameter, table.name))
				}
			}
		}
	}

	t := *table
	t.area = r
	t.columns = make([]string, 0, int(lastCol-firstCol)+1)
	seen := make(map[string]bool)
	for col := firstCol; col <= lastCol; col++ {
		i := int(col - firstCol)
		name := ""
		if i < len(t.headers) {
			name = t.headers[i]
		}
		if name == "" && !t.noHeader {
			if c := ws.cellAt(firstRow, col); c != nil && c.kind == kindString {
				name = c.text
			}
		}
		if name == "" {
			name = "Column" + strconv.Itoa(i+1)
		}
		if seen[foldName(name)] {
			return ws.rangeError(r, fmt.Errorf("%w: duplicate table column %q", ErrParameter, name))
		}
		seen[foldName(name)] = true
		t.columns = append(t.columns, name)
	}
	for i, name := range t.columns {
		if t.noHeader {
			break
		}
		col := firstCol + ColNum(i)
		if c := ws.cellAt(firstRow, col); c == nil || c.kind != kindString || c.text != name {
			if err := ws.writeString(firstRow, col, name, nil); err != nil {
				return err
			}
		}
	}
	ws.tables = append(ws.tables, &t)
	return nil
}

// writeTable writes xl/tables/tableN.xml.
func writeTable(w *xw.Writer, t *Table, id int) {
	name := t.name
	if name == "" {
		name = "Table" + strconv.Itoa(id)
	}
	w.XMLDeclaration()
	attrs := []xw.Attr{
		xw.Str("xmlns", nsMain),
		xw.Int("id", id),
		xw.Str("name", name),
		xw.Str("displayName", name),
		xw.Str("ref", t.area.String()),
	}
	if t.noHeader {
		attrs = append(attrs, xw.Str("headerRowCount", "0"))
	}
	attrs = append(attrs, xw.Str("totalsRowShown", "0"))
	w.StartTag("table", attrs...)
	if !t.noHeader && !t.noFilter {
		w.EmptyTag("autoFilter", xw.Str("ref", t.area.String()))
	}
	w.StartTag("tableColumns", xw.Int("count", len(t.columns)))
	for i, col := range t.columns {
		w.EmptyTag("tableColumn", xw.Int("id", i+1), xw.Str("name", col))
	}
	w.EndTag("tableColumns")
	w.EmptyTag("tableStyleInfo",
		xw.Str("name", t.style),
		xw.Bool("showFirstColumn", t.firstCol),
		xw.Bool("showLastColumn", t.lastCol),
		xw.Bool("showRowStripes", t.bandedRows),
		xw.Bool("showColumnStripes", t.bandedCols))
	w.EndTag("table")
}
