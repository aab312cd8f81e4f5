package book

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// CellRange is a zero-based rectangular range.
type CellRange struct {
	FirstRow xlsx.RowNum
	FirstCol xlsx.ColNum
	LastRow  xlsx.RowNum
	LastCol  xlsx.ColNum
}

// ParseCell converts an A1 reference such as "B3" or "$B$3" to zero-based
// row and column numbers.
func ParseCell(ref string) (xlsx.RowNum, xlsx.ColNum, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
	col, row, err := excelize.CellNameToCoordinates(clean)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid cell reference %q: %w", ref, err)
	}
	return xlsx.RowNum(row - 1), xlsx.ColNum(col - 1), nil
}

// ParseRange converts "A1:C10" to a range. A single cell is a one-cell
// range. The corners may be given in any order.
func ParseRange(ref string) (CellRange, error) {
	first, last, found := strings.Cut(ref, ":")
	r1, c1, err := ParseCell(first)
	if err != nil {
		return CellRange{}, err
	}
	r2, c2 := r1, c1
	if found {
		if r2, c2, err = ParseCell(last); err != nil {
			return CellRange{}, err
		}
	}
	return CellRange{min(r1, r2), min(c1, c2), max(r1, r2), max(c1, c2)}, nil
}

// ParseColumns converts "B" or "B:D" to zero-based first and last columns.
func ParseColumns(ref string) (xlsx.ColNum, xlsx.ColNum, error) {
	first, last, found := strings.Cut(strings.ReplaceAll(ref, "$", ""), ":")
	c1, err := excelize.ColumnNameToNumber(strings.TrimSpace(first))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column %q: %w", ref, err)
	}
	c2 := c1
	if found {
		if c2, err = excelize.ColumnNameToNumber(strings.TrimSpace(last)); err != nil {
			return 0, 0, fmt.Errorf("invalid column %q: %w", ref, err)
		}
	}
	return xlsx.ColNum(min(c1, c2) - 1), xlsx.ColNum(max(c1, c2) - 1), nil
}

// sheetRange qualifies a plain range with sheet so charts can point at it.
// References that already name a sheet are returned as they are.
func sheetRange(sheet, ref string) (string, error) {
	if ref == "" || strings.Contains(ref, "!") {
		return ref, nil
	}
	r, err := ParseRange(ref)
	if err != nil {
		return "", err
	}
	return xlsx.ChartRange(sheet, r.FirstRow, r.FirstCol, r.LastRow, r.LastCol), nil
}
