package xlsx

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// RowNum is a zero-based row index.
type RowNum = uint32

// ColNum is a zero-based column index.
type ColNum = uint16

// Grid limits.
const (
	MaxRows      RowNum = 1_048_576
	MaxCols      ColNum = 16_384
	MaxStringLen        = 32_767
	MaxURLLen           = 2_080
	MaxHyperlinks       = 65_530
)

type cellKind uint8

const (
	kindNumber cellKind = iota
	kindString
	kindRichString
	kindBoolean
	kindFormula
	kindArrayFormula
	kindError
	kindBlank
)

// cell is one entry in the sparse grid. Only the fields relevant to kind
// are populated; text holds the string, rich run XML, formula or error.
type cell struct {
	kind    cellKind
	number  float64
	boolean bool
	text    string
	result  string
	xf      uint32
	sticky  bool

	// array formulas
	arrayRef string
	dynamic  bool
}

type cellRange struct {
	firstRow RowNum
	firstCol ColNum
	lastRow  RowNum
	lastCol  ColNum
}

func (r cellRange) overlaps(o cellRange) bool {
	return r.firstRow <= o.lastRow && o.firstRow <= r.lastRow &&
		r.firstCol <= o.lastCol && o.firstCol <= r.lastCol
}

func (r cellRange) contains(row RowNum, col ColNum) bool {
	return row >= r.firstRow && row <= r.lastRow && col >= r.firstCol && col <= r.lastCol
}

func (r cellRange) single() bool {
	return r.firstRow == r.lastRow && r.firstCol == r.lastCol
}

func (r cellRange) String() string {
	return RangeName(r.firstRow, r.firstCol, r.lastRow, r.lastCol)
}

func (r cellRange) absolute() string {
	first := "$" + ColumnName(r.firstCol) + "$" + strconv.FormatUint(uint64(r.firstRow)+1, 10)
	if r.single() {
		return first
	}
	return first + ":$" + ColumnName(r.lastCol) + "$" + strconv.FormatUint(uint64(r.lastRow)+1, 10)
}

// ColumnName converts a zero-based column index to letters: 0 -> A, 26 -> AA.
func ColumnName(col ColNum) string {
	n := int(col) + 1
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		n--
		i--
		buf[i] = byte('A' + n%26)
		n /= 26
	}
	return string(buf[i:])
}

// CellName converts a zero-based row and column to an A1 reference.
func CellName(row RowNum, col ColNum) string {
	return ColumnName(col) + strconv.FormatUint(uint64(row)+1, 10)
}

// RangeName converts a zero-based range to A1:B2 form, or A1 for a single cell.
func RangeName(firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum) string {
	if firstRow == lastRow && firstCol == lastCol {
		return CellName(firstRow, firstCol)
	}
	return CellName(firstRow, firstCol) + ":" + CellName(lastRow, lastCol)
}

// ChartRange builds an absolute sheet-qualified range such as
// 'Sales Data'!$A$2:$A$7 for chart series.
func ChartRange(sheet string, firstRow RowNum, firstCol ColNum, lastRow RowNum, lastCol ColNum) string {
	r := cellRange{firstRow: firstRow, firstCol: firstCol, lastRow: lastRow, lastCol: lastCol}
	return quoteSheetName(sheet) + "!" + r.absolute()
}

// quoteSheetName wraps a sheet name in single quotes when a formula would
// otherwise misparse it.
func quoteSheetName(name string) string {
	if strings.HasPrefix(name, "'") {
		return name
	}
	needs := false
	for i, r := range name {
		if i == 0 && unicode.IsDigit(r) {
			needs = true
			break
		}
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.') {
			needs = true
			break
		}
	}
	if !needs && looksLikeCellRef(name) {
		needs = true
	}
	if !needs {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// looksLikeCellRef catches names such as "A1", "XFD10" or "R1C1" that
// must be quoted in references.
func looksLikeCellRef(name string) bool {
	upper := strings.ToUpper(name)
	if isRC(upper) {
		return true
	}
	i := 0
	for i < len(upper) && upper[i] >= 'A' && upper[i] <= 'Z' {
		i++
	}
	if i == 0 || i > 3 || i == len(upper) {
		return false
	}
	return allDigits(upper[i:])
}

func isRC(s string) bool {
	if !strings.HasPrefix(s, "R") {
		return false
	}
	c := strings.Index(s, "C")
	if c < 1 {
		return false
	}
	return allDigits(s[1:c]) && allDigits(s[c+1:])
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ExcelSerial converts a wall-clock time to an Excel 1900-system serial
// date. The location of t is ignored.
func ExcelSerial(t time.Time) float64 {
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	secs := wall.Unix() - excelEpoch.Unix()
	serial := float64(secs)/86400 + float64(wall.Nanosecond())/86400e9
	// Excel counts a fictitious 29 February 1900.
	if serial >= 1 && serial < 61 {
		serial--
	}
	return serial
}

// formatNumber writes plain decimals for everyday magnitudes and falls
// back to exponent form for very large or very small values.
func formatNumber(n float64) string {
	if a := math.Abs(n); a == 0 || (a >= 1e-4 && a < 1e15) {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'G', -1, 64)
}
