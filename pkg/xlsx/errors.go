package xlsx

import (
	"errors"
	"fmt"
)

// Validation errors. Each is returned at the call that detects it, usually
// wrapped in one of the typed errors below.
var (
	// ErrRowColumnLimit indicates a row or column outside the 1,048,576 x 16,384 grid.
	ErrRowColumnLimit = errors.New("row or column exceeds worksheet limits")

	// ErrMergeOverlap indicates a merge range that intersects an existing merge.
	ErrMergeOverlap = errors.New("merge range overlaps an existing merge")

	// ErrMergeSingleCell indicates a merge range of exactly one cell.
	ErrMergeSingleCell = errors.New("merge range must span more than one cell")

	// ErrTableOverlap indicates a table range that intersects an existing table.
	ErrTableOverlap = errors.New("table range overlaps an existing table")

	// ErrSheetNameInvalid indicates a sheet name Excel would refuse.
	ErrSheetNameInvalid = errors.New("invalid worksheet name")

	// ErrSheetNameDuplicate indicates a sheet name already used in the workbook.
	ErrSheetNameDuplicate = errors.New("worksheet name already in use")

	// ErrUnknownImageType indicates image bytes that are not PNG, JPEG, GIF or BMP.
	ErrUnknownImageType = errors.New("unknown or unsupported image type")

	// ErrImageDimension indicates an image whose width or height could not be read.
	ErrImageDimension = errors.New("image has zero or unreadable dimensions")

	// ErrMaxStringLength indicates a string longer than 32,767 characters.
	ErrMaxStringLength = errors.New("string exceeds 32,767 characters")

	// ErrNumberNotFinite indicates NaN or an infinity.
	ErrNumberNotFinite = errors.New("number is NaN or infinite")

	// ErrURLTooLong indicates a hyperlink longer than 2,080 characters.
	ErrURLTooLong = errors.New("url exceeds 2,080 characters")

	// ErrMaxHyperlinks indicates more than 65,530 hyperlinks on one worksheet.
	ErrMaxHyperlinks = errors.New("worksheet exceeds 65,530 hyperlinks")

	// ErrHeaderImageMismatch indicates header/footer images without matching &G placeholders.
	ErrHeaderImageMismatch = errors.New("header/footer image count does not match &G placeholders")

	// ErrParameter indicates an argument that is out of range or malformed.
	ErrParameter = errors.New("invalid parameter")

	// ErrSchemaOnly indicates a value was requested from a type-only record schema.
	ErrSchemaOnly = errors.New("record schema carries no values")

	// ErrReferential indicates a dangling format or string reference found while saving.
	ErrReferential = errors.New("dangling internal reference")
)

var errInvalidUTF8 = fmt.Errorf("%w: text is not valid UTF-8", ErrParameter)

// CellError reports a failure tied to a single cell.
type CellError struct {
	Sheet string
	Row   RowNum
	Col   ColNum
	Err   error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("sheet %q cell %s: %v", e.Sheet, CellName(e.Row, e.Col), e.Err)
}

func (e *CellError) Unwrap() error {
	return e.Err
}

// RangeError reports a failure tied to a rectangular range.
type RangeError struct {
	Sheet    string
	FirstRow RowNum
	FirstCol ColNum
	LastRow  RowNum
	LastCol  ColNum
	Err      error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("sheet %q range %s: %v", e.Sheet,
		RangeName(e.FirstRow, e.FirstCol, e.LastRow, e.LastCol), e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// SheetError reports a failure tied to a worksheet as a whole.
type SheetError struct {
	Name string
	Err  error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q: %v", e.Name, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}

// PackageError reports a failure while assembling or writing a package part.
type PackageError struct {
	Part string
	Err  error
}

func (e *PackageError) Error() string {
	return fmt.Sprintf("could not write %s: %v", e.Part, e.Err)
}

func (e *PackageError) Unwrap() error {
	return e.Err
}

func (ws *Worksheet) cellError(row RowNum, col ColNum, err error) error {
	return &CellError{Sheet: ws.name, Row: row, Col: col, Err: err}
}

func (ws *Worksheet) rangeError(r cellRange, err error) error {
	return &RangeError{
		Sheet:    ws.name,
		FirstRow: r.firstRow,
		FirstCol: r.firstCol,
		LastRow:  r.lastRow,
		LastCol:  r.lastCol,
		Err:      err,
	}
}

func (ws *Worksheet) sheetError(err error) error {
	return &SheetError{Name: ws.name, Err: err}
}
