package xlsx

import (
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"

	xw "github.com/klytics/xlsxkit/pkg/xlsx/internal/xmlwriter"
)

// DefaultDateTimeFormat is applied to dates written without a format.
const DefaultDateTimeFormat = "yyyy-mm-dd hh:mm:ss"

const maxSheetNameLen = 31

// Workbook is an in-memory spreadsheet that is written out with Save.
// A workbook and its worksheets must be used from one goroutine.
type Workbook struct {
	sheets []*Worksheet
	xfs    *formatRegistry
	dxfs   *formatRegistry
	names  []definedName
	props  DocProperties
	custom []customProperty
	logger *log.Logger

	activeSheet    int
	dateTimeFormat string
}

type definedName struct {
	name    string
	sheet   int // -1 for workbook scope
	formula string
	hidden  bool
}

// NewWorkbook returns an empty workbook. Its creation time is fixed now,
// so saving it twice gives identical files.
func NewWorkbook() *Workbook {
	return &Workbook{
		xfs:            newXFRegistry(),
		dxfs:           newDXFRegistry(),
		props:          DocProperties{Created: time.Now().UTC().Truncate(time.Second)},
		logger:         log.New(io.Discard, "[xlsx] ", log.LstdFlags),
		dateTimeFormat: DefaultDateTimeFormat,
	}
}

// SetLogger sets where save progress and skipped values are logged. A nil
// logger discards output.
func (wb *Workbook) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(io.Discard, "[xlsx] ", log.LstdFlags)
	}
	wb.logger = l
}

// SetDefaultDateTimeFormat changes the number format used for dates
// written without one.
func (wb *Workbook) SetDefaultDateTimeFormat(code string) {
	if code == "" {
		code = DefaultDateTimeFormat
	}
	wb.dateTimeFormat = code
}

// AddWorksheet appends a worksheet. An empty name picks the next free
// SheetN.
func (wb *Workbook) AddWorksheet(name string) (*Worksheet, error) {
	if name == "" {
		for n := len(wb.sheets) + 1; ; n++ {
			candidate := "Sheet" + strconv.Itoa(n)
			if wb.Worksheet(candidate) == nil {
				name = candidate
				break
			}
		}
	}
	if err := wb.checkSheetName(name); err != nil {
		return nil, &SheetError{Name: name, Err: err}
	}
	ws := newWorksheet(wb, name, len(wb.sheets))
	wb.sheets = append(wb.sheets, ws)
	return ws, nil
}

func (wb *Workbook) checkSheetName(name string) error {
	switch {
	case utf8.RuneCountInString(name) > maxSheetNameLen:
		return fmt.Errorf("%w: longer than %d characters", ErrSheetNameInvalid, maxSheetNameLen)
	case strings.ContainsAny(name, `[]:*?/\`):
		return fmt.Errorf("%w: contains one of []:*?/\\", ErrSheetNameInvalid)
	case strings.HasPrefix(name, "'") || strings.HasSuffix(name, "'"):
		return fmt.Errorf("%w: starts or ends with an apostrophe", ErrSheetNameInvalid)
	case strings.EqualFold(name, "History"):
		return fmt.Errorf("%w: History is reserved", ErrSheetNameInvalid)
	case wb.Worksheet(name) != nil:
		return ErrSheetNameDuplicate
	}
	return nil
}

// foldName is the case-insensitive key Excel compares names by.
func foldName(s string) string {
	return cases.Fold().String(s)
}

// Worksheet finds a worksheet by name, ignoring case. It returns nil if
// there is none.
func (wb *Workbook) Worksheet(name string) *Worksheet {
	key := foldName(name)
	for _, ws := range wb.sheets {
		if foldName(ws.name) == key {
			return ws
		}
	}
	return nil
}

// Worksheets returns the worksheets in tab order.
func (wb *Workbook) Worksheets() []*Worksheet {
	return append([]*Worksheet(nil), wb.sheets...)
}

// DefineName adds a named range or constant. Prefix the name with a sheet
// name ("Sheet1!Rate") to scope it to that sheet.
func (wb *Workbook) DefineName(name, formula string) error {
	sheet := -1
	if i := strings.LastIndex(name, "!"); i >= 0 {
		sheetName := strings.Trim(name[:i], "'")
		ws := wb.Worksheet(sheetName)
		if ws == nil {
			return fmt.Errorf("%w: unknown worksheet %q in name %q", ErrParameter, sheetName, name)
		}
		sheet = ws.index
		name = name[i+1:]
	}
	if err := checkDefinedName(name); err != nil {
		return err
	}
	formula = stripFormula(formula)
	if formula == "" {
		return fmt.Errorf("%w: empty formula for name %q", ErrParameter, name)
	}
	for _, dn := range wb.names {
		if dn.sheet == sheet && foldName(dn.name) == foldName(name) {
			return fmt.Errorf("%w: name %q already defined", ErrParameter, name)
		}
	}
	wb.names = append(wb.names, definedName{name: name, sheet: sheet, formula: formula})
	return nil
}

func checkDefinedName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty defined name", ErrParameter)
	}
	first, _ := utf8.DecodeRuneInString(name)
	if !(first == '_' || first == '\\' || isLetter(first)) {
		return fmt.Errorf("%w: name %q must start with a letter, _ or \\", ErrParameter, name)
	}
	for _, r := range name {
		if !(isLetter(r) || r == '_' || r == '.' || r == '\\' || (r >= '0' && r <= '9')) {
			return fmt.Errorf("%w: name %q contains %q", ErrParameter, name, r)
		}
	}
	if looksLikeCellRef(name) {
		return fmt.Errorf("%w: name %q looks like a cell reference", ErrParameter, name)
	}
	return nil
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r > 0x7F
}

// definedNames gathers user names and the built-in names for filters,
// print areas and print titles, sorted the way Excel writes them.
func (wb *Workbook) definedNames() []definedName {
	all := append([]definedName(nil), wb.names...)
	for _, ws := range wb.sheets {
		sheet := quoteSheetName(ws.name)
		if ws.filter != nil {
			all = append(all, definedName{
				name:    "_xlnm._FilterDatabase",
				sheet:   ws.index,
				formula: sheet + "!" + ws.filter.area.absolute(),
				hidden:  true,
			})
		}
		if ws.printArea != nil {
			all = append(all, definedName{name: "_xlnm.Print_Area", sheet: ws.index, formula: ws.printAreaRef()})
		}
		if ws.repeatRows != nil || ws.repeatCols != nil {
			all = append(all, definedName{name: "_xlnm.Print_Titles", sheet: ws.index, formula: ws.printTitlesRef()})
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		a := strings.ToLower(strings.TrimPrefix(all[i].name, "_xlnm."))
		b := strings.ToLower(strings.TrimPrefix(all[j].name, "_xlnm."))
		if a != b {
			return a < b
		}
		return all[i].sheet < all[j].sheet
	})
	return all
}

func (wb *Workbook) writeWorkbookXML(w *xw.Writer, sheetRels []string) {
	w.XMLDeclaration()
	w.StartTag("workbook", xw.Str("xmlns", nsMain), xw.Str("xmlns:r", nsRelationships))
	w.EmptyTag("fileVersion",
		xw.Str("appName", "xl"),
		xw.Str("lastEdited", "4"),
		xw.Str("lowestEdited", "4"),
		xw.Str("rupBuild", "4505"))
	w.EmptyTag("workbookPr")

	w.StartTag("bookViews")
	view := []xw.Attr{
		xw.Str("xWindow", "240"),
		xw.Str("yWindow", "15"),
		xw.Str("windowWidth", "16095"),
		xw.Str("windowHeight", "9660"),
	}
	if wb.activeSheet > 0 {
		view = append(view, xw.Int("activeTab", wb.activeSheet))
	}
	w.EmptyTag("workbookView", view...)
	w.EndTag("bookViews")

	w.StartTag("sheets")
	for i, ws := range wb.sheets {
		attrs := []xw.Attr{
			xw.Str("name", ws.name),
			xw.Int("sheetId", i+1),
		}
		if ws.view.hidden && i != wb.activeSheet {
			attrs = append(attrs, xw.Str("state", "hidden"))
		}
		attrs = append(attrs, xw.Str("r:id", sheetRels[i]))
		w.EmptyTag("sheet", attrs...)
	}
	w.EndTag("sheets")

	if names := wb.definedNames(); len(names) > 0 {
		w.StartTag("definedNames")
		for _, dn := range names {
			attrs := []xw.Attr{xw.Str("name", dn.name)}
			if dn.sheet >= 0 {
				attrs = append(attrs, xw.Int("localSheetId", dn.sheet))
			}
			if dn.hidden {
				attrs = append(attrs, xw.Str("hidden", "1"))
			}
			w.DataElement("definedName", dn.formula, attrs...)
		}
		w.EndTag("definedNames")
	}

	w.EmptyTag("calcPr", xw.Str("calcId", "124519"), xw.Str("fullCalcOnLoad", "1"))
	w.EndTag("workbook")
}
