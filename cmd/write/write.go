// Package write provides the "xlsxkit write" command, which writes plain
// tabular data (JSON or CSV) into a formatted workbook.
package write

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"

	"github.com/klytics/xlsxkit/cmd/build"
	"github.com/klytics/xlsxkit/internal/book"
	"github.com/klytics/xlsxkit/internal/output"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// Input is the JSON shape accepted by write. The "sheets" array of an
// inspect report has the same shape, so inspected values round-trip.
type Input struct {
	Sheets []SheetData `json:"sheets"`
}

// SheetData is one sheet of input.
type SheetData struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers,omitempty"`
	Rows    [][]any  `json:"rows"`
}

type writeResult struct {
	File   string `json:"file"`
	Sheets int    `json:"sheets"`
	Rows   int    `json:"rows"`
	Bytes  int64  `json:"bytes"`
}

// NewCommand returns the write command.
func NewCommand() *cobra.Command {
	var (
		outPath   string
		sheetName string
		csvInput  bool
		asTable   bool
		noHeader  bool
		autofit   bool
	)

	cmd := &cobra.Command{
		Use:   "write [data.json|data.csv|-]",
		Short: "Write JSON or CSV data to a workbook",
		Long: `Creates an .xlsx file from tabular data.

Text cells are typed: numbers, booleans, ISO dates and "=" formulas are
written as such. The first row (or "headers") is bold and frozen.

JSON format:
  {"sheets": [{"name": "Sheet1", "headers": ["A","B"], "rows": [["a1", 2]]}]}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if outPath == "" {
				return fmt.Errorf("--output is required\n\nExample: xlsxkit write data.json -o data.xlsx")
			}
			if !strings.HasSuffix(strings.ToLower(outPath), ".xlsx") {
				outPath += ".xlsx"
			}

			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			raw, err := readInput(cmd.InOrStdin(), src)
			if err != nil {
				return err
			}

			var input *Input
			if csvInput || strings.EqualFold(filepath.Ext(src), ".csv") {
				input, err = ParseCSV(raw, noHeader)
			} else {
				input, err = ParseJSON(raw)
			}
			if err != nil {
				return err
			}
			if sheetName != "" && len(input.Sheets) == 1 {
				input.Sheets[0].Name = sheetName
			}

			opts, err := build.Options(cmd, verbose)
			if err != nil {
				return err
			}
			wb, rows, err := Workbook(input, opts.Defaults, asTable, autofit)
			if err != nil {
				return err
			}
			res, err := book.Save(wb, outPath)
			if err != nil {
				return err
			}

			out := writeResult{File: res.Output, Sheets: res.Sheets, Rows: rows, Bytes: res.Bytes}
			if jsonFlag {
				return output.FprintJSON(cmd.OutOrStdout(), "write", out)
			}
			output.NewWriterTo(cmd.OutOrStdout(), output.FormatText).
				Success("Wrote %s (%d sheet(s), %s rows, %s)", out.File, out.Sheets, output.Count(out.Rows), output.Size(out.Bytes))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output .xlsx path (required)")
	cmd.Flags().StringVar(&sheetName, "sheet", "", "Sheet name when the input has a single sheet")
	cmd.Flags().BoolVar(&csvInput, "csv", false, "Read CSV instead of JSON")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "CSV input has no header row")
	cmd.Flags().BoolVar(&asTable, "table", false, "Format each sheet as an Excel table")
	cmd.Flags().BoolVar(&autofit, "autofit", true, "Size columns to their content")
	return cmd
}

func readInput(stdin io.Reader, src string) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if src == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read data: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no input provided; pass a data file or pipe data to stdin")
	}
	return raw, nil
}

// ParseJSON accepts {"sheets": [...]}, a bare array of sheets, or the
// JSON envelope printed by "inspect --json --values".
func ParseJSON(raw []byte) (*Input, error) {
	var input Input
	if err := json.Unmarshal(raw, &input); err == nil && len(input.Sheets) > 0 {
		return &input, nil
	}
	if err := json.Unmarshal(raw, &input.Sheets); err == nil && len(input.Sheets) > 0 {
		return &input, nil
	}
	var envelope struct {
		Data Input `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Data.Sheets) > 0 {
		return &envelope.Data, nil
	}
	return nil, fmt.Errorf(`invalid JSON data: expected {"sheets": [...]}`)
}

// ParseCSV reads CSV into a single sheet. Unless noHeader is set the
// first record becomes the header row. Input that is not UTF-8 is read
// as Windows-1252, the usual encoding of spreadsheet CSV exports.
func ParseCSV(raw []byte, noHeader bool) (*Input, error) {
	if !utf8.Valid(raw) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("could not decode CSV data: %w", err)
		}
		raw = decoded
	}
	r := csv.NewReader(strings.NewReader(string(raw)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV data: %w", err)
	}
	s := SheetData{Name: "Sheet1"}
	if !noHeader && len(records) > 0 {
		s.Headers = records[0]
		records = records[1:]
	}
	for _, rec := range records {
		row := make([]any, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		s.Rows = append(s.Rows, row)
	}
	return &Input{Sheets: []SheetData{s}}, nil
}

// cellValue types one input value.
func cellValue(v any) any {
	switch x := v.(type) {
	case string:
		return book.InferValue(x)
	case map[string]any, []any:
		b, _ := json.Marshal(x)
		return string(b)
	}
	return v
}

// Workbook writes the input into a new workbook and returns the number
// of data rows written.
func Workbook(input *Input, defaults book.Defaults, asTable, autofit bool) (*xlsx.Workbook, int, error) {
	wb := xlsx.NewWorkbook()
	wb.SetProperties(xlsx.DocProperties{Author: defaults.Author, Company: defaults.Company})
	if defaults.DateFormat != "" {
		wb.SetDefaultDateTimeFormat(defaults.DateFormat)
	}
	header := xlsx.NewFormat().SetBold()

	total := 0
	for _, s := range input.Sheets {
		ws, err := wb.AddWorksheet(s.Name)
		if err != nil {
			return nil, 0, err
		}
		row := xlsx.RowNum(0)
		width := len(s.Headers)
		if len(s.Headers) > 0 {
			hdr := make([]any, len(s.Headers))
			for i, h := range s.Headers {
				hdr[i] = h
			}
			if !asTable {
				if err := ws.WriteRow(0, 0, hdr, header); err != nil {
					return nil, 0, err
				}
				if err := ws.FreezePanes(1, 0); err != nil {
					return nil, 0, err
				}
			} else if err := ws.WriteRow(0, 0, hdr); err != nil {
				return nil, 0, err
			}
			row++
		}
		for _, r := range s.Rows {
			vals := make([]any, len(r))
			for i, v := range r {
				vals[i] = cellValue(v)
			}
			if len(vals) > width {
				width = len(vals)
			}
			if err := ws.WriteRow(row, 0, vals); err != nil {
				return nil, 0, fmt.Errorf("sheet %q: %w", ws.Name(), err)
			}
			row++
		}
		total += len(s.Rows)

		if asTable && width > 0 && len(s.Rows) > 0 {
			t := xlsx.NewTable()
			if defaults.TableStyle != "" {
				t.SetStyle(defaults.TableStyle)
			}
			if len(s.Headers) == 0 {
				t.SetHeaderRow(false)
			} else {
				t.SetColumnHeaders(s.Headers...)
			}
			if err := ws.AddTable(0, 0, row-1, xlsx.ColNum(width-1), t); err != nil {
				return nil, 0, fmt.Errorf("sheet %q: %w", ws.Name(), err)
			}
		}
		if autofit {
			ws.Autofit()
		}
	}
	if len(wb.Worksheets()) == 0 {
		return nil, 0, fmt.Errorf("input has no sheets")
	}
	return wb, total, nil
}
