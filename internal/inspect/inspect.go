// Package inspect reads .xlsx files back for the inspect command. It opens
// packages with excelize, so it doubles as an independent check of what
// the writer produced.
package inspect

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/xuri/excelize/v2"
)

// Sheet summarises one worksheet.
type Sheet struct {
	Name         string     `json:"name"`
	Visible      bool       `json:"visible"`
	Dimension    string     `json:"dimension"`
	RowCount     int        `json:"rowCount"`
	Merges       []string   `json:"merges,omitempty"`
	Tables       []string   `json:"tables,omitempty"`
	Conditionals int        `json:"conditionalFormats,omitempty"`
	Rows         [][]string `json:"rows,omitempty"`
}

// Name is a workbook-level defined name.
type Name struct {
	Name     string `json:"name"`
	RefersTo string `json:"refersTo"`
	Scope    string `json:"scope,omitempty"`
}

// Properties holds the core document properties.
type Properties struct {
	Title    string `json:"title,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Keywords string `json:"keywords,omitempty"`
	Created  string `json:"created,omitempty"`
}

// Report describes a workbook.
type Report struct {
	Size       int64      `json:"size"`
	Properties Properties `json:"properties"`
	Sheets     []Sheet    `json:"sheets"`
	Names      []Name     `json:"names,omitempty"`
	Parts      []string   `json:"parts"`
	Charts     int        `json:"charts"`
	Images     int        `json:"images"`
}

// Options select what is read.
type Options struct {
	// Sheet limits the report to one worksheet.
	Sheet string
	// Values includes cell text for each sheet.
	Values bool
}

// ReadFile inspects the workbook at p.
func ReadFile(p string, opts Options) (*Report, error) {
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file not found: %s", p)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", p, err)
	}
	return ReadBytes(data, opts)
}

// ReadBytes inspects a workbook held in memory.
func ReadBytes(data []byte, opts Options) (*Report, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("not an .xlsx package: %w", err)
	}
	r := &Report{Size: int64(len(data))}
	for _, zf := range zr.File {
		r.Parts = append(r.Parts, zf.Name)
		switch path.Dir(zf.Name) {
		case "xl/charts":
			if strings.HasPrefix(path.Base(zf.Name), "chart") {
				r.Charts++
			}
		case "xl/media":
			r.Images++
		}
	}
	sort.Strings(r.Parts)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not open workbook: %w", err)
	}
	defer f.Close()

	if props, err := f.GetDocProps(); err == nil {
		r.Properties = Properties{
			Title:    props.Title,
			Subject:  props.Subject,
			Creator:  props.Creator,
			Keywords: props.Keywords,
			Created:  props.Created,
		}
	}
	for _, dn := range f.GetDefinedName() {
		r.Names = append(r.Names, Name{Name: dn.Name, RefersTo: dn.RefersTo, Scope: dn.Scope})
	}

	names := f.GetSheetList()
	if opts.Sheet != "" {
		found := false
		for _, n := range names {
			if strings.EqualFold(n, opts.Sheet) {
				names = []string{n}
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("sheet %q not found; available sheets: %s", opts.Sheet, strings.Join(f.GetSheetList(), ", "))
		}
	}
	for _, name := range names {
		s, err := readSheet(f, name, opts.Values)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		r.Sheets = append(r.Sheets, *s)
	}
	return r, nil
}

func readSheet(f *excelize.File, name string, values bool) (*Sheet, error) {
	s := &Sheet{Name: name}
	var err error
	if s.Visible, err = f.GetSheetVisible(name); err != nil {
		return nil, err
	}
	if s.Dimension, err = f.GetSheetDimension(name); err != nil {
		return nil, err
	}
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	s.RowCount = rowCount(rows)
	if values {
		s.Rows = rows
	}
	merges, err := f.GetMergeCells(name)
	if err != nil {
		return nil, err
	}
	for _, m := range merges {
		s.Merges = append(s.Merges, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	tables, err := f.GetTables(name)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		s.Tables = append(s.Tables, t.Name+" "+t.Range)
	}
	cfs, err := f.GetConditionalFormats(name)
	if err != nil {
		return nil, err
	}
	for _, rules := range cfs {
		s.Conditionals += len(rules)
	}
	return s, nil
}

// rowCount counts rows holding at least one non-empty cell.
func rowCount(rows [][]string) int {
	count := 0
	for _, row := range rows {
		for _, cell := range row {
			if cell != "" {
				count++
				break
			}
		}
	}
	return count
}

// WriteCSV writes the sheet's values as CSV. Rows are padded to the
// widest row so every record has the same number of fields.
func (s *Sheet) WriteCSV(w io.Writer) error {
	width := 0
	for _, row := range s.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	cw := csv.NewWriter(w)
	for _, row := range s.Rows {
		rec := make([]string, width)
		copy(rec, row)
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
