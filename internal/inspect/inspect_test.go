package inspect

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

func sampleWorkbook(t *testing.T) []byte {
	t.Helper()
	wb := xlsx.NewWorkbook()
	wb.SetProperties(xlsx.DocProperties{Title: "Quarterly", Author: "Finance"})

	ws, err := wb.AddWorksheet("Sales")
	if err != nil {
		t.Fatalf("AddWorksheet failed: %v", err)
	}
	rows := [][]any{
		{"Region", "Q1", "Q2"},
		{"North", 10, 12},
		{"South, East", 7, 9},
	}
	for i, r := range rows {
		if err := ws.WriteRow(xlsx.RowNum(i), 0, r); err != nil {
			t.Fatalf("WriteRow failed: %v", err)
		}
	}
	if err := ws.AddTable(0, 0, 2, 2, xlsx.NewTable().SetName("SalesTable")); err != nil {
		t.Fatalf("AddTable failed: %v", err)
	}
	if err := ws.MergeRange(4, 0, 4, 2, "Provisional", xlsx.NewFormat()); err != nil {
		t.Fatalf("MergeRange failed: %v", err)
	}
	red := xlsx.NewFormat().SetFontColor(xlsx.ColorRed)
	if err := ws.AddConditionalFormat(1, 1, 2, 2, xlsx.ConditionalCell(xlsx.CellGreaterThan, red, 10)); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	ch := xlsx.NewChart(xlsx.ChartColumn)
	ch.AddSeries().
		SetCategories(xlsx.ChartRange("Sales", 1, 0, 2, 0)).
		SetValues(xlsx.ChartRange("Sales", 1, 1, 2, 1))
	if err := ws.InsertChart(6, 0, ch); err != nil {
		t.Fatalf("InsertChart failed: %v", err)
	}

	notes, err := wb.AddWorksheet("Notes")
	if err != nil {
		t.Fatalf("AddWorksheet failed: %v", err)
	}
	notes.SetHidden(true)
	if err := wb.DefineName("Regions", "=Sales!$A$2:$A$3"); err != nil {
		t.Fatalf("DefineName failed: %v", err)
	}

	data, err := wb.SaveToBuffer()
	if err != nil {
		t.Fatalf("SaveToBuffer failed: %v", err)
	}
	return data
}

func TestReadBytes(t *testing.T) {
	r, err := ReadBytes(sampleWorkbook(t), Options{Values: true})
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if r.Properties.Title != "Quarterly" || r.Properties.Creator != "Finance" {
		t.Errorf("unexpected properties %+v", r.Properties)
	}
	if len(r.Sheets) != 2 {
		t.Fatalf("expected 2 sheets, got %d", len(r.Sheets))
	}
	sales := r.Sheets[0]
	if sales.Name != "Sales" || !sales.Visible {
		t.Errorf("unexpected first sheet %+v", sales)
	}
	if sales.RowCount != 4 {
		t.Errorf("expected 4 non-empty rows, got %d", sales.RowCount)
	}
	if len(sales.Merges) != 1 || sales.Merges[0] != "A5:C5" {
		t.Errorf("unexpected merges %v", sales.Merges)
	}
	if len(sales.Tables) != 1 || !strings.HasPrefix(sales.Tables[0], "SalesTable") {
		t.Errorf("unexpected tables %v", sales.Tables)
	}
	if sales.Conditionals != 1 {
		t.Errorf("expected 1 conditional format, got %d", sales.Conditionals)
	}
	if r.Sheets[1].Visible {
		t.Error("expected Notes to be hidden")
	}
	if r.Charts != 1 {
		t.Errorf("expected 1 chart, got %d", r.Charts)
	}
	if len(r.Names) != 1 || r.Names[0].Name != "Regions" {
		t.Errorf("unexpected names %+v", r.Names)
	}
	if r.Parts[0] != "[Content_Types].xml" {
		t.Errorf("expected sorted parts, got %v", r.Parts[:3])
	}
}

func TestReadSingleSheet(t *testing.T) {
	data := sampleWorkbook(t)
	r, err := ReadBytes(data, Options{Sheet: "notes"})
	if err != nil {
		t.Fatalf("ReadBytes failed: %v", err)
	}
	if len(r.Sheets) != 1 || r.Sheets[0].Name != "Notes" {
		t.Errorf("expected only Notes, got %+v", r.Sheets)
	}
	if r.Sheets[0].Rows != nil {
		t.Error("values should be left out unless asked for")
	}
	if _, err := ReadBytes(data, Options{Sheet: "Missing"}); err == nil || !strings.Contains(err.Error(), "Sales, Notes") {
		t.Errorf("expected error listing sheets, got %v", err)
	}
}

func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := ReadFile(filepath.Join(dir, "missing.xlsx"), Options{}); err == nil || !strings.Contains(err.Error(), "file not found") {
		t.Errorf("expected file not found, got %v", err)
	}
	bad := filepath.Join(dir, "bad.xlsx")
	os.WriteFile(bad, []byte("not a zip"), 0o644)
	if _, err := ReadFile(bad, Options{}); err == nil || !strings.Contains(err.Error(), "not an .xlsx package") {
		t.Errorf("expected package error, got %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	s := Sheet{Rows: [][]string{{"Region", "Q1", "Q2"}, {"South, East", "7"}, {`say "hi"`}}}
	var buf bytes.Buffer
	if err := s.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	want := "Region,Q1,Q2\n\"South, East\",7,\n\"say \"\"hi\"\"\",,\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestRowCountSkipsBlankRows(t *testing.T) {
	rows := [][]string{{"a"}, {}, {"", ""}, {"", "b"}}
	if got := rowCount(rows); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}
