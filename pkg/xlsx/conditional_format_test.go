package xlsx

import (
	"errors"
	"strings"
	"testing"
)

func TestConditionalFormatValidation(t *testing.T) {
	red := NewFormat().SetFontColor(RGB(0xFF0000))
	tests := []struct {
		name string
		cf   ConditionalFormat
		ok   bool
	}{
		{"between two values", ConditionalCell(CellBetween, red, 10, 20), true},
		{"between one value", ConditionalCell(CellBetween, red, 10), false},
		{"not between three values", ConditionalCell(CellNotBetween, red, 1, 2, 3), false},
		{"greater than one value", ConditionalCell(CellGreaterThan, red, 5), true},
		{"greater than two values", ConditionalCell(CellGreaterThan, red, 5, 6), false},
		{"greater than no values", ConditionalCell(CellGreaterThan, red), false},
		{"unknown operator", ConditionalCell(CellOperator(99), red, 1), false},
		{"formula", ConditionalFormula("=$A1>5", red), true},
		{"empty formula", ConditionalFormula("=", red), false},
		{"data bar", ConditionalDataBar(Color{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ws := newTestSheet(t)
			err := ws.AddConditionalFormat(0, 0, 9, 0, tt.cf)
			if tt.ok {
				if err != nil {
					t.Fatalf("AddConditionalFormat failed: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrParameter) {
				t.Fatalf("expected ErrParameter, got %v", err)
			}
			if len(ws.condFormats) != 0 {
				t.Errorf("expected rejected rule not to be stored, got %d", len(ws.condFormats))
			}
		})
	}
}

func TestConditionalFormatOutOfRange(t *testing.T) {
	_, ws := newTestSheet(t)
	err := ws.AddConditionalFormat(0, 0, MaxRows, 0, ConditionalDataBar(Color{}))
	if !errors.Is(err, ErrRowColumnLimit) {
		t.Errorf("expected ErrRowColumnLimit, got %v", err)
	}
	err = ws.AddConditionalFormat(5, 0, 1, 0, ConditionalDataBar(Color{}))
	if !errors.Is(err, ErrParameter) {
		t.Errorf("expected ErrParameter for reversed range, got %v", err)
	}
}

func TestConditionalCellBetweenXML(t *testing.T) {
	_, ws := newTestSheet(t)
	red := NewFormat().SetFontColor(RGB(0xFF0000))
	if err := ws.AddConditionalFormat(0, 0, 9, 1, ConditionalCell(CellBetween, red, 10, 20.5)); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	out := sheetXML(t, ws)
	mustContain(t, out, `<conditionalFormatting sqref="A1:B10">`)
	mustContain(t, out, `<cfRule type="cellIs" dxfId="0" priority="1" operator="between"><formula>10</formula><formula>20.5</formula></cfRule>`)
}

func TestConditionalFormulaXML(t *testing.T) {
	_, ws := newTestSheet(t)
	bold := NewFormat().SetBold()
	cf := ConditionalFormula("=$B1>100", bold).SetStopIfTrue()
	if err := ws.AddConditionalFormat(0, 0, 4, 3, cf); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	out := sheetXML(t, ws)
	mustContain(t, out, `<cfRule type="expression" dxfId="0" priority="1" stopIfTrue="1"><formula>$B1&gt;100</formula></cfRule>`)
}

func TestConditionalDataBarXML(t *testing.T) {
	_, ws := newTestSheet(t)
	if err := ws.AddConditionalFormat(0, 2, 9, 2, ConditionalDataBar(Color{})); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	if err := ws.AddConditionalFormat(0, 3, 9, 3, ConditionalDataBar(RGB(0x00B050))); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	out := sheetXML(t, ws)
	mustContain(t, out, `<conditionalFormatting sqref="C1:C10"><cfRule type="dataBar" priority="1"><dataBar><cfvo type="min"/><cfvo type="max"/><color rgb="FF638EC6"/></dataBar></cfRule></conditionalFormatting>`)
	mustContain(t, out, `<cfRule type="dataBar" priority="2"><dataBar><cfvo type="min"/><cfvo type="max"/><color rgb="FF00B050"/></dataBar></cfRule>`)
	mustNotContain(t, out, `dxfId`)
}

func TestConditionalColorScalesXML(t *testing.T) {
	_, ws := newTestSheet(t)
	if err := ws.AddConditionalFormat(0, 0, 9, 0, ConditionalTwoColorScale(Color{}, Color{})); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	three := ConditionalThreeColorScale(RGB(0x0000FF), Color{}, RGB(0xFF0000))
	if err := ws.AddConditionalFormat(0, 1, 9, 1, three); err != nil {
		t.Fatalf("AddConditionalFormat failed: %v", err)
	}
	out := sheetXML(t, ws)
	mustContain(t, out, `<cfRule type="colorScale" priority="1"><colorScale><cfvo type="min"/><cfvo type="max"/><color rgb="FFFFEF9C"/><color rgb="FF63BE7B"/></colorScale></cfRule>`)
	mustContain(t, out, `<cfRule type="colorScale" priority="2"><colorScale><cfvo type="min"/><cfvo type="percentile" val="50"/><cfvo type="max"/><color rgb="FF0000FF"/><color rgb="FFFFEB84"/><color rgb="FFFF0000"/></colorScale></cfRule>`)
}

func TestConditionalFormatPriorityAndDXF(t *testing.T) {
	wb, ws := newTestSheet(t)
	red := NewFormat().SetFontColor(RGB(0xFF0000))
	bold := NewFormat().SetBold()
	rules := []ConditionalFormat{
		ConditionalCell(CellLessThan, red, 0),
		ConditionalDataBar(Color{}),
		ConditionalFormula("ISBLANK(A1)", bold),
		ConditionalCell(CellEqual, red, 100),
	}
	for i, cf := range rules {
		if err := ws.AddConditionalFormat(0, 0, 9, 0, cf); err != nil {
			t.Fatalf("AddConditionalFormat %d failed: %v", i, err)
		}
	}
	if wb.dxfs.len() != 2 {
		t.Errorf("expected 2 dxf entries, got %d", wb.dxfs.len())
	}
	out := sheetXML(t, ws)
	for _, want := range []string{
		`<cfRule type="cellIs" dxfId="0" priority="1" operator="lessThan">`,
		`<cfRule type="dataBar" priority="2">`,
		`<cfRule type="expression" dxfId="1" priority="3">`,
		`<cfRule type="cellIs" dxfId="0" priority="4" operator="equal">`,
	} {
		mustContain(t, out, want)
	}
	if n := strings.Count(out, "<conditionalFormatting "); n != 4 {
		t.Errorf("expected 4 conditionalFormatting blocks, got %d", n)
	}

	parts := saveParts(t, wb)
	mustContain(t, parts["xl/styles.xml"], `<dxfs count="2">`)
}
