package inspect

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	inspectpkg "github.com/klytics/xlsxkit/internal/inspect"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

func writeSample(t *testing.T) string {
	t.Helper()
	wb := xlsx.NewWorkbook()
	wb.SetProperties(xlsx.DocProperties{Title: "Roster"})
	ws, err := wb.AddWorksheet("People")
	if err != nil {
		t.Fatalf("AddWorksheet failed: %v", err)
	}
	ws.WriteRow(0, 0, []any{"Name", "Age"})
	ws.WriteRow(1, 0, []any{"Ada, Countess", 36})
	ws.WriteRow(2, 0, []any{"Bob", 41})
	path := filepath.Join(t.TempDir(), "people.xlsx")
	if err := wb.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	color.NoColor = true
	cmd := NewCommand()
	cmd.Flags().Bool("json", false, "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("inspect %v failed: %v", args, err)
	}
	return out.String()
}

func TestInspectSummary(t *testing.T) {
	out := execute(t, writeSample(t))
	for _, want := range []string{"Roster", "Sheets (1)", "People", "A1:B3", "3 rows"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestInspectRows(t *testing.T) {
	out := execute(t, writeSample(t), "--rows", "--max-rows", "2")
	if !strings.Contains(out, "Ada, Countess") || strings.Contains(out, "Bob") {
		t.Errorf("expected only the first two rows:\n%s", out)
	}
	if !strings.Contains(out, "1 more row(s)") {
		t.Errorf("expected truncation note:\n%s", out)
	}
}

func TestInspectCSV(t *testing.T) {
	out := execute(t, writeSample(t), "--csv")
	want := "Name,Age\n\"Ada, Countess\",36\nBob,41\n"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestInspectJSON(t *testing.T) {
	out := execute(t, writeSample(t), "--json")
	if !strings.Contains(out, `"command": "inspect"`) || !strings.Contains(out, `"name": "People"`) {
		t.Errorf("unexpected JSON:\n%s", out)
	}
}

func TestInspectStdin(t *testing.T) {
	data, err := os.ReadFile(writeSample(t))
	if err != nil {
		t.Fatal(err)
	}
	color.NoColor = true
	cmd := NewCommand()
	cmd.Flags().Bool("json", false, "")
	var out bytes.Buffer
	cmd.SetIn(bytes.NewReader(data))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("inspect - failed: %v", err)
	}
	if !strings.Contains(out.String(), "People") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestDisplayWidthAndClip(t *testing.T) {
	if w := displayWidth("表格"); w != 4 {
		t.Errorf("expected width 4, got %d", w)
	}
	if got := clip("spreadsheet", 6); got != "sprea~" {
		t.Errorf("expected sprea~, got %q", got)
	}
	if got := clip("ok", 6); got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
}

func TestRenderEmptySheet(t *testing.T) {
	color.NoColor = true
	var sb strings.Builder
	renderRows(&sb, inspectpkg.Sheet{Name: "Blank"}, 10)
	if !strings.Contains(sb.String(), "(empty)") {
		t.Errorf("expected empty marker, got %q", sb.String())
	}
}
