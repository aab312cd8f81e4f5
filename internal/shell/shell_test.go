package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func mockRunner(version string) CommandRunner {
	return func(ctx context.Context, args []string, stdout, stderr io.Writer) error {
		switch args[0] {
		case "version":
			fmt.Fprintf(stdout, "xlsxkit %s\n", version)
			return nil
		case "inspect":
			fmt.Fprintf(stdout, "Sheets: 1\n")
			return nil
		case "broken":
			fmt.Fprintln(stderr, "Error: broken is not a command")
			return fmt.Errorf("unknown command: %s", args[0])
		}
		fmt.Fprintf(stdout, "OK\n")
		return nil
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	s, err := NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	return s
}

func eval(t *testing.T, s *Session, line string) string {
	t.Helper()
	out, err := s.Eval(context.Background(), line)
	if err != nil {
		t.Fatalf("Eval(%q) failed: %v", line, err)
	}
	return out
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t)
	if s.Workbook == nil {
		t.Fatal("expected a scratch workbook")
	}
	if !strings.HasSuffix(s.HistoryFile, filepath.Join(".xlsxkit", "shell_history")) {
		t.Errorf("unexpected history file %q", s.HistoryFile)
	}
	if s.prompt() != "xlsxkit> " {
		t.Errorf("unexpected prompt %q", s.prompt())
	}
}

func TestEvalPassesThroughToRunner(t *testing.T) {
	DefaultRunner = mockRunner("v1.2.0-test")
	defer func() { DefaultRunner = nil }()

	s := newTestSession(t)
	out := eval(t, s, "version")
	if !strings.Contains(out, "v1.2.0-test") {
		t.Errorf("expected version output, got %q", out)
	}
	eval(t, s, "inspect out.xlsx")
	if !strings.Contains(s.LastOutput, "Sheets: 1") {
		t.Errorf("expected LastOutput to be updated, got %q", s.LastOutput)
	}
}

func TestEvalRunnerErrorUsesStderr(t *testing.T) {
	DefaultRunner = mockRunner("v1")
	defer func() { DefaultRunner = nil }()

	s := newTestSession(t)
	_, err := s.Eval(context.Background(), "broken")
	if err == nil || !strings.Contains(err.Error(), "broken is not a command") {
		t.Errorf("expected stderr text in error, got %v", err)
	}
}

func TestEvalNoRunner(t *testing.T) {
	DefaultRunner = nil
	s := newTestSession(t)
	if _, err := s.Eval(context.Background(), "version"); err == nil {
		t.Error("expected error when runner is nil")
	}
}

func TestEvalExit(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Eval(context.Background(), "quit"); err != errExit {
		t.Errorf("expected errExit, got %v", err)
	}
}

func TestScratchWorkbook(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "sheet Budget")
	eval(t, s, "set A1 Item")
	eval(t, s, "set B1 Cost")
	eval(t, s, "set A2 Rent  and rates")
	eval(t, s, "set B2 1200")
	eval(t, s, "set B3 =SUM(B2:B2)")
	eval(t, s, "set C2 true")
	eval(t, s, "merge A5:C5 Totals are estimates")
	eval(t, s, "width A:B 14")
	eval(t, s, "freeze A2")
	if s.prompt() != "xlsxkit[Budget]> " {
		t.Errorf("unexpected prompt %q", s.prompt())
	}

	path := filepath.Join(t.TempDir(), "scratch.xlsx")
	out := eval(t, s, "save "+path)
	if !strings.Contains(out, "1 sheet(s)") {
		t.Errorf("unexpected save output %q", out)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("could not read saved file: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("excelize could not open the workbook: %v", err)
	}
	defer f.Close()
	checks := map[string]string{"A2": "Rent  and rates", "B2": "1200", "C2": "TRUE", "A5": "Totals are estimates"}
	for cell, want := range checks {
		got, err := f.GetCellValue("Budget", cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s) failed: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s: expected %q, got %q", cell, want, got)
		}
	}
	if formula, _ := f.GetCellFormula("Budget", "B3"); formula != "SUM(B2:B2)" {
		t.Errorf("expected formula SUM(B2:B2), got %q", formula)
	}
}

func TestSheetsListing(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "sheet One")
	eval(t, s, "sheet Two")
	eval(t, s, "sheet One")
	if out := eval(t, s, "sheets"); out != "* One\n  Two\n" {
		t.Errorf("unexpected listing %q", out)
	}
	eval(t, s, "new")
	if len(s.Workbook.Worksheets()) != 0 || s.Current != nil {
		t.Error("expected new to discard the scratch workbook")
	}
}

func TestSetAddsDefaultSheet(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "set C3 hello")
	if s.Current == nil || s.Current.Name() != "Sheet1" {
		t.Errorf("expected Sheet1 to be added")
	}
}

func TestShellCommandErrors(t *testing.T) {
	s := newTestSession(t)
	for _, line := range []string{"set", "set A1", "set 1A x", "merge A1 x", "width B 1 2", "width B wide", "freeze", "save", "sheet"} {
		if _, err := s.Eval(context.Background(), line); err == nil {
			t.Errorf("Eval(%q): expected error", line)
		}
	}
}

func TestHistoryGrows(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "sheets")
	eval(t, s, "help")
	out := eval(t, s, "history")
	if !strings.Contains(out, "1  sheets") || !strings.Contains(out, "3  history") {
		t.Errorf("unexpected history %q", out)
	}
}

func TestCompleteTopLevel(t *testing.T) {
	s := newTestSession(t)
	if got := s.Complete("ins"); len(got) != 1 || got[0] != "inspect" {
		t.Errorf("expected [inspect], got %v", got)
	}
	got := s.Complete("s")
	want := map[string]bool{"save": true, "set": true, "sheet": true, "sheets": true}
	if len(got) != len(want) {
		t.Errorf("expected %d matches, got %v", len(want), got)
	}
	for _, m := range got {
		if !want[m] {
			t.Errorf("unexpected completion %q", m)
		}
	}
}

func TestCompleteArguments(t *testing.T) {
	s := newTestSession(t)
	eval(t, s, "sheet Data")
	if got := s.Complete("sheet "); len(got) != 1 || got[0] != "Data" {
		t.Errorf("expected sheet names, got %v", got)
	}
	if got := s.Complete("config "); len(got) == 0 {
		t.Error("expected config subcommands")
	}
	if got := s.Complete("zzz "); len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
	if got := s.Complete("build -"); len(got) == 0 {
		t.Error("expected flag completions")
	}
}

func TestRest(t *testing.T) {
	if got := rest("set  A1   two  words ", 2); got != "two  words" {
		t.Errorf("expected %q, got %q", "two  words", got)
	}
	if got := rest("set A1", 2); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(30 * time.Second); got != "30s" {
		t.Errorf("expected 30s, got %s", got)
	}
	if got := formatDuration(90 * time.Second); got != "1m 30s" {
		t.Errorf("expected 1m 30s, got %s", got)
	}
}
