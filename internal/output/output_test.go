package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatText, "text": FormatText, "json": FormatJSON, "csv": FormatCSV}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q): expected %d, got %d", in, want, got)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFprintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FprintJSON(&buf, "build", map[string]int{"sheets": 2}); err != nil {
		t.Fatalf("FprintJSON failed: %v", err)
	}
	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !res.OK || res.Command != "build" || res.Version == "" {
		t.Errorf("unexpected envelope: %+v", res)
	}
}

func TestFprintJSONError(t *testing.T) {
	var buf bytes.Buffer
	if err := FprintJSONError(&buf, "inspect", errors.New("file not found"), ExitUserError); err != nil {
		t.Fatalf("FprintJSONError failed: %v", err)
	}
	var res JSONResult
	if err := json.Unmarshal(buf.Bytes(), &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.OK || res.Error != "file not found" || res.Code != ExitUserError {
		t.Errorf("unexpected envelope: %+v", res)
	}
}

func TestWriterStatusLines(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	w := NewWriterTo(&buf, FormatText)
	w.Success("wrote %s", "out.xlsx")
	w.Warn("skipped %d", 1)
	if got := buf.String(); got != "wrote out.xlsx\nskipped 1\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSizeAndCount(t *testing.T) {
	if got := Size(2048); !strings.Contains(got, "kB") {
		t.Errorf("expected kB, got %q", got)
	}
	if got := Count(1234567); got != "1,234,567" {
		t.Errorf("expected 1,234,567, got %q", got)
	}
}

func TestPagerCommand(t *testing.T) {
	t.Setenv("XLSXKIT_PAGER", "more -s")
	if got := PagerCommand(); len(got) != 2 || got[0] != "more" || got[1] != "-s" {
		t.Errorf("expected [more -s], got %v", got)
	}
	t.Setenv("XLSXKIT_PAGER", "cat")
	if got := PagerCommand(); got != nil {
		t.Errorf("expected paging off for cat, got %v", got)
	}
	t.Setenv("XLSXKIT_PAGER", "")
	if got := PagerCommand(); got != nil {
		t.Errorf("expected paging off for empty override, got %v", got)
	}
}
