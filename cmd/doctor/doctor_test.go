package doctor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
)

func TestRunChecksFreshHome(t *testing.T) {
	viper.Reset()
	t.Setenv("HOME", t.TempDir())

	checks := RunChecks()
	byName := make(map[string]Check)
	for _, c := range checks {
		byName[c.Name] = c
	}

	if c := byName["Config File"]; c.Status != "warning" {
		t.Errorf("expected missing config warning, got %+v", c)
	}
	if c := byName["Watcher"]; c.Status != "ok" || c.Message != "Not running" {
		t.Errorf("expected idle watcher, got %+v", c)
	}
	if c := byName["Workbook Round Trip"]; c.Status != "ok" {
		t.Errorf("round trip failed: %+v", c)
	}
}

func TestRender(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	errs := render(&buf, []Check{
		{Name: "A", Status: "ok", Message: "fine"},
		{Name: "B", Status: "warning", Message: "hmm"},
		{Name: "C", Status: "error", Message: "broken"},
	})
	if errs != 1 {
		t.Errorf("expected 1 error, got %d", errs)
	}
	if !strings.Contains(buf.String(), "1 passed, 1 warnings, 1 errors") {
		t.Errorf("unexpected summary: %s", buf.String())
	}
}
