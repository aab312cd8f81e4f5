package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/klytics/xlsxkit/internal/output"
	shellpkg "github.com/klytics/xlsxkit/internal/shell"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := runCommand(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XLSXKIT_NO_PROGRESS", "1")
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestSubcommandsRegistered(t *testing.T) {
	root := NewRootCommand()
	want := []string{"build", "write", "inspect", "watch", "shell", "config", "doctor", "completion", "version"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
			}
		}
		if !found {
			t.Errorf("expected subcommand %q", name)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "xlsxkit ") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestBuildThenInspect(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	desc := filepath.Join(dir, "budget.yaml")
	doc := `properties:
  title: Budget
sheets:
  - name: Plan
    rows:
      - at: A1
        values: [Item, Cost]
      - at: A2
        values: [Rent, 1200]
    cells:
      - ref: B3
        value: =SUM(B2:B2)
`
	if err := os.WriteFile(desc, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "build", desc, "--no-color")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	built := filepath.Join(dir, "budget.xlsx")
	if !strings.Contains(out, built) {
		t.Errorf("expected output path in %q", out)
	}

	out, err = run(t, "inspect", built, "--json")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.Contains(out, `"title": "Budget"`) || !strings.Contains(out, `"name": "Plan"`) {
		t.Errorf("unexpected inspect output:\n%s", out)
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	desc := filepath.Join(dir, "a.yaml")
	os.WriteFile(desc, []byte("sheets: [{name: A}]\n"), 0o644)

	if _, err := run(t, "build", desc, "--dry-run"); err != nil {
		t.Fatalf("build --dry-run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.xlsx")); !os.IsNotExist(err) {
		t.Error("dry run should not write a workbook")
	}
}

func TestBuildRejectsOutputWithManyInputs(t *testing.T) {
	isolate(t)
	if _, err := run(t, "build", "a.yaml", "b.yaml", "-o", "x.xlsx"); err == nil {
		t.Error("expected error for --output with several descriptions")
	}
}

func TestShellUsesCommandTree(t *testing.T) {
	isolate(t)
	if shellpkg.DefaultRunner == nil {
		t.Fatal("expected the shell runner to be wired")
	}
	s, err := shellpkg.NewSession()
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	out, err := s.Eval(context.Background(), "version")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if !strings.Contains(out, "xlsxkit") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := run(t, "shell"); err == nil {
		t.Error("expected nested shell to be refused")
	}
}

func TestExitCode(t *testing.T) {
	if got := ExitCode(nil); got != output.ExitOK {
		t.Errorf("expected %d, got %d", output.ExitOK, got)
	}
	if got := ExitCode(errors.New("bad flag")); got != output.ExitUserError {
		t.Errorf("expected user error, got %d", got)
	}
	pkgErr := fmt.Errorf("save: %w", &xlsx.PackageError{Part: "xl/workbook.xml", Err: errors.New("disk full")})
	if got := ExitCode(pkgErr); got != output.ExitSystemError {
		t.Errorf("expected system error, got %d", got)
	}
}
