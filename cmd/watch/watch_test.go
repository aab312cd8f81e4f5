package watch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/klytics/xlsxkit/internal/book"
	w "github.com/klytics/xlsxkit/internal/watch"
)

func TestRebuilderBuildsAndTracksImages(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	desc := filepath.Join(dir, "report.yaml")
	doc := "sheets:\n  - name: Data\n    cells: [{ref: A1, value: 1}]\n"
	if err := os.WriteFile(desc, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	watcher, err := w.New(w.Config{Directories: []string{dir}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var buf bytes.Buffer
	r := &rebuilder{watcher: watcher, opts: book.Options{}, outDir: out, out: &buf}
	r.initial([]string{dir}, watcher.Config.Patterns)

	if _, err := os.Stat(filepath.Join(out, "report.xlsx")); err != nil {
		t.Fatalf("expected report.xlsx to be built: %v", err)
	}
	if !strings.Contains(buf.String(), "Built ") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if s := watcher.GetStatus(); s.Descriptions != 1 {
		t.Errorf("expected 1 known description, got %d", s.Descriptions)
	}
}

func TestRebuilderReportsErrors(t *testing.T) {
	dir := t.TempDir()
	desc := filepath.Join(dir, "broken.yaml")
	os.WriteFile(desc, []byte("sheets: []\n"), 0o644)

	watcher, err := w.New(w.Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r := &rebuilder{watcher: watcher, out: &bytes.Buffer{}}
	if err := r.build(desc); err == nil {
		t.Error("expected error for a description without sheets")
	}
}

func TestStatusNotRunning(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	root := &cobra.Command{Use: "xlsxkit"}
	root.PersistentFlags().Bool("json", false, "")
	root.AddCommand(NewCommand())
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"watch", "status"})
	if err := root.Execute(); err != nil {
		t.Fatalf("watch status failed: %v", err)
	}
	if !strings.Contains(buf.String(), "not running") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
