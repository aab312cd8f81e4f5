package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, cfg Config) *Watcher {
	t.Helper()
	w, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { w.watcher.Close() })
	return w
}

func TestDefaults(t *testing.T) {
	w := newTestWatcher(t, Config{})
	if w.Config.Debounce != 300 {
		t.Errorf("expected default debounce 300, got %d", w.Config.Debounce)
	}
	if len(w.Config.Patterns) != len(DefaultPatterns) {
		t.Errorf("expected default patterns, got %v", w.Config.Patterns)
	}
}

func TestMatches(t *testing.T) {
	w := newTestWatcher(t, Config{Patterns: []string{"report_*.yaml"}})
	if !w.matches("/tmp/report_q1.yaml") {
		t.Error("should match report_q1.yaml")
	}
	if w.matches("/tmp/notes.yaml") {
		t.Error("should not match notes.yaml")
	}
}

func TestTargetsFollowDependencies(t *testing.T) {
	w := newTestWatcher(t, Config{})
	w.Depend("/books/a.yaml", "/books/logo.png")
	w.Depend("/books/b.yaml", "/books/logo.png", "/books/chart.png")

	got := w.targets("/books/logo.png")
	if len(got) != 2 || got[0] != "/books/a.yaml" || got[1] != "/books/b.yaml" {
		t.Errorf("expected both descriptions, got %v", got)
	}
	if got := w.targets("/books/a.yaml"); len(got) != 1 || got[0] != "/books/a.yaml" {
		t.Errorf("a description should rebuild itself, got %v", got)
	}
	if got := w.targets("/books/readme.txt"); len(got) != 0 {
		t.Errorf("expected no targets, got %v", got)
	}

	// Redeclaring replaces the old dependency set.
	w.Depend("/books/b.yaml")
	if got := w.targets("/books/chart.png"); len(got) != 0 {
		t.Errorf("expected chart.png to be forgotten, got %v", got)
	}
	if s := w.GetStatus(); s.Descriptions != 2 {
		t.Errorf("expected 2 known descriptions, got %d", s.Descriptions)
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{Directories: []string{dir}, Debounce: 50})

	rebuilt := make(chan string, 4)
	w.Handler = func(path string) error {
		rebuilt <- path
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	desc := filepath.Join(dir, "book.yaml")
	os.WriteFile(desc, []byte("sheets: []\n"), 0644)

	select {
	case path := <-rebuilt:
		if path != desc {
			t.Errorf("expected %q, got %q", desc, path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for rebuild")
	}
	cancel()
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, Config{Directories: []string{dir}, Debounce: 50})

	rebuilt := make(chan string, 1)
	w.Handler = func(path string) error {
		rebuilt <- path
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(filepath.Join(dir, "out.xlsx"), []byte("zip"), 0644)
	select {
	case path := <-rebuilt:
		t.Errorf("unexpected rebuild of %s", path)
	case <-time.After(300 * time.Millisecond):
	}
	cancel()
}

func TestRebuildRecordsErrors(t *testing.T) {
	w := newTestWatcher(t, Config{})
	w.Handler = func(string) error { return os.ErrNotExist }
	w.rebuild("/books/a.yaml", "/books/a.yaml")

	events := w.GetEvents()
	if len(events) != 1 || events[0].Status != "error" || events[0].Error == "" {
		t.Errorf("expected one error event, got %+v", events)
	}
}

func TestPIDFile(t *testing.T) {
	dir := t.TempDir()
	if err := WritePIDFile(dir); err != nil {
		t.Fatalf("WritePIDFile failed: %v", err)
	}
	pid, err := ReadPIDFile(dir)
	if err != nil {
		t.Fatalf("ReadPIDFile failed: %v", err)
	}
	if pid != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), pid)
	}
	if err := RemovePIDFile(dir); err != nil {
		t.Fatalf("RemovePIDFile failed: %v", err)
	}
	if _, err := ReadPIDFile(dir); err == nil {
		t.Error("expected error after removing PID file")
	}
}
