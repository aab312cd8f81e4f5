// Package watch rebuilds workbooks when their descriptions change.
// It monitors directories for description files and for the files those
// descriptions pull in, such as images, and calls a handler for each
// description that needs a rebuild.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPatterns match workbook descriptions.
var DefaultPatterns = []string{"*.yaml", "*.yml", "*.json"}

// Config controls what is watched.
type Config struct {
	Directories []string `json:"directories"`
	Patterns    []string `json:"patterns"`
	Recursive   bool     `json:"recursive"`
	Debounce    int      `json:"debounceMs"`
}

// Event records one rebuild attempt.
type Event struct {
	Time    time.Time `json:"time"`
	Path    string    `json:"path"`
	Trigger string    `json:"trigger"`
	Status  string    `json:"status"` // "built", "error"
	Error   string    `json:"error,omitempty"`
}

// Handler rebuilds the description at path.
type Handler func(path string) error

// Status summarises a running watcher.
type Status struct {
	Running      bool     `json:"running"`
	Directories  []string `json:"directories"`
	Descriptions int      `json:"descriptions"`
	EventCount   int      `json:"eventCount"`
}

// Watcher monitors directories and triggers rebuilds.
type Watcher struct {
	Config  Config
	Logger  *log.Logger
	Handler Handler

	mu       sync.Mutex
	events   []Event
	deps     map[string]map[string]bool // dependency -> descriptions
	known    map[string]bool
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
}

// New creates a Watcher. Patterns default to DefaultPatterns and the
// debounce to 300ms.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300
	}
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = DefaultPatterns
	}
	return &Watcher{
		Config:   cfg,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		deps:     make(map[string]map[string]bool),
		known:    make(map[string]bool),
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Depend records that the description at desc reads the given files, so
// a change to any of them rebuilds desc. Earlier dependencies of desc are
// replaced.
func (w *Watcher) Depend(desc string, files ...string) {
	desc = absPath(desc)
	w.mu.Lock()
	defer w.mu.Unlock()

	w.known[desc] = true
	for dep, owners := range w.deps {
		delete(owners, desc)
		if len(owners) == 0 {
			delete(w.deps, dep)
		}
	}
	for _, f := range files {
		f = absPath(f)
		if w.deps[f] == nil {
			w.deps[f] = make(map[string]bool)
		}
		w.deps[f][desc] = true
	}
}

// Start watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}
		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.Logger.Printf("Watching %d directory(ies) for %s", len(w.Config.Directories), strings.Join(w.Config.Patterns, ", "))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("Stopping watcher")
			w.mu.Lock()
			for _, t := range w.debounce {
				t.Stop()
			}
			w.mu.Unlock()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") {
		return
	}
	for _, desc := range w.targets(event.Name) {
		w.schedule(desc, event.Name)
	}
}

// targets returns the descriptions to rebuild for a change at path.
func (w *Watcher) targets(path string) []string {
	path = absPath(path)
	seen := make(map[string]bool)
	if w.matches(path) {
		seen[path] = true
	}
	w.mu.Lock()
	for desc := range w.deps[path] {
		seen[desc] = true
	}
	w.mu.Unlock()

	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) schedule(desc, trigger string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[desc]; ok {
		timer.Stop()
	}
	w.debounce[desc] = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.rebuild(desc, trigger)
	})
}

func (w *Watcher) rebuild(desc, trigger string) {
	evt := Event{Time: time.Now(), Path: desc, Trigger: trigger, Status: "built"}
	if w.Handler != nil {
		if err := w.Handler(desc); err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Printf("Rebuild of %s failed: %v", desc, err)
		} else {
			w.Logger.Printf("Rebuilt %s", desc)
		}
	}
	w.mu.Lock()
	w.known[desc] = true
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func (w *Watcher) matches(path string) bool {
	base := filepath.Base(path)
	for _, p := range w.Config.Patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

// GetStatus returns the current watcher status.
func (w *Watcher) GetStatus() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Status{
		Running:      true,
		Directories:  w.Config.Directories,
		Descriptions: len(w.known),
		EventCount:   len(w.events),
	}
}

// GetEvents returns the recorded rebuilds.
func (w *Watcher) GetEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}

const pidFile = ".xlsxkit-watch.pid"

// WritePIDFile writes the current process ID into dir.
func WritePIDFile(dir string) error {
	return os.WriteFile(filepath.Join(dir, pidFile), []byte(fmt.Sprintf("%d", os.Getpid())), 0644)
}

// ReadPIDFile reads the PID written by WritePIDFile.
func ReadPIDFile(dir string) (int, error) {
	data, err := os.ReadFile(filepath.Join(dir, pidFile))
	if err != nil {
		return 0, err
	}
	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// RemovePIDFile removes the PID file.
func RemovePIDFile(dir string) error {
	return os.Remove(filepath.Join(dir, pidFile))
}
