// Package progress reports workbook build progress on the terminal.
// Callers pass stderr so stdout stays clean for pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Bar draws a sheet-by-sheet progress bar.
type Bar struct {
	Total   int
	Current int
	Label   string
	Width   int
	Enabled bool

	out io.Writer
	mu  sync.Mutex
}

// New creates a bar on w. It is disabled unless w is a terminal, and
// always when XLSXKIT_NO_PROGRESS=1 or XLSXKIT_JSON=true.
func New(w io.Writer, label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: shouldEnable(w),
		out:     w,
	}
}

// Set moves the bar to n of total.
func (b *Bar) Set(n int, status string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Current = n
	if b.Current > b.Total {
		b.Current = b.Total
	}
	b.render(status)
}

// OnSheet adapts the bar to the build callback, which reports the
// number of finished sheets and the sheet being built next.
func (b *Bar) OnSheet(done, total int, name string) {
	b.mu.Lock()
	b.Total = total
	b.mu.Unlock()
	b.Set(done, name)
}

// Finish clears the bar and prints a completion line.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	fmt.Fprintf(b.writer(), "\r\033[K✓ %s\n", summary)
}

func (b *Bar) writer() io.Writer {
	if b.out == nil {
		return os.Stderr
	}
	return b.out
}

func (b *Bar) render(status string) {
	if !b.Enabled {
		return
	}

	filled, pct := 0, 0
	if b.Total > 0 {
		filled = b.Current * b.Width / b.Total
		pct = b.Current * 100 / b.Total
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", b.Width-filled)
	fmt.Fprintf(b.writer(), "\r\033[K%s [%s] %d/%d %3d%%  %s",
		b.Label, bar, b.Current, b.Total, pct, status)
}

// Spinner is shown while a package is compressed and written, where no
// total is known.
type Spinner struct {
	Label   string
	Enabled bool

	out     io.Writer
	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner on w, enabled under the same rules as New.
func NewSpinner(w io.Writer, label string) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: shouldEnable(w),
		out:     w,
		done:    make(chan struct{}),
	}
}

// Start begins the animation.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}

	s.mu.Lock()
	s.stopped = false
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		frames := `|/-\`
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Fprintf(s.writer(), "\r\033[K%c %s", frames[i%len(frames)], s.Label)
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and prints result. An empty result just
// clears the line.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	select {
	case <-s.done:
	default:
		close(s.done)
	}

	switch {
	case !s.Enabled:
	case result == "":
		fmt.Fprint(s.writer(), "\r\033[K")
	default:
		fmt.Fprintf(s.writer(), "\r\033[K✓ %s\n", result)
	}
}

func (s *Spinner) writer() io.Writer {
	if s.out == nil {
		return os.Stderr
	}
	return s.out
}

func shouldEnable(w io.Writer) bool {
	if os.Getenv("XLSXKIT_NO_PROGRESS") == "1" {
		return false
	}
	if os.Getenv("XLSXKIT_JSON") == "true" {
		return false
	}
	return isTTY(w)
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
