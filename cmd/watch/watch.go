// Package watch provides the "xlsxkit watch" commands, which rebuild
// workbooks whenever their descriptions or images change.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/klytics/xlsxkit/cmd/build"
	"github.com/klytics/xlsxkit/internal/book"
	"github.com/klytics/xlsxkit/internal/config"
	"github.com/klytics/xlsxkit/internal/output"
	w "github.com/klytics/xlsxkit/internal/watch"
)

// NewCommand creates the "watch" command with subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild workbooks when their descriptions change",
		Long: `Watch directories for workbook descriptions and rebuild the matching
.xlsx whenever a description, or an image it uses, is written.

Example:
  xlsxkit watch start ./books --out ./dist
  xlsxkit watch status
  xlsxkit watch stop`,
	}

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newStatusCmd())
	return cmd
}

// rebuilder builds descriptions and keeps the watcher's dependency
// table current.
type rebuilder struct {
	watcher *w.Watcher
	opts    book.Options
	outDir  string
	out     io.Writer
}

func (r *rebuilder) build(path string) error {
	b, err := book.Load(path)
	if err != nil {
		return err
	}
	opts := r.opts
	opts.BaseDir = filepath.Dir(path)
	r.watcher.Depend(path, b.Dependencies(opts.BaseDir)...)

	wb, err := book.Build(b, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	res, err := book.Save(wb, book.OutputPath(path, r.outDir))
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Built %s (%d sheet(s), %s)\n", res.Output, res.Sheets, output.Size(res.Bytes))
	return nil
}

// initial builds every matching description already present.
func (r *rebuilder) initial(dirs []string, patterns []string) {
	for _, dir := range dirs {
		for _, p := range patterns {
			matches, _ := filepath.Glob(filepath.Join(dir, p))
			for _, m := range matches {
				if err := r.build(m); err != nil {
					fmt.Fprintf(r.out, "Error: %v\n", err)
				}
			}
		}
	}
}

func newStartCmd() *cobra.Command {
	var (
		outDir    string
		patterns  []string
		recursive bool
		debounce  int
		noInitial bool
	)

	cmd := &cobra.Command{
		Use:   "start <directory> [directory...]",
		Short: "Start watching directories for description changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			opts, err := build.Options(cmd, verbose)
			if err != nil {
				return err
			}

			watcher, err := w.New(w.Config{
				Directories: args,
				Patterns:    patterns,
				Recursive:   recursive,
				Debounce:    debounce,
			})
			if err != nil {
				return err
			}
			r := &rebuilder{watcher: watcher, opts: opts, outDir: outDir, out: cmd.OutOrStdout()}
			watcher.Handler = r.build

			if !noInitial {
				r.initial(args, watcher.Config.Patterns)
			}

			pidDir := filepath.Dir(config.ConfigPath())
			if err := os.MkdirAll(pidDir, 0700); err == nil {
				if err := w.WritePIDFile(pidDir); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not write PID file: %v\n", err)
				}
				defer w.RemovePIDFile(pidDir)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d directory(ies) for %s\n",
				len(args), strings.Join(watcher.Config.Patterns, ", "))
			fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return watcher.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "Directory for built workbooks (default: next to each description)")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Description file patterns (default: *.yaml,*.yml,*.json)")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 300, "Debounce interval in milliseconds")
	cmd.Flags().BoolVar(&noInitial, "no-initial", false, "Skip building existing descriptions on start")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidDir := filepath.Dir(config.ConfigPath())
			pid, err := w.ReadPIDFile(pidDir)
			if err != nil {
				return fmt.Errorf("no watcher running (PID file not found)")
			}
			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("could not find process %d: %w", pid, err)
			}
			w.RemovePIDFile(pidDir)
			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("could not stop watcher (PID %d): %w", pid, err)
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return output.FprintJSON(cmd.OutOrStdout(), "watch stop", map[string]any{"stopped": true, "pid": pid})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped watcher (PID %d)\n", pid)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a watcher is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidDir := filepath.Dir(config.ConfigPath())
			pid, err := w.ReadPIDFile(pidDir)
			running := err == nil
			if running {
				// Signal 0 checks the process exists without touching it.
				if process, err := os.FindProcess(pid); err != nil || process.Signal(syscall.Signal(0)) != nil {
					running = false
					w.RemovePIDFile(pidDir)
				}
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				status := map[string]any{"running": running}
				if running {
					status["pid"] = pid
				}
				return output.FprintJSON(cmd.OutOrStdout(), "watch status", status)
			}
			if !running {
				fmt.Fprintln(cmd.OutOrStdout(), "Watcher is not running")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watcher is running (PID %d)\n", pid)
			return nil
		},
	}
}
