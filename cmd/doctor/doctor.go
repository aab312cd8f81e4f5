// Package doctor provides the "xlsxkit doctor" command for checking
// that the tool can configure, write and read workbooks.
package doctor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlsxkit/internal/config"
	"github.com/klytics/xlsxkit/internal/inspect"
	"github.com/klytics/xlsxkit/internal/output"
	"github.com/klytics/xlsxkit/internal/watch"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and workbook round-tripping",
		Long:  "Run diagnostic checks to verify xlsxkit is configured and can write and read workbooks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := RunChecks()

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				return output.FprintJSON(cmd.OutOrStdout(), "doctor", checks)
			}
			errCount := render(cmd.OutOrStdout(), checks)
			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func render(out io.Writer, checks []Check) int {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintln(out, "xlsxkit doctor")
	fmt.Fprintln(out, "==============")
	fmt.Fprintln(out)

	okCount, warnCount, errCount := 0, 0, 0
	for _, c := range checks {
		var icon string
		switch c.Status {
		case "ok":
			icon = green("✓")
			okCount++
		case "warning":
			icon = yellow("!")
			warnCount++
		case "error":
			icon = red("✗")
			errCount++
		}
		fmt.Fprintf(out, "  %s %s: %s\n", icon, c.Name, c.Message)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)
	return errCount
}

// RunChecks runs every diagnostic in display order.
func RunChecks() []Check {
	checks := []Check{{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	}}
	checks = append(checks, configChecks()...)
	checks = append(checks, watcherCheck(), roundTripCheck(), pagerCheck())
	return checks
}

func configChecks() []Check {
	path := config.ConfigPath()
	var checks []Check
	if _, err := os.Stat(path); err == nil {
		checks = append(checks, Check{Name: "Config File", Status: "ok", Message: path})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found, run 'xlsxkit config init'",
		})
	}

	if _, err := config.Load(); err != nil {
		return append(checks, Check{Name: "Config Values", Status: "error", Message: err.Error()})
	}
	for _, issue := range config.Validate() {
		if issue.Severity == "info" {
			continue
		}
		checks = append(checks, Check{
			Name:    "Config " + issue.Key,
			Status:  issue.Severity,
			Message: issue.Message,
		})
	}
	return checks
}

func watcherCheck() Check {
	dir := filepath.Dir(config.ConfigPath())
	pid, err := watch.ReadPIDFile(dir)
	if err != nil {
		return Check{Name: "Watcher", Status: "ok", Message: "Not running"}
	}
	if process, err := os.FindProcess(pid); err != nil || process.Signal(syscall.Signal(0)) != nil {
		return Check{
			Name:    "Watcher",
			Status:  "warning",
			Message: fmt.Sprintf("Stale PID file for %d, run 'xlsxkit watch stop'", pid),
		}
	}
	return Check{Name: "Watcher", Status: "ok", Message: fmt.Sprintf("Running (PID %d)", pid)}
}

// roundTripCheck writes a small workbook in memory and reads it back.
func roundTripCheck() Check {
	fail := func(err error) Check {
		return Check{Name: "Workbook Round Trip", Status: "error", Message: err.Error()}
	}

	wb := xlsx.NewWorkbook()
	ws, err := wb.AddWorksheet("Doctor")
	if err != nil {
		return fail(err)
	}
	if err := ws.WriteRow(0, 0, []any{"check", 1.5, true, xlsx.NewFormula("=B1*2")}); err != nil {
		return fail(err)
	}
	data, err := wb.SaveToBuffer()
	if err != nil {
		return fail(err)
	}
	rep, err := inspect.ReadBytes(data, inspect.Options{Values: true})
	if err != nil {
		return fail(err)
	}
	if len(rep.Sheets) != 1 || rep.Sheets[0].Name != "Doctor" {
		return fail(fmt.Errorf("read back unexpected sheets"))
	}
	return Check{
		Name:    "Workbook Round Trip",
		Status:  "ok",
		Message: fmt.Sprintf("%s package with %d parts", output.Size(int64(len(data))), len(rep.Parts)),
	}
}

func pagerCheck() Check {
	args := output.PagerCommand()
	if args == nil {
		return Check{Name: "Pager", Status: "ok", Message: "Disabled"}
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return Check{Name: "Pager", Status: "warning", Message: args[0] + " not found, long output is printed directly"}
	}
	return Check{Name: "Pager", Status: "ok", Message: strings.Join(args, " ")}
}
