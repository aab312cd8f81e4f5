// Package cmd contains all CLI commands for the xlsxkit binary.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlsxkit/cmd/build"
	"github.com/klytics/xlsxkit/cmd/completion"
	cmdconfig "github.com/klytics/xlsxkit/cmd/config"
	"github.com/klytics/xlsxkit/cmd/doctor"
	"github.com/klytics/xlsxkit/cmd/inspect"
	cmdshell "github.com/klytics/xlsxkit/cmd/shell"
	"github.com/klytics/xlsxkit/cmd/version"
	cmdwatch "github.com/klytics/xlsxkit/cmd/watch"
	"github.com/klytics/xlsxkit/cmd/write"
	"github.com/klytics/xlsxkit/internal/output"
	shellpkg "github.com/klytics/xlsxkit/internal/shell"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

func init() {
	// Subcommand groups add their own pre-run hooks; the root one must
	// still run.
	cobra.EnableTraverseRunHooks = true
	shellpkg.DefaultRunner = runCommand
}

// NewRootCommand creates the root command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)

	rootCmd := &cobra.Command{
		Use:   "xlsxkit",
		Short: "Build Excel workbooks from data and descriptions",
		Long: `xlsxkit writes Office Open XML spreadsheets (.xlsx).

Describe a workbook in YAML and build it, write JSON or CSV straight to
a formatted sheet, inspect what a package contains, or rebuild on every
save with watch.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
			if jsonOutput {
				os.Setenv("XLSXKIT_JSON", "true")
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log writer warnings to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	rootCmd.AddCommand(build.NewCommand())
	rootCmd.AddCommand(write.NewCommand())
	rootCmd.AddCommand(inspect.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdshell.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// runCommand runs one command line inside the shell.
func runCommand(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "shell" {
		return fmt.Errorf("already in a shell")
	}
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// ExitCode maps an error to the process exit code: package and I/O
// failures are system errors, everything else is a usage error.
func ExitCode(err error) int {
	if err == nil {
		return output.ExitOK
	}
	var pkgErr *xlsx.PackageError
	var pathErr *os.PathError
	if errors.As(err, &pkgErr) || errors.As(err, &pathErr) {
		return output.ExitSystemError
	}
	return output.ExitUserError
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	if cmd == nil {
		cmd = rootCmd
	}
	code := ExitCode(err)
	if jsonFlag, _ := cmd.Flags().GetBool("json"); jsonFlag {
		output.PrintJSONError(cmd.CommandPath(), err, code)
	} else {
		output.WriteError("%s", err)
	}
	os.Exit(code)
}
