// Package build provides the "xlsxkit build" command, which turns a YAML
// or JSON workbook description into an .xlsx file.
package build

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/klytics/xlsxkit/internal/book"
	"github.com/klytics/xlsxkit/internal/config"
	"github.com/klytics/xlsxkit/internal/output"
	"github.com/klytics/xlsxkit/internal/progress"
)

// NewCommand returns the build command.
func NewCommand() *cobra.Command {
	var (
		outPath string
		outDir  string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "build <book.yaml> [book.yaml...]",
		Short: "Build workbooks from YAML or JSON descriptions",
		Long: `Builds an .xlsx file from each workbook description.

A description lists sheets with their cells, rows, records, merges,
tables, conditional formats, images and charts. Values starting with "="
are formulas and ISO dates become date-times.

Example:
  xlsxkit build report.yaml
  xlsxkit build report.yaml -o out/q1.xlsx
  xlsxkit build books/*.yaml --dir out/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if outPath != "" && len(args) > 1 {
				return fmt.Errorf("--output names a single file; use --dir when building %d descriptions", len(args))
			}

			opts, err := Options(cmd, verbose)
			if err != nil {
				return err
			}

			var results []*book.Result
			for _, desc := range args {
				b, err := book.Load(desc)
				if err != nil {
					return err
				}
				opts.BaseDir = filepath.Dir(desc)

				bar := progress.New(cmd.ErrOrStderr(), filepath.Base(desc), len(b.Sheets))
				opts.OnSheet = bar.OnSheet
				wb, err := book.Build(b, opts)
				if err != nil {
					return fmt.Errorf("%s: %w", desc, err)
				}

				target := outPath
				if target == "" {
					target = book.OutputPath(desc, outDir)
				}
				if dryRun {
					bar.Finish(fmt.Sprintf("%s is valid", desc))
					results = append(results, &book.Result{Output: target, Sheets: len(wb.Worksheets())})
					continue
				}
				bar.Finish(fmt.Sprintf("Built %d sheet(s) from %s", len(wb.Worksheets()), desc))

				spin := progress.NewSpinner(cmd.ErrOrStderr(), "Writing "+target)
				spin.Start()
				res, err := book.Save(wb, target)
				if err != nil {
					spin.Stop("")
					return err
				}
				spin.Stop(fmt.Sprintf("Wrote %s", res.Output))
				results = append(results, res)
			}

			if jsonFlag {
				return output.FprintJSON(cmd.OutOrStdout(), "build", results)
			}
			w := output.NewWriterTo(cmd.OutOrStdout(), output.FormatText)
			for _, r := range results {
				if dryRun {
					w.Success("%s: %d sheet(s), not written (dry run)", r.Output, r.Sheets)
					continue
				}
				w.Success("Wrote %s (%d sheet(s), %s)", r.Output, r.Sheets, output.Size(r.Bytes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output .xlsx path (default: description name with .xlsx)")
	cmd.Flags().StringVar(&outDir, "dir", "", "Directory for built workbooks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and build in memory without writing")
	return cmd
}

// Options returns build options filled from the user's configuration.
// With verbose set, the writer logs to the command's stderr.
func Options(cmd *cobra.Command, verbose bool) (book.Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return book.Options{}, fmt.Errorf("could not load config: %w", err)
	}
	opts := book.Options{Defaults: cfg.BookDefaults()}
	if verbose {
		opts.Logger = log.New(cmd.ErrOrStderr(), "[xlsx] ", 0)
	}
	return opts, nil
}
