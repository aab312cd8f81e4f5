// Package inspect provides the "xlsxkit inspect" command.
package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/text/width"

	inspectpkg "github.com/klytics/xlsxkit/internal/inspect"
	"github.com/klytics/xlsxkit/internal/output"
)

// NewCommand returns the inspect command.
func NewCommand() *cobra.Command {
	var (
		sheetName string
		showRows  bool
		csvOutput bool
		maxRows   int
		showParts bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <file.xlsx|->",
		Short: "Show what a workbook contains",
		Long: `Reads an .xlsx file and summarises its sheets, tables, merges, defined
names and media. Use --rows to print cell values and --csv to export a
sheet as CSV. Pass '-' to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			opts := inspectpkg.Options{Sheet: sheetName, Values: showRows || csvOutput}

			var (
				rep *inspectpkg.Report
				err error
			)
			if args[0] == "-" {
				data, readErr := io.ReadAll(cmd.InOrStdin())
				if readErr != nil {
					return fmt.Errorf("could not read from stdin: %w", readErr)
				}
				rep, err = inspectpkg.ReadBytes(data, opts)
			} else {
				rep, err = inspectpkg.ReadFile(args[0], opts)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case jsonFlag:
				return output.FprintJSON(out, "inspect", rep)
			case csvOutput:
				for _, s := range rep.Sheets {
					if len(rep.Sheets) > 1 {
						fmt.Fprintf(cmd.ErrOrStderr(), "--- %s ---\n", s.Name)
					}
					if err := s.WriteCSV(out); err != nil {
						return err
					}
				}
				return nil
			}

			text := summary(rep, showParts)
			if showRows {
				var sb strings.Builder
				for _, s := range rep.Sheets {
					renderRows(&sb, s, maxRows)
				}
				text += sb.String()
			}
			if out == os.Stdout && output.ShouldPage(text, 50) {
				return output.Page(text)
			}
			fmt.Fprint(out, text)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Inspect only the named sheet")
	cmd.Flags().BoolVar(&showRows, "rows", false, "Print cell values")
	cmd.Flags().IntVar(&maxRows, "max-rows", 20, "Rows to print per sheet with --rows (0 for all)")
	cmd.Flags().BoolVar(&csvOutput, "csv", false, "Print cell values as CSV")
	cmd.Flags().BoolVar(&showParts, "parts", false, "List the package parts")
	return cmd
}

func summary(rep *inspectpkg.Report, parts bool) string {
	var sb strings.Builder
	heading := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	if p := rep.Properties; p.Title != "" || p.Creator != "" {
		heading.Fprintln(&sb, "Properties")
		for _, kv := range [][2]string{{"title", p.Title}, {"subject", p.Subject}, {"creator", p.Creator}, {"keywords", p.Keywords}, {"created", p.Created}} {
			if kv[1] != "" {
				fmt.Fprintf(&sb, "  %-9s %s\n", kv[0]+":", kv[1])
			}
		}
		sb.WriteString("\n")
	}

	heading.Fprintf(&sb, "Sheets (%d)\n", len(rep.Sheets))
	for _, s := range rep.Sheets {
		fmt.Fprintf(&sb, "  %-24s %-12s %s rows", s.Name, s.Dimension, output.Count(s.RowCount))
		if !s.Visible {
			dim.Fprint(&sb, "  hidden")
		}
		sb.WriteString("\n")
		for _, t := range s.Tables {
			fmt.Fprintf(&sb, "    table  %s\n", t)
		}
		if len(s.Merges) > 0 {
			fmt.Fprintf(&sb, "    merges %s\n", strings.Join(s.Merges, ", "))
		}
		if s.Conditionals > 0 {
			fmt.Fprintf(&sb, "    %d conditional format rule(s)\n", s.Conditionals)
		}
	}
	sb.WriteString("\n")

	if len(rep.Names) > 0 {
		heading.Fprintln(&sb, "Defined names")
		for _, n := range rep.Names {
			scope := ""
			if n.Scope != "" && n.Scope != "Workbook" {
				scope = " (" + n.Scope + ")"
			}
			fmt.Fprintf(&sb, "  %s%s = %s\n", n.Name, scope, n.RefersTo)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%s, %d part(s), %d chart(s), %d image(s)\n",
		output.Size(rep.Size), len(rep.Parts), rep.Charts, rep.Images)
	if parts {
		for _, p := range rep.Parts {
			dim.Fprintf(&sb, "  %s\n", p)
		}
	}
	return sb.String()
}

// displayWidth counts terminal columns; East Asian wide runes take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// clip shortens s to at most w columns, marking the cut with "~".
func clip(s string, w int) string {
	if displayWidth(s) <= w {
		return s
	}
	n := 0
	for i, r := range s {
		rw := displayWidth(string(r))
		if n+rw > w-1 {
			return s[:i] + "~"
		}
		n += rw
	}
	return s
}

func renderRows(sb *strings.Builder, s inspectpkg.Sheet, maxRows int) {
	heading := color.New(color.Bold, color.FgCyan)
	dim := color.New(color.FgHiBlack)

	heading.Fprintf(sb, "%s\n", s.Name)
	rows := s.Rows
	if len(rows) == 0 {
		dim.Fprintln(sb, "  (empty)")
		sb.WriteString("\n")
		return
	}
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	var widths []int
	for _, row := range rows {
		for j, cell := range row {
			for len(widths) <= j {
				widths = append(widths, 3)
			}
			if w := displayWidth(cell); w > widths[j] {
				widths[j] = w
			}
		}
	}
	for i := range widths {
		if widths[i] > 40 {
			widths[i] = 40
		}
	}

	for i, row := range rows {
		sb.WriteString("  ")
		for j, w := range widths {
			if j > 0 {
				sb.WriteString("| ")
			}
			cell := ""
			if j < len(row) {
				cell = clip(row[j], w)
			}
			sb.WriteString(cell + strings.Repeat(" ", w-displayWidth(cell)+1))
		}
		sb.WriteString("\n")
		if i == 0 && len(rows) > 1 {
			sb.WriteString("  ")
			for j, w := range widths {
				if j > 0 {
					sb.WriteString("+-")
				}
				sb.WriteString(strings.Repeat("-", w+1))
			}
			sb.WriteString("\n")
		}
	}
	if hidden := len(s.Rows) - len(rows); hidden > 0 {
		dim.Fprintf(sb, "  ... %d more row(s)\n", hidden)
	}
	sb.WriteString("\n")
}
