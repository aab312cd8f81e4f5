// Package shell provides the "xlsxkit shell" interactive REPL command.
package shell

import (
	"fmt"

	"github.com/spf13/cobra"

	shellpkg "github.com/klytics/xlsxkit/internal/shell"
)

// NewCommand creates the "shell" command.
func NewCommand() *cobra.Command {
	var evalCmds []string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive xlsxkit shell",
		Long: `Start an interactive REPL with a scratch workbook and tab completion.

Fill cells with 'set A1 value', add sheets with 'sheet Name' and write
the result with 'save out.xlsx'. Other lines run as xlsxkit commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := shellpkg.NewSession()
			if err != nil {
				return err
			}
			if len(evalCmds) > 0 {
				for _, line := range evalCmds {
					out, err := session.Eval(cmd.Context(), line)
					if err != nil {
						return fmt.Errorf("%s: %w", line, err)
					}
					fmt.Fprint(cmd.OutOrStdout(), out)
				}
				return nil
			}
			return session.Run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVarP(&evalCmds, "eval", "e", nil, "Run a shell line and exit (repeatable)")
	return cmd
}
