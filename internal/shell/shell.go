// Package shell provides the interactive xlsxkit REPL. A session keeps a
// scratch workbook in memory that can be filled cell by cell and saved;
// anything that is not a shell command runs as an xlsxkit subcommand.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/xlsxkit/internal/book"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// CommandRunner executes an xlsxkit command and writes its output.
// It is set by the cmd package to avoid an import cycle.
type CommandRunner func(ctx context.Context, args []string, stdout, stderr io.Writer) error

// DefaultRunner is the command runner used by shell sessions.
var DefaultRunner CommandRunner

// errExit is returned by Eval for "exit" and "quit".
var errExit = fmt.Errorf("exit")

// Session is one interactive shell.
type Session struct {
	Workbook       *xlsx.Workbook
	Current        *xlsx.Worksheet
	LastOutput     string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands drives tab completion.
	KnownCommands []string

	dirty bool
}

var builtins = map[string]string{
	"sheet":   "sheet <name>            select or add a worksheet",
	"sheets":  "sheets                  list worksheets",
	"set":     "set <ref> <value>       write a value (=formula, number, bool, date, text)",
	"merge":   "merge <range> <text>    merge a range",
	"width":   "width <cols> <width>    set column width, e.g. width B:D 14",
	"freeze":  "freeze <ref>            freeze rows above and columns left of ref",
	"autofit": "autofit                 size columns to their content",
	"save":    "save <path>             save the scratch workbook",
	"new":     "new                     discard the scratch workbook",
	"history": "history                 show command history",
	"help":    "help                    show this help",
	"exit":    "exit                    leave the shell",
}

// NewSession creates a session with an empty scratch workbook.
func NewSession() (*Session, error) {
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".xlsxkit", "shell_history")
	os.MkdirAll(filepath.Dir(histFile), 0755)

	s := &Session{
		HistoryFile: histFile,
		StartTime:   time.Now(),
		KnownCommands: []string{
			"build", "write", "inspect", "watch", "config", "doctor", "completion", "version",
			"quit",
		},
	}
	for name := range builtins {
		s.KnownCommands = append(s.KnownCommands, name)
	}
	sort.Strings(s.KnownCommands)
	s.reset()
	return s, nil
}

func (s *Session) reset() {
	s.Workbook = xlsx.NewWorkbook()
	s.Current = nil
	s.dirty = false
}

// Run starts the REPL. It returns on "exit" or Ctrl+D.
func (s *Session) Run(ctx context.Context, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(out, "xlsxkit shell")
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		output, err := s.Eval(ctx, line)
		if err == errExit {
			fmt.Fprintf(out, "\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
			if s.dirty {
				fmt.Fprintln(out, "Unsaved changes were discarded.")
			}
			return nil
		}
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error: %s\n", err)
		} else if output != "" {
			fmt.Fprint(out, output)
			if !strings.HasSuffix(output, "\n") {
				fmt.Fprintln(out)
			}
		}
		rl.SetPrompt(s.prompt())
	}
	return nil
}

func (s *Session) prompt() string {
	if s.Current == nil {
		return "xlsxkit> "
	}
	return fmt.Sprintf("xlsxkit[%s]> ", s.Current.Name())
}

// Eval runs one line and returns its output.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}
	s.CommandHistory = append(s.CommandHistory, line)

	switch args[0] {
	case "exit", "quit":
		return "", errExit
	case "help":
		return s.help(), nil
	case "history":
		var sb strings.Builder
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(&sb, "  %d  %s\n", i+1, cmd)
		}
		return sb.String(), nil
	case "new":
		s.reset()
		return "Started a new workbook\n", nil
	case "sheets":
		var sb strings.Builder
		for _, ws := range s.Workbook.Worksheets() {
			marker := " "
			if ws == s.Current {
				marker = "*"
			}
			fmt.Fprintf(&sb, "%s %s\n", marker, ws.Name())
		}
		return sb.String(), nil
	case "sheet":
		return s.selectSheet(strings.TrimSpace(strings.TrimPrefix(line, "sheet")))
	case "set":
		return s.set(line, args)
	case "merge":
		return s.merge(line, args)
	case "width":
		return s.width(args)
	case "freeze":
		return s.freeze(args)
	case "autofit":
		s.sheet().Autofit()
		return "", nil
	case "save":
		return s.save(args)
	}
	return s.run(ctx, args)
}

// run passes a line to the xlsxkit command tree.
func (s *Session) run(ctx context.Context, args []string) (string, error) {
	if DefaultRunner == nil {
		return "", fmt.Errorf("unknown command %q", args[0])
	}
	var stdout, stderr bytes.Buffer
	err := DefaultRunner(ctx, args, &stdout, &stderr)

	output := stdout.String()
	s.LastOutput = output
	if errOut := stderr.String(); errOut != "" && err != nil {
		return output, fmt.Errorf("%s", strings.TrimSpace(errOut))
	}
	return output, err
}

// sheet returns the current worksheet, adding Sheet1 on first use.
func (s *Session) sheet() *xlsx.Worksheet {
	if s.Current == nil {
		if sheets := s.Workbook.Worksheets(); len(sheets) > 0 {
			s.Current = sheets[0]
		} else {
			s.Current, _ = s.Workbook.AddWorksheet("")
		}
	}
	return s.Current
}

func (s *Session) selectSheet(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("usage: sheet <name>")
	}
	if ws := s.Workbook.Worksheet(name); ws != nil {
		s.Current = ws
		return "", nil
	}
	ws, err := s.Workbook.AddWorksheet(name)
	if err != nil {
		return "", err
	}
	s.Current = ws
	s.dirty = true
	return fmt.Sprintf("Added sheet %s\n", ws.Name()), nil
}

// rest returns line after its first n fields, keeping inner spacing.
func rest(line string, n int) string {
	for i := 0; i < n; i++ {
		line = strings.TrimLeft(line, " \t")
		if j := strings.IndexAny(line, " \t"); j >= 0 {
			line = line[j:]
		} else {
			return ""
		}
	}
	return strings.TrimSpace(line)
}

func (s *Session) set(line string, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: set <ref> <value>")
	}
	row, col, err := book.ParseCell(args[1])
	if err != nil {
		return "", err
	}
	v := book.InferValue(rest(line, 2))
	if v == nil {
		return "", fmt.Errorf("usage: set <ref> <value>")
	}
	if err := s.sheet().Write(row, col, v); err != nil {
		return "", err
	}
	s.dirty = true
	return "", nil
}

func (s *Session) merge(line string, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: merge <range> <text>")
	}
	r, err := book.ParseRange(args[1])
	if err != nil {
		return "", err
	}
	if err := s.sheet().MergeRange(r.FirstRow, r.FirstCol, r.LastRow, r.LastCol, rest(line, 2), xlsx.NewFormat()); err != nil {
		return "", err
	}
	s.dirty = true
	return "", nil
}

func (s *Session) width(args []string) (string, error) {
	if len(args) != 3 {
		return "", fmt.Errorf("usage: width <cols> <width>")
	}
	first, last, err := book.ParseColumns(args[1])
	if err != nil {
		return "", err
	}
	w, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return "", fmt.Errorf("invalid width %q", args[2])
	}
	ws := s.sheet()
	for c := first; c <= last; c++ {
		if err := ws.SetColumnWidth(c, w); err != nil {
			return "", err
		}
	}
	s.dirty = true
	return "", nil
}

func (s *Session) freeze(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: freeze <ref>")
	}
	row, col, err := book.ParseCell(args[1])
	if err != nil {
		return "", err
	}
	if err := s.sheet().FreezePanes(row, col); err != nil {
		return "", err
	}
	s.dirty = true
	return "", nil
}

func (s *Session) save(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("usage: save <path>")
	}
	s.sheet()
	res, err := book.Save(s.Workbook, args[1])
	if err != nil {
		return "", err
	}
	s.dirty = false
	return fmt.Sprintf("Saved %s (%d sheet(s), %d bytes)\n", res.Output, res.Sheets, res.Bytes), nil
}

// Complete returns tab-completion candidates for input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}
	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, cmd := range s.KnownCommands {
			if strings.HasPrefix(cmd, parts[0]) {
				matches = append(matches, cmd)
			}
		}
		return matches
	}
	if strings.HasPrefix(parts[len(parts)-1], "-") {
		return []string{"--json", "--verbose", "--help", "--output"}
	}
	if parts[0] == "sheet" {
		var names []string
		for _, ws := range s.Workbook.Worksheets() {
			names = append(names, ws.Name())
		}
		return names
	}
	return subcommands[parts[0]]
}

var subcommands = map[string][]string{
	"config":     {"init", "show", "set", "get", "validate", "reset", "env"},
	"watch":      {"status"},
	"completion": {"bash", "zsh", "fish", "powershell"},
}

func (s *Session) help() string {
	var sb strings.Builder
	sb.WriteString("Shell commands:\n")
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString("  " + builtins[name] + "\n")
	}
	sb.WriteString("\nxlsxkit commands: build, write, inspect, watch, config, version\n")
	return sb.String()
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range s.KnownCommands {
		var subItems []readline.PrefixCompleterInterface
		for _, sub := range subcommands[cmd] {
			subItems = append(subItems, readline.PcItem(sub))
		}
		items = append(items, readline.PcItem(cmd, subItems...))
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
