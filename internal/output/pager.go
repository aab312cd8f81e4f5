package output

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PagerCommand returns the pager command line: XLSXKIT_PAGER, then
// PAGER, then "less -R". An empty result means paging is off, which
// XLSXKIT_PAGER=cat also selects.
func PagerCommand() []string {
	pager, set := os.LookupEnv("XLSXKIT_PAGER")
	if !set {
		pager = os.Getenv("PAGER")
	}
	if pager == "" && !set {
		pager = "less -R"
	}
	fields := strings.Fields(pager)
	if len(fields) == 0 || fields[0] == "cat" {
		return nil
	}
	return fields
}

// ShouldPage reports whether content is taller than termHeight and
// stdout is a terminal with a pager configured.
func ShouldPage(content string, termHeight int) bool {
	if !isTerminal() || PagerCommand() == nil {
		return false
	}
	return strings.Count(content, "\n") > termHeight
}

// Page pipes content through the pager. When the pager binary is
// missing the content goes straight to stdout.
func Page(content string) error {
	args := PagerCommand()
	if args == nil {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	path, err := exec.LookPath(args[0])
	if err != nil {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}

	cmd := exec.Command(path, args[1:]...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pager %s failed: %w", args[0], err)
	}
	return nil
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}
