package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// Wizard runs the interactive setup wizard, reading answers from reader
// (os.Stdin when nil) and writing prompts to out (os.Stdout when nil).
func Wizard(reader io.Reader, out io.Writer) error {
	if reader == nil {
		reader = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	scanner := bufio.NewScanner(reader)
	ask := func(prompt, current string) string {
		if current != "" {
			fmt.Fprintf(out, "  %s [%s]: ", prompt, current)
		} else {
			fmt.Fprintf(out, "  %s: ", prompt)
		}
		scanner.Scan()
		if v := strings.TrimSpace(scanner.Text()); v != "" {
			return v
		}
		return current
	}

	fmt.Fprintln(out, "xlsxkit setup")
	fmt.Fprintln(out, strings.Repeat("-", 48))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 1/3: Document properties")
	viper.Set("author", ask("Author", viper.GetString("author")))
	viper.Set("company", ask("Company", viper.GetString("company")))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Step 2/3: Defaults")
	viper.Set("date_format", ask("Date-time number format", viper.GetString("date_format")))
	viper.Set("table_style", ask("Table style", viper.GetString("table_style")))
	fmt.Fprintln(out)

	if err := SaveConfig(); err != nil {
		return fmt.Errorf("could not save config: %w", err)
	}

	fmt.Fprintln(out, "Step 3/3: Done")
	fmt.Fprintln(out, strings.Repeat("-", 48))
	fmt.Fprintln(out, "Quick start:")
	fmt.Fprintln(out, "  xlsxkit build report.yaml -o report.xlsx")
	fmt.Fprintln(out, "  xlsxkit write data.json -o data.xlsx")
	fmt.Fprintln(out, "  xlsxkit inspect report.xlsx")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Config file: %s\n", ConfigPath())
	return nil
}

// WizardNonInteractive writes a config holding defaults only.
func WizardNonInteractive() error {
	setDefaults()
	viper.Set("date_format", viper.GetString("date_format"))
	viper.Set("table_style", viper.GetString("table_style"))
	viper.Set("output.color", true)
	viper.Set("output.format", "text")
	return SaveConfig()
}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if viper.GetString("author") == "" {
		issues = append(issues, ConfigIssue{
			Key:      "author",
			Severity: "warning",
			Message:  "author is not set; workbooks will have no creator",
			Fix:      "xlsxkit config set author \"Your Name\"",
		})
	} else {
		issues = append(issues, ConfigIssue{
			Key:      "author",
			Severity: "info",
			Message:  fmt.Sprintf("author is %q", viper.GetString("author")),
		})
	}

	df := viper.GetString("date_format")
	if df != "" && !strings.ContainsAny(strings.ToLower(df), "ymdhs") {
		issues = append(issues, ConfigIssue{
			Key:      "date_format",
			Severity: "error",
			Message:  fmt.Sprintf("date_format %q has no date or time placeholders", df),
			Fix:      "xlsxkit config set date_format " + xlsx.DefaultDateTimeFormat,
		})
	}

	ts := viper.GetString("table_style")
	if ts != "" && !strings.HasPrefix(ts, "TableStyle") {
		issues = append(issues, ConfigIssue{
			Key:      "table_style",
			Severity: "warning",
			Message:  fmt.Sprintf("table_style %q is not a built-in style name", ts),
			Fix:      "xlsxkit config set table_style TableStyleMedium9",
		})
	}

	switch f := viper.GetString("output.format"); f {
	case "", "text", "json":
	default:
		issues = append(issues, ConfigIssue{
			Key:      "output.format",
			Severity: "error",
			Message:  fmt.Sprintf("output.format %q is not one of text, json", f),
			Fix:      "xlsxkit config set output.format text",
		})
	}

	return issues
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range []string{"author", "company", "date_format", "table_style", "output.format"} {
		if v := viper.GetString(key); v != "" {
			env["XLSXKIT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = v
		}
	}
	return env
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig deletes the config file and restores defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	viper.Set("author", "")
	viper.Set("company", "")
	viper.Set("date_format", xlsx.DefaultDateTimeFormat)
	viper.Set("table_style", DefaultTableStyle)
	viper.Set("output.color", true)
	viper.Set("output.format", "text")
	return nil
}

// SaveConfig writes the current config to ~/.xlsxkit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Document properties\n")
	sb.WriteString(fmt.Sprintf("  author:      %s\n", viper.GetString("author")))
	sb.WriteString(fmt.Sprintf("  company:     %s\n", viper.GetString("company")))
	sb.WriteString("\n")

	sb.WriteString("Defaults\n")
	sb.WriteString(fmt.Sprintf("  date_format: %s\n", viper.GetString("date_format")))
	sb.WriteString(fmt.Sprintf("  table_style: %s\n", viper.GetString("table_style")))
	sb.WriteString("\n")

	sb.WriteString("Output\n")
	sb.WriteString(fmt.Sprintf("  format:      %s\n", viper.GetString("output.format")))
	sb.WriteString(fmt.Sprintf("  color:       %t\n", viper.GetBool("output.color")))
	return sb.String()
}
