package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(dir)
	t.Setenv("HOME", dir)
	t.Cleanup(func() {
		viper.Reset()
	})
	return dir
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DateFormat != xlsx.DefaultDateTimeFormat {
		t.Errorf("expected default date format, got %q", cfg.DateFormat)
	}
	if cfg.TableStyle != DefaultTableStyle {
		t.Errorf("expected default table style, got %q", cfg.TableStyle)
	}
	if !cfg.Output.Color {
		t.Error("expected color on by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("XLSXKIT_AUTHOR", "Ada")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Author != "Ada" {
		t.Errorf("expected author from env, got %q", cfg.Author)
	}
	d := cfg.BookDefaults()
	if d.Author != "Ada" || d.TableStyle != DefaultTableStyle {
		t.Errorf("unexpected book defaults: %+v", d)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := setupTestConfig(t)
	cfgDir := filepath.Join(dir, ".xlsxkit")
	os.MkdirAll(cfgDir, 0700)
	data := "company: Acme\ntable_style: TableStyleLight1\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Company != "Acme" || cfg.TableStyle != "TableStyleLight1" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestValidateMissingAuthor(t *testing.T) {
	setupTestConfig(t)
	issues := Validate()
	found := false
	for _, issue := range issues {
		if issue.Key == "author" && issue.Severity == "warning" {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about missing author")
	}
}

func TestValidateBadValues(t *testing.T) {
	setupTestConfig(t)
	viper.Set("author", "Ada")
	viper.Set("date_format", "@")
	viper.Set("output.format", "xml")

	errs := 0
	for _, issue := range Validate() {
		if issue.Severity == "error" {
			errs++
		}
		if issue.Key == "author" && issue.Severity != "info" {
			t.Errorf("unexpected author issue: %s", issue.Message)
		}
	}
	if errs != 2 {
		t.Errorf("expected 2 errors, got %d", errs)
	}
}

func TestToEnv(t *testing.T) {
	setupTestConfig(t)
	viper.Set("author", "Ada")
	viper.Set("output.format", "json")

	env := ToEnv()
	if env["XLSXKIT_AUTHOR"] != "Ada" {
		t.Errorf("XLSXKIT_AUTHOR = %q", env["XLSXKIT_AUTHOR"])
	}
	if env["XLSXKIT_OUTPUT_FORMAT"] != "json" {
		t.Errorf("XLSXKIT_OUTPUT_FORMAT = %q", env["XLSXKIT_OUTPUT_FORMAT"])
	}
	if _, ok := env["XLSXKIT_COMPANY"]; ok {
		t.Error("empty values should be left out")
	}
}

func TestSetAndGet(t *testing.T) {
	setupTestConfig(t)
	if err := Set("company", "Acme"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := Get("company"); got != "Acme" {
		t.Errorf("Get(company) = %q, want %q", got, "Acme")
	}
	if _, err := os.Stat(ConfigPath()); err != nil {
		t.Errorf("expected config file to be written: %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	viper.Set("author", "Ada")
	viper.Set("table_style", "TableStyleDark2")

	out := ShowConfig()
	if !strings.Contains(out, "Ada") || !strings.Contains(out, "TableStyleDark2") {
		t.Errorf("ShowConfig missing values:\n%s", out)
	}
}

func TestWizardNonInteractive(t *testing.T) {
	setupTestConfig(t)
	if err := WizardNonInteractive(); err != nil {
		t.Fatalf("WizardNonInteractive failed: %v", err)
	}
	if viper.GetString("table_style") != DefaultTableStyle {
		t.Errorf("table_style = %q", viper.GetString("table_style"))
	}
	if _, err := os.Stat(ConfigPath()); err != nil {
		t.Errorf("expected config file: %v", err)
	}
}

func TestWizardInteractive(t *testing.T) {
	setupTestConfig(t)
	setDefaults()

	var out bytes.Buffer
	input := strings.NewReader("Ada\nAcme\n\n\n")
	if err := Wizard(input, &out); err != nil {
		t.Fatalf("Wizard failed: %v", err)
	}
	if viper.GetString("author") != "Ada" || viper.GetString("company") != "Acme" {
		t.Errorf("answers not stored: author=%q company=%q", viper.GetString("author"), viper.GetString("company"))
	}
	if viper.GetString("date_format") != xlsx.DefaultDateTimeFormat {
		t.Errorf("blank answer should keep default, got %q", viper.GetString("date_format"))
	}
	if !strings.Contains(out.String(), "Config file:") {
		t.Error("expected config path in wizard output")
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.Contains(path, ".xlsxkit") || !strings.HasSuffix(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestResetConfig(t *testing.T) {
	setupTestConfig(t)
	viper.Set("table_style", "TableStyleLight1")
	if err := SaveConfig(); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if err := ResetConfig(); err != nil {
		t.Fatalf("ResetConfig failed: %v", err)
	}
	if viper.GetString("table_style") != DefaultTableStyle {
		t.Errorf("table_style should reset, got %q", viper.GetString("table_style"))
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("expected config file to be removed")
	}
}
