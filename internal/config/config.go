// Package config manages xlsxkit configuration from files and environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/klytics/xlsxkit/internal/book"
	"github.com/klytics/xlsxkit/pkg/xlsx"
)

// Config holds the application configuration.
type Config struct {
	Author     string `mapstructure:"author"`
	Company    string `mapstructure:"company"`
	DateFormat string `mapstructure:"date_format"`
	TableStyle string `mapstructure:"table_style"`
	Output     struct {
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
}

// DefaultTableStyle is applied to tables that do not name a style.
const DefaultTableStyle = "TableStyleMedium9"

func setDefaults() {
	viper.SetDefault("date_format", xlsx.DefaultDateTimeFormat)
	viper.SetDefault("table_style", DefaultTableStyle)
	viper.SetDefault("output.color", true)
	viper.SetDefault("output.format", "text")
}

// Load reads the configuration from ~/.xlsxkit/config.yaml and XLSXKIT_*
// environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	setDefaults()

	viper.SetEnvPrefix("XLSXKIT")
	viper.AutomaticEnv()

	// A missing file is fine.
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// BookDefaults returns the values a workbook description falls back to.
func (c *Config) BookDefaults() book.Defaults {
	return book.Defaults{
		Author:     c.Author,
		Company:    c.Company,
		DateFormat: c.DateFormat,
		TableStyle: c.TableStyle,
	}
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".xlsxkit"
	}
	return filepath.Join(home, ".xlsxkit")
}
