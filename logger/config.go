package logger

import (
	"fmt"
	"slices"
)

// Output targets.
const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
	OutputFile   = "file"
)

// Config contains logging configuration.
type Config struct {
	Level     string     `yaml:"level" mapstructure:"level"`
	Format    string     `yaml:"format" mapstructure:"format"`
	Output    string     `yaml:"output" mapstructure:"output"`
	NoColor   bool       `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool       `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool       `yaml:"caller" mapstructure:"caller"`
	File      FileConfig `yaml:"file" mapstructure:"file"`
}

// FileConfig configures the rotating log file used when Output is "file".
type FileConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = OutputStdout
	}
	if c.Output == OutputFile {
		if c.File.MaxSizeMB == 0 {
			c.File.MaxSizeMB = 64
		}
		if c.File.MaxAgeDays == 0 {
			c.File.MaxAgeDays = 14
		}
	}
	c.Timestamp = true
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error", "fatal", "trace"}
	if !slices.Contains(validLevels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", validLevels, c.Level)
	}
	validFormats := []string{FormatJSON, FormatConsole, FormatPretty}
	if !slices.Contains(validFormats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", validFormats, c.Format)
	}
	validOutputs := []string{OutputStdout, OutputStderr, OutputFile}
	if c.Output != "" && !slices.Contains(validOutputs, c.Output) {
		return fmt.Errorf("logging.output must be one of %v (got: %s)", validOutputs, c.Output)
	}
	if c.Output == OutputFile && c.File.Path == "" {
		return fmt.Errorf("logging.file.path is required when logging.output is %q", OutputFile)
	}
	return nil
}
