package config

import (
	"regexp"
	"strings"

	"github.com/sdejongh/textnorris/pkg/models"
	"github.com/sdejongh/textnorris/pkg/ratelimit"
)

// Config represents the application configuration
type Config struct {
	Normalize NormalizeConfig `yaml:"normalize"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// NormalizeConfig holds traversal settings. Extensions and Ignore extend
// the built-in defaults (txt; ^\. and ^node_modules$), they never replace them.
type NormalizeConfig struct {
	Extensions []string `yaml:"extensions"`
	Ignore     []string `yaml:"ignore"`
	DryRun     bool     `yaml:"dry_run"`
	Verify     bool     `yaml:"verify"`   // Read rewritten files back
	IOLimit    string   `yaml:"io_limit"` // Read rate such as "10M"; empty for unlimited
}

// OutputConfig holds console output settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human", "json" or "progress"
	Color    string `yaml:"color"`    // "auto", "always" or "never"
	Progress bool   `yaml:"progress"` // Use a progress bar instead of per-file lines
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds run log settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path; logging is off when empty
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Normalize: NormalizeConfig{
			Extensions: []string{},
			Ignore:     []string{},
			DryRun:     false,
			Verify:     false,
			IOLimit:    "",
		},
		Output: OutputConfig{
			Format:   "human",
			Color:    "auto",
			Progress: false,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	for _, ext := range c.Normalize.Extensions {
		if strings.ContainsAny(ext, `/\`) {
			return &models.ValidationError{
				Field:   "normalize.extensions",
				Message: "extension " + ext + " must not contain path separators",
			}
		}
	}

	for _, pattern := range c.Normalize.Ignore {
		if _, err := regexp.Compile(pattern); err != nil {
			return &models.ValidationError{
				Field:   "normalize.ignore",
				Message: "invalid pattern " + pattern + ": " + err.Error(),
			}
		}
	}

	if _, err := ratelimit.ParseRate(c.Normalize.IOLimit); err != nil {
		return &models.ValidationError{
			Field:   "normalize.io_limit",
			Message: err.Error(),
		}
	}

	validFormats := map[string]bool{"human": true, "json": true, "progress": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human', 'json' or 'progress'",
		}
	}

	validColors := map[string]bool{"auto": true, "always": true, "never": true}
	if !validColors[c.Output.Color] {
		return &models.ValidationError{
			Field:   "output.color",
			Message: "must be 'auto', 'always' or 'never'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	if c.Logging.Enabled && c.Logging.File == "" {
		return &models.ValidationError{
			Field:   "logging.file",
			Message: "required when logging is enabled",
		}
	}

	return nil
}
