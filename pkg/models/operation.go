package models

import (
	"time"
)

// FilterConfig holds the merged extension and ignore lists of one run
type FilterConfig struct {
	Extensions     []string
	IgnorePatterns []string
}

// RunOperation represents a normalization run configuration
type RunOperation struct {
	ID        string
	RootPath  string
	Filter    FilterConfig
	DryRun    bool
	Verbose   bool
	CreatedAt time.Time
}

// Validate checks if the operation configuration is valid
func (op *RunOperation) Validate() error {
	if op.RootPath == "" {
		return &ValidationError{Field: "RootPath", Message: "working directory is required"}
	}
	if len(op.Filter.Extensions) == 0 {
		return &ValidationError{Field: "Filter.Extensions", Message: "at least one extension is required"}
	}
	return nil
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
