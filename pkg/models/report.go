package models

import (
	"time"
)

// RunReport represents the results of a normalization run
type RunReport struct {
	// Operation details
	OperationID string
	RootPath    string
	DryRun      bool

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Final progress counters
	TotalFound int64
	Processed  int64

	// Statistics
	Stats Statistics

	// Errors encountered
	Errors []EntryError

	// Overall status
	Status RunStatus
}

// Statistics holds per-outcome counts
type Statistics struct {
	DirsEntered     int
	FilesIgnored    int // names matching an ignore pattern (dirs included)
	FilesIneligible int // regular files with a non-matching extension
	FilesNotRegular int
	FilesSkipped    int // already UTF-8 or single-byte safe
	BOMsStripped    int
	FilesTranscoded int
	FilesRewritten  int // writes performed (always 0 in dry-run)
	FilesVerified   int // rewritten files read back and matched
	FilesErrored    int
	BytesWritten    int64
	EncodingsSeen   map[string]int
}

// RecordEncoding counts one verdict label
func (s *Statistics) RecordEncoding(label string) {
	if s.EncodingsSeen == nil {
		s.EncodingsSeen = make(map[string]int)
	}
	s.EncodingsSeen[label]++
}

// RunStatus represents the overall result
type RunStatus string

const (
	// StatusSuccess indicates every entry was handled without error
	StatusSuccess RunStatus = "success"
	// StatusPartial indicates some entries failed but the run completed
	StatusPartial RunStatus = "partial"
	// StatusFailed indicates the run aborted
	StatusFailed RunStatus = "failed"
)

// EntryError represents a recoverable error scoped to one entry
type EntryError struct {
	Path      string
	Stage     string // "list", "stat", "access", "read", "decode", "lock", "write", "verify", "loop"
	Error     string
	Timestamp time.Time
}

// ExitCode returns the process exit code for the status.
// Entry-level errors do not fail the process.
func (s RunStatus) ExitCode() int {
	switch s {
	case StatusSuccess, StatusPartial:
		return 0
	default:
		return 1
	}
}
