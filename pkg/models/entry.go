package models

import (
	"io/fs"
	"strings"
	"time"
)

// ScanTarget is one directory level of a traversal
type ScanTarget struct {
	// Path is the directory path as handed to the storage backend
	Path string

	// Depth is 0 for the root and grows by one per descent
	Depth int
}

// Child returns the target for a subdirectory of t
func (t ScanTarget) Child(path string) ScanTarget {
	return ScanTarget{Path: path, Depth: t.Depth + 1}
}

// Indent returns the reporting indentation for entries listed in t
func (t ScanTarget) Indent() string {
	return strings.Repeat("  ", t.Depth)
}

// FileEntry represents one directory entry resolved against its parent
type FileEntry struct {
	// Name is the entry name as listed by the parent directory
	Name string

	// Path is the full path on the backing filesystem
	Path string

	// RelativePath is the path relative to the run root
	RelativePath string

	// Size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Mode holds the file mode bits
	Mode fs.FileMode

	// IsDir indicates if this is a directory
	IsDir bool

	// IsRegular indicates a regular file (not a device, socket, pipe...)
	IsRegular bool
}

// Action is the outcome the decision table picks for one eligible file
type Action string

const (
	// ActionSkipSingleByte leaves ASCII / ISO-8859-1 files alone
	ActionSkipSingleByte Action = "skip-single-byte"
	// ActionSkipUTF8 leaves BOM-free UTF-8 files alone
	ActionSkipUTF8 Action = "skip-utf8"
	// ActionStripBOM drops a leading UTF-8 byte-order mark
	ActionStripBOM Action = "strip-bom"
	// ActionTranscode rewrites a GB-family or UTF-16 file as UTF-8
	ActionTranscode Action = "transcode"
	// ActionBestEffort tries to transcode from any other detected encoding
	ActionBestEffort Action = "best-effort"
)

// Rewrites reports whether the action asks for the file to be written back
func (a Action) Rewrites() bool {
	switch a {
	case ActionStripBOM, ActionTranscode, ActionBestEffort:
		return true
	default:
		return false
	}
}
