package output

import (
	"io"

	"github.com/sdejongh/textnorris/pkg/models"
)

// EventKind tells which branch of the traversal produced an event
type EventKind string

const (
	EventEnterDir     EventKind = "enter"         // directory descended into
	EventIgnored      EventKind = "ignored"       // name matched an ignore pattern
	EventNotRegular   EventKind = "not-regular"   // device, socket, pipe...
	EventIneligible   EventKind = "ineligible"    // extension not allowed
	EventDecided      EventKind = "decided"       // decision table picked Action
	EventDecodeFailed EventKind = "decode-failed" // best-effort decode failed
	EventWarning      EventKind = "warning"       // advisory check failed
	EventError        EventKind = "error"         // list/stat/read/write failure
)

// EntryEvent is one reportable step of the traversal
type EntryEvent struct {
	Kind      EventKind
	Name      string
	Path      string // relative to the run root
	Depth     int
	Size      int64
	Encoding  string // raw classifier label
	Action    models.Action
	Stage     string // failing step for warnings and errors
	Detail    string // e.g. the allowed extensions for ineligible files
	Processed int64  // counters after this entry, 0 when not advanced
	Total     int64
	Err       error
}

// Formatter defines the interface for console reporting
type Formatter interface {
	// Start initializes the formatter for a new run
	Start(writer io.Writer, root string, dryRun bool) error

	// Entry reports one traversal event
	Entry(event EntryEvent) error

	// Complete finalizes output and displays summary
	Complete(report *models.RunReport) error

	// Error reports a run-level error
	Error(err error) error

	// Name returns the formatter name
	Name() string
}

// New returns the formatter for a config output format
func New(format string, opts HumanOptions) Formatter {
	switch format {
	case "json":
		return NewJSONFormatter()
	case "progress":
		return NewProgressFormatter(opts)
	default:
		return NewHumanFormatter(opts)
	}
}
