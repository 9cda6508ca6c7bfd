package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/sdejongh/textnorris/pkg/models"
)

// JSONFormatter writes one JSON object per line for automation and scripting
type JSONFormatter struct {
	encoder *json.Encoder
}

// JSONEvent represents a single line in the JSON output stream
type JSONEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// JSONStartData is the payload of the "start" line
type JSONStartData struct {
	Root string `json:"root"`
}

// JSONEntryData is the payload of an "entry" line
type JSONEntryData struct {
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	Depth     int    `json:"depth"`
	Size      int64  `json:"size,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
	Action    string `json:"action,omitempty"`
	Stage     string `json:"stage,omitempty"`
	Processed int64  `json:"processed,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Error     string `json:"error,omitempty"`
}

// JSONReportData is the payload of the final "summary" line
type JSONReportData struct {
	RunID      string          `json:"run_id"`
	Status     string          `json:"status"`
	DryRun     bool            `json:"dry_run"`
	Finished   time.Time       `json:"finished"`
	DurationMs int64           `json:"duration_ms"`
	TotalFound int64           `json:"total_found"`
	Processed  int64           `json:"processed"`
	Stats      JSONStatsData   `json:"stats"`
	Errors     []JSONErrorData `json:"errors,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	DirsEntered     int            `json:"dirs_entered"`
	FilesIgnored    int            `json:"files_ignored"`
	FilesIneligible int            `json:"files_ineligible"`
	FilesNotRegular int            `json:"files_not_regular"`
	FilesSkipped    int            `json:"files_skipped"`
	BOMsStripped    int            `json:"boms_stripped"`
	FilesTranscoded int            `json:"files_transcoded"`
	FilesRewritten  int            `json:"files_rewritten"`
	FilesVerified   int            `json:"files_verified,omitempty"`
	FilesErrored    int            `json:"files_errored"`
	BytesWritten    int64          `json:"bytes_written"`
	Encodings       map[string]int `json:"encodings,omitempty"`
}

// JSONErrorData represents an error entry
type JSONErrorData struct {
	Path  string `json:"path"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{encoder: json.NewEncoder(io.Discard)}
}

// Start emits the "start" line. Like the human formatter it leaves dry-run
// out so the entry stream is the same in both modes.
func (f *JSONFormatter) Start(writer io.Writer, root string, dryRun bool) error {
	if writer == nil {
		writer = os.Stdout
	}
	f.encoder = json.NewEncoder(writer)
	return f.encoder.Encode(JSONEvent{Type: "start", Data: JSONStartData{Root: root}})
}

// Entry emits one "entry" line
func (f *JSONFormatter) Entry(ev EntryEvent) error {
	data := JSONEntryData{
		Kind:      string(ev.Kind),
		Path:      ev.Path,
		Depth:     ev.Depth,
		Size:      ev.Size,
		Encoding:  ev.Encoding,
		Action:    string(ev.Action),
		Stage:     ev.Stage,
		Processed: ev.Processed,
		Total:     ev.Total,
	}
	if ev.Err != nil {
		data.Error = ev.Err.Error()
	}
	return f.encoder.Encode(JSONEvent{Type: "entry", Data: data})
}

// Complete emits the "summary" line
func (f *JSONFormatter) Complete(report *models.RunReport) error {
	return f.encoder.Encode(JSONEvent{Type: "summary", Data: reportData(report)})
}

// Error emits an "error" line
func (f *JSONFormatter) Error(err error) error {
	return f.encoder.Encode(JSONEvent{Type: "error", Data: JSONErrorData{Error: err.Error()}})
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}

func reportData(report *models.RunReport) JSONReportData {
	s := report.Stats
	data := JSONReportData{
		RunID:      report.OperationID,
		Status:     string(report.Status),
		DryRun:     report.DryRun,
		Finished:   report.EndTime,
		DurationMs: report.Duration.Milliseconds(),
		TotalFound: report.TotalFound,
		Processed:  report.Processed,
		Stats: JSONStatsData{
			DirsEntered:     s.DirsEntered,
			FilesIgnored:    s.FilesIgnored,
			FilesIneligible: s.FilesIneligible,
			FilesNotRegular: s.FilesNotRegular,
			FilesSkipped:    s.FilesSkipped,
			BOMsStripped:    s.BOMsStripped,
			FilesTranscoded: s.FilesTranscoded,
			FilesRewritten:  s.FilesRewritten,
			FilesVerified:   s.FilesVerified,
			FilesErrored:    s.FilesErrored,
			BytesWritten:    s.BytesWritten,
			Encodings:       s.EncodingsSeen,
		},
	}
	for _, e := range report.Errors {
		data.Errors = append(data.Errors, JSONErrorData{Path: e.Path, Stage: e.Stage, Error: e.Error})
	}
	return data
}
