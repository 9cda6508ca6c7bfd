package output

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sdejongh/textnorris/pkg/models"
)

// HumanOptions tunes the console formatters
type HumanOptions struct {
	Verbose bool      // also report ignored entries
	Quiet   bool      // report warnings and errors only
	Color   ColorMode // defaults to ColorAuto
}

// HumanFormatter prints one line per traversal event
type HumanFormatter struct {
	opts      HumanOptions
	writer    io.Writer
	colors    *palette
	startTime time.Time
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter(opts HumanOptions) *HumanFormatter {
	if opts.Color == "" {
		opts.Color = ColorAuto
	}
	return &HumanFormatter{opts: opts, writer: io.Discard, colors: newPalette(false)}
}

// Start prints the working directory header. The header does not mention
// dry-run so both modes print the same entry stream.
func (f *HumanFormatter) Start(writer io.Writer, root string, dryRun bool) error {
	if writer == nil {
		writer = io.Discard
	}
	f.writer = writer
	f.colors = newPalette(useColor(f.opts.Color, writer))
	f.startTime = time.Now()

	if !f.opts.Quiet {
		fmt.Fprintf(f.writer, "working dir: %s\n\n", root)
	}
	return nil
}

// Entry prints the line for one event
func (f *HumanFormatter) Entry(ev EntryEvent) error {
	if line, ok := f.line(ev); ok {
		_, err := fmt.Fprintln(f.writer, line)
		return err
	}
	return nil
}

func (f *HumanFormatter) line(ev EntryEvent) (string, bool) {
	c := f.colors
	indent := models.ScanTarget{Depth: ev.Depth}.Indent()
	counter := c.counter.Sprintf("[%d / %d]", ev.Processed, ev.Total)
	size := c.size.Sprint(humanize.Bytes(uint64(ev.Size)))

	switch ev.Kind {
	case EventWarning:
		return fmt.Sprintf("%s%s %s: %v", indent, c.warn.Sprint("warn: "+ev.Stage), c.bad.Sprint(ev.Name), ev.Err), true
	case EventError:
		return fmt.Sprintf("%s%s %s: %v", indent, c.errorMsg.Sprint("error: "+ev.Stage), c.bad.Sprint(ev.Name), ev.Err), true
	case EventDecodeFailed:
		return fmt.Sprintf("%s%s %s: %v", indent, c.errorMsg.Sprint("error while converting file:"), c.bad.Sprint(ev.Name), ev.Err), true
	}

	if f.opts.Quiet {
		return "", false
	}

	switch ev.Kind {
	case EventEnterDir:
		return fmt.Sprintf("%scd->: %s %s", indent, c.dir.Sprint(ev.Name), counter), true
	case EventIgnored:
		if !f.opts.Verbose {
			return "", false
		}
		return fmt.Sprintf("%shide: %s %s", indent, c.bad.Sprint(ev.Name), counter), true
	case EventNotRegular:
		return fmt.Sprintf("%sfile: %s not a regular file %s", indent, c.bad.Sprint(ev.Name), counter), true
	case EventIneligible:
		return fmt.Sprintf("%sfile: %s not a file meet '%s' %s", indent, c.bad.Sprint(ev.Name), ev.Detail, counter), true
	case EventDecided:
		return f.decisionLine(ev, indent, size, counter), true
	}
	return "", false
}

func (f *HumanFormatter) decisionLine(ev EntryEvent, indent, size, counter string) string {
	c := f.colors
	switch ev.Action {
	case models.ActionSkipUTF8:
		return fmt.Sprintf("%sjump: %s, already been %s %s", indent, c.good.Sprint(ev.Name), c.utf8.Sprint("UTF-8"), counter)
	case models.ActionSkipSingleByte:
		return fmt.Sprintf("%sjump: %s, single-byte safe %s %s", indent, c.good.Sprint(ev.Name), c.label(ev.Encoding), counter)
	case models.ActionStripBOM:
		return fmt.Sprintf("%sproc: %s, strip BOM from %s %s %s", indent, c.name.Sprint(ev.Name), c.utf8.Sprint("UTF-8"), size, counter)
	case models.ActionBestEffort:
		return fmt.Sprintf("%stry proc: %s, rewrite from %s -> %s %s %s", indent, c.name.Sprint(ev.Name), c.label(ev.Encoding), c.utf8.Sprint("UTF-8"), size, counter)
	default:
		return fmt.Sprintf("%sproc: %s, rewrite from %s -> %s %s %s", indent, c.name.Sprint(ev.Name), c.label(ev.Encoding), c.utf8.Sprint("UTF-8"), size, counter)
	}
}

// Complete prints the run summary
func (f *HumanFormatter) Complete(report *models.RunReport) error {
	if f.opts.Quiet {
		fmt.Fprintf(f.writer, "Status: %s\n", report.Status)
		return nil
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports a run-level error
func (f *HumanFormatter) Error(err error) error {
	fmt.Fprintf(f.writer, "%s %v\n", f.colors.errorMsg.Sprint("Error:"), err)
	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// writeSummary prints the end-of-run block shared by the console formatters
func writeSummary(w io.Writer, report *models.RunReport) {
	s := report.Stats

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Finished in %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Summary:\n")
	fmt.Fprintf(w, "  Entries:        %d found, %d processed\n", report.TotalFound, report.Processed)
	fmt.Fprintf(w, "  Directories:    %d entered\n", s.DirsEntered)
	fmt.Fprintf(w, "  Filtered:       %d ignored, %d ineligible, %d not regular\n", s.FilesIgnored, s.FilesIneligible, s.FilesNotRegular)
	fmt.Fprintf(w, "  Already clean:  %d\n", s.FilesSkipped)
	fmt.Fprintf(w, "  BOM stripped:   %d\n", s.BOMsStripped)
	fmt.Fprintf(w, "  Transcoded:     %d\n", s.FilesTranscoded)
	if report.DryRun {
		fmt.Fprintf(w, "  Would rewrite:  %d (dry run, nothing written)\n", s.BOMsStripped+s.FilesTranscoded)
	} else {
		fmt.Fprintf(w, "  Rewritten:      %d (%s)\n", s.FilesRewritten, humanize.Bytes(uint64(s.BytesWritten)))
	}
	if s.FilesVerified > 0 {
		fmt.Fprintf(w, "  Verified:       %d\n", s.FilesVerified)
	}
	fmt.Fprintf(w, "  Errors:         %d\n", s.FilesErrored)

	if len(s.EncodingsSeen) > 0 {
		labels := make([]string, 0, len(s.EncodingsSeen))
		for label := range s.EncodingsSeen {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		fmt.Fprintf(w, "\n  Encodings:\n")
		for _, label := range labels {
			fmt.Fprintf(w, "    %-14s %d\n", label, s.EncodingsSeen[label])
		}
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Status: %s\n", report.Status)

	if len(report.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  %s [%s]: %s\n", e.Path, e.Stage, e.Error)
		}
	}
}
