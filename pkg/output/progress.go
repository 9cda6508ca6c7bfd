package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/sdejongh/textnorris/pkg/models"
	"golang.org/x/term"
)

const progressTemplate = `{{counters . }} {{bar . }} {{percent . }} {{string . "file"}}`

// ProgressFormatter replaces per-file lines with a single progress bar.
// The bar total grows as directories are discovered; warnings and errors
// are held back and printed once the bar is finished.
type ProgressFormatter struct {
	opts   HumanOptions
	writer io.Writer
	human  *HumanFormatter

	mu       sync.Mutex
	bar      *pb.ProgressBar
	problems []string
}

// NewProgressFormatter creates a new progress bar formatter
func NewProgressFormatter(opts HumanOptions) *ProgressFormatter {
	return &ProgressFormatter{
		opts:  opts,
		human: NewHumanFormatter(HumanOptions{Quiet: true, Color: opts.Color}),
	}
}

// Start creates the bar and starts its refresh loop
func (f *ProgressFormatter) Start(writer io.Writer, root string, dryRun bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if writer == nil {
		writer = os.Stdout
	}
	f.writer = writer
	if err := f.human.Start(writer, root, dryRun); err != nil {
		return err
	}

	bar := pb.New64(0).
		SetTemplateString(progressTemplate).
		SetWriter(writer)

	// Keep the bar on one line
	if file, ok := writer.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			bar.SetMaxWidth(width)
		}
	}

	if !f.opts.Quiet {
		fmt.Fprintf(writer, "working dir: %s\n", root)
		bar.Start()
	}
	f.bar = bar
	return nil
}

// Entry advances the bar and records warnings and errors
func (f *ProgressFormatter) Entry(ev EntryEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if line, ok := f.human.line(ev); ok {
		f.problems = append(f.problems, line)
	}

	if f.bar == nil || ev.Total == 0 {
		return nil
	}
	f.bar.SetTotal(ev.Total)
	f.bar.SetCurrent(ev.Processed)
	f.bar.Set("file", ev.Path)
	return nil
}

// Complete finishes the bar, then prints held-back problems and the summary
func (f *ProgressFormatter) Complete(report *models.RunReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil && f.bar.IsStarted() {
		f.bar.SetTotal(report.TotalFound)
		f.bar.SetCurrent(report.Processed)
		f.bar.Set("file", "")
		f.bar.Finish()
	}

	for _, line := range f.problems {
		fmt.Fprintln(f.writer, line)
	}

	if f.opts.Quiet {
		fmt.Fprintf(f.writer, "Status: %s\n", report.Status)
		return nil
	}
	writeSummary(f.writer, report)
	return nil
}

// Error reports a run-level error
func (f *ProgressFormatter) Error(err error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.bar != nil && f.bar.IsStarted() {
		f.bar.Finish()
	}
	return f.human.Error(err)
}

// Name returns the formatter name
func (f *ProgressFormatter) Name() string {
	return "progress"
}
