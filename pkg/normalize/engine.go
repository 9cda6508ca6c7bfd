package normalize

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sdejongh/textnorris/pkg/compare"
	"github.com/sdejongh/textnorris/pkg/filter"
	"github.com/sdejongh/textnorris/pkg/logging"
	"github.com/sdejongh/textnorris/pkg/models"
	"github.com/sdejongh/textnorris/pkg/output"
	"github.com/sdejongh/textnorris/pkg/ratelimit"
	"github.com/sdejongh/textnorris/pkg/storage"
)

// ErrDirectoryLoop marks a directory that resolves to one of its ancestors
var ErrDirectoryLoop = errors.New("directory loop")

// Options controls a single run
type Options struct {
	// Root is the directory being normalized, used for reporting only;
	// the backend is already rooted there
	Root string

	// DryRun detects and decodes but never writes
	DryRun bool

	// OperationID identifies the run in logs and reports; generated if empty
	OperationID string

	// ReadLimit caps file reads in bytes per second, 0 for unlimited
	ReadLimit int64

	// Verify reads every rewritten file back and compares its hash
	Verify bool
}

// Engine walks a tree and applies the decision table to every eligible file
type Engine struct {
	backend   storage.Backend
	filter    *filter.Filter
	decider   *Decider
	formatter output.Formatter
	logger    logging.Logger
	opts      Options
	limiter   *ratelimit.Limiter
	verifier  *compare.HashVerifier
}

// NewEngine creates a new normalization engine
func NewEngine(
	backend storage.Backend,
	filter *filter.Filter,
	decider *Decider,
	formatter output.Formatter,
	logger logging.Logger,
	opts Options,
) *Engine {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opts.OperationID == "" {
		opts.OperationID = uuid.New().String()
	}
	if opts.Root == "" {
		opts.Root = backend.Root()
	}
	e := &Engine{
		backend:   backend,
		filter:    filter,
		decider:   decider,
		formatter: formatter,
		logger:    logger,
		opts:      opts,
		limiter:   ratelimit.NewLimiter(opts.ReadLimit),
	}
	if opts.Verify {
		e.verifier = compare.NewHashVerifier(64 * 1024)
	}
	return e
}

// frame is one directory on the traversal stack
type frame struct {
	target models.ScanTarget
	dir    *storage.FileInfo
	names  []string
	next   int
}

// walk is the state owned by one run
type walk struct {
	progress models.ScanProgress
	report   *models.RunReport
	stack    []*frame
}

// Run traverses the tree depth-first in listing order. A directory's
// entries are all handled before the next sibling of that directory.
// Failing to list the root aborts the run; every other failure is
// recorded against its entry and the run continues.
func (e *Engine) Run(ctx context.Context) (*models.RunReport, error) {
	w := &walk{
		report: &models.RunReport{
			OperationID: e.opts.OperationID,
			RootPath:    e.opts.Root,
			DryRun:      e.opts.DryRun,
			StartTime:   time.Now(),
			Status:      models.StatusSuccess,
		},
	}
	report := w.report

	// Read-backs share the run's read limit
	if e.verifier != nil {
		e.verifier.SetReaderWrapper(func(rc io.ReadCloser) io.ReadCloser {
			return ratelimit.NewReadCloser(ctx, rc, e.limiter)
		})
	}

	e.logger.Info(ctx, "Starting normalization", logging.Fields{
		"operation_id": report.OperationID,
		"root":         report.RootPath,
		"dry_run":      report.DryRun,
		"extensions":   e.filter.Extensions(),
		"ignore":       e.filter.IgnorePatterns(),
		"read_limit":   e.opts.ReadLimit,
		"verify":       e.opts.Verify,
	})

	root := models.ScanTarget{Path: "", Depth: 0}
	if err := e.backend.CheckDirAccess(ctx, root.Path); err != nil {
		e.warn(ctx, w, root, ".", "access", err)
	}

	names, err := e.backend.ReadDir(ctx, root.Path)
	if err != nil {
		err = fmt.Errorf("cannot list %s: %w", report.RootPath, err)
		e.logger.Error(ctx, "Failed to list root directory", err, logging.Fields{"root": report.RootPath})
		return e.finish(ctx, w, models.StatusFailed), err
	}
	// A root without file identity simply never matches a loop
	rootInfo, _ := e.backend.Stat(ctx, root.Path)
	w.progress.Discover(len(names))
	w.stack = append(w.stack, &frame{target: root, dir: rootInfo, names: names})

	for len(w.stack) > 0 {
		if err := ctx.Err(); err != nil {
			e.logger.Warn(ctx, "Normalization interrupted", logging.Fields{"error": err.Error()})
			return e.finish(ctx, w, models.StatusFailed), err
		}

		top := w.stack[len(w.stack)-1]
		if top.next >= len(top.names) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}

		name := top.names[top.next]
		top.next++
		e.processEntry(ctx, w, top.target, name)
	}

	status := models.StatusSuccess
	if len(report.Errors) > 0 {
		status = models.StatusPartial
	}
	return e.finish(ctx, w, status), nil
}

func (e *Engine) finish(ctx context.Context, w *walk, status models.RunStatus) *models.RunReport {
	report := w.report
	report.Processed, report.TotalFound = w.progress.Snapshot()
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)
	report.Status = status

	e.logger.Info(ctx, "Normalization completed", logging.Fields{
		"duration":         report.Duration.String(),
		"status":           report.Status,
		"total_found":      report.TotalFound,
		"processed":        report.Processed,
		"boms_stripped":    report.Stats.BOMsStripped,
		"files_transcoded": report.Stats.FilesTranscoded,
		"files_rewritten":  report.Stats.FilesRewritten,
		"files_errored":    report.Stats.FilesErrored,
		"bytes_written":    report.Stats.BytesWritten,
	})
	return report
}

// processEntry handles one listed name. Every branch advances the
// processed counter exactly once.
func (e *Engine) processEntry(ctx context.Context, w *walk, parent models.ScanTarget, name string) {
	relPath := filepath.Join(parent.Path, name)
	ev := output.EntryEvent{Name: name, Path: relPath, Depth: parent.Depth}

	if e.filter.IsIgnored(name) {
		w.report.Stats.FilesIgnored++
		e.advance(w, &ev)
		ev.Kind = output.EventIgnored
		e.emit(ctx, ev)
		return
	}

	info, err := e.backend.Stat(ctx, relPath)
	if err != nil {
		e.advance(w, &ev)
		e.fail(ctx, w, ev, "stat", err)
		return
	}

	entry := newEntry(name, info)

	switch {
	case entry.IsDir:
		e.enterDir(ctx, w, parent.Child(relPath), info, ev)

	case !entry.IsRegular:
		w.report.Stats.FilesNotRegular++
		e.advance(w, &ev)
		ev.Kind = output.EventNotRegular
		e.emit(ctx, ev)

	case !e.filter.IsEligible(name):
		w.report.Stats.FilesIneligible++
		e.advance(w, &ev)
		ev.Kind = output.EventIneligible
		ev.Detail = e.filter.Describe()
		e.emit(ctx, ev)

	default:
		e.processFile(ctx, w, parent, entry, ev)
	}
}

// newEntry resolves the metadata of one listed name, fetched once
func newEntry(name string, info *storage.FileInfo) models.FileEntry {
	return models.FileEntry{
		Name:         name,
		Path:         info.Path,
		RelativePath: info.RelativePath,
		Size:         info.Size,
		ModTime:      info.ModTime,
		Mode:         info.Mode,
		IsDir:        info.IsDir,
		IsRegular:    info.IsRegular,
	}
}

// enterDir reports the directory and pushes its listing. A listing failure
// below the root leaves the directory looking empty, and so does a
// directory that resolves to one of its ancestors.
func (e *Engine) enterDir(ctx context.Context, w *walk, target models.ScanTarget, dir *storage.FileInfo, ev output.EntryEvent) {
	for _, f := range w.stack {
		if dir.SameFile(f.dir) {
			ancestor := f.target.Path
			if ancestor == "" {
				ancestor = "."
			}
			e.advance(w, &ev)
			e.fail(ctx, w, ev, "loop", fmt.Errorf("%w: resolves to %s", ErrDirectoryLoop, ancestor))
			return
		}
	}

	if err := e.backend.CheckDirAccess(ctx, target.Path); err != nil {
		e.warn(ctx, w, target, ev.Name, "access", err)
	}

	w.report.Stats.DirsEntered++
	e.advance(w, &ev)
	ev.Kind = output.EventEnterDir
	e.emit(ctx, ev)

	names, err := e.backend.ReadDir(ctx, target.Path)
	if err != nil {
		e.fail(ctx, w, ev, "list", err)
		return
	}
	w.progress.Discover(len(names))
	w.stack = append(w.stack, &frame{target: target, dir: dir, names: names})
}

// processFile reads, classifies and, outside dry-run, rewrites one
// eligible file
func (e *Engine) processFile(ctx context.Context, w *walk, parent models.ScanTarget, entry models.FileEntry, ev output.EntryEvent) {
	stats := &w.report.Stats
	ev.Size = entry.Size

	if err := e.backend.CheckFileAccess(ctx, ev.Path); err != nil {
		e.warn(ctx, w, parent, ev.Name, "access", err)
	}

	// Dry-run writes nothing, lock files included
	if !e.opts.DryRun {
		unlock, err := e.backend.Lock(ctx, ev.Path)
		if err != nil {
			e.advance(w, &ev)
			e.fail(ctx, w, ev, "lock", err)
			return
		}
		defer unlock()
	}

	buf, err := e.readFile(ctx, ev.Path)
	if err != nil {
		e.advance(w, &ev)
		e.fail(ctx, w, ev, "read", err)
		return
	}

	plan := e.decider.Decide(buf)
	stats.RecordEncoding(plan.Verdict.RawLabel)

	e.advance(w, &ev)
	ev.Kind = output.EventDecided
	ev.Encoding = plan.Verdict.RawLabel
	ev.Action = plan.Action
	e.emit(ctx, ev)

	if plan.Err != nil {
		ev.Kind = output.EventDecodeFailed
		ev.Stage = "decode"
		ev.Err = plan.Err
		e.record(w, ev)
		e.emit(ctx, ev)
		return
	}

	switch plan.Action {
	case models.ActionSkipUTF8, models.ActionSkipSingleByte:
		stats.FilesSkipped++
		return
	case models.ActionStripBOM:
		stats.BOMsStripped++
	default:
		stats.FilesTranscoded++
	}

	if e.opts.DryRun || !plan.Rewrites() {
		return
	}

	// The rewrite keeps the original permissions
	metadata := &storage.FileInfo{Permissions: uint32(entry.Mode.Perm())}
	size := int64(len(plan.Output))
	if err := e.backend.Write(ctx, ev.Path, bytes.NewReader(plan.Output), size, metadata); err != nil {
		e.fail(ctx, w, ev, "write", err)
		return
	}
	stats.FilesRewritten++
	stats.BytesWritten += size

	if e.verifier != nil {
		e.verify(ctx, w, ev, plan.Output)
	}
}

// verify reads a rewritten file back; a mismatch is an entry error
func (e *Engine) verify(ctx context.Context, w *walk, ev output.EntryEvent, expected []byte) {
	result, err := e.verifier.Verify(ctx, e.backend, ev.Path, expected)
	if err != nil {
		e.fail(ctx, w, ev, "verify", err)
		return
	}
	if result.Result != compare.Same {
		e.fail(ctx, w, ev, "verify", fmt.Errorf("rewritten file does not match: %s", result.Reason))
		return
	}
	w.report.Stats.FilesVerified++
}

func (e *Engine) readFile(ctx context.Context, path string) ([]byte, error) {
	reader, err := e.backend.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	reader = ratelimit.NewReadCloser(ctx, reader, e.limiter)
	defer reader.Close()

	return io.ReadAll(reader)
}

func (e *Engine) advance(w *walk, ev *output.EntryEvent) {
	ev.Processed, ev.Total = w.progress.Advance()
}

// warn reports a failed advisory check; the operation it guards still runs
func (e *Engine) warn(ctx context.Context, w *walk, target models.ScanTarget, name, stage string, err error) {
	processed, total := w.progress.Snapshot()
	e.emit(ctx, output.EntryEvent{
		Kind:      output.EventWarning,
		Name:      name,
		Path:      target.Path,
		Depth:     target.Depth,
		Stage:     stage,
		Processed: processed,
		Total:     total,
		Err:       err,
	})
}

// fail records an entry-scoped error and reports it
func (e *Engine) fail(ctx context.Context, w *walk, ev output.EntryEvent, stage string, err error) {
	ev.Kind = output.EventError
	ev.Stage = stage
	ev.Err = err
	e.record(w, ev)
	e.emit(ctx, ev)
}

func (e *Engine) record(w *walk, ev output.EntryEvent) {
	w.report.Stats.FilesErrored++
	w.report.Errors = append(w.report.Errors, models.EntryError{
		Path:      ev.Path,
		Stage:     ev.Stage,
		Error:     ev.Err.Error(),
		Timestamp: time.Now(),
	})
}

// emit sends an event to the console formatter and the log
func (e *Engine) emit(ctx context.Context, ev output.EntryEvent) {
	if e.formatter != nil {
		e.formatter.Entry(ev)
	}

	fields := logging.Fields{
		"event":     string(ev.Kind),
		"path":      ev.Path,
		"processed": ev.Processed,
		"total":     ev.Total,
	}

	switch ev.Kind {
	case output.EventError, output.EventDecodeFailed:
		fields["stage"] = ev.Stage
		e.logger.Error(ctx, "Entry failed", ev.Err, fields)
	case output.EventWarning:
		fields["stage"] = ev.Stage
		fields["error"] = ev.Err.Error()
		e.logger.Warn(ctx, "Access check failed", fields)
	case output.EventDecided:
		fields["encoding"] = ev.Encoding
		fields["action"] = string(ev.Action)
		fields["size"] = ev.Size
		fields["dry_run"] = e.opts.DryRun
		e.logger.Info(ctx, "File classified", fields)
	case output.EventEnterDir:
		e.logger.Info(ctx, "Entering directory", fields)
	default:
		e.logger.Debug(ctx, "Entry skipped", fields)
	}
}
