package output

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sdejongh/textnorris/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.RunReport {
	return &models.RunReport{
		OperationID: "run-1",
		RootPath:    "/data",
		EndTime:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
		TotalFound:  4,
		Processed:   4,
		Stats: models.Statistics{
			BOMsStripped:    1,
			FilesTranscoded: 1,
			FilesRewritten:  2,
			FilesErrored:    1,
			EncodingsSeen:   map[string]int{"UTF-8": 2, "GB18030": 1},
		},
		Errors: []models.EntryError{{Path: "bad.txt", Stage: "decode", Error: "invalid byte sequence"}},
		Status: models.StatusPartial,
	}
}

func TestHumanFormatter_Lines(t *testing.T) {
	tests := []struct {
		name string
		ev   EntryEvent
		want string
	}{
		{
			name: "EnterDir",
			ev:   EntryEvent{Kind: EventEnterDir, Name: "sub", Processed: 1, Total: 3},
			want: "cd->: sub [1 / 3]",
		},
		{
			name: "AlreadyUTF8",
			ev:   EntryEvent{Kind: EventDecided, Name: "a.txt", Depth: 1, Action: models.ActionSkipUTF8, Processed: 2, Total: 3},
			want: "  jump: a.txt, already been UTF-8 [2 / 3]",
		},
		{
			name: "SingleByte",
			ev:   EntryEvent{Kind: EventDecided, Name: "a.txt", Encoding: "ISO-8859-1", Action: models.ActionSkipSingleByte, Processed: 1, Total: 1},
			want: "jump: a.txt, single-byte safe ISO-8859-1 [1 / 1]",
		},
		{
			name: "StripBOM",
			ev:   EntryEvent{Kind: EventDecided, Name: "b.txt", Size: 5, Action: models.ActionStripBOM, Processed: 1, Total: 1},
			want: "proc: b.txt, strip BOM from UTF-8 5 B [1 / 1]",
		},
		{
			name: "Transcode",
			ev:   EntryEvent{Kind: EventDecided, Name: "c.txt", Size: 2048, Encoding: "GB18030", Action: models.ActionTranscode, Processed: 1, Total: 1},
			want: "proc: c.txt, rewrite from GB18030 -> UTF-8 2.0 kB [1 / 1]",
		},
		{
			name: "BestEffort",
			ev:   EntryEvent{Kind: EventDecided, Name: "d.txt", Size: 10, Encoding: "Shift_JIS", Action: models.ActionBestEffort, Processed: 1, Total: 1},
			want: "try proc: d.txt, rewrite from Shift_JIS -> UTF-8 10 B [1 / 1]",
		},
		{
			name: "DecodeFailed",
			ev:   EntryEvent{Kind: EventDecodeFailed, Name: "d.txt", Err: errors.New("boom")},
			want: "error while converting file: d.txt: boom",
		},
		{
			name: "Ineligible",
			ev:   EntryEvent{Kind: EventIneligible, Name: "readme.md", Detail: "*.txt", Processed: 3, Total: 4},
			want: "file: readme.md not a file meet '*.txt' [3 / 4]",
		},
		{
			name: "Error",
			ev:   EntryEvent{Kind: EventError, Name: "locked", Stage: "list", Depth: 2, Err: errors.New("permission denied")},
			want: "    error: list locked: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewHumanFormatter(HumanOptions{Color: ColorNever})
			require.NoError(t, f.Start(&buf, "/data", false))
			buf.Reset()

			require.NoError(t, f.Entry(tt.ev))
			assert.Equal(t, tt.want+"\n", buf.String())
		})
	}
}

func TestHumanFormatter_IgnoredOnlyWhenVerbose(t *testing.T) {
	ev := EntryEvent{Kind: EventIgnored, Name: ".git", Processed: 1, Total: 1}

	var quiet bytes.Buffer
	f := NewHumanFormatter(HumanOptions{Color: ColorNever})
	require.NoError(t, f.Start(&quiet, "/data", false))
	quiet.Reset()
	require.NoError(t, f.Entry(ev))
	assert.Empty(t, quiet.String())

	var verbose bytes.Buffer
	f = NewHumanFormatter(HumanOptions{Verbose: true, Color: ColorNever})
	require.NoError(t, f.Start(&verbose, "/data", false))
	verbose.Reset()
	require.NoError(t, f.Entry(ev))
	assert.Equal(t, "hide: .git [1 / 1]\n", verbose.String())
}

func TestHumanFormatter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter(HumanOptions{Quiet: true, Color: ColorNever})
	require.NoError(t, f.Start(&buf, "/data", false))

	require.NoError(t, f.Entry(EntryEvent{Kind: EventDecided, Name: "a.txt", Action: models.ActionSkipUTF8}))
	require.NoError(t, f.Entry(EntryEvent{Kind: EventError, Name: "x.txt", Stage: "read", Err: errors.New("eio")}))
	require.NoError(t, f.Complete(sampleReport()))

	assert.Equal(t, "error: read x.txt: eio\nStatus: partial\n", buf.String())
}

func TestHumanFormatter_StartAndSummary(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter(HumanOptions{Color: ColorNever})
	require.NoError(t, f.Start(&buf, "/data", true))
	assert.Equal(t, "working dir: /data\n\n", buf.String())

	require.NoError(t, f.Complete(sampleReport()))
	out := buf.String()
	assert.Contains(t, out, "Finished in 1.5s")
	assert.Contains(t, out, "Entries:        4 found, 4 processed")
	assert.Contains(t, out, "Rewritten:      2")
	assert.Contains(t, out, "GB18030")
	assert.Contains(t, out, "Status: partial")
	assert.Contains(t, out, "bad.txt [decode]: invalid byte sequence")
}

func TestHumanFormatter_DryRunSummary(t *testing.T) {
	report := sampleReport()
	report.DryRun = true

	var buf bytes.Buffer
	f := NewHumanFormatter(HumanOptions{Color: ColorNever})
	require.NoError(t, f.Start(&buf, "/data", true))
	require.NoError(t, f.Complete(report))

	assert.Contains(t, buf.String(), "Would rewrite:  2 (dry run, nothing written)")
	assert.NotContains(t, buf.String(), "Rewritten:")
}

func TestHumanFormatter_ColorAlways(t *testing.T) {
	var buf bytes.Buffer
	f := NewHumanFormatter(HumanOptions{Color: ColorAlways})
	require.NoError(t, f.Start(&buf, "/data", false))
	buf.Reset()

	require.NoError(t, f.Entry(EntryEvent{Kind: EventEnterDir, Name: "sub", Processed: 1, Total: 1}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter()
	require.NoError(t, f.Start(&buf, "/data", false))
	require.NoError(t, f.Entry(EntryEvent{
		Kind:      EventDecided,
		Name:      "c.txt",
		Path:      "sub/c.txt",
		Depth:     1,
		Size:      12,
		Encoding:  "GB18030",
		Action:    models.ActionTranscode,
		Processed: 2,
		Total:     3,
	}))
	require.NoError(t, f.Entry(EntryEvent{Kind: EventDecodeFailed, Path: "d.txt", Err: errors.New("bad")}))
	require.NoError(t, f.Complete(sampleReport()))

	var lines []map[string]any
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)

	assert.Equal(t, "start", lines[0]["type"])

	entry := lines[1]["data"].(map[string]any)
	assert.Equal(t, "decided", entry["kind"])
	assert.Equal(t, "sub/c.txt", entry["path"])
	assert.Equal(t, "transcode", entry["action"])
	assert.Equal(t, float64(2), entry["processed"])

	failed := lines[2]["data"].(map[string]any)
	assert.Equal(t, "bad", failed["error"])

	summary := lines[3]["data"].(map[string]any)
	assert.Equal(t, "summary", lines[3]["type"])
	assert.Equal(t, "partial", summary["status"])
	assert.Equal(t, "run-1", summary["run_id"])
}

func TestProgressFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewProgressFormatter(HumanOptions{Color: ColorNever})
	require.NoError(t, f.Start(&buf, "/data", false))

	require.NoError(t, f.Entry(EntryEvent{Kind: EventDecided, Name: "a.txt", Path: "a.txt", Action: models.ActionSkipUTF8, Processed: 1, Total: 2}))
	require.NoError(t, f.Entry(EntryEvent{Kind: EventError, Name: "b.txt", Stage: "read", Err: errors.New("eio"), Processed: 2, Total: 2}))
	require.NoError(t, f.Complete(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "working dir: /data")
	assert.Contains(t, out, "error: read b.txt: eio")
	assert.NotContains(t, out, "jump: a.txt")
	assert.Contains(t, out, "Status: partial")
}

func TestNew(t *testing.T) {
	assert.Equal(t, "json", New("json", HumanOptions{}).Name())
	assert.Equal(t, "progress", New("progress", HumanOptions{}).Name())
	assert.Equal(t, "human", New("human", HumanOptions{}).Name())
	assert.Equal(t, "human", New("", HumanOptions{}).Name())
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()

	t.Run("Human", func(t *testing.T) {
		path := filepath.Join(dir, "report.txt")
		require.NoError(t, WriteReport(report, path, "human"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "Normalization Report\n"))
		assert.Contains(t, string(data), "Run:       run-1")
		assert.Contains(t, string(data), "Status: partial")
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "report.json")
		require.NoError(t, WriteReport(report, path, "json"))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, "/data", decoded["root"])
		assert.Equal(t, "partial", decoded["status"])
		assert.Len(t, decoded["errors"], 1)
	})

	t.Run("BadPath", func(t *testing.T) {
		assert.Error(t, WriteReport(report, filepath.Join(dir, "missing", "r.txt"), "human"))
	})
}
