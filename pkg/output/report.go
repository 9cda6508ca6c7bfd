package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sdejongh/textnorris/pkg/models"
)

// WriteReport writes the run report to a file.
// Format can be "human" or "json".
func WriteReport(report *models.RunReport, path string, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch format {
	case "json":
		err = writeReportJSON(report, file)
	default:
		err = writeReportHuman(report, file)
	}
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func writeReportHuman(report *models.RunReport, w io.Writer) error {
	title := "Normalization Report"
	fmt.Fprintf(w, "%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	fmt.Fprintf(w, "Run:       %s\n", report.OperationID)
	fmt.Fprintf(w, "Generated: %s\n", report.EndTime.Format(time.RFC3339))
	fmt.Fprintf(w, "Root:      %s\n", report.RootPath)
	fmt.Fprintf(w, "Dry Run:   %v\n", report.DryRun)

	writeSummary(w, report)
	return nil
}

func writeReportJSON(report *models.RunReport, w io.Writer) error {
	out := struct {
		Root string `json:"root"`
		JSONReportData
	}{
		Root:           report.RootPath,
		JSONReportData: reportData(report),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
