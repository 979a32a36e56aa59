package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter exports the per-entry outcome of a report, one row per path.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the report as CSV to the writer.
func (e *CSVExporter) Export(w io.Writer, r *Report) error {
	writer := csv.NewWriter(w)

	// Write header
	if err := writer.Write([]string{"path", "action", "version", "detail"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	var rows [][]string
	for _, p := range r.BackedUp {
		rows = append(rows, []string{p, "backed_up", r.LocalVersion, r.BackupDir})
	}
	for _, p := range r.Placed {
		rows = append(rows, []string{p, "installed", r.RemoteVersion, ""})
	}
	for _, f := range r.Failed {
		rows = append(rows, []string{f.Name, "failed", r.RemoteVersion, f.Error})
	}

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
