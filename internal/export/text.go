package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// TextExporter exports reports to human-readable text format.
type TextExporter struct{}

// NewTextExporter creates a new text exporter.
func NewTextExporter() *TextExporter {
	return &TextExporter{}
}

// Export writes the report as text to the writer.
func (e *TextExporter) Export(w io.Writer, r *Report) error {
	// Header
	fmt.Fprintf(w, "Amax update of %s\n", r.Installation)
	fmt.Fprintf(w, "Remote version: %s\n", orNone(r.RemoteVersion))
	fmt.Fprintf(w, "Local version:  %s\n", orNone(r.LocalVersion))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if r.ArchiveURL != "" {
		fmt.Fprintf(w, "Downloaded %s (%s)\n", r.ArchiveURL, humanize.Bytes(uint64(max(r.ArchiveBytes, 0))))
	}
	if len(r.BackedUp) > 0 {
		fmt.Fprintf(w, "Backed up to %s: %s\n", r.BackupDir, strings.Join(r.BackedUp, ", "))
	}
	if len(r.Placed) > 0 {
		fmt.Fprintf(w, "Installed: %s\n", strings.Join(r.Placed, ", "))
	}
	for _, f := range r.Failed {
		fmt.Fprintf(w, "Failed: %s: %s\n", f.Name, f.Error)
	}

	// Summary
	fmt.Fprintln(w, strings.Repeat("=", 70))
	if r.Error != "" {
		fmt.Fprintf(w, "Failed while %s: %s\n", r.FailedIn, r.Error)
	} else {
		fmt.Fprintf(w, "Result: %s\n", r.State)
	}
	if !r.StartTime.IsZero() && !r.EndTime.IsZero() {
		fmt.Fprintf(w, "Duration: %v\n", r.EndTime.Sub(r.StartTime).Round(time.Millisecond))
	}

	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
