// Package export writes update run reports in various formats.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amax-emu/amax-updater/internal/update"
)

// Report summarises one update run.
type Report struct {
	Installation  string        `json:"installation"`
	State         string        `json:"state"`
	FailedIn      string        `json:"failedIn,omitempty"`
	RemoteVersion string        `json:"remoteVersion,omitempty"`
	LocalVersion  string        `json:"localVersion,omitempty"`
	ArchiveURL    string        `json:"archiveUrl,omitempty"`
	ArchiveBytes  int64         `json:"archiveBytes,omitempty"`
	BackupDir     string        `json:"backupDir,omitempty"`
	BackedUp      []string      `json:"backedUp,omitempty"`
	Placed        []string      `json:"placed,omitempty"`
	Failed        []FailedEntry `json:"failed,omitempty"`
	Error         string        `json:"error,omitempty"`
	StartTime     time.Time     `json:"startTime"`
	EndTime       time.Time     `json:"endTime"`
}

// FailedEntry is a top-level entry that could not be installed.
type FailedEntry struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// FromResult builds a Report from an orchestrator result.
func FromResult(res *update.Result, start, end time.Time) *Report {
	r := &Report{StartTime: start, EndTime: end}
	if res == nil {
		return r
	}
	r.State = res.State.String()
	if res.Err != nil {
		r.Error = res.Err.Error()
		var serr *update.StageError
		if errors.As(res.Err, &serr) {
			r.FailedIn = serr.State.String()
		}
	}

	s := res.Session
	if s == nil {
		return r
	}
	r.Installation = s.Root
	r.RemoteVersion = s.Remote
	r.LocalVersion = s.Local
	if s.Artifact != nil {
		r.ArchiveURL = s.Artifact.URL
		r.ArchiveBytes = s.Artifact.Size
	}
	if !s.Snapshot.Empty() {
		r.BackupDir = s.Snapshot.Dir
		r.BackedUp = s.Snapshot.Paths
	}
	if s.Applied != nil {
		r.Placed = s.Applied.Placed
		for _, f := range s.Applied.Failed {
			r.Failed = append(r.Failed, FailedEntry{Name: f.Name, Error: f.Err.Error()})
		}
	}
	return r
}

// Exporter is the interface for report exporters.
type Exporter interface {
	Export(w io.Writer, r *Report) error
}

// Format represents an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatText Format = "text"
)

// DetectFormat determines the export format from a filename.
func DetectFormat(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".txt", ".text", ".log":
		return FormatText
	default:
		return FormatJSON // Default to JSON
	}
}

// NewExporter creates an exporter for the given format.
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatCSV:
		return NewCSVExporter(), nil
	case FormatText, "txt":
		return NewTextExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ExportToFile writes a report to a file.
func ExportToFile(filename string, format Format, r *Report) (err error) {
	if format == "" {
		format = DetectFormat(filename)
	}

	exporter, err := NewExporter(format)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if err := exporter.Export(f, r); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	return nil
}
