package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amax-emu/amax-updater/internal/update"
)

func createTestReport() *Report {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Report{
		Installation:  "/games/blur",
		State:         "done",
		RemoteVersion: "2.0.0.0",
		LocalVersion:  "1.0.0.0",
		ArchiveURL:    "https://example.com/amax_client_files.zip",
		ArchiveBytes:  2048,
		BackupDir:     "/games/blur/.amax_bak",
		BackedUp:      []string{"amax", "d3d9.dll"},
		Placed:        []string{"amax", "d3d9.dll", "lua5.1.dll"},
		Failed:        []FailedEntry{{Name: "discord-rpc.dll", Error: "access denied"}},
		StartTime:     start,
		EndTime:       start.Add(1500 * time.Millisecond),
	}
}

func TestNewExporter_TxtAlias(t *testing.T) {
	exp, err := NewExporter("txt")
	if err != nil {
		t.Fatalf("NewExporter(\"txt\") returned error: %v", err)
	}
	if exp == nil {
		t.Error("expected non-nil exporter for 'txt' format")
	}
}

func TestNewExporter_UnsupportedFormat(t *testing.T) {
	_, err := NewExporter("invalid")
	if err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"report.json", FormatJSON},
		{"report.CSV", FormatCSV},
		{"report.txt", FormatText},
		{"update.log", FormatText},
		{"report", FormatJSON},
	}
	for _, tt := range tests {
		if got := DetectFormat(tt.name); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExportToFile_DetectsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	if err := ExportToFile(path, "", createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "path,action,version,detail\n") {
		t.Errorf("expected CSV header, got:\n%s", data)
	}
}

func TestExportToFile_BadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "run.json")
	if err := ExportToFile(path, FormatJSON, createTestReport()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFromResult_Done(t *testing.T) {
	start := time.Now()
	res := &update.Result{
		State: update.Done,
		Session: &update.Session{
			Root:     "/games/blur",
			Remote:   "2.0.0.0",
			Local:    "1.0.0.0",
			Artifact: &update.Artifact{URL: "https://example.com/a.zip", Size: 10},
			Snapshot: &update.Snapshot{Dir: "/games/blur/.amax_bak", Paths: []string{"amax"}},
			Applied: &update.ApplyResult{
				Placed: []string{"amax"},
				Failed: []update.EntryFailure{{Name: "d3d9.dll", Err: errors.New("busy")}},
			},
		},
	}

	r := FromResult(res, start, start.Add(time.Second))
	if r.State != "done" || r.Installation != "/games/blur" {
		t.Errorf("unexpected header fields: %+v", r)
	}
	if r.ArchiveBytes != 10 || r.BackupDir != "/games/blur/.amax_bak" {
		t.Errorf("unexpected artifact or backup fields: %+v", r)
	}
	if len(r.Failed) != 1 || r.Failed[0].Error != "busy" {
		t.Errorf("unexpected failures: %+v", r.Failed)
	}
	if r.Error != "" || r.FailedIn != "" {
		t.Errorf("expected no error, got %q in %q", r.Error, r.FailedIn)
	}
}

func TestFromResult_Failed(t *testing.T) {
	res := &update.Result{
		State:   update.Failed,
		Session: &update.Session{Root: "/games/blur"},
		Err:     &update.StageError{State: update.Downloading, Err: update.ErrDownload},
	}

	r := FromResult(res, time.Time{}, time.Time{})
	if r.FailedIn != "downloading" {
		t.Errorf("expected failure stage 'downloading', got %q", r.FailedIn)
	}
	if r.Error == "" {
		t.Error("expected error message")
	}
	if r.BackupDir != "" || r.BackedUp != nil {
		t.Errorf("expected no backup for empty snapshot, got %+v", r)
	}
}

func TestFromResult_Nil(t *testing.T) {
	r := FromResult(nil, time.Time{}, time.Time{})
	if r == nil || r.State != "" {
		t.Errorf("expected empty report, got %+v", r)
	}
}
