package export

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextExporter().Export(&buf, createTestReport()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Amax update of /games/blur",
		"Remote version: 2.0.0.0",
		"(2.0 kB)",
		"Installed: amax, d3d9.dll, lua5.1.dll",
		"Failed: discord-rpc.dll: access denied",
		"Result: done",
		"Duration: 1.5s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTextExporter_Export_Failure(t *testing.T) {
	var buf bytes.Buffer
	r := &Report{State: "failed", FailedIn: "extracting", Error: "corrupt archive"}
	if err := NewTextExporter().Export(&buf, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Local version:  none") {
		t.Errorf("expected missing version shown as none:\n%s", out)
	}
	if !strings.Contains(out, "Failed while extracting: corrupt archive") {
		t.Errorf("expected failure summary:\n%s", out)
	}
}
