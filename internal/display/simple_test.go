package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestSimpleReporter_State_WritesLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewSimpleReporter(&buf)

	r.State("checking version")

	if buf.String() != "==> checking version\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestSimpleReporter_Progress_WritesEveryStep(t *testing.T) {
	var buf bytes.Buffer
	r := NewSimpleReporter(&buf)

	for done := int64(0); done <= 1000; done += 25 {
		r.Progress(done, 1000)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 11 {
		t.Fatalf("expected 11 lines (0%%..100%%), got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "0%") {
		t.Errorf("expected first line at 0%%, got %q", lines[0])
	}
	if !strings.Contains(lines[10], "100%") {
		t.Errorf("expected last line at 100%%, got %q", lines[10])
	}
}

func TestSimpleReporter_Progress_NoDuplicates(t *testing.T) {
	var buf bytes.Buffer
	r := NewSimpleReporter(&buf)

	r.Progress(500, 1000)
	r.Progress(510, 1000)
	r.Progress(500, 1000)

	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("expected 1 line, got %d: %q", n, buf.String())
	}
}

func TestRenderHelpers_IncludeMessage(t *testing.T) {
	for name, got := range map[string]string{
		"info":    Info("remote 2.0.0.0"),
		"success": Success("remote 2.0.0.0"),
		"error":   Error("remote 2.0.0.0"),
		"title":   Title("remote 2.0.0.0"),
	} {
		if !strings.Contains(got, "remote 2.0.0.0") {
			t.Errorf("%s: message missing from %q", name, got)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	if got := FormatBytes(0, 2_000_000); got != "0 B / 2.0 MB" {
		t.Errorf("FormatBytes = %q", got)
	}
}
