package display

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewProgressModel_CreatesModel(t *testing.T) {
	model := NewProgressModel("Amax updater")

	if model.title != "Amax updater" {
		t.Errorf("expected title 'Amax updater', got %q", model.title)
	}
	if model.Percent() != 0 {
		t.Errorf("expected 0 percent, got %f", model.Percent())
	}
}

func TestProgressModel_Update_TracksState(t *testing.T) {
	model := NewProgressModel("Amax updater")

	model.Update(StateMsg{State: "downloading"})

	if model.state != "downloading" {
		t.Errorf("expected state 'downloading', got %q", model.state)
	}
	if !strings.Contains(model.View(), "downloading") {
		t.Error("expected state in view")
	}
}

func TestProgressModel_Update_TracksProgress(t *testing.T) {
	model := NewProgressModel("Amax updater")

	model.Update(ProgressMsg{Done: 512, Total: 1024})

	if got := model.Percent(); got != 0.5 {
		t.Errorf("expected 0.5, got %f", got)
	}
	if !strings.Contains(model.View(), "512 B / 1.0 kB") {
		t.Errorf("expected byte counts in view, got %q", model.View())
	}
}

func TestProgressModel_Update_FinishedQuits(t *testing.T) {
	model := NewProgressModel("Amax updater")

	_, cmd := model.Update(FinishedMsg{})

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !model.finished {
		t.Error("expected finished to be true")
	}
}

func TestProgressModel_View_ShowsError(t *testing.T) {
	model := NewProgressModel("Amax updater")
	model.SetFinished(errors.New("extracting: archive is corrupt"))

	view := model.View()

	if !strings.Contains(view, "archive is corrupt") {
		t.Errorf("expected error in view, got %q", view)
	}
}

func TestProgressModel_Update_QuitKey(t *testing.T) {
	model := NewProgressModel("Amax updater")

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestPercent_Clamps(t *testing.T) {
	tests := []struct {
		done, total int64
		want        float64
	}{
		{0, 0, 0},
		{10, -1, 0},
		{5, 10, 0.5},
		{20, 10, 1},
	}
	for _, tt := range tests {
		if got := percent(tt.done, tt.total); got != tt.want {
			t.Errorf("percent(%d, %d) = %f, want %f", tt.done, tt.total, got, tt.want)
		}
	}
}
