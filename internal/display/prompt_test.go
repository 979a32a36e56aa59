package display

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m *PromptModel, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestPromptModel_SubmitsValue(t *testing.T) {
	m := NewPromptModel("Where is Blur installed?", "")
	typeText(m, " /games/blur ")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !m.submitted {
		t.Error("expected submitted to be true")
	}
	if m.Value() != "/games/blur" {
		t.Errorf("expected trimmed value, got %q", m.Value())
	}
}

func TestPromptModel_IgnoresEmptySubmit(t *testing.T) {
	m := NewPromptModel("Where is Blur installed?", "")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if cmd != nil || m.submitted {
		t.Error("empty input should not submit")
	}
}

func TestPromptModel_Cancel(t *testing.T) {
	m := NewPromptModel("Where is Blur installed?", "")
	typeText(m, "abc")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if !m.cancelled {
		t.Error("expected cancelled to be true")
	}
	if m.View() != "" {
		t.Error("expected empty view after cancel")
	}
}

func TestPromptModel_View_ShowsTitle(t *testing.T) {
	m := NewPromptModel("Where is Blur installed?", "")

	if !strings.Contains(m.View(), "Where is Blur installed?") {
		t.Errorf("expected title in view, got %q", m.View())
	}
}
