package display

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user abandons a prompt.
var ErrCancelled = errors.New("cancelled")

// PromptModel asks for a single line of text
type PromptModel struct {
	title     string
	input     textinput.Model
	submitted bool
	cancelled bool
}

// NewPromptModel creates a new prompt model
func NewPromptModel(title, placeholder string) *PromptModel {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Focus()

	return &PromptModel{title: title, input: ti}
}

// Value returns the trimmed input
func (m *PromptModel) Value() string {
	return strings.TrimSpace(m.input.Value())
}

// Init implements tea.Model
func (m *PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m *PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			if m.Value() == "" {
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		case tea.KeyEsc, tea.KeyCtrlC:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model
func (m *PromptModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(bytesStyle.Render("enter to confirm, esc to cancel"))
	b.WriteString("\n")
	return b.String()
}

// PromptPath asks the user for a path on the terminal.
func PromptPath(title string) (string, error) {
	m := NewPromptModel(title, `C:\Program Files (x86)\Steam\steamapps\common\Blur`)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	pm, ok := final.(*PromptModel)
	if !ok || pm.cancelled || !pm.submitted {
		return "", ErrCancelled
	}
	return pm.Value(), nil
}
