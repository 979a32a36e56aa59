package display

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	bytesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82")).
			Bold(true)
)

const maxBarWidth = 60

// StateMsg is sent when the pipeline enters a new state
type StateMsg struct {
	State string
}

// ProgressMsg is sent after every downloaded chunk
type ProgressMsg struct {
	Done  int64
	Total int64
}

// FinishedMsg is sent when the pipeline returns
type FinishedMsg struct {
	Err error
}

// ProgressModel is the Bubbletea model for the update progress view
type ProgressModel struct {
	mu       sync.RWMutex
	title    string
	state    string
	done     int64
	total    int64
	finished bool
	err      error
	bar      progress.Model
	spinner  spinner.Model
}

// NewProgressModel creates a new progress model
func NewProgressModel(title string) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &ProgressModel{
		title:   title,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		spinner: s,
	}
}

// SetState records the current pipeline state
func (m *ProgressModel) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// SetProgress records download progress
func (m *ProgressModel) SetProgress(done, total int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done = done
	m.total = total
}

// SetFinished marks the pipeline as finished
func (m *ProgressModel) SetFinished(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
	m.err = err
}

// Percent returns the download completion in [0, 1].
func (m *ProgressModel) Percent() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return percent(m.done, m.total)
}

func percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total)
	if p > 1 {
		return 1
	}
	return p
}

// Init implements tea.Model
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.bar.Width = max(min(msg.Width-4, maxBarWidth), 10)

	case StateMsg:
		m.SetState(msg.State)

	case ProgressMsg:
		m.SetProgress(msg.Done, msg.Total)

	case FinishedMsg:
		m.SetFinished(msg.Err)
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model
func (m *ProgressModel) View() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.finished {
		if m.err != nil {
			b.WriteString(errorStyle.Render("✗ " + m.err.Error()))
		} else {
			b.WriteString(successStyle.Render("✓ " + m.state))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(stateStyle.Render(m.state))
	b.WriteString("\n")

	if m.total > 0 {
		b.WriteString(m.bar.ViewAs(percent(m.done, m.total)))
		b.WriteString(" ")
		b.WriteString(bytesStyle.Render(FormatBytes(m.done, m.total)))
		b.WriteString("\n")
	}

	b.WriteString("\nPress 'q' to cancel")
	return b.String()
}

// FormatBytes renders a done/total byte count.
func FormatBytes(done, total int64) string {
	return fmt.Sprintf("%s / %s", humanize.Bytes(uint64(max(done, 0))), humanize.Bytes(uint64(max(total, 0))))
}

type tuiReporter struct {
	p *tea.Program
}

func (r *tuiReporter) State(name string)          { r.p.Send(StateMsg{State: name}) }
func (r *tuiReporter) Progress(done, total int64) { r.p.Send(ProgressMsg{Done: done, Total: total}) }

// RunTUI runs work while rendering its progress. Quitting the TUI cancels
// the context handed to work; RunTUI still waits for work to return.
func RunTUI(ctx context.Context, title string, work func(context.Context, Reporter) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewProgressModel(title)
	p := tea.NewProgram(model, tea.WithContext(ctx))

	errCh := make(chan error, 1)
	go func() {
		err := work(ctx, &tuiReporter{p: p})
		p.Send(FinishedMsg{Err: err})
		errCh <- err
	}()

	_, runErr := p.Run()
	cancel()
	if err := <-errCh; err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return nil
}
