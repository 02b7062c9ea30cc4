package interactivity

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/i18nmerge/i18nmerge/internal/charm/styles"
)

type progressMsg struct{ done int }

type exitMsg struct{}

type spinnerModel struct {
	message string
	spinner spinner.Model
	done    int
	total   int
	quit    bool
}

func newSpinnerModel(message string, total int) *spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(styles.Colors.Yellow)

	return &spinnerModel{message: message, spinner: s, total: total}
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case exitMsg:
		m.quit = true
		return m, tea.Quit
	case progressMsg:
		m.done = msg.done
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m *spinnerModel) View() string {
	if m.quit {
		return ""
	}

	progress := ""
	if m.total > 0 {
		progress = styles.Dimmed.Render(fmt.Sprintf(" %d/%d", m.done, m.total))
	}
	return fmt.Sprintf("%s %s%s\n", m.spinner.View(), styles.HeavilyEmphasized.Render(m.message), progress)
}

// Spinner is a running progress indicator on stderr.
type Spinner struct {
	p        *tea.Program
	finished chan struct{}
}

// StartSpinner shows message with a done/total counter until Stop is called.
func StartSpinner(message string, total int) *Spinner {
	s := &Spinner{
		p:        tea.NewProgram(newSpinnerModel(message, total), tea.WithOutput(os.Stderr), tea.WithInput(nil)),
		finished: make(chan struct{}),
	}
	go func() {
		defer close(s.finished)
		if _, err := s.p.Run(); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}()

	return s
}

// Progress updates the done counter.
func (s *Spinner) Progress(done int) {
	s.p.Send(progressMsg{done: done})
}

// Stop clears the spinner and waits for the terminal to be released.
func (s *Spinner) Stop() {
	s.p.Send(exitMsg{})
	<-s.finished
}
