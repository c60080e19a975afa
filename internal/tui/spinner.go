package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/firefly-engineering/ember-addon-tests/internal/health"
)

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	elapsedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type taskDoneMsg struct {
	err error
}

// spinnerModel shows a spinner next to title until the task reports back.
type spinnerModel struct {
	spinner     spinner.Model
	title       string
	start       time.Time
	elapsed     time.Duration
	done        bool
	interrupted bool
	err         error
}

func newSpinnerModel(title string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return spinnerModel{spinner: s, title: title, start: time.Now()}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case taskDoneMsg:
		m.done = true
		m.err = msg.err
		m.elapsed = time.Since(m.start)
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.interrupted = true
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	switch {
	case m.interrupted:
		return failedStyle.Render("✗") + " " + m.title + " (interrupted)\n"
	case m.done && m.err != nil:
		return failedStyle.Render("✗") + " " + m.title + "\n"
	case m.done:
		return doneStyle.Render("✓") + " " + m.title + " " +
			elapsedStyle.Render(health.FormatDuration(m.elapsed)) + "\n"
	}
	return m.spinner.View() + " " + m.title + "\n"
}

// RunWithSpinner runs fn while showing title on out. The spinner is only
// drawn when out is a terminal. It returns fn's error once fn has returned.
func RunWithSpinner(ctx context.Context, out io.Writer, title string, fn func(context.Context) error) error {
	if !IsTerminal(out) {
		fmt.Fprintf(out, "%s...\n", title)
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(title), tea.WithOutput(out))
	result := make(chan error, 1)
	go func() {
		err := fn(ctx)
		result <- err
		p.Send(taskDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		taskErr := <-result
		if taskErr != nil {
			return taskErr
		}
		return err
	}

	// An interrupted spinner quits before the task, which then sees ctx
	// cancelled.
	cancel()
	return <-result
}
