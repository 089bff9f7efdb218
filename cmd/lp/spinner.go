package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// doneMsg carries the result of the background work.
type doneMsg struct{ err error }

// spinnerModel shows a spinner and elapsed time while work runs.
type spinnerModel struct {
	spinner spinner.Model
	label   string
	start   time.Time
	work    func() error
	cancel  context.CancelFunc
	err     error
	done    bool
}

func newSpinnerModel(label string, work func() error, cancel context.CancelFunc) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return spinnerModel{spinner: s, label: label, start: time.Now(), work: work, cancel: cancel}
}

func (m spinnerModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return doneMsg{err: work()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.done = true
			m.err = fmt.Errorf("interrupted")
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	elapsed := time.Since(m.start).Truncate(time.Second)
	return fmt.Sprintf("%s %s  %s\n", m.spinner.View(), m.label, mutedStyle.Render(elapsed.String()))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runWithSpinner runs work, animating a spinner on out when it is a
// terminal. Otherwise it prints the label once and runs work directly.
// Interrupting the spinner cancels the context handed to work.
func runWithSpinner(ctx context.Context, out io.Writer, label string, work func(ctx context.Context) error) error {
	if !isTerminal(out) {
		fmt.Fprintln(out, mutedStyle.Render("→ "+label))
		return work(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	run := func() error { return work(ctx) }
	final, err := tea.NewProgram(newSpinnerModel(label, run, cancel), tea.WithOutput(out)).Run()
	if err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return final.(spinnerModel).err
}
