package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type remoteCallDoneMsg struct {
	err error
}

// remoteCallSpinnerModel appends the elapsed time once a call runs past
// elapsedAfter.
type remoteCallSpinnerModel struct {
	spinner spinner.Model
	label   string
	call    tea.Cmd
	started time.Time
	now     func() time.Time
	err     error
	done    bool
}

const elapsedAfter = time.Second

func newRemoteCallSpinnerModel(label string, call tea.Cmd, now func() time.Time) remoteCallSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return remoteCallSpinnerModel{
		spinner: s,
		label:   label,
		call:    call,
		started: now(),
		now:     now,
	}
}

func (m remoteCallSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.call)
}

func (m remoteCallSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case remoteCallDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m remoteCallSpinnerModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now().Sub(m.started)
	if elapsed < elapsedAfter {
		return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	}

	return fmt.Sprintf("%s %s (%s)", m.spinner.View(), m.label, elapsed.Truncate(time.Second))
}

// runRemoteCallSpinner runs call while drawing a spinner on output and
// returns the error call produced.
func runRemoteCallSpinner(ctx context.Context, output io.Writer, label string, call func(context.Context) error) error {
	callCmd := func() tea.Msg {
		return remoteCallDoneMsg{err: call(ctx)}
	}

	p := tea.NewProgram(
		newRemoteCallSpinnerModel(label, callCmd, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(remoteCallSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
