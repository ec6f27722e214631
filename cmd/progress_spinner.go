package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// progressPhaseMsg moves the spinner to the next phase of the work.
type progressPhaseMsg string

type progressDoneMsg struct {
	err error
}

type progressSpinnerModel struct {
	spinner    spinner.Model
	phaseStyle lipgloss.Style
	label      string
	phases     []string
	work       tea.Cmd
	err        error
	done       bool
}

func newProgressSpinnerModel(label string, work tea.Cmd) progressSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return progressSpinnerModel{
		spinner:    s,
		phaseStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		label:      label,
		work:       work,
	}
}

func (m progressSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.work)
}

func (m progressSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progressPhaseMsg:
		m.phases = append(m.phases, string(msg))
		return m, nil
	case progressDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m progressSpinnerModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", m.spinner.View(), m.label)
	if n := len(m.phases); n > 0 {
		b.WriteString(" ")
		b.WriteString(m.phaseStyle.Render(fmt.Sprintf("[step %d: %s]", n, m.phases[n-1])))
	}
	return b.String()
}

// runProgressSpinner shows label on output until work returns. work may call
// phase to name the step it is on.
func runProgressSpinner(ctx context.Context, output io.Writer, label string, work func(ctx context.Context, phase func(string)) error) error {
	var p *tea.Program

	workCmd := func() tea.Msg {
		return progressDoneMsg{err: work(ctx, func(name string) {
			p.Send(progressPhaseMsg(name))
		})}
	}

	p = tea.NewProgram(
		newProgressSpinnerModel(label, workCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(progressSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
