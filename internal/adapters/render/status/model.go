package status

import (
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/freepackages/internal/application"
	"github.com/bnema/freepackages/internal/domain"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// fleetSummary aggregates the per-session statuses for the header.
type fleetSummary struct {
	sessions  int
	connected int
	ready     int
	pending   domain.PendingCounts
}

func summarize(statuses []application.SessionStatus) fleetSummary {
	summary := fleetSummary{sessions: len(statuses)}
	for _, status := range statuses {
		summary.pending.Leaves += status.Pending.Leaves
		summary.pending.Groups += status.Pending.Groups
		summary.pending.NewlyOwned += status.Pending.NewlyOwned

		if !status.Enabled || !status.Connected {
			continue
		}
		summary.connected++
		if status.Ready {
			summary.ready++
		}
	}
	return summary
}

type statusesLoadedMsg struct {
	statuses []application.SessionStatus
}

type model struct {
	opts   RenderOptions
	styles styles
	load   tea.Cmd
	output string
}

func newModel(statuses []application.SessionStatus, opts RenderOptions) model {
	return model{
		opts:   opts,
		styles: newStyles(),
		load: func() tea.Msg {
			return statusesLoadedMsg{statuses: statuses}
		},
	}
}

func (m model) Init() tea.Cmd {
	return m.load
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusesLoadedMsg:
		m.output = renderView(msg.statuses, summarize(msg.statuses), m.opts, m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

// Render draws the session status view without a terminal.
func Render(statuses []application.SessionStatus, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(statuses, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
