package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title      lipgloss.Style
	header     lipgloss.Style
	session    lipgloss.Style
	detail     lipgloss.Style
	warning    lipgloss.Style
	section    lipgloss.Style
	empty      lipgloss.Style
	key        lipgloss.Style
	ready      lipgloss.Style
	waiting    lipgloss.Style
	offline    lipgloss.Style
	barBracket lipgloss.Style
	barLeaf    lipgloss.Style
	barGroup   lipgloss.Style
	barNew     lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:      lipgloss.NewStyle().Bold(true),
		header:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		session:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		warning:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		section:    lipgloss.NewStyle().MarginTop(1),
		empty:      lipgloss.NewStyle().Faint(true),
		key:        lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		ready:      lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		waiting:    lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		offline:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		barBracket: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		barLeaf:    lipgloss.NewStyle().Foreground(lipgloss.Color("159")),
		barGroup:   lipgloss.NewStyle().Foreground(lipgloss.Color("183")),
		barNew:     lipgloss.NewStyle().Foreground(lipgloss.Color("222")),
	}
}
