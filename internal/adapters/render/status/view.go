package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/freepackages/internal/application"
)

const pendingBarWidth = 24

type RenderOptions struct {
	Now time.Time
	// StaleAfter flags sessions whose account data is older; zero disables it.
	StaleAfter time.Duration
}

func renderView(statuses []application.SessionStatus, fleet fleetSummary, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Free Packages Sessions"),
		s.header.Render(fmt.Sprintf("sessions: %d (%d connected, %d ready)", fleet.sessions, fleet.connected, fleet.ready)),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No sessions configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	if total := fleet.pending; total.Total() > 0 {
		lines = append(lines, s.header.Render(fmt.Sprintf(
			"pending across sessions: %d leaves, %d groups, %d newly owned",
			total.Leaves, total.Groups, total.NewlyOwned,
		)))
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderSession(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(status application.SessionStatus, opts RenderOptions, s styles) string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.session.Render(string(status.Name)),
		" ",
		stateLabel(status, s),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		pendingLine(status, s),
		s.detail.Render(fmt.Sprintf("queue: %s", status.Queue)),
		refreshLine(status, opts, s),
	)
}

func stateLabel(status application.SessionStatus, s styles) string {
	switch {
	case !status.Enabled:
		return s.offline.Render("[disabled]")
	case !status.Connected:
		return s.offline.Render("[disconnected]")
	case !status.Ready:
		return s.waiting.Render("[waiting for account data]")
	default:
		return s.ready.Render("[ready]")
	}
}

func pendingLine(status application.SessionStatus, s styles) string {
	pending := status.Pending
	label := s.key.Render("pending:")
	counts := fmt.Sprintf("%d leaves, %d groups, %d newly owned", pending.Leaves, pending.Groups, pending.NewlyOwned)

	if pending.Total() == 0 {
		return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", s.empty.Render("none"))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		renderPendingBar(pending.Leaves, pending.Groups, pending.NewlyOwned, pendingBarWidth, s),
		" ",
		s.detail.Render(counts),
	)
}

func refreshLine(status application.SessionStatus, opts RenderOptions, s styles) string {
	if status.RefreshedAt.IsZero() {
		return s.detail.Render("account data: never fetched")
	}

	line := s.detail.Render("account data: " + formatAge(status.RefreshedAt, opts.Now))
	if isStale(status.RefreshedAt, opts.Now, opts.StaleAfter) {
		line += " " + s.warning.Render("[stale]")
	}
	return line
}

// renderPendingBar splits width between the three pending sets in proportion
// to their sizes. A non-empty set always gets at least one cell.
func renderPendingBar(leaves, groups, newGroups, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	cells := proportionalCells([]int{leaves, groups, newGroups}, width)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barLeaf.Render(strings.Repeat("l", cells[0])),
		s.barGroup.Render(strings.Repeat("g", cells[1])),
		s.barNew.Render(strings.Repeat("n", cells[2])),
		s.barBracket.Render("]"),
	)
}

func proportionalCells(counts []int, width int) []int {
	total := 0
	for _, c := range counts {
		total += c
	}

	cells := make([]int, len(counts))
	if total == 0 {
		return cells
	}

	used := 0
	largest := 0
	for i, c := range counts {
		if c <= 0 {
			continue
		}
		cells[i] = int(math.Round(float64(width) * float64(c) / float64(total)))
		if cells[i] < 1 {
			cells[i] = 1
		}
		used += cells[i]
		if c > counts[largest] {
			largest = i
		}
	}

	// Rounding drift goes to the largest set.
	cells[largest] += width - used
	if cells[largest] < 1 {
		cells[largest] = 1
	}
	return cells
}

func isStale(refreshedAt, now time.Time, staleAfter time.Duration) bool {
	if now.IsZero() || staleAfter <= 0 {
		return false
	}
	return now.Sub(refreshedAt) > staleAfter
}

func formatAge(at, now time.Time) string {
	if now.IsZero() {
		return "fetched " + at.Format(time.RFC3339)
	}

	age := now.Sub(at)
	switch {
	case age < time.Minute:
		return "fetched just now"
	case age < time.Hour:
		minutes := int(age / time.Minute)
		return fmt.Sprintf("fetched %d %s ago", minutes, plural(minutes, "minute"))
	case age < 24*time.Hour:
		hours := int(age / time.Hour)
		return fmt.Sprintf("fetched %d %s ago", hours, plural(hours, "hour"))
	default:
		return "fetched " + at.Format("15:04 on 02 Jan")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
