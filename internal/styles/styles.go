package styles

import (
	"strings"

	"nathanbeddoewebdev/oshost/internal/domain"
	"nathanbeddoewebdev/oshost/internal/monitor"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Title is the main header text style.
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(White)

	// Label is used for field names in detail views.
	Label = lipgloss.NewStyle().
		Foreground(Gray).
		Bold(true)

	// Value is used for field values in detail views.
	Value = lipgloss.NewStyle().
		Foreground(White)

	// MutedText is for hints and less important info.
	MutedText = lipgloss.NewStyle().
			Foreground(Muted)

	// Card is a rounded-border panel for a detail view.
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(1, 2)
)

// StateStyle returns the style for a machine state.
func StateStyle(state string) lipgloss.Style {
	switch state {
	case domain.StateRunning:
		return lipgloss.NewStyle().Foreground(Green).Bold(true)
	case domain.StatePending:
		return lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	case domain.StateStopped:
		return lipgloss.NewStyle().Foreground(Red)
	case domain.StateError:
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	case domain.StateTerminated:
		return lipgloss.NewStyle().Foreground(Muted)
	default:
		return lipgloss.NewStyle().Foreground(Gray)
	}
}

// StatusIndicator renders a colored dot and the provider status, colored
// by the machine state the status maps to.
func StatusIndicator(status string) string {
	style := StateStyle(monitor.StateFor(status))
	return style.Render("●") + " " + style.Render(status)
}

// DetailCard renders title and label/value rows inside a Card. Rows are
// pairs; a trailing odd element is ignored.
func DetailCard(title string, rows ...string) string {
	width := 0
	for i := 0; i+1 < len(rows); i += 2 {
		width = max(width, lipgloss.Width(rows[i]))
	}

	var b strings.Builder
	b.WriteString(Title.Render(title))
	for i := 0; i+1 < len(rows); i += 2 {
		b.WriteString("\n")
		b.WriteString(Label.Width(width + 2).Render(rows[i]))
		b.WriteString(Value.Render(rows[i+1]))
	}
	return Card.Render(b.String())
}
