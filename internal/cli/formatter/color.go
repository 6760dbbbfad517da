package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen      = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow     = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleYellowBold = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
	StyleRed        = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue       = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple     = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim        = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg         = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader     = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold       = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// StatusStyle colours a node status: green when completed, amber while in
// progress, dim otherwise.
func StatusStyle(st domain.NodeStatus) lipgloss.Style {
	switch st {
	case domain.StatusCompleted:
		return StyleGreen
	case domain.StatusInProgress:
		return StyleYellowBold
	default:
		return StyleDim
	}
}

// StatusIcon returns the single-character marker for a status.
func StatusIcon(st domain.NodeStatus) string {
	switch st {
	case domain.StatusCompleted:
		return "✔"
	case domain.StatusInProgress:
		return "▶"
	default:
		return "○"
	}
}

// StatusPill renders a status as "✔ Completed".
func StatusPill(st domain.NodeStatus) string {
	if st == "" {
		st = domain.StatusNotStarted
	}
	return StatusStyle(st).Render(StatusIcon(st) + " " + string(st))
}

// SourceBadge marks plans that only exist locally.
func SourceBadge(src domain.PlanSource) string {
	if src == domain.SourceLocal {
		return StylePurple.Render("local")
	}
	return StyleBlue.Render("remote")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
