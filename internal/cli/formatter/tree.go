package formatter

import (
	"strings"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// TreeItem is one topic in a tree display, listed in pre-order.
type TreeItem struct {
	Label  string
	Level  int
	Status domain.NodeStatus
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// RenderTree draws items as an indented tree with box-drawing connectors.
// Top-level items have no connector. Completed topics are dimmed with a
// green check, in-progress topics are amber, and detail badges line up on
// the right.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	contents := make([]string, len(items))
	widest := 0
	for i, item := range items {
		var prefix strings.Builder
		for d := 1; d < item.Level; d++ {
			if hasLaterSibling(items, i, d) {
				prefix.WriteString(treePipe)
			} else {
				prefix.WriteString(treeBlank)
			}
		}
		if item.Level > 0 {
			if hasLaterSibling(items, i, item.Level) {
				prefix.WriteString(treeBranch)
			} else {
				prefix.WriteString(treeCorner)
			}
		}

		st := item.Status
		if st == "" {
			st = domain.StatusNotStarted
		}
		label := item.Label
		switch st {
		case domain.StatusCompleted:
			label = Dim(label)
		case domain.StatusInProgress:
			label = StyleYellowBold.Render(label)
		}
		contents[i] = Dim(prefix.String()) + StatusStyle(st).Render(StatusIcon(st)) + " " + label
		widest = max(widest, lipgloss.Width(contents[i]))
	}

	var b strings.Builder
	for i, item := range items {
		b.WriteString(contents[i])
		if item.Detail != "" {
			pad := widest - lipgloss.Width(contents[i])
			b.WriteString(strings.Repeat(" ", pad) + "  " + StyleBlue.Render("[ "+item.Detail+" ]"))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// hasLaterSibling reports whether another item at level follows items[i]
// before the tree climbs above that level.
func hasLaterSibling(items []TreeItem, i, level int) bool {
	for j := i + 1; j < len(items); j++ {
		switch {
		case items[j].Level == level:
			return true
		case items[j].Level < level:
			return false
		}
	}
	return false
}
