package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/charmbracelet/glamour"
)

// DetailMarkdown describes the selected topic as Markdown.
func DetailMarkdown(d viewmodel.Detail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", d.Label)
	fmt.Fprintf(&b, "- **Status:** %s\n", d.Status)
	fmt.Fprintf(&b, "- **Estimated time:** %s\n", d.EstimatedTime)
	if len(d.Prerequisites) == 0 {
		b.WriteString("- **Prerequisites:** none\n")
	} else {
		fmt.Fprintf(&b, "- **Prerequisites:** %s\n", strings.Join(d.Prerequisites, ", "))
	}
	return b.String()
}

// RenderMarkdown renders Markdown for the terminal. With styled false it
// uses glamour's plain style, suitable for pipes and tests.
func RenderMarkdown(md string, width int, styled bool) (string, error) {
	style := "notty"
	if styled {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
