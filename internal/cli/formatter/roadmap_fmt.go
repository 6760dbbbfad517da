package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/viewmodel"
)

// FormatRoadmapTree renders the graph's nodes in roadmap order, indented by
// their nesting depth, with estimated time badges.
func FormatRoadmapTree(g viewmodel.Graph) string {
	items := make([]TreeItem, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		items = append(items, TreeItem{
			Label:  n.Label,
			Level:  n.Depth,
			Status: n.Status,
			Detail: FormatMinutes(n.EstimatedMinutes),
		})
	}
	return RenderTree(items)
}

// FormatMermaid renders the graph as a Mermaid flowchart. Node ids are
// replaced by positional names because roadmap ids may contain characters
// Mermaid treats as syntax. Synthetic chain edges are dotted.
func FormatMermaid(g viewmodel.Graph) string {
	names := make(map[string]string, len(g.Nodes))
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for i, n := range g.Nodes {
		name := fmt.Sprintf("n%d", i)
		names[n.ID] = name
		fmt.Fprintf(&b, "    %s[\"%s\"]:::%s\n", name, mermaidLabel(n.Label), mermaidClass(n.Status))
	}
	for _, e := range g.Edges {
		src, ok1 := names[e.Source]
		dst, ok2 := names[e.Target]
		if !ok1 || !ok2 {
			continue
		}
		arrow := "-->"
		if e.Synthetic {
			arrow = "-.->"
		}
		fmt.Fprintf(&b, "    %s %s %s\n", src, arrow, dst)
	}
	fmt.Fprintf(&b, "    classDef notStarted fill:%s,color:#fff\n", viewmodel.FillNotStarted)
	fmt.Fprintf(&b, "    classDef inProgress fill:%s,color:#fff\n", viewmodel.FillInProgress)
	fmt.Fprintf(&b, "    classDef completed fill:%s,color:#fff\n", viewmodel.FillCompleted)
	return b.String()
}

func mermaidClass(st domain.NodeStatus) string {
	switch st {
	case domain.StatusCompleted:
		return "completed"
	case domain.StatusInProgress:
		return "inProgress"
	default:
		return "notStarted"
	}
}

func mermaidLabel(s string) string {
	return strings.NewReplacer(`"`, "#quot;", "\n", " ").Replace(s)
}

// FormatGraphJSON renders the graph as indented JSON.
func FormatGraphJSON(g viewmodel.Graph) (string, error) {
	out, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding graph: %w", err)
	}
	return string(out) + "\n", nil
}
