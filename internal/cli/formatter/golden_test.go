package formatter

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes ANSI escape codes so golden files are
// terminal-independent.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// goldenTest compares got against testdata/<name>.golden.
// Set GOLDEN_UPDATE=1 to regenerate golden files.
func goldenTest(t *testing.T, name, got string) {
	t.Helper()

	goldenPath := filepath.Join("testdata", name+".golden")
	stripped := stripANSI(got)

	if os.Getenv("GOLDEN_UPDATE") == "1" {
		require.NoError(t, os.MkdirAll("testdata", 0755))
		require.NoError(t, os.WriteFile(goldenPath, []byte(stripped), 0644))
		t.Logf("updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		t.Fatalf("golden file %s does not exist; run with GOLDEN_UPDATE=1 to create it", goldenPath)
	}
	require.NoError(t, err)
	assert.Equal(t, string(expected), stripped,
		"output does not match golden file %s; run with GOLDEN_UPDATE=1 to update", goldenPath)
}

func sampleGraph() viewmodel.Graph {
	return viewmodel.Graph{
		PlanID: "7",
		Topic:  "Go",
		Nodes: []viewmodel.RenderNode{
			{ID: "1", Label: "Basics", Status: domain.StatusCompleted, EstimatedMinutes: 120},
			{ID: "1.1", Label: "Syntax", Status: domain.StatusInProgress, Depth: 1, EstimatedMinutes: 60},
			{ID: "2", Label: `Advanced "pro"`, Status: domain.StatusNotStarted, EstimatedMinutes: 180},
		},
		Edges: []viewmodel.RenderEdge{
			{ID: "e-1-1.1", Source: "1", Target: "1.1"},
			{ID: "e-1.1-2", Source: "1.1", Target: "2", Synthetic: true},
			{ID: "e-x-2", Source: "ghost", Target: "2"},
		},
	}
}

func TestFormatMermaid_Golden(t *testing.T) {
	goldenTest(t, "roadmap_mermaid", FormatMermaid(sampleGraph()))
}

func TestRenderTree_Golden_NestedLevels(t *testing.T) {
	items := []TreeItem{
		{Label: "Basics", Status: domain.StatusCompleted},
		{Label: "Syntax", Level: 1, Status: domain.StatusInProgress},
		{Label: "Types", Level: 1},
		{Label: "Generics", Level: 2},
		{Label: "Methods", Level: 2},
		{Label: "Advanced", Status: domain.StatusNotStarted},
		{Label: "Concurrency", Level: 1},
	}
	goldenTest(t, "roadmap_tree", RenderTree(items))
}
