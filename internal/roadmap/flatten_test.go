package roadmap

import (
	"testing"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treesRoadmap() []domain.RoadmapNode {
	return []domain.RoadmapNode{
		{
			ID:             "1",
			Topic:          "Trees",
			EstimatedHours: 4,
			Prerequisites:  []string{},
			Subtopics: []domain.RoadmapNode{
				{ID: "1.1", Topic: "Tree Basics", EstimatedHours: 1, Prerequisites: []string{}},
			},
		},
	}
}

func TestFlatten_TreesExample(t *testing.T) {
	flat := Flatten(treesRoadmap())

	require.Len(t, flat, 2)
	assert.Equal(t, domain.FlatNode{ID: "1", Label: "Trees", Prerequisites: []string{}, EstimatedMinutes: 240, EstimatedHours: 4}, flat[0])
	assert.Equal(t, domain.FlatNode{ID: "1.1", Label: "Tree Basics", Prerequisites: []string{}, EstimatedMinutes: 60, EstimatedHours: 1, Depth: 1}, flat[1])
}

func TestFlatten_IsDeterministic(t *testing.T) {
	tree := []domain.RoadmapNode{
		{ID: "a", Topic: "A", Subtopics: []domain.RoadmapNode{
			{Topic: "A1"},
			{Topic: "A2", Subtopics: []domain.RoadmapNode{{Title: "deep"}}},
		}},
		{Topic: "B", Prerequisites: []string{"a"}},
	}

	first := Flatten(tree)
	second := Flatten(tree)
	assert.Equal(t, first, second)
}

func TestFlatten_PreOrderAndCompleteness(t *testing.T) {
	tree := []domain.RoadmapNode{
		{ID: "1", Topic: "One", Subtopics: []domain.RoadmapNode{
			{ID: "1.1", Topic: "One.One", Subtopics: []domain.RoadmapNode{
				{ID: "1.1.1", Topic: "Leaf"},
			}},
			{ID: "1.2", Topic: "One.Two"},
		}},
		{ID: "2", Topic: "Two"},
	}

	flat := Flatten(tree)
	ids := make([]string, len(flat))
	for i, n := range flat {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"1", "1.1", "1.1.1", "1.2", "2"}, ids)
	assert.Equal(t, CountNodes(tree), len(flat))
}

func TestFlatten_DuplicateIDKeepsFirstInPreOrder(t *testing.T) {
	tree := []domain.RoadmapNode{
		{ID: "x", Topic: "First", Subtopics: []domain.RoadmapNode{
			{ID: "x", Topic: "Nested duplicate"},
		}},
		{ID: "x", Topic: "Sibling duplicate"},
	}

	res := FlattenWithReport(tree)
	require.Len(t, res.Nodes, 1)
	assert.Equal(t, "First", res.Nodes[0].Label)
	require.Len(t, res.Collisions, 2)
	assert.Equal(t, IDExplicit, res.Collisions[0].Source)
	assert.Equal(t, "Nested duplicate", res.Collisions[0].Label)
	assert.Equal(t, "First", res.Collisions[0].FirstLabel)
}

func TestFlatten_IdentifierFallbackChain(t *testing.T) {
	tree := []domain.RoadmapNode{
		{ID: "explicit", Topic: "Has ID"},
		{Topic: "Topic Only"},
		{Title: "Title Only"},
		{},
	}

	flat := Flatten(tree)
	require.Len(t, flat, 4)
	assert.Equal(t, "explicit", flat[0].ID)
	assert.Equal(t, "Topic Only", flat[1].ID)
	// Title does not participate in id derivation, only in the label.
	assert.Equal(t, "topic-2", flat[2].ID)
	assert.Equal(t, "Title Only", flat[2].Label)
	assert.Equal(t, "topic-3", flat[3].ID)
	assert.Equal(t, "Topic 4", flat[3].Label)
}

func TestFlatten_SameTopicTextCollisionIsReported(t *testing.T) {
	tree := []domain.RoadmapNode{
		{Topic: "Recursion"},
		{Topic: "Recursion", EstimatedHours: 2},
	}

	res := FlattenWithReport(tree)
	require.Len(t, res.Nodes, 1)
	require.Len(t, res.Collisions, 1)
	assert.Equal(t, IDFromTopic, res.Collisions[0].Source)
	assert.Equal(t, "Recursion", res.Collisions[0].ID)
}

func TestFlatten_MinutesDerivation(t *testing.T) {
	tree := []domain.RoadmapNode{
		{ID: "h", EstimatedHours: 1.5},
		{ID: "m", EstimatedMinutes: 45},
		{ID: "both", EstimatedHours: 0.5, EstimatedMinutes: 99},
		{ID: "tiny", EstimatedHours: 0.001, EstimatedMinutes: 5},
		{ID: "none"},
		{ID: "neg", EstimatedHours: -3},
	}

	flat := Flatten(tree)
	got := map[string]int{}
	for _, n := range flat {
		got[n.ID] = n.EstimatedMinutes
	}
	assert.Equal(t, 90, got["h"])
	assert.Equal(t, 45, got["m"])
	assert.Equal(t, 30, got["both"])
	assert.Equal(t, 5, got["tiny"])
	assert.Equal(t, 0, got["none"])
	assert.Equal(t, 0, got["neg"])
}

func TestFlatten_Empty(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten([]domain.RoadmapNode{}))
}

func TestFlatten_CopiesPrerequisites(t *testing.T) {
	tree := []domain.RoadmapNode{{ID: "b", Prerequisites: []string{"a"}}}
	flat := Flatten(tree)
	flat[0].Prerequisites[0] = "mutated"
	assert.Equal(t, "a", tree[0].Prerequisites[0])
}
