package roadmap

import (
	"testing"
	"time"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_BackendShape(t *testing.T) {
	raw := `{"main_topic":"Graphs","roadmap":[
		{"id":"1","topic":"Basics","estimated_time_hours":2,"prerequisites":[],
		 "subtopics":[{"id":"1.1","topic":"Vertices","estimated_time_hours":1,"prerequisites":["1"]}]},
		{"id":"2","topic":"Search","estimated_time_hours":3,"prerequisites":["1.1"]}
	]}`

	nodes, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "Basics", nodes[0].Topic)
	require.Len(t, nodes[0].Subtopics, 1)
	assert.Equal(t, []string{"1"}, nodes[0].Subtopics[0].Prerequisites)
	assert.Equal(t, 3.0, nodes[1].EstimatedHours)
}

func TestDecode_LooseFieldShapes(t *testing.T) {
	raw := `[
		{"id":7,"title":"Numeric id","time_hours":"1.5","prerequisites":[3, "x", null]},
		{"topic":"Single prereq","prerequisites":"7","estimated_time_minutes":40},
		{"topic":"Bad subtopics","subtopics":"oops"},
		"not an object"
	]`

	nodes, err := Decode([]byte(raw))
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "7", nodes[0].ID)
	assert.Equal(t, "Numeric id", nodes[0].Title)
	assert.Equal(t, 1.5, nodes[0].EstimatedHours)
	assert.Equal(t, []string{"3", "x"}, nodes[0].Prerequisites)

	assert.Equal(t, []string{"7"}, nodes[1].Prerequisites)
	assert.Equal(t, 40, nodes[1].EstimatedMinutes)

	assert.Empty(t, nodes[2].Subtopics)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte("{"))
	assert.Error(t, err)
}

func TestDecodeValue_NonArrayIsEmpty(t *testing.T) {
	assert.Empty(t, DecodeValue("text"))
	assert.Empty(t, DecodeValue(map[string]any{"other": 1}))
	assert.Empty(t, DecodeValue(nil))
}

func TestDecodePlan_NormalisesAlternateFields(t *testing.T) {
	now := time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC)

	plan := DecodePlan(map[string]any{
		"topic":      "Rust",
		"studyHours": "12",
	}, 2, now)

	assert.Equal(t, "3", plan.ID)
	assert.Equal(t, "Rust", plan.MainTopic)
	assert.Equal(t, 12.0, plan.AvailableHours)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), plan.CreatedAt)
	assert.NotNil(t, plan.Roadmap)
}

func TestDecodePlan_CanonicalFieldsWin(t *testing.T) {
	plan := DecodePlan(map[string]any{
		"id":             float64(5),
		"main_topic":     "Go",
		"topic":          "ignored",
		"available_time": float64(20),
		"studyHours":     float64(99),
		"created_at":     "2025-11-02",
		"roadmaps": []any{
			map[string]any{"id": float64(1), "title": "Intro"},
		},
	}, 0, time.Now())

	assert.Equal(t, "5", plan.ID)
	assert.Equal(t, "Go", plan.MainTopic)
	assert.Equal(t, 20.0, plan.AvailableHours)
	assert.Equal(t, 2025, plan.CreatedAt.Year())
	require.Len(t, plan.Roadmap, 1)
	assert.Equal(t, "Intro", plan.Roadmap[0].Title)
}

func TestDecodePlan_MissingTopicDefaults(t *testing.T) {
	plan := DecodePlan(map[string]any{}, 0, time.Now())
	assert.Equal(t, "Unknown Topic", plan.MainTopic)
	assert.Equal(t, 0.0, plan.AvailableHours)
	assert.Equal(t, "1", plan.ID)
}

func TestDecodePlans_SkipsNonObjects(t *testing.T) {
	plans, err := DecodePlans([]byte(`[{"id":1,"main_topic":"A"}, 4, {"main_topic":"B"}]`), time.Now())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "1", plans[0].ID)
	assert.Equal(t, "3", plans[1].ID)
}

func TestScaleToBudget_ProportionalAndRounded(t *testing.T) {
	tree := []domain.RoadmapNode{
		{ID: "1", EstimatedHours: 4, Subtopics: []domain.RoadmapNode{{ID: "1.1", EstimatedHours: 2}}},
		{ID: "2", EstimatedHours: 3},
	}

	scaled := ScaleToBudget(tree, 10)
	assert.Equal(t, 4.44, scaled[0].EstimatedHours)
	assert.Equal(t, 2.22, scaled[0].Subtopics[0].EstimatedHours)
	assert.Equal(t, 3.33, scaled[1].EstimatedHours)
	// Input is not mutated.
	assert.Equal(t, 4.0, tree[0].EstimatedHours)
}

func TestScaleToBudget_NoEstimatesUnchanged(t *testing.T) {
	tree := []domain.RoadmapNode{{ID: "1"}}
	assert.Equal(t, tree, ScaleToBudget(tree, 10))
	assert.Equal(t, 0.0, TotalHours(nil))
}

func TestDecodePlanWithReport_ReportsUncoercibleFields(t *testing.T) {
	plan, issues := DecodePlanWithReport(map[string]any{
		"main_topic":     "Go",
		"available_time": "lots",
		"roadmap": []any{
			map[string]any{"topic": "Basics", "estimated_time_hours": "soon"},
		},
	}, 2, time.Now())

	assert.Equal(t, "Go", plan.MainTopic)
	assert.Zero(t, plan.AvailableHours)
	require.Len(t, plan.Roadmap, 1)
	assert.Equal(t, "Basics", plan.Roadmap[0].Topic)
	assert.Zero(t, plan.Roadmap[0].EstimatedHours)

	require.Len(t, issues, 2)
	assert.Equal(t, "plans[2]", issues[0].Path)
	assert.Contains(t, issues[0].Message, "available_time")
	assert.Equal(t, "plans[2].roadmap[0]", issues[1].Path)
	assert.Contains(t, issues[1].Message, "estimated_time_hours")
}

func TestDecodeValueWithReport_CleanInputHasNoIssues(t *testing.T) {
	nodes, issues := DecodeValueWithReport([]any{
		map[string]any{"id": 1, "topic": "A", "prerequisites": "0"},
	})
	require.Len(t, nodes, 1)
	assert.Equal(t, "1", nodes[0].ID)
	assert.Equal(t, []string{"0"}, nodes[0].Prerequisites)
	assert.Empty(t, issues)
}
