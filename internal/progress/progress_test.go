package progress

import (
	"testing"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_AgreesWithStoredStatusParsing(t *testing.T) {
	spellings := []string{
		"completed", "Completed", "complete", "done", "DONE",
		"in-progress", "In Progress", "IN_PROGRESS",
		"not-started", "", "paused",
	}
	for _, raw := range spellings {
		var want Stats
		switch domain.ParseNodeStatus(raw) {
		case domain.StatusCompleted:
			want = Stats{Completed: 1, Total: 1, Percentage: 100}
		case domain.StatusInProgress:
			want = Stats{InProgress: 1, Total: 1}
		default:
			want = Stats{NotStarted: 1, Total: 1}
		}
		assert.Equal(t, want, Calculate(map[string]string{"A": raw}), raw)
	}
}

func TestCalculate_DoneAndCompleteCountAsCompleted(t *testing.T) {
	s := Calculate(map[string]string{"A": "done", "B": "complete", "C": "in-progress"})
	assert.Equal(t, Stats{Completed: 2, InProgress: 1, Total: 3, Percentage: 67}, s)
}

func TestCalculate_MixedFormats(t *testing.T) {
	s := Calculate(map[string]string{
		"A": "completed",
		"B": "In Progress",
		"C": "not-started",
		"D": "Completed",
	})
	assert.Equal(t, Stats{Completed: 2, InProgress: 1, NotStarted: 1, Total: 4, Percentage: 50}, s)
}

func TestCalculate_EmptyIsZero(t *testing.T) {
	assert.Equal(t, Stats{}, Calculate(nil))
	assert.Equal(t, Stats{}, Calculate(map[string]string{}))
}

func TestCalculate_Rounds(t *testing.T) {
	s := Calculate(map[string]string{"a": "completed", "b": "x", "c": "x"})
	assert.Equal(t, 33, s.Percentage)

	s = Calculate(map[string]string{"a": "completed", "b": "completed", "c": "x"})
	assert.Equal(t, 67, s.Percentage)
}

func TestForNodes_AbsentNodesNotStarted(t *testing.T) {
	nodes := []domain.FlatNode{{ID: "1"}, {ID: "1.1"}, {ID: "2"}}
	s := ForNodes(nodes, domain.StatusMap{"1": domain.StatusCompleted, "ghost": domain.StatusCompleted})
	assert.Equal(t, Stats{Completed: 1, NotStarted: 2, Total: 3, Percentage: 33}, s)
}

func TestFromStatuses(t *testing.T) {
	s := FromStatuses(domain.StatusMap{"1": domain.StatusInProgress, "2": domain.StatusCompleted})
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 50, s.Percentage)
}

func TestAggregate(t *testing.T) {
	plans := []PlanStats{
		{PlanID: "1", Hours: 10, Stats: Stats{Completed: 3, Total: 3, Percentage: 100}},
		{PlanID: "2", Hours: 5, Stats: Stats{Completed: 1, InProgress: 1, NotStarted: 2, Total: 4, Percentage: 25}},
		{PlanID: "3", Hours: 2},
	}
	sum := Aggregate(plans)

	assert.Equal(t, 3, sum.Plans)
	assert.Equal(t, 1, sum.FullyCompleted)
	assert.Equal(t, 2, sum.Started)
	assert.Equal(t, 17.0, sum.TotalHours)
	assert.Equal(t, Stats{Completed: 4, InProgress: 1, NotStarted: 2, Total: 7, Percentage: 57}, sum.Totals)
}

func TestFullyCompleted_EmptyPlanIsNot(t *testing.T) {
	assert.False(t, PlanStats{}.FullyCompleted())
	assert.True(t, PlanStats{Stats: Stats{Completed: 2, Total: 2}}.FullyCompleted())
}
