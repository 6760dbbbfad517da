package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeStatus_NextFollowsCycle(t *testing.T) {
	assert.Equal(t, StatusInProgress, StatusNotStarted.Next())
	assert.Equal(t, StatusCompleted, StatusInProgress.Next())
	assert.Equal(t, StatusNotStarted, StatusCompleted.Next())
}

func TestNodeStatus_ThreeStepsReturnToStart(t *testing.T) {
	for _, s := range []NodeStatus{StatusNotStarted, StatusInProgress, StatusCompleted} {
		assert.Equal(t, s, s.Next().Next().Next(), "status %q", s)
	}
}

func TestNodeStatus_UnknownAdvancesLikeNotStarted(t *testing.T) {
	assert.Equal(t, StatusInProgress, NodeStatus("bogus").Next())
	assert.False(t, NodeStatus("bogus").Valid())
}

func TestParseNodeStatus_AcceptsSpellingVariants(t *testing.T) {
	tests := []struct {
		raw  string
		want NodeStatus
	}{
		{"Completed", StatusCompleted},
		{"completed", StatusCompleted},
		{" COMPLETED ", StatusCompleted},
		{"In Progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"in_progress", StatusInProgress},
		{"not-started", StatusNotStarted},
		{"Not Started", StatusNotStarted},
		{"", StatusNotStarted},
		{"paused", StatusNotStarted},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNodeStatus(tt.raw), "raw %q", tt.raw)
	}
}

func TestNodeStatus_Legacy(t *testing.T) {
	assert.Equal(t, "not-started", StatusNotStarted.Legacy())
	assert.Equal(t, "in-progress", StatusInProgress.Legacy())
	assert.Equal(t, "completed", StatusCompleted.Legacy())
}

func TestStatusMap_GetDefaultsToNotStarted(t *testing.T) {
	m := StatusMap{"1": StatusCompleted, "2": NodeStatus("garbage")}
	assert.Equal(t, StatusCompleted, m.Get("1"))
	assert.Equal(t, StatusNotStarted, m.Get("2"))
	assert.Equal(t, StatusNotStarted, m.Get("missing"))
}

func TestValidPurpose(t *testing.T) {
	assert.True(t, ValidPurpose(PurposeResearch))
	assert.False(t, ValidPurpose(Purpose("hobby")))
}
