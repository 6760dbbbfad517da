package service_test

import (
	"context"
	"testing"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/roadmap"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanStats_CountsFlattenedNodes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	plan, err := h.plans.Create(ctx, service.CreatePlanInput{Topic: "Graphs", AvailableHours: 6})
	require.NoError(t, err)
	flat := roadmap.Flatten(plan.Roadmap)
	require.NoError(t, h.store.SetStatus(ctx, plan.ID, flat[0], domain.StatusCompleted))

	stats, err := h.progress.PlanStats(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Graphs", stats.Topic)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.NotStarted)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 50, stats.Percentage)
	assert.False(t, stats.FullyCompleted())
}

func TestPlanStats_UnknownPlan(t *testing.T) {
	h := newHarness(t)
	_, err := h.progress.PlanStats(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrPlanNotFound)
}

func TestSummary_AggregatesAcrossPlans(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.login(t)

	graphs, err := h.plans.Create(ctx, service.CreatePlanInput{Topic: "Graphs", AvailableHours: 6})
	require.NoError(t, err)
	_, err = h.plans.Create(ctx, service.CreatePlanInput{Topic: "Chess", AvailableHours: 12, Offline: true})
	require.NoError(t, err)

	flat := roadmap.Flatten(graphs.Roadmap)
	require.NoError(t, h.store.SetStatus(ctx, graphs.ID, flat[0], domain.StatusCompleted))
	require.NoError(t, h.store.SetStatus(ctx, graphs.ID, flat[1], domain.StatusCompleted))

	report, err := h.progress.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, report.Plans, 2)
	assert.False(t, report.Offline)

	assert.Equal(t, 100, report.Plans[0].Percentage)
	assert.Equal(t, 0, report.Plans[1].Percentage)
	assert.Equal(t, 12, report.Plans[1].Total)

	sum := report.Summary
	assert.Equal(t, 2, sum.Plans)
	assert.Equal(t, 1, sum.FullyCompleted)
	assert.Equal(t, 1, sum.Started)
	assert.Equal(t, 18.0, sum.TotalHours)
	assert.Equal(t, 14, sum.Totals.Total)
	assert.Equal(t, 2, sum.Totals.Completed)
	assert.Equal(t, 14, sum.Totals.Percentage)
}

func TestSummary_NoPlans(t *testing.T) {
	h := newHarness(t)
	h.backend.Close()

	report, err := h.progress.Summary(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Offline)
	assert.Empty(t, report.Plans)
	assert.Zero(t, report.Summary.Totals.Percentage)
}
