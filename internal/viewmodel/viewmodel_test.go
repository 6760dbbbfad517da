package viewmodel_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/layout"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/alexanderramin/studymap/internal/testutil"
	"github.com/alexanderramin/studymap/internal/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treesPlan() domain.StudyPlan {
	return testutil.NewTestPlan("Trees", testutil.WithPlanID("p7"), testutil.WithRoadmap(
		testutil.NewTestNode("1", "Trees", testutil.WithHours(4), testutil.WithSubtopics(
			testutil.NewTestNode("1.1", "Tree Basics", testutil.WithHours(1)),
		)),
	))
}

func newModel(t *testing.T, plan domain.StudyPlan) (*viewmodel.Model, *store.ProgressStore, store.KV) {
	t.Helper()
	kv := store.NewMemoryKV()
	s := store.NewProgressStore(kv)
	m, err := viewmodel.New(context.Background(), plan, s, viewmodel.Options{})
	require.NoError(t, err)
	return m, s, kv
}

func nodeByID(g viewmodel.Graph, id string) viewmodel.RenderNode {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return viewmodel.RenderNode{}
}

func TestTreesExample_EndToEnd(t *testing.T) {
	ctx := context.Background()
	m, _, kv := newModel(t, treesPlan())

	nodes := m.Nodes()
	require.Len(t, nodes, 2)
	assert.Equal(t, "Trees", nodes[0].Label)
	assert.Equal(t, 240, nodes[0].EstimatedMinutes)
	assert.Equal(t, "Tree Basics", nodes[1].Label)
	assert.Equal(t, 60, nodes[1].EstimatedMinutes)

	g := m.Graph()
	assert.Less(t, nodeByID(g, "1").Rank, nodeByID(g, "1.1").Rank)
	assert.Less(t, nodeByID(g, "1").Position.Y, nodeByID(g, "1.1").Position.Y)

	res, err := m.Advance(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, res.Status)

	e, err := kv.Get(ctx, "nodeStatuses_p7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":"In Progress"}`, string(e.Value))
}

func TestClick_SelectsThenAdvances(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newModel(t, treesPlan())

	res, err := m.Click(ctx, "1.1")
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Equal(t, domain.StatusNotStarted, res.Status)
	require.NotNil(t, m.Selected())
	assert.Equal(t, "1.1", m.Selected().ID)

	want := []domain.NodeStatus{domain.StatusInProgress, domain.StatusCompleted, domain.StatusNotStarted}
	for _, st := range want {
		res, err = m.Click(ctx, "1.1")
		require.NoError(t, err)
		assert.True(t, res.Advanced)
		assert.Equal(t, st, res.Status)
	}

	// Clicking another node moves the selection without touching either status.
	res, err = m.Click(ctx, "1")
	require.NoError(t, err)
	assert.False(t, res.Advanced)
	assert.Equal(t, "1", m.Selected().ID)
	assert.Equal(t, domain.StatusNotStarted, m.Status("1"))
}

func TestGraph_FillFollowsStatusAndPositionsDoNot(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newModel(t, testutil.NewTestPlan("Go"))
	before := m.Graph()

	_, err := m.Advance(ctx, "1.1")
	require.NoError(t, err)
	after := m.Graph()

	assert.Equal(t, viewmodel.FillNotStarted, nodeByID(before, "1.1").Fill)
	assert.Equal(t, viewmodel.FillInProgress, nodeByID(after, "1.1").Fill)
	assert.True(t, nodeByID(after, "1.1").Selected)
	for i := range before.Nodes {
		assert.Equal(t, before.Nodes[i].Position, after.Nodes[i].Position)
	}
	assert.Equal(t, 1, after.Stats.InProgress)
}

func TestFill(t *testing.T) {
	assert.Equal(t, "#3b82f6", viewmodel.Fill(domain.StatusNotStarted))
	assert.Equal(t, "#f59e0b", viewmodel.Fill(domain.StatusInProgress))
	assert.Equal(t, "#10b981", viewmodel.Fill(domain.StatusCompleted))
	assert.Equal(t, "#3b82f6", viewmodel.Fill("bogus"))
}

func TestSelected_Detail(t *testing.T) {
	plan := testutil.NewTestPlan("Go", testutil.WithRoadmap(
		testutil.NewTestNode("a", "Timed", testutil.WithMinutes(45)),
		testutil.NewTestNode("b", "Untimed"),
	))
	m, _, _ := newModel(t, plan)

	assert.Nil(t, m.Selected())
	require.NoError(t, m.Select("a"))
	assert.Equal(t, "45 min", m.Selected().EstimatedTime)
	require.NoError(t, m.Select("b"))
	assert.Equal(t, "Not specified", m.Selected().EstimatedTime)
	m.Deselect()
	assert.Nil(t, m.Selected())
}

func TestReset_ClearsStatusesAndSelection(t *testing.T) {
	ctx := context.Background()
	m, s, _ := newModel(t, testutil.NewTestPlan("Go", testutil.WithPlanID("p")))

	var events []store.ProgressUpdated
	store.On(s.Bus(), func(e store.ProgressUpdated) { events = append(events, e) })

	_, err := m.Advance(ctx, "1")
	require.NoError(t, err)
	_, err = m.Advance(ctx, "2")
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))
	assert.Nil(t, m.Selected())
	for _, n := range m.Graph().Nodes {
		assert.Equal(t, domain.StatusNotStarted, n.Status)
	}
	require.Len(t, events, 3)
	assert.True(t, events[2].Reset)

	fresh, err := viewmodel.New(ctx, m.Plan(), s, viewmodel.Options{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, fresh.Status("1"))
}

func TestUnknownNode(t *testing.T) {
	m, _, _ := newModel(t, treesPlan())
	_, err := m.Click(context.Background(), "nope")
	assert.ErrorIs(t, err, viewmodel.ErrUnknownNode)
	assert.ErrorIs(t, m.Select("nope"), viewmodel.ErrUnknownNode)
}

func TestRefresh_PicksUpChangesFromAnotherModel(t *testing.T) {
	ctx := context.Background()
	s := store.NewProgressStore(store.NewMemoryKV())
	plan := treesPlan()

	a, err := viewmodel.New(ctx, plan, s, viewmodel.Options{})
	require.NoError(t, err)
	b, err := viewmodel.New(ctx, plan, s, viewmodel.Options{})
	require.NoError(t, err)

	// b re-reads on every progress event, as a mounted dashboard would.
	store.On(s.Bus(), func(store.ProgressUpdated) { require.NoError(t, b.Refresh(ctx)) })

	_, err = a.Advance(ctx, "1.1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, b.Status("1.1"))
}

func TestRefresh_SeesWritesFromAnotherStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	a := store.NewProgressStore(kv)
	b := store.NewProgressStore(kv)
	plan := treesPlan()
	require.NoError(t, a.SavePlan(ctx, plan))

	m, err := viewmodel.New(ctx, plan, a, viewmodel.Options{})
	require.NoError(t, err)
	require.Equal(t, domain.StatusNotStarted, m.Status("1"))

	node, ok := m.Node("1")
	require.True(t, ok)
	require.NoError(t, b.SetStatus(ctx, plan.ID, node, domain.StatusCompleted))
	require.NoError(t, b.SavePlan(ctx, testutil.NewTestPlan("Graphs", testutil.WithPlanID("p8"))))

	require.NoError(t, m.Refresh(ctx))
	assert.Equal(t, domain.StatusCompleted, m.Status("1"))

	plans, err := a.Plans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestAdvance_StartsFromStoredStatus(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	plan := treesPlan()
	m, err := viewmodel.New(ctx, plan, store.NewProgressStore(kv), viewmodel.Options{})
	require.NoError(t, err)

	// Another process moves the node on without this model refreshing.
	other := store.NewProgressStore(kv)
	node, _ := m.Node("1.1")
	require.NoError(t, other.SetStatus(ctx, plan.ID, node, domain.StatusInProgress))

	res, err := m.Advance(ctx, "1.1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, res.Previous)
	assert.Equal(t, domain.StatusCompleted, res.Status)
	assert.Equal(t, domain.StatusCompleted, m.Status("1.1"))

	e, err := kv.Get(ctx, "nodeStatuses_p7")
	require.NoError(t, err)
	assert.JSONEq(t, `{"1.1":"Completed"}`, string(e.Value))
}

func TestAdvance_ConcurrentCallsAreSerialised(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newModel(t, treesPlan())

	var wg sync.WaitGroup
	results := make([]viewmodel.ClickResult, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := m.Advance(ctx, "1")
			assert.NoError(t, err)
			results[i] = res
		}()
	}
	wg.Wait()

	assert.Equal(t, domain.StatusCompleted, m.Status("1"))
	assert.ElementsMatch(t,
		[]domain.NodeStatus{domain.StatusInProgress, domain.StatusCompleted},
		[]domain.NodeStatus{results[0].Status, results[1].Status})
}

func TestNew_SharesLayoutCache(t *testing.T) {
	ctx := context.Background()
	s := store.NewProgressStore(store.NewMemoryKV())
	cache := layout.NewCache(4)
	opts := viewmodel.Options{Cache: cache}

	_, err := viewmodel.New(ctx, testutil.NewTestPlan("A", testutil.WithPlanID("1")), s, opts)
	require.NoError(t, err)
	_, err = viewmodel.New(ctx, testutil.NewTestPlan("B", testutil.WithPlanID("2")), s, opts)
	require.NoError(t, err)

	hits, misses := cache.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

type failingStore struct {
	viewmodel.StatusStore
	err error
}

func (f failingStore) SetStatus(context.Context, string, domain.FlatNode, domain.NodeStatus) error {
	return f.err
}

func TestAdvance_StoreFailureLeavesStatus(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("conflict")
	inner := store.NewProgressStore(store.NewMemoryKV())
	m, err := viewmodel.New(ctx, treesPlan(), failingStore{StatusStore: inner, err: boom}, viewmodel.Options{})
	require.NoError(t, err)

	_, err = m.Advance(ctx, "1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.StatusNotStarted, m.Status("1"))
}

func TestEdges_FallbackChainIsRendered(t *testing.T) {
	m, _, _ := newModel(t, testutil.NewTestPlan("Go", testutil.WithRoadmap(testutil.ChainRoadmap(3)...)))
	g := m.Graph()
	require.Len(t, g.Edges, 2)
	assert.Equal(t, "e-1-2", g.Edges[0].ID)
	assert.True(t, g.Edges[0].Synthetic)
}
