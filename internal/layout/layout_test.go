package layout

import (
	"math"
	"sort"
	"testing"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(src, dst string) domain.Edge {
	return domain.Edge{ID: "e-" + src + "-" + dst, Source: src, Target: dst}
}

func TestCompute_ChainStacksVertically(t *testing.T) {
	l := Compute([]string{"a", "b", "c"}, []domain.Edge{edge("a", "b"), edge("b", "c")}, DefaultOptions())

	assert.Equal(t, domain.Position{X: 0, Y: 0}, l.Positions["a"])
	assert.Equal(t, domain.Position{X: 0, Y: 120}, l.Positions["b"])
	assert.Equal(t, domain.Position{X: 0, Y: 240}, l.Positions["c"])
	assert.Equal(t, 200.0, l.Width)
	assert.Equal(t, 310.0, l.Height)
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 2}, l.Ranks)
}

func TestCompute_ParentRanksAboveChild(t *testing.T) {
	l := Compute([]string{"1", "1.1"}, []domain.Edge{edge("1", "1.1")}, DefaultOptions())

	assert.Less(t, l.Ranks["1"], l.Ranks["1.1"])
	assert.Less(t, l.Positions["1"].Y, l.Positions["1.1"].Y)
}

func TestCompute_LongestPathRanking(t *testing.T) {
	// c depends on a directly and through b, so it sits below b.
	l := Compute([]string{"a", "b", "c"}, []domain.Edge{edge("a", "b"), edge("b", "c"), edge("a", "c")}, DefaultOptions())

	assert.Equal(t, 0, l.Ranks["a"])
	assert.Equal(t, 1, l.Ranks["b"])
	assert.Equal(t, 2, l.Ranks["c"])
}

func TestCompute_DiamondSiblingsShareRank(t *testing.T) {
	l := Compute(
		[]string{"a", "b", "c", "d"},
		[]domain.Edge{edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d")},
		DefaultOptions(),
	)

	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 1, "d": 2}, l.Ranks)
	assert.Equal(t, l.Positions["b"].Y, l.Positions["c"].Y)
	assert.GreaterOrEqual(t, math.Abs(l.Positions["c"].X-l.Positions["b"].X), float64(NodeWidth))
	assert.Equal(t, 0, l.Crossings)
}

func TestCompute_NoCrossingsForParallelChains(t *testing.T) {
	l := Compute(
		[]string{"a", "b", "c", "d"},
		[]domain.Edge{edge("a", "d"), edge("b", "c")},
		DefaultOptions(),
	)

	assert.Equal(t, 0, l.Crossings)
	assert.Equal(t, l.Ranks["a"], l.Ranks["b"])
	assert.Equal(t, l.Ranks["c"], l.Ranks["d"])
}

func TestCompute_BreaksCycles(t *testing.T) {
	l := Compute([]string{"a", "b"}, []domain.Edge{edge("a", "b"), edge("b", "a")}, DefaultOptions())

	require.Len(t, l.Reversed, 1)
	assert.Equal(t, "b", l.Reversed[0].Source)
	assert.Equal(t, 0, l.Ranks["a"])
	assert.Equal(t, 1, l.Ranks["b"])
}

func TestCompute_IgnoresUnknownEndpointsAndSelfLoops(t *testing.T) {
	l := Compute([]string{"a"}, []domain.Edge{edge("a", "a"), edge("a", "ghost")}, DefaultOptions())

	require.Len(t, l.Positions, 1)
	assert.Equal(t, domain.Position{}, l.Positions["a"])
}

func TestCompute_Empty(t *testing.T) {
	l := Compute(nil, nil, Options{})
	assert.Empty(t, l.Positions)
	assert.Zero(t, l.Width)
}

func TestCompute_IsDeterministic(t *testing.T) {
	ids := []string{"r", "x1", "x2", "x3", "y1", "y2", "z"}
	edges := []domain.Edge{
		edge("r", "x1"), edge("r", "x2"), edge("r", "x3"),
		edge("x3", "y1"), edge("x1", "y2"), edge("x2", "y1"),
		edge("y1", "z"), edge("y2", "z"), edge("r", "z"),
	}

	first := Compute(ids, edges, DefaultOptions())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Compute(ids, edges, DefaultOptions()))
	}
}

func TestCompute_NoOverlapWithinRank(t *testing.T) {
	ids := []string{"root", "a", "b", "c", "d"}
	edges := []domain.Edge{edge("root", "a"), edge("root", "b"), edge("root", "c"), edge("root", "d")}

	l := Compute(ids, edges, DefaultOptions())
	xs := []float64{l.Positions["a"].X, l.Positions["b"].X, l.Positions["c"].X, l.Positions["d"].X}
	sort.Float64s(xs)
	for i := 1; i < len(xs); i++ {
		assert.GreaterOrEqual(t, xs[i]-xs[i-1], float64(NodeWidth)-0.01)
	}
	for _, p := range l.Positions {
		assert.GreaterOrEqual(t, p.X, 0.0)
		assert.LessOrEqual(t, p.X+NodeWidth, l.Width+0.01)
	}
}

func TestCompute_NodesWithoutEdgesJoinFirstRank(t *testing.T) {
	l := Compute([]string{"a", "b", "lone"}, []domain.Edge{edge("a", "b")}, DefaultOptions())

	assert.Equal(t, 0, l.Ranks["lone"])
	assert.Equal(t, 0.0, l.Positions["lone"].Y)
	assert.Equal(t, math.Max(l.Positions["a"].X, l.Positions["b"].X)+NodeWidth+NodeSep, l.Positions["lone"].X)
	assert.Equal(t, l.Positions["lone"].X+NodeWidth, l.Width)
	assert.Equal(t, 190.0, l.Height)
}

func TestCompute_OnlyIsolatedNodesFormOneRow(t *testing.T) {
	l := Compute([]string{"a", "b"}, nil, DefaultOptions())

	assert.Equal(t, domain.Position{X: 0, Y: 0}, l.Positions["a"])
	assert.Equal(t, domain.Position{X: 250, Y: 0}, l.Positions["b"])
	assert.Equal(t, 450.0, l.Width)
	assert.Equal(t, 70.0, l.Height)
}

func TestCache_ReusesLayoutForSameTopology(t *testing.T) {
	c := NewCache(2)
	ids := []string{"a", "b"}
	edges := []domain.Edge{edge("a", "b")}

	first, hit := c.Compute(ids, edges, DefaultOptions())
	assert.False(t, hit)
	second, hit := c.Compute(ids, edges, DefaultOptions())
	assert.True(t, hit)
	assert.Equal(t, first, second)

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)
}

func TestCache_EvictsOldest(t *testing.T) {
	c := NewCache(2)
	c.Compute([]string{"a"}, nil, Options{})
	c.Compute([]string{"b"}, nil, Options{})
	c.Compute([]string{"c"}, nil, Options{})

	assert.Equal(t, 2, c.Len())
	_, hit := c.Compute([]string{"a"}, nil, Options{})
	assert.False(t, hit)
}

func TestFingerprint_SensitiveToTopology(t *testing.T) {
	base := Fingerprint([]string{"a", "b"}, []domain.Edge{edge("a", "b")}, Options{})
	assert.Len(t, base, 64)
	assert.Equal(t, base, Fingerprint([]string{"a", "b"}, []domain.Edge{edge("a", "b")}, DefaultOptions()))
	assert.NotEqual(t, base, Fingerprint([]string{"a", "b"}, []domain.Edge{edge("b", "a")}, Options{}))
	assert.NotEqual(t, base, Fingerprint([]string{"ab"}, nil, Options{}))
}
