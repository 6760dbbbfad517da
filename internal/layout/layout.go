// Package layout assigns top-to-bottom layered coordinates to a roadmap
// graph. Layering, ordering and horizontal placement are delegated to
// autog's Sugiyama pipeline; this package feeds it a cycle-free edge list,
// places nodes autog never sees (those without edges) and snaps ranks onto a
// fixed vertical grid. Output is a pure function of the input order of ids
// and edges.
package layout

import (
	"math"
	"sort"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/nulab/autog"
	"github.com/nulab/autog/graph"
)

// Default node footprint and spacing, in layout units.
const (
	NodeWidth  = 200
	NodeHeight = 70
	NodeSep    = 50
	RankSep    = 50
)

// Options tunes the layout geometry. Zero fields take the defaults above.
type Options struct {
	NodeWidth  float64
	NodeHeight float64
	NodeSep    float64
	RankSep    float64
}

// DefaultOptions returns the standard 200x70 footprint.
func DefaultOptions() Options {
	return Options{
		NodeWidth:  NodeWidth,
		NodeHeight: NodeHeight,
		NodeSep:    NodeSep,
		RankSep:    RankSep,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.NodeSep <= 0 {
		o.NodeSep = d.NodeSep
	}
	if o.RankSep <= 0 {
		o.RankSep = d.RankSep
	}
	return o
}

// Layout is the computed geometry of one graph. Positions are top-left
// corners. A Layout may be shared through a Cache and must not be modified.
type Layout struct {
	Positions map[string]domain.Position
	Ranks     map[string]int
	Width     float64
	Height    float64
	// Reversed lists edges that closed a cycle and were laid out reversed.
	Reversed []domain.Edge
	// Crossings counts crossings between edges joining adjacent ranks.
	Crossings int
}

type link struct {
	u, v int
	edge domain.Edge
}

// Compute lays out the nodes named by ids. Edges whose endpoints are not in
// ids, and self loops, are ignored.
func Compute(ids []string, edges []domain.Edge, opts Options) Layout {
	opts = opts.withDefaults()

	index := make(map[string]int, len(ids))
	nodes := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := index[id]; ok {
			continue
		}
		index[id] = len(nodes)
		nodes = append(nodes, id)
	}

	out := Layout{
		Positions: make(map[string]domain.Position, len(nodes)),
		Ranks:     make(map[string]int, len(nodes)),
	}
	n := len(nodes)
	if n == 0 {
		return out
	}

	links := make([]link, 0, len(edges))
	seen := make(map[[2]int]bool, len(edges))
	for _, e := range edges {
		u, okU := index[e.Source]
		v, okV := index[e.Target]
		if !okU || !okV || u == v || seen[[2]int{u, v}] {
			continue
		}
		seen[[2]int{u, v}] = true
		links = append(links, link{u: u, v: v, edge: e})
	}

	dag, reversed := acyclic(n, links)
	out.Reversed = reversed

	x := make([]float64, n)
	y := make([]float64, n)
	placed := make([]bool, n)
	if len(dag) > 0 {
		pairs := make([][]string, len(dag))
		for i, l := range dag {
			pairs[i] = []string{nodes[l.u], nodes[l.v]}
		}
		res := autog.Layout(
			graph.EdgeSlice(pairs),
			autog.WithNodeFixedSize(opts.NodeWidth, opts.NodeHeight),
			autog.WithNodeSpacing(opts.NodeSep),
			autog.WithLayerSpacing(opts.RankSep),
		)
		for _, nd := range res.Nodes {
			v, ok := index[nd.ID]
			if !ok {
				continue
			}
			x[v], y[v], placed[v] = nd.X, nd.Y, true
		}
	}

	rank := ranksFromY(y, placed)

	// Nodes without edges go on the first rank, right of everything else.
	right := math.Inf(-1)
	left := math.Inf(1)
	for v := 0; v < n; v++ {
		if placed[v] {
			right = math.Max(right, x[v]+opts.NodeWidth)
			left = math.Min(left, x[v])
		}
	}
	if math.IsInf(right, -1) {
		left, right = 0, -opts.NodeSep
	}
	for v := 0; v < n; v++ {
		if placed[v] {
			continue
		}
		x[v] = right + opts.NodeSep
		right = x[v] + opts.NodeWidth
		rank[v] = 0
	}

	maxRank := 0
	for v := 0; v < n; v++ {
		id := nodes[v]
		out.Ranks[id] = rank[v]
		out.Positions[id] = domain.Position{
			X: round2(x[v] - left),
			Y: round2(float64(rank[v]) * (opts.NodeHeight + opts.RankSep)),
		}
		if rank[v] > maxRank {
			maxRank = rank[v]
		}
	}
	out.Width = round2(right - left)
	out.Height = round2(float64(maxRank+1)*opts.NodeHeight + float64(maxRank)*opts.RankSep)
	out.Crossings = crossings(dag, rank, x)
	return out
}

// ranksFromY numbers the distinct y coordinates of placed nodes from the top.
func ranksFromY(y []float64, placed []bool) []int {
	var levels []float64
	for v, ok := range placed {
		if ok {
			levels = append(levels, round2(y[v]))
		}
	}
	sort.Float64s(levels)
	rankOf := make(map[float64]int, len(levels))
	for _, l := range levels {
		if _, ok := rankOf[l]; !ok {
			rankOf[l] = len(rankOf)
		}
	}
	rank := make([]int, len(y))
	for v, ok := range placed {
		if ok {
			rank[v] = rankOf[round2(y[v])]
		}
	}
	return rank
}

// acyclic removes cycles by reversing every back edge found by a depth-first
// search that visits nodes and edges in input order.
func acyclic(n int, links []link) ([]link, []domain.Edge) {
	outgoing := make([][]int, n)
	for i, l := range links {
		outgoing[l.u] = append(outgoing[l.u], i)
	}

	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, n)
	back := make([]bool, len(links))

	var visit func(u int)
	visit = func(u int) {
		state[u] = active
		for _, li := range outgoing[u] {
			v := links[li].v
			switch state[v] {
			case active:
				back[li] = true
			case unvisited:
				visit(v)
			}
		}
		state[u] = done
	}
	for u := 0; u < n; u++ {
		if state[u] == unvisited {
			visit(u)
		}
	}

	dag := make([]link, 0, len(links))
	seen := make(map[[2]int]bool, len(links))
	var reversed []domain.Edge
	for i, l := range links {
		if back[i] {
			reversed = append(reversed, l.edge)
			l.u, l.v = l.v, l.u
		}
		if seen[[2]int{l.u, l.v}] {
			continue
		}
		seen[[2]int{l.u, l.v}] = true
		dag = append(dag, l)
	}
	return dag, reversed
}

// crossings counts pairs of edges between the same two adjacent ranks whose
// endpoints are in opposite horizontal order.
func crossings(dag []link, rank []int, x []float64) int {
	byRank := make(map[int][]link)
	for _, l := range dag {
		if rank[l.v] == rank[l.u]+1 {
			byRank[rank[l.u]] = append(byRank[rank[l.u]], l)
		}
	}
	total := 0
	for _, ls := range byRank {
		for i := 0; i < len(ls); i++ {
			for j := i + 1; j < len(ls); j++ {
				a, b := ls[i], ls[j]
				if (x[a.u]-x[b.u])*(x[a.v]-x[b.v]) < 0 {
					total++
				}
			}
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
