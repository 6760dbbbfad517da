package roadmap

import (
	"github.com/alexanderramin/studymap/internal/domain"
)

// DropReason explains why a declared prerequisite produced no edge.
type DropReason string

const (
	DropUnresolved DropReason = "unresolved"
	DropSelf       DropReason = "self_reference"
	DropDuplicate  DropReason = "duplicate"
)

// DroppedPrerequisite is a declared prerequisite that did not become an edge.
type DroppedPrerequisite struct {
	NodeID       string
	Prerequisite string
	Reason       DropReason
}

// EdgeSet is the edge list derived from a flattened roadmap.
type EdgeSet struct {
	Edges   []domain.Edge
	Dropped []DroppedPrerequisite
	// Chained is true when no prerequisite resolved and the edges are the
	// synthetic sequential chain.
	Chained bool
}

// EdgeID is the identifier of the edge from src to dst.
func EdgeID(src, dst string) string {
	return "e-" + src + "-" + dst
}

// BuildEdges emits a prerequisite -> node edge for every prerequisite that
// names another node in the flattened set. When there are at least two nodes
// and no edge resolves, nodes are chained in flattened order instead.
func BuildEdges(nodes []domain.FlatNode) EdgeSet {
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = struct{}{}
	}

	var set EdgeSet
	emitted := make(map[string]struct{})
	for _, n := range nodes {
		for _, pre := range n.Prerequisites {
			switch {
			case pre == n.ID:
				set.Dropped = append(set.Dropped, DroppedPrerequisite{NodeID: n.ID, Prerequisite: pre, Reason: DropSelf})
				continue
			case !contains(ids, pre):
				set.Dropped = append(set.Dropped, DroppedPrerequisite{NodeID: n.ID, Prerequisite: pre, Reason: DropUnresolved})
				continue
			}
			id := EdgeID(pre, n.ID)
			if _, dup := emitted[id]; dup {
				set.Dropped = append(set.Dropped, DroppedPrerequisite{NodeID: n.ID, Prerequisite: pre, Reason: DropDuplicate})
				continue
			}
			emitted[id] = struct{}{}
			set.Edges = append(set.Edges, domain.Edge{ID: id, Source: pre, Target: n.ID})
		}
	}

	if len(set.Edges) == 0 && len(nodes) > 1 {
		set.Chained = true
		set.Edges = make([]domain.Edge, 0, len(nodes)-1)
		for i := 0; i+1 < len(nodes); i++ {
			src, dst := nodes[i].ID, nodes[i+1].ID
			set.Edges = append(set.Edges, domain.Edge{
				ID:        EdgeID(src, dst),
				Source:    src,
				Target:    dst,
				Synthetic: true,
			})
		}
	}
	return set
}

func contains(set map[string]struct{}, k string) bool {
	_, ok := set[k]
	return ok
}
