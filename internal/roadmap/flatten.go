// Package roadmap turns nested roadmap trees into flat graph input: it decodes
// loosely shaped topic JSON, flattens the tree in pre-order, derives
// prerequisite edges and rescales time estimates.
package roadmap

import (
	"fmt"
	"math"

	"github.com/alexanderramin/studymap/internal/domain"
)

// IDSource records which rung of the identifier fallback chain produced an id.
type IDSource string

const (
	IDExplicit   IDSource = "id"
	IDFromTopic  IDSource = "topic"
	IDPositional IDSource = "position"
)

// Collision describes a topic that was skipped because an earlier topic in
// pre-order already claimed its identifier. When Source is IDFromTopic the two
// topics only share display text, which may or may not mean the same concept.
type Collision struct {
	ID         string
	Source     IDSource
	Label      string
	FirstLabel string
}

// FlattenResult is the flattened node list plus any identifier collisions.
type FlattenResult struct {
	Nodes      []domain.FlatNode
	Collisions []Collision
}

// Flatten converts a roadmap tree into a deduplicated, pre-order node list.
func Flatten(nodes []domain.RoadmapNode) []domain.FlatNode {
	return FlattenWithReport(nodes).Nodes
}

// FlattenWithReport is Flatten that also reports identifier collisions so the
// caller can decide whether shared topic text means a shared concept.
func FlattenWithReport(nodes []domain.RoadmapNode) FlattenResult {
	f := flattener{
		seen: make(map[string]int),
		out:  make([]domain.FlatNode, 0, CountNodes(nodes)),
	}
	f.walk(nodes, 0)
	return FlattenResult{Nodes: f.out, Collisions: f.collisions}
}

type flattener struct {
	seen       map[string]int
	out        []domain.FlatNode
	collisions []Collision
}

func (f *flattener) walk(nodes []domain.RoadmapNode, depth int) {
	for i := range nodes {
		n := &nodes[i]
		id, src := f.deriveID(n)
		label := domain.CoalesceStr(n.Topic, n.Title, fmt.Sprintf("Topic %d", len(f.out)+1))

		if first, dup := f.seen[id]; dup {
			f.collisions = append(f.collisions, Collision{
				ID:         id,
				Source:     src,
				Label:      label,
				FirstLabel: f.out[first].Label,
			})
			continue
		}
		f.seen[id] = len(f.out)

		prereqs := make([]string, 0, len(n.Prerequisites))
		for _, p := range n.Prerequisites {
			if p != "" {
				prereqs = append(prereqs, p)
			}
		}

		hours := n.EstimatedHours
		if hours < 0 {
			hours = 0
		}
		f.out = append(f.out, domain.FlatNode{
			ID:               id,
			Label:            label,
			Prerequisites:    prereqs,
			EstimatedMinutes: estimatedMinutes(hours, n.EstimatedMinutes),
			EstimatedHours:   hours,
			Depth:            depth,
		})

		if len(n.Subtopics) > 0 {
			f.walk(n.Subtopics, depth+1)
		}
	}
}

// deriveID applies the fallback chain id -> topic text -> "topic-<n>", where
// n is the number of nodes emitted so far.
func (f *flattener) deriveID(n *domain.RoadmapNode) (string, IDSource) {
	if n.ID != "" {
		return n.ID, IDExplicit
	}
	if n.Topic != "" {
		return n.Topic, IDFromTopic
	}
	return fmt.Sprintf("topic-%d", len(f.out)), IDPositional
}

// estimatedMinutes is round(hours*60), falling back to the explicit minutes
// field when that rounds to zero.
func estimatedMinutes(hours float64, minutes int) int {
	if m := int(math.Round(hours * 60)); m > 0 {
		return m
	}
	if minutes > 0 {
		return minutes
	}
	return 0
}

// CountNodes returns the number of topics in the tree, including every
// nested subtopic.
func CountNodes(nodes []domain.RoadmapNode) int {
	n := 0
	for i := range nodes {
		n += 1 + CountNodes(nodes[i].Subtopics)
	}
	return n
}
