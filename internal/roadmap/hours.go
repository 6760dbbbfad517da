package roadmap

import (
	"math"

	"github.com/alexanderramin/studymap/internal/domain"
)

// TotalHours sums the estimated hours of every topic in the tree.
func TotalHours(nodes []domain.RoadmapNode) float64 {
	var total float64
	for i := range nodes {
		total += nodes[i].EstimatedHours + TotalHours(nodes[i].Subtopics)
	}
	return total
}

// ScaleToBudget returns a copy of the tree with every estimate multiplied by
// budget/TotalHours and rounded to two decimals. Trees with no estimates, or
// a non-positive budget, are returned unchanged.
func ScaleToBudget(nodes []domain.RoadmapNode, budget float64) []domain.RoadmapNode {
	actual := TotalHours(nodes)
	if budget <= 0 || actual <= 0 {
		return cloneNodes(nodes)
	}
	return scale(nodes, budget/actual)
}

func scale(nodes []domain.RoadmapNode, factor float64) []domain.RoadmapNode {
	if nodes == nil {
		return nil
	}
	out := make([]domain.RoadmapNode, len(nodes))
	for i, n := range nodes {
		n.EstimatedHours = round2(n.EstimatedHours * factor)
		n.Prerequisites = append([]string(nil), n.Prerequisites...)
		n.Subtopics = scale(n.Subtopics, factor)
		out[i] = n
	}
	return out
}

func cloneNodes(nodes []domain.RoadmapNode) []domain.RoadmapNode {
	if nodes == nil {
		return nil
	}
	out := make([]domain.RoadmapNode, len(nodes))
	for i, n := range nodes {
		n.Prerequisites = append([]string(nil), n.Prerequisites...)
		n.Subtopics = cloneNodes(n.Subtopics)
		out[i] = n
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
