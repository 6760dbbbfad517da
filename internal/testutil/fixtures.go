package testutil

import (
	"fmt"
	"time"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/google/uuid"
)

// FixedTime is the clock used by fixtures that need a stable date.
var FixedTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// Plan options
type PlanOption func(*domain.StudyPlan)

func WithPlanID(id string) PlanOption {
	return func(p *domain.StudyPlan) {
		p.ID = id
	}
}

func WithAvailableHours(h float64) PlanOption {
	return func(p *domain.StudyPlan) {
		p.AvailableHours = h
	}
}

func WithRoadmap(nodes ...domain.RoadmapNode) PlanOption {
	return func(p *domain.StudyPlan) {
		p.Roadmap = nodes
	}
}

func WithSource(src domain.PlanSource) PlanOption {
	return func(p *domain.StudyPlan) {
		p.Source = src
	}
}

func WithCreatedAt(t time.Time) PlanOption {
	return func(p *domain.StudyPlan) {
		p.CreatedAt = t
	}
}

// NewTestPlan builds a local plan with a random id and the two-root
// roadmap returned by SampleRoadmap.
func NewTestPlan(topic string, opts ...PlanOption) domain.StudyPlan {
	p := domain.StudyPlan{
		ID:             uuid.New().String(),
		MainTopic:      topic,
		AvailableHours: 10,
		CreatedAt:      FixedTime,
		Roadmap:        SampleRoadmap(),
		Source:         domain.SourceLocal,
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Node options
type NodeOption func(*domain.RoadmapNode)

func WithHours(h float64) NodeOption {
	return func(n *domain.RoadmapNode) {
		n.EstimatedHours = h
	}
}

func WithMinutes(m int) NodeOption {
	return func(n *domain.RoadmapNode) {
		n.EstimatedMinutes = m
	}
}

func WithPrerequisites(ids ...string) NodeOption {
	return func(n *domain.RoadmapNode) {
		n.Prerequisites = ids
	}
}

func WithSubtopics(children ...domain.RoadmapNode) NodeOption {
	return func(n *domain.RoadmapNode) {
		n.Subtopics = children
	}
}

func NewTestNode(id, topic string, opts ...NodeOption) domain.RoadmapNode {
	n := domain.RoadmapNode{ID: id, Topic: topic, Prerequisites: []string{}}
	for _, opt := range opts {
		opt(&n)
	}
	return n
}

// SampleRoadmap is the tree 1{1.1} then 2, where 1.1 requires 1 and 2
// requires 1.1. It flattens to 1, 1.1, 2.
func SampleRoadmap() []domain.RoadmapNode {
	return []domain.RoadmapNode{
		NewTestNode("1", "Basics", WithHours(2),
			WithSubtopics(NewTestNode("1.1", "Syntax", WithHours(1), WithPrerequisites("1")))),
		NewTestNode("2", "Advanced", WithHours(3), WithPrerequisites("1.1")),
	}
}

// ChainRoadmap returns n sibling topics with no prerequisites.
func ChainRoadmap(n int) []domain.RoadmapNode {
	nodes := make([]domain.RoadmapNode, 0, n)
	for i := 1; i <= n; i++ {
		nodes = append(nodes, NewTestNode(fmt.Sprint(i), fmt.Sprintf("Step %d", i), WithHours(1)))
	}
	return nodes
}
