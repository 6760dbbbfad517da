package generator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/studymap/internal/domain"
)

// stage is one top-level step of the built-in roadmap shape. Hours are
// relative weights; the tree is scaled to the request budget afterwards.
type stage struct {
	title     string
	hours     float64
	subtopics []string
}

var stages = []stage{
	{"Fundamentals of %s", 1, []string{"Key terminology", "Core ideas"}},
	{"Core concepts of %s", 1.5, []string{"Essential techniques", "Common patterns"}},
	{"Practising %s", 1, []string{"Guided exercises", "Self-assessment"}},
	{"Building a %s project", 1, []string{"Project planning", "Project delivery"}},
}

// TemplateGenerator builds the same four-stage roadmap for any topic. It never
// fails for a non-empty topic.
type TemplateGenerator struct{}

// NewTemplateGenerator returns the built-in offline generator.
func NewTemplateGenerator() TemplateGenerator { return TemplateGenerator{} }

func (TemplateGenerator) Generate(_ context.Context, req Request) (*Result, error) {
	req, err := req.normalise()
	if err != nil {
		return nil, err
	}
	return finish(req, templateTree(req.Topic), "template"), nil
}

// templateTree chains stages through their last subtopic so every node has
// exactly one prerequisite except the first.
func templateTree(topic string) []domain.RoadmapNode {
	nodes := make([]domain.RoadmapNode, 0, len(stages))
	prev := ""
	for i, st := range stages {
		id := strconv.Itoa(i + 1)
		n := domain.RoadmapNode{
			ID:             id,
			Topic:          fmt.Sprintf(st.title, topic),
			EstimatedHours: st.hours,
			Prerequisites:  prereqs(prev),
		}
		prev = id
		for j, sub := range st.subtopics {
			subID := id + "." + strconv.Itoa(j+1)
			n.Subtopics = append(n.Subtopics, domain.RoadmapNode{
				ID:             subID,
				Topic:          sub + ": " + topic,
				EstimatedHours: st.hours,
				Prerequisites:  prereqs(prev),
			})
			prev = subID
		}
		nodes = append(nodes, n)
	}
	return nodes
}

func prereqs(id string) []string {
	if id == "" {
		return []string{}
	}
	return []string{id}
}
