package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/llm"
	"github.com/alexanderramin/studymap/internal/roadmap"
)

// LLMGenerator asks a language model for the roadmap. A response with no
// usable topics gets one repair round trip.
type LLMGenerator struct {
	client llm.LLMClient
	logger *slog.Logger
}

// NewLLMGenerator creates a Generator backed by client.
func NewLLMGenerator(client llm.LLMClient, logger *slog.Logger) *LLMGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMGenerator{client: client, logger: logger}
}

func (g *LLMGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	req, err := req.normalise()
	if err != nil {
		return nil, err
	}

	hours := "not specified"
	if req.AvailableHours > 0 {
		hours = strconv.FormatFloat(req.AvailableHours, 'f', -1, 64)
	}
	resp, err := g.client.Generate(ctx, llm.GenerateRequest{
		Task:         llm.TaskRoadmap,
		SystemPrompt: roadmapSystemPrompt,
		UserPrompt:   fmt.Sprintf(roadmapUserPrompt, req.Topic, req.Purpose, hours),
		JSON:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("llm roadmap generation failed: %w", err)
	}

	nodes, perr := parseRoadmap(resp.Text)
	if perr != nil {
		g.logger.Debug("roadmap output unusable, asking for repair", "topic", req.Topic, "error", perr)
		refined, err := g.client.Generate(ctx, llm.GenerateRequest{
			Task:         llm.TaskRefine,
			SystemPrompt: refineSystemPrompt,
			UserPrompt:   resp.Text,
			JSON:         true,
		})
		if err != nil {
			return nil, fmt.Errorf("llm roadmap repair failed: %w", err)
		}
		if nodes, perr = parseRoadmap(refined.Text); perr != nil {
			return nil, perr
		}
	}

	return finish(req, nodes, "llm"), nil
}

func parseRoadmap(text string) ([]domain.RoadmapNode, error) {
	doc, err := llm.ExtractRaw(text)
	if err != nil {
		return nil, err
	}
	nodes, err := roadmap.Decode([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: roadmap has no topics", llm.ErrInvalidOutput)
	}
	return nodes, nil
}
