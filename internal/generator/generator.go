// Package generator produces roadmap trees locally when the backend cannot
// create a plan.
package generator

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/roadmap"
)

// ErrEmptyTopic is returned when a request has no topic.
var ErrEmptyTopic = errors.New("no topic provided")

// Request describes the roadmap to generate.
type Request struct {
	Topic          string
	AvailableHours float64
	Purpose        domain.Purpose
}

// Result is a generated roadmap. Source names the generator that produced it.
type Result struct {
	MainTopic string
	Roadmap   []domain.RoadmapNode
	Source    string
}

// Generator builds a roadmap tree for a topic.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

func (r Request) normalise() (Request, error) {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		return r, ErrEmptyTopic
	}
	if r.Purpose == "" {
		r.Purpose = domain.PurposePersonalInterest
	}
	return r, nil
}

// finish scales the tree to the hour budget.
func finish(req Request, nodes []domain.RoadmapNode, source string) *Result {
	return &Result{
		MainTopic: req.Topic,
		Roadmap:   roadmap.ScaleToBudget(nodes, req.AvailableHours),
		Source:    source,
	}
}

// Fallback tries Primary and uses Secondary when it fails.
type Fallback struct {
	Primary   Generator
	Secondary Generator
	Logger    *slog.Logger
}

// NewFallback chains two generators.
func NewFallback(primary, secondary Generator, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{Primary: primary, Secondary: secondary, Logger: logger}
}

func (f *Fallback) Generate(ctx context.Context, req Request) (*Result, error) {
	if f.Primary != nil {
		res, err := f.Primary.Generate(ctx, req)
		if err == nil {
			return res, nil
		}
		if errors.Is(err, ErrEmptyTopic) {
			return nil, err
		}
		f.Logger.Warn("primary roadmap generator failed, falling back", "topic", req.Topic, "error", err)
	}
	return f.Secondary.Generate(ctx, req)
}
