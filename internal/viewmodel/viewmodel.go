// Package viewmodel holds the interactive state of one roadmap graph: the
// laid-out nodes, their statuses and the current selection.
package viewmodel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/layout"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/progress"
	"github.com/alexanderramin/studymap/internal/roadmap"
)

// ErrUnknownNode is returned for node ids that are not part of the graph.
var ErrUnknownNode = errors.New("viewmodel: unknown node")

// Node fill colours by status.
const (
	FillNotStarted = "#3b82f6"
	FillInProgress = "#f59e0b"
	FillCompleted  = "#10b981"
)

// Fill returns the node colour for a status.
func Fill(st domain.NodeStatus) string {
	switch st {
	case domain.StatusInProgress:
		return FillInProgress
	case domain.StatusCompleted:
		return FillCompleted
	}
	return FillNotStarted
}

// StatusStore persists node statuses. store.ProgressStore implements it.
type StatusStore interface {
	Statuses(ctx context.Context, planID string, nodes []domain.FlatNode) (domain.StatusMap, error)
	SetStatus(ctx context.Context, planID string, node domain.FlatNode, status domain.NodeStatus) error
	ResetStatuses(ctx context.Context, planID string, nodes []domain.FlatNode) error
}

type Options struct {
	Layout layout.Options
	// Cache, when set, shares layouts between models with the same topology.
	Cache  *layout.Cache
	Logger *slog.Logger
}

// RenderNode is one node ready to draw.
type RenderNode struct {
	ID               string            `json:"id"`
	Label            string            `json:"label"`
	Status           domain.NodeStatus `json:"status"`
	Fill             string            `json:"fill"`
	Position         domain.Position   `json:"position"`
	Rank             int               `json:"rank"`
	Depth            int               `json:"depth"`
	Selected         bool              `json:"selected"`
	EstimatedMinutes int               `json:"estimated_time_minutes"`
	Prerequisites    []string          `json:"prerequisites"`
}

type RenderEdge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// Graph is a full render of the roadmap.
type Graph struct {
	PlanID string         `json:"plan_id"`
	Topic  string         `json:"main_topic"`
	Nodes  []RenderNode   `json:"nodes"`
	Edges  []RenderEdge   `json:"edges"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Stats  progress.Stats `json:"stats"`
}

// Detail describes the selected node.
type Detail struct {
	ID            string            `json:"id"`
	Label         string            `json:"label"`
	Status        domain.NodeStatus `json:"status"`
	EstimatedTime string            `json:"estimated_time"`
	Prerequisites []string          `json:"prerequisites"`
}

// ClickResult reports what a click did.
type ClickResult struct {
	NodeID   string            `json:"node_id"`
	Advanced bool              `json:"advanced"`
	Previous domain.NodeStatus `json:"previous"`
	Status   domain.NodeStatus `json:"status"`
}

// Model is the roadmap graph of one plan. Topology and layout are fixed at
// construction; statuses and selection change. Safe for concurrent use.
type Model struct {
	plan   domain.StudyPlan
	nodes  []domain.FlatNode
	index  map[string]int
	edges  roadmap.EdgeSet
	layout layout.Layout
	store  StatusStore
	logger *slog.Logger

	mu       sync.Mutex
	statuses domain.StatusMap
	selected string

	// writeMu serialises read-compute-write cycles against the store.
	writeMu sync.Mutex
}

// New flattens the plan's roadmap, builds and lays out its edges, and loads
// the stored statuses.
func New(ctx context.Context, plan domain.StudyPlan, store StatusStore, opts Options) (*Model, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With("plan_id", plan.ID)

	flat := roadmap.FlattenWithReport(plan.Roadmap)
	for _, c := range flat.Collisions {
		logger.Warn("skipped topic with duplicate id",
			"node_id", c.ID, "id_source", string(c.Source), "label", c.Label, "kept_label", c.FirstLabel)
	}
	edges := roadmap.BuildEdges(flat.Nodes)
	for _, d := range edges.Dropped {
		logger.Debug("dropped prerequisite", "node_id", d.NodeID, "prerequisite", d.Prerequisite, "reason", string(d.Reason))
	}
	if edges.Chained {
		logger.Debug("no prerequisites resolved, chaining nodes in order", "nodes", len(flat.Nodes))
	}

	ids := make([]string, len(flat.Nodes))
	index := make(map[string]int, len(flat.Nodes))
	for i, n := range flat.Nodes {
		ids[i] = n.ID
		index[n.ID] = i
	}

	var l layout.Layout
	if opts.Cache != nil {
		l, _ = opts.Cache.Compute(ids, edges.Edges, opts.Layout)
	} else {
		l = layout.Compute(ids, edges.Edges, opts.Layout)
	}
	for _, e := range l.Reversed {
		logger.Warn("prerequisite cycle, edge reversed for layout", "source", e.Source, "target", e.Target)
	}

	m := &Model{
		plan:     plan,
		nodes:    flat.Nodes,
		index:    index,
		edges:    edges,
		layout:   l,
		store:    store,
		logger:   logger,
		statuses: domain.StatusMap{},
	}
	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Plan returns the plan the model was built from.
func (m *Model) Plan() domain.StudyPlan { return m.plan }

// Nodes returns the flattened nodes in pre-order.
func (m *Model) Nodes() []domain.FlatNode {
	out := make([]domain.FlatNode, len(m.nodes))
	copy(out, m.nodes)
	return out
}

// Node returns the flattened node with the given id.
func (m *Model) Node(id string) (domain.FlatNode, bool) {
	i, ok := m.index[id]
	if !ok {
		return domain.FlatNode{}, false
	}
	return m.nodes[i], true
}

// Edges returns the edges used for layout and rendering.
func (m *Model) Edges() roadmap.EdgeSet { return m.edges }

// Refresh reloads statuses from the store.
func (m *Model) Refresh(ctx context.Context) error {
	statuses, err := m.store.Statuses(ctx, m.plan.ID, m.nodes)
	if err != nil {
		return fmt.Errorf("loading statuses for plan %s: %w", m.plan.ID, err)
	}
	m.mu.Lock()
	m.statuses = statuses
	m.mu.Unlock()
	return nil
}

// Status returns the current status of a node.
func (m *Model) Status(id string) domain.NodeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses.Get(id)
}

// Graph renders every node and edge with the current statuses.
func (m *Model) Graph() Graph {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := Graph{
		PlanID: m.plan.ID,
		Topic:  m.plan.MainTopic,
		Nodes:  make([]RenderNode, 0, len(m.nodes)),
		Edges:  make([]RenderEdge, 0, len(m.edges.Edges)),
		Width:  m.layout.Width,
		Height: m.layout.Height,
		Stats:  progress.ForNodes(m.nodes, m.statuses),
	}
	for _, n := range m.nodes {
		st := m.statuses.Get(n.ID)
		g.Nodes = append(g.Nodes, RenderNode{
			ID:               n.ID,
			Label:            n.Label,
			Status:           st,
			Fill:             Fill(st),
			Position:         m.layout.Positions[n.ID],
			Rank:             m.layout.Ranks[n.ID],
			Depth:            n.Depth,
			Selected:         n.ID == m.selected,
			EstimatedMinutes: n.EstimatedMinutes,
			Prerequisites:    n.Prerequisites,
		})
	}
	for _, e := range m.edges.Edges {
		g.Edges = append(g.Edges, RenderEdge{ID: e.ID, Source: e.Source, Target: e.Target, Synthetic: e.Synthetic})
	}
	return g
}

// Click applies one interaction to a node: an unselected node becomes
// selected and keeps its status; the selected node advances to its next
// status.
func (m *Model) Click(ctx context.Context, id string) (ClickResult, error) {
	if _, ok := m.index[id]; !ok {
		return ClickResult{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	m.mu.Lock()
	if m.selected != id {
		m.selected = id
		st := m.statuses.Get(id)
		m.mu.Unlock()
		return ClickResult{NodeID: id, Previous: st, Status: st}, nil
	}
	m.mu.Unlock()
	return m.advance(ctx, id)
}

// Advance selects the node and moves it to its next status in one step.
func (m *Model) Advance(ctx context.Context, id string) (ClickResult, error) {
	if _, ok := m.index[id]; !ok {
		return ClickResult{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	m.mu.Lock()
	m.selected = id
	m.mu.Unlock()
	return m.advance(ctx, id)
}

// advance re-reads the node's stored status, so a write made elsewhere since
// the last Refresh is advanced from rather than overwritten, and writes the
// next status through the store. It does not hold m.mu while the store runs,
// so listeners on the store's bus may call back into the model.
func (m *Model) advance(ctx context.Context, id string) (ClickResult, error) {
	node := m.nodes[m.index[id]]

	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	current, err := m.store.Statuses(ctx, m.plan.ID, []domain.FlatNode{node})
	if err != nil {
		return ClickResult{}, fmt.Errorf("loading status of %s: %w", id, err)
	}
	prev := current.Get(id)
	next := prev.Next()

	if err := m.store.SetStatus(ctx, m.plan.ID, node, next); err != nil {
		m.mu.Lock()
		m.statuses[id] = prev
		m.mu.Unlock()
		return ClickResult{}, err
	}

	m.mu.Lock()
	m.statuses[id] = next
	m.mu.Unlock()
	m.logger.Debug("node status advanced", "node_id", id, "from", string(prev), "to", string(next))
	return ClickResult{NodeID: id, Advanced: true, Previous: prev, Status: next}, nil
}

// Select marks a node as selected without changing its status.
func (m *Model) Select(id string) error {
	if _, ok := m.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	m.mu.Lock()
	m.selected = id
	m.mu.Unlock()
	return nil
}

// Deselect clears the selection.
func (m *Model) Deselect() {
	m.mu.Lock()
	m.selected = ""
	m.mu.Unlock()
}

// Selected returns the detail of the selected node, or nil.
func (m *Model) Selected() *Detail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected == "" {
		return nil
	}
	n := m.nodes[m.index[m.selected]]
	return &Detail{
		ID:            n.ID,
		Label:         n.Label,
		Status:        m.statuses.Get(n.ID),
		EstimatedTime: EstimatedTimeText(n.EstimatedMinutes),
		Prerequisites: n.Prerequisites,
	}
}

// Reset moves every node back to not started and clears the selection.
func (m *Model) Reset(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.store.ResetStatuses(ctx, m.plan.ID, m.nodes); err != nil {
		return err
	}
	m.mu.Lock()
	m.statuses = domain.StatusMap{}
	m.selected = ""
	m.mu.Unlock()
	m.logger.Debug("progress reset")
	return nil
}

// Stats counts the current statuses.
func (m *Model) Stats() progress.Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return progress.ForNodes(m.nodes, m.statuses)
}

// EstimatedTimeText renders minutes for the detail panel.
func EstimatedTimeText(minutes int) string {
	if minutes <= 0 {
		return "Not specified"
	}
	return fmt.Sprintf("%d min", minutes)
}
