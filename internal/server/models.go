package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/alexanderramin/studymap/internal/viewmodel"
)

// Models keeps one view model per plan so that selection survives between
// requests. Models follow the store's bus: progress events refresh their
// statuses and plan list changes evict models of plans that are gone.
type Models struct {
	plans  service.PlanService
	store  viewmodel.StatusStore
	opts   viewmodel.Options
	logger *slog.Logger

	mu     sync.Mutex
	models map[string]*viewmodel.Model
	stop   []func()
}

func NewModels(plans service.PlanService, st viewmodel.StatusStore, bus *store.Bus, opts viewmodel.Options, logger *slog.Logger) *Models {
	m := &Models{
		plans:  plans,
		store:  st,
		opts:   opts,
		logger: logger,
		models: make(map[string]*viewmodel.Model),
	}
	if bus != nil {
		m.stop = append(m.stop,
			store.On(bus, m.onProgress),
			store.On(bus, m.onPlans),
		)
	}
	return m
}

// Get returns the model for a plan, building it on first use.
func (m *Models) Get(ctx context.Context, planID string) (*viewmodel.Model, error) {
	m.mu.Lock()
	model, ok := m.models[planID]
	m.mu.Unlock()
	if ok {
		return model, nil
	}

	plan, err := m.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	model, err = viewmodel.New(ctx, *plan, m.store, m.opts)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.models[planID]; ok {
		return existing, nil
	}
	m.models[planID] = model
	return model, nil
}

// Len returns the number of live models.
func (m *Models) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.models)
}

// Close detaches the models from the bus.
func (m *Models) Close() {
	for _, stop := range m.stop {
		stop()
	}
}

func (m *Models) onProgress(e store.ProgressUpdated) {
	m.mu.Lock()
	model, ok := m.models[e.PlanID]
	m.mu.Unlock()
	if !ok {
		return
	}
	if err := model.Refresh(context.Background()); err != nil {
		m.logger.Warn("refreshing view model", "plan_id", e.PlanID, "error", err)
	}
}

// onPlans drops models of plans missing from the stored list. Remote-only
// plans are rebuilt on their next request.
func (m *Models) onPlans(e store.StudyPlansUpdated) {
	present := make(map[string]struct{}, len(e.Plans))
	for _, p := range e.Plans {
		present[p.ID] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.models {
		if _, ok := present[id]; !ok {
			delete(m.models, id)
		}
	}
}
