package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/generator"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/service"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/alexanderramin/studymap/internal/testutil"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu     sync.Mutex
	events []service.UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, e service.UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) last() service.UseCaseEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.events[len(o.events)-1]
}

type harness struct {
	backend  *testutil.FakeBackend
	kv       store.KV
	store    *store.ProgressStore
	plans    service.PlanService
	progress service.ProgressService
	auth     service.AuthService
	observed *recordingObserver
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	gen generator.Generator
}

func withoutGenerator() harnessOption {
	return func(c *harnessConfig) { c.gen = nil }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{gen: generator.NewTemplateGenerator()}
	for _, opt := range opts {
		opt(&cfg)
	}

	backend := testutil.NewFakeBackend(t)
	kv := store.NewSQLiteKV(testutil.NewTestDB(t))
	st := store.NewProgressStore(kv, store.WithUserScoping(true))
	client := api.New(backend.URL, api.WithTokenSource(st))
	obs := &recordingObserver{}

	plans := service.NewPlanService(client, st, cfg.gen, logging.NewNop(), obs)
	return &harness{
		backend:  backend,
		kv:       kv,
		store:    st,
		plans:    plans,
		progress: service.NewProgressService(plans, st),
		auth:     service.NewAuthService(client, st, logging.NewNop(), obs),
		observed: obs,
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.auth.Login(context.Background(), testutil.BackendUser, testutil.BackendPassword)
	require.NoError(t, err)
}
