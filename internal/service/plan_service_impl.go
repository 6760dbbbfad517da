package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/generator"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/reconcile"
	"github.com/alexanderramin/studymap/internal/roadmap"
	"github.com/alexanderramin/studymap/internal/store"
	"github.com/google/uuid"
)

type planService struct {
	remote     RemotePlans
	local      PlanStore
	generator  generator.Generator
	reconciler *reconcile.Reconciler
	logger     *slog.Logger
	now        func() time.Time
	observer   UseCaseObserver
}

// NewPlanService wires plan use cases. remote may be nil to run fully
// offline; gen may be nil when plans can only be created on the backend.
func NewPlanService(
	remote RemotePlans,
	local PlanStore,
	gen generator.Generator,
	logger *slog.Logger,
	observers ...UseCaseObserver,
) PlanService {
	if logger == nil {
		logger = logging.NewNop()
	}
	var src reconcile.RemoteSource
	if remote != nil {
		src = remote
	}
	return &planService{
		remote:     remote,
		local:      local,
		generator:  gen,
		reconciler: reconcile.New(src, local, logger),
		logger:     logger,
		now:        time.Now,
		observer:   useCaseObserverOrNoop(observers),
	}
}

func (s *planService) Create(ctx context.Context, in CreatePlanInput) (plan *domain.StudyPlan, err error) {
	started := time.Now()
	fields := map[string]any{"topic": in.Topic}
	defer observe(ctx, s.observer, "create-plan", started, fields, &err)

	in.Topic = strings.TrimSpace(in.Topic)
	if in.Topic == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	if in.AvailableHours < 0 {
		return nil, fmt.Errorf("%w: available hours must be non-negative", ErrInvalidInput)
	}
	if in.Purpose == "" {
		in.Purpose = domain.PurposePersonalInterest
	}
	if !domain.ValidPurpose(in.Purpose) {
		return nil, fmt.Errorf("%w: unknown purpose %q", ErrInvalidInput, in.Purpose)
	}

	var created domain.StudyPlan
	created, err = s.createRemote(ctx, in)
	if err != nil {
		return nil, err
	}
	fields["source"] = string(created.Source)
	fields["plan_id"] = created.ID

	if err = s.local.SavePlan(ctx, created); err != nil {
		return nil, err
	}
	flat := roadmap.Flatten(created.Roadmap)
	fields["node_count"] = len(flat)
	if err = s.local.InitProgress(ctx, created.ID, flat); err != nil {
		return nil, err
	}
	return &created, nil
}

// createRemote asks the backend first and generates locally when the
// backend cannot be used.
func (s *planService) createRemote(ctx context.Context, in CreatePlanInput) (domain.StudyPlan, error) {
	if s.remote != nil && !in.Offline {
		plan, err := s.remote.CreatePlan(ctx, api.CreatePlanRequest{
			MainTopic:     in.Topic,
			AvailableTime: in.AvailableHours,
			Purpose:       in.Purpose,
		})
		if err == nil {
			if plan.Purpose == "" {
				plan.Purpose = in.Purpose
			}
			return plan, nil
		}
		if !isOffline(err) || s.generator == nil {
			return domain.StudyPlan{}, err
		}
		s.logger.Warn("backend cannot create plan, generating locally", "topic", in.Topic, "error", err)
	}
	if s.generator == nil {
		return domain.StudyPlan{}, fmt.Errorf("creating plan offline: no generator configured")
	}

	res, err := s.generator.Generate(ctx, generator.Request{
		Topic:          in.Topic,
		AvailableHours: in.AvailableHours,
		Purpose:        in.Purpose,
	})
	if err != nil {
		return domain.StudyPlan{}, fmt.Errorf("generating roadmap: %w", err)
	}
	return domain.StudyPlan{
		ID:             uuid.New().String(),
		MainTopic:      res.MainTopic,
		AvailableHours: in.AvailableHours,
		Purpose:        in.Purpose,
		CreatedAt:      s.now().UTC(),
		Roadmap:        res.Roadmap,
		Source:         domain.SourceLocal,
	}, nil
}

func (s *planService) List(ctx context.Context) (*PlanList, error) {
	res, err := s.reconciler.Plans(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	return &PlanList{
		Plans:      res.Plans,
		Offline:    res.RemoteErr != nil,
		Duplicates: res.Duplicates,
	}, nil
}

// Get prefers the local copy and asks the backend for plans created
// elsewhere.
func (s *planService) Get(ctx context.Context, id string) (*domain.StudyPlan, error) {
	plan, err := s.local.Plan(ctx, id)
	if err == nil {
		return &plan, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if s.remote == nil {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}

	plan, err = s.remote.GetPlan(ctx, id)
	switch {
	case errors.Is(err, api.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	case isOffline(err):
		s.logger.Debug("backend unavailable for plan lookup", "plan_id", id, "error", err)
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	case err != nil:
		return nil, err
	}
	return &plan, nil
}

// Delete removes the plan from the backend when possible and always from
// the local store together with its progress.
func (s *planService) Delete(ctx context.Context, id string) (err error) {
	started := time.Now()
	fields := map[string]any{"plan_id": id}
	defer observe(ctx, s.observer, "delete-plan", started, fields, &err)

	_, lerr := s.local.Plan(ctx, id)
	if lerr != nil && !errors.Is(lerr, store.ErrNotFound) {
		return lerr
	}
	known := lerr == nil

	if s.remote != nil {
		rerr := s.remote.DeletePlan(ctx, id)
		switch {
		case rerr == nil:
			known = true
			fields["remote"] = true
		case errors.Is(rerr, api.ErrNotFound):
		default:
			s.logger.Warn("could not delete plan on backend", "plan_id", id, "error", rerr)
			// The backend may still hold it; do not report not-found.
			known = true
		}
	}

	if err = s.local.DeletePlan(ctx, id); err != nil {
		return err
	}
	if !known {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return nil
}
