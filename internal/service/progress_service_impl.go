package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/progress"
	"github.com/alexanderramin/studymap/internal/roadmap"
)

type progressService struct {
	plans    PlanService
	statuses PlanStore
}

func NewProgressService(plans PlanService, statuses PlanStore) ProgressService {
	return &progressService{plans: plans, statuses: statuses}
}

func (s *progressService) PlanStats(ctx context.Context, planID string) (*progress.PlanStats, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	stats, err := s.statsFor(ctx, *plan)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Summary computes progress for every reconciled plan. Plans whose
// statuses cannot be read fail the whole report.
func (s *progressService) Summary(ctx context.Context) (*ProgressReport, error) {
	list, err := s.plans.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		Plans:   make([]progress.PlanStats, 0, len(list.Plans)),
		Offline: list.Offline,
	}
	for _, p := range list.Plans {
		stats, err := s.statsFor(ctx, p)
		if err != nil {
			return nil, err
		}
		report.Plans = append(report.Plans, stats)
	}
	report.Summary = progress.Aggregate(report.Plans)
	return report, nil
}

func (s *progressService) statsFor(ctx context.Context, plan domain.StudyPlan) (progress.PlanStats, error) {
	flat := roadmap.Flatten(plan.Roadmap)
	statuses, err := s.statuses.Statuses(ctx, plan.ID, flat)
	if err != nil {
		return progress.PlanStats{}, fmt.Errorf("loading progress for plan %s: %w", plan.ID, err)
	}
	return progress.PlanStats{
		PlanID: plan.ID,
		Topic:  plan.MainTopic,
		Hours:  plan.AvailableHours,
		Stats:  progress.ForNodes(flat, statuses),
	}, nil
}
