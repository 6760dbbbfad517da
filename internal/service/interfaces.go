package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/studymap/internal/api"
	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/progress"
	"github.com/alexanderramin/studymap/internal/reconcile"
	"github.com/alexanderramin/studymap/internal/store"
)

var (
	// ErrPlanNotFound is returned when neither the local store nor the
	// backend knows a plan id.
	ErrPlanNotFound = errors.New("study plan not found")
	// ErrInvalidInput is returned for requests rejected before any I/O.
	ErrInvalidInput = errors.New("invalid input")
)

// CreatePlanInput describes a new study plan.
type CreatePlanInput struct {
	Topic          string
	AvailableHours float64
	Purpose        domain.Purpose
	// Offline skips the backend and generates the roadmap locally.
	Offline bool
}

// PlanList is the reconciled plan list.
type PlanList struct {
	Plans []domain.StudyPlan
	// Offline is set when the backend could not be reached.
	Offline    bool
	Duplicates []reconcile.Duplicate
}

// ProgressReport is every plan's progress plus the overall summary.
type ProgressReport struct {
	Plans   []progress.PlanStats `json:"plans"`
	Summary progress.Summary     `json:"summary"`
	Offline bool                 `json:"offline"`
}

type PlanService interface {
	Create(ctx context.Context, in CreatePlanInput) (*domain.StudyPlan, error)
	List(ctx context.Context) (*PlanList, error)
	Get(ctx context.Context, id string) (*domain.StudyPlan, error)
	Delete(ctx context.Context, id string) error
}

type ProgressService interface {
	PlanStats(ctx context.Context, planID string) (*progress.PlanStats, error)
	Summary(ctx context.Context) (*ProgressReport, error)
}

type AuthService interface {
	Login(ctx context.Context, identifier, password string) (*domain.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// RemotePlans is the backend's plan API. api.Client implements it.
type RemotePlans interface {
	CreatePlan(ctx context.Context, req api.CreatePlanRequest) (domain.StudyPlan, error)
	GetPlan(ctx context.Context, id string) (domain.StudyPlan, error)
	ListPlans(ctx context.Context) ([]domain.StudyPlan, error)
	DeletePlan(ctx context.Context, id string) error
}

// PlanStore is the local plan and progress storage. store.ProgressStore
// implements it.
type PlanStore interface {
	Plans(ctx context.Context) ([]domain.StudyPlan, error)
	Plan(ctx context.Context, id string) (domain.StudyPlan, error)
	SavePlan(ctx context.Context, plan domain.StudyPlan) error
	DeletePlan(ctx context.Context, id string) error
	InitProgress(ctx context.Context, planID string, nodes []domain.FlatNode) error
	Statuses(ctx context.Context, planID string, nodes []domain.FlatNode) (domain.StatusMap, error)
}

// Authenticator exchanges credentials for tokens. api.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (api.Tokens, error)
	Profile(ctx context.Context) (domain.User, error)
}

// SessionStore persists auth artifacts. store.ProgressStore implements it.
type SessionStore interface {
	Session(ctx context.Context) (store.Session, error)
	SaveSession(ctx context.Context, sess store.Session) error
	ClearSession(ctx context.Context) error
	ClearUserData(ctx context.Context) error
}

// isOffline reports errors after which a plan can still be created locally.
func isOffline(err error) bool {
	return errors.Is(err, api.ErrUnavailable) ||
		errors.Is(err, api.ErrUnauthorized) ||
		errors.Is(err, api.ErrSessionExpired)
}
