// Package reconcile merges the plans known to the backend with the plans
// stored locally.
package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/logging"
	"golang.org/x/sync/errgroup"
)

// RemoteSource lists plans from the backend. api.Client implements it.
type RemoteSource interface {
	ListPlans(ctx context.Context) ([]domain.StudyPlan, error)
}

// LocalSource lists locally stored plans, already normalised.
// store.ProgressStore implements it.
type LocalSource interface {
	Plans(ctx context.Context) ([]domain.StudyPlan, error)
}

// Reconciler produces the combined plan list. Remote may be nil when
// running offline.
type Reconciler struct {
	Remote RemoteSource
	Local  LocalSource
	Logger *slog.Logger
}

func New(remote RemoteSource, local LocalSource, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Reconciler{Remote: remote, Local: local, Logger: logger}
}

// Result is the merged list together with what happened on the way.
type Result struct {
	Plans []domain.StudyPlan
	// RemoteErr is the error from the backend, which does not fail the call.
	RemoteErr error
	// Duplicates lists same-topic plans held under different ids.
	Duplicates []Duplicate
}

// Plans fetches both sources concurrently and merges them: every remote
// plan first, then local plans whose id the backend does not know. A
// remote failure is logged and treated as an empty list; a local failure
// fails the call.
func (r *Reconciler) Plans(ctx context.Context) (Result, error) {
	var remote, local []domain.StudyPlan
	var remoteErr error

	g, gctx := errgroup.WithContext(ctx)
	if r.Remote != nil {
		g.Go(func() error {
			plans, err := r.Remote.ListPlans(gctx)
			if err != nil {
				remoteErr = err
				r.logger().Warn("remote plans unavailable, using local plans only", "error", err)
				return nil
			}
			remote = plans
			return nil
		})
	}
	g.Go(func() error {
		plans, err := r.Local.Plans(gctx)
		if err != nil {
			return err
		}
		local = plans
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	merged := Merge(remote, local)
	dups := Duplicates(merged)
	if len(dups) > 0 {
		r.logger().Debug("plans share a topic under different ids", "count", len(dups))
	}
	return Result{Plans: merged, RemoteErr: remoteErr, Duplicates: dups}, nil
}

func (r *Reconciler) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

// Merge returns remote followed by the local plans whose id is not among
// the remote ids. Order within each group is preserved.
func Merge(remote, local []domain.StudyPlan) []domain.StudyPlan {
	seen := make(map[string]struct{}, len(remote))
	out := make([]domain.StudyPlan, 0, len(remote)+len(local))
	for _, p := range remote {
		if p.Source == "" {
			p.Source = domain.SourceRemote
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	for _, p := range local {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		if p.Source == "" {
			p.Source = domain.SourceLocal
		}
		out = append(out, p)
	}
	return out
}

// Duplicate is a topic held by more than one plan id.
type Duplicate struct {
	Topic   string
	PlanIDs []string
}

// Duplicates reports topics (compared case-insensitively) that appear under
// more than one plan id, typically a plan created offline and again on the
// backend. Nothing is merged.
func Duplicates(plans []domain.StudyPlan) []Duplicate {
	byTopic := make(map[string][]string)
	var order []string
	for _, p := range plans {
		k := strings.ToLower(strings.TrimSpace(p.MainTopic))
		if _, ok := byTopic[k]; !ok {
			order = append(order, k)
		}
		byTopic[k] = append(byTopic[k], p.ID)
	}

	var out []Duplicate
	for _, k := range order {
		ids := byTopic[k]
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		out = append(out, Duplicate{Topic: k, PlanIDs: ids})
	}
	return out
}
