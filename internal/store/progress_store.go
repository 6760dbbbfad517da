package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/logging"
	"github.com/alexanderramin/studymap/internal/roadmap"
)

// ProgressStore is the repository for plans, node statuses and the auth
// session. Every read goes to the backend and records the revision it saw;
// every write is conditional on that revision so changes made by another
// process are detected instead of overwritten. Safe for concurrent use.
type ProgressStore struct {
	kv     KV
	bus    *Bus
	logger *slog.Logger
	now    func() time.Time

	scoped bool
	user   string

	mu    sync.Mutex
	cache map[string]Entry
}

type Option func(*ProgressStore)

// WithBus publishes change events on b instead of a private bus.
func WithBus(b *Bus) Option {
	return func(s *ProgressStore) { s.bus = b }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *ProgressStore) { s.logger = l }
}

// WithUserScoping derives a per-user key suffix from the stored session
// user.
func WithUserScoping(enabled bool) Option {
	return func(s *ProgressStore) { s.scoped = enabled }
}

// WithUser pins the key scope to uid regardless of the session.
func WithUser(uid string) Option {
	return func(s *ProgressStore) { s.user = uid }
}

func WithClock(now func() time.Time) Option {
	return func(s *ProgressStore) { s.now = now }
}

func NewProgressStore(kv KV, opts ...Option) *ProgressStore {
	s := &ProgressStore{
		kv:     kv,
		bus:    NewBus(),
		logger: logging.NewNop(),
		now:    time.Now,
		cache:  make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the bus change events are published on.
func (s *ProgressStore) Bus() *Bus { return s.bus }

// --- plans ---

// RawPlans returns the stored plan records as they were written, including
// records in older shapes. Non-object entries are skipped.
func (s *ProgressStore) RawPlans(ctx context.Context) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := PlansKey(s.scopeLocked(ctx))
	e, err := s.loadLocked(ctx, s.kv, key)
	if err != nil {
		return nil, err
	}
	return s.decodeRecords(e.Value, key), nil
}

// Plans returns the stored plans normalised to the current shape.
func (s *ProgressStore) Plans(ctx context.Context) ([]domain.StudyPlan, error) {
	records, err := s.RawPlans(ctx)
	if err != nil {
		return nil, err
	}
	return s.normalise(records), nil
}

// Plan returns the stored plan with the given id or ErrNotFound.
func (s *ProgressStore) Plan(ctx context.Context, id string) (domain.StudyPlan, error) {
	plans, err := s.Plans(ctx)
	if err != nil {
		return domain.StudyPlan{}, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.StudyPlan{}, ErrNotFound
}

// SavePlan inserts the plan or replaces the record with the same id and
// publishes StudyPlansUpdated.
func (s *ProgressStore) SavePlan(ctx context.Context, plan domain.StudyPlan) error {
	record, err := planRecord(plan)
	if err != nil {
		return err
	}

	var plans []domain.StudyPlan
	err = s.locked(func() error {
		key := PlansKey(s.scopeLocked(ctx))
		return s.mutateLocked(ctx, s.kv, key, func(cur []byte) ([]byte, error) {
			records := s.decodeRecords(cur, key)
			replaced := false
			for i, p := range s.normalise(records) {
				if p.ID == plan.ID {
					records[i] = record
					replaced = true
				}
			}
			if !replaced {
				records = append(records, record)
			}
			plans = s.normalise(records)
			return json.Marshal(records)
		})
	})
	if err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}
	s.bus.Publish(StudyPlansUpdated{Plans: plans})
	return nil
}

// DeletePlan removes the plan and both of its progress keys, atomically when
// the backend supports transactions. Deleting an unknown plan still clears
// any progress stored for that id.
func (s *ProgressStore) DeletePlan(ctx context.Context, id string) error {
	var plans []domain.StudyPlan
	err := s.locked(func() error {
		uid := s.scopeLocked(ctx)
		key := PlansKey(uid)
		statusKey, progressKey := NodeStatusKey(id, uid), ProgressKey(id, uid)
		return s.atomicallyLocked(ctx, func(ctx context.Context, kv KV) error {
			err := s.mutateLocked(ctx, kv, key, func(cur []byte) ([]byte, error) {
				records := s.decodeRecords(cur, key)
				kept := make([]map[string]any, 0, len(records))
				for i, p := range s.normalise(records) {
					if p.ID != id {
						kept = append(kept, records[i])
					}
				}
				plans = s.normalise(kept)
				return json.Marshal(kept)
			})
			if err != nil {
				return err
			}
			if err := kv.Delete(ctx, statusKey, progressKey); err != nil {
				return err
			}
			delete(s.cache, statusKey)
			delete(s.cache, progressKey)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("deleting plan %s: %w", id, err)
	}
	s.bus.Publish(StudyPlansUpdated{Plans: plans})
	return nil
}

// --- node statuses ---

// Statuses returns the status of every node. Node ids are looked up in the
// canonical map first; nodes without an entry fall back to an entry keyed
// by their label and then to the legacy label record. Statuses recovered
// from those fallbacks are written back to the canonical map once. With nil
// nodes the canonical map is returned as stored.
func (s *ProgressStore) Statuses(ctx context.Context, planID string, nodes []domain.FlatNode) (domain.StatusMap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uid := s.scopeLocked(ctx)
	statusKey, progressKey := NodeStatusKey(planID, uid), ProgressKey(planID, uid)

	canonical, err := s.stringMapLocked(ctx, s.kv, statusKey)
	if err != nil {
		return nil, err
	}
	out := make(domain.StatusMap, len(nodes))
	if nodes == nil {
		for id, v := range canonical {
			out[id] = domain.ParseNodeStatus(v)
		}
		return out, nil
	}

	legacy, err := s.stringMapLocked(ctx, s.kv, progressKey)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		ids[n.ID] = true
	}

	recovered := make(map[string]domain.NodeStatus)
	for _, n := range nodes {
		if v, ok := canonical[n.ID]; ok {
			out[n.ID] = domain.ParseNodeStatus(v)
			continue
		}
		if v, ok := canonical[n.Label]; ok && !ids[n.Label] {
			out[n.ID] = domain.ParseNodeStatus(v)
			recovered[n.ID] = out[n.ID]
			continue
		}
		if v, ok := legacy[n.Label]; ok {
			out[n.ID] = domain.ParseNodeStatus(v)
			if out[n.ID] != domain.StatusNotStarted {
				recovered[n.ID] = out[n.ID]
			}
			continue
		}
		out[n.ID] = domain.StatusNotStarted
	}

	if len(recovered) > 0 {
		err := s.mutateLocked(ctx, s.kv, statusKey, func(cur []byte) ([]byte, error) {
			m := s.decodeStringMap(cur, statusKey)
			for id, st := range recovered {
				if _, ok := m[id]; !ok {
					m[id] = string(st)
				}
			}
			for _, n := range nodes {
				if n.Label != n.ID && !ids[n.Label] {
					delete(m, n.Label)
				}
			}
			return json.Marshal(m)
		})
		if err != nil {
			s.logger.Warn("migrating legacy progress failed", "plan_id", planID, "error", err)
		} else {
			s.logger.Debug("migrated legacy progress", "plan_id", planID, "nodes", len(recovered))
		}
	}
	return out, nil
}

// SetStatus records the status of one node in the canonical map, mirrors it
// into the legacy label record and publishes ProgressUpdated.
func (s *ProgressStore) SetStatus(ctx context.Context, planID string, node domain.FlatNode, status domain.NodeStatus) error {
	err := s.locked(func() error {
		uid := s.scopeLocked(ctx)
		statusKey, progressKey := NodeStatusKey(planID, uid), ProgressKey(planID, uid)
		return s.atomicallyLocked(ctx, func(ctx context.Context, kv KV) error {
			err := s.mutateLocked(ctx, kv, statusKey, func(cur []byte) ([]byte, error) {
				m := s.decodeStringMap(cur, statusKey)
				m[node.ID] = string(status)
				return json.Marshal(m)
			})
			if err != nil {
				return fmt.Errorf("writing node status: %w", err)
			}
			err = s.mutateLocked(ctx, kv, progressKey, func(cur []byte) ([]byte, error) {
				m := s.decodeStringMap(cur, progressKey)
				m[node.Label] = status.Legacy()
				return json.Marshal(m)
			})
			if err != nil {
				return fmt.Errorf("writing progress record: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("setting status of %s/%s: %w", planID, node.ID, err)
	}
	s.bus.Publish(ProgressUpdated{PlanID: planID, NodeID: node.ID, Topic: node.Label, Status: status})
	return nil
}

// ResetStatuses clears the canonical map, marks every node not-started in
// the legacy record and publishes ProgressUpdated with Reset set.
func (s *ProgressStore) ResetStatuses(ctx context.Context, planID string, nodes []domain.FlatNode) error {
	err := s.locked(func() error {
		uid := s.scopeLocked(ctx)
		statusKey, progressKey := NodeStatusKey(planID, uid), ProgressKey(planID, uid)
		return s.atomicallyLocked(ctx, func(ctx context.Context, kv KV) error {
			err := s.mutateLocked(ctx, kv, statusKey, func([]byte) ([]byte, error) {
				return []byte("{}"), nil
			})
			if err != nil {
				return err
			}
			return s.mutateLocked(ctx, kv, progressKey, func([]byte) ([]byte, error) {
				return json.Marshal(notStartedRecord(nodes))
			})
		})
	})
	if err != nil {
		return fmt.Errorf("resetting progress of %s: %w", planID, err)
	}
	s.bus.Publish(ProgressUpdated{PlanID: planID, Status: domain.StatusNotStarted, Reset: true})
	return nil
}

// InitProgress writes not-started for every node label of a new plan.
func (s *ProgressStore) InitProgress(ctx context.Context, planID string, nodes []domain.FlatNode) error {
	return s.locked(func() error {
		uid := s.scopeLocked(ctx)
		progressKey := ProgressKey(planID, uid)
		return s.mutateLocked(ctx, s.kv, progressKey, func([]byte) ([]byte, error) {
			return json.Marshal(notStartedRecord(nodes))
		})
	})
}

// ProgressRecord returns the legacy label record of a plan.
func (s *ProgressStore) ProgressRecord(ctx context.Context, planID string) (domain.ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.stringMapLocked(ctx, s.kv, ProgressKey(planID, s.scopeLocked(ctx)))
	if err != nil {
		return nil, err
	}
	return domain.ProgressRecord(m), nil
}

// --- internals; all *Locked methods expect s.mu to be held ---

func (s *ProgressStore) locked(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// loadLocked reads key from the backend and records the revision it saw.
// Reads always go to kv so writes from other processes are visible.
func (s *ProgressStore) loadLocked(ctx context.Context, kv KV, key string) (Entry, error) {
	e, err := kv.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		delete(s.cache, key)
		return Entry{}, err
	}
	s.cache[key] = e
	return e, nil
}

// mutateLocked applies fn to the current value and writes the result
// conditionally. On a conflict the key is reloaded and fn applied once more.
func (s *ProgressStore) mutateLocked(ctx context.Context, kv KV, key string, fn func(cur []byte) ([]byte, error)) error {
	for attempt := 0; ; attempt++ {
		cur, err := s.loadLocked(ctx, kv, key)
		if err != nil {
			return err
		}
		next, err := fn(cur.Value)
		if err != nil {
			return err
		}
		rev, err := kv.Put(ctx, key, next, cur.Revision)
		if errors.Is(err, ErrConflict) && attempt == 0 {
			s.logger.Warn("revision conflict, reloading", "key", key, "expected", cur.Revision)
			delete(s.cache, key)
			continue
		}
		if err != nil {
			delete(s.cache, key)
			return err
		}
		s.cache[key] = Entry{Value: next, Revision: rev}
		return nil
	}
}

// atomicallyLocked runs fn in a backend transaction when available. The cache
// is discarded when the transaction fails because it may hold values that
// were rolled back.
func (s *ProgressStore) atomicallyLocked(ctx context.Context, fn func(ctx context.Context, kv KV) error) error {
	t, ok := s.kv.(Transactor)
	if !ok {
		return fn(ctx, s.kv)
	}
	if err := t.WithinTx(ctx, fn); err != nil {
		s.cache = make(map[string]Entry)
		return err
	}
	return nil
}

func (s *ProgressStore) scopeLocked(ctx context.Context) string {
	if s.user != "" {
		return s.user
	}
	if !s.scoped {
		return ""
	}
	e, err := s.loadLocked(ctx, s.kv, KeyUser)
	if err != nil || e.Value == nil {
		return ""
	}
	var u domain.User
	if err := json.Unmarshal(e.Value, &u); err != nil {
		s.logger.Warn("ignoring corrupt session user", "error", err)
		return ""
	}
	return u.ScopeID()
}

func (s *ProgressStore) stringMapLocked(ctx context.Context, kv KV, key string) (map[string]string, error) {
	e, err := s.loadLocked(ctx, kv, key)
	if err != nil {
		return nil, err
	}
	return s.decodeStringMap(e.Value, key), nil
}

// decodeStringMap tolerates absent and corrupt values by returning an empty
// map. Non-string values are skipped.
func (s *ProgressStore) decodeStringMap(data []byte, key string) map[string]string {
	out := make(map[string]string)
	if len(data) == 0 {
		return out
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("ignoring corrupt value", "key", key, "error", err)
		return out
	}
	for k, v := range raw {
		if str, ok := v.(string); ok {
			out[k] = str
		}
	}
	return out
}

func (s *ProgressStore) decodeRecords(data []byte, key string) []map[string]any {
	if len(data) == 0 {
		return nil
	}
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("ignoring corrupt value", "key", key, "error", err)
		return nil
	}
	records := make([]map[string]any, 0, len(raw))
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			records = append(records, m)
		}
	}
	return records
}

func (s *ProgressStore) normalise(records []map[string]any) []domain.StudyPlan {
	now := s.now()
	plans := make([]domain.StudyPlan, 0, len(records))
	for i, r := range records {
		p, issues := roadmap.DecodePlanWithReport(r, i, now)
		for _, is := range issues {
			s.logger.Warn("ignoring unreadable plan field", "plan_id", p.ID, "path", is.Path, "error", is.Message)
		}
		if p.Source == "" {
			p.Source = domain.SourceLocal
		}
		plans = append(plans, p)
	}
	return plans
}

func planRecord(plan domain.StudyPlan) (map[string]any, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("encoding plan: %w", err)
	}
	return record, nil
}

func notStartedRecord(nodes []domain.FlatNode) map[string]string {
	m := make(map[string]string, len(nodes))
	for _, n := range nodes {
		m[n.Label] = domain.StatusNotStarted.Legacy()
	}
	return m
}
