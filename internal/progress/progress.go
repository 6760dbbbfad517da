// Package progress computes completion statistics for one plan or many.
package progress

import (
	"math"

	"github.com/alexanderramin/studymap/internal/domain"
)

// Stats counts node statuses of one plan.
type Stats struct {
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	NotStarted int `json:"not_started"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Calculate counts a label to status record. Values in any spelling are
// classified the way the store reads them.
func Calculate(record map[string]string) Stats {
	var s Stats
	for _, v := range record {
		s.add(domain.ParseNodeStatus(v))
	}
	return s.finish()
}

// FromStatuses counts a node-id status map.
func FromStatuses(m domain.StatusMap) Stats {
	var s Stats
	for _, v := range m {
		s.add(domain.ParseNodeStatus(string(v)))
	}
	return s.finish()
}

// ForNodes counts the status of every node, treating absent nodes as not
// started. Entries of statuses that match no node are ignored.
func ForNodes(nodes []domain.FlatNode, statuses domain.StatusMap) Stats {
	var s Stats
	for _, n := range nodes {
		s.add(statuses.Get(n.ID))
	}
	return s.finish()
}

func (s *Stats) add(st domain.NodeStatus) {
	switch st {
	case domain.StatusCompleted:
		s.Completed++
	case domain.StatusInProgress:
		s.InProgress++
	default:
		s.NotStarted++
	}
}

func (s Stats) finish() Stats {
	s.Total = s.Completed + s.InProgress + s.NotStarted
	s.Percentage = Percentage(s.Completed, s.Total)
	return s
}

// Percentage is round(100*part/total), and 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

// PlanStats is the progress of one plan.
type PlanStats struct {
	PlanID string  `json:"plan_id"`
	Topic  string  `json:"main_topic"`
	Hours  float64 `json:"available_time"`
	Stats
}

// FullyCompleted reports whether every node of a non-empty plan is done.
func (p PlanStats) FullyCompleted() bool {
	return p.Total > 0 && p.Completed == p.Total
}

// Summary aggregates many plans.
type Summary struct {
	Plans          int     `json:"plans"`
	FullyCompleted int     `json:"fully_completed"`
	Started        int     `json:"started"`
	TotalHours     float64 `json:"total_hours"`
	Totals         Stats   `json:"totals"`
}

// Aggregate sums per-plan counts. Totals.Percentage is computed from the
// summed counts, not averaged across plans.
func Aggregate(plans []PlanStats) Summary {
	var sum Summary
	for _, p := range plans {
		sum.Plans++
		sum.TotalHours += p.Hours
		sum.Totals.Completed += p.Completed
		sum.Totals.InProgress += p.InProgress
		sum.Totals.NotStarted += p.NotStarted
		if p.FullyCompleted() {
			sum.FullyCompleted++
		}
		if p.Completed+p.InProgress > 0 {
			sum.Started++
		}
	}
	sum.Totals = sum.Totals.finish()
	return sum
}
