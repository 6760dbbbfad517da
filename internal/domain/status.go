package domain

import "strings"

// NodeStatus is the completion state of a single roadmap topic.
type NodeStatus string

const (
	StatusNotStarted NodeStatus = "Not Started"
	StatusInProgress NodeStatus = "In Progress"
	StatusCompleted  NodeStatus = "Completed"
)

// Legacy kebab-case forms written into topic-label progress records.
const (
	legacyNotStarted = "not-started"
	legacyInProgress = "in-progress"
	legacyCompleted  = "completed"
)

// Next returns the status that follows s in the fixed cycle
// NotStarted -> InProgress -> Completed -> NotStarted.
// Unknown values restart the cycle at InProgress, as if they were NotStarted.
func (s NodeStatus) Next() NodeStatus {
	switch s {
	case StatusInProgress:
		return StatusCompleted
	case StatusCompleted:
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}

// Valid reports whether s is one of the three canonical statuses.
func (s NodeStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Legacy returns the kebab-case form used by topic-label progress records.
func (s NodeStatus) Legacy() string {
	switch s {
	case StatusInProgress:
		return legacyInProgress
	case StatusCompleted:
		return legacyCompleted
	default:
		return legacyNotStarted
	}
}

// StatusKey folds a raw status string to a comparison key: lower case with
// spaces, hyphens and underscores removed. "In Progress", "in-progress"
// and "IN_PROGRESS" all fold to "inprogress".
func StatusKey(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '-', '_', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseNodeStatus classifies any persisted status spelling. Anything that is
// not recognisably completed or in progress is NotStarted.
func ParseNodeStatus(raw string) NodeStatus {
	switch StatusKey(raw) {
	case "completed", "complete", "done":
		return StatusCompleted
	case "inprogress":
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// StatusMap is the canonical per-plan status store: node id -> status.
// Absent entries are NotStarted.
type StatusMap map[string]NodeStatus

// Get returns the status for id, defaulting to NotStarted.
func (m StatusMap) Get(id string) NodeStatus {
	if s, ok := m[id]; ok && s.Valid() {
		return s
	}
	return StatusNotStarted
}

// ProgressRecord is the legacy topic-label keyed representation of the same
// fact as StatusMap: topic label -> status string in any spelling.
type ProgressRecord map[string]string
