package domain

// FlatNode is a roadmap topic after flattening. It is derived on every
// flatten call and never persisted.
type FlatNode struct {
	ID               string   `json:"id"`
	Label            string   `json:"label"`
	Prerequisites    []string `json:"prerequisites"`
	EstimatedMinutes int      `json:"estimated_time_minutes"`
	EstimatedHours   float64  `json:"estimated_time_hours"`
	// Depth is the nesting level in the source tree; top-level topics are 0.
	Depth int `json:"depth"`
}

// Edge is a directed prerequisite link. Synthetic edges come from the
// sequential fallback chain rather than a declared prerequisite.
type Edge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Synthetic bool   `json:"synthetic,omitempty"`
}

// Position is the top-left corner of a laid out node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
