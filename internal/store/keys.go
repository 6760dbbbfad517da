package store

import "strings"

// Session keys are never user-scoped.
const (
	KeyUser    = "user"
	KeyAccess  = "access"
	KeyRefresh = "refresh"
)

const (
	plansBase      = "studyPlans"
	statusesBase   = "nodeStatuses_"
	progressBase   = "roadmap_progress_"
	userScopeInfix = "_user_"
)

// scoped appends the user scope to a base key when uid is set.
func scoped(base, uid string) string {
	if uid == "" {
		return base
	}
	return base + userScopeInfix + uid
}

// PlansKey is where the local plan list lives.
func PlansKey(uid string) string { return scoped(plansBase, uid) }

// NodeStatusKey holds the canonical node-id to status map for a plan.
func NodeStatusKey(planID, uid string) string { return scoped(statusesBase+planID, uid) }

// ProgressKey holds the legacy topic-label progress record for a plan.
func ProgressKey(planID, uid string) string { return scoped(progressBase+planID, uid) }

// userDataMarkers match the plan and progress keys logout must remove,
// including keys written by older clients.
var userDataMarkers = []string{
	plansBase,
	progressBase,
	"nodeStatuses",
	"userProgress_",
}

const legacyRoadmapsBase = "user_roadmaps_"

// ownedBy reports whether key holds plan or progress data of the scope uid.
// The empty scope owns only unscoped keys.
func ownedBy(key, uid string) bool {
	if uid == "" {
		if strings.Contains(key, userScopeInfix) || strings.HasPrefix(key, legacyRoadmapsBase) {
			return false
		}
	} else {
		if key == legacyRoadmapsBase+uid {
			return true
		}
		if !strings.HasSuffix(key, userScopeInfix+uid) {
			return false
		}
	}
	for _, m := range userDataMarkers {
		if strings.HasPrefix(key, m) {
			return true
		}
	}
	return false
}
