package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/studymap/internal/domain"
	"github.com/alexanderramin/studymap/internal/progress"
	"github.com/alexanderramin/studymap/internal/viewmodel"
)

// PlanListData is everything the plan list shows.
type PlanListData struct {
	Plans []domain.StudyPlan
	// Stats is keyed by plan id; plans without an entry show no bar.
	Stats      map[string]progress.PlanStats
	Offline    bool
	Duplicates [][]string
	Now        time.Time
}

// FormatPlanList renders the plans as a table inside a box, followed by
// notes about offline mode and duplicate topics.
func FormatPlanList(d PlanListData) string {
	if len(d.Plans) == 0 {
		return Dim("No study plans yet. Create one with: studymap plan create --topic <topic>") + "\n"
	}

	t := Table{
		Headers: []string{"ID", "TOPIC", "HOURS", "SOURCE", "CREATED", "PROGRESS"},
		Right:   map[int]bool{2: true},
	}
	for _, p := range d.Plans {
		bar := Dim("--")
		if st, ok := d.Stats[p.ID]; ok && st.Total > 0 {
			bar = RenderProgress(st.Percentage, 10)
		}
		t.Rows = append(t.Rows, []string{
			Dim(TruncID(p.ID)),
			Bold(p.MainTopic),
			FormatHours(p.AvailableHours),
			SourceBadge(p.Source),
			HumanDate(p.CreatedAt, d.Now),
			bar,
		})
	}

	var b strings.Builder
	b.WriteString(RenderBox("Study plans", strings.TrimRight(t.Render(), "\n")))
	b.WriteString("\n")
	if d.Offline {
		b.WriteString(StyleYellow.Render("Backend unreachable; showing locally stored plans.") + "\n")
	}
	for _, ids := range d.Duplicates {
		b.WriteString(Dim(fmt.Sprintf("Same topic stored under several ids: %s", strings.Join(ids, ", "))) + "\n")
	}
	return b.String()
}

// FormatPlanDetail renders one plan: metadata, progress and the roadmap tree.
func FormatPlanDetail(plan domain.StudyPlan, g viewmodel.Graph, now time.Time) string {
	var b strings.Builder
	b.WriteString(Header(plan.MainTopic) + "\n")
	fmt.Fprintf(&b, "%s  %s\n", Dim("ID      "), plan.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("HOURS   "), FormatHours(plan.AvailableHours))
	fmt.Fprintf(&b, "%s  %s\n", Dim("SOURCE  "), SourceBadge(plan.Source))
	fmt.Fprintf(&b, "%s  %s\n", Dim("CREATED "), HumanDate(plan.CreatedAt, now))
	fmt.Fprintf(&b, "%s  %s  %s\n", Dim("PROGRESS"), RenderProgress(g.Stats.Percentage, 20),
		Dim(fmt.Sprintf("%d/%d completed", g.Stats.Completed, g.Stats.Total)))
	b.WriteString("\n")
	if len(g.Nodes) == 0 {
		b.WriteString(Dim("This plan has no roadmap topics.") + "\n")
		return b.String()
	}
	b.WriteString(FormatRoadmapTree(g))
	return b.String()
}
