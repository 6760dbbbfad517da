package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/studymap/internal/progress"
)

// FormatPlanStats renders the status counts of one plan.
func FormatPlanStats(p progress.PlanStats) string {
	var b strings.Builder
	b.WriteString(Header(p.Topic) + "\n")
	b.WriteString(RenderProgress(p.Percentage, 30) + "\n\n")
	t := Table{
		Headers: []string{"STATUS", "TOPICS"},
		Right:   map[int]bool{1: true},
		Rows: [][]string{
			{StyleGreen.Render("✔ Completed"), strconv.Itoa(p.Completed)},
			{StyleYellowBold.Render("▶ In Progress"), strconv.Itoa(p.InProgress)},
			{StyleDim.Render("○ Not Started"), strconv.Itoa(p.NotStarted)},
			{Bold("Total"), strconv.Itoa(p.Total)},
		},
	}
	b.WriteString(t.Render())
	return b.String()
}

// FormatProgressSummary renders per-plan bars and the totals across plans.
func FormatProgressSummary(plans []progress.PlanStats, sum progress.Summary, offline bool) string {
	if len(plans) == 0 {
		return Dim("No study plans yet.") + "\n"
	}

	t := Table{
		Headers: []string{"TOPIC", "DONE", "PROGRESS"},
		Right:   map[int]bool{1: true},
	}
	for _, p := range plans {
		t.Rows = append(t.Rows, []string{
			p.Topic,
			fmt.Sprintf("%d/%d", p.Completed, p.Total),
			RenderProgress(p.Percentage, 16),
		})
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(Header("Overall") + "\n")
	fmt.Fprintf(&b, "%s  %d\n", Dim("Plans          "), sum.Plans)
	fmt.Fprintf(&b, "%s  %d\n", Dim("Started        "), sum.Started)
	fmt.Fprintf(&b, "%s  %d\n", Dim("Fully completed"), sum.FullyCompleted)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Study hours    "), FormatHours(sum.TotalHours))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Topics         "), RenderProgress(sum.Totals.Percentage, 20))
	if offline {
		b.WriteString(StyleYellow.Render("Backend unreachable; totals cover locally stored plans.") + "\n")
	}
	return b.String()
}
