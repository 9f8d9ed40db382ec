package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
)

const digestLength = 160

// LocalStrategy builds summaries from the report fields alone. It never
// fails and gives the same output for the same input.
type LocalStrategy struct{}

func (LocalStrategy) Single(_ context.Context, r model.Report) (model.ReportAnalysis, error) {
	return model.ReportAnalysis{
		ExecutiveSummary: fmt.Sprintf("This %s report titled \"%s\" requires attention from local authorities.",
			strings.ToLower(r.Category), r.Title),
		KeyFindings: []string{
			fmt.Sprintf("Report is currently %s", strings.ToLower(strings.ReplaceAll(string(r.Status), "_", " "))),
			fmt.Sprintf("Submitted on %s", r.CreatedAt.Format(dateLayout)),
			fmt.Sprintf("Priority level: %s", r.Priority.Label()),
		},
		RecommendedActions: []string{
			"Conduct an on-site assessment of the reported issue",
			"Assign the report to the responsible municipal department",
			"Keep the reporter informed of progress",
		},
		UrgencyAssessment: urgency(r.Priority),
		ImpactAnalysis:    "This issue may affect community safety, accessibility and quality of life in the reported area if left unaddressed.",
		NextSteps: []string{
			"Schedule a site inspection",
			"Coordinate with the relevant departments",
			"Monitor progress and update the report status",
		},
	}, nil
}

func urgency(p model.Priority) string {
	switch p {
	case model.PriorityUrgent:
		return "High"
	case model.PriorityHigh:
		return "Medium"
	default:
		return "Low"
	}
}

func (LocalStrategy) Aggregate(_ context.Context, reports []model.Report) (model.AggregateAnalysis, error) {
	byStatus := map[model.Status]int{}
	byPriority := map[model.Priority]int{}
	byCategory := map[string]int{}
	var critical []string
	digests := make([]model.ReportDigest, 0, len(reports))

	for _, r := range reports {
		byStatus[r.Status]++
		byPriority[r.Priority]++
		byCategory[r.Category]++
		if r.Priority.IsCritical() {
			critical = append(critical, fmt.Sprintf("#%d %s (%s priority, %s)", r.ID, r.Title, r.Priority.Label(), r.Status.Label()))
		}
		digests = append(digests, model.ReportDigest{ID: r.ID, Summary: util.Truncate(r.Description, digestLength)})
	}

	stats := []string{fmt.Sprintf("Total reports: %d", len(reports))}
	for _, s := range model.AllStatuses {
		if n := byStatus[s]; n > 0 {
			stats = append(stats, fmt.Sprintf("%s: %d", s.Label(), n))
		}
	}
	for _, p := range model.AllPriorities {
		if n := byPriority[p]; n > 0 {
			stats = append(stats, fmt.Sprintf("%s priority: %d", p.Label(), n))
		}
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		if byCategory[categories[i]] != byCategory[categories[j]] {
			return byCategory[categories[i]] > byCategory[categories[j]]
		}
		return categories[i] < categories[j]
	})
	categoryLines := make([]string, 0, len(categories))
	for _, c := range categories {
		categoryLines = append(categoryLines, fmt.Sprintf("%s: %d report(s)", c, byCategory[c]))
	}

	open := byStatus[model.StatusPending] + byStatus[model.StatusInProgress]
	overview := fmt.Sprintf("This summary covers %d community reports across %d categories. %d remain open and %d are marked high or urgent priority.",
		len(reports), len(categories), open, len(critical))

	return model.AggregateAnalysis{
		Overview:         overview,
		KeyStatistics:    stats,
		CriticalIssues:   critical,
		CategoryAnalysis: categoryLines,
		Recommendations: []string{
			"Prioritise urgent and high priority reports for immediate review",
			"Clear the backlog of pending reports with a weekly triage session",
			"Allocate resources to the categories with the most reports",
			"Keep reporters informed as their reports progress",
		},
		ReportSummaries: digests,
	}, nil
}
