package summary

import (
	"fmt"
	"strings"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
)

const dateLayout = "January 2, 2006"

func singlePrompt(r model.Report) string {
	var sb strings.Builder
	sb.WriteString("You are an analyst for a municipal government reviewing a citizen-submitted civic issue report.\n")
	sb.WriteString("Analyse the report below and respond with JSON only, using exactly these keys:\n")
	sb.WriteString(`{"executiveSummary": string, "keyFindings": [string], "recommendedActions": [string], "urgencyAssessment": string, "impactAnalysis": string, "nextSteps": [string]}`)
	sb.WriteString("\n\nREPORT\n")
	writeReport(&sb, r, 0)
	return sb.String()
}

func aggregatePrompt(reports []model.Report) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are preparing an executive summary of %d citizen-submitted civic issue reports for municipal leadership.\n", len(reports))
	sb.WriteString("Provide an overview, key statistics, critical issues (HIGH or URGENT priority), a category analysis, 3-5 actionable recommendations, and a one or two sentence summary of every report.\n")
	sb.WriteString("Respond with JSON only, using exactly these keys:\n")
	sb.WriteString(`{"overview": string, "keyStatistics": [string], "criticalIssues": [string], "categoryAnalysis": [string], "recommendations": [string], "reportSummaries": [{"id": number, "summary": string}]}`)
	sb.WriteString("\n\nREPORTS\n")
	for i, r := range reports {
		fmt.Fprintf(&sb, "\n%d.\n", i+1)
		writeReport(&sb, r, 300)
	}
	return sb.String()
}

func writeReport(sb *strings.Builder, r model.Report, maxDescription int) {
	fmt.Fprintf(sb, "ID: %d\n", r.ID)
	fmt.Fprintf(sb, "Title: %s\n", r.Title)
	fmt.Fprintf(sb, "Category: %s\n", r.Category)
	fmt.Fprintf(sb, "Priority: %s\n", r.Priority)
	fmt.Fprintf(sb, "Status: %s\n", r.Status)
	fmt.Fprintf(sb, "Submitted: %s\n", r.CreatedAt.Format(dateLayout))
	if r.Address != "" {
		fmt.Fprintf(sb, "Address: %s\n", r.Address)
	}
	if r.HasLocation() {
		fmt.Fprintf(sb, "Coordinates: %.6f, %.6f\n", *r.Latitude, *r.Longitude)
	}
	fmt.Fprintf(sb, "Description: %s\n", util.Truncate(r.Description, maxDescription))
}
