package summary

import (
	"fmt"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
)

const timestampLayout = "January 2, 2006 15:04"

func renderSingle(r model.Report, a model.ReportAnalysis, source model.SummarySource, now time.Time, compress bool) ([]byte, error) {
	utf8 := needsUTF8(append(reportTexts(r), singleTexts(a)...)...)
	doc := newDocument(fmt.Sprintf("Report #%d Summary", r.ID), "Report Analysis", compress, utf8, now)
	doc.title(r.Title, "Generated "+now.Format(timestampLayout))

	doc.heading("EXECUTIVE SUMMARY")
	doc.paragraph(a.ExecutiveSummary)

	doc.heading("REPORT DETAILS")
	statusColor := hexColor(r.Status.Color())
	doc.field("Report ID:", fmt.Sprintf("#%d", r.ID), nil)
	doc.field("Status:", r.Status.Label(), &statusColor)
	doc.field("Category:", r.Category, nil)
	doc.field("Priority:", r.Priority.Label(), nil)
	doc.field("Created:", r.CreatedAt.Format(timestampLayout), nil)
	doc.field("Last Updated:", r.UpdatedAt.Format(timestampLayout), nil)
	doc.field("Location:", locationText(r), nil)
	if r.CreatedBy != "" {
		doc.field("Reported By:", r.CreatedBy, nil)
	}

	doc.heading("URGENCY ASSESSMENT")
	doc.paragraph(a.UrgencyAssessment)

	doc.heading("KEY FINDINGS")
	doc.list(a.KeyFindings, false)

	doc.heading("IMPACT ANALYSIS")
	doc.paragraph(a.ImpactAnalysis)

	doc.heading("RECOMMENDED ACTIONS")
	doc.list(a.RecommendedActions, true)

	doc.heading("NEXT STEPS")
	doc.list(a.NextSteps, false)

	doc.heading("ORIGINAL REPORT DESCRIPTION")
	doc.paragraph(r.Description)

	if r.HasLocation() {
		doc.heading("LOCATION COORDINATES")
		doc.field("Latitude:", fmt.Sprintf("%.6f", *r.Latitude), nil)
		doc.field("Longitude:", fmt.Sprintf("%.6f", *r.Longitude), nil)
		doc.link("View on Google Maps", mapsURL(*r.Latitude, *r.Longitude))
	}

	doc.pdf.Ln(4)
	doc.muted(sourceNote(source))

	return doc.bytes()
}

func renderAggregate(reports []model.Report, a model.AggregateAnalysis, source model.SummarySource, now time.Time, compress bool) ([]byte, int, error) {
	texts := aggregateTexts(a)
	for _, r := range reports {
		texts = append(texts, reportTexts(r)...)
	}
	doc := newDocument("Community Reports Summary", "Community Reports Summary", compress, needsUTF8(texts...), now)
	doc.title("Community Reports Summary", "Generated "+now.Format(timestampLayout))
	doc.paragraph(fmt.Sprintf("Reports analysed: %d", len(reports)))

	doc.heading("OVERVIEW")
	doc.paragraph(a.Overview)

	doc.heading("KEY STATISTICS")
	doc.list(a.KeyStatistics, false)

	doc.heading("CRITICAL ISSUES")
	if len(a.CriticalIssues) == 0 {
		doc.paragraph("No high or urgent priority reports.")
	} else {
		doc.list(a.CriticalIssues, false)
	}

	doc.heading("CATEGORY ANALYSIS")
	doc.list(a.CategoryAnalysis, false)

	doc.heading("RECOMMENDATIONS")
	doc.list(a.Recommendations, true)

	doc.heading("DETAILED REPORT SUMMARIES")
	digests := make(map[int64]string, len(a.ReportSummaries))
	for _, s := range a.ReportSummaries {
		digests[s.ID] = s.Summary
	}

	rendered := 0
	for _, r := range reports {
		summary := digests[r.ID]
		if summary == "" {
			summary = r.Description
		}
		body := doc.lines(summary, doc.width)
		doc.ensureSpace(6 + lineHeight + float64(len(body))*lineHeight)

		doc.subheading(fmt.Sprintf("Report #%d: %s", r.ID, r.Title))
		doc.muted(fmt.Sprintf("Status: %s | Priority: %s | Category: %s | Submitted: %s",
			r.Status.Label(), r.Priority.Label(), r.Category, r.CreatedAt.Format(dateLayout)))
		doc.paragraph(summary)
		rendered++
	}

	doc.pdf.Ln(4)
	doc.muted(sourceNote(source))

	content, err := doc.bytes()
	return content, rendered, err
}

func reportTexts(r model.Report) []string {
	return []string{r.Title, r.Description, r.Category, r.Address, r.CreatedBy}
}

func singleTexts(a model.ReportAnalysis) []string {
	texts := []string{a.ExecutiveSummary, a.UrgencyAssessment, a.ImpactAnalysis}
	texts = append(texts, a.KeyFindings...)
	texts = append(texts, a.RecommendedActions...)
	return append(texts, a.NextSteps...)
}

func aggregateTexts(a model.AggregateAnalysis) []string {
	texts := []string{a.Overview}
	texts = append(texts, a.KeyStatistics...)
	texts = append(texts, a.CriticalIssues...)
	texts = append(texts, a.CategoryAnalysis...)
	texts = append(texts, a.Recommendations...)
	for _, s := range a.ReportSummaries {
		texts = append(texts, s.Summary)
	}
	return texts
}

func locationText(r model.Report) string {
	switch {
	case r.Address != "":
		return r.Address
	case r.HasLocation():
		return fmt.Sprintf("%.6f, %.6f", *r.Latitude, *r.Longitude)
	default:
		return "Not specified"
	}
}

func mapsURL(lat, lng float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%f,%f", lat, lng)
}

func sourceNote(source model.SummarySource) string {
	if source == model.SourceAI {
		return "This summary was generated with AI assistance and should be reviewed by municipal staff."
	}
	return "This summary was generated from the report data. AI analysis was unavailable."
}
