package model

import "time"

// ReportAnalysis is the structured summary of a single report, either parsed
// from the text generation service or synthesized locally.
type ReportAnalysis struct {
	ExecutiveSummary   string   `json:"executiveSummary"`
	KeyFindings        []string `json:"keyFindings"`
	RecommendedActions []string `json:"recommendedActions"`
	UrgencyAssessment  string   `json:"urgencyAssessment"`
	ImpactAnalysis     string   `json:"impactAnalysis"`
	NextSteps          []string `json:"nextSteps"`
}

type ReportDigest struct {
	ID      int64  `json:"id"`
	Summary string `json:"summary"`
}

type AggregateAnalysis struct {
	Overview         string         `json:"overview"`
	KeyStatistics    []string       `json:"keyStatistics"`
	CriticalIssues   []string       `json:"criticalIssues"`
	CategoryAnalysis []string       `json:"categoryAnalysis"`
	Recommendations  []string       `json:"recommendations"`
	ReportSummaries  []ReportDigest `json:"reportSummaries"`
}

type SummarySource string

const (
	SourceAI       SummarySource = "ai"
	SourceFallback SummarySource = "fallback"
)

type Document struct {
	Filename    string
	Content     []byte
	ReportCount int
	GeneratedAt time.Time
	Source      SummarySource
}

type AggregateSummaryResponse struct {
	Success     bool      `json:"success"`
	PDF         string    `json:"pdf"`
	ReportCount int       `json:"reportCount"`
	GeneratedAt time.Time `json:"generatedAt"`
}
