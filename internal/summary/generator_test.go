package summary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	reports []model.Report
	err     error
}

func (m *mockStore) Get(_ context.Context, id int64) (model.Report, error) {
	if m.err != nil {
		return model.Report{}, m.err
	}
	for _, r := range m.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return model.Report{}, model.ErrReportNotFound
}

func (m *mockStore) All(_ context.Context) ([]model.Report, error) {
	return m.reports, m.err
}

type mockText struct {
	reply   string
	err     error
	prompts []string
}

func (m *mockText) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

var (
	admin   = model.Actor{UserID: uuid.New(), Role: model.RoleAdmin}
	citizen = model.Actor{UserID: uuid.New(), Role: model.RoleCitizen}
	fixedAt = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
)

func f(v float64) *float64 { return &v }

func sampleReports(n int) []model.Report {
	priorities := model.AllPriorities
	statuses := model.AllStatuses
	reports := make([]model.Report, 0, n)
	for i := 1; i <= n; i++ {
		reports = append(reports, model.Report{
			ID:          int64(i),
			Title:       fmt.Sprintf("Issue number %d", i),
			Description: fmt.Sprintf("Residents report problem %d near the market square.", i),
			Category:    []string{"Public Safety", "Street Lighting", "Waste Management"}[i%3],
			Priority:    priorities[i%len(priorities)],
			Status:      statuses[i%len(statuses)],
			CreatedBy:   "Resident",
			CreatedAt:   fixedAt.Add(-time.Duration(i) * time.Hour),
			UpdatedAt:   fixedAt,
		})
	}
	return reports
}

func newTestGenerator(store Store, text TextGenerator) *Generator {
	g := NewGenerator(store, text)
	g.compress = false
	g.now = func() time.Time { return fixedAt }
	return g
}

func TestGenerateSingleNotFound(t *testing.T) {
	g := newTestGenerator(&mockStore{reports: sampleReports(2)}, nil)

	_, err := g.GenerateSingle(context.Background(), citizen, 99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, model.ErrReportNotFound)
}

func TestGenerateSingleStoreFailure(t *testing.T) {
	storeErr := errors.New("connection reset")
	g := newTestGenerator(&mockStore{err: storeErr}, nil)

	_, err := g.GenerateSingle(context.Background(), citizen, 1)
	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGenerateSingleLocalSections(t *testing.T) {
	r := sampleReports(1)[0]
	r.ID = 42
	r.Priority = model.PriorityUrgent
	r.Address = "12 Harbour Road"
	r.Latitude, r.Longitude = f(35.185), f(33.382)
	g := newTestGenerator(&mockStore{reports: []model.Report{r}}, nil)

	doc, err := g.GenerateSingle(context.Background(), citizen, 42)
	require.NoError(t, err)

	assert.Equal(t, "report-42-summary.pdf", doc.Filename)
	assert.Equal(t, model.SourceFallback, doc.Source)
	assert.Equal(t, fixedAt, doc.GeneratedAt)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))

	content := string(doc.Content)
	last := -1
	for _, section := range []string{
		"EXECUTIVE SUMMARY",
		"REPORT DETAILS",
		"URGENCY ASSESSMENT",
		"KEY FINDINGS",
		"IMPACT ANALYSIS",
		"RECOMMENDED ACTIONS",
		"NEXT STEPS",
		"ORIGINAL REPORT DESCRIPTION",
		"LOCATION COORDINATES",
	} {
		idx := strings.Index(content, "("+section+")")
		require.Greater(t, idx, last, section)
		last = idx
	}
	assert.Contains(t, content, "https://www.google.com/maps?q=35.185000,33.382000")
	assert.Contains(t, content, "(#42)")
	assertFooters(t, content)
}

// assertFooters checks every page carries "Page i of n" with the same n.
func assertFooters(t *testing.T, content string) {
	t.Helper()
	matches := rgxFooter.FindAllStringSubmatch(content, -1)
	require.NotEmpty(t, matches)
	total := matches[0][2]
	for i, m := range matches {
		assert.Equal(t, strconv.Itoa(i+1), m[1])
		assert.Equal(t, total, m[2])
	}
	assert.Equal(t, total, strconv.Itoa(len(matches)))
}

var rgxFooter = regexp.MustCompile(`Page (\d+) of (\d+)`)

func TestGenerateSingleWithoutLocationOmitsCoordinates(t *testing.T) {
	g := newTestGenerator(&mockStore{reports: sampleReports(1)}, nil)

	doc, err := g.GenerateSingle(context.Background(), citizen, 1)
	require.NoError(t, err)
	assert.NotContains(t, string(doc.Content), "LOCATION COORDINATES")
	assert.Contains(t, string(doc.Content), "(Not specified)")
}

func TestGenerateSingleUsesRemoteAnalysis(t *testing.T) {
	text := &mockText{reply: "Here you go:\n" + `{"executiveSummary":"Streetlight outage on a busy crossing.","keyFindings":["Dark crossing"],"recommendedActions":["Replace bulb"],"urgencyAssessment":"High","impactAnalysis":"Pedestrian safety","nextSteps":["Dispatch crew"]}`}
	g := newTestGenerator(&mockStore{reports: sampleReports(1)}, text)

	doc, err := g.GenerateSingle(context.Background(), citizen, 1)
	require.NoError(t, err)
	assert.Equal(t, model.SourceAI, doc.Source)
	assert.Contains(t, string(doc.Content), "Streetlight outage on a busy crossing.")

	require.Len(t, text.prompts, 1)
	assert.Contains(t, text.prompts[0], "Issue number 1")
	assert.Contains(t, text.prompts[0], "executiveSummary")
}

func TestGenerateSingleFallsBackOnServiceError(t *testing.T) {
	text := &mockText{err: errors.New("503 overloaded")}
	g := newTestGenerator(&mockStore{reports: sampleReports(1)}, text)

	doc, err := g.GenerateSingle(context.Background(), citizen, 1)
	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, doc.Source)
	assert.Contains(t, string(doc.Content), "requires attention from local authorities")
}

func TestGenerateSingleRequiresSignedInActor(t *testing.T) {
	g := newTestGenerator(&mockStore{reports: sampleReports(1)}, nil)

	_, err := g.GenerateSingle(context.Background(), model.Actor{}, 1)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGenerateAggregateEmptySet(t *testing.T) {
	g := newTestGenerator(&mockStore{}, nil)

	doc, err := g.GenerateAggregate(context.Background(), admin)
	assert.ErrorIs(t, err, ErrEmptySet)
	assert.Nil(t, doc)
}

func TestGenerateAggregateCountsEveryReport(t *testing.T) {
	reports := sampleReports(3)
	g := newTestGenerator(&mockStore{reports: reports}, nil)

	doc, err := g.GenerateAggregate(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 3, doc.ReportCount)
	content := string(doc.Content)
	assert.Contains(t, content, "Reports analysed: 3")
	assert.Equal(t, 3, strings.Count(content, "(Report #"))
	for _, r := range reports {
		assert.Contains(t, content, fmt.Sprintf("Report #%d: %s", r.ID, r.Title))
	}
}

func TestGenerateAggregateFallsBackOnNonJSON(t *testing.T) {
	text := &mockText{reply: "I'm sorry, I can only answer in prose today."}
	g := newTestGenerator(&mockStore{reports: sampleReports(4)}, text)

	doc, err := g.GenerateAggregate(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, model.SourceFallback, doc.Source)
	assert.Equal(t, 4, doc.ReportCount)
	assert.Contains(t, string(doc.Content), "This summary covers 4 community reports")
	assert.Len(t, text.prompts, 1)
}

func TestGenerateAggregateUsesRemoteAnalysis(t *testing.T) {
	text := &mockText{reply: "```json\n" + `{"overview":"Lighting dominates this month.","keyStatistics":["2 reports"],"criticalIssues":[],"categoryAnalysis":["Lighting: 2"],"recommendations":["Audit lamps"],"reportSummaries":[{"id":1,"summary":"Lamp out on Elm St."}]}` + "\n```"}
	g := newTestGenerator(&mockStore{reports: sampleReports(2)}, text)

	doc, err := g.GenerateAggregate(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, model.SourceAI, doc.Source)
	assert.Equal(t, 2, doc.ReportCount)

	content := string(doc.Content)
	assert.Contains(t, content, "Lighting dominates this month.")
	assert.Contains(t, content, "Lamp out on Elm St.")
	// report 2 has no AI digest, so its description is used
	assert.Contains(t, content, "Residents report problem 2")
}

func TestGenerateAggregateRequiresTriageRole(t *testing.T) {
	g := newTestGenerator(&mockStore{reports: sampleReports(2)}, nil)

	_, err := g.GenerateAggregate(context.Background(), citizen)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGenerateAggregatePaginates(t *testing.T) {
	reports := sampleReports(40)
	for i := range reports {
		reports[i].Description = strings.Repeat("The drainage channel overflows after every storm. ", 6)
	}
	g := newTestGenerator(&mockStore{reports: reports}, nil)

	doc, err := g.GenerateAggregate(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 40, doc.ReportCount)

	content := string(doc.Content)
	assert.Equal(t, 40, strings.Count(content, "(Report #"))
	assert.Contains(t, content, "Page 2 of ")
	assertFooters(t, content)
	assert.NotContains(t, content, "{nb}")
}
