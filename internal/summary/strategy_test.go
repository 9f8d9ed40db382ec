package summary

import (
	"context"
	"testing"
	"time"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    string
		wantErr bool
	}{
		{name: "bare", text: `{"overview":"ok"}`, want: "ok"},
		{name: "prose around object", text: "Sure! Here it is:\n{\"overview\":\"wrapped\"}\nHope this helps.", want: "wrapped"},
		{name: "fenced", text: "```json\n{\"overview\":\"fenced\"}\n```", want: "fenced"},
		{name: "fenced with trailing brace text", text: "```\n{\"overview\":\"second\"}\n```\nuse {braces} carefully", want: "second"},
		{name: "no json", text: "I cannot produce that.", wantErr: true},
		{name: "broken json", text: `{"overview": "unterminated`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a model.AggregateAnalysis
			err := parseJSON(tt.text, &a)
			if tt.wantErr {
				assert.ErrorIs(t, err, errNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Overview)
		})
	}
}

func TestRemoteStrategyRejectsIncompleteReply(t *testing.T) {
	s := NewRemoteStrategy(&mockText{reply: `{"keyFindings":["x"]}`})

	_, err := s.Single(context.Background(), sampleReports(1)[0])
	assert.ErrorIs(t, err, errIncomplete)

	_, err = s.Aggregate(context.Background(), sampleReports(2))
	assert.ErrorIs(t, err, errIncomplete)
}

func TestLocalSingle(t *testing.T) {
	r := model.Report{
		ID:        3,
		Title:     "Broken streetlight",
		Category:  "Street Lighting",
		Priority:  model.PriorityHigh,
		Status:    model.StatusInProgress,
		CreatedAt: time.Date(2025, 2, 14, 8, 0, 0, 0, time.UTC),
	}

	a, err := LocalStrategy{}.Single(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, `This street lighting report titled "Broken streetlight" requires attention from local authorities.`, a.ExecutiveSummary)
	assert.Equal(t, []string{
		"Report is currently in progress",
		"Submitted on February 14, 2025",
		"Priority level: High",
	}, a.KeyFindings)
	assert.Equal(t, "Medium", a.UrgencyAssessment)
	assert.NotEmpty(t, a.RecommendedActions)
	assert.NotEmpty(t, a.NextSteps)
}

func TestLocalUrgency(t *testing.T) {
	assert.Equal(t, "High", urgency(model.PriorityUrgent))
	assert.Equal(t, "Medium", urgency(model.PriorityHigh))
	assert.Equal(t, "Low", urgency(model.PriorityMedium))
	assert.Equal(t, "Low", urgency(model.PriorityLow))
}

func TestLocalAggregate(t *testing.T) {
	reports := []model.Report{
		{ID: 1, Title: "Pothole", Category: "Road & Infrastructure", Priority: model.PriorityUrgent, Status: model.StatusPending, Description: "Deep hole"},
		{ID: 2, Title: "Graffiti", Category: "Graffiti", Priority: model.PriorityLow, Status: model.StatusResolved, Description: "Tags on wall"},
		{ID: 3, Title: "Crack", Category: "Road & Infrastructure", Priority: model.PriorityMedium, Status: model.StatusInProgress, Description: "Long crack"},
	}

	a, err := LocalStrategy{}.Aggregate(context.Background(), reports)
	require.NoError(t, err)

	assert.Equal(t, "Total reports: 3", a.KeyStatistics[0])
	assert.Contains(t, a.KeyStatistics, "Pending: 1")
	assert.Contains(t, a.KeyStatistics, "Urgent priority: 1")
	assert.Equal(t, []string{"#1 Pothole (Urgent priority, Pending)"}, a.CriticalIssues)
	assert.Equal(t, []string{
		"Road & Infrastructure: 2 report(s)",
		"Graffiti: 1 report(s)",
	}, a.CategoryAnalysis)
	assert.Contains(t, a.Overview, "3 community reports across 2 categories")
	assert.Contains(t, a.Overview, "2 remain open")
	assert.Len(t, a.ReportSummaries, 3)
	assert.Equal(t, model.ReportDigest{ID: 2, Summary: "Tags on wall"}, a.ReportSummaries[1])
}
