package summary

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/pkg/errors"
)

// Strategy turns report data into structured summary content.
type Strategy interface {
	Single(ctx context.Context, report model.Report) (model.ReportAnalysis, error)
	Aggregate(ctx context.Context, reports []model.Report) (model.AggregateAnalysis, error)
}

// TextGenerator is a remote text generation service.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

var (
	errNoJSON     = errors.New("response contains no JSON object")
	errIncomplete = errors.New("response is missing required fields")
)

// RemoteStrategy asks a TextGenerator for JSON and parses it.
type RemoteStrategy struct {
	gen TextGenerator
}

func NewRemoteStrategy(gen TextGenerator) *RemoteStrategy {
	return &RemoteStrategy{gen: gen}
}

func (s *RemoteStrategy) Single(ctx context.Context, report model.Report) (model.ReportAnalysis, error) {
	text, err := s.gen.Generate(ctx, singlePrompt(report))
	if err != nil {
		return model.ReportAnalysis{}, err
	}

	var a model.ReportAnalysis
	if err := parseJSON(text, &a); err != nil {
		return model.ReportAnalysis{}, err
	}
	if strings.TrimSpace(a.ExecutiveSummary) == "" {
		return model.ReportAnalysis{}, errIncomplete
	}
	return a, nil
}

func (s *RemoteStrategy) Aggregate(ctx context.Context, reports []model.Report) (model.AggregateAnalysis, error) {
	text, err := s.gen.Generate(ctx, aggregatePrompt(reports))
	if err != nil {
		return model.AggregateAnalysis{}, err
	}

	var a model.AggregateAnalysis
	if err := parseJSON(text, &a); err != nil {
		return model.AggregateAnalysis{}, err
	}
	if strings.TrimSpace(a.Overview) == "" {
		return model.AggregateAnalysis{}, errIncomplete
	}
	return a, nil
}

var rgxFenced = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// parseJSON decodes the outermost {...} in text, then tries a fenced code
// block. Models often wrap JSON in prose or markdown.
func parseJSON(text string, out interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), out); err == nil {
			return nil
		}
	}

	if m := rgxFenced.FindStringSubmatch(text); len(m) > 1 {
		if err := json.Unmarshal([]byte(m[1]), out); err == nil {
			return nil
		}
	}
	return errNoJSON
}
