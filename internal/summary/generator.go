package summary

import (
	"context"
	"fmt"
	"time"

	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound matches model.ErrReportNotFound with errors.Is.
	ErrNotFound  = model.ErrReportNotFound
	ErrEmptySet  = errors.New("no reports to summarise")
	ErrForbidden = errors.New("actor may not generate this summary")
)

// Store is the read side of the Report Store.
type Store interface {
	Get(ctx context.Context, id int64) (model.Report, error)
	All(ctx context.Context) ([]model.Report, error)
}

// Generator produces PDF summaries. The remote strategy is tried first when
// configured; the local strategy always succeeds.
type Generator struct {
	store    Store
	remote   Strategy
	local    Strategy
	now      func() time.Time
	compress bool
}

// NewGenerator builds a generator. A nil text generator means summaries are
// always synthesized locally.
func NewGenerator(store Store, text TextGenerator) *Generator {
	g := &Generator{
		store:    store,
		local:    LocalStrategy{},
		now:      time.Now,
		compress: true,
	}
	if text != nil {
		g.remote = NewRemoteStrategy(text)
	}
	return g
}

// GenerateSingle summarises one report. Any signed-in actor may ask.
func (g *Generator) GenerateSingle(ctx context.Context, actor model.Actor, reportID int64) (*model.Document, error) {
	if !actor.Role.IsValid() {
		return nil, ErrForbidden
	}

	report, err := g.store.Get(ctx, reportID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading report %d", reportID)
	}

	analysis, source := g.analyseSingle(ctx, report)
	now := g.now()

	content, err := renderSingle(report, analysis, source, now, g.compress)
	if err != nil {
		return nil, errors.Wrap(err, "rendering report summary")
	}

	return &model.Document{
		Filename:    fmt.Sprintf("report-%d-summary.pdf", report.ID),
		Content:     content,
		ReportCount: 1,
		GeneratedAt: now,
		Source:      source,
	}, nil
}

// GenerateAggregate summarises every report in the store. Only admins and
// the superadmin may ask.
func (g *Generator) GenerateAggregate(ctx context.Context, actor model.Actor) (*model.Document, error) {
	if !actor.Role.CanTriage() {
		return nil, ErrForbidden
	}

	reports, err := g.store.All(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading reports")
	}
	if len(reports) == 0 {
		return nil, ErrEmptySet
	}

	analysis, source := g.analyseAggregate(ctx, reports)
	now := g.now()

	content, rendered, err := renderAggregate(reports, analysis, source, now, g.compress)
	if err != nil {
		return nil, errors.Wrap(err, "rendering reports summary")
	}

	return &model.Document{
		Filename:    fmt.Sprintf("community-reports-summary-%s.pdf", now.Format("2006-01-02")),
		Content:     content,
		ReportCount: rendered,
		GeneratedAt: now,
		Source:      source,
	}, nil
}

func (g *Generator) analyseSingle(ctx context.Context, r model.Report) (model.ReportAnalysis, model.SummarySource) {
	if g.remote != nil {
		a, err := g.remote.Single(ctx, r)
		if err == nil {
			return a, model.SourceAI
		}
		logger.WithTracing(tracing.FromContext(ctx)).WithError(err).
			WithField("report_id", r.ID).
			Warn("text generation failed, using local summary")
	}
	a, _ := g.local.Single(ctx, r)
	return a, model.SourceFallback
}

func (g *Generator) analyseAggregate(ctx context.Context, reports []model.Report) (model.AggregateAnalysis, model.SummarySource) {
	if g.remote != nil {
		a, err := g.remote.Aggregate(ctx, reports)
		if err == nil {
			return a, model.SourceAI
		}
		logger.WithTracing(tracing.FromContext(ctx)).WithError(err).
			WithField("report_count", len(reports)).
			Warn("text generation failed, using local summary")
	}
	a, _ := g.local.Aggregate(ctx, reports)
	return a, model.SourceFallback
}
