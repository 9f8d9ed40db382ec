package rest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/internal/summary"
	"github.com/bwise1/civic_circle/util"
	"github.com/go-chi/chi/v5"
)

func (api *API) SummaryRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Use(RateLimit(api.Config.RateLimit, api.Config.RateLimitPeriod))

		r.With(RequireRole(model.RoleAdmin, model.RoleSuperadmin)).
			Method(http.MethodPost, "/", JSONHandler(api.AggregateSummary))
		r.Get("/report", api.ReportSummary)
	})

	return mux
}

// AggregateSummary renders every stored report into one PDF returned as a
// data URI.
func (api *API) AggregateSummary(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	actor, err := util.GetActorFromContext(r.Context())
	if err != nil {
		return http.StatusUnauthorized, errorBody{Error: "Unauthorized"}
	}

	doc, err := api.Summaries.GenerateAggregate(r.Context(), actor)
	if err != nil {
		return summaryFailure(r, err)
	}

	loggerFor(r).WithField("report_count", doc.ReportCount).WithField("source", doc.Source).Info("aggregate summary generated")
	return http.StatusOK, model.AggregateSummaryResponse{
		Success:     true,
		PDF:         "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(doc.Content),
		ReportCount: doc.ReportCount,
		GeneratedAt: doc.GeneratedAt,
	}
}

// ReportSummary streams the PDF summary of one report as an attachment.
func (api *API) ReportSummary(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("reportId")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reportId is required"})
		return
	}
	id, err := util.ParseReportID(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "reportId must be a positive integer"})
		return
	}

	actor, err := util.GetActorFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}

	doc, err := api.Summaries.GenerateSingle(r.Context(), actor, id)
	if err != nil {
		code, body := summaryFailure(r, err)
		writeJSON(w, code, body)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Content)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(doc.Content); err != nil {
		loggerFor(r).WithError(err).Warn("unable to write summary pdf")
	}
}

func summaryFailure(r *http.Request, err error) (int, interface{}) {
	switch {
	case errors.Is(err, summary.ErrEmptySet):
		return http.StatusNotFound, errorBody{Error: "No reports found"}
	case errors.Is(err, summary.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "Report not found"}
	case errors.Is(err, summary.ErrForbidden):
		return http.StatusForbidden, errorBody{Error: "You are not allowed to generate this summary"}
	default:
		loggerFor(r).WithError(err).Error("summary generation failed")
		return http.StatusBadGateway, errorBody{Error: "Failed to generate summary, please try again"}
	}
}
