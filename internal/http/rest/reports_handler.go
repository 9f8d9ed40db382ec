package rest

import (
	"errors"
	"net/http"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

func (api *API) ReportRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/", Handler(api.ListReports))
	mux.Method(http.MethodGet, "/categories", Handler(api.ListCategories))
	mux.Method(http.MethodGet, "/{id}", Handler(api.GetReport))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/", Handler(api.CreateReport))

		r.With(RequireRole(model.RoleAdmin, model.RoleSuperadmin)).
			Method(http.MethodDelete, "/{id}", Handler(api.DeleteReport))
	})

	return mux
}

func (api *API) ListReports(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	page, status, message, err := api.ListReportsHelper(r.Context(), r.URL.Query())
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       page,
	}
}

func (api *API) ListCategories(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	return &ServerResponse{
		Message:    "Categories retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       api.CategoriesHelper(r.Context()),
	}
}

func (api *API) GetReport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := util.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, "invalid report id", values.BadRequestBody, &tc)
	}

	report, err := api.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			return respondWithError(err, "report not found", values.NotFound, &tc)
		}
		return respondWithError(err, "unable to load report, please try again", values.Upstream, &tc)
	}

	return &ServerResponse{
		Message:    "Report retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       report,
	}
}

func (api *API) CreateReport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.CreateReportRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	actor, err := util.GetActorFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user from context", values.NotAuthorised, &tc)
	}

	report, status, message, err := api.CreateReportHelper(r.Context(), actor, req)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return respondWithFieldErrors(err, &tc)
		}
		resp := respondWithError(err, message, status, &tc)
		if fields := storeFieldErrors(err); fields != nil {
			resp.Data = fields
		}
		return resp
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       report,
	}
}

func (api *API) DeleteReport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := util.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, "invalid report id", values.BadRequestBody, &tc)
	}

	if err := api.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrReportNotFound) {
			return respondWithError(err, "report not found", values.NotFound, &tc)
		}
		return respondWithError(err, "unable to delete report, please try again", values.Upstream, &tc)
	}

	return &ServerResponse{
		Message:    "Report deleted successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
	}
}
