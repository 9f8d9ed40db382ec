package rest

import (
	"errors"
	"net/http"

	"github.com/bwise1/civic_circle/internal/http/reportstore"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/internal/status"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) AdminRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(model.RoleAdmin, model.RoleSuperadmin))
			r.Method(http.MethodPut, "/reports/{id}/status", Handler(api.UpdateReportStatus))
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireRole(model.RoleSuperadmin))
			r.Method(http.MethodGet, "/users", Handler(api.ListUsers))
			r.Method(http.MethodPut, "/users/{id}/role", Handler(api.UpdateUserRole))
		})
	})

	return mux
}

func (api *API) UpdateReportStatus(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := util.ParseReportID(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, "invalid report id", values.BadRequestBody, &tc)
	}

	var req model.UpdateStatusRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	if err := util.ValidateStruct(req); err != nil {
		return respondWithFieldErrors(err, &tc)
	}

	actor, err := util.GetActorFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user from context", values.NotAuthorised, &tc)
	}

	result, err := api.Invoker.UpdateStatus(r.Context(), actor, id, req.Status)
	if err != nil {
		st, msg := statusUpdateError(err)
		return respondWithError(err, msg, st, &tc)
	}

	message := "Report status updated"
	if !result.Changed {
		message = "Report already has this status"
	}
	return &ServerResponse{
		Message:    message,
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       result,
	}
}

func statusUpdateError(err error) (string, string) {
	var verr *reportstore.ValidationError
	switch {
	case errors.Is(err, status.ErrForbidden):
		return values.NotAllowed, "you are not allowed to change report status"
	case errors.Is(err, status.ErrInvalidStatus), errors.As(err, &verr):
		return values.BadRequestBody, "invalid status"
	case errors.Is(err, model.ErrReportNotFound):
		return values.NotFound, "report not found"
	default:
		return values.Upstream, "failed to update report status, please try again"
	}
}
