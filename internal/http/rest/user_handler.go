package rest

import (
	"errors"
	"net/http"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) UserRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Route("/", func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodGet, "/me", Handler(api.GetProfile))
	})

	return mux
}

func (api *API) GetProfile(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	actor, err := util.GetActorFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user from context", values.NotAuthorised, &tc)
	}

	user, err := api.Users.GetUserByID(r.Context(), actor.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return respondWithError(err, "user not found", values.NotFound, &tc)
		}
		return respondWithError(err, "failed to get user profile", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "User profile retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       user,
	}
}

func (api *API) ListUsers(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	users, err := api.Users.ListUsers(r.Context())
	if err != nil {
		return respondWithError(err, "failed to list users", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Users retrieved successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       users,
	}
}

func (api *API) UpdateUserRole(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	id, err := util.StringToUUID(chi.URLParam(r, "id"))
	if err != nil {
		return respondWithError(err, "invalid user id", values.BadRequestBody, &tc)
	}

	var req model.UpdateRoleRequest
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
	if actor.UserID == id && req.Role != model.RoleSuperadmin {
		return respondWithError(nil, "you cannot remove your own superadmin role", values.NotAllowed, &tc)
	}

	user, err := api.Users.UpdateUserRole(r.Context(), id, req.Role)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return respondWithError(err, "user not found", values.NotFound, &tc)
		}
		return respondWithError(err, "failed to update role", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Role updated successfully",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       user,
	}
}
