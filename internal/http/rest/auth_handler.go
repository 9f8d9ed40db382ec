package rest

import (
	"net/http"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) AuthRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodPost, "/google", Handler(api.LoginWithGoogle))
	return mux
}

func (api *API) LoginWithGoogle(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	var req model.GoogleLoginRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}

	resp, status, message, err := api.LoginWithGoogleHelper(r.Context(), req)
	if err != nil || status != values.Success {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       resp,
	}
}
