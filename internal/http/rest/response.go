package rest

import (
	"encoding/json"
	"net/http"

	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/bwise1/civic_circle/util/values"
	"github.com/sirupsen/logrus"
)

// ServerResponse is the envelope returned by every application route.
type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
}

type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	respByte, err := json.Marshal(resp)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

// JSONHandler serves routes whose body is part of an external contract and
// so is written without the envelope. A nil body writes headers only.
type JSONHandler func(w http.ResponseWriter, r *http.Request) (int, interface{})

func (h JSONHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, body := h(w, r)
	writeJSON(w, code, body)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	entry := logger.Log.WithField("status", status)
	if tc != nil {
		entry = logger.WithTracing(*tc).WithField("status", status)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	if util.StatusCode(status) >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Info(message)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

// respondWithFieldErrors returns per-field validation messages in Data.
func respondWithFieldErrors(err error, tc *tracing.Context) *ServerResponse {
	resp := respondWithError(err, "validation failed", values.BadRequestBody, tc)
	resp.Data = util.FieldErrors(err)
	return resp
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		logger.Log.WithError(err).Warn("unable to write response")
	}
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	if err != nil {
		logger.Log.WithError(err).WithField("status", status).Info(message)
	}
	resp := ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
	body, _ := json.Marshal(resp)
	writeJSONResponse(w, body, resp.StatusCode)
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	if v == nil {
		w.WriteHeader(statusCode)
		return
	}
	body, err := json.Marshal(v)
	if err != nil {
		logger.Log.WithError(err).Error("unable to marshal response")
		body, _ = json.Marshal(errorBody{Error: "Internal server error"})
		statusCode = http.StatusInternalServerError
	}
	writeJSONResponse(w, body, statusCode)
}

func loggerFor(r *http.Request) *logrus.Entry {
	return logger.WithTracing(tracing.FromContext(r.Context()))
}
