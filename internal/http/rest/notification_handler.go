package rest

import (
	"net/http"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/internal/notify"
	"github.com/bwise1/civic_circle/util"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/go-chi/chi/v5"
)

type notificationBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Warning bool   `json:"warning,omitempty"`
}

func (api *API) NotificationRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Use(RequireRole(model.RoleAdmin, model.RoleSuperadmin))
		r.Use(RateLimit(api.Config.RateLimit, api.Config.RateLimitPeriod))
		r.Method(http.MethodPost, "/status-email", JSONHandler(api.SendStatusEmail))
	})

	return mux
}

// SendStatusEmail delivers one status change email on demand.
func (api *API) SendStatusEmail(_ http.ResponseWriter, r *http.Request) (int, interface{}) {
	tc := tracing.FromContext(r.Context())

	var req model.StatusEmailRequest
	if err := util.DecodeJSONBody(&tc, r.Body, &req); err != nil {
		return http.StatusBadRequest, errorBody{Error: "Missing required fields"}
	}
	if err := util.ValidateStruct(req); err != nil {
		fields := util.FieldErrors(err)
		if msg, ok := fields["reporterEmail"]; ok && req.ReporterEmail != "" && len(fields) == 1 {
			return http.StatusBadRequest, errorBody{Error: "reporterEmail " + msg}
		}
		return http.StatusBadRequest, errorBody{Error: "Missing required fields"}
	}

	outcome, err := api.Notifier.Notify(r.Context(), notify.Request{
		ReportID:      req.ReportID,
		ReportTitle:   req.ReportTitle,
		OldStatus:     req.OldStatus,
		NewStatus:     req.NewStatus,
		ReporterName:  req.ReporterName,
		ReporterEmail: req.ReporterEmail,
	})

	log := loggerFor(r).WithField("report_id", req.ReportID).WithField("outcome", outcome)
	switch outcome {
	case notify.OutcomeSkipped:
		log.Warn("email credentials not configured, notification skipped")
		return http.StatusOK, notificationBody{
			Success: true,
			Message: "Email credentials not configured. Notification skipped.",
			Warning: true,
		}
	case notify.OutcomeSent:
		log.Info("status email sent")
		return http.StatusOK, notificationBody{Success: true, Message: "Email notification sent successfully"}
	default:
		details := "unknown error"
		if err != nil {
			details = err.Error()
		}
		log.WithError(err).Error("status email failed")
		return http.StatusInternalServerError, errorBody{Error: "Failed to send email notification", Details: details}
	}
}
