package model

// StatusEmailRequest is the body of the notification send endpoint. Every
// field is required.
type StatusEmailRequest struct {
	ReportID      int64  `json:"reportId" validate:"required"`
	ReportTitle   string `json:"reportTitle" validate:"required"`
	OldStatus     Status `json:"oldStatus" validate:"required"`
	NewStatus     Status `json:"newStatus" validate:"required"`
	ReporterName  string `json:"reporterName" validate:"required"`
	ReporterEmail string `json:"reporterEmail" validate:"required,email"`
}
