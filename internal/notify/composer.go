package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util"
)

//go:embed templates
var templateFS embed.FS

const statusTemplate = "templates/statusUpdate.tmpl"

var (
	textTmpl = texttemplate.Must(texttemplate.New("statusUpdate").
			Funcs(texttemplate.FuncMap(util.TemplateFuncs)).
			ParseFS(templateFS, statusTemplate))

	htmlTmpl = htmltemplate.Must(htmltemplate.New("statusUpdate").
			Funcs(util.TemplateFuncs).
			ParseFS(templateFS, statusTemplate))
)

const fallbackExplanation = "Your report status has been updated. Please check the report details for more information."

// Explanation returns the reporter-facing description of a status. Unknown
// values get a generic sentence.
func Explanation(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "Your report has been received and is awaiting review by our municipal team. We will assess the issue and take appropriate action soon."
	case model.StatusInProgress:
		return "Great news! Our team is actively working on resolving this issue. We appreciate your patience as we address your concern."
	case model.StatusResolved:
		return "Excellent! The issue reported has been successfully resolved. Thank you for bringing this to our attention and helping improve our community."
	case model.StatusRejected:
		return "After careful review, we were unable to proceed with this report. This may be due to insufficient information, duplication, or the issue being outside our jurisdiction. Please feel free to submit additional details if needed."
	case model.StatusClosed:
		return "This report has been closed. If you believe this issue requires further attention, please submit a new report with updated information."
	default:
		return fallbackExplanation
	}
}

type ComposeData struct {
	ReportID     int64
	ReportTitle  string
	OldStatus    model.Status
	NewStatus    model.Status
	ReporterName string
	AppURL       string
}

type Email struct {
	Subject string
	HTML    string
	Text    string
}

type templateData struct {
	ReportID     int64
	ReportTitle  string
	ReporterName string
	OldLabel     string
	NewLabel     string
	OldColor     htmltemplate.CSS
	NewColor     htmltemplate.CSS
	Explanation  string
	ReportURL    string
}

// Compose renders the status change email. It does no I/O and always
// returns a usable message.
func Compose(d ComposeData) Email {
	data := templateData{
		ReportID:     d.ReportID,
		ReportTitle:  d.ReportTitle,
		ReporterName: d.ReporterName,
		OldLabel:     d.OldStatus.Label(),
		NewLabel:     d.NewStatus.Label(),
		OldColor:     htmltemplate.CSS(d.OldStatus.Color()),
		NewColor:     htmltemplate.CSS(d.NewStatus.Color()),
		Explanation:  Explanation(d.NewStatus),
		ReportURL:    fmt.Sprintf("%s/reports/%d", strings.TrimRight(d.AppURL, "/"), d.ReportID),
	}

	subject, errS := executeText("subject", data)
	text, errT := executeText("plainBody", data)
	html, errH := executeHTML(data)
	if errS != nil || errT != nil {
		subject = "Report Status Update: " + d.ReportTitle
		text = plainFallback(data)
	}
	if errH != nil {
		html = ""
	}

	return Email{
		Subject: strings.TrimSpace(subject),
		HTML:    html,
		Text:    text,
	}
}

func executeText(name string, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := textTmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func executeHTML(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.ExecuteTemplate(&buf, "htmlBody", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func plainFallback(d templateData) string {
	return fmt.Sprintf("Hello %s,\n\nYour report %q (ID: #%d) changed from %s to %s.\n\n%s\n\nView your report at: %s\n\n- CivicCircle Team\n",
		d.ReporterName, d.ReportTitle, d.ReportID, d.OldLabel, d.NewLabel, d.Explanation, d.ReportURL)
}
