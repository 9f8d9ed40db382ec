package notify

import (
	"context"

	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/util/email"
	"github.com/pkg/errors"
)

type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	// OutcomeNone means no delivery was attempted, e.g. the report has no
	// contact address.
	OutcomeNone Outcome = "none"
)

// Sender delivers one composed message. *email.Mailer implements it.
type Sender interface {
	Configured() bool
	Send(msg email.Message) error
}

type Request struct {
	ReportID      int64
	ReportTitle   string
	OldStatus     model.Status
	NewStatus     model.Status
	ReporterName  string
	ReporterEmail string
}

func RequestFromChange(c model.StatusChange) Request {
	return Request{
		ReportID:      c.ReportID,
		ReportTitle:   c.Title,
		OldStatus:     c.OldStatus,
		NewStatus:     c.NewStatus,
		ReporterName:  c.Reporter,
		ReporterEmail: c.Email,
	}
}

type Notifier struct {
	sender Sender
	appURL string
}

func NewNotifier(sender Sender, appURL string) *Notifier {
	return &Notifier{sender: sender, appURL: appURL}
}

// Notify composes and delivers a status change email. Missing credentials
// yield OutcomeSkipped without touching the network; a relay failure yields
// OutcomeFailed and the error. There is exactly one attempt.
func (n *Notifier) Notify(ctx context.Context, req Request) (Outcome, error) {
	if n.sender == nil || !n.sender.Configured() {
		return OutcomeSkipped, nil
	}
	if err := ctx.Err(); err != nil {
		return OutcomeFailed, err
	}

	msg := Compose(ComposeData{
		ReportID:     req.ReportID,
		ReportTitle:  req.ReportTitle,
		OldStatus:    req.OldStatus,
		NewStatus:    req.NewStatus,
		ReporterName: req.ReporterName,
		AppURL:       n.appURL,
	})

	err := n.sender.Send(email.Message{
		To:       req.ReporterEmail,
		Subject:  msg.Subject,
		TextBody: msg.Text,
		HTMLBody: msg.HTML,
	})
	if err != nil {
		return OutcomeFailed, errors.Wrapf(err, "sending status email for report %d", req.ReportID)
	}
	return OutcomeSent, nil
}
