package status

import (
	"context"
	"fmt"
	"time"

	"github.com/bwise1/civic_circle/internal/logger"
	"github.com/bwise1/civic_circle/internal/model"
	"github.com/bwise1/civic_circle/internal/notify"
	"github.com/bwise1/civic_circle/util/tracing"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrForbidden     = errors.New("actor may not change report status")
	ErrInvalidStatus = errors.New("invalid report status")
)

// Store is the part of the Report Store the invoker needs.
type Store interface {
	Get(ctx context.Context, id int64) (model.Report, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) (model.Report, error)
}

type Notifier interface {
	Notify(ctx context.Context, req notify.Request) (notify.Outcome, error)
}

// Broadcaster publishes status changes to live clients.
type Broadcaster interface {
	BroadcastStatusChange(change model.StatusChange)
}

type Result struct {
	Report       model.Report   `json:"report"`
	OldStatus    model.Status   `json:"oldStatus"`
	Changed      bool           `json:"changed"`
	Notification notify.Outcome `json:"notification"`
}

type Invoker struct {
	store    Store
	notifier Notifier
	events   Broadcaster
	now      func() time.Time
}

// NewInvoker wires the invoker. events may be nil.
func NewInvoker(store Store, notifier Notifier, events Broadcaster) *Invoker {
	return &Invoker{
		store:    store,
		notifier: notifier,
		events:   events,
		now:      time.Now,
	}
}

// UpdateStatus changes one report's status and then tries to tell the
// reporter. Only the store update decides the returned error; the
// notification outcome is reported in Result.
func (i *Invoker) UpdateStatus(ctx context.Context, actor model.Actor, reportID int64, newStatus model.Status) (Result, error) {
	if !actor.Role.CanTriage() {
		return Result{}, ErrForbidden
	}
	if !newStatus.IsValid() {
		return Result{}, errors.Wrapf(ErrInvalidStatus, "%q", newStatus)
	}

	current, err := i.store.Get(ctx, reportID)
	if err != nil {
		return Result{}, errors.Wrapf(err, "loading report %d", reportID)
	}

	if current.Status == newStatus {
		return Result{
			Report:       current,
			OldStatus:    current.Status,
			Changed:      false,
			Notification: notify.OutcomeNone,
		}, nil
	}

	updated, err := i.store.UpdateStatus(ctx, reportID, newStatus)
	if err != nil {
		return Result{}, errors.Wrapf(err, "updating status of report %d", reportID)
	}

	change := model.StatusChange{
		ReportID:  reportID,
		Title:     current.Title,
		OldStatus: current.Status,
		NewStatus: newStatus,
		Reporter:  current.CreatedBy,
		Email:     current.Email,
		At:        i.now(),
	}

	log := logger.WithTracing(tracing.FromContext(ctx)).WithFields(logrus.Fields{
		"report_id":  reportID,
		"old_status": change.OldStatus,
		"new_status": change.NewStatus,
		"actor":      actor.Email,
	})
	log.Info("report status updated")

	outcome := i.notify(ctx, change, log)
	i.broadcast(change, log)

	return Result{
		Report:       updated,
		OldStatus:    current.Status,
		Changed:      true,
		Notification: outcome,
	}, nil
}

// notify runs in its own error boundary: failures and panics are logged and
// never reach the caller.
func (i *Invoker) notify(ctx context.Context, change model.StatusChange, log *logrus.Entry) (outcome notify.Outcome) {
	if i.notifier == nil || change.Email == "" {
		return notify.OutcomeNone
	}

	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", fmt.Sprint(p)).Error("status notification panicked")
			outcome = notify.OutcomeFailed
		}
	}()

	outcome, err := i.notifier.Notify(ctx, notify.RequestFromChange(change))
	switch {
	case err != nil:
		log.WithError(err).Warn("status notification failed")
	case outcome == notify.OutcomeSkipped:
		log.Warn("email credentials not configured, status notification skipped")
	}
	return outcome
}

func (i *Invoker) broadcast(change model.StatusChange, log *logrus.Entry) {
	if i.events == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", fmt.Sprint(p)).Error("status broadcast panicked")
		}
	}()
	i.events.BroadcastStatusChange(change)
}
