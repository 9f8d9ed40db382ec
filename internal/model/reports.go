package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var ErrReportNotFound = errors.New("report not found")

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusRejected   Status = "REJECTED"
	StatusClosed     Status = "CLOSED"
)

var AllStatuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected, StatusClosed}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("invalid status %q", s)
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// Label is the display form of the status. Values outside the enum are
// still rendered, with separators turned into spaces.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusRejected:
		return "Rejected"
	case StatusClosed:
		return "Closed"
	default:
		return humanize(string(s))
	}
}

// Color is the hex badge color used in emails and PDFs.
func (s Status) Color() string {
	switch s {
	case StatusPending:
		return "#f59e0b"
	case StatusInProgress:
		return "#3b82f6"
	case StatusResolved:
		return "#10b981"
	case StatusRejected:
		return "#ef4444"
	case StatusClosed:
		return "#6b7280"
	default:
		return "#6b7280"
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var AllPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToUpper(strings.TrimSpace(s)))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority %q", s)
	}
	return p, nil
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func (p Priority) Label() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return humanize(string(p))
	}
}

// IsCritical is true for the priorities that aggregate summaries call out.
func (p Priority) IsCritical() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

type Report struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	Address     string    `json:"address,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	Email       string    `json:"email"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (r Report) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

type CreateReportRequest struct {
	Title       string   `json:"title" validate:"required,notblank,max=255"`
	Description string   `json:"description" validate:"required,notblank,max=2000"`
	Category    string   `json:"category" validate:"required,notblank,max=100"`
	Priority    Priority `json:"priority,omitempty" validate:"omitempty,priority"`
	Address     string   `json:"address,omitempty" validate:"max=500"`
	Latitude    *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	CreatedBy   string   `json:"createdBy" validate:"max=255"`
	Email       string   `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Image       string   `json:"image,omitempty"`
}

// WithDefaults fills the optional enum fields the store would otherwise
// default itself.
func (r CreateReportRequest) WithDefaults() CreateReportRequest {
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Category = strings.TrimSpace(r.Category)
	return r
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required,status"`
}

type ReportPage struct {
	Reports    []Report `json:"reports"`
	TotalCount int64    `json:"totalCount"`
	TotalPages int      `json:"totalPages"`
}

// StatusChange is produced once per successful status update and consumed
// immediately by the notifier and the live feed.
type StatusChange struct {
	ReportID  int64     `json:"reportId"`
	Title     string    `json:"title"`
	OldStatus Status    `json:"oldStatus"`
	NewStatus Status    `json:"newStatus"`
	Reporter  string    `json:"reporter"`
	Email     string    `json:"-"`
	At        time.Time `json:"at"`
}

func humanize(s string) string {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
