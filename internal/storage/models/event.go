package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event type constants - drive form fields and recurrence eligibility.
// Only office events may recur.
const (
	EventTypeOffice   = "office"
	EventTypeSurgery  = "surgery"
	EventTypePersonal = "personal"
)

// Payment status constants for surgery events.
const (
	PayStatusPending = "pending"
	PayStatusPaid    = "paid"
)

// SurgeryInfo holds the billing detail attached to surgery events.
type SurgeryInfo struct {
	Amount    decimal.Decimal `json:"amount"`
	PayStatus string          `json:"pay_status"`
}

// WeeklyRule describes a weekly recurrence: the event repeats on each
// selected weekday (0=Sunday..6=Saturday) between StartDate and UntilDate
// inclusive, at StartTime-EndTime local wall clock.
type WeeklyRule struct {
	Kind      string `json:"kind"` // always "weekly"
	Weekdays  []int  `json:"weekdays"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	UntilDate string `json:"until_date"` // YYYY-MM-DD, inclusive
	StartTime string `json:"start_time"` // HH:MM
	EndTime   string `json:"end_time"`   // HH:MM
}

// Event represents one agenda entry.
//
// Start and End are stored as timestamp strings rather than time.Time because
// historical rows carry two encodings: bare local stamps
// ("2006-01-02T15:04:05", interpreted in the practice's wall clock) and
// offset/UTC RFC3339 stamps. schedule.Clock resolves both.
type Event struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Start string `json:"start"`
	End   string `json:"end"`

	Title    string `json:"title,omitempty"`
	Location string `json:"location,omitempty"`
	Notes    string `json:"notes,omitempty"`

	Surgery *SurgeryInfo `json:"surgery,omitempty"`

	SeriesID   string      `json:"series_id,omitempty"`
	Rule       *WeeklyRule `json:"rule,omitempty"`
	IsOverride bool        `json:"is_override"`

	// Pending marks a client-side placeholder that has not been persisted
	// yet. Pending events still count as conflict obstacles; they are only
	// ever skipped via an explicit exclude id.
	Pending bool `json:"pending,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ValidType reports whether t is one of the closed event type set.
func ValidType(t string) bool {
	switch t {
	case EventTypeOffice, EventTypeSurgery, EventTypePersonal:
		return true
	}
	return false
}

// CanRecur reports whether events of this type may carry a weekly rule.
func (e *Event) CanRecur() bool {
	return e.Type == EventTypeOffice
}

// InSeries reports whether the event belongs to a recurrence series and is
// still managed by it (overrides are detached from regeneration).
func (e *Event) InSeries() bool {
	return e.SeriesID != "" && !e.IsOverride
}
