// Package report builds financial summaries over surgery events.
package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage/models"
)

// Status filter values. StatusAll includes both payment states.
const (
	StatusAll     = "all"
	StatusPending = models.PayStatusPending
	StatusPaid    = models.PayStatusPaid
)

// Filter selects which surgeries enter a report. It is passed explicitly on
// every call; the report layer keeps no filter state of its own.
type Filter struct {
	Year   int
	Month  int // 1-12
	Status string
}

// Validate checks the filter's shape.
func (f Filter) Validate() error {
	if f.Year < 1 || f.Month < 1 || f.Month > 12 {
		return fmt.Errorf("report: invalid period %d-%d", f.Year, f.Month)
	}
	switch f.Status {
	case StatusAll, StatusPending, StatusPaid:
		return nil
	}
	return fmt.Errorf("report: invalid status %q", f.Status)
}

func (f Filter) monthKey() string {
	return fmt.Sprintf("%04d-%02d", f.Year, f.Month)
}

// Line is one surgery entry of the report.
type Line struct {
	EventID   string          `json:"event_id"`
	Date      string          `json:"date"` // local YYYY-MM-DD
	Title     string          `json:"title,omitempty"`
	Location  string          `json:"location,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	PayStatus string          `json:"pay_status"`
}

// Summary is the monthly surgery report.
type Summary struct {
	Period     string          `json:"period"` // YYYY-MM
	Status     string          `json:"status"`
	Lines      []Line          `json:"lines"`
	Receivable decimal.Decimal `json:"receivable"`
	Received   decimal.Decimal `json:"received"`
}

// Summarize builds the surgery report for one month. Events that are not
// surgeries, carry no billing info, have unparseable timestamps or fall
// outside the month are skipped. Lines are ordered by date descending, the
// order the finance screen shows them in.
func Summarize(events []models.Event, filter Filter, clock *schedule.Clock) (*Summary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	summary := &Summary{
		Period:     filter.monthKey(),
		Status:     filter.Status,
		Lines:      []Line{},
		Receivable: decimal.Zero,
		Received:   decimal.Zero,
	}

	for _, e := range events {
		if e.Type != models.EventTypeSurgery || e.Surgery == nil {
			continue
		}
		start, ok := clock.ParseStamp(e.Start)
		if !ok {
			continue
		}
		day := clock.DayKey(start)
		if day[:7] != summary.Period {
			continue
		}

		// Totals always cover the whole month regardless of the status
		// filter, so the two cards stay consistent with each other.
		switch e.Surgery.PayStatus {
		case models.PayStatusPending:
			summary.Receivable = summary.Receivable.Add(e.Surgery.Amount)
		case models.PayStatusPaid:
			summary.Received = summary.Received.Add(e.Surgery.Amount)
		}

		if filter.Status != StatusAll && e.Surgery.PayStatus != filter.Status {
			continue
		}
		summary.Lines = append(summary.Lines, Line{
			EventID:   e.ID,
			Date:      day,
			Title:     e.Title,
			Location:  e.Location,
			Amount:    e.Surgery.Amount,
			PayStatus: e.Surgery.PayStatus,
		})
	}

	sort.SliceStable(summary.Lines, func(i, j int) bool {
		return summary.Lines[i].Date > summary.Lines[j].Date
	})
	return summary, nil
}
