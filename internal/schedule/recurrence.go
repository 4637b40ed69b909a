package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/practice-agenda/backend/internal/storage/models"
)

// DefaultMaxOccurrences caps a single weekly expansion when the caller does
// not configure its own limit.
const DefaultMaxOccurrences = 365

// ErrNoOccurrences is returned when a non-empty weekday set produced no
// occurrences, e.g. the until date lies before the start date.
var ErrNoOccurrences = errors.New("schedule: recurrence produced no occurrences")

// ConflictError aborts an expansion: one generated occurrence would overlap
// an existing event (or an occurrence accepted earlier in the same pass).
type ConflictError struct {
	Event models.Event // the conflicting event
	Date  string       // YYYY-MM-DD of the rejected occurrence
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schedule: occurrence on %s conflicts with event %s", e.Date, e.Event.ID)
}

// CapError aborts an expansion that would exceed the occurrence cap.
type CapError struct {
	Cap int
}

func (e *CapError) Error() string {
	return fmt.Sprintf("schedule: recurrence exceeds %d occurrences", e.Cap)
}

// ValidateRule checks a weekly rule's shape before expansion.
func ValidateRule(rule models.WeeklyRule) error {
	if rule.Kind != "" && rule.Kind != "weekly" {
		return fmt.Errorf("schedule: unsupported recurrence kind %q", rule.Kind)
	}
	seen := make(map[int]bool, len(rule.Weekdays))
	for _, wd := range rule.Weekdays {
		if wd < 0 || wd > 6 {
			return fmt.Errorf("schedule: weekday %d out of range", wd)
		}
		if seen[wd] {
			return fmt.Errorf("schedule: duplicate weekday %d", wd)
		}
		seen[wd] = true
	}
	if !ValidDate(rule.StartDate) || !ValidDate(rule.UntilDate) {
		return fmt.Errorf("schedule: malformed rule dates %q..%q", rule.StartDate, rule.UntilDate)
	}
	if !ValidClock(rule.StartTime) || !ValidClock(rule.EndTime) {
		return fmt.Errorf("schedule: malformed rule times %q-%q", rule.StartTime, rule.EndTime)
	}
	return nil
}

// ExpandWeekly materializes every occurrence of a weekly rule between
// rule.StartDate and rule.UntilDate inclusive.
//
// Expansion is all-or-nothing: the first conflicting occurrence aborts the
// whole pass with a ConflictError and no partial series is returned. Each
// occurrence is conflict-checked against existing events plus the
// occurrences already accepted in this pass, so a malformed rule cannot
// overlap itself. Days whose key appears in exceptions are skipped without
// being checked. Exceeding maxOccurrences aborts with a CapError.
//
// The walk steps over calendar dates, not instants, so daylight-saving
// transitions cannot skip or duplicate a day. Apart from newID the result is
// fully deterministic and ordered by date ascending.
func (c *Clock) ExpandWeekly(
	base models.Event,
	seriesID string,
	rule models.WeeklyRule,
	existing []models.Event,
	exceptions map[string]struct{},
	newID func() string,
	maxOccurrences int,
) ([]models.Event, error) {
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	if len(rule.Weekdays) == 0 {
		// Caller decides whether an empty weekday set is worth surfacing.
		return []models.Event{}, nil
	}
	if maxOccurrences <= 0 {
		maxOccurrences = DefaultMaxOccurrences
	}

	wanted := make(map[time.Weekday]bool, len(rule.Weekdays))
	for _, wd := range rule.Weekdays {
		wanted[time.Weekday(wd)] = true
	}

	// UTC carriers hold the calendar date only; UTC has no DST so AddDate
	// walks exactly one civil day at a time.
	day := dateCarrier(rule.StartDate)
	until := dateCarrier(rule.UntilDate)

	ruleCopy := rule
	generated := make([]models.Event, 0)

	for ; !day.After(until); day = day.AddDate(0, 0, 1) {
		if !wanted[day.Weekday()] {
			continue
		}
		dateStr := FormatDay(day)
		if _, skipped := exceptions[dateStr]; skipped {
			continue
		}

		candidate := Candidate{
			Start: c.Stamp(dateStr, rule.StartTime),
			End:   c.Stamp(dateStr, rule.EndTime),
		}

		pool := make([]models.Event, 0, len(existing)+len(generated))
		pool = append(pool, existing...)
		pool = append(pool, generated...)
		if conflict := c.FindConflict(candidate, pool, ""); conflict != nil {
			return nil, &ConflictError{Event: *conflict, Date: dateStr}
		}

		if len(generated) == maxOccurrences {
			return nil, &CapError{Cap: maxOccurrences}
		}

		occ := base
		occ.ID = newID()
		occ.Start = candidate.Start
		occ.End = candidate.End
		occ.SeriesID = seriesID
		occ.Rule = &ruleCopy
		occ.IsOverride = false
		occ.Pending = false
		generated = append(generated, occ)
	}

	if len(generated) == 0 {
		return nil, ErrNoOccurrences
	}
	return generated, nil
}

// dateCarrier parses "YYYY-MM-DD" into a midnight-UTC value used purely for
// calendar-date iteration.
func dateCarrier(s string) time.Time {
	y, m, d := splitDate(s)
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
