package schedule

import (
	"github.com/practice-agenda/backend/internal/storage/models"
)

// Candidate is an interval proposed for booking, in stored stamp encoding.
type Candidate struct {
	Start string
	End   string
}

// FindConflict returns the first existing event whose interval overlaps the
// candidate, or nil when there is none.
//
// Intervals are half-open: an event ending exactly when the candidate starts
// is not a conflict, so back-to-back appointments are allowed. An event whose
// id equals excludeID (the event currently being edited) is skipped, and
// events with unparseable timestamps are treated as non-comparable rather
// than errors. Pending placeholder events still count as obstacles.
func (c *Clock) FindConflict(candidate Candidate, events []models.Event, excludeID string) *models.Event {
	cStart, okStart := c.ParseStamp(candidate.Start)
	cEnd, okEnd := c.ParseStamp(candidate.End)
	if !okStart || !okEnd {
		return nil
	}
	// Not yet a valid interval; nothing to report.
	if !cEnd.After(cStart) {
		return nil
	}

	for i := range events {
		e := &events[i]
		if excludeID != "" && e.ID == excludeID {
			continue
		}

		eStart, ok := c.ParseStamp(e.Start)
		if !ok {
			continue
		}
		eEnd, ok := c.ParseStamp(e.End)
		if !ok {
			continue
		}

		if cStart.Before(eEnd) && cEnd.After(eStart) {
			found := *e
			return &found
		}
	}

	return nil
}

// Overlaps reports whether two parseable events overlap under the half-open
// rule. Events with unparseable stamps never overlap anything.
func (c *Clock) Overlaps(a, b models.Event) bool {
	return c.FindConflict(Candidate{Start: a.Start, End: a.End}, []models.Event{b}, "") != nil
}
