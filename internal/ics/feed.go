// Package ics renders the agenda as an iCalendar feed so the practitioner
// can subscribe from a phone calendar.
package ics

import (
	ical "github.com/arran4/golang-ical"

	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage/models"
)

const prodID = "-//practice-agenda//agenda feed//EN"

// Feed serializes events into a VCALENDAR document. Events with unparseable
// timestamps are left out of the feed rather than failing it.
func Feed(events []models.Event, clock *schedule.Clock) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(prodID)

	for _, e := range events {
		start, ok := clock.ParseStamp(e.Start)
		if !ok {
			continue
		}
		end, ok := clock.ParseStamp(e.End)
		if !ok {
			continue
		}

		entry := cal.AddEvent(e.ID)
		entry.SetStartAt(start)
		entry.SetEndAt(end)
		entry.SetSummary(summaryFor(e))
		if e.Location != "" {
			entry.SetLocation(e.Location)
		}
		if e.Notes != "" {
			entry.SetDescription(e.Notes)
		}
		if !e.CreatedAt.IsZero() {
			entry.SetCreatedTime(e.CreatedAt)
		}
		if !e.UpdatedAt.IsZero() {
			entry.SetModifiedAt(e.UpdatedAt)
		}
	}

	return cal.Serialize()
}

func summaryFor(e models.Event) string {
	if e.Title != "" {
		return e.Title
	}
	switch e.Type {
	case models.EventTypeOffice:
		return "Office visit"
	case models.EventTypeSurgery:
		return "Surgery"
	default:
		return "Personal"
	}
}
