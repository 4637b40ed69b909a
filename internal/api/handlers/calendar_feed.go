package handlers

import (
	"net/http"

	"github.com/practice-agenda/backend/internal/api/middleware"
	"github.com/practice-agenda/backend/internal/ics"
	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage"
)

// CalendarFeed serves the agenda as an iCalendar subscription feed.
func CalendarFeed(events *storage.EventRepository, clock *schedule.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		all, err := events.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load events")
			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="agenda.ics"`)
		w.Write([]byte(ics.Feed(all, clock)))
	}
}
