package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/practice-agenda/backend/internal/api/middleware"
	"github.com/practice-agenda/backend/internal/report"
	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage"
)

// reportFilter builds the finance filter from query parameters, defaulting to
// the current month on the practice's wall clock and to both payment states.
func reportFilter(r *http.Request, clock *schedule.Clock) (report.Filter, error) {
	now := time.Now().In(clock.Location())
	filter := report.Filter{
		Year:   now.Year(),
		Month:  int(now.Month()),
		Status: report.StatusAll,
	}

	q := r.URL.Query()
	if raw := q.Get("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid year %q", raw)
		}
		filter.Year = year
	}
	if raw := q.Get("month"); raw != "" {
		month, err := strconv.Atoi(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid month %q", raw)
		}
		filter.Month = month
	}
	if raw := q.Get("status"); raw != "" {
		filter.Status = raw
	}

	return filter, filter.Validate()
}

// FinanceReport returns the monthly surgery summary as JSON.
func FinanceReport(events *storage.EventRepository, clock *schedule.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r, clock)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		all, err := events.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load events")
			return
		}

		summary, err := report.Summarize(all, filter, clock)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(summary)
	}
}

// FinanceExport streams the monthly surgery summary as an XLSX attachment.
func FinanceExport(events *storage.EventRepository, clock *schedule.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := reportFilter(r, clock)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		all, err := events.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load events")
			return
		}

		summary, err := report.Summarize(all, filter, clock)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		// Render to memory first so a failure can still produce a clean
		// error response instead of a truncated attachment.
		var buf bytes.Buffer
		if err := report.WriteXLSX(&buf, summary); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to render spreadsheet")
			return
		}

		filename := fmt.Sprintf("surgeries-%s.xlsx", summary.Period)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write(buf.Bytes())
	}
}
