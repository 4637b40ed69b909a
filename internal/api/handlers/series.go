package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/practice-agenda/backend/internal/api/middleware"
	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/series"
	"github.com/practice-agenda/backend/internal/storage/models"
	"github.com/practice-agenda/backend/internal/websocket"
)

// SeriesRequest is the write body for recurring series: the template event
// plus its weekly rule.
type SeriesRequest struct {
	Event EventRequest      `json:"event"`
	Rule  models.WeeklyRule `json:"rule"`
}

// SeriesResponse carries a created or regenerated series.
type SeriesResponse struct {
	SeriesID string         `json:"series_id"`
	Events   []models.Event `json:"events"`
}

// CreateSeries expands and persists a new weekly series. All-or-nothing: a
// conflict on any occurrence yields 409 with the blocking event and date, and
// nothing is written.
func CreateSeries(svc *series.Service, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if !models.ValidType(req.Event.Type) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown event type")
			return
		}
		if err := schedule.ValidateRule(req.Rule); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		var base models.Event
		req.Event.apply(&base)

		created, err := svc.Create(r.Context(), base, req.Rule)
		if err != nil {
			writeSeriesError(w, err)
			return
		}
		if len(created) == 0 {
			middleware.WriteError(w, http.StatusUnprocessableEntity, middleware.ErrEmptyRecurrence,
				"The rule selects no weekdays")
			return
		}

		seriesID := created[0].SeriesID
		websocket.NewEventBroadcaster(hub).BroadcastSeriesChange(websocket.TypeSeriesCreated, seriesID, len(created))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SeriesResponse{SeriesID: seriesID, Events: created})
	}
}

// RegenerateSeries rebuilds a series under an edited rule. Overrides and
// excepted days survive; the series' managed rows are replaced only when the
// whole expansion succeeds.
func RegenerateSeries(svc *series.Service, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seriesID := mux.Vars(r)["id"]

		var req SeriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if !models.ValidType(req.Event.Type) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Unknown event type")
			return
		}
		if err := schedule.ValidateRule(req.Rule); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		var base models.Event
		req.Event.apply(&base)

		regenerated, err := svc.Regenerate(r.Context(), seriesID, base, req.Rule)
		if err != nil {
			writeSeriesError(w, err)
			return
		}

		websocket.NewEventBroadcaster(hub).BroadcastSeriesChange(websocket.TypeSeriesRegenerated, seriesID, len(regenerated))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SeriesResponse{SeriesID: seriesID, Events: regenerated})
	}
}

// DeleteSeries removes all managed rows of a series and its exception ledger.
// Overrides stay.
func DeleteSeries(svc *series.Service, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seriesID := mux.Vars(r)["id"]

		if err := svc.Delete(r.Context(), seriesID); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete series")
			return
		}

		websocket.NewEventBroadcaster(hub).BroadcastSeriesChange(websocket.TypeSeriesDeleted, seriesID, 0)

		w.WriteHeader(http.StatusNoContent)
	}
}

// writeSeriesError maps the typed expansion failures onto stable HTTP codes.
func writeSeriesError(w http.ResponseWriter, err error) {
	var conflict *schedule.ConflictError
	var capErr *schedule.CapError

	switch {
	case errors.As(err, &conflict):
		middleware.WriteErrorWithDetails(w, http.StatusConflict, middleware.ErrConflict,
			"An occurrence overlaps an existing event", map[string]any{
				"event":   conflict.Event,
				"at_date": conflict.Date,
			})

	case errors.As(err, &capErr):
		middleware.WriteErrorWithDetails(w, http.StatusUnprocessableEntity, middleware.ErrCapExceeded,
			"The rule generates too many occurrences", map[string]any{"max_occurrences": capErr.Cap})

	case errors.Is(err, schedule.ErrNoOccurrences):
		middleware.WriteError(w, http.StatusUnprocessableEntity, middleware.ErrEmptyRecurrence,
			"The rule produces no occurrences")

	case errors.Is(err, series.ErrNotRecurrable):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation,
			"Only office events can recur")

	default:
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError,
			"Failed to build the series")
	}
}
