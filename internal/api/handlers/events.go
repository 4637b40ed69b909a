package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/practice-agenda/backend/internal/api/middleware"
	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/series"
	"github.com/practice-agenda/backend/internal/storage"
	"github.com/practice-agenda/backend/internal/storage/models"
	"github.com/practice-agenda/backend/internal/websocket"
)

// EventRequest is the write body for single events. Force skips the conflict
// check; the frontend sends it after the user confirms a double booking.
type EventRequest struct {
	Type     string              `json:"type"`
	Start    string              `json:"start"`
	End      string              `json:"end"`
	Title    string              `json:"title"`
	Location string              `json:"location"`
	Notes    string              `json:"notes"`
	Surgery  *models.SurgeryInfo `json:"surgery"`
	Force    bool                `json:"force"`
}

func (req *EventRequest) apply(event *models.Event) {
	event.Type = req.Type
	event.Start = req.Start
	event.End = req.End
	event.Title = req.Title
	event.Location = req.Location
	event.Notes = req.Notes
	event.Surgery = req.Surgery
}

// validate checks type, timestamp shape and billing consistency. Returns an
// error message suitable for the client, or "".
func (req *EventRequest) validate(clock *schedule.Clock) string {
	if !models.ValidType(req.Type) {
		return "Unknown event type"
	}
	start, ok := clock.ParseStamp(req.Start)
	if !ok {
		return "Unparseable start timestamp"
	}
	end, ok := clock.ParseStamp(req.End)
	if !ok {
		return "Unparseable end timestamp"
	}
	if !end.After(start) {
		return "End must be after start"
	}
	if req.Surgery != nil && req.Type != models.EventTypeSurgery {
		return "Billing info is only valid on surgery events"
	}
	if req.Surgery != nil {
		switch req.Surgery.PayStatus {
		case models.PayStatusPending, models.PayStatusPaid:
		default:
			return "Payment status must be pending or paid"
		}
	}
	return ""
}

// ListEvents returns all events, optionally narrowed to one local day
// (?day=YYYY-MM-DD) or one local month (?month=YYYY-MM).
func ListEvents(events *storage.EventRepository, clock *schedule.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		day := r.URL.Query().Get("day")
		month := r.URL.Query().Get("month")

		all, err := events.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load events")
			return
		}

		filtered := make([]models.Event, 0, len(all))
		for _, e := range all {
			if day != "" || month != "" {
				start, ok := clock.ParseStamp(e.Start)
				if !ok {
					continue
				}
				key := clock.DayKey(start)
				if day != "" && key != day {
					continue
				}
				if month != "" && key[:7] != month {
					continue
				}
			}
			filtered = append(filtered, e)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(filtered)
	}
}

// GetEvent returns a single event by id.
func GetEvent(events *storage.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := events.GetByID(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load event")
			return
		}
		if event == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(event)
	}
}

// CreateEvent creates a single (non-recurring) event. A scheduling conflict
// yields 409 with the conflicting event attached, unless force is set.
func CreateEvent(events *storage.EventRepository, clock *schedule.Clock, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(clock); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		if !req.Force {
			if conflictResponse(ctx, w, events, clock, req.Start, req.End, "") {
				return
			}
		}

		var event models.Event
		req.apply(&event)
		if err := events.Create(ctx, &event); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create event")
			return
		}

		websocket.NewEventBroadcaster(hub).BroadcastEventChange(websocket.TypeEventCreated, &event)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(event)
	}
}

// UpdateEvent rewrites a single event, conflict-checking the new slot against
// everything except the event itself.
func UpdateEvent(events *storage.EventRepository, clock *schedule.Clock, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]

		event, err := events.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load event")
			return
		}
		if event == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(clock); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		if !req.Force {
			if conflictResponse(ctx, w, events, clock, req.Start, req.End, id) {
				return
			}
		}

		req.apply(event)
		if err := events.Update(ctx, event); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update event")
			return
		}

		websocket.NewEventBroadcaster(hub).BroadcastEventChange(websocket.TypeEventUpdated, event)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(event)
	}
}

// DeleteEvent removes an event. On a series member, ?scope=occurrence (the
// default) deletes the single row and records an exception so regeneration
// never brings the day back; ?scope=series removes the whole series.
func DeleteEvent(events *storage.EventRepository, svc *series.Service, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]

		event, err := events.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load event")
			return
		}
		if event == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}

		broadcaster := websocket.NewEventBroadcaster(hub)
		switch scope := r.URL.Query().Get("scope"); scope {
		case "", "occurrence":
			if err := svc.DeleteOccurrence(ctx, event); err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete event")
				return
			}
			broadcaster.BroadcastEventChange(websocket.TypeEventDeleted, event)

		case "series":
			if event.SeriesID == "" {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Event does not belong to a series")
				return
			}
			if err := svc.Delete(ctx, event.SeriesID); err != nil {
				middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to delete series")
				return
			}
			broadcaster.BroadcastSeriesChange(websocket.TypeSeriesDeleted, event.SeriesID, 0)

		default:
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Scope must be occurrence or series")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// CheckRequest is the dry-run conflict check body.
type CheckRequest struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	ExcludeID string `json:"exclude_id"`
}

// CheckEvent runs the conflict check without writing anything. The response
// carries the first conflicting event, or null.
func CheckEvent(events *storage.EventRepository, clock *schedule.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CheckRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		all, err := events.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load events")
			return
		}

		conflict := clock.FindConflict(schedule.Candidate{Start: req.Start, End: req.End}, all, req.ExcludeID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"conflict": conflict})
	}
}

// DetachEvent edits a single occurrence of a series, marking it as an
// override so regeneration leaves it alone.
func DetachEvent(events *storage.EventRepository, svc *series.Service, clock *schedule.Clock, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]

		event, err := events.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load event")
			return
		}
		if event == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}
		if event.SeriesID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Event does not belong to a series")
			return
		}

		var req EventRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}
		if msg := req.validate(clock); msg != "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, msg)
			return
		}

		if !req.Force {
			if conflictResponse(ctx, w, events, clock, req.Start, req.End, id) {
				return
			}
		}

		originalStart := event.Start
		req.apply(event)
		if err := svc.Detach(ctx, event, originalStart); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to detach occurrence")
			return
		}

		websocket.NewEventBroadcaster(hub).BroadcastEventChange(websocket.TypeEventUpdated, event)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(event)
	}
}

// TogglePayment flips a surgery between pending and paid.
func TogglePayment(events *storage.EventRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := mux.Vars(r)["id"]

		event, err := events.GetByID(ctx, id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load event")
			return
		}
		if event == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
			return
		}
		if event.Type != models.EventTypeSurgery || event.Surgery == nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Event carries no billing info")
			return
		}

		if event.Surgery.PayStatus == models.PayStatusPaid {
			event.Surgery.PayStatus = models.PayStatusPending
		} else {
			event.Surgery.PayStatus = models.PayStatusPaid
		}

		if err := events.Update(ctx, event); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
				return
			}
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to update payment status")
			return
		}

		websocket.NewEventBroadcaster(hub).BroadcastPaymentUpdated(event.ID, event.Surgery.PayStatus)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(event)
	}
}

// conflictResponse runs the conflict check for a candidate slot and, on a
// hit, writes the 409 with the blocking event attached. Reports whether the
// response was written.
func conflictResponse(ctx context.Context, w http.ResponseWriter, events *storage.EventRepository, clock *schedule.Clock, start, end, excludeID string) bool {
	all, err := events.List(ctx)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to load events")
		return true
	}

	conflict := clock.FindConflict(schedule.Candidate{Start: start, End: end}, all, excludeID)
	if conflict == nil {
		return false
	}

	middleware.WriteErrorWithDetails(w, http.StatusConflict, middleware.ErrConflict,
		"The slot overlaps an existing event", map[string]any{"event": conflict})
	return true
}
