// Package api provides HTTP routing for the agenda service.
package api

import (
	"github.com/gorilla/mux"

	"github.com/practice-agenda/backend/internal/api/handlers"
	"github.com/practice-agenda/backend/internal/api/middleware"
	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/series"
	"github.com/practice-agenda/backend/internal/storage"
	"github.com/practice-agenda/backend/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(
	db *storage.DB,
	events *storage.EventRepository,
	svc *series.Service,
	clock *schedule.Clock,
	hub *websocket.Hub,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", handlers.Health(db, hub)).Methods("GET")
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Single events
	api.HandleFunc("/events", handlers.ListEvents(events, clock)).Methods("GET")
	api.HandleFunc("/events", handlers.CreateEvent(events, clock, hub)).Methods("POST")
	api.HandleFunc("/events/check", handlers.CheckEvent(events, clock)).Methods("POST")
	api.HandleFunc("/events/{id}", handlers.GetEvent(events)).Methods("GET")
	api.HandleFunc("/events/{id}", handlers.UpdateEvent(events, clock, hub)).Methods("PUT")
	api.HandleFunc("/events/{id}", handlers.DeleteEvent(events, svc, hub)).Methods("DELETE")
	api.HandleFunc("/events/{id}/detach", handlers.DetachEvent(events, svc, clock, hub)).Methods("POST")
	api.HandleFunc("/events/{id}/toggle-payment", handlers.TogglePayment(events, hub)).Methods("POST")

	// Recurring series
	api.HandleFunc("/series", handlers.CreateSeries(svc, hub)).Methods("POST")
	api.HandleFunc("/series/{id}", handlers.RegenerateSeries(svc, hub)).Methods("PUT")
	api.HandleFunc("/series/{id}", handlers.DeleteSeries(svc, hub)).Methods("DELETE")

	// Finance
	api.HandleFunc("/reports/finance", handlers.FinanceReport(events, clock)).Methods("GET")
	api.HandleFunc("/reports/finance/export", handlers.FinanceExport(events, clock)).Methods("GET")

	// Outbound calendar subscription
	api.HandleFunc("/calendar.ics", handlers.CalendarFeed(events, clock)).Methods("GET")

	return r
}
