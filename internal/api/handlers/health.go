// Package handlers implements the HTTP handlers of the agenda API.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/practice-agenda/backend/internal/api/middleware"
	"github.com/practice-agenda/backend/internal/storage"
	"github.com/practice-agenda/backend/internal/websocket"
)

// Health reports service liveness and database reachability.
func Health(db *storage.DB, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			middleware.WriteError(w, http.StatusServiceUnavailable, middleware.ErrInternalError, "Database unreachable")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":  "ok",
			"clients": hub.ClientCount(),
		})
	}
}
