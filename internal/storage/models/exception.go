package models

import "time"

// RecurrenceException marks one calendar day as permanently skipped for a
// series. Once recorded, regeneration must never re-materialize an event for
// that (SeriesID, DayKey) pair.
type RecurrenceException struct {
	SeriesID  string    `json:"series_id"`
	DayKey    string    `json:"day_key"` // local YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}
