package storage

import (
	"context"
	"fmt"

	"github.com/practice-agenda/backend/internal/storage/models"
)

// ExceptionRepository provides data access for recurrence exceptions: the
// calendar days permanently removed from a series.
type ExceptionRepository struct {
	BaseRepository
}

// NewExceptionRepository creates a new exception repository.
func NewExceptionRepository(db *DB) *ExceptionRepository {
	return &ExceptionRepository{BaseRepository: NewBaseRepository(db)}
}

// Record marks one calendar day as skipped for a series. Recording the same
// (series, day) pair twice is not an error.
func (r *ExceptionRepository) Record(ctx context.Context, seriesID, dayKey string) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT OR IGNORE INTO recurrence_exceptions (series_id, day_key, created_at)
		VALUES (?, ?, ?)
	`, seriesID, dayKey, r.Now())
	if err != nil {
		return fmt.Errorf("recording recurrence exception: %w", err)
	}
	return nil
}

// ListBySeries returns all exceptions of a series.
func (r *ExceptionRepository) ListBySeries(ctx context.Context, seriesID string) ([]models.RecurrenceException, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT series_id, day_key, created_at
		FROM recurrence_exceptions
		WHERE series_id = ?
		ORDER BY day_key
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("querying recurrence exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []models.RecurrenceException
	for rows.Next() {
		var ex models.RecurrenceException
		if err := rows.Scan(&ex.SeriesID, &ex.DayKey, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recurrence exception: %w", err)
		}
		exceptions = append(exceptions, ex)
	}
	return exceptions, rows.Err()
}

// DayKeySet returns the excluded day keys of a series as a set, the form the
// recurrence expander consumes.
func (r *ExceptionRepository) DayKeySet(ctx context.Context, seriesID string) (map[string]struct{}, error) {
	exceptions, err := r.ListBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(exceptions))
	for _, ex := range exceptions {
		set[ex.DayKey] = struct{}{}
	}
	return set, nil
}

// ClearSeries removes all exceptions of a series, invoked when the whole
// series is deleted.
func (r *ExceptionRepository) ClearSeries(ctx context.Context, seriesID string) error {
	_, err := r.DB().ExecContext(ctx, `
		DELETE FROM recurrence_exceptions WHERE series_id = ?
	`, seriesID)
	if err != nil {
		return fmt.Errorf("clearing recurrence exceptions: %w", err)
	}
	return nil
}
