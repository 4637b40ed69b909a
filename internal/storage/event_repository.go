package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/practice-agenda/backend/internal/storage/models"
)

const eventColumns = `id, type, start_stamp, end_stamp, title, location, notes,
       surgery_amount, surgery_pay_status, series_id, rule_json, is_override,
       created_at, updated_at`

// EventRepository provides data access for agenda events.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a new event, assigning it a store id.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	event.ID = GenerateID()
	event.Pending = false
	event.CreatedAt = r.Now()
	event.UpdatedAt = event.CreatedAt
	return r.insert(ctx, r.DB(), event)
}

// CreateBatch inserts a generated series in one transaction, so a persistence
// failure cannot leave a partial series behind.
func (r *EventRepository) CreateBatch(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}
	return r.Transaction(func(tx *sql.Tx) error {
		for i := range events {
			events[i].ID = GenerateID()
			events[i].Pending = false
			events[i].CreatedAt = r.Now()
			events[i].UpdatedAt = events[i].CreatedAt
			if err := r.insert(ctx, tx, &events[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *EventRepository) insert(ctx context.Context, q Queryable, event *models.Event) error {
	amount, payStatus, err := surgeryFields(event)
	if err != nil {
		return err
	}
	ruleJSON, err := ruleField(event)
	if err != nil {
		return err
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID, event.Type, event.Start, event.End,
		event.Title, event.Location, event.Notes,
		amount, payStatus, nullable(event.SeriesID), ruleJSON, event.IsOverride,
		event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// GetByID retrieves an event, or nil when it does not exist.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	row := r.DB().QueryRowContext(ctx, `
		SELECT `+eventColumns+` FROM events WHERE id = ?
	`, id)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}
	return event, nil
}

// List retrieves all events ordered by start timestamp.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events ORDER BY start_stamp
	`)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListBySeries retrieves all events of a recurrence series, overrides
// included, ordered by start timestamp.
func (r *EventRepository) ListBySeries(ctx context.Context, seriesID string) ([]models.Event, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+eventColumns+` FROM events WHERE series_id = ? ORDER BY start_stamp
	`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("querying series events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// Update rewrites an existing event row.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	amount, payStatus, err := surgeryFields(event)
	if err != nil {
		return err
	}
	ruleJSON, err := ruleField(event)
	if err != nil {
		return err
	}
	event.UpdatedAt = r.Now()

	res, err := r.DB().ExecContext(ctx, `
		UPDATE events SET
			type = ?, start_stamp = ?, end_stamp = ?,
			title = ?, location = ?, notes = ?,
			surgery_amount = ?, surgery_pay_status = ?,
			series_id = ?, rule_json = ?, is_override = ?,
			updated_at = ?
		WHERE id = ?
	`,
		event.Type, event.Start, event.End,
		event.Title, event.Location, event.Notes,
		amount, payStatus,
		nullable(event.SeriesID), ruleJSON, event.IsOverride,
		event.UpdatedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a single event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB().ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteSeries removes all non-override rows of a series. Overrides were
// detached by a single-occurrence edit and survive regeneration and series
// deletion. Returns the number of rows removed.
func (r *EventRepository) DeleteSeries(ctx context.Context, seriesID string) (int64, error) {
	res, err := r.DB().ExecContext(ctx, `
		DELETE FROM events WHERE series_id = ? AND is_override = 0
	`, seriesID)
	if err != nil {
		return 0, fmt.Errorf("deleting series events: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		event     models.Event
		amount    sql.NullString
		payStatus sql.NullString
		seriesID  sql.NullString
		ruleJSON  sql.NullString
	)

	err := row.Scan(
		&event.ID, &event.Type, &event.Start, &event.End,
		&event.Title, &event.Location, &event.Notes,
		&amount, &payStatus, &seriesID, &ruleJSON, &event.IsOverride,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if seriesID.Valid {
		event.SeriesID = seriesID.String
	}
	if amount.Valid && payStatus.Valid {
		value, err := decimal.NewFromString(amount.String)
		if err != nil {
			return nil, fmt.Errorf("parsing surgery amount %q: %w", amount.String, err)
		}
		event.Surgery = &models.SurgeryInfo{Amount: value, PayStatus: payStatus.String}
	}
	if ruleJSON.Valid && ruleJSON.String != "" {
		var rule models.WeeklyRule
		if err := json.Unmarshal([]byte(ruleJSON.String), &rule); err != nil {
			return nil, fmt.Errorf("parsing recurrence rule: %w", err)
		}
		event.Rule = &rule
	}

	return &event, nil
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *event)
	}
	return events, rows.Err()
}

func surgeryFields(event *models.Event) (amount, payStatus any, err error) {
	if event.Surgery == nil {
		return nil, nil, nil
	}
	if event.Type != models.EventTypeSurgery {
		return nil, nil, fmt.Errorf("surgery info on %s event %s", event.Type, event.ID)
	}
	status := event.Surgery.PayStatus
	if status != models.PayStatusPending && status != models.PayStatusPaid {
		return nil, nil, fmt.Errorf("invalid pay status %q", status)
	}
	return event.Surgery.Amount.String(), status, nil
}

func ruleField(event *models.Event) (any, error) {
	if event.Rule == nil {
		return nil, nil
	}
	raw, err := json.Marshal(event.Rule)
	if err != nil {
		return nil, fmt.Errorf("encoding recurrence rule: %w", err)
	}
	return string(raw), nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
