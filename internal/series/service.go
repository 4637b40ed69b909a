// Package series manages the lifecycle of weekly recurrence series: bulk
// creation, delete-and-regenerate, per-occurrence deletion with exception
// tracking, and override detachment.
package series

import (
	"context"
	"errors"
	"fmt"

	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage"
	"github.com/practice-agenda/backend/internal/storage/models"
)

// ErrNotRecurrable is returned when a non-office event is given a weekly rule.
var ErrNotRecurrable = errors.New("series: only office events can recur")

// EventStore is the slice of the event repository the service needs.
type EventStore interface {
	List(ctx context.Context) ([]models.Event, error)
	CreateBatch(ctx context.Context, events []models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, seriesID string) (int64, error)
}

// ExceptionStore is the ledger of per-occurrence cancellations.
type ExceptionStore interface {
	Record(ctx context.Context, seriesID, dayKey string) error
	DayKeySet(ctx context.Context, seriesID string) (map[string]struct{}, error)
	ClearSeries(ctx context.Context, seriesID string) error
}

// Service orchestrates series operations over the stores. All expansion work
// happens in memory between loading the snapshot and persisting the result,
// so a failed expansion never touches the store.
type Service struct {
	events         EventStore
	exceptions     ExceptionStore
	clock          *schedule.Clock
	maxOccurrences int
	newID          func() string
}

// NewService creates a series service. maxOccurrences <= 0 falls back to the
// expander's default cap.
func NewService(events EventStore, exceptions ExceptionStore, clock *schedule.Clock, maxOccurrences int) *Service {
	return &Service{
		events:         events,
		exceptions:     exceptions,
		clock:          clock,
		maxOccurrences: maxOccurrences,
		newID:          storage.GenerateID,
	}
}

// Create expands a new weekly series against every stored event and persists
// the occurrences in one batch. The returned events carry their store ids.
func (s *Service) Create(ctx context.Context, base models.Event, rule models.WeeklyRule) ([]models.Event, error) {
	if !base.CanRecur() {
		return nil, ErrNotRecurrable
	}

	existing, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}

	seriesID := s.newID()
	occurrences, err := s.clock.ExpandWeekly(base, seriesID, rule, existing, nil, s.newID, s.maxOccurrences)
	if err != nil {
		return nil, err
	}

	if err := s.events.CreateBatch(ctx, occurrences); err != nil {
		return nil, fmt.Errorf("persisting series: %w", err)
	}
	return occurrences, nil
}

// Regenerate rebuilds a series under a (possibly edited) rule. The series'
// own non-override rows are excluded from the conflict snapshot in memory,
// the expansion runs against everything else plus the exception ledger, and
// only a successful expansion replaces the stored rows. Overrides and
// excepted days are never recreated.
func (s *Service) Regenerate(ctx context.Context, seriesID string, base models.Event, rule models.WeeklyRule) ([]models.Event, error) {
	if !base.CanRecur() {
		return nil, ErrNotRecurrable
	}

	all, err := s.events.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	snapshot := make([]models.Event, 0, len(all))
	for _, e := range all {
		if e.SeriesID == seriesID && !e.IsOverride {
			continue
		}
		snapshot = append(snapshot, e)
	}

	excluded, err := s.exceptions.DayKeySet(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("loading exceptions: %w", err)
	}

	occurrences, err := s.clock.ExpandWeekly(base, seriesID, rule, snapshot, excluded, s.newID, s.maxOccurrences)
	if err != nil {
		return nil, err
	}

	if _, err := s.events.DeleteSeries(ctx, seriesID); err != nil {
		return nil, fmt.Errorf("removing old series rows: %w", err)
	}
	if err := s.events.CreateBatch(ctx, occurrences); err != nil {
		return nil, fmt.Errorf("persisting regenerated series: %w", err)
	}
	return occurrences, nil
}

// Delete removes every non-override row of a series and clears its exception
// ledger. Overrides stay: they were explicitly detached by the user.
func (s *Service) Delete(ctx context.Context, seriesID string) error {
	if _, err := s.events.DeleteSeries(ctx, seriesID); err != nil {
		return fmt.Errorf("deleting series: %w", err)
	}
	if err := s.exceptions.ClearSeries(ctx, seriesID); err != nil {
		return fmt.Errorf("clearing exceptions: %w", err)
	}
	return nil
}

// DeleteOccurrence removes a single event. When the event is a managed
// member of a series, its calendar day is recorded as an exception so
// regeneration never brings it back.
func (s *Service) DeleteOccurrence(ctx context.Context, event *models.Event) error {
	if err := s.events.Delete(ctx, event.ID); err != nil {
		return fmt.Errorf("deleting occurrence: %w", err)
	}
	if !event.InSeries() {
		return nil
	}

	start, ok := s.clock.ParseStamp(event.Start)
	if !ok {
		return fmt.Errorf("occurrence %s has unparseable start %q", event.ID, event.Start)
	}
	if err := s.exceptions.Record(ctx, event.SeriesID, s.clock.DayKey(start)); err != nil {
		return fmt.Errorf("recording exception: %w", err)
	}
	return nil
}

// Detach marks one occurrence as an override, detaching it from
// regeneration while keeping its series id for traceability, and applies the
// single-row edit. The occurrence's original day is recorded as an
// exception; otherwise a later regeneration would re-materialize the slot
// and collide with the override.
func (s *Service) Detach(ctx context.Context, event *models.Event, originalStart string) error {
	if event.SeriesID != "" {
		start, ok := s.clock.ParseStamp(originalStart)
		if !ok {
			return fmt.Errorf("occurrence %s has unparseable start %q", event.ID, originalStart)
		}
		if err := s.exceptions.Record(ctx, event.SeriesID, s.clock.DayKey(start)); err != nil {
			return fmt.Errorf("recording exception: %w", err)
		}
	}

	event.IsOverride = true
	if err := s.events.Update(ctx, event); err != nil {
		return fmt.Errorf("detaching occurrence: %w", err)
	}
	return nil
}
