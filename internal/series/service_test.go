package series

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage/models"
)

type fakeEventStore struct {
	events []models.Event
}

func (f *fakeEventStore) List(ctx context.Context) ([]models.Event, error) {
	out := make([]models.Event, len(f.events))
	copy(out, f.events)
	return out, nil
}

func (f *fakeEventStore) CreateBatch(ctx context.Context, events []models.Event) error {
	f.events = append(f.events, events...)
	return nil
}

func (f *fakeEventStore) Update(ctx context.Context, event *models.Event) error {
	for i := range f.events {
		if f.events[i].ID == event.ID {
			f.events[i] = *event
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeEventStore) Delete(ctx context.Context, id string) error {
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeEventStore) DeleteSeries(ctx context.Context, seriesID string) (int64, error) {
	var kept []models.Event
	var removed int64
	for _, e := range f.events {
		if e.SeriesID == seriesID && !e.IsOverride {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.events = kept
	return removed, nil
}

type fakeExceptionStore struct {
	days map[string]map[string]struct{} // seriesID -> dayKey set
}

func newFakeExceptionStore() *fakeExceptionStore {
	return &fakeExceptionStore{days: make(map[string]map[string]struct{})}
}

func (f *fakeExceptionStore) Record(ctx context.Context, seriesID, dayKey string) error {
	if f.days[seriesID] == nil {
		f.days[seriesID] = make(map[string]struct{})
	}
	f.days[seriesID][dayKey] = struct{}{}
	return nil
}

func (f *fakeExceptionStore) DayKeySet(ctx context.Context, seriesID string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(f.days[seriesID]))
	for k := range f.days[seriesID] {
		set[k] = struct{}{}
	}
	return set, nil
}

func (f *fakeExceptionStore) ClearSeries(ctx context.Context, seriesID string) error {
	delete(f.days, seriesID)
	return nil
}

func newTestService(events *fakeEventStore, exceptions *fakeExceptionStore) *Service {
	clock := schedule.NewClockWithLocation(time.FixedZone("BRT", -3*60*60))
	svc := NewService(events, exceptions, clock, 0)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc
}

func monWedRule() models.WeeklyRule {
	return models.WeeklyRule{
		Kind:      "weekly",
		Weekdays:  []int{1, 3},
		StartDate: "2025-01-06",
		UntilDate: "2025-01-20",
		StartTime: "08:00",
		EndTime:   "09:00",
	}
}

func TestCreatePersistsWholeSeries(t *testing.T) {
	events := &fakeEventStore{}
	svc := newTestService(events, newFakeExceptionStore())

	base := models.Event{Type: models.EventTypeOffice, Title: "Consultas"}
	got, err := svc.Create(context.Background(), base, monWedRule())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(got) != 5 || len(events.events) != 5 {
		t.Fatalf("expected 5 persisted occurrences, got %d returned / %d stored", len(got), len(events.events))
	}
	seriesID := got[0].SeriesID
	for _, e := range events.events {
		if e.SeriesID != seriesID {
			t.Fatalf("occurrence outside the series: %+v", e)
		}
	}
}

func TestCreateRejectsNonOfficeEvents(t *testing.T) {
	svc := newTestService(&fakeEventStore{}, newFakeExceptionStore())

	base := models.Event{Type: models.EventTypeSurgery}
	if _, err := svc.Create(context.Background(), base, monWedRule()); !errors.Is(err, ErrNotRecurrable) {
		t.Fatalf("expected ErrNotRecurrable, got %v", err)
	}
}

func TestCreateConflictLeavesStoreUntouched(t *testing.T) {
	events := &fakeEventStore{events: []models.Event{{
		ID: "busy", Type: models.EventTypePersonal,
		Start: "2025-01-13T08:30:00", End: "2025-01-13T08:45:00",
	}}}
	svc := newTestService(events, newFakeExceptionStore())

	base := models.Event{Type: models.EventTypeOffice}
	_, err := svc.Create(context.Background(), base, monWedRule())
	var conflict *schedule.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflict.Date != "2025-01-13" {
		t.Fatalf("conflict date got %s", conflict.Date)
	}
	if len(events.events) != 1 {
		t.Fatalf("store mutated on failed expansion: %d events", len(events.events))
	}
}

func TestDeleteOccurrenceRecordsException(t *testing.T) {
	occ := models.Event{
		ID: "occ-1", Type: models.EventTypeOffice, SeriesID: "s1",
		Start: "2025-01-13T08:00:00", End: "2025-01-13T09:00:00",
	}
	events := &fakeEventStore{events: []models.Event{occ}}
	exceptions := newFakeExceptionStore()
	svc := newTestService(events, exceptions)

	if err := svc.DeleteOccurrence(context.Background(), &occ); err != nil {
		t.Fatalf("delete occurrence failed: %v", err)
	}
	if len(events.events) != 0 {
		t.Fatal("occurrence row not deleted")
	}
	if _, ok := exceptions.days["s1"]["2025-01-13"]; !ok {
		t.Fatalf("exception not recorded: %+v", exceptions.days)
	}
}

func TestDeleteOccurrenceOfOverrideRecordsNothing(t *testing.T) {
	occ := models.Event{
		ID: "occ-1", Type: models.EventTypeOffice, SeriesID: "s1", IsOverride: true,
		Start: "2025-01-13T08:00:00", End: "2025-01-13T09:00:00",
	}
	events := &fakeEventStore{events: []models.Event{occ}}
	exceptions := newFakeExceptionStore()
	svc := newTestService(events, exceptions)

	if err := svc.DeleteOccurrence(context.Background(), &occ); err != nil {
		t.Fatalf("delete occurrence failed: %v", err)
	}
	if len(exceptions.days["s1"]) != 0 {
		t.Fatal("override deletion recorded an exception")
	}
}

func TestRegenerateSkipsExceptionsAndKeepsOverrides(t *testing.T) {
	events := &fakeEventStore{}
	exceptions := newFakeExceptionStore()
	svc := newTestService(events, exceptions)

	base := models.Event{Type: models.EventTypeOffice, Title: "Consultas"}
	created, err := svc.Create(context.Background(), base, monWedRule())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seriesID := created[0].SeriesID

	// User deletes only the Jan 13 occurrence...
	var jan13 models.Event
	for _, e := range created {
		if e.Start[:10] == "2025-01-13" {
			jan13 = e
		}
	}
	if err := svc.DeleteOccurrence(context.Background(), &jan13); err != nil {
		t.Fatalf("delete occurrence failed: %v", err)
	}

	// ...and detaches the Jan 15 one with a custom edit.
	var jan15 models.Event
	for _, e := range events.events {
		if e.Start[:10] == "2025-01-15" {
			jan15 = e
		}
	}
	originalStart := jan15.Start
	jan15.Title = "Consulta especial"
	if err := svc.Detach(context.Background(), &jan15, originalStart); err != nil {
		t.Fatalf("detach failed: %v", err)
	}

	regenerated, err := svc.Regenerate(context.Background(), seriesID, base, monWedRule())
	if err != nil {
		t.Fatalf("regenerate failed: %v", err)
	}

	for _, e := range regenerated {
		if e.Start[:10] == "2025-01-13" {
			t.Fatal("excepted day came back on regeneration")
		}
		if e.Start[:10] == "2025-01-15" {
			t.Fatal("override day was regenerated")
		}
	}
	// 2025-01-06, 01-08, 01-20 regenerated; the override row survives.
	if len(regenerated) != 3 {
		t.Fatalf("expected 3 regenerated occurrences, got %d", len(regenerated))
	}
	var overrides int
	for _, e := range events.events {
		if e.IsOverride {
			overrides++
			if e.Title != "Consulta especial" {
				t.Fatalf("override edit lost: %+v", e)
			}
		}
	}
	if overrides != 1 {
		t.Fatalf("expected 1 surviving override, got %d", overrides)
	}
	if len(events.events) != 4 {
		t.Fatalf("expected 4 stored events after regeneration, got %d", len(events.events))
	}
}

func TestDeleteSeriesClearsExceptions(t *testing.T) {
	events := &fakeEventStore{}
	exceptions := newFakeExceptionStore()
	svc := newTestService(events, exceptions)

	base := models.Event{Type: models.EventTypeOffice}
	created, err := svc.Create(context.Background(), base, monWedRule())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	seriesID := created[0].SeriesID
	if err := svc.DeleteOccurrence(context.Background(), &created[0]); err != nil {
		t.Fatalf("delete occurrence failed: %v", err)
	}

	if err := svc.Delete(context.Background(), seriesID); err != nil {
		t.Fatalf("delete series failed: %v", err)
	}
	if len(events.events) != 0 {
		t.Fatalf("series rows remain: %d", len(events.events))
	}
	if len(exceptions.days[seriesID]) != 0 {
		t.Fatal("exceptions not cleared with the series")
	}
}
