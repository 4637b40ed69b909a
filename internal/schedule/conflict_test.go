package schedule

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/practice-agenda/backend/internal/storage/models"
)

func ev(id, start, end string) models.Event {
	return models.Event{ID: id, Type: models.EventTypeOffice, Start: start, End: end}
}

func TestFindConflictOverlap(t *testing.T) {
	c := testClock()
	events := []models.Event{
		ev("a", "2025-01-13T08:00:00", "2025-01-13T09:00:00"),
		ev("b", "2025-01-13T10:00:00", "2025-01-13T11:00:00"),
	}

	got := c.FindConflict(Candidate{Start: "2025-01-13T08:30:00", End: "2025-01-13T08:45:00"}, events, "")
	if got == nil || got.ID != "a" {
		t.Fatalf("expected conflict with a, got %+v", got)
	}
}

func TestFindConflictReturnsFirstInInputOrder(t *testing.T) {
	c := testClock()
	events := []models.Event{
		ev("later", "2025-01-13T10:30:00", "2025-01-13T11:30:00"),
		ev("earlier", "2025-01-13T08:00:00", "2025-01-13T12:00:00"),
	}
	got := c.FindConflict(Candidate{Start: "2025-01-13T10:00:00", End: "2025-01-13T11:00:00"}, events, "")
	if got == nil || got.ID != "later" {
		t.Fatalf("expected first match in input order, got %+v", got)
	}
}

func TestBackToBackIsNotAConflict(t *testing.T) {
	c := testClock()
	events := []models.Event{ev("a", "2025-01-13T10:00:00", "2025-01-13T11:00:00")}

	got := c.FindConflict(Candidate{Start: "2025-01-13T11:00:00", End: "2025-01-13T12:00:00"}, events, "")
	if got != nil {
		t.Fatalf("back-to-back reported as conflict: %+v", got)
	}
	got = c.FindConflict(Candidate{Start: "2025-01-13T09:00:00", End: "2025-01-13T10:00:00"}, events, "")
	if got != nil {
		t.Fatalf("back-to-back (before) reported as conflict: %+v", got)
	}
}

func TestSelfExclusionWhileEditing(t *testing.T) {
	c := testClock()
	events := []models.Event{ev("x", "2025-01-13T10:00:00", "2025-01-13T11:00:00")}

	got := c.FindConflict(Candidate{Start: "2025-01-13T10:00:00", End: "2025-01-13T11:00:00"}, events, "x")
	if got != nil {
		t.Fatalf("event reported as conflicting with itself: %+v", got)
	}
}

func TestInvalidCandidateNeverConflicts(t *testing.T) {
	c := testClock()
	events := []models.Event{ev("a", "2025-01-13T08:00:00", "2025-01-13T18:00:00")}

	cases := []Candidate{
		{},
		{Start: "2025-01-13T10:00:00"},
		{Start: "garbage", End: "2025-01-13T11:00:00"},
		{Start: "2025-01-13T11:00:00", End: "2025-01-13T10:00:00"}, // end before start
		{Start: "2025-01-13T10:00:00", End: "2025-01-13T10:00:00"}, // zero duration
	}
	for i, cand := range cases {
		if got := c.FindConflict(cand, events, ""); got != nil {
			t.Fatalf("case %d: invalid candidate reported conflict %+v", i, got)
		}
	}
}

func TestMalformedStoredStampsAreSkipped(t *testing.T) {
	c := testClock()
	events := []models.Event{
		ev("broken", "oops", "2025-01-13T18:00:00"),
		ev("ok", "2025-01-13T10:00:00", "2025-01-13T11:00:00"),
	}
	got := c.FindConflict(Candidate{Start: "2025-01-13T10:30:00", End: "2025-01-13T10:45:00"}, events, "")
	if got == nil || got.ID != "ok" {
		t.Fatalf("expected broken row skipped and ok reported, got %+v", got)
	}
}

func TestPendingEventsStillBlock(t *testing.T) {
	c := testClock()
	pending := ev("tmp", "2025-01-13T10:00:00", "2025-01-13T11:00:00")
	pending.Pending = true

	got := c.FindConflict(Candidate{Start: "2025-01-13T10:30:00", End: "2025-01-13T11:30:00"}, []models.Event{pending}, "")
	if got == nil || got.ID != "tmp" {
		t.Fatalf("pending event did not act as an obstacle, got %+v", got)
	}
}

func TestMixedEncodingsCompare(t *testing.T) {
	c := testClock()
	// Stored as UTC, candidate as bare local: 13:30Z == 10:30 at -03:00.
	events := []models.Event{ev("utc", "2025-01-13T13:30:00Z", "2025-01-13T14:30:00Z")}

	got := c.FindConflict(Candidate{Start: "2025-01-13T10:00:00", End: "2025-01-13T11:00:00"}, events, "")
	if got == nil || got.ID != "utc" {
		t.Fatalf("mixed-encoding overlap missed, got %+v", got)
	}
}

func TestOverlapSymmetry(t *testing.T) {
	c := testClock()
	rng := rand.New(rand.NewSource(42))

	stamp := func(h, m int) string {
		return fmt.Sprintf("2025-03-10T%02d:%02d:00", h, m)
	}
	randomInterval := func() (string, string) {
		s := rng.Intn(22 * 60)
		d := 1 + rng.Intn(120)
		e := s + d
		return stamp(s/60, s%60), stamp(e/60, e%60)
	}

	for i := 0; i < 500; i++ {
		aStart, aEnd := randomInterval()
		bStart, bEnd := randomInterval()
		a := ev("a", aStart, aEnd)
		b := ev("b", bStart, bEnd)

		ab := c.FindConflict(Candidate{Start: aStart, End: aEnd}, []models.Event{b}, "") != nil
		ba := c.FindConflict(Candidate{Start: bStart, End: bEnd}, []models.Event{a}, "") != nil
		if ab != ba {
			t.Fatalf("asymmetric overlap: a=[%s,%s] b=[%s,%s] ab=%v ba=%v",
				aStart, aEnd, bStart, bEnd, ab, ba)
		}
	}
}
