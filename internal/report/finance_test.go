package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/practice-agenda/backend/internal/schedule"
	"github.com/practice-agenda/backend/internal/storage/models"
)

func testClock() *schedule.Clock {
	return schedule.NewClockWithLocation(time.FixedZone("BRT", -3*60*60))
}

func surgery(id, start string, amount int64, payStatus string) models.Event {
	return models.Event{
		ID:    id,
		Type:  models.EventTypeSurgery,
		Start: start,
		End:   start[:11] + "23:00:00",
		Surgery: &models.SurgeryInfo{
			Amount:    decimal.NewFromInt(amount),
			PayStatus: payStatus,
		},
	}
}

func sampleEvents() []models.Event {
	return []models.Event{
		surgery("s1", "2025-03-05T08:00:00", 1500, models.PayStatusPending),
		surgery("s2", "2025-03-12T08:00:00", 2000, models.PayStatusPaid),
		surgery("s3", "2025-03-20T08:00:00", 500, models.PayStatusPending),
		surgery("other-month", "2025-04-02T08:00:00", 9999, models.PayStatusPending),
		{ID: "office", Type: models.EventTypeOffice, Start: "2025-03-05T10:00:00", End: "2025-03-05T11:00:00"},
		surgery("broken", "not-a-stamp", 100, models.PayStatusPaid),
	}
}

func TestSummarizeMonthTotals(t *testing.T) {
	got, err := Summarize(sampleEvents(), Filter{Year: 2025, Month: 3, Status: StatusAll}, testClock())
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	if got.Period != "2025-03" {
		t.Fatalf("period got %q", got.Period)
	}
	if !got.Receivable.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("receivable got %s want 2000", got.Receivable)
	}
	if !got.Received.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("received got %s want 2000", got.Received)
	}
	if len(got.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got.Lines))
	}
	// Newest first.
	if got.Lines[0].EventID != "s3" || got.Lines[2].EventID != "s1" {
		t.Fatalf("lines out of order: %+v", got.Lines)
	}
}

func TestSummarizeStatusFilterKeepsTotals(t *testing.T) {
	got, err := Summarize(sampleEvents(), Filter{Year: 2025, Month: 3, Status: StatusPending}, testClock())
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 pending lines, got %d", len(got.Lines))
	}
	for _, line := range got.Lines {
		if line.PayStatus != StatusPending {
			t.Fatalf("non-pending line leaked: %+v", line)
		}
	}
	// Totals still describe the whole month.
	if !got.Received.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("received total lost under filter: %s", got.Received)
	}
}

func TestSummarizeRejectsBadFilter(t *testing.T) {
	cases := []Filter{
		{Year: 2025, Month: 0, Status: StatusAll},
		{Year: 2025, Month: 13, Status: StatusAll},
		{Year: 0, Month: 3, Status: StatusAll},
		{Year: 2025, Month: 3, Status: "whatever"},
	}
	for i, f := range cases {
		if _, err := Summarize(nil, f, testClock()); err == nil {
			t.Fatalf("case %d: invalid filter accepted", i)
		}
	}
}

func TestSummarizeUsesLocalDayForMonthBoundary(t *testing.T) {
	// 01:00Z on April 1st is still March 31st at -03:00.
	events := []models.Event{surgery("edge", "2025-04-01T01:00:00Z", 300, models.PayStatusPaid)}

	got, err := Summarize(events, Filter{Year: 2025, Month: 3, Status: StatusAll}, testClock())
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Date != "2025-03-31" {
		t.Fatalf("month boundary not resolved in local time: %+v", got.Lines)
	}
}

func TestWriteXLSXProducesWorkbook(t *testing.T) {
	summary, err := Summarize(sampleEvents(), Filter{Year: 2025, Month: 3, Status: StatusAll}, testClock())
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, summary); err != nil {
		t.Fatalf("xlsx export failed: %v", err)
	}
	// XLSX files are zip archives; check the magic header.
	if buf.Len() < 4 || buf.Bytes()[0] != 'P' || buf.Bytes()[1] != 'K' {
		t.Fatalf("export does not look like a workbook (%d bytes)", buf.Len())
	}
}
