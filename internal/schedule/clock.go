// Package schedule holds the pure scheduling core: wall-clock normalization,
// interval conflict detection and weekly recurrence expansion. Nothing in
// this package performs I/O; callers load events and exceptions first and
// persist results afterwards.
package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Timestamp layouts accepted from storage. Rows written by this service use
// stampLayout; older imported rows may carry RFC3339 offsets instead.
const (
	stampLayout      = "2006-01-02T15:04:05"
	stampShortLayout = "2006-01-02T15:04"
	dayKeyLayout     = "2006-01-02"
	clockLayout      = "15:04"
)

// Clock converts between calendar-date + clock-time pairs and absolute
// instants in a fixed wall-clock location.
type Clock struct {
	loc *time.Location
}

// NewClock creates a clock in the local time zone.
func NewClock() *Clock {
	return &Clock{loc: time.Local}
}

// NewClockWithLocation creates a clock in a specific time zone.
func NewClockWithLocation(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc}
}

// Location returns the clock's wall-clock location.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Instant returns the absolute instant for a "YYYY-MM-DD" date and "HH:MM"
// clock time read on the practice's wall clock. Malformed fields fall back to
// zero rather than failing; well-formed input never errors.
func (c *Clock) Instant(dateStr, timeStr string) time.Time {
	y, m, d := splitDate(dateStr)
	hh, mm := splitClock(timeStr)
	return time.Date(y, time.Month(m), d, hh, mm, 0, 0, c.loc)
}

// Stamp returns the canonical stored encoding for a date + clock time: a bare
// local stamp with no offset, e.g. "2025-12-22T19:00:00".
func (c *Clock) Stamp(dateStr, timeStr string) string {
	return dateStr + "T" + timeStr + ":00"
}

// ParseStamp resolves a stored timestamp string into an absolute instant.
// A trailing "Z" or explicit ±HH:MM offset means the stamp is already
// absolute; a bare stamp is interpreted in the clock's location. Malformed
// input returns ok=false so callers can treat the row as non-comparable.
func (c *Clock) ParseStamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if hasOffset(s) {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range []string{stampLayout, stampShortLayout} {
		if t, err := time.ParseInLocation(layout, s, c.loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayKey returns the canonical local "YYYY-MM-DD" for an instant. This is the
// grouping key for agenda views and the recurrence exception key.
func (c *Clock) DayKey(t time.Time) string {
	return t.In(c.loc).Format(dayKeyLayout)
}

// ClockLabel returns the local zero-padded "HH:MM" for an instant.
func (c *Clock) ClockLabel(t time.Time) string {
	return t.In(c.loc).Format(clockLayout)
}

// hasOffset reports whether an ISO-like stamp carries an explicit UTC marker
// or numeric offset. The offset sign is searched after the "T" so date
// hyphens do not match.
func hasOffset(s string) bool {
	if strings.HasSuffix(s, "Z") {
		return true
	}
	ti := strings.IndexByte(s, 'T')
	if ti < 0 {
		return false
	}
	rest := s[ti+1:]
	return strings.ContainsAny(rest, "+-")
}

func splitDate(s string) (y, m, d int) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return 0, 1, 1
	}
	y, _ = strconv.Atoi(parts[0])
	m, _ = strconv.Atoi(parts[1])
	d, _ = strconv.Atoi(parts[2])
	return y, m, d
}

func splitClock(s string) (hh, mm int) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return 0, 0
	}
	hh, _ = strconv.Atoi(parts[0])
	mm, _ = strconv.Atoi(parts[1])
	return hh, mm
}

// ValidDate reports whether s is a well-formed "YYYY-MM-DD" calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(dayKeyLayout, s)
	return err == nil
}

// ValidClock reports whether s is a well-formed "HH:MM" clock time.
func ValidClock(s string) bool {
	_, err := time.Parse(clockLayout, s)
	return err == nil
}

// FormatDay renders a date carrier back to "YYYY-MM-DD".
func FormatDay(t time.Time) string {
	return t.Format(dayKeyLayout)
}
