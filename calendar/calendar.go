/*
Package calendar provides the date arithmetic shared by the rule engine.

PURPOSE:
  All temporal rules in this system are calendar rules: "same day as now",
  "the day before", "clipped to the target month", "inclusive day count".
  This package owns those operations so the trip and leave packages never
  touch raw time.Time math directly.

KEY CONCEPTS:
  - Date:  A calendar day (no time-of-day component, UTC-normalized)
  - Month: A year/month pair with Start/End boundaries
  - Span:  An inclusive date range that can be clipped to a month

DESIGN PRINCIPLES:
  1. Determinism: nothing here reads a clock; callers pass "now"/"today"
  2. Inclusivity: ranges and counts are inclusive on both ends
  3. Totality: malformed input yields an error, never a panic

SEE ALSO:
  - trip/eligibility.go: same-day / previous-day rules
  - leave/quota.go: month clipping and day counting
*/
package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - A calendar day
// =============================================================================

// Date is a calendar day. The zero value is the zero date and is treated as
// invalid by parsers and validators.
type Date struct {
	t time.Time
}

// NewDate builds a Date from year/month/day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses an ISO-8601 date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) IsZero() bool      { return d.t.IsZero() }
func (d Date) Time() time.Time   { return d.t }
func (d Date) String() string    { return d.t.Format("2006-01-02") }

// DaysBetween returns the signed number of days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.t.Sub(from.t).Hours() / 24)
}

// Min returns the earlier of two dates.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

// Max returns the later of two dates.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// MONTH - A year/month pair
// =============================================================================

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing the given date.
func MonthOf(d Date) YearMonth {
	return YearMonth{Year: d.Year(), Month: d.Month()}
}

// ParseMonth parses "2006-01".
func ParseMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns the first day of the month.
func (m YearMonth) Start() Date { return NewDate(m.Year, m.Month, 1) }

// End returns the last day of the month.
func (m YearMonth) End() Date {
	return Date{t: time.Date(m.Year, m.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// Contains reports whether the date falls inside the month.
func (m YearMonth) Contains(d Date) bool {
	return d.Year() == m.Year && d.Month() == m.Month
}

// Next returns the following month.
func (m YearMonth) Next() YearMonth { return MonthOf(m.End().AddDays(1)) }

// Prev returns the preceding month.
func (m YearMonth) Prev() YearMonth { return MonthOf(m.Start().AddDays(-1)) }

func (m YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// =============================================================================
// SPAN - Inclusive date range
// =============================================================================

// Span is an inclusive date range [Start, End]. End may equal Start for a
// single-day span.
type Span struct {
	Start Date
	End   Date
}

// IsValid reports whether Start <= End.
func (s Span) IsValid() bool { return s.Start.BeforeOrEqual(s.End) }

// Days returns the inclusive day count. An inverted span counts as zero,
// never negative.
func (s Span) Days() int {
	if !s.IsValid() {
		return 0
	}
	return DaysBetween(s.Start, s.End) + 1
}

// Clip intersects the span with a month's boundaries. The second return is
// false when the intersection is empty.
func (s Span) Clip(m YearMonth) (Span, bool) {
	clipped := Span{
		Start: Max(s.Start, m.Start()),
		End:   Min(s.End, m.End()),
	}
	if !clipped.IsValid() {
		return Span{}, false
	}
	return clipped, true
}

func (s Span) String() string {
	return "[" + s.Start.String() + ", " + s.End.String() + "]"
}

// =============================================================================
// INSTANT HELPERS - For rules that mix instants and calendar days
// =============================================================================

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// IsPreviousDay reports whether t falls on the calendar day immediately
// before the day containing now.
func IsPreviousDay(t, now time.Time) bool {
	yesterday := DateOf(now).AddDays(-1)
	return DateOf(t).Equal(yesterday)
}
